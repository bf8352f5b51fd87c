package budget

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImpactAnalysisFlagsCutBelowStableFloor(t *testing.T) {
	t.Parallel()

	drafts := []Draft{
		{Category: "Rent", Class: ClassEssential, Average: 450_00, Min: 440_00, Limit: 400_00, Volatility: 0.05},
	}
	imp := ImpactAnalysis(drafts, 0, DefaultPolicy)
	require.Len(t, imp.RiskyCuts, 1)
	require.Equal(t, "Rent", imp.RiskyCuts[0].Category)
	require.Contains(t, imp.RiskyCuts[0].Reason, "cheapest observed month")
}

func TestImpactAnalysisNeverFlagsSavings(t *testing.T) {
	t.Parallel()

	drafts := []Draft{
		{Category: "Sacco Savings", Class: ClassSavings, Average: 200_00, Min: 200_00, Limit: 50_00, Volatility: 0.0},
	}
	imp := ImpactAnalysis(drafts, 0, DefaultPolicy)
	require.Empty(t, imp.RiskyCuts)
	require.Zero(t, imp.NewTotalBudget) // savings do not count toward the budget total
}

func TestImpactAnalysisVolatileCategoryNotFlagged(t *testing.T) {
	t.Parallel()

	drafts := []Draft{
		{Category: "Shopping", Class: ClassDiscretionary, Average: 100_00, Min: 30_00, Limit: 20_00, Volatility: 0.6},
	}
	imp := ImpactAnalysis(drafts, 0, DefaultPolicy)
	require.Empty(t, imp.RiskyCuts)
}

func TestImpactAnalysisDeepCutOnRecurringBill(t *testing.T) {
	t.Parallel()

	drafts := []Draft{
		{Category: "Internet", Class: ClassEssential, Frequency: FreqMonthly, Average: 50_00, Min: 10_00, Limit: 30_00, Volatility: 0.5},
	}
	imp := ImpactAnalysis(drafts, 0, DefaultPolicy)
	require.Len(t, imp.RiskyCuts, 1)
	require.Contains(t, imp.RiskyCuts[0].Reason, "recurring bill")
}

func TestImpactAnalysisCashFlow(t *testing.T) {
	t.Parallel()

	drafts := []Draft{
		{Category: "Rent", Class: ClassEssential, Average: 450_00, Min: 450_00, Limit: 450_00},
		{Category: "Eating Out", Class: ClassDiscretionary, Average: 100_00, Min: 40_00, Limit: 80_00, Volatility: 0.4},
		{Category: "Sacco Savings", Class: ClassSavings, Average: 200_00, Min: 200_00, Limit: 220_00},
	}

	withIncome := ImpactAnalysis(drafts, 1000_00, DefaultPolicy)
	require.InDelta(t, 530_00, withIncome.NewTotalBudget, 0.001)
	require.InDelta(t, 470_00, withIncome.PlannedNetSavings, 0.001)
	require.InDelta(t, 20_00, withIncome.FreedUpCash, 0.001)

	noIncome := ImpactAnalysis(drafts, 0, DefaultPolicy)
	require.InDelta(t, 20_00, noIncome.PlannedNetSavings, 0.001) // spend delta fallback
}

func TestMonthsToTarget(t *testing.T) {
	t.Parallel()

	n, ok := MonthsToTarget(1000_00, 300_00)
	require.True(t, ok)
	require.Equal(t, 4, n) // ceil(1000/300)

	_, ok = MonthsToTarget(1000_00, 0)
	require.False(t, ok)
	_, ok = MonthsToTarget(0, 300_00)
	require.False(t, ok)
}

func TestGroupMinorMergesSmallDrafts(t *testing.T) {
	t.Parallel()

	drafts := []Draft{
		{Category: "Rent", Class: ClassEssential, Average: 900_00, Min: 900_00, Max: 900_00, Limit: 900_00, Frequency: FreqMonthly},
		{Category: "Stationery", Class: ClassEssential, Average: 5_00, Min: 5_00, Max: 5_00, Limit: 5_00, Frequency: FreqRare},
		{Category: "Car Wash", Class: ClassEssential, Average: 10_00, Min: 10_00, Max: 10_00, Limit: 10_00, Frequency: FreqOccasional},
		{Category: "Pension Savings", Class: ClassSavings, Average: 2_00, Min: 2_00, Max: 2_00, Limit: 2_00, Frequency: FreqRare},
	}

	grouped := GroupMinor(drafts, 0.05)
	require.Len(t, grouped, 3) // Rent, Pension Savings, merged bucket

	var minor Draft
	for _, d := range grouped {
		if d.Category == "Other Minor Expenses" {
			minor = d
		}
		require.NotEqual(t, "Stationery", d.Category)
		require.NotEqual(t, "Car Wash", d.Category)
	}
	require.InDelta(t, 15_00, minor.Average, 0.001)
	require.InDelta(t, 15_00, minor.Limit, 0.001)
	require.Equal(t, FreqOccasional, minor.Frequency)
	require.Equal(t, ClassDiscretionary, minor.Class)
	require.Equal(t, StrategyMaintain, minor.Strategy)
	require.Empty(t, minor.History)
}

func TestGroupMinorNoChangeWhenNothingSmall(t *testing.T) {
	t.Parallel()

	drafts := []Draft{
		{Category: "Rent", Average: 500_00},
		{Category: "Groceries", Average: 500_00},
	}
	require.Equal(t, drafts, GroupMinor(drafts, 0.1))
	require.Equal(t, drafts, GroupMinor(drafts, 0))
}
