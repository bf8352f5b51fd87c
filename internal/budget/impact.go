package budget

import (
	"fmt"
	"math"
)

// RiskyCut flags a proposed limit that undercuts a category's demonstrated
// floor.
type RiskyCut struct {
	Category string
	Limit    float64
	Reason   string
}

// Impact summarizes what a set of drafts would do to monthly cash flow.
type Impact struct {
	PlannedNetSavings float64
	NewTotalBudget    float64
	FreedUpCash       float64
	RiskyCuts         []RiskyCut
}

// ImpactAnalysis totals the non-savings limits and flags risky cuts.
// avgMonthlyIncome of 0 means income is unknown; net savings then falls back
// to the spend delta.
func ImpactAnalysis(drafts []Draft, avgMonthlyIncome float64, pol Policy) Impact {
	if pol.WindowMonths <= 0 {
		pol = DefaultPolicy
	}

	var newTotal, currentSpend float64
	var risky []RiskyCut
	for _, d := range drafts {
		if d.IsSavings() {
			continue
		}
		newTotal += d.Limit
		currentSpend += d.Average

		// Cutting a stable cost below its cheapest observed month, or a
		// recurring bill deeply below its average, rarely sticks.
		if d.Limit < d.Min && d.Volatility < pol.LowVolatility {
			risky = append(risky, RiskyCut{
				Category: d.Category,
				Limit:    d.Limit,
				Reason:   fmt.Sprintf("below the cheapest observed month (%.0f) for a stable cost", d.Min),
			})
		} else if d.Frequency == FreqMonthly && d.Limit < pol.MonthlyCutRatio*d.Average {
			risky = append(risky, RiskyCut{
				Category: d.Category,
				Limit:    d.Limit,
				Reason:   fmt.Sprintf("deep cut on a recurring bill averaging %.0f", d.Average),
			})
		}
	}

	imp := Impact{NewTotalBudget: newTotal, RiskyCuts: risky}
	if avgMonthlyIncome > 0 {
		imp.PlannedNetSavings = avgMonthlyIncome - newTotal
	} else {
		imp.PlannedNetSavings = currentSpend - newTotal
	}
	if freed := currentSpend - newTotal; freed > 0 {
		imp.FreedUpCash = freed
	}
	return imp
}

// MonthsToTarget projects how long reaching targetCents takes at the planned
// savings rate. ok is false when no target is set or nothing is being saved.
func MonthsToTarget(targetCents, plannedNetSavings float64) (int, bool) {
	if targetCents <= 0 || plannedNetSavings <= 0 {
		return 0, false
	}
	return int(math.Ceil(targetCents / plannedNetSavings)), true
}

// GroupMinor merges non-savings drafts whose average falls below minShare
// (a fraction of total average spend) into a single synthetic draft. The
// merged aggregate fields are sums of the members'; its history is left
// empty because per-month vectors of differently-active categories do not
// align.
func GroupMinor(drafts []Draft, minShare float64) []Draft {
	if minShare <= 0 || len(drafts) == 0 {
		return drafts
	}
	var total float64
	for _, d := range drafts {
		total += d.Average
	}
	if total == 0 {
		return drafts
	}

	var kept []Draft
	var merged Draft
	mergedCount := 0
	for _, d := range drafts {
		if d.IsSavings() || d.Average >= minShare*total {
			kept = append(kept, d)
			continue
		}
		merged.Average += d.Average
		merged.Min += d.Min
		merged.Max += d.Max
		merged.Volatility += d.Volatility
		merged.ActiveMonths += d.ActiveMonths
		merged.Limit += d.Limit
		if merged.Frequency == "" || freqRank(d.Frequency) > freqRank(merged.Frequency) {
			merged.Frequency = d.Frequency
		}
		mergedCount++
	}
	if mergedCount == 0 {
		return drafts
	}
	merged.Category = "Other Minor Expenses"
	merged.Class = ClassDiscretionary
	merged.Strategy = StrategyMaintain
	merged.History = nil
	return append(kept, merged)
}

func freqRank(f string) int {
	switch f {
	case FreqMonthly:
		return 2
	case FreqOccasional:
		return 1
	default:
		return 0
	}
}
