// Package budget derives per-category spending baselines and goal-driven
// limit proposals from transaction history. Everything here is pure
// computation over snapshots: drafts are recomputed in full on every
// planning session and never persisted, only accepted Budget rows are.
package budget

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/wachira/pesaflow/internal/database/repository"
)

// Goal is the user's primary financial goal.
type Goal string

const (
	GoalSave    Goal = "save"
	GoalInvest  Goal = "invest"
	GoalTravel  Goal = "travel"
	GoalAsset   Goal = "asset"
	GoalDebt    Goal = "debt"
	GoalControl Goal = "control"
)

// Profile carries the user inputs that shape proposals.
type Profile struct {
	PrimaryGoal Goal
	TargetCents int64 // savings target; 0 = none
}

// Category classes.
const (
	ClassSavings       = "savings"
	ClassDiscretionary = "discretionary"
	ClassEssential     = "essential"
)

// Strategy tags.
const (
	StrategyIncrease   = "increase"
	StrategyMaintain   = "maintain"
	StrategyAggressive = "aggressive"
	StrategyModerate   = "moderate"
)

// Frequency labels.
const (
	FreqMonthly    = "Monthly"
	FreqOccasional = "Occasional"
	FreqRare       = "Rare"
)

// Policy holds the tunable planning parameters. The default values mirror
// long-standing product behavior but nothing in this package hardcodes them.
type Policy struct {
	WindowMonths    int     // history window over active months
	MonthlyFreq     float64 // activeMonths/window at or above which a category is Monthly
	OccasionalFreq  float64 // ... Occasional
	LowVolatility   float64 // below this a category counts as stable
	MonthlyCutRatio float64 // cutting a Monthly category below ratio*average is risky
	SavingsIncrease float64 // proposed bump for savings categories
	AggressiveCut   float64 // discretionary cut for save/debt/control goals
	ModerateCut     float64 // discretionary cut for invest/asset goals
}

// DefaultPolicy is the standard planning policy.
var DefaultPolicy = Policy{
	WindowMonths:    12,
	MonthlyFreq:     0.8,
	OccasionalFreq:  0.4,
	LowVolatility:   0.2,
	MonthlyCutRatio: 0.8,
	SavingsIncrease: 0.10,
	AggressiveCut:   0.20,
	ModerateCut:     0.10,
}

// Draft is one category's computed baseline and proposal. Amounts are in
// cents; Average and friends are fractional because they divide by the
// window length.
type Draft struct {
	Category     string
	Average      float64
	Min          float64 // smallest nonzero month; 0 when no nonzero entries
	Max          float64
	History      []float64 // per-month spend, most recent month first
	Volatility   float64   // population stddev / mean; 0 when mean is 0
	ActiveMonths int
	Frequency    string
	Class        string
	Limit        float64
	Strategy     string
	FromBudget   bool // limit/strategy taken from an existing budget
}

func (d Draft) IsSavings() bool { return d.Class == ClassSavings }

var savingsKeywords = []string{"saving", "sacco", "investment", "money market", "mmf", "unit trust", "pension", "shares"}

var discretionaryKeywords = []string{"entertainment", "eating out", "dining", "restaurant", "shopping", "subscription", "hobby", "travel", "leisure", "betting"}

// Classify buckets a category name. Savings and discretionary keyword lists
// are checked first, in that order; everything else is essential.
func Classify(category string) string {
	c := strings.ToLower(category)
	for _, kw := range savingsKeywords {
		if strings.Contains(c, kw) {
			return ClassSavings
		}
	}
	for _, kw := range discretionaryKeywords {
		if strings.Contains(c, kw) {
			return ClassDiscretionary
		}
	}
	return ClassEssential
}

// AvgMonthlyIncome is the mean of calendar months with nonzero income,
// transfers excluded; zero when no month had income.
func AvgMonthlyIncome(txs []repository.Transaction) float64 {
	perMonth := map[string]int64{}
	for _, tx := range txs {
		if tx.Type != repository.TypeIncome || tx.IsTransfer {
			continue
		}
		perMonth[monthKey(tx.Date)] += tx.AmountCents
	}
	var sum float64
	n := 0
	for _, v := range perMonth {
		if v != 0 {
			sum += float64(v)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ComputeDrafts builds a draft per expense category, ordered by average
// spend descending. Existing budgets always win over fresh suggestions.
func ComputeDrafts(txs []repository.Transaction, existing []repository.Budget, profile Profile, pol Policy) []Draft {
	if pol.WindowMonths <= 0 {
		pol = DefaultPolicy
	}

	// Per-category, per-month expense totals; transfers excluded.
	spend := map[string]map[string]int64{}
	monthSet := map[string]bool{}
	for _, tx := range txs {
		if tx.Type != repository.TypeExpense || tx.IsTransfer {
			continue
		}
		cat := "Other"
		if tx.Category != nil && *tx.Category != "" {
			cat = *tx.Category
		}
		mk := monthKey(tx.Date)
		if spend[cat] == nil {
			spend[cat] = map[string]int64{}
		}
		spend[cat][mk] += tx.AmountCents
		monthSet[mk] = true
	}
	if len(monthSet) == 0 {
		return nil
	}

	// Most recent active months, newest first, truncated to the window.
	months := make([]string, 0, len(monthSet))
	for mk := range monthSet {
		months = append(months, mk)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	if len(months) > pol.WindowMonths {
		months = months[:pol.WindowMonths]
	}
	window := len(months)

	budgetByCategory := map[string]repository.Budget{}
	for _, b := range existing {
		budgetByCategory[b.Category] = b
	}

	var drafts []Draft
	for cat, perMonth := range spend {
		history := make([]float64, window)
		var sum, max float64
		min := 0.0
		active := 0
		for i, mk := range months {
			v := float64(perMonth[mk])
			history[i] = v
			sum += v
			if v > max {
				max = v
			}
			if v > 0 {
				active++
				if min == 0 || v < min {
					min = v
				}
			}
		}
		avg := sum / float64(window)
		vol := 0.0
		if avg > 0 {
			var sq float64
			for _, v := range history {
				d := v - avg
				sq += d * d
			}
			vol = math.Sqrt(sq/float64(window)) / avg
		}

		d := Draft{
			Category:     cat,
			Average:      avg,
			Min:          min,
			Max:          max,
			History:      history,
			Volatility:   vol,
			ActiveMonths: active,
			Frequency:    frequencyLabel(active, window, pol),
			Class:        Classify(cat),
		}
		if b, ok := budgetByCategory[cat]; ok {
			d.Limit = float64(b.LimitCents)
			d.Strategy = b.Strategy
			d.FromBudget = true
		} else {
			d.Limit, d.Strategy = propose(d, profile.PrimaryGoal, pol)
		}
		drafts = append(drafts, d)
	}

	sort.SliceStable(drafts, func(i, j int) bool { return drafts[i].Average > drafts[j].Average })
	return drafts
}

// propose derives an initial limit and strategy from the category class and
// the user's primary goal.
func propose(d Draft, goal Goal, pol Policy) (float64, string) {
	switch d.Class {
	case ClassSavings:
		switch goal {
		case GoalSave, GoalInvest, GoalTravel, GoalAsset:
			return d.Average * (1 + pol.SavingsIncrease), StrategyIncrease
		}
		return d.Average, StrategyMaintain
	case ClassDiscretionary:
		switch goal {
		case GoalSave, GoalDebt, GoalControl:
			return d.Average * (1 - pol.AggressiveCut), StrategyAggressive
		case GoalInvest, GoalAsset:
			return d.Average * (1 - pol.ModerateCut), StrategyModerate
		}
		return d.Average, StrategyMaintain
	default:
		return d.Average, StrategyMaintain
	}
}

func frequencyLabel(active, window int, pol Policy) string {
	ratio := float64(active) / float64(window)
	switch {
	case ratio >= pol.MonthlyFreq:
		return FreqMonthly
	case ratio >= pol.OccasionalFreq:
		return FreqOccasional
	default:
		return FreqRare
	}
}

func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
