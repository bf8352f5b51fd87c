// Package rules maps merchant names to spending categories using a fixed,
// ordered keyword table. Lookup is a case-insensitive substring test and the
// first matching rule wins, so rules with overlapping keywords (a bank name
// that also appears in a utility biller, say) must be ordered by intent.
package rules

import "strings"

type rule struct {
	keywords []string
	category string
}

// Banks and telcos come first: "EQUITY" also appears in some utility biller
// names, and "SAFARICOM" lines are airtime, not internet.
var table = []rule{
	{[]string{"equity bank", "kcb", "co-op bank", "absa", "ncba", "stanchart"}, "Bank Charges"},
	{[]string{"safaricom", "airtel", "telkom", "airtime"}, "Airtime & Data"},
	{[]string{"kplc", "ke power", "kenya power", "nairobi water", "water bill", "zuku", "faiba"}, "Utilities"},
	{[]string{"naivas", "carrefour", "quickmart", "chandarana", "supermarket"}, "Groceries"},
	{[]string{"java house", "kfc", "artcaffe", "chicken inn", "restaurant", "pizza"}, "Eating Out"},
	{[]string{"matatu", "sgr", "bus fare", "shell", "total energies", "rubis", "parking"}, "Transport"},
	{[]string{"netflix", "spotify", "showmax", "dstv", "youtube premium"}, "Subscriptions"},
	{[]string{"pharmacy", "hospital", "clinic", "chemist"}, "Health"},
	{[]string{"jumia", "kilimall", "amazon"}, "Shopping"},
	{[]string{"m-shwari", "kcb goal", "sacco", "money market", "mmf", "unit trust"}, "Savings"},
	{[]string{"betika", "sportpesa", "odibets"}, "Entertainment"},
	{[]string{"nhif", "shif", "insurance", "premium due"}, "Insurance"},
	{[]string{"school fees", "tuition", "college"}, "Education"},
	{[]string{"rent", "landlord"}, "Rent"},
}

// Categories returns the distinct category names in table order, for use as
// the allowed set in remote enrichment prompts. "Other" is appended as the
// catch-all.
func Categories() []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range table {
		if !seen[r.category] {
			seen[r.category] = true
			out = append(out, r.category)
		}
	}
	return append(out, "Other")
}

// CategoryFor returns the category for a merchant name, or "" when no rule
// matches. Pure lookup; absence of a match is a normal outcome.
func CategoryFor(merchant string) string {
	m := strings.ToLower(merchant)
	if m == "" {
		return ""
	}
	for _, r := range table {
		for _, kw := range r.keywords {
			if strings.Contains(m, kw) {
				return r.category
			}
		}
	}
	return ""
}
