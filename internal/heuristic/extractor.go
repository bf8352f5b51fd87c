// Package heuristic resolves merchant names from raw statement-line
// descriptions using an ordered regex cascade. Rules are tried in declared
// order and the first match wins, so more specific formats must stay above
// generic ones.
package heuristic

import (
	"regexp"
	"strings"
)

// Rule maps one statement-line format to a merchant capture.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	// Prefix is prepended to the captured text, e.g. "Agent " for agent
	// withdrawals where the capture alone is just a shop name.
	Prefix string
}

// Result is the outcome of a single extraction. When no rule matches,
// Found is false and CacheKey is the trimmed input description.
type Result struct {
	Merchant string
	Found    bool
	CacheKey string
	Rule     string
}

// merchantRules is ordered by specificity. Bank-branded mobile-money lines
// come before generic card/transfer formats: an IBKG pay line also contains
// the word "TO", which the transfer rule would otherwise claim.
var merchantRules = []Rule{
	{
		// IBKG-prefixed M-Pesa pay lines; the recipient is the leading MSISDN.
		Name:    "mpesa-ibkg",
		Pattern: regexp.MustCompile(`^IBKG MPESA PAY TO\s+(\d+)`),
		Prefix:  "M-Pesa ",
	},
	{
		// Paybill payments name the biller before the account reference.
		Name:    "mpesa-paybill",
		Pattern: regexp.MustCompile(`(?i)^PAY ?BILL TO\s+(.+?)(?:\s+ACC(?:OUNT)?\b.*)?$`),
	},
	{
		// Buy-goods till payments; trailing till number is noise.
		Name:    "mpesa-till",
		Pattern: regexp.MustCompile(`(?i)^BUY GOODS (?:TO|AT)\s+(.+?)(?:\s+TILL\s+\d+.*)?$`),
	},
	{
		// Agent cash withdrawals; capture is the agent's shop name.
		Name:    "agent-withdrawal",
		Pattern: regexp.MustCompile(`(?i)^WITHDRAW(?:AL)?(?:\s+KSH[\d,.]+)?\s+FROM\s+AGENT\s+\d+\s*-\s*(.+)$`),
		Prefix:  "Agent ",
	},
	{
		// Card network debit lines end in a DD-MM-YYYY timestamp block.
		Name:    "debit-card",
		Pattern: regexp.MustCompile(`(?i)^DEBIT CARD TXN AT\s+(.+?)\s+\d{2}-\d{2}-\d{4}\b`),
	},
	{
		// POS acquirer lines; optional terminal id and trailing date.
		Name:    "pos-purchase",
		Pattern: regexp.MustCompile(`(?i)^POS PURCHASE\s+(?:\d+\s+)?(.+?)(?:\s+\d{2}/\d{2}(?:/\d{2,4})?)?$`),
	},
	{
		// Generic outbound transfers; must stay last, the pattern is loose.
		Name:    "bank-transfer",
		Pattern: regexp.MustCompile(`(?i)^(?:FT|TRANSFER) TO\s+(.+?)(?:\s+REF\b.*)?$`),
	},
}

// ExtractMerchant applies the rule cascade to description. The first rule
// whose pattern matches wins; the captured text is whitespace-normalized,
// trimmed, and prefixed. On a match the cache key equals the merchant; on a
// miss it is the trimmed description itself, so unresolved lines are cached
// by their literal text.
func ExtractMerchant(description string) Result {
	trimmed := strings.TrimSpace(description)
	for _, r := range merchantRules {
		m := r.Pattern.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		merchant := r.Prefix + normalizeSpace(m[1])
		return Result{Merchant: merchant, Found: true, CacheKey: merchant, Rule: r.Name}
	}
	return Result{CacheKey: trimmed}
}

// MatchingRules returns the names of every rule whose pattern matches the
// trimmed description, in cascade order. ExtractMerchant only ever takes the
// first; this exists so callers (and tests) can detect overlap.
func MatchingRules(description string) []string {
	trimmed := strings.TrimSpace(description)
	var names []string
	for _, r := range merchantRules {
		if r.Pattern.MatchString(trimmed) {
			names = append(names, r.Name)
		}
	}
	return names
}

var spaceRun = regexp.MustCompile(`\s+`)

func normalizeSpace(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
