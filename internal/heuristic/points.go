package heuristic

import (
	"regexp"
	"strconv"
	"strings"
)

// pointsRules follows the same single-first-match policy as the merchant
// cascade, over its own rule list. Used only for loyalty-card bookkeeping.
var pointsRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)EARNED\s+([\d,]+)\s+POINTS`),
	regexp.MustCompile(`(?i)POINTS BALANCE(?: IS)?:?\s+([\d,]+)`),
	regexp.MustCompile(`(?i)([\d,]+)\s+LOYALTY POINTS`),
}

// ExtractPoints pulls a loyalty-points integer out of free text. Commas are
// stripped before parsing. Absence of a match is a normal outcome.
func ExtractPoints(text string) (int64, bool) {
	for _, re := range pointsRules {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw := strings.ReplaceAll(m[1], ",", "")
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
