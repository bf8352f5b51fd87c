package service

import (
	"context"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/wachira/pesaflow/internal/database/repository"
)

// Transfer pairing policy.
const (
	transferMaxDaysApart  = 3
	transferMinSimilarity = 0.35
)

// TransferDetector marks money movement between the user's own accounts so
// the statistics engine can exclude it from income and expense totals.
type TransferDetector struct {
	Transactions *repository.TransactionRepo
}

// DetectAndMark pairs an expense in one account with an equal-magnitude
// income in another account within a few days and similar description text,
// then flags both legs. Returns the number of transactions marked.
func (d *TransferDetector) DetectAndMark(ctx context.Context) (int, error) {
	txs, err := d.Transactions.List(ctx, repository.TransactionFilters{ExcludeXfers: true})
	if err != nil {
		return 0, err
	}

	marked := 0
	used := make(map[string]bool)
	for i := 0; i < len(txs); i++ {
		a := txs[i]
		if used[a.ID] || a.Type != repository.TypeExpense {
			continue
		}
		for j := 0; j < len(txs); j++ {
			b := txs[j]
			if used[b.ID] || b.Type != repository.TypeIncome || b.AccountID == a.AccountID {
				continue
			}
			if a.AmountCents != b.AmountCents {
				continue
			}
			days := a.Date.Sub(b.Date).Hours() / 24
			if days < 0 {
				days = -days
			}
			if days > transferMaxDaysApart {
				continue
			}
			if !transferLike(a.Description, b.Description) {
				continue
			}
			if err := d.Transactions.MarkTransfer(ctx, a.ID, true); err != nil {
				return marked, err
			}
			if err := d.Transactions.MarkTransfer(ctx, b.ID, true); err != nil {
				return marked, err
			}
			used[a.ID], used[b.ID] = true, true
			marked += 2
			break
		}
	}
	return marked, nil
}

// transferLike accepts pairs that either mention a transfer outright or
// whose descriptions are close by edit distance.
func transferLike(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if strings.Contains(la, "transfer") || strings.Contains(lb, "transfer") {
		return true
	}
	longest := len(la)
	if len(lb) > longest {
		longest = len(lb)
	}
	if longest == 0 {
		return false
	}
	dist := levenshtein.ComputeDistance(la, lb)
	return 1-float64(dist)/float64(longest) >= transferMinSimilarity
}
