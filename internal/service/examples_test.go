package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wachira/pesaflow/internal/database/repository"
)

func categorizedTx(description, category string) repository.Transaction {
	return repository.Transaction{Description: description, Category: &category}
}

func TestSelectExamplesClosestFirst(t *testing.T) {
	t.Parallel()

	history := []repository.Transaction{
		categorizedTx("PAYBILL TO KPLC PREPAID ACC 111", "Utilities"),
		categorizedTx("BUY GOODS TO NAIVAS SUPERMARKET TILL 99", "Groceries"),
		categorizedTx("PAYBILL TO KPLC PREPAID ACC 222", "Utilities"),
		uncategorized("PAYBILL TO KPLC PREPAID ACC 333"),
	}

	got := SelectExamples(history, "PAYBILL TO KPLC PREPAID ACC 444", 2)
	require.Len(t, got, 2)
	require.Equal(t, "Utilities", got[0].Category)
	require.Equal(t, "Utilities", got[1].Category)
}

func TestSelectExamplesDeduplicatesDescriptions(t *testing.T) {
	t.Parallel()

	history := []repository.Transaction{
		categorizedTx("PAYBILL TO ZUKU ACC 99", "Utilities"),
		categorizedTx("paybill to zuku acc 99", "Entertainment"),
	}
	got := SelectExamples(history, "PAYBILL TO ZUKU ACC 99", 8)
	require.Len(t, got, 1)
	require.Equal(t, "Utilities", got[0].Category) // first occurrence wins
}

func TestSelectExamplesForBatchCoversEveryItem(t *testing.T) {
	t.Parallel()

	history := []repository.Transaction{
		categorizedTx("PAYBILL TO KPLC PREPAID ACC 111", "Utilities"),
		categorizedTx("BUY GOODS TO NAIVAS SUPERMARKET TILL 99", "Groceries"),
		categorizedTx("WHOLLY UNRELATED NARRATIVE XYZQ", "Other"),
	}

	// Each batch item must pull in its own nearest precedent, not just the
	// first item's.
	got := SelectExamplesForBatch(history, []string{
		"PAYBILL TO KPLC PREPAID ACC 444",
		"BUY GOODS TO NAIVAS SUPERMARKET TILL 42",
	}, 2)
	require.Len(t, got, 2)
	cats := []string{got[0].Category, got[1].Category}
	require.Contains(t, cats, "Utilities")
	require.Contains(t, cats, "Groceries")
}

func TestSelectExamplesEmptyHistory(t *testing.T) {
	t.Parallel()

	require.Empty(t, SelectExamples(nil, "anything", 8))
	require.Empty(t, SelectExamples([]repository.Transaction{uncategorized("x")}, "anything", 0))
}
