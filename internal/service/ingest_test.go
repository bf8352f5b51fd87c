package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wachira/pesaflow/internal/database"
	"github.com/wachira/pesaflow/internal/database/repository"
	"github.com/wachira/pesaflow/internal/llm"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pesaflow.db")
	db, err := database.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrationsWithDB(db))
	return db
}

func newIngestService(t *testing.T, db *sql.DB, provider llm.Enricher) *IngestService {
	t.Helper()
	return &IngestService{
		Transactions: repository.NewTransactionRepo(db),
		Accounts:     repository.NewAccountRepo(db),
		Loyalty:      repository.NewLoyaltyRepo(db),
		Provider:     provider,
	}
}

func TestImportCSV(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := newIngestService(t, db, nil)
	ctx := context.Background()

	csvData := strings.Join([]string{
		`2026-01-15,-1250.50,PAYBILL TO KPLC PREPAID ACC 543210987`,
		`2026-01-25,"85,000.00",SALARY JANUARY`,
		`16/01/2026,-300,BUY GOODS TO NAIVAS SUPERMARKET TILL 123456`,
	}, "\n")

	res, err := s.ImportCSV(ctx, strings.NewReader(csvData), "Main", time.UTC)
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Equal(t, 3, res.Imported)
	require.Zero(t, res.Skipped)

	txs, err := s.Transactions.List(ctx, repository.TransactionFilters{})
	require.NoError(t, err)
	require.Len(t, txs, 3)

	byDesc := map[string]repository.Transaction{}
	for _, tx := range txs {
		byDesc[tx.Description] = tx
	}
	kplc := byDesc["PAYBILL TO KPLC PREPAID ACC 543210987"]
	require.Equal(t, repository.TypeExpense, kplc.Type)
	require.Equal(t, int64(125050), kplc.AmountCents) // magnitude, not the signed value
	salary := byDesc["SALARY JANUARY"]
	require.Equal(t, repository.TypeIncome, salary.Type)
	require.Equal(t, int64(8500000), salary.AmountCents)
}

func TestImportCSVDeduplicates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := newIngestService(t, db, nil)
	ctx := context.Background()

	row := "2026-02-01,-500,PAYBILL TO ZUKU ACC 99\n"
	res, err := s.ImportCSV(ctx, strings.NewReader(row), "Main", time.UTC)
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)

	// Re-importing the same statement skips every row silently.
	res, err = s.ImportCSV(ctx, strings.NewReader(row), "Main", time.UTC)
	require.NoError(t, err)
	require.Zero(t, res.Imported)
	require.Equal(t, 1, res.Skipped)

	// The same row under another account is a distinct transaction.
	res, err = s.ImportCSV(ctx, strings.NewReader(row), "Savings", time.UTC)
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)
}

func TestImportCSVBadRowsReportedNotFatal(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := newIngestService(t, db, nil)
	ctx := context.Background()

	csvData := strings.Join([]string{
		`not-a-date,-100,SOMETHING`,
		`2026-03-01,not-a-number,SOMETHING ELSE`,
		`2026-03-02,-100`,
		`2026-03-03,-100,GOOD ROW`,
	}, "\n")

	res, err := s.ImportCSV(ctx, strings.NewReader(csvData), "Main", time.UTC)
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)
	require.Len(t, res.Errors, 3)
}

func TestImportCSVRecordsLoyaltyPoints(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := newIngestService(t, db, nil)
	ctx := context.Background()

	csvData := "2026-04-05,-2000,BUY GOODS TO NAIVAS SUPERMARKET EARNED 120 POINTS\n"
	res, err := s.ImportCSV(ctx, strings.NewReader(csvData), "Main", time.UTC)
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)

	cards, err := s.Loyalty.List(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	require.Equal(t, int64(120), cards[0].Points)
}

func TestImportStatement(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	fake := &fakeEnricher{}
	fake.parseRows = []llm.ParsedRow{
		{Date: "2026-05-10", Description: "DSTV SUBSCRIPTION", Amount: 1800, Type: repository.TypeExpense},
		// Some models return the out-flow convention regardless of type;
		// the declared type must win over the sign.
		{Date: "2026-05-12", Description: "MPESA DEPOSIT", Amount: -4000, Type: repository.TypeIncome},
	}
	s := newIngestService(t, db, fake)

	res, err := s.ImportStatement(context.Background(), []byte("%PDF-1.7"), "application/pdf", "Main", time.UTC)
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Equal(t, 2, res.Imported)

	txs, err := s.Transactions.List(context.Background(), repository.TransactionFilters{Type: repository.TypeExpense})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, "DSTV SUBSCRIPTION", txs[0].Description)
	require.Equal(t, int64(180000), txs[0].AmountCents)

	incomes, err := s.Transactions.List(context.Background(), repository.TransactionFilters{Type: repository.TypeIncome})
	require.NoError(t, err)
	require.Len(t, incomes, 1)
	require.Equal(t, "MPESA DEPOSIT", incomes[0].Description)
	require.Equal(t, int64(400000), incomes[0].AmountCents)
}

func TestImportStatementParseFailure(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	fake := &fakeEnricher{err: errors.New("unreadable scan")}
	s := newIngestService(t, db, fake)

	_, err := s.ImportStatement(context.Background(), []byte("junk"), "application/pdf", "Main", time.UTC)
	require.ErrorIs(t, err, ErrStatementParse)
}

func TestParseLocalDate(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"2026-01-05", "5/01/2026", "05/01/2026"} {
		got, err := parseLocalDate(in, time.UTC)
		require.NoError(t, err)
		require.Equal(t, time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC), got)
	}
	_, err := parseLocalDate("Jan 5 2026", time.UTC)
	require.Error(t, err)
}

func TestShillingsToCents(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]int64{
		"1250.50":   125050,
		"-300":      -30000,
		"85,000.00": 8500000,
		" 12.345 ":  1235, // rounds, never truncates
	} {
		got, err := shillingsToCents(in)
		require.NoError(t, err)
		require.Equal(t, want, got, in)
	}
	_, err := shillingsToCents("12.3.4")
	require.Error(t, err)
}
