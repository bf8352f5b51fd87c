package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wachira/pesaflow/internal/database/repository"
)

func seedTransaction(t *testing.T, repo *repository.TransactionRepo, accountID string, txType string, date time.Time, cents int64, desc string) string {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, repo.Insert(context.Background(), repository.Transaction{
		ID:          id,
		AccountID:   accountID,
		Date:        date,
		AmountCents: cents,
		Type:        txType,
		Description: desc,
	}))
	return id
}

func seedAccount(t *testing.T, repo *repository.AccountRepo, name string) string {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, repo.Upsert(context.Background(), repository.Account{
		ID: id, Name: name, Institution: name, AccountType: "checking",
	}))
	return id
}

func TestDetectAndMarkPairsTransferLegs(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	accounts := repository.NewAccountRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	checking := seedAccount(t, accounts, "Checking")
	savings := seedAccount(t, accounts, "Savings")

	on := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	seedTransaction(t, txRepo, checking, repository.TypeExpense, on, 10_000_00, "TRANSFER TO SAVINGS REF 8812")
	seedTransaction(t, txRepo, savings, repository.TypeIncome, on.AddDate(0, 0, 1), 10_000_00, "FUNDS RECEIVED TRANSFER")
	seedTransaction(t, txRepo, checking, repository.TypeExpense, on, 500_00, "PAYBILL TO ZUKU ACC 99")

	d := &TransferDetector{Transactions: txRepo}
	marked, err := d.DetectAndMark(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, marked)

	txs, err := txRepo.List(context.Background(), repository.TransactionFilters{ExcludeXfers: true})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, "PAYBILL TO ZUKU ACC 99", txs[0].Description)

	// A second pass finds nothing new.
	marked, err = d.DetectAndMark(context.Background())
	require.NoError(t, err)
	require.Zero(t, marked)
}

func TestDetectAndMarkRejectsDistantDates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	accounts := repository.NewAccountRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	checking := seedAccount(t, accounts, "Checking")
	savings := seedAccount(t, accounts, "Savings")

	on := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	seedTransaction(t, txRepo, checking, repository.TypeExpense, on, 10_000_00, "TRANSFER TO SAVINGS")
	seedTransaction(t, txRepo, savings, repository.TypeIncome, on.AddDate(0, 0, 10), 10_000_00, "TRANSFER RECEIVED")

	d := &TransferDetector{Transactions: txRepo}
	marked, err := d.DetectAndMark(context.Background())
	require.NoError(t, err)
	require.Zero(t, marked)
}

func TestDetectAndMarkRejectsSameAccount(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	accounts := repository.NewAccountRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	checking := seedAccount(t, accounts, "Checking")

	on := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	seedTransaction(t, txRepo, checking, repository.TypeExpense, on, 10_000_00, "TRANSFER OUT")
	seedTransaction(t, txRepo, checking, repository.TypeIncome, on, 10_000_00, "TRANSFER IN")

	d := &TransferDetector{Transactions: txRepo}
	marked, err := d.DetectAndMark(context.Background())
	require.NoError(t, err)
	require.Zero(t, marked)
}

func TestTransferLike(t *testing.T) {
	t.Parallel()

	require.True(t, transferLike("TRANSFER TO SAVINGS", "anything at all"))
	require.True(t, transferLike("MOVE TO SAVINGS ACC 12", "MOVE TO SAVINGS ACC 12"))
	require.False(t, transferLike("PAYBILL TO KPLC", strings.Repeat("z", 40)))
	require.False(t, transferLike("", ""))
}
