package repository

import "time"

// Transaction types.
const (
	TypeExpense = "expense"
	TypeIncome  = "income"
)

// Account represents an account row.
type Account struct {
	ID          string
	Name        string
	Institution string
	AccountType string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Transaction represents a transaction row. Amount is a non-negative
// magnitude in cents; Type carries the direction.
type Transaction struct {
	ID           string
	AccountID    string
	Date         time.Time
	AmountCents  int64
	Type         string
	Description  string
	MerchantName *string
	Category     *string
	IsTransfer   bool
	SourceHash   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Budget represents an accepted budget proposal for a category.
type Budget struct {
	ID          string
	Category    string
	LimitCents  int64
	Period      string
	Strategy    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LoyaltyCard tracks a points balance extracted from statement text.
type LoyaltyCard struct {
	ID        string
	Name      string
	Points    int64
	UpdatedAt time.Time
}
