package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// TransactionFilters defines list filters.
type TransactionFilters struct {
	AccountID     string
	Category      string
	Type          string
	Month         time.Time // first day of month; zero time = no month filter
	Search        string
	Uncategorized bool
	ExcludeXfers  bool
}

// TransactionRepo handles transactions.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

func (r *TransactionRepo) Insert(ctx context.Context, t Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(
	 id, account_id, date, amount, type, description, merchant_name,
	 category, is_transfer, source_hash, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`,
		t.ID, t.AccountID, t.Date, t.AmountCents, t.Type, t.Description,
		t.MerchantName, t.Category, t.IsTransfer, t.SourceHash)
	return err
}

func (r *TransactionRepo) UpdateCategory(ctx context.Context, id string, category *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE transactions SET category = ?, updated_at=CURRENT_TIMESTAMP WHERE id = ?`, category, id)
	return err
}

func (r *TransactionRepo) UpdateMerchant(ctx context.Context, id string, merchant *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE transactions SET merchant_name = ?, updated_at=CURRENT_TIMESTAMP WHERE id = ?`, merchant, id)
	return err
}

// UpdateEnrichment sets merchant and category in one statement.
func (r *TransactionRepo) UpdateEnrichment(ctx context.Context, id string, merchant, category *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE transactions SET merchant_name = ?, category = ?, updated_at=CURRENT_TIMESTAMP WHERE id = ?`, merchant, category, id)
	return err
}

func (r *TransactionRepo) MarkTransfer(ctx context.Context, id string, isTransfer bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE transactions SET is_transfer = ?, updated_at=CURRENT_TIMESTAMP WHERE id = ?`, isTransfer, id)
	return err
}

func (r *TransactionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	return err
}

func (r *TransactionRepo) List(ctx context.Context, f TransactionFilters) ([]Transaction, error) {
	var where []string
	var args []interface{}

	if f.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if !f.Month.IsZero() {
		start := time.Date(f.Month.Year(), f.Month.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)
		where = append(where, "date >= ? AND date < ?")
		args = append(args, start, end)
	}
	if f.Search != "" {
		where = append(where, "description LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}
	if f.Uncategorized {
		where = append(where, "(category IS NULL OR category = '')")
	}
	if f.ExcludeXfers {
		where = append(where, "is_transfer = 0")
	}

	query := `SELECT id, account_id, date, amount, type, description, merchant_name,
	 category, is_transfer, source_hash, created_at, updated_at FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Date, &t.AmountCents, &t.Type,
			&t.Description, &t.MerchantName, &t.Category, &t.IsTransfer,
			&t.SourceHash, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ApplyEnrichment sets the merchant name on every transaction in ids and
// fills the category where the row has none. Existing categorizations are
// never overwritten. Callers decide which rows qualify.
func (r *TransactionRepo) ApplyEnrichment(ctx context.Context, ids []string, merchant, category *string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := []interface{}{merchant, category}
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := r.db.ExecContext(ctx, `
	UPDATE transactions SET
	 merchant_name = ?,
	 category = CASE WHEN category IS NULL OR category = '' THEN COALESCE(?, category) ELSE category END,
	 updated_at = CURRENT_TIMESTAMP
	WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
