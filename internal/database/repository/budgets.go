package repository

import (
	"context"
	"database/sql"
)

// BudgetRepo stores accepted budget proposals.
type BudgetRepo struct{ db *sql.DB }

func NewBudgetRepo(db *sql.DB) *BudgetRepo { return &BudgetRepo{db: db} }

func (r *BudgetRepo) Upsert(ctx context.Context, b Budget) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO budgets(id, category, limit_amount, period, strategy, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(category) DO UPDATE SET
	 limit_amount=excluded.limit_amount, period=excluded.period,
	 strategy=excluded.strategy, updated_at=CURRENT_TIMESTAMP
	`, b.ID, b.Category, b.LimitCents, b.Period, b.Strategy)
	return err
}

func (r *BudgetRepo) List(ctx context.Context) ([]Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, category, limit_amount, period, strategy, created_at, updated_at
	FROM budgets ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Budget
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.Category, &b.LimitCents, &b.Period, &b.Strategy, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BudgetRepo) Delete(ctx context.Context, category string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE category = ?`, category)
	return err
}
