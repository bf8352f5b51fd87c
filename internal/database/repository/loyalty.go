package repository

import (
	"context"
	"database/sql"
)

// LoyaltyRepo tracks loyalty-card points balances.
type LoyaltyRepo struct{ db *sql.DB }

func NewLoyaltyRepo(db *sql.DB) *LoyaltyRepo { return &LoyaltyRepo{db: db} }

// SetPoints records the most recently observed balance for a card.
func (r *LoyaltyRepo) SetPoints(ctx context.Context, card LoyaltyCard) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO loyalty_cards(id, name, points, updated_at)
	VALUES(?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(name) DO UPDATE SET points=excluded.points, updated_at=CURRENT_TIMESTAMP
	`, card.ID, card.Name, card.Points)
	return err
}

func (r *LoyaltyRepo) List(ctx context.Context) ([]LoyaltyCard, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, name, points, updated_at FROM loyalty_cards ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LoyaltyCard
	for rows.Next() {
		var c LoyaltyCard
		if err := rows.Scan(&c.ID, &c.Name, &c.Points, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
