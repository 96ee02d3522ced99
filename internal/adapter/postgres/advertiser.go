package postgres

import (
	"context"

	"adcore/internal/core/domain"
)

func (r *Repository) CreateAdvertiser(ctx context.Context, a *domain.Advertiser) error {
	err := r.db.QueryRow(ctx, `
INSERT INTO advertisers (name, account_balance, currency)
VALUES ($1, $2, $3)
RETURNING id, created_at, updated_at`,
		a.Name, a.AccountBalance, a.Currency,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return writeError(err, "advertiser")
}

func (r *Repository) GetAdvertiser(ctx context.Context, id int64) (*domain.Advertiser, error) {
	var a domain.Advertiser
	err := r.db.QueryRow(ctx, `
SELECT id, name, account_balance, currency, created_at, updated_at
FROM advertisers WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.AccountBalance, &a.Currency, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "advertiser", id)
	}
	return &a, nil
}
