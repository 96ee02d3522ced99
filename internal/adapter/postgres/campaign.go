package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"adcore/internal/core/domain"
)

const campaignColumns = `id, advertiser_id, name, budget, daily_budget, status, start_date, end_date, created_at, updated_at`

func scanCampaign(row pgx.Row) (domain.Campaign, error) {
	var c domain.Campaign
	err := row.Scan(
		&c.ID,
		&c.AdvertiserID,
		&c.Name,
		&c.Budget,
		&c.DailyBudget,
		&c.Status,
		&c.StartDate,
		&c.EndDate,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func (r *Repository) CreateCampaign(ctx context.Context, c *domain.Campaign) error {
	err := r.db.QueryRow(ctx, `
INSERT INTO campaigns (advertiser_id, name, budget, daily_budget, status, start_date, end_date)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at, updated_at`,
		c.AdvertiserID, c.Name, c.Budget, c.DailyBudget, c.Status, c.StartDate, c.EndDate,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return writeError(err, "campaign")
}

func (r *Repository) GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "campaign", id)
	}
	return &c, nil
}

// UpdateCampaign replaces the mutable fields. The owning advertiser is never
// changed.
func (r *Repository) UpdateCampaign(ctx context.Context, c *domain.Campaign) error {
	err := r.db.QueryRow(ctx, `
UPDATE campaigns
SET name = $2, budget = $3, daily_budget = $4, status = $5, start_date = $6, end_date = $7, updated_at = now()
WHERE id = $1
RETURNING advertiser_id, created_at, updated_at`,
		c.ID, c.Name, c.Budget, c.DailyBudget, c.Status, c.StartDate, c.EndDate,
	).Scan(&c.AdvertiserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return writeError(notFound(err, "campaign", c.ID), "campaign")
	}
	return nil
}

// DeleteCampaign removes a campaign with its ad groups, criteria and spend.
// Campaigns referenced by ledger transactions cannot be deleted.
func (r *Repository) DeleteCampaign(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if pgCode(err) == pgForeignKeyViolation {
		return fmt.Errorf("campaign %d has ledger transactions: %w", id, domain.ErrConflict)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError("campaign", id)
	}
	return nil
}

func (r *Repository) ListCampaignsByAdvertiser(ctx context.Context, advertiserID int64) ([]domain.Campaign, error) {
	rows, err := r.db.Query(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE advertiser_id = $1 ORDER BY id`, advertiserID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Campaign, error) {
		return scanCampaign(row)
	})
}
