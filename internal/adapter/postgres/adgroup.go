package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"adcore/internal/core/domain"
	"adcore/internal/core/port"
)

const adGroupColumns = `id, campaign_id, name, bid_amount, status, created_at, updated_at`

func scanAdGroup(row pgx.Row) (domain.AdGroup, error) {
	var g domain.AdGroup
	err := row.Scan(&g.ID, &g.CampaignID, &g.Name, &g.BidAmount, &g.Status, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func (r *Repository) CreateAdGroup(ctx context.Context, g *domain.AdGroup) error {
	err := r.db.QueryRow(ctx, `
INSERT INTO ad_groups (campaign_id, name, bid_amount, status)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, updated_at`,
		g.CampaignID, g.Name, g.BidAmount, g.Status,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	return writeError(err, "ad group")
}

func (r *Repository) GetAdGroup(ctx context.Context, id int64) (*domain.AdGroup, error) {
	g, err := scanAdGroup(r.db.QueryRow(ctx, `SELECT `+adGroupColumns+` FROM ad_groups WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "ad group", id)
	}
	return &g, nil
}

func (r *Repository) UpdateAdGroup(ctx context.Context, g *domain.AdGroup) error {
	err := r.db.QueryRow(ctx, `
UPDATE ad_groups
SET name = $2, bid_amount = $3, status = $4, updated_at = now()
WHERE id = $1
RETURNING campaign_id, created_at, updated_at`,
		g.ID, g.Name, g.BidAmount, g.Status,
	).Scan(&g.CampaignID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return writeError(notFound(err, "ad group", g.ID), "ad group")
	}
	return nil
}

func (r *Repository) DeleteAdGroup(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM ad_groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError("ad group", id)
	}
	return nil
}

func (r *Repository) ListAdGroupsByCampaign(ctx context.Context, campaignID int64) ([]domain.AdGroup, error) {
	rows, err := r.db.Query(ctx, `SELECT `+adGroupColumns+` FROM ad_groups WHERE campaign_id = $1 ORDER BY id`, campaignID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AdGroup, error) {
		return scanAdGroup(row)
	})
}

// ListServingCandidates returns active ad groups of campaigns that are active
// and inside their flight window at now.
func (r *Repository) ListServingCandidates(ctx context.Context, now time.Time) ([]port.ServingCandidate, error) {
	rows, err := r.db.Query(ctx, `
SELECT
    g.id, g.campaign_id, g.name, g.bid_amount, g.status, g.created_at, g.updated_at,
    c.id, c.advertiser_id, c.name, c.budget, c.daily_budget, c.status, c.start_date, c.end_date, c.created_at, c.updated_at
FROM ad_groups g
JOIN campaigns c ON c.id = g.campaign_id
WHERE g.status = 'active'
  AND c.status = 'active'
  AND c.start_date <= $1
  AND (c.end_date IS NULL OR c.end_date > $1)
ORDER BY g.id`, now)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (port.ServingCandidate, error) {
		var cand port.ServingCandidate
		g, c := &cand.AdGroup, &cand.Campaign
		err := row.Scan(
			&g.ID, &g.CampaignID, &g.Name, &g.BidAmount, &g.Status, &g.CreatedAt, &g.UpdatedAt,
			&c.ID, &c.AdvertiserID, &c.Name, &c.Budget, &c.DailyBudget, &c.Status, &c.StartDate, &c.EndDate, &c.CreatedAt, &c.UpdatedAt,
		)
		return cand, err
	})
}
