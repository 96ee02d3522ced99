package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"adcore/internal/core/domain"
)

const criterionColumns = `id, ad_group_id, criteria_type, operator, criteria_value, created_at, updated_at`

func scanCriterion(row pgx.Row) (domain.TargetingCriterion, error) {
	var c domain.TargetingCriterion
	err := row.Scan(&c.ID, &c.AdGroupID, &c.CriteriaType, &c.Operator, &c.CriteriaValue, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *Repository) CreateCriterion(ctx context.Context, c *domain.TargetingCriterion) error {
	err := r.db.QueryRow(ctx, `
INSERT INTO targeting_criteria (ad_group_id, criteria_type, operator, criteria_value)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, updated_at`,
		c.AdGroupID, c.CriteriaType, c.Operator, c.CriteriaValue,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return writeError(err, "targeting criterion")
}

func (r *Repository) GetCriterion(ctx context.Context, id int64) (*domain.TargetingCriterion, error) {
	c, err := scanCriterion(r.db.QueryRow(ctx, `SELECT `+criterionColumns+` FROM targeting_criteria WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "targeting criterion", id)
	}
	return &c, nil
}

func (r *Repository) UpdateCriterion(ctx context.Context, c *domain.TargetingCriterion) error {
	err := r.db.QueryRow(ctx, `
UPDATE targeting_criteria
SET criteria_type = $2, operator = $3, criteria_value = $4, updated_at = now()
WHERE id = $1
RETURNING ad_group_id, created_at, updated_at`,
		c.ID, c.CriteriaType, c.Operator, c.CriteriaValue,
	).Scan(&c.AdGroupID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return writeError(notFound(err, "targeting criterion", c.ID), "targeting criterion")
	}
	return nil
}

func (r *Repository) DeleteCriterion(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM targeting_criteria WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError("targeting criterion", id)
	}
	return nil
}

func (r *Repository) ListCriteriaByAdGroup(ctx context.Context, adGroupID int64) ([]domain.TargetingCriterion, error) {
	rows, err := r.db.Query(ctx, `SELECT `+criterionColumns+` FROM targeting_criteria WHERE ad_group_id = $1 ORDER BY id`, adGroupID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.TargetingCriterion, error) {
		return scanCriterion(row)
	})
}
