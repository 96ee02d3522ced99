package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"adcore/internal/core/domain"
)

const spendTotalsQuery = `
SELECT COALESCE(sum(amount), 0)::bigint,
       COALESCE(sum(amount) FILTER (WHERE spend_date = $2), 0)::bigint
FROM campaign_daily_spend
WHERE campaign_id = $1`

// SpendTotals returns lifetime spend and the spend of the UTC day of day.
func (r *Repository) SpendTotals(ctx context.Context, campaignID int64, day time.Time) (domain.SpendTotals, error) {
	var t domain.SpendTotals
	err := r.db.QueryRow(ctx, spendTotalsQuery, campaignID, domain.SpendDay(day)).Scan(&t.Total, &t.Daily)
	return t, err
}

// ReserveSpend locks the campaign row so concurrent reservations serialize,
// checks both caps and books amount on the day row.
func (r *Repository) ReserveSpend(ctx context.Context, campaignID int64, day time.Time, amount domain.Money) error {
	day = domain.SpendDay(day)
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var (
			budget domain.Money
			daily  *domain.Money
		)
		err := tx.QueryRow(ctx, `SELECT budget, daily_budget FROM campaigns WHERE id = $1 FOR UPDATE`, campaignID).
			Scan(&budget, &daily)
		if err != nil {
			return notFound(err, "campaign", campaignID)
		}

		var totals domain.SpendTotals
		if err = tx.QueryRow(ctx, spendTotalsQuery, campaignID, day).Scan(&totals.Total, &totals.Daily); err != nil {
			return err
		}
		if totals.Total+amount > budget {
			return fmt.Errorf("campaign %d lifetime cap: %w", campaignID, domain.ErrBudgetExhausted)
		}
		if daily != nil && totals.Daily+amount > *daily {
			return fmt.Errorf("campaign %d daily cap: %w", campaignID, domain.ErrBudgetExhausted)
		}

		_, err = tx.Exec(ctx, `
INSERT INTO campaign_daily_spend (campaign_id, spend_date, amount)
VALUES ($1, $2, $3)
ON CONFLICT (campaign_id, spend_date) DO UPDATE SET amount = campaign_daily_spend.amount + EXCLUDED.amount`,
			campaignID, day, amount)
		return err
	})
}

// ReleaseSpend gives back a reservation made on day. Spend never drops below
// zero.
func (r *Repository) ReleaseSpend(ctx context.Context, campaignID int64, day time.Time, amount domain.Money) error {
	_, err := r.db.Exec(ctx, `
UPDATE campaign_daily_spend
SET amount = GREATEST(amount - $3, 0)
WHERE campaign_id = $1 AND spend_date = $2`,
		campaignID, domain.SpendDay(day), amount)
	return err
}
