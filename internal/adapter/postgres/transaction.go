package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"adcore/internal/core/domain"
	"adcore/internal/core/port"
)

const transactionColumns = `id, campaign_id, advertiser_id, amount, transaction_type, status, payment_method,
    payment_reference, idempotency_key, original_transaction_id, description, failure_reason, created_at, updated_at`

func scanTransaction(row pgx.Row) (domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(
		&t.ID,
		&t.CampaignID,
		&t.AdvertiserID,
		&t.Amount,
		&t.Type,
		&t.Status,
		&t.PaymentMethod,
		&t.PaymentReference,
		&t.IdempotencyKey,
		&t.OriginalTransactionID,
		&t.Description,
		&t.FailureReason,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

const insertTransaction = `
INSERT INTO ad_transactions (campaign_id, advertiser_id, amount, transaction_type, status, payment_method,
    payment_reference, idempotency_key, original_transaction_id, description, failure_reason)
SELECT $1::bigint, $2::bigint, $3::bigint, $4::text, $5::text, $6::text,
    $7::text, $8::text, $9::bigint, $10::text, $11::text
WHERE EXISTS (SELECT 1 FROM campaigns WHERE id = $1 AND advertiser_id = $2)
RETURNING id, created_at, updated_at`

func insertTransactionRow(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, t *domain.Transaction) error {
	err := q.QueryRow(ctx, insertTransaction,
		t.CampaignID, t.AdvertiserID, t.Amount, t.Type, t.Status, t.PaymentMethod,
		t.PaymentReference, t.IdempotencyKey, t.OriginalTransactionID, t.Description, t.FailureReason,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: campaign %d does not belong to advertiser %d",
			domain.ErrValidation, t.CampaignID, t.AdvertiserID)
	}
	if pgCode(err) == pgUniqueViolation {
		return fmt.Errorf("idempotency key %q: %w", t.IdempotencyKey, domain.ErrConflict)
	}
	return writeError(err, "transaction")
}

func (r *Repository) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	return insertTransactionRow(ctx, r.db, t)
}

func (r *Repository) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM ad_transactions WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "transaction", id)
	}
	return &t, nil
}

func (r *Repository) GetTransactionByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM ad_transactions WHERE idempotency_key = $1`, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transaction with idempotency key %q: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTransactions returns the advertiser's transactions, newest first.
func (r *Repository) ListTransactions(ctx context.Context, advertiserID int64, f domain.TransactionFilter) ([]domain.Transaction, error) {
	var (
		where = []string{"advertiser_id = $1"}
		args  = []any{advertiserID}
	)
	if f.Type != nil {
		args = append(args, *f.Type)
		where = append(where, fmt.Sprintf("transaction_type = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + transactionColumns + ` FROM ad_transactions WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Transaction, error) {
		return scanTransaction(row)
	})
}

// SettleTransaction locks the transaction row, applies the balance delta with
// a guarded update and moves the status, all in one database transaction.
func (r *Repository) SettleTransaction(ctx context.Context, s port.Settlement) (*domain.Transaction, error) {
	var settled domain.Transaction
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		cur, err := scanTransaction(tx.QueryRow(ctx,
			`SELECT `+transactionColumns+` FROM ad_transactions WHERE id = $1 FOR UPDATE`, s.TransactionID))
		if err != nil {
			return notFound(err, "transaction", s.TransactionID)
		}
		if !domain.CanTransition(cur.Status, s.Status) {
			return fmt.Errorf("transaction %d %s -> %s: %w", cur.ID, cur.Status, s.Status, domain.ErrInvalidTransition)
		}

		if s.BalanceDelta != 0 {
			tag, err := tx.Exec(ctx, `
UPDATE advertisers
SET account_balance = account_balance + $2, updated_at = now()
WHERE id = $1 AND account_balance + $2 >= 0`,
				cur.AdvertiserID, s.BalanceDelta)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("advertiser %d: %w", cur.AdvertiserID, domain.ErrInsufficientFunds)
			}
		}

		settled, err = scanTransaction(tx.QueryRow(ctx, `
UPDATE ad_transactions
SET status = $2,
    payment_reference = COALESCE(NULLIF($3, ''), payment_reference),
    failure_reason = $4,
    updated_at = now()
WHERE id = $1
RETURNING `+transactionColumns,
			cur.ID, s.Status, s.PaymentReference, s.FailureReason))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &settled, nil
}

// DeductBalance debits the advertiser only if the balance covers the amount
// and records the completed transaction in the same database transaction.
func (r *Repository) DeductBalance(ctx context.Context, t *domain.Transaction) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
UPDATE advertisers
SET account_balance = account_balance - $2, updated_at = now()
WHERE id = $1 AND account_balance >= $2`,
			t.AdvertiserID, t.Amount)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM advertisers WHERE id = $1)`, t.AdvertiserID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return domain.NotFoundError("advertiser", t.AdvertiserID)
			}
			return fmt.Errorf("advertiser %d: %w", t.AdvertiserID, domain.ErrInsufficientFunds)
		}
		return insertTransactionRow(ctx, tx, t)
	})
}

// GetStats returns aggregated completed transactions for a period.
func (r *Repository) GetStats(ctx context.Context, req port.StatsReq) (*port.StatsResp, error) {
	args := []any{req.From, req.To}
	whereAdvertiser := ""
	if req.AdvertiserID != nil {
		whereAdvertiser = "AND advertiser_id = $3"
		args = append(args, *req.AdvertiserID)
	}
	query := fmt.Sprintf(`
SELECT transaction_type, count(*), COALESCE(sum(amount), 0)::bigint
FROM ad_transactions
WHERE status = 'completed' AND created_at >= $1 AND created_at <= $2 %s
GROUP BY transaction_type`, whereAdvertiser)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resp port.StatsResp
	for rows.Next() {
		var (
			typ    domain.TransactionType
			count  int64
			amount domain.Money
		)
		if err := rows.Scan(&typ, &count, &amount); err != nil {
			return nil, err
		}
		switch typ {
		case domain.TransactionCharge:
			resp.Charges, resp.ChargedAmount = count, amount
		case domain.TransactionRefund:
			resp.Refunds, resp.RefundedAmount = count, amount
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &resp, nil
}
