// Package postgres implements the repository ports on PostgreSQL with pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"adcore/internal/core/domain"
	"adcore/internal/core/port"
)

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

var (
	_ port.CampaignRepository    = (*Repository)(nil)
	_ port.AdGroupRepository     = (*Repository)(nil)
	_ port.CriterionRepository   = (*Repository)(nil)
	_ port.AdvertiserRepository  = (*Repository)(nil)
	_ port.TransactionRepository = (*Repository)(nil)
	_ port.SpendReader           = (*Repository)(nil)
	_ port.SpendRecorder         = (*Repository)(nil)
)

// Repository implements every repository port on one connection pool.
type Repository struct {
	db DB
}

// NewRepository returns a new repository instance.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// txOptions is used for every multi-statement write. Rows that guard an
// invariant are locked with SELECT ... FOR UPDATE.
var txOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// inTx runs fn in a transaction, committing only if fn succeeds.
func (r *Repository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// notFound maps pgx.ErrNoRows to a domain not-found error.
func notFound(err error, entity string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFoundError(entity, id)
	}
	return err
}

// writeError classifies constraint violations of an insert or update.
func writeError(err error, entity string) error {
	switch pgCode(err) {
	case pgUniqueViolation:
		return fmt.Errorf("%s: %w", entity, domain.ErrConflict)
	case pgForeignKeyViolation:
		return fmt.Errorf("%s references a missing row: %w", entity, domain.ErrNotFound)
	case pgCheckViolation:
		return fmt.Errorf("%s: %w: %v", entity, domain.ErrValidation, err)
	}
	return err
}
