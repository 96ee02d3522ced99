package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"adcore/internal/core/domain"
	"adcore/internal/core/port"
	"adcore/internal/metrics"
)

// BillingUseCase is the advertiser ledger. Balances change only together
// with a transaction reaching completed, and only after the gateway has
// confirmed when one is involved.
type BillingUseCase struct {
	advertisers  port.AdvertiserRepository
	transactions port.TransactionRepository
	gateway      port.PaymentGateway
	settings
}

var _ port.BillingUseCase = (*BillingUseCase)(nil)

// balanceMethod marks charges that spent funded balance rather than money
// taken through the gateway.
const balanceMethod = "balance"

func NewBillingUseCase(advertisers port.AdvertiserRepository, transactions port.TransactionRepository, gateway port.PaymentGateway, opts ...Option) *BillingUseCase {
	return &BillingUseCase{
		advertisers:  advertisers,
		transactions: transactions,
		gateway:      gateway,
		settings:     applyOptions(opts),
	}
}

// CreateTransaction records a pending transaction. When the caller supplies
// an idempotency key that is already in use, the existing transaction is
// returned instead of a new one.
func (u *BillingUseCase) CreateTransaction(ctx context.Context, req port.NewTransaction) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	if req.Type != domain.TransactionCharge && req.Type != domain.TransactionRefund {
		return nil, fmt.Errorf("%w: unknown transaction type %q", domain.ErrValidation, req.Type)
	}

	key := req.IdempotencyKey
	if key != "" {
		existing, err := u.transactions.GetTransactionByIdempotencyKey(ctx, key)
		if err == nil {
			return u.replay(existing, req)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	} else {
		key = u.newKey()
	}

	tx := &domain.Transaction{
		CampaignID:            req.CampaignID,
		AdvertiserID:          req.AdvertiserID,
		Amount:                req.Amount,
		Type:                  req.Type,
		Status:                domain.TransactionPending,
		PaymentMethod:         req.PaymentMethod,
		IdempotencyKey:        key,
		OriginalTransactionID: req.OriginalTransactionID,
		Description:           req.Description,
	}
	if err := u.transactions.CreateTransaction(ctx, tx); err != nil {
		if errors.Is(err, domain.ErrConflict) && req.IdempotencyKey != "" {
			// Lost a race with a concurrent request carrying the same key.
			existing, getErr := u.transactions.GetTransactionByIdempotencyKey(ctx, key)
			if getErr != nil {
				return nil, getErr
			}
			return u.replay(existing, req)
		}
		return nil, err
	}
	return tx, nil
}

// replay checks that a reused idempotency key refers to the same operation.
func (u *BillingUseCase) replay(existing *domain.Transaction, req port.NewTransaction) (*domain.Transaction, error) {
	if existing.AdvertiserID != req.AdvertiserID || existing.Type != req.Type || existing.Amount != req.Amount {
		return nil, fmt.Errorf("idempotency key %q already used for transaction %d: %w",
			existing.IdempotencyKey, existing.ID, domain.ErrConflict)
	}
	return existing, nil
}

// UpdateTransactionStatus moves a pending transaction to completed or failed
// without touching any balance.
func (u *BillingUseCase) UpdateTransactionStatus(ctx context.Context, id int64, status domain.TransactionStatus, paymentReference string) (*domain.Transaction, error) {
	if !status.Terminal() {
		return nil, fmt.Errorf("transaction %d -> %s: %w", id, status, domain.ErrInvalidTransition)
	}
	return u.transactions.SettleTransaction(ctx, port.Settlement{
		TransactionID:    id,
		Status:           status,
		PaymentReference: paymentReference,
	})
}

// ProcessPayment tops up an advertiser balance through the gateway. The
// balance is credited only once the gateway confirms; on failure the
// transaction is marked failed and returned together with the error.
func (u *BillingUseCase) ProcessPayment(ctx context.Context, req port.PaymentRequest) (*domain.Transaction, error) {
	if req.PaymentMethod == "" {
		return nil, fmt.Errorf("%w: payment_method is required", domain.ErrValidation)
	}
	adv, err := u.advertisers.GetAdvertiser(ctx, req.AdvertiserID)
	if err != nil {
		return nil, err
	}

	tx, err := u.CreateTransaction(ctx, port.NewTransaction{
		CampaignID:     req.CampaignID,
		AdvertiserID:   req.AdvertiserID,
		Amount:         req.Amount,
		Type:           domain.TransactionCharge,
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: req.IdempotencyKey,
		Description:    "balance top-up",
	})
	if err != nil {
		metrics.ObserveLedger("payment", outcome(err))
		return nil, err
	}
	if tx.Status.Terminal() {
		metrics.ObserveLedger("payment", "replayed")
		return terminalResult(tx)
	}

	receipt, gwErr := u.gateway.Charge(ctx, port.PaymentCall{
		IdempotencyKey: tx.IdempotencyKey,
		TransactionID:  tx.ID,
		AdvertiserID:   tx.AdvertiserID,
		CampaignID:     tx.CampaignID,
		Amount:         tx.Amount,
		Currency:       adv.Currency,
		Method:         tx.PaymentMethod,
		Details:        req.Details,
	})
	if gwErr != nil {
		metrics.ObserveLedger("payment", "gateway_failure")
		return u.fail(ctx, tx, gatewayError(gwErr))
	}

	done, err := u.transactions.SettleTransaction(context.WithoutCancel(ctx), port.Settlement{
		TransactionID:    tx.ID,
		Status:           domain.TransactionCompleted,
		PaymentReference: receipt.Reference,
		BalanceDelta:     tx.Amount,
	})
	if errors.Is(err, domain.ErrInvalidTransition) {
		return u.settledElsewhere(ctx, "payment", tx.ID, receipt.Reference)
	}
	if err != nil {
		u.logger.Error("payment captured but not settled",
			slog.Int64("transaction_id", tx.ID),
			slog.String("payment_reference", receipt.Reference),
			slog.Any("error", err))
		metrics.ObserveLedger("payment", "settle_error")
		return nil, fmt.Errorf("settle transaction %d: %w", tx.ID, err)
	}
	metrics.ObserveLedger("payment", "completed")
	u.logger.Info("payment completed",
		slog.Int64("transaction_id", done.ID),
		slog.Int64("advertiser_id", done.AdvertiserID),
		slog.String("amount", done.Amount.String()))
	return done, nil
}

// ProcessRefund refunds a completed gateway charge and debits the balance
// once the gateway confirms. Balance deductions are not refundable. The
// amount defaults to the original amount and is not capped by it.
func (u *BillingUseCase) ProcessRefund(ctx context.Context, req port.RefundRequest) (*domain.Transaction, error) {
	orig, err := u.transactions.GetTransaction(ctx, req.TransactionID)
	if err != nil {
		metrics.ObserveLedger("refund", outcome(err))
		return nil, err
	}
	if orig.Type != domain.TransactionCharge || orig.Status != domain.TransactionCompleted {
		return nil, fmt.Errorf("refund of %s %s transaction %d: %w",
			orig.Status, orig.Type, orig.ID, domain.ErrInvalidTransition)
	}
	if orig.PaymentMethod == balanceMethod {
		return nil, fmt.Errorf("transaction %d spent balance and has nothing to refund: %w",
			orig.ID, domain.ErrInvalidTransition)
	}

	amount := orig.Amount
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount > orig.Amount {
		// TODO: reject once product signs off on capping refunds at the charge amount.
		u.logger.Warn("refund exceeds original charge",
			slog.Int64("original_transaction_id", orig.ID),
			slog.String("original_amount", orig.Amount.String()),
			slog.String("refund_amount", amount.String()))
	}
	adv, err := u.advertisers.GetAdvertiser(ctx, orig.AdvertiserID)
	if err != nil {
		return nil, err
	}

	origID := orig.ID
	refund, err := u.CreateTransaction(ctx, port.NewTransaction{
		CampaignID:            orig.CampaignID,
		AdvertiserID:          orig.AdvertiserID,
		Amount:                amount,
		Type:                  domain.TransactionRefund,
		PaymentMethod:         orig.PaymentMethod,
		IdempotencyKey:        req.IdempotencyKey,
		Description:           req.Reason,
		OriginalTransactionID: &origID,
	})
	if err != nil {
		metrics.ObserveLedger("refund", outcome(err))
		return nil, err
	}
	if refund.Status.Terminal() {
		metrics.ObserveLedger("refund", "replayed")
		return terminalResult(refund)
	}
	if adv.AccountBalance < amount {
		metrics.ObserveLedger("refund", "insufficient_funds")
		return u.fail(ctx, refund, fmt.Errorf("advertiser %d balance %s below refund %s: %w",
			adv.ID, adv.AccountBalance, amount, domain.ErrInsufficientFunds))
	}

	receipt, gwErr := u.gateway.Refund(ctx, port.PaymentCall{
		IdempotencyKey:    refund.IdempotencyKey,
		TransactionID:     refund.ID,
		AdvertiserID:      refund.AdvertiserID,
		CampaignID:        refund.CampaignID,
		Amount:            refund.Amount,
		Currency:          adv.Currency,
		Method:            refund.PaymentMethod,
		OriginalReference: orig.PaymentReference,
		Reason:            req.Reason,
	})
	if gwErr != nil {
		metrics.ObserveLedger("refund", "gateway_failure")
		return u.fail(ctx, refund, gatewayError(gwErr))
	}

	done, err := u.transactions.SettleTransaction(context.WithoutCancel(ctx), port.Settlement{
		TransactionID:    refund.ID,
		Status:           domain.TransactionCompleted,
		PaymentReference: receipt.Reference,
		BalanceDelta:     -refund.Amount,
	})
	if errors.Is(err, domain.ErrInsufficientFunds) {
		// The balance was spent between the check and the gateway call;
		// money has left the processor, so this needs reconciliation.
		u.logger.Error("refund paid out but balance too low to debit",
			slog.Int64("transaction_id", refund.ID),
			slog.String("payment_reference", receipt.Reference),
			slog.String("amount", refund.Amount.String()))
		metrics.ObserveLedger("refund", "insufficient_funds")
		return u.fail(ctx, refund, err)
	}
	if errors.Is(err, domain.ErrInvalidTransition) {
		return u.settledElsewhere(ctx, "refund", refund.ID, receipt.Reference)
	}
	if err != nil {
		u.logger.Error("refund paid out but not settled",
			slog.Int64("transaction_id", refund.ID),
			slog.String("payment_reference", receipt.Reference),
			slog.Any("error", err))
		metrics.ObserveLedger("refund", "settle_error")
		return nil, fmt.Errorf("settle refund %d: %w", refund.ID, err)
	}
	metrics.ObserveLedger("refund", "completed")
	return done, nil
}

// CheckSufficientBalance is an advisory read; DeductFromBalance re-checks
// atomically.
func (u *BillingUseCase) CheckSufficientBalance(ctx context.Context, advertiserID int64, required domain.Money) (bool, error) {
	adv, err := u.advertisers.GetAdvertiser(ctx, advertiserID)
	if err != nil {
		return false, err
	}
	return adv.AccountBalance >= required, nil
}

// DeductFromBalance spends funded balance on delivery. The sufficiency check
// and the debit are one atomic store operation, and the recorded charge is
// completed immediately with an internal reference.
func (u *BillingUseCase) DeductFromBalance(ctx context.Context, req port.DeductRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	description := req.Description
	if description == "" {
		description = "ad delivery"
	}
	tx := &domain.Transaction{
		CampaignID:       req.CampaignID,
		AdvertiserID:     req.AdvertiserID,
		Amount:           req.Amount,
		Type:             domain.TransactionCharge,
		Status:           domain.TransactionCompleted,
		PaymentMethod:    balanceMethod,
		PaymentReference: "internal-" + u.newKey(),
		IdempotencyKey:   u.newKey(),
		Description:      description,
	}
	if err := u.transactions.DeductBalance(ctx, tx); err != nil {
		metrics.ObserveLedger("deduct", outcome(err))
		return nil, err
	}
	metrics.ObserveLedger("deduct", "completed")
	return tx, nil
}

func (u *BillingUseCase) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	return u.transactions.GetTransaction(ctx, id)
}

func (u *BillingUseCase) ListTransactions(ctx context.Context, advertiserID int64, f domain.TransactionFilter) ([]domain.Transaction, error) {
	if _, err := u.advertisers.GetAdvertiser(ctx, advertiserID); err != nil {
		return nil, err
	}
	return u.transactions.ListTransactions(ctx, advertiserID, f)
}

func (u *BillingUseCase) GetAdvertiser(ctx context.Context, id int64) (*domain.Advertiser, error) {
	return u.advertisers.GetAdvertiser(ctx, id)
}

// GetStats returns aggregated ledger activity in a period.
func (u *BillingUseCase) GetStats(ctx context.Context, req port.StatsReq) (*port.StatsResp, error) {
	return u.transactions.GetStats(ctx, req)
}

// fail marks a pending transaction failed and returns it with cause.
func (u *BillingUseCase) fail(ctx context.Context, tx *domain.Transaction, cause error) (*domain.Transaction, error) {
	failed, err := u.transactions.SettleTransaction(context.WithoutCancel(ctx), port.Settlement{
		TransactionID: tx.ID,
		Status:        domain.TransactionFailed,
		FailureReason: cause.Error(),
	})
	if errors.Is(err, domain.ErrInvalidTransition) {
		// A concurrent request with the same key finalised it first.
		if cur, getErr := u.transactions.GetTransaction(context.WithoutCancel(ctx), tx.ID); getErr == nil {
			if cur.Status == domain.TransactionCompleted {
				return cur, nil
			}
			return cur, cause
		}
	}
	if err != nil {
		u.logger.Error("could not mark transaction failed",
			slog.Int64("transaction_id", tx.ID),
			slog.Any("cause", cause),
			slog.Any("error", err))
		return tx, errors.Join(cause, err)
	}
	u.logger.Warn("transaction failed",
		slog.Int64("transaction_id", failed.ID),
		slog.String("type", string(failed.Type)),
		slog.Any("error", cause))
	return failed, cause
}

// settledElsewhere answers a request whose gateway call succeeded after a
// concurrent request with the same key had already finalised the
// transaction. The stored outcome wins.
func (u *BillingUseCase) settledElsewhere(ctx context.Context, op string, id int64, reference string) (*domain.Transaction, error) {
	cur, err := u.transactions.GetTransaction(context.WithoutCancel(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("reload transaction %d: %w", id, err)
	}
	if cur.Status == domain.TransactionFailed {
		u.logger.Error("gateway accepted a transaction already marked failed",
			slog.Int64("transaction_id", id),
			slog.String("payment_reference", reference))
	}
	metrics.ObserveLedger(op, "replayed")
	return terminalResult(cur)
}

// terminalResult answers a replayed request from the stored outcome.
func terminalResult(tx *domain.Transaction) (*domain.Transaction, error) {
	if tx.Status == domain.TransactionFailed {
		return tx, fmt.Errorf("transaction %d failed earlier: %s: %w", tx.ID, tx.FailureReason, domain.ErrGatewayFailure)
	}
	return tx, nil
}

func gatewayError(err error) error {
	if errors.Is(err, domain.ErrGatewayFailure) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrGatewayFailure, err)
}

// outcome maps an error to a metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
