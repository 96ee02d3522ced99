package port

import (
	"context"

	"adcore/internal/core/domain"
)

// PaymentGateway is the external payment processor. Calls are at-least-once;
// the IdempotencyKey lets the processor drop replays. Failures are returned
// as errors wrapping domain.ErrGatewayFailure.
type PaymentGateway interface {
	Charge(ctx context.Context, call PaymentCall) (PaymentReceipt, error)
	Refund(ctx context.Context, call PaymentCall) (PaymentReceipt, error)
}

// PaymentCall is the payload sent to the gateway for one transaction.
type PaymentCall struct {
	IdempotencyKey    string
	TransactionID     int64
	AdvertiserID      int64
	CampaignID        int64
	Amount            domain.Money
	Currency          string
	Method            string
	Details           map[string]string
	OriginalReference string
	Reason            string
}

// PaymentReceipt is the gateway confirmation of a successful call.
type PaymentReceipt struct {
	Reference string
}
