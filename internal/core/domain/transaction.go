package domain

import "time"

// TransactionType distinguishes money moving onto or off an advertiser balance.
type TransactionType string

const (
	TransactionCharge TransactionType = "charge"
	TransactionRefund TransactionType = "refund"
)

// TransactionStatus is the lifecycle state of a ledger transaction.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// Terminal reports whether no further status change is allowed.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionCompleted || s == TransactionFailed
}

// Transaction is one monetary movement against an advertiser balance. It is
// created pending and moves exactly once to completed or failed.
type Transaction struct {
	ID                    int64             `json:"id"`
	CampaignID            int64             `json:"campaign_id"`
	AdvertiserID          int64             `json:"advertiser_id"`
	Amount                Money             `json:"amount"`
	Type                  TransactionType   `json:"transaction_type"`
	Status                TransactionStatus `json:"status"`
	PaymentMethod         string            `json:"payment_method,omitempty"`
	PaymentReference      string            `json:"payment_reference,omitempty"`
	IdempotencyKey        string            `json:"idempotency_key"`
	OriginalTransactionID *int64            `json:"original_transaction_id,omitempty"`
	Description           string            `json:"description,omitempty"`
	FailureReason         string            `json:"failure_reason,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// CanTransition reports whether a transaction in status from may move to to.
func CanTransition(from, to TransactionStatus) bool {
	return from == TransactionPending && to.Terminal()
}

// TransactionFilter narrows a transaction listing.
type TransactionFilter struct {
	Type   *TransactionType
	Status *TransactionStatus
	Limit  int
	Offset int
}
