package port

import (
	"context"
	"time"

	"adcore/internal/core/domain"
)

// TargetingUseCase decides whether an ad group may be shown to a user.
type TargetingUseCase interface {
	// EvaluateTargeting loads the ad group criteria and evaluates them
	// against user. Unknown ad groups return domain.ErrNotFound.
	EvaluateTargeting(ctx context.Context, adGroupID int64, user domain.UserContext) (bool, error)
}

// BudgetUseCase paces campaign spend against lifetime and daily caps.
type BudgetUseCase interface {
	// CheckBudgetAvailability is a point-in-time read; it reserves nothing.
	CheckBudgetAvailability(ctx context.Context, campaignID int64) (domain.BudgetAvailability, error)
	// ReserveSpend atomically books amount against today's spend. A cap
	// that refuses it yields domain.ErrBudgetExhausted.
	ReserveSpend(ctx context.Context, campaignID int64, amount domain.Money) (domain.SpendReservation, error)
	// ReleaseSpend undoes a reservation.
	ReleaseSpend(ctx context.Context, r domain.SpendReservation) error
}

// BillingUseCase owns advertiser balances and the transaction ledger.
type BillingUseCase interface {
	CreateTransaction(ctx context.Context, req NewTransaction) (*domain.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id int64, status domain.TransactionStatus, paymentReference string) (*domain.Transaction, error)
	// ProcessPayment funds an advertiser through the gateway. On gateway
	// failure the failed transaction is returned along with an error
	// wrapping domain.ErrGatewayFailure.
	ProcessPayment(ctx context.Context, req PaymentRequest) (*domain.Transaction, error)
	ProcessRefund(ctx context.Context, req RefundRequest) (*domain.Transaction, error)
	CheckSufficientBalance(ctx context.Context, advertiserID int64, required domain.Money) (bool, error)
	DeductFromBalance(ctx context.Context, req DeductRequest) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, advertiserID int64, f domain.TransactionFilter) ([]domain.Transaction, error)
	GetAdvertiser(ctx context.Context, id int64) (*domain.Advertiser, error)
	GetStats(ctx context.Context, req StatsReq) (*StatsResp, error)
}

// ServingUseCase composes targeting, budget and billing into one decision.
type ServingUseCase interface {
	// RequestAd selects an ad group for user, books its cost and returns
	// nil when nothing can be served.
	RequestAd(ctx context.Context, user domain.UserContext) (*AdResponse, error)
}

// CatalogUseCase is the typed CRUD surface for campaigns, ad groups and
// targeting criteria.
type CatalogUseCase interface {
	CreateCampaign(ctx context.Context, c *domain.Campaign) error
	GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error)
	UpdateCampaign(ctx context.Context, c *domain.Campaign) error
	DeleteCampaign(ctx context.Context, id int64) error
	ListCampaigns(ctx context.Context, advertiserID int64) ([]domain.Campaign, error)

	CreateAdGroup(ctx context.Context, g *domain.AdGroup) error
	GetAdGroup(ctx context.Context, id int64) (*domain.AdGroup, error)
	UpdateAdGroup(ctx context.Context, g *domain.AdGroup) error
	DeleteAdGroup(ctx context.Context, id int64) error
	ListAdGroups(ctx context.Context, campaignID int64) ([]domain.AdGroup, error)

	CreateCriterion(ctx context.Context, c *domain.TargetingCriterion) error
	GetCriterion(ctx context.Context, id int64) (*domain.TargetingCriterion, error)
	UpdateCriterion(ctx context.Context, c *domain.TargetingCriterion) error
	DeleteCriterion(ctx context.Context, id int64) error
	ListCriteria(ctx context.Context, adGroupID int64) ([]domain.TargetingCriterion, error)
}

// NewTransaction is the input of BillingUseCase.CreateTransaction.
type NewTransaction struct {
	CampaignID     int64
	AdvertiserID   int64
	Amount         domain.Money
	Type           domain.TransactionType
	PaymentMethod  string
	IdempotencyKey string
	Description    string

	OriginalTransactionID *int64
}

// PaymentRequest funds an advertiser balance through the gateway.
type PaymentRequest struct {
	AdvertiserID   int64             `json:"-"`
	CampaignID     int64             `json:"campaign_id"`
	Amount         domain.Money      `json:"amount"`
	PaymentMethod  string            `json:"payment_method"`
	Details        map[string]string `json:"details,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
}

// RefundRequest refunds a completed charge. A nil Amount refunds the
// original amount.
type RefundRequest struct {
	TransactionID  int64         `json:"-"`
	Amount         *domain.Money `json:"amount,omitempty"`
	Reason         string        `json:"reason,omitempty"`
	IdempotencyKey string        `json:"idempotency_key,omitempty"`
}

// DeductRequest spends already-funded balance on delivery.
type DeductRequest struct {
	AdvertiserID int64        `json:"-"`
	CampaignID   int64        `json:"campaign_id"`
	Amount       domain.Money `json:"amount"`
	Description  string       `json:"description,omitempty"`
}

// AdResponse represents the selected ad details returned to the client.
// It is a DTO used by the HTTP layer and does not contain domain behaviour.
type AdResponse struct {
	Token         string       `json:"token"`
	AdGroupID     int64        `json:"ad_group_id"`
	CampaignID    int64        `json:"campaign_id"`
	Cost          domain.Money `json:"cost"`
	TransactionID int64        `json:"transaction_id"`
}

// StatsResp contains aggregated completed ledger activity. Charges and
// Refunds count transactions; the amounts sum them in minor units.
type StatsResp struct {
	Charges        int64        `json:"charges"`
	Refunds        int64        `json:"refunds"`
	ChargedAmount  domain.Money `json:"charged_amount"`
	RefundedAmount domain.Money `json:"refunded_amount"`
}

type StatsReq struct {
	From         time.Time
	To           time.Time
	AdvertiserID *int64
}
