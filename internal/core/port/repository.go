package port

import (
	"context"
	"time"

	"adcore/internal/core/domain"
)

// CampaignRepository persists campaigns. Lookups of unknown ids return an
// error wrapping domain.ErrNotFound.
type CampaignRepository interface {
	CreateCampaign(ctx context.Context, c *domain.Campaign) error
	GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error)
	UpdateCampaign(ctx context.Context, c *domain.Campaign) error
	DeleteCampaign(ctx context.Context, id int64) error
	ListCampaignsByAdvertiser(ctx context.Context, advertiserID int64) ([]domain.Campaign, error)
}

// AdGroupRepository persists ad groups.
type AdGroupRepository interface {
	CreateAdGroup(ctx context.Context, g *domain.AdGroup) error
	GetAdGroup(ctx context.Context, id int64) (*domain.AdGroup, error)
	UpdateAdGroup(ctx context.Context, g *domain.AdGroup) error
	DeleteAdGroup(ctx context.Context, id int64) error
	ListAdGroupsByCampaign(ctx context.Context, campaignID int64) ([]domain.AdGroup, error)
	// ListServingCandidates returns active ad groups whose campaign is
	// servable at now.
	ListServingCandidates(ctx context.Context, now time.Time) ([]ServingCandidate, error)
}

// CriterionRepository persists targeting criteria.
type CriterionRepository interface {
	CreateCriterion(ctx context.Context, c *domain.TargetingCriterion) error
	GetCriterion(ctx context.Context, id int64) (*domain.TargetingCriterion, error)
	UpdateCriterion(ctx context.Context, c *domain.TargetingCriterion) error
	DeleteCriterion(ctx context.Context, id int64) error
	ListCriteriaByAdGroup(ctx context.Context, adGroupID int64) ([]domain.TargetingCriterion, error)
}

// AdvertiserRepository reads and creates advertisers. Balance changes only
// go through TransactionRepository.
type AdvertiserRepository interface {
	CreateAdvertiser(ctx context.Context, a *domain.Advertiser) error
	GetAdvertiser(ctx context.Context, id int64) (*domain.Advertiser, error)
}

// TransactionRepository is the ledger store. Implementations must apply
// SettleTransaction and DeductBalance atomically: the status change and the
// balance change either both happen or neither does.
type TransactionRepository interface {
	// CreateTransaction inserts a pending transaction. A duplicate
	// idempotency key yields domain.ErrConflict.
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error)
	GetTransactionByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, advertiserID int64, f domain.TransactionFilter) ([]domain.Transaction, error)
	// SettleTransaction moves a pending transaction to a terminal status and
	// adds BalanceDelta to the advertiser balance. A delta that would leave
	// the balance negative writes nothing and returns
	// domain.ErrInsufficientFunds; a non-pending transaction returns
	// domain.ErrInvalidTransition.
	SettleTransaction(ctx context.Context, s Settlement) (*domain.Transaction, error)
	// DeductBalance decrements the advertiser balance by tx.Amount only if
	// the balance covers it, and records tx (already completed) in the same
	// atomic step. Otherwise it returns domain.ErrInsufficientFunds.
	DeductBalance(ctx context.Context, tx *domain.Transaction) error
	// GetStats returns aggregated completed transactions in a period.
	GetStats(ctx context.Context, req StatsReq) (*StatsResp, error)
}

// Settlement describes the terminal outcome of a pending transaction.
type Settlement struct {
	TransactionID    int64
	Status           domain.TransactionStatus
	PaymentReference string
	FailureReason    string
	BalanceDelta     domain.Money
}

// SpendReader reads campaign spend aggregates written by the metering side.
type SpendReader interface {
	// SpendTotals returns lifetime spend and the spend on day's calendar day.
	SpendTotals(ctx context.Context, campaignID int64, day time.Time) (domain.SpendTotals, error)
}

// SpendRecorder books serving spend against campaign caps.
type SpendRecorder interface {
	// ReserveSpend adds amount to the campaign spend for day only if the
	// lifetime and daily budgets still admit it, as one atomic step. A
	// refusal returns domain.ErrBudgetExhausted.
	ReserveSpend(ctx context.Context, campaignID int64, day time.Time, amount domain.Money) error
	// ReleaseSpend returns a reservation whose billing step failed.
	ReleaseSpend(ctx context.Context, campaignID int64, day time.Time, amount domain.Money) error
}

// ServingCandidate is an ad group eligible for serving together with its
// owning campaign.
type ServingCandidate struct {
	AdGroup  domain.AdGroup
	Campaign domain.Campaign
	Score    float64
}
