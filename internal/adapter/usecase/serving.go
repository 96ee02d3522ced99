package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"adcore/internal/core/domain"
	"adcore/internal/core/port"
	"adcore/internal/metrics"
)

// ServingUseCase picks an ad group for an ad request and books its cost.
// It composes targeting, budget pacing and billing; each of them keeps its
// own consistency guarantees.
type ServingUseCase struct {
	adGroups  port.AdGroupRepository
	targeting port.TargetingUseCase
	budget    port.BudgetUseCase
	billing   port.BillingUseCase
	settings
}

var _ port.ServingUseCase = (*ServingUseCase)(nil)

func NewServingUseCase(adGroups port.AdGroupRepository, targeting port.TargetingUseCase, budget port.BudgetUseCase, billing port.BillingUseCase, opts ...Option) *ServingUseCase {
	return &ServingUseCase{
		adGroups:  adGroups,
		targeting: targeting,
		budget:    budget,
		billing:   billing,
		settings:  applyOptions(opts),
	}
}

// RequestAd walks the servable ad groups from the highest score down and
// serves the first one whose targeting admits the user and whose campaign
// and advertiser can pay for the impression. It returns nil when none can.
func (u *ServingUseCase) RequestAd(ctx context.Context, user domain.UserContext) (*port.AdResponse, error) {
	candidates, err := u.adGroups.ListServingCandidates(ctx, u.now())
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		candidates[i].Score = computeScore(&candidates[i].AdGroup)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].AdGroup.ID < candidates[j].AdGroup.ID
	})

	for _, cand := range candidates {
		resp, err := u.tryServe(ctx, cand, user)
		if err != nil {
			metrics.ObserveServe("error")
			return nil, err
		}
		if resp != nil {
			metrics.ObserveServe("served")
			return resp, nil
		}
	}
	metrics.ObserveServe("no_fill")
	return nil, nil
}

// tryServe returns nil without error when the candidate has to be skipped.
func (u *ServingUseCase) tryServe(ctx context.Context, cand port.ServingCandidate, user domain.UserContext) (*port.AdResponse, error) {
	group := cand.AdGroup
	cost := group.ImpressionCost()
	if cost <= 0 {
		return nil, nil
	}

	ok, err := u.targeting.EvaluateTargeting(ctx, group.ID, user)
	if errors.Is(err, domain.ErrNotFound) {
		// deleted since the candidate list was read
		return nil, nil
	}
	if err != nil || !ok {
		return nil, err
	}

	avail, err := u.budget.CheckBudgetAvailability(ctx, cand.Campaign.ID)
	if err != nil {
		return nil, err
	}
	if !avail.Available || avail.Remaining < cost {
		return nil, nil
	}

	reservation, err := u.budget.ReserveSpend(ctx, cand.Campaign.ID, cost)
	if errors.Is(err, domain.ErrBudgetExhausted) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	imp := domain.Impression{
		Token:        u.newKey(),
		AdGroupID:    group.ID,
		CampaignID:   cand.Campaign.ID,
		AdvertiserID: cand.Campaign.AdvertiserID,
		UserID:       user.UserID,
		Cost:         cost,
		CreatedAt:    u.now().UTC(),
	}
	tx, err := u.billing.DeductFromBalance(ctx, port.DeductRequest{
		AdvertiserID: imp.AdvertiserID,
		CampaignID:   imp.CampaignID,
		Amount:       cost,
		Description:  fmt.Sprintf("impression %s", imp.Token),
	})
	if err != nil {
		if relErr := u.budget.ReleaseSpend(context.WithoutCancel(ctx), reservation); relErr != nil {
			u.logger.Error("could not release reserved spend",
				slog.Int64("campaign_id", reservation.CampaignID),
				slog.String("amount", reservation.Amount.String()),
				slog.Any("error", relErr))
		}
		if errors.Is(err, domain.ErrInsufficientFunds) {
			u.logger.Debug("advertiser cannot pay for impression",
				slog.Int64("advertiser_id", imp.AdvertiserID),
				slog.Int64("ad_group_id", group.ID))
			return nil, nil
		}
		return nil, err
	}
	imp.TransactionID = tx.ID

	u.logger.Info("impression served",
		slog.String("token", imp.Token),
		slog.Int64("ad_group_id", imp.AdGroupID),
		slog.Int64("campaign_id", imp.CampaignID),
		slog.String("user_id", imp.UserID),
		slog.String("cost", imp.Cost.String()))

	return &port.AdResponse{
		Token:         imp.Token,
		AdGroupID:     imp.AdGroupID,
		CampaignID:    imp.CampaignID,
		Cost:          imp.Cost,
		TransactionID: imp.TransactionID,
	}, nil
}

// computeScore ranks a candidate. Ad groups bid CPM, so the score is the bid.
func computeScore(g *domain.AdGroup) float64 {
	if g.BidAmount <= 0 {
		return 0
	}
	return float64(g.BidAmount)
}
