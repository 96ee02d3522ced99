package usecase

import (
	"context"
	"errors"
	"fmt"

	"adcore/internal/core/domain"
	"adcore/internal/core/port"
	"adcore/internal/metrics"
)

// BudgetUseCase paces campaign spend against the lifetime budget and the
// optional daily budget. Days are UTC calendar days of the configured clock.
type BudgetUseCase struct {
	campaigns port.CampaignRepository
	spend     port.SpendReader
	recorder  port.SpendRecorder
	settings
}

var _ port.BudgetUseCase = (*BudgetUseCase)(nil)

func NewBudgetUseCase(campaigns port.CampaignRepository, spend port.SpendReader, recorder port.SpendRecorder, opts ...Option) *BudgetUseCase {
	return &BudgetUseCase{campaigns: campaigns, spend: spend, recorder: recorder, settings: applyOptions(opts)}
}

// CheckBudgetAvailability computes what the campaign may still spend. An
// exhausted lifetime budget reports zero remaining; an exhausted daily budget
// reports the lifetime remainder. Unknown campaigns are simply unavailable.
func (u *BudgetUseCase) CheckBudgetAvailability(ctx context.Context, campaignID int64) (domain.BudgetAvailability, error) {
	c, err := u.campaigns.GetCampaign(ctx, campaignID)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.ObserveBudget("check", "not_found")
		return domain.BudgetAvailability{}, nil
	}
	if err != nil {
		return domain.BudgetAvailability{}, err
	}

	totals, err := u.spend.SpendTotals(ctx, campaignID, u.now())
	if err != nil {
		return domain.BudgetAvailability{}, fmt.Errorf("spend totals for campaign %d: %w", campaignID, err)
	}

	result := availability(c, totals)
	if result.Available {
		metrics.ObserveBudget("check", "available")
	} else {
		metrics.ObserveBudget("check", "exhausted")
	}
	return result, nil
}

func availability(c *domain.Campaign, totals domain.SpendTotals) domain.BudgetAvailability {
	remainingLifetime := c.Budget - totals.Total
	if remainingLifetime <= 0 {
		return domain.BudgetAvailability{Available: false, Remaining: 0}
	}
	if c.DailyBudget == nil {
		return domain.BudgetAvailability{Available: true, Remaining: remainingLifetime}
	}
	remainingDaily := *c.DailyBudget - totals.Daily
	if remainingDaily <= 0 {
		// Daily exhaustion keeps reporting the lifetime remainder.
		return domain.BudgetAvailability{Available: false, Remaining: remainingLifetime}
	}
	return domain.BudgetAvailability{Available: true, Remaining: domain.MinMoney(remainingLifetime, remainingDaily)}
}

// ReserveSpend books amount against today's spend if both caps admit it.
func (u *BudgetUseCase) ReserveSpend(ctx context.Context, campaignID int64, amount domain.Money) (domain.SpendReservation, error) {
	if amount <= 0 {
		return domain.SpendReservation{}, fmt.Errorf("%w: spend amount must be positive", domain.ErrValidation)
	}
	r := domain.SpendReservation{CampaignID: campaignID, Day: domain.SpendDay(u.now()), Amount: amount}
	if err := u.recorder.ReserveSpend(ctx, campaignID, r.Day, amount); err != nil {
		if errors.Is(err, domain.ErrBudgetExhausted) {
			metrics.ObserveBudget("reserve", "exhausted")
		}
		return domain.SpendReservation{}, err
	}
	metrics.ObserveBudget("reserve", "reserved")
	return r, nil
}

// ReleaseSpend returns a reservation, e.g. when billing refused the spend.
func (u *BudgetUseCase) ReleaseSpend(ctx context.Context, r domain.SpendReservation) error {
	if r.Amount <= 0 {
		return nil
	}
	if err := u.recorder.ReleaseSpend(ctx, r.CampaignID, r.Day, r.Amount); err != nil {
		return fmt.Errorf("release spend for campaign %d: %w", r.CampaignID, err)
	}
	metrics.ObserveBudget("release", "released")
	return nil
}
