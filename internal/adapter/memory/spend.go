package memory

import (
	"context"
	"fmt"
	"time"

	"adcore/internal/core/domain"
)

func dayKey(campaignID int64, day time.Time) spendKey {
	return spendKey{campaignID: campaignID, day: domain.SpendDay(day).Unix()}
}

func (s *Store) SpendTotals(_ context.Context, campaignID int64, day time.Time) (domain.SpendTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.totalsLocked(campaignID, day), nil
}

func (s *Store) totalsLocked(campaignID int64, day time.Time) domain.SpendTotals {
	var totals domain.SpendTotals
	for k, amount := range s.spend {
		if k.campaignID == campaignID {
			totals.Total += amount
		}
	}
	totals.Daily = s.spend[dayKey(campaignID, day)]
	return totals
}

func (s *Store) ReserveSpend(_ context.Context, campaignID int64, day time.Time, amount domain.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.campaigns[campaignID]
	if !ok {
		return domain.NotFoundError("campaign", campaignID)
	}
	totals := s.totalsLocked(campaignID, day)
	if totals.Total+amount > c.Budget {
		return fmt.Errorf("campaign %d lifetime cap: %w", campaignID, domain.ErrBudgetExhausted)
	}
	if c.DailyBudget != nil && totals.Daily+amount > *c.DailyBudget {
		return fmt.Errorf("campaign %d daily cap: %w", campaignID, domain.ErrBudgetExhausted)
	}
	s.spend[dayKey(campaignID, day)] += amount
	return nil
}

func (s *Store) ReleaseSpend(_ context.Context, campaignID int64, day time.Time, amount domain.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := dayKey(campaignID, day)
	s.spend[k] -= amount
	if s.spend[k] <= 0 {
		delete(s.spend, k)
	}
	return nil
}

// RecordSpend adds completed spend as the metering side would. It applies no
// caps and is meant for seeding and tests.
func (s *Store) RecordSpend(campaignID int64, day time.Time, amount domain.Money) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.spend[dayKey(campaignID, day)] += amount
}
