package usecase

import (
	"context"
	"testing"
	"time"

	"adcore/internal/adapter/memory"
	"adcore/internal/core/domain"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func money(v domain.Money) *domain.Money { return &v }

// seed creates one advertiser with an active campaign and ad group.
type seed struct {
	store    *memory.Store
	adv      domain.Advertiser
	campaign domain.Campaign
	group    domain.AdGroup
}

func newSeed(t *testing.T, balance, budget domain.Money, daily *domain.Money) *seed {
	t.Helper()
	s := &seed{store: memory.New()}
	s.adv = s.addAdvertiser(t, balance)
	s.campaign = s.addCampaign(t, s.adv.ID, budget, daily)
	s.group = s.addAdGroup(t, s.campaign.ID, 1000)
	return s
}

func (s *seed) addAdvertiser(t *testing.T, balance domain.Money) domain.Advertiser {
	t.Helper()
	a := domain.Advertiser{Name: "acme", AccountBalance: balance, Currency: "USD"}
	require.NoError(t, s.store.CreateAdvertiser(context.Background(), &a))
	return a
}

func (s *seed) addCampaign(t *testing.T, advertiserID int64, budget domain.Money, daily *domain.Money) domain.Campaign {
	t.Helper()
	c := domain.Campaign{
		AdvertiserID: advertiserID,
		Name:         "spring",
		Budget:       budget,
		DailyBudget:  daily,
		Status:       domain.CampaignActive,
		StartDate:    testNow.Add(-48 * time.Hour),
	}
	require.NoError(t, s.store.CreateCampaign(context.Background(), &c))
	return c
}

func (s *seed) addAdGroup(t *testing.T, campaignID int64, bid domain.Money) domain.AdGroup {
	t.Helper()
	g := domain.AdGroup{CampaignID: campaignID, Name: "group", BidAmount: bid, Status: domain.AdGroupActive}
	require.NoError(t, s.store.CreateAdGroup(context.Background(), &g))
	return g
}

func (s *seed) addCriterion(t *testing.T, adGroupID int64, criteriaType string, op domain.Operator, value string) {
	t.Helper()
	c := domain.TargetingCriterion{AdGroupID: adGroupID, CriteriaType: criteriaType, Operator: op, CriteriaValue: value}
	require.NoError(t, s.store.CreateCriterion(context.Background(), &c))
}

func (s *seed) balance(t *testing.T, advertiserID int64) domain.Money {
	t.Helper()
	a, err := s.store.GetAdvertiser(context.Background(), advertiserID)
	require.NoError(t, err)
	return a.AccountBalance
}
