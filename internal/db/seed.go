package db

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"adcore/internal/core/domain"
	"adcore/internal/core/port"
)

// SeedStore is the set of repositories Seed writes through. Both the
// postgres repository and the memory store satisfy it.
type SeedStore interface {
	port.AdvertiserRepository
	port.CampaignRepository
	port.AdGroupRepository
	port.CriterionRepository
}

// Seed inserts demo advertisers, campaigns, ad groups and targeting. It does
// nothing when the first advertiser already exists.
func Seed(ctx context.Context, store SeedStore) error {
	if _, err := store.GetAdvertiser(ctx, 1); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	start := time.Now().UTC().AddDate(0, 0, -1)
	end := start.AddDate(0, 1, 0)

	devices := []string{"ios", "android", "desktop"}
	locations := []string{"US", "DE", "AM", "FR"}

	for i := 1; i <= 3; i++ {
		adv := domain.Advertiser{
			Name:           fmt.Sprintf("Advertiser %d", i),
			AccountBalance: 50000, // 500.00
			Currency:       "USD",
		}
		if err := store.CreateAdvertiser(ctx, &adv); err != nil {
			return err
		}

		for j := 1; j <= 2; j++ {
			daily := domain.Money(10000) // 100.00
			campaign := domain.Campaign{
				AdvertiserID: adv.ID,
				Name:         fmt.Sprintf("Campaign %d-%d", i, j),
				Budget:       100000, // 1000.00
				DailyBudget:  &daily,
				Status:       domain.CampaignActive,
				StartDate:    start,
				EndDate:      &end,
			}
			if err := store.CreateCampaign(ctx, &campaign); err != nil {
				return err
			}

			for k := 1; k <= 3; k++ {
				group := domain.AdGroup{
					CampaignID: campaign.ID,
					Name:       fmt.Sprintf("Ad group %d-%d-%d", i, j, k),
					BidAmount:  domain.Money(500 + r.Intn(4500)), // 5.00 to 50.00 CPM
					Status:     domain.AdGroupActive,
				}
				if err := store.CreateAdGroup(ctx, &group); err != nil {
					return err
				}

				criteria := []domain.TargetingCriterion{
					{CriteriaType: domain.CriteriaDevice, Operator: domain.OpEquals, CriteriaValue: devices[r.Intn(len(devices))]},
					{CriteriaType: domain.CriteriaLocation, Operator: domain.OpIn, CriteriaValue: locations[r.Intn(2)] + "," + locations[2+r.Intn(2)]},
					{CriteriaType: domain.CriteriaAge, Operator: domain.OpBetween, CriteriaValue: fmt.Sprintf("%d-%d", 18+r.Intn(10), 35+r.Intn(30))},
				}
				for _, c := range criteria[:1+r.Intn(len(criteria))] {
					c.AdGroupID = group.ID
					if err := store.CreateCriterion(ctx, &c); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
