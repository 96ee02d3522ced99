package domain

import (
	"fmt"
	"time"
)

// AdGroupStatus is the lifecycle state of an ad group.
type AdGroupStatus string

const (
	AdGroupDraft  AdGroupStatus = "draft"
	AdGroupActive AdGroupStatus = "active"
	AdGroupPaused AdGroupStatus = "paused"
)

func (s AdGroupStatus) Valid() bool {
	switch s {
	case AdGroupDraft, AdGroupActive, AdGroupPaused:
		return true
	}
	return false
}

// AdGroup is a targeting-and-bidding unit nested under a campaign.
type AdGroup struct {
	ID         int64         `json:"id"`
	CampaignID int64         `json:"campaign_id"`
	Name       string        `json:"name"`
	BidAmount  Money         `json:"bid_amount"` // cost per thousand impressions
	Status     AdGroupStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// ImpressionCost is the price of a single impression for a CPM bid, rounded
// up to the next minor unit.
func (g *AdGroup) ImpressionCost() Money {
	if g.BidAmount <= 0 {
		return 0
	}
	return (g.BidAmount + 999) / 1000
}

func (g *AdGroup) Validate() error {
	if g.CampaignID <= 0 {
		return fmt.Errorf("%w: campaign_id is required", ErrValidation)
	}
	if !g.Status.Valid() {
		return fmt.Errorf("%w: unknown ad group status %q", ErrValidation, g.Status)
	}
	if g.BidAmount < 0 {
		return fmt.Errorf("%w: bid_amount must not be negative", ErrValidation)
	}
	return nil
}
