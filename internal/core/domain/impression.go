package domain

import (
	"time"
)

// Impression is a record of an ad group being served to a user. Cost has
// already been reserved against the campaign and deducted from the advertiser.
type Impression struct {
	Token         string
	AdGroupID     int64
	CampaignID    int64
	AdvertiserID  int64
	UserID        string
	Cost          Money
	TransactionID int64
	CreatedAt     time.Time
}
