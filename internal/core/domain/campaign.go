package domain

import (
	"fmt"
	"time"
)

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

// Valid reports whether s is a known campaign status.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignActive, CampaignPaused, CampaignCompleted:
		return true
	}
	return false
}

// Campaign represents an advertising campaign owned by one advertiser.
// Budgets are stored in integer units (e.g. cents).
type Campaign struct {
	ID           int64          `json:"id"`
	AdvertiserID int64          `json:"advertiser_id"`
	Name         string         `json:"name"`
	Budget       Money          `json:"budget"`                 // lifetime cap
	DailyBudget  *Money         `json:"daily_budget,omitempty"` // nil means no daily cap
	Status       CampaignStatus `json:"status"`
	StartDate    time.Time      `json:"start_date"`
	EndDate      *time.Time     `json:"end_date,omitempty"` // nil means open-ended
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Servable reports whether the campaign may deliver at now: it must be active
// and now must fall in [StartDate, EndDate).
func (c *Campaign) Servable(now time.Time) bool {
	if c.Status != CampaignActive {
		return false
	}
	if now.Before(c.StartDate) {
		return false
	}
	return c.EndDate == nil || now.Before(*c.EndDate)
}

// Validate checks the invariants a stored campaign must satisfy.
func (c *Campaign) Validate() error {
	if c.AdvertiserID <= 0 {
		return fmt.Errorf("%w: advertiser_id is required", ErrValidation)
	}
	if !c.Status.Valid() {
		return fmt.Errorf("%w: unknown campaign status %q", ErrValidation, c.Status)
	}
	if c.Budget < 0 {
		return fmt.Errorf("%w: budget must not be negative", ErrValidation)
	}
	if c.DailyBudget != nil && *c.DailyBudget < 0 {
		return fmt.Errorf("%w: daily_budget must not be negative", ErrValidation)
	}
	if c.StartDate.IsZero() {
		return fmt.Errorf("%w: start_date is required", ErrValidation)
	}
	if c.EndDate != nil && !c.EndDate.After(c.StartDate) {
		return fmt.Errorf("%w: end_date must be after start_date", ErrValidation)
	}
	return nil
}
