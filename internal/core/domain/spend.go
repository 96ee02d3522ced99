package domain

import "time"

// SpendTotals is the completed spend of one campaign: over its whole life and
// on a single calendar day.
type SpendTotals struct {
	Total Money
	Daily Money
}

// BudgetAvailability is the answer of a budget check. Remaining is the amount
// the campaign may still spend under the caps that apply.
type BudgetAvailability struct {
	Available bool  `json:"available"`
	Remaining Money `json:"remaining"`
}

// SpendDay truncates t to its UTC calendar day.
func SpendDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SpendReservation is spend booked against a campaign for one day. Releasing
// it must use the same day it was reserved on.
type SpendReservation struct {
	CampaignID int64
	Day        time.Time
	Amount     Money
}
