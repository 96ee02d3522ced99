package domain

import "time"

// Advertiser owns campaigns and a prepaid account balance. Only the billing
// ledger mutates AccountBalance.
type Advertiser struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	AccountBalance Money     `json:"account_balance"`
	Currency       string    `json:"currency"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
