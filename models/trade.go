package models

import (
	"time"
)

// TradeStatus is the offer lifecycle state. PENDING transitions exactly once
// to one of the terminal states; there is no transition out of a terminal
// state.
type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "pending"
	TradeStatusCompleted TradeStatus = "completed"
	TradeStatusRejected  TradeStatus = "rejected"
	TradeStatusCancelled TradeStatus = "cancelled"
	TradeStatusExpired   TradeStatus = "expired"
)

// Terminal reports whether the status can never change again
func (s TradeStatus) Terminal() bool {
	return s != TradeStatusPending
}

// TradeOffer is a peer-to-peer exchange proposal. Item sides live in
// TradeItem rows; FromCurrency/ToCurrency carry the optional coin legs of a
// currency-denominated trade. Holdings are verified at creation time for the
// creator's side only; settlement re-validates everything under locks.
type TradeOffer struct {
	ID               string      `gorm:"primaryKey;type:uuid" json:"id"`
	FromCompetitorID string      `gorm:"type:uuid;not null;index" json:"from_competitor_id"`
	ToCompetitorID   string      `gorm:"type:uuid;not null;index" json:"to_competitor_id"`
	Status           TradeStatus `gorm:"not null;default:'pending';index" json:"status"`
	FromCurrency     int64       `gorm:"not null;default:0" json:"from_currency"` // coins the creator offers
	ToCurrency       int64       `gorm:"not null;default:0" json:"to_currency"`   // coins asked from the recipient
	ExpiresAt        time.Time   `gorm:"not null;index" json:"expires_at"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty"`

	Items []TradeItem `gorm:"foreignKey:TradeID" json:"items"`

	Timestamps
}

// Expired is the passive read-time expiry check; a PENDING offer past its
// deadline behaves as already expired even before the sweeper marks it.
func (o *TradeOffer) Expired(now time.Time) bool {
	return o.Status == TradeStatusPending && o.ExpiresAt.Before(now)
}

// TradeItem is one item line of an offer, immutable once the parent offer is
// created. FromCompetitor marks which side contributes the item.
type TradeItem struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	TradeID        string    `gorm:"type:uuid;not null;index" json:"trade_id"`
	ItemID         string    `gorm:"type:uuid;not null" json:"item_id"`
	Quantity       int64     `gorm:"not null;check:quantity > 0" json:"quantity"`
	FromCompetitor bool      `gorm:"not null" json:"from_competitor"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}
