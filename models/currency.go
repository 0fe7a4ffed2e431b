package models

import (
	"time"
)

// TransactionType classifies what moved the currency
type TransactionType string

const (
	TransactionTypeTransfer TransactionType = "transfer"
	TransactionTypePurchase TransactionType = "purchase"
	TransactionTypeReward   TransactionType = "reward"
	TransactionTypeTrade    TransactionType = "trade"
)

// TransactionStatus indicates whether the transfer was applied
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// CurrencyBalance holds the spendable coins of one competitor in one game.
// One row per competitor per game; mutated only through the ledger's atomic
// transfer primitive, never deleted while the competitor is active.
type CurrencyBalance struct {
	ID           string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CompetitorID string `gorm:"uniqueIndex;type:uuid;not null" json:"competitor_id"`
	GameID       string `gorm:"type:uuid;not null;index" json:"game_id"`
	Balance      int64  `gorm:"not null;default:0;check:balance >= 0" json:"balance"`

	Timestamps
}

// CurrencyTransaction is the append-only transfer log. Rows are written once
// per completed movement and never updated. A nil FromCompetitorID is a
// system mint; a nil ToCompetitorID is a burn (shop and battle-pass
// purchases drain coins out of circulation).
type CurrencyTransaction struct {
	ID               string            `gorm:"primaryKey;type:uuid" json:"id"`
	FromCompetitorID *string           `gorm:"type:uuid;index" json:"from_competitor_id,omitempty"`
	ToCompetitorID   *string           `gorm:"type:uuid;index" json:"to_competitor_id,omitempty"`
	Amount           int64             `gorm:"not null" json:"amount"`
	Reason           string            `gorm:"size:255" json:"reason"`
	Status           TransactionStatus `gorm:"not null" json:"status"`
	Type             TransactionType   `gorm:"not null;index" json:"type"`
	CreatedAt        time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
}
