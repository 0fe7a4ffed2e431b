package models

import (
	"time"
)

// InventoryEntry tracks how many of an item a competitor holds. Created on
// first acquisition; a row decremented to zero is retained (not deleted) so
// use_count and the acquisition history survive.
type InventoryEntry struct {
	ID             string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CompetitorID   string     `gorm:"uniqueIndex:idx_inventory_competitor_item;type:uuid;not null" json:"competitor_id"`
	ItemID         string     `gorm:"uniqueIndex:idx_inventory_competitor_item;type:uuid;not null" json:"item_id"`
	Quantity       int64      `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`
	UseCount       int64      `gorm:"not null;default:0" json:"use_count"`
	LastAcquiredAt *time.Time `json:"last_acquired_at,omitempty"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`

	Timestamps
}

// InventoryLogKind tags an inventory log row
type InventoryLogKind string

const (
	InventoryLogAcquired InventoryLogKind = "acquired"
	InventoryLogUsed     InventoryLogKind = "used"
)

// InventoryLog is the append-only usage/acquisition log
type InventoryLog struct {
	ID           string           `gorm:"primaryKey;type:uuid" json:"id"`
	CompetitorID string           `gorm:"type:uuid;not null;index" json:"competitor_id"`
	ItemID       string           `gorm:"type:uuid;not null;index" json:"item_id"`
	Kind         InventoryLogKind `gorm:"not null" json:"kind"`
	Delta        int64            `gorm:"not null" json:"delta"`
	Reason       string           `gorm:"size:255" json:"reason"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
}
