package services

import (
	"errors"
	"fmt"
	"time"

	"game-economy-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryService struct {
	DB *gorm.DB
}

func NewInventoryService(db *gorm.DB) *InventoryService {
	return &InventoryService{DB: db}
}

// AcquireTx adds qty of an item to a competitor inside a caller-owned
// transaction. First acquisition inserts the entry; the OnConflict increment
// keeps concurrent first-acquires from racing the unique
// (competitor_id, item_id) constraint. Shared by shop purchases, trade
// settlement and item rewards.
func (s *InventoryService) AcquireTx(tx *gorm.DB, competitorID, itemID string, qty int64, reason string) error {
	if qty <= 0 {
		return ErrInvalidAmount(qty)
	}
	now := time.Now()
	entry := models.InventoryEntry{
		CompetitorID:   competitorID,
		ItemID:         itemID,
		Quantity:       qty,
		LastAcquiredAt: &now,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "competitor_id"}, {Name: "item_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":         gorm.Expr("inventory_entries.quantity + ?", qty),
			"last_acquired_at": now,
			"updated_at":       now,
		}),
	}).Create(&entry).Error; err != nil {
		return fmt.Errorf("acquire item %s: %w", itemID, err)
	}

	logRow := models.InventoryLog{
		ID:           uuid.NewString(),
		CompetitorID: competitorID,
		ItemID:       itemID,
		Kind:         models.InventoryLogAcquired,
		Delta:        qty,
		Reason:       reason,
	}
	if err := tx.Create(&logRow).Error; err != nil {
		return fmt.Errorf("append inventory log: %w", err)
	}
	return nil
}

// RemoveTx takes qty of an item away inside a caller-owned transaction. The
// entry row must already be locked by the caller (trade settlement locks all
// contributor entries up front). The row is kept at quantity zero to
// preserve usage history.
func (s *InventoryService) RemoveTx(tx *gorm.DB, entry *models.InventoryEntry, qty int64, reason string) error {
	if entry.Quantity < qty {
		return ErrInsufficientQuantity(entry.ItemID, entry.Quantity, qty)
	}
	if err := tx.Model(&models.InventoryEntry{}).
		Where("id = ?", entry.ID).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty)).Error; err != nil {
		return fmt.Errorf("decrement item %s: %w", entry.ItemID, err)
	}
	logRow := models.InventoryLog{
		ID:           uuid.NewString(),
		CompetitorID: entry.CompetitorID,
		ItemID:       entry.ItemID,
		Kind:         models.InventoryLogUsed,
		Delta:        -qty,
		Reason:       reason,
	}
	if err := tx.Create(&logRow).Error; err != nil {
		return fmt.Errorf("append inventory log: %w", err)
	}
	return nil
}

// LockEntry re-reads an inventory entry under a row lock
func (s *InventoryService) LockEntry(tx *gorm.DB, competitorID, itemID string) (*models.InventoryEntry, error) {
	var entry models.InventoryEntry
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("competitor_id = ? AND item_id = ?", competitorID, itemID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UseItem consumes qty of an item: locked read, quantity check, decrement,
// use counters and log row in one transaction.
func (s *InventoryService) UseItem(competitorID, itemID string, qty int64) (*models.InventoryEntry, error) {
	if qty <= 0 {
		return nil, ErrInvalidAmount(qty)
	}
	var out *models.InventoryEntry
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		entry, err := s.LockEntry(tx, competitorID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound(itemID)
			}
			return fmt.Errorf("lock inventory entry: %w", err)
		}
		if entry.Quantity < qty {
			return ErrInsufficientQuantity(itemID, entry.Quantity, qty)
		}

		now := time.Now()
		if err := tx.Model(&models.InventoryEntry{}).
			Where("id = ?", entry.ID).
			Updates(map[string]interface{}{
				"quantity":     gorm.Expr("quantity - ?", qty),
				"use_count":    gorm.Expr("use_count + ?", qty),
				"last_used_at": now,
			}).Error; err != nil {
			return fmt.Errorf("use item %s: %w", itemID, err)
		}

		logRow := models.InventoryLog{
			ID:           uuid.NewString(),
			CompetitorID: competitorID,
			ItemID:       itemID,
			Kind:         models.InventoryLogUsed,
			Delta:        -qty,
			Reason:       "item_used",
		}
		if err := tx.Create(&logRow).Error; err != nil {
			return fmt.Errorf("append inventory log: %w", err)
		}

		entry.Quantity -= qty
		entry.UseCount += qty
		entry.LastUsedAt = &now
		out = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns all inventory entries for a competitor, including rows at
// zero quantity.
func (s *InventoryService) List(competitorID string) ([]models.InventoryEntry, error) {
	var entries []models.InventoryEntry
	err := s.DB.Where("competitor_id = ?", competitorID).
		Order("last_acquired_at DESC NULLS LAST").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return entries, nil
}
