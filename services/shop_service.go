package services

import (
	"errors"
	"fmt"

	"game-economy-service/models"

	"gorm.io/gorm"
)

// ShopService is thin glue over the ledger and inventory primitives: buying
// a catalog item burns coins and acquires the item atomically.
type ShopService struct {
	DB        *gorm.DB
	Ledger    *LedgerService
	Inventory *InventoryService
	Audit     AuditSink
}

func NewShopService(db *gorm.DB, ledger *LedgerService, inventory *InventoryService) *ShopService {
	return &ShopService{DB: db, Ledger: ledger, Inventory: inventory, Audit: LogAuditSink{}}
}

// PurchaseResult pairs the transaction log row with the updated holding
type PurchaseResult struct {
	Item        *models.ShopItem            `json:"item"`
	Quantity    int64                       `json:"quantity"`
	Transaction *models.CurrencyTransaction `json:"transaction"`
}

// PurchaseItem buys qty of an active catalog item. The debit and the
// inventory credit share one transaction; a failed debit leaves the
// inventory untouched.
func (s *ShopService) PurchaseItem(competitorID, itemID string, qty int64) (*PurchaseResult, error) {
	if qty <= 0 {
		return nil, ErrInvalidAmount(qty)
	}

	result := &PurchaseResult{Quantity: qty}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var item models.ShopItem
		if err := tx.Where("id = ? AND is_active = ?", itemID, true).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound(itemID)
			}
			return fmt.Errorf("load shop item: %w", err)
		}
		result.Item = &item

		// Free catalog items skip the ledger entirely
		if total := item.Price * qty; total > 0 {
			txn, err := s.Ledger.TransferTx(tx, &competitorID, nil, total,
				"shop_"+item.Slug, models.TransactionTypePurchase)
			if err != nil {
				return err
			}
			result.Transaction = txn
		}

		return s.Inventory.AcquireTx(tx, competitorID, item.ID, qty, "shop_"+item.Slug)
	})
	if err != nil {
		return nil, err
	}

	s.Audit.Record(AuditEvent{Actor: competitorID, Action: "shop_purchase", Subject: itemID,
		Detail: map[string]interface{}{"quantity": qty, "total": result.Item.Price * qty}})
	return result, nil
}

// ListItems returns the active catalog
func (s *ShopService) ListItems() ([]models.ShopItem, error) {
	var items []models.ShopItem
	if err := s.DB.Where("is_active = ?", true).Order("name ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list shop items: %w", err)
	}
	return items, nil
}
