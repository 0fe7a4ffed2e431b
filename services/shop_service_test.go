package services_test

import (
	"testing"

	"game-economy-service/models"
	"game-economy-service/services"
	"game-economy-service/testutil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newShopFixture(t *testing.T) (*gorm.DB, *services.ShopService, *services.LedgerService) {
	t.Helper()
	db := testutil.NewTestDB(t)
	ledger := services.NewLedgerService(db)
	inventory := services.NewInventoryService(db)
	shop := services.NewShopService(db, ledger, inventory)
	return db, shop, ledger
}

func seedShopItem(t *testing.T, db *gorm.DB, name string, price int64, active bool) string {
	t.Helper()
	item := models.ShopItem{Name: name, Price: price, IsActive: active}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed shop item: %v", err)
	}
	return item.ID
}

func TestPurchaseItemBurnsCoinsAndFillsInventory(t *testing.T) {
	db, shop, ledger := newShopFixture(t)

	gameID := uuid.NewString()
	alice := testutil.SeedCompetitor(t, db, gameID, 500)
	itemID := seedShopItem(t, db, "Health Potion", 60, true)

	result, err := shop.PurchaseItem(alice, itemID, 3)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if result.Transaction == nil || result.Transaction.Amount != 180 {
		t.Fatalf("unexpected transaction: %+v", result.Transaction)
	}
	if result.Transaction.ToCompetitorID != nil {
		t.Error("purchase should burn coins, not credit anyone")
	}

	bal, _ := ledger.GetBalance(alice)
	if bal.Balance != 320 {
		t.Errorf("balance = %d, want 320", bal.Balance)
	}

	var entry models.InventoryEntry
	if err := db.Where("competitor_id = ? AND item_id = ?", alice, itemID).First(&entry).Error; err != nil {
		t.Fatalf("inventory entry missing: %v", err)
	}
	if entry.Quantity != 3 {
		t.Errorf("quantity = %d, want 3", entry.Quantity)
	}
}

func TestPurchaseItemInsufficientFundsLeavesInventoryEmpty(t *testing.T) {
	db, shop, ledger := newShopFixture(t)

	gameID := uuid.NewString()
	alice := testutil.SeedCompetitor(t, db, gameID, 50)
	itemID := seedShopItem(t, db, "Greatsword", 100, true)

	_, err := shop.PurchaseItem(alice, itemID, 1)
	de, ok := services.AsDomain(err)
	if !ok || de.Code != services.CodeInsufficientFunds {
		t.Fatalf("err = %v, want %s", err, services.CodeInsufficientFunds)
	}

	bal, _ := ledger.GetBalance(alice)
	if bal.Balance != 50 {
		t.Errorf("balance = %d, want 50", bal.Balance)
	}
	var count int64
	db.Model(&models.InventoryEntry{}).Where("competitor_id = ?", alice).Count(&count)
	if count != 0 {
		t.Errorf("failed purchase created %d inventory rows", count)
	}
}

func TestPurchaseItemGuards(t *testing.T) {
	db, shop, _ := newShopFixture(t)

	gameID := uuid.NewString()
	alice := testutil.SeedCompetitor(t, db, gameID, 500)
	inactive := seedShopItem(t, db, "Retired Skin", 10, false)

	tests := []struct {
		name     string
		itemID   string
		qty      int64
		wantCode string
	}{
		{"unknown item", uuid.NewString(), 1, services.CodeItemNotFound},
		{"inactive item", inactive, 1, services.CodeItemNotFound},
		{"zero quantity", inactive, 0, services.CodeInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := shop.PurchaseItem(alice, tt.itemID, tt.qty)
			de, ok := services.AsDomain(err)
			if !ok || de.Code != tt.wantCode {
				t.Fatalf("err = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestPurchaseFreeItemSkipsLedger(t *testing.T) {
	db, shop, ledger := newShopFixture(t)

	gameID := uuid.NewString()
	alice := testutil.SeedCompetitor(t, db, gameID, 10)
	itemID := seedShopItem(t, db, "Starter Emote", 0, true)

	result, err := shop.PurchaseItem(alice, itemID, 1)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if result.Transaction != nil {
		t.Errorf("free purchase wrote a transaction: %+v", result.Transaction)
	}
	bal, _ := ledger.GetBalance(alice)
	if bal.Balance != 10 {
		t.Errorf("balance = %d, want 10", bal.Balance)
	}
}

func TestListItemsOnlyActive(t *testing.T) {
	db, shop, _ := newShopFixture(t)

	seedShopItem(t, db, "Visible", 10, true)
	seedShopItem(t, db, "Hidden", 10, false)

	items, err := shop.ListItems()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Visible" {
		t.Fatalf("unexpected catalog: %+v", items)
	}
}
