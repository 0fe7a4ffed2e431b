package services

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"game-economy-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerService owns currency balances and the append-only transaction log.
// Every balance mutation in the system funnels through the transfer
// primitive below, trades, purchases and season rewards included.
type LedgerService struct {
	DB    *gorm.DB
	Cache CacheInvalidator
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db, Cache: NopCacheInvalidator{}}
}

// Transfer moves amount between two competitor balances in one transaction
func (s *LedgerService) Transfer(fromID, toID string, amount int64, reason string) (*models.CurrencyTransaction, error) {
	var txn *models.CurrencyTransaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = s.TransferTx(tx, &fromID, &toID, amount, reason, models.TransactionTypeTransfer)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate("balance:"+fromID, "balance:"+toID)
	return txn, nil
}

// Mint credits amount out of thin air (system grant, from = nil)
func (s *LedgerService) Mint(toID string, amount int64, reason string) (*models.CurrencyTransaction, error) {
	var txn *models.CurrencyTransaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = s.TransferTx(tx, nil, &toID, amount, reason, models.TransactionTypeReward)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate("balance:" + toID)
	return txn, nil
}

// Burn debits amount out of circulation (to = nil); purchases use this
func (s *LedgerService) Burn(fromID string, amount int64, reason string, txType models.TransactionType) (*models.CurrencyTransaction, error) {
	var txn *models.CurrencyTransaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = s.TransferTx(tx, &fromID, nil, amount, reason, txType)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate("balance:" + fromID)
	return txn, nil
}

// TransferTx is the shared atomic transfer primitive, run inside a
// caller-owned transaction so trade settlement and purchases can compose it
// with their own writes. It locks the touched balance rows in ascending
// competitor-id order (two transfers moving coins between the same pair in
// opposite directions would otherwise deadlock), re-reads balances under
// lock, validates, then debits/credits and appends exactly one completed
// CurrencyTransaction row. A domain error means nothing was written.
func (s *LedgerService) TransferTx(tx *gorm.DB, fromID, toID *string, amount int64, reason string, txType models.TransactionType) (*models.CurrencyTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount(amount)
	}
	if fromID == nil && toID == nil {
		return nil, fmt.Errorf("transfer needs at least one account")
	}

	ids := make([]string, 0, 2)
	if fromID != nil {
		ids = append(ids, *fromID)
	}
	if toID != nil && (fromID == nil || *toID != *fromID) {
		ids = append(ids, *toID)
	}
	sort.Strings(ids)

	balances := make(map[string]*models.CurrencyBalance, len(ids))
	for _, id := range ids {
		var bal models.CurrencyBalance
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("competitor_id = ?", id).
			First(&bal).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrRecipientNotFound(id)
			}
			return nil, fmt.Errorf("lock balance for %s: %w", id, err)
		}
		balances[id] = &bal
	}

	if fromID != nil {
		from := balances[*fromID]
		if from.Balance < amount {
			return nil, ErrInsufficientFunds(from.Balance, amount)
		}
		if err := tx.Model(&models.CurrencyBalance{}).
			Where("id = ?", from.ID).
			UpdateColumn("balance", gorm.Expr("balance - ?", amount)).Error; err != nil {
			return nil, fmt.Errorf("debit %s: %w", *fromID, err)
		}
	}
	if toID != nil {
		to := balances[*toID]
		if err := tx.Model(&models.CurrencyBalance{}).
			Where("id = ?", to.ID).
			UpdateColumn("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
			return nil, fmt.Errorf("credit %s: %w", *toID, err)
		}
	}

	txn := &models.CurrencyTransaction{
		ID:               uuid.NewString(),
		FromCompetitorID: fromID,
		ToCompetitorID:   toID,
		Amount:           amount,
		Reason:           reason,
		Status:           models.TransactionStatusCompleted,
		Type:             txType,
	}
	if err := tx.Create(txn).Error; err != nil {
		return nil, fmt.Errorf("append transaction log: %w", err)
	}

	log.Printf("💰 Transfer: %s → %s amount=%d type=%s (reason: %s)",
		deref(fromID, "mint"), deref(toID, "burn"), amount, txType, reason)
	return txn, nil
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

// EnsureBalance creates a zero balance row if none exists (idempotent).
// Transfers never auto-create rows: the balance must exist first, which the
// competitor sync worker guarantees for active competitors.
func (s *LedgerService) EnsureBalance(competitorID, gameID string) (*models.CurrencyBalance, error) {
	bal := models.CurrencyBalance{
		CompetitorID: competitorID,
		GameID:       gameID,
		Balance:      0,
	}
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "competitor_id"}},
		DoNothing: true,
	}).Create(&bal).Error; err != nil {
		return nil, fmt.Errorf("ensure balance: %w", err)
	}
	var out models.CurrencyBalance
	if err := s.DB.Where("competitor_id = ?", competitorID).First(&out).Error; err != nil {
		return nil, fmt.Errorf("reload balance: %w", err)
	}
	return &out, nil
}

// GetBalance returns the competitor's balance (no locks; read-only endpoint)
func (s *LedgerService) GetBalance(competitorID string) (*models.CurrencyBalance, error) {
	var bal models.CurrencyBalance
	if err := s.DB.Where("competitor_id = ?", competitorID).First(&bal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipientNotFound(competitorID)
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return &bal, nil
}

// ListTransactions returns the competitor's transaction history, newest first
func (s *LedgerService) ListTransactions(competitorID string, limit int) ([]models.CurrencyTransaction, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var txns []models.CurrencyTransaction
	err := s.DB.Where("from_competitor_id = ? OR to_competitor_id = ?", competitorID, competitorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}
