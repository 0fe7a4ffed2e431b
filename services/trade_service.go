package services

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"game-economy-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TradeOfferTTL is how long an offer stays open before it behaves as expired
const TradeOfferTTL = 24 * time.Hour

// TradeService owns the peer-to-peer trade offer state machine.
// PENDING → {COMPLETED, REJECTED, CANCELLED, EXPIRED}, exactly once.
type TradeService struct {
	DB        *gorm.DB
	Ledger    *LedgerService
	Inventory *InventoryService
	Events    *EventBroker
	Audit     AuditSink
}

func NewTradeService(db *gorm.DB, ledger *LedgerService, inventory *InventoryService, events *EventBroker) *TradeService {
	return &TradeService{
		DB:        db,
		Ledger:    ledger,
		Inventory: inventory,
		Events:    events,
		Audit:     LogAuditSink{},
	}
}

// TradeItemInput is one item line of a new offer
type TradeItemInput struct {
	ItemID         string `json:"item_id"`
	Quantity       int64  `json:"quantity"`
	FromCompetitor bool   `json:"from_competitor"` // true = contributed by the creator
}

// CreateOffer opens a PENDING offer from fromID to toID. The creator's item
// contributions (and currency leg) are verified under locks so an obviously
// unbacked offer is rejected up front. The check is advisory only; nothing
// is held, and settlement re-validates everything.
func (s *TradeService) CreateOffer(fromID, toID string, fromCurrency, toCurrency int64, items []TradeItemInput) (*models.TradeOffer, error) {
	if fromID == toID {
		return nil, ErrInvalidTrade("cannot trade with yourself")
	}
	if len(items) == 0 && fromCurrency == 0 && toCurrency == 0 {
		return nil, ErrInvalidTrade("offer is empty")
	}
	if fromCurrency < 0 || toCurrency < 0 {
		return nil, ErrInvalidAmount(minInt64(fromCurrency, toCurrency))
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidAmount(it.Quantity)
		}
	}

	offer := &models.TradeOffer{
		ID:               uuid.NewString(),
		FromCompetitorID: fromID,
		ToCompetitorID:   toID,
		Status:           models.TradeStatusPending,
		FromCurrency:     fromCurrency,
		ToCurrency:       toCurrency,
		ExpiresAt:        time.Now().Add(TradeOfferTTL),
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Verify the creator holds what they offer (items ordered by id so
		// two offers touching the same entries lock in the same order).
		creatorItems := make([]TradeItemInput, 0, len(items))
		for _, it := range items {
			if it.FromCompetitor {
				creatorItems = append(creatorItems, it)
			}
		}
		sort.Slice(creatorItems, func(i, j int) bool { return creatorItems[i].ItemID < creatorItems[j].ItemID })

		for _, it := range creatorItems {
			entry, err := s.Inventory.LockEntry(tx, fromID, it.ItemID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrInsufficientQuantity(it.ItemID, 0, it.Quantity)
				}
				return fmt.Errorf("lock offered item: %w", err)
			}
			if entry.Quantity < it.Quantity {
				return ErrInsufficientQuantity(it.ItemID, entry.Quantity, it.Quantity)
			}
		}

		if fromCurrency > 0 {
			bal, err := s.lockBalance(tx, fromID)
			if err != nil {
				return err
			}
			if bal.Balance < fromCurrency {
				return ErrInsufficientFunds(bal.Balance, fromCurrency)
			}
		}

		if err := tx.Create(offer).Error; err != nil {
			return fmt.Errorf("create trade offer: %w", err)
		}
		for _, it := range items {
			row := models.TradeItem{
				ID:             uuid.NewString(),
				TradeID:        offer.ID,
				ItemID:         it.ItemID,
				Quantity:       it.Quantity,
				FromCompetitor: it.FromCompetitor,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create trade item: %w", err)
			}
			offer.Items = append(offer.Items, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Events.Publish(Event{
		Type:         "trade_offer_received",
		CompetitorID: toID,
		Payload:      map[string]interface{}{"trade_id": offer.ID, "from": fromID},
	})
	s.Audit.Record(AuditEvent{Actor: fromID, Action: "trade_create", Subject: offer.ID})
	return offer, nil
}

// Respond lets the recipient of a PENDING, unexpired offer accept or reject
// it. On accept the whole settlement runs inside the same transaction as the
// status flip; if settlement fails the offer stays PENDING so it can be
// retried or left to expire.
func (s *TradeService) Respond(tradeID, responderID string, accept bool) (*models.TradeOffer, error) {
	var offer models.TradeOffer
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", tradeID).
			First(&offer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidTrade("trade offer not found")
			}
			return fmt.Errorf("lock trade offer: %w", err)
		}
		if offer.Status != models.TradeStatusPending {
			return ErrInvalidTrade(fmt.Sprintf("offer is %s", offer.Status))
		}
		if offer.Expired(time.Now()) {
			return ErrInvalidTrade("offer has expired")
		}
		if offer.ToCompetitorID != responderID {
			return ErrInvalidTrade("only the offer recipient may respond")
		}

		if err := tx.Where("trade_id = ?", tradeID).Find(&offer.Items).Error; err != nil {
			return fmt.Errorf("load trade items: %w", err)
		}

		if !accept {
			offer.Status = models.TradeStatusRejected
			return tx.Model(&models.TradeOffer{}).Where("id = ?", offer.ID).
				Update("status", offer.Status).Error
		}

		if err := s.settle(tx, &offer); err != nil {
			return err
		}
		now := time.Now()
		offer.Status = models.TradeStatusCompleted
		offer.CompletedAt = &now
		return tx.Model(&models.TradeOffer{}).Where("id = ?", offer.ID).
			Updates(map[string]interface{}{"status": offer.Status, "completed_at": now}).Error
	})
	if err != nil {
		return nil, err
	}

	evtType := "trade_rejected"
	if accept {
		evtType = "trade_completed"
	}
	s.Events.Publish(Event{
		Type:         evtType,
		CompetitorID: offer.FromCompetitorID,
		Payload:      map[string]interface{}{"trade_id": offer.ID},
	})
	s.Audit.Record(AuditEvent{Actor: responderID, Action: "trade_respond", Subject: offer.ID,
		Detail: map[string]interface{}{"accepted": accept}})
	return &offer, nil
}

// Cancel withdraws a PENDING offer; only the creator may cancel
func (s *TradeService) Cancel(tradeID, competitorID string) (*models.TradeOffer, error) {
	var offer models.TradeOffer
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", tradeID).
			First(&offer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidTrade("trade offer not found")
			}
			return fmt.Errorf("lock trade offer: %w", err)
		}
		if offer.Status != models.TradeStatusPending || offer.Expired(time.Now()) {
			return ErrInvalidTrade(fmt.Sprintf("offer is %s", offer.Status))
		}
		if offer.FromCompetitorID != competitorID {
			return ErrInvalidTrade("only the offer creator may cancel")
		}
		offer.Status = models.TradeStatusCancelled
		return tx.Model(&models.TradeOffer{}).Where("id = ?", offer.ID).
			Update("status", offer.Status).Error
	})
	if err != nil {
		return nil, err
	}

	s.Events.Publish(Event{
		Type:         "trade_cancelled",
		CompetitorID: offer.ToCompetitorID,
		Payload:      map[string]interface{}{"trade_id": offer.ID},
	})
	return &offer, nil
}

// settle executes an accepted trade: re-lock and re-validate every
// contributed item (holdings may have changed since offer creation), then
// move all items and both currency legs. Everything commits atomically with
// the caller's status flip; there is no state where only some items moved.
func (s *TradeService) settle(tx *gorm.DB, offer *models.TradeOffer) error {
	type movement struct {
		item      models.TradeItem
		giver     string
		recipient string
	}
	movements := make([]movement, 0, len(offer.Items))
	for _, it := range offer.Items {
		m := movement{item: it, giver: offer.ToCompetitorID, recipient: offer.FromCompetitorID}
		if it.FromCompetitor {
			m.giver, m.recipient = offer.FromCompetitorID, offer.ToCompetitorID
		}
		movements = append(movements, m)
	}
	// Fixed lock order across concurrent settlements touching the same rows
	sort.Slice(movements, func(i, j int) bool {
		if movements[i].giver != movements[j].giver {
			return movements[i].giver < movements[j].giver
		}
		return movements[i].item.ItemID < movements[j].item.ItemID
	})

	// Validation pass first: any shortfall aborts before a single decrement
	entries := make([]*models.InventoryEntry, len(movements))
	for i, m := range movements {
		entry, err := s.Inventory.LockEntry(tx, m.giver, m.item.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInsufficientQuantity(m.item.ItemID, 0, m.item.Quantity)
			}
			return fmt.Errorf("lock settlement entry: %w", err)
		}
		if entry.Quantity < m.item.Quantity {
			return ErrInsufficientQuantity(m.item.ItemID, entry.Quantity, m.item.Quantity)
		}
		entries[i] = entry
	}

	reason := "trade_" + offer.ID
	for i, m := range movements {
		if err := s.Inventory.RemoveTx(tx, entries[i], m.item.Quantity, reason); err != nil {
			return err
		}
		if err := s.Inventory.AcquireTx(tx, m.recipient, m.item.ItemID, m.item.Quantity, reason); err != nil {
			return err
		}
	}

	if offer.FromCurrency > 0 {
		if _, err := s.Ledger.TransferTx(tx, &offer.FromCompetitorID, &offer.ToCompetitorID,
			offer.FromCurrency, reason, models.TransactionTypeTrade); err != nil {
			return err
		}
	}
	if offer.ToCurrency > 0 {
		if _, err := s.Ledger.TransferTx(tx, &offer.ToCompetitorID, &offer.FromCompetitorID,
			offer.ToCurrency, reason, models.TransactionTypeTrade); err != nil {
			return err
		}
	}
	return nil
}

// Get returns one offer with its items
func (s *TradeService) Get(tradeID string) (*models.TradeOffer, error) {
	var offer models.TradeOffer
	if err := s.DB.Preload("Items").Where("id = ?", tradeID).First(&offer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidTrade("trade offer not found")
		}
		return nil, fmt.Errorf("get trade offer: %w", err)
	}
	return &offer, nil
}

// ListForCompetitor returns offers where the competitor is either side
func (s *TradeService) ListForCompetitor(competitorID string, status models.TradeStatus) ([]models.TradeOffer, error) {
	query := s.DB.Preload("Items").
		Where("from_competitor_id = ? OR to_competitor_id = ?", competitorID, competitorID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var offers []models.TradeOffer
	if err := query.Order("created_at DESC").Find(&offers).Error; err != nil {
		return nil, fmt.Errorf("list trade offers: %w", err)
	}
	return offers, nil
}

// ExpireStale flips PENDING offers past their deadline to EXPIRED. Purely a
// query-efficiency sweep; the read-time check in Respond/Cancel is what
// makes expiry correct.
func (s *TradeService) ExpireStale() (int64, error) {
	result := s.DB.Model(&models.TradeOffer{}).
		Where("status = ? AND expires_at < ?", models.TradeStatusPending, time.Now()).
		Update("status", models.TradeStatusExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("expire stale offers: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Printf("⏰ Expired %d stale trade offers", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

func (s *TradeService) lockBalance(tx *gorm.DB, competitorID string) (*models.CurrencyBalance, error) {
	var bal models.CurrencyBalance
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("competitor_id = ?", competitorID).
		First(&bal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipientNotFound(competitorID)
		}
		return nil, fmt.Errorf("lock balance: %w", err)
	}
	return &bal, nil
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
