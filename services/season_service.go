package services

import (
	"errors"
	"fmt"
	"log"

	"game-economy-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeasonService tracks per-competitor XP and tier within a season and owns
// reward claiming against the tier catalog (free + premium tracks).
type SeasonService struct {
	DB         *gorm.DB
	Ledger     *LedgerService
	Inventory  *InventoryService
	Milestones *MilestoneService
	Events     *EventBroker
	Audit      AuditSink
}

func NewSeasonService(db *gorm.DB, ledger *LedgerService, inventory *InventoryService, milestones *MilestoneService, events *EventBroker) *SeasonService {
	return &SeasonService{
		DB:         db,
		Ledger:     ledger,
		Inventory:  inventory,
		Milestones: milestones,
		Events:     events,
		Audit:      LogAuditSink{},
	}
}

// XPAwardResult is what AwardXP returns to the caller
type XPAwardResult struct {
	Progression   *models.SeasonProgression `json:"progression"`
	TieredUp      bool                      `json:"tiered_up"`
	TierUpRewards []models.SeasonTier       `json:"tier_up_rewards"`
}

// applyTierRollover consumes XP tier by tier. Each next tier's cost is
// subtracted in sequence (never compared against the cumulative total), so a
// single large award can span several tiers. XP past the last catalog tier
// is discarded. Bounded by the catalog size.
func applyTierRollover(currentTier int, xp int64, tiers map[int]models.SeasonTier) (int, int64, []models.SeasonTier) {
	var rewards []models.SeasonTier
	for {
		next, ok := tiers[currentTier+1]
		if !ok {
			xp = 0 // past the max tier, surplus XP is discarded
			break
		}
		if xp < next.XPRequired {
			break
		}
		xp -= next.XPRequired
		currentTier++
		rewards = append(rewards, next)
	}
	return currentTier, xp, rewards
}

// AwardXP adds XP to a competitor's season progression, rolling tiers over
// as needed, and appends one immutable history row. The progression is
// created lazily at tier 0 / xp 0 on first award.
func (s *SeasonService) AwardXP(competitorID, seasonID string, amount int64, source string) (*XPAwardResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount(amount)
	}

	result := &XPAwardResult{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		prog, err := s.lockOrCreateProgression(tx, competitorID, seasonID)
		if err != nil {
			return err
		}

		tiers, err := s.tierCatalog(tx, seasonID)
		if err != nil {
			return err
		}

		tierBefore := prog.CurrentTier
		newTier, newXP, rewards := applyTierRollover(prog.CurrentTier, prog.CurrentXP+amount, tiers)
		prog.CurrentTier = newTier
		prog.CurrentXP = newXP

		if err := tx.Model(&models.SeasonProgression{}).
			Where("id = ?", prog.ID).
			Updates(map[string]interface{}{"current_tier": newTier, "current_xp": newXP}).Error; err != nil {
			return fmt.Errorf("save progression: %w", err)
		}

		history := models.SeasonXpHistory{
			ID:            uuid.NewString(),
			ProgressionID: prog.ID,
			Amount:        amount,
			Source:        source,
			TierBefore:    tierBefore,
			TierAfter:     newTier,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("append xp history: %w", err)
		}

		result.Progression = prog
		result.TieredUp = newTier > tierBefore
		result.TierUpRewards = rewards
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🎮 XP Awarded: %s season=%s +%d → tier=%d xp=%d (source: %s)",
		competitorID, seasonID, amount, result.Progression.CurrentTier, result.Progression.CurrentXP, source)

	if result.TieredUp {
		s.Events.Publish(Event{
			Type:         "tier_up",
			CompetitorID: competitorID,
			Payload:      map[string]interface{}{"season_id": seasonID, "tier": result.Progression.CurrentTier},
		})
	}
	if s.Milestones != nil {
		_ = s.Milestones.AutoGrant(competitorID) // fire-and-forget
	}
	return result, nil
}

// ClaimReward grants the catalog reward for a reached tier exactly once.
// The unique ClaimedReward row is the idempotency guard: a retried claim
// fails AlreadyClaimed with the reward applied exactly once.
func (s *SeasonService) ClaimReward(competitorID, seasonID string, tierNumber int) (*models.SeasonTier, error) {
	var tier models.SeasonTier
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		prog, err := s.lockProgression(tx, competitorID, seasonID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTierNotReached(0, tierNumber)
			}
			return err
		}
		if prog.CurrentTier < tierNumber {
			return ErrTierNotReached(prog.CurrentTier, tierNumber)
		}

		if err := tx.Where("season_id = ? AND tier_number = ?", seasonID, tierNumber).
			First(&tier).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTierNotReached(prog.CurrentTier, tierNumber)
			}
			return fmt.Errorf("load tier catalog: %w", err)
		}
		if tier.IsPremium && !prog.HasBattlePass {
			return ErrBattlePassRequired(tierNumber)
		}

		claim := models.ClaimedReward{
			ID:            uuid.NewString(),
			ProgressionID: prog.ID,
			TierNumber:    tierNumber,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&claim)
		if res.Error != nil {
			return fmt.Errorf("insert claim: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyClaimed(tierNumber)
		}

		reason := fmt.Sprintf("season_%s_tier_%d", seasonID, tierNumber)
		switch tier.RewardType {
		case models.SeasonRewardCurrency:
			if _, err := s.Ledger.TransferTx(tx, nil, &competitorID, tier.RewardAmount, reason, models.TransactionTypeReward); err != nil {
				return err
			}
		case models.SeasonRewardItem:
			if tier.RewardItemID == nil {
				return fmt.Errorf("tier %d has no reward item configured", tierNumber)
			}
			if err := s.Inventory.AcquireTx(tx, competitorID, *tier.RewardItemID, tier.RewardAmount, reason); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown reward type %q", tier.RewardType)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Events.Publish(Event{
		Type:         "reward_claimed",
		CompetitorID: competitorID,
		Payload:      map[string]interface{}{"season_id": seasonID, "tier": tierNumber},
	})
	s.Audit.Record(AuditEvent{Actor: competitorID, Action: "claim_reward", Subject: tier.ID,
		Detail: map[string]interface{}{"season_id": seasonID, "tier": tierNumber}})
	return &tier, nil
}

// PurchaseBattlePass debits the price and flips has_battle_pass in one
// transaction, initializing the progression if needed. A failed debit never
// grants the pass.
func (s *SeasonService) PurchaseBattlePass(competitorID, seasonID string, price int64) (*models.SeasonProgression, error) {
	if price <= 0 {
		return nil, ErrInvalidAmount(price)
	}

	var out *models.SeasonProgression
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		prog, err := s.lockOrCreateProgression(tx, competitorID, seasonID)
		if err != nil {
			return err
		}
		if prog.HasBattlePass {
			return ErrAlreadyPurchased(seasonID)
		}
		if _, err := s.Ledger.TransferTx(tx, &competitorID, nil, price,
			"battle_pass_"+seasonID, models.TransactionTypePurchase); err != nil {
			return err
		}
		if err := tx.Model(&models.SeasonProgression{}).
			Where("id = ?", prog.ID).
			Update("has_battle_pass", true).Error; err != nil {
			return fmt.Errorf("grant battle pass: %w", err)
		}
		prog.HasBattlePass = true
		out = prog
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Audit.Record(AuditEvent{Actor: competitorID, Action: "battle_pass_purchase", Subject: seasonID,
		Detail: map[string]interface{}{"price": price}})
	if s.Milestones != nil {
		_ = s.Milestones.AutoGrant(competitorID)
	}
	return out, nil
}

// GetProgression returns the progression plus claimed tier numbers; a
// competitor who never earned XP reads as tier 0 / xp 0 without a row being
// created.
func (s *SeasonService) GetProgression(competitorID, seasonID string) (*models.SeasonProgression, []int, error) {
	var prog models.SeasonProgression
	err := s.DB.Where("competitor_id = ? AND season_id = ?", competitorID, seasonID).First(&prog).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.SeasonProgression{
				CompetitorID: competitorID,
				SeasonID:     seasonID,
			}, nil, nil
		}
		return nil, nil, fmt.Errorf("get progression: %w", err)
	}

	var claims []models.ClaimedReward
	if err := s.DB.Where("progression_id = ?", prog.ID).
		Order("tier_number ASC").
		Find(&claims).Error; err != nil {
		return nil, nil, fmt.Errorf("list claims: %w", err)
	}
	claimed := make([]int, 0, len(claims))
	for _, c := range claims {
		claimed = append(claimed, c.TierNumber)
	}
	return &prog, claimed, nil
}

// GetSeason loads one season by id
func (s *SeasonService) GetSeason(seasonID string) (*models.Season, error) {
	var season models.Season
	if err := s.DB.Where("id = ?", seasonID).First(&season).Error; err != nil {
		return nil, fmt.Errorf("get season: %w", err)
	}
	return &season, nil
}

// ListTiers returns the catalog of a season ordered by tier number
func (s *SeasonService) ListTiers(seasonID string) ([]models.SeasonTier, error) {
	var tiers []models.SeasonTier
	if err := s.DB.Where("season_id = ?", seasonID).
		Order("tier_number ASC").
		Find(&tiers).Error; err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	return tiers, nil
}

func (s *SeasonService) tierCatalog(tx *gorm.DB, seasonID string) (map[int]models.SeasonTier, error) {
	var tiers []models.SeasonTier
	if err := tx.Where("season_id = ?", seasonID).Find(&tiers).Error; err != nil {
		return nil, fmt.Errorf("load tier catalog: %w", err)
	}
	byNumber := make(map[int]models.SeasonTier, len(tiers))
	for _, t := range tiers {
		byNumber[t.TierNumber] = t
	}
	return byNumber, nil
}

// lockOrCreateProgression returns the progression row under a row lock,
// creating it at tier 0 / xp 0 if absent. Concurrent first-calls race on the
// unique (competitor_id, season_id) constraint; the loser's insert is a
// no-op and both end up locking the winner's row.
func (s *SeasonService) lockOrCreateProgression(tx *gorm.DB, competitorID, seasonID string) (*models.SeasonProgression, error) {
	prog := models.SeasonProgression{
		ID:           uuid.NewString(),
		CompetitorID: competitorID,
		SeasonID:     seasonID,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&prog).Error; err != nil {
		return nil, fmt.Errorf("create progression: %w", err)
	}
	return s.lockProgression(tx, competitorID, seasonID)
}

func (s *SeasonService) lockProgression(tx *gorm.DB, competitorID, seasonID string) (*models.SeasonProgression, error) {
	var prog models.SeasonProgression
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("competitor_id = ? AND season_id = ?", competitorID, seasonID).
		First(&prog).Error; err != nil {
		return nil, err
	}
	return &prog, nil
}
