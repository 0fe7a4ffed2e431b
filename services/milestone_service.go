package services

import (
	"fmt"
	"log"

	"game-economy-service/models"

	"gorm.io/gorm"
)

// MilestoneService grants one-time milestones from typed predicates over a
// competitor's progression stats. The predicate set is closed (field
// comparison and range check only); stored conditions are data, never code.
type MilestoneService struct {
	DB     *gorm.DB
	Events *EventBroker
}

func NewMilestoneService(db *gorm.DB, events *EventBroker) *MilestoneService {
	return &MilestoneService{DB: db, Events: events}
}

// ProgressionStats is the snapshot milestones are evaluated against
type ProgressionStats struct {
	HighestTier     int64
	LifetimeXP      int64
	TradesCompleted int64
	ItemsUsed       int64
	BattlePasses    int64
}

// Field resolves one predicate field from the snapshot
func (st ProgressionStats) Field(f models.PredicateField) (int64, bool) {
	switch f {
	case models.PredicateFieldTier:
		return st.HighestTier, true
	case models.PredicateFieldLifetimeXP:
		return st.LifetimeXP, true
	case models.PredicateFieldTradesCompleted:
		return st.TradesCompleted, true
	case models.PredicateFieldItemsUsed:
		return st.ItemsUsed, true
	case models.PredicateFieldBattlePasses:
		return st.BattlePasses, true
	}
	return 0, false
}

// EvaluatePredicates reports whether every predicate holds for the stats.
// Unknown fields or operators fail closed.
func EvaluatePredicates(stats ProgressionStats, preds []models.MilestonePredicate) bool {
	for _, p := range preds {
		value, ok := stats.Field(p.Field)
		if !ok {
			return false
		}
		switch p.Op {
		case models.PredicateOpGTE:
			if value < p.Value {
				return false
			}
		case models.PredicateOpLTE:
			if value > p.Value {
				return false
			}
		case models.PredicateOpEQ:
			if value != p.Value {
				return false
			}
		case models.PredicateOpBetween:
			if value < p.Value || value > p.Upper {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// AutoGrant checks every milestone against the competitor's current stats
// after a progress update and grants the ones newly met. Called
// fire-and-forget; failures only log.
func (s *MilestoneService) AutoGrant(competitorID string) error {
	stats, err := s.collectStats(competitorID)
	if err != nil {
		log.Printf("⚠️ Milestone stats for %s failed: %v", competitorID, err)
		return err
	}

	var milestones []models.Milestone
	if err := s.DB.Find(&milestones).Error; err != nil {
		return fmt.Errorf("load milestones: %w", err)
	}

	for _, m := range milestones {
		if !EvaluatePredicates(*stats, m.Predicates) {
			continue
		}
		var count int64
		s.DB.Model(&models.CompetitorMilestone{}).
			Where("competitor_id = ? AND milestone_id = ?", competitorID, m.ID).
			Count(&count)
		if count > 0 {
			continue
		}
		grant := models.CompetitorMilestone{
			CompetitorID: competitorID,
			MilestoneID:  m.ID,
		}
		if err := s.DB.Create(&grant).Error; err != nil {
			return fmt.Errorf("grant milestone %s: %w", m.Code, err)
		}
		log.Printf("🎖️ Milestone granted: %s → %s", m.Name, competitorID)
		if s.Events != nil {
			s.Events.Publish(Event{
				Type:         "milestone_granted",
				CompetitorID: competitorID,
				Payload:      map[string]interface{}{"code": m.Code, "name": m.Name},
			})
		}
	}
	return nil
}

// ListForCompetitor returns granted milestones joined with their definitions
func (s *MilestoneService) ListForCompetitor(competitorID string) ([]map[string]interface{}, error) {
	var grants []models.CompetitorMilestone
	if err := s.DB.Where("competitor_id = ?", competitorID).
		Order("awarded_at DESC").
		Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}

	out := make([]map[string]interface{}, 0, len(grants))
	for _, g := range grants {
		var m models.Milestone
		if err := s.DB.Where("id = ?", g.MilestoneID).First(&m).Error; err != nil {
			continue
		}
		out = append(out, map[string]interface{}{
			"id":          g.ID,
			"code":        m.Code,
			"name":        m.Name,
			"description": m.Description,
			"rarity":      m.Rarity,
			"awarded_at":  g.AwardedAt,
		})
	}
	return out, nil
}

// SeedDefaults inserts the default milestone set on first boot
func (s *MilestoneService) SeedDefaults() error {
	var count int64
	if err := s.DB.Model(&models.Milestone{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count milestones: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, m := range models.DefaultMilestones {
		if err := s.DB.Create(&m).Error; err != nil {
			return fmt.Errorf("seed milestone %s: %w", m.Code, err)
		}
	}
	log.Printf("✅ Seeded %d default milestones", len(models.DefaultMilestones))
	return nil
}

func (s *MilestoneService) collectStats(competitorID string) (*ProgressionStats, error) {
	stats := &ProgressionStats{}

	var maxTier *int64
	if err := s.DB.Model(&models.SeasonProgression{}).
		Where("competitor_id = ?", competitorID).
		Select("MAX(current_tier)").
		Scan(&maxTier).Error; err != nil {
		return nil, fmt.Errorf("max tier: %w", err)
	}
	if maxTier != nil {
		stats.HighestTier = *maxTier
	}

	var lifetimeXP *int64
	if err := s.DB.Model(&models.SeasonXpHistory{}).
		Joins("JOIN season_progressions sp ON sp.id = season_xp_histories.progression_id").
		Where("sp.competitor_id = ?", competitorID).
		Select("SUM(season_xp_histories.amount)").
		Scan(&lifetimeXP).Error; err != nil {
		return nil, fmt.Errorf("lifetime xp: %w", err)
	}
	if lifetimeXP != nil {
		stats.LifetimeXP = *lifetimeXP
	}

	if err := s.DB.Model(&models.TradeOffer{}).
		Where("status = ? AND (from_competitor_id = ? OR to_competitor_id = ?)",
			models.TradeStatusCompleted, competitorID, competitorID).
		Count(&stats.TradesCompleted).Error; err != nil {
		return nil, fmt.Errorf("trades completed: %w", err)
	}

	var itemsUsed *int64
	if err := s.DB.Model(&models.InventoryEntry{}).
		Where("competitor_id = ?", competitorID).
		Select("SUM(use_count)").
		Scan(&itemsUsed).Error; err != nil {
		return nil, fmt.Errorf("items used: %w", err)
	}
	if itemsUsed != nil {
		stats.ItemsUsed = *itemsUsed
	}

	if err := s.DB.Model(&models.SeasonProgression{}).
		Where("competitor_id = ? AND has_battle_pass = ?", competitorID, true).
		Count(&stats.BattlePasses).Error; err != nil {
		return nil, fmt.Errorf("battle passes: %w", err)
	}

	return stats, nil
}
