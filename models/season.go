package models

import (
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Season is a progression window with its own tier catalog and battle pass
type Season struct {
	ID              string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Slug            string    `gorm:"uniqueIndex;not null" json:"slug"`
	Name            string    `gorm:"not null" json:"name"`
	StartsAt        time.Time `gorm:"not null" json:"starts_at"`
	EndsAt          time.Time `gorm:"not null" json:"ends_at"`
	BattlePassPrice int64     `gorm:"not null;default:0" json:"battle_pass_price"`

	Timestamps
}

func (s *Season) BeforeCreate(tx *gorm.DB) error {
	if s.Slug == "" {
		s.Slug = slug.Make(s.Name)
	}
	return nil
}

// SeasonRewardType indicates whether a tier pays out coins or an item
type SeasonRewardType string

const (
	SeasonRewardCurrency SeasonRewardType = "currency"
	SeasonRewardItem     SeasonRewardType = "item"
)

// SeasonTier is one step of a season's reward catalog. XPRequired is the XP
// needed to advance from the previous tier to this one (per-tier cost, not
// cumulative). Premium tiers pay out only to battle pass holders.
type SeasonTier struct {
	ID           string           `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	SeasonID     string           `gorm:"uniqueIndex:idx_season_tier;type:uuid;not null" json:"season_id"`
	TierNumber   int              `gorm:"uniqueIndex:idx_season_tier;not null" json:"tier_number"`
	XPRequired   int64            `gorm:"not null" json:"xp_required"`
	RewardType   SeasonRewardType `gorm:"not null" json:"reward_type"`
	RewardAmount int64            `gorm:"not null" json:"reward_amount"`
	RewardItemID *string          `gorm:"type:uuid" json:"reward_item_id,omitempty"`
	IsPremium    bool             `gorm:"default:false" json:"is_premium"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

// SeasonProgression tracks one competitor's XP and tier within a season.
// CurrentXP is the XP accumulated inside the current tier, not cumulative.
// Created lazily on first XP award or battle-pass purchase.
type SeasonProgression struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	CompetitorID  string `gorm:"uniqueIndex:idx_progression_competitor_season;type:uuid;not null" json:"competitor_id"`
	SeasonID      string `gorm:"uniqueIndex:idx_progression_competitor_season;type:uuid;not null" json:"season_id"`
	CurrentTier   int    `gorm:"not null;default:0" json:"current_tier"`
	CurrentXP     int64  `gorm:"not null;default:0" json:"current_xp"`
	HasBattlePass bool   `gorm:"not null;default:false" json:"has_battle_pass"`

	Timestamps
}

// SeasonXpHistory is the append-only award log, one row per AwardXP call
type SeasonXpHistory struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	ProgressionID string    `gorm:"type:uuid;not null;index" json:"progression_id"`
	Amount        int64     `gorm:"not null" json:"amount"`
	Source        string    `gorm:"size:255" json:"source"`
	TierBefore    int       `gorm:"not null" json:"tier_before"`
	TierAfter     int       `gorm:"not null" json:"tier_after"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ClaimedReward marks a tier reward as already granted for a progression.
// The unique (progression_id, tier_number) pair is the idempotency key that
// makes claim retries safe.
type ClaimedReward struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	ProgressionID string    `gorm:"uniqueIndex:idx_claim_progression_tier;type:uuid;not null" json:"progression_id"`
	TierNumber    int       `gorm:"uniqueIndex:idx_claim_progression_tier;not null" json:"tier_number"`
	ClaimedAt     time.Time `gorm:"autoCreateTime" json:"claimed_at"`
}
