package models

import (
	"time"
)

// PredicateField is the closed set of stats a milestone may test. Stored
// conditions are typed variants rather than an open-ended expression
// evaluator, so nothing user-supplied is ever executed against row data.
type PredicateField string

const (
	PredicateFieldTier            PredicateField = "tier"
	PredicateFieldLifetimeXP      PredicateField = "lifetime_xp"
	PredicateFieldTradesCompleted PredicateField = "trades_completed"
	PredicateFieldItemsUsed       PredicateField = "items_used"
	PredicateFieldBattlePasses    PredicateField = "battle_passes"
)

// PredicateOp is a field comparison or range check
type PredicateOp string

const (
	PredicateOpGTE     PredicateOp = "gte"
	PredicateOpLTE     PredicateOp = "lte"
	PredicateOpEQ      PredicateOp = "eq"
	PredicateOpBetween PredicateOp = "between" // Value <= field <= Upper
)

// MilestonePredicate is one typed condition; all predicates of a milestone
// must hold for it to be granted.
type MilestonePredicate struct {
	Field PredicateField `json:"field"`
	Op    PredicateOp    `json:"op"`
	Value int64          `json:"value"`
	Upper int64          `json:"upper,omitempty"` // only for between
}

// Milestone: static config, granted at most once per competitor
type Milestone struct {
	ID          string               `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Code        string               `gorm:"uniqueIndex;not null" json:"code"` // e.g., "FIRST_TRADE", "TIER_10"
	Name        string               `gorm:"not null" json:"name"`
	Description string               `json:"description"`
	Rarity      string               `gorm:"type:varchar(16);default:'common'" json:"rarity"` // common, rare, epic, legendary
	Predicates  []MilestonePredicate `gorm:"serializer:json;type:jsonb" json:"predicates"`
	CreatedAt   time.Time            `gorm:"autoCreateTime" json:"created_at"`
}

// CompetitorMilestone: granted instance (many-to-many)
type CompetitorMilestone struct {
	ID           string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CompetitorID string    `gorm:"index;not null;type:uuid" json:"competitor_id"`
	MilestoneID  string    `gorm:"index;not null;type:uuid" json:"milestone_id"`
	AwardedAt    time.Time `gorm:"autoCreateTime" json:"awarded_at"`
}

// Default milestone set (seeded at startup if the table is empty)
var DefaultMilestones = []Milestone{
	{
		Code:        "FIRST_TRADE",
		Name:        "Deal Maker",
		Description: "Completed your first trade",
		Rarity:      "common",
		Predicates:  []MilestonePredicate{{Field: PredicateFieldTradesCompleted, Op: PredicateOpGTE, Value: 1}},
	},
	{
		Code:        "TRADER_10",
		Name:        "Market Regular",
		Description: "Completed 10 trades",
		Rarity:      "rare",
		Predicates:  []MilestonePredicate{{Field: PredicateFieldTradesCompleted, Op: PredicateOpGTE, Value: 10}},
	},
	{
		Code:        "TIER_10",
		Name:        "Climber",
		Description: "Reached tier 10 in a season",
		Rarity:      "rare",
		Predicates:  []MilestonePredicate{{Field: PredicateFieldTier, Op: PredicateOpGTE, Value: 10}},
	},
	{
		Code:        "PASS_HOLDER",
		Name:        "Season Ticket",
		Description: "Bought your first battle pass",
		Rarity:      "common",
		Predicates:  []MilestonePredicate{{Field: PredicateFieldBattlePasses, Op: PredicateOpGTE, Value: 1}},
	},
	{
		Code:        "COLLECTOR",
		Name:        "Collector",
		Description: "Used 50 items",
		Rarity:      "epic",
		Predicates:  []MilestonePredicate{{Field: PredicateFieldItemsUsed, Op: PredicateOpGTE, Value: 50}},
	},
}
