package models

import (
	"time"

	"gorm.io/gorm"
)

// Competitor is a local snapshot of a user's participation record within one
// game. Owned and managed solely by the economy service; populated via sync
// worker from the Profile Service.
type Competitor struct {
	ID             string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string  `gorm:"uniqueIndex:idx_competitor_user_game;not null" json:"external_user_id"` // profile service UUID
	GameID         string  `gorm:"uniqueIndex:idx_competitor_user_game;type:uuid;not null;index" json:"game_id"`
	DisplayName    string  `gorm:"index;not null" json:"display_name"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	IsBanned       bool    `gorm:"default:false" json:"is_banned"` // local economy ban

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
