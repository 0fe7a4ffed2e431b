package models

import (
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ShopItem is a purchasable catalog entry. Catalog rows are read-only to the
// economy core; prices are whole coins.
type ShopItem struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Slug     string `gorm:"uniqueIndex;not null" json:"slug"`
	Name     string `gorm:"not null" json:"name"`
	Excerpt  string `gorm:"type:text" json:"excerpt"`
	ImageURL string `gorm:"type:text" json:"image_url"`
	Price    int64  `gorm:"not null" json:"price"`
	IsActive bool   `gorm:"default:true;index" json:"is_active"`

	Timestamps
}

func (i *ShopItem) BeforeCreate(tx *gorm.DB) error {
	if i.Slug == "" {
		i.Slug = slug.Make(i.Name)
	}
	return nil
}
