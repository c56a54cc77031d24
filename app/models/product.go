package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Product belongs to exactly one business. Price is a whole currency amount.
type Product struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	BusinessID   string    `gorm:"type:varchar(36);not null;index" json:"business_id"`
	Name         string    `gorm:"type:varchar(120);not null" json:"name" validate:"required,min=2,max=120"`
	Description  string    `gorm:"type:text" json:"description" validate:"max=2000"`
	Price        int64     `gorm:"not null;default:0" json:"price" validate:"gte=0"`
	ImageURL     string    `gorm:"type:varchar(255)" json:"image_url" validate:"max=255"`
	ImageWebPURL string    `gorm:"column:image_webp_url;type:varchar(255)" json:"image_webp_url" validate:"max=255"`
	IsActive     bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Product) Validate() error {
	v := validator.New()

	return v.Struct(p)
}
