package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Review is a visitor rating of a business. IsVerified marks reviews that
// are shown publicly.
type Review struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BusinessID string    `gorm:"type:varchar(36);not null;index" json:"business_id"`
	AuthorName string    `gorm:"type:varchar(100)" json:"author_name" validate:"required,min=2,max=100"`
	Rating     int       `gorm:"not null" json:"rating" validate:"required,min=1,max=5"`
	Comment    string    `gorm:"type:text" json:"comment" validate:"max=2000"`
	IsVerified bool      `gorm:"default:false" json:"is_verified"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (r *Review) Validate() error {
	v := validator.New()

	return v.Struct(r)
}
