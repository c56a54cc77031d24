package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	FeedbackTypeBug     = "bug"
	FeedbackTypeFeature = "feature"
	FeedbackTypeGeneral = "general"
)

type Feedback struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BusinessID string    `gorm:"type:varchar(36);index" json:"business_id"`
	Type       string    `gorm:"type:varchar(20);not null" json:"type" validate:"required,oneof=bug feature general"`
	Message    string    `gorm:"type:text;not null" json:"message" validate:"required,min=3,max=5000"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (f *Feedback) Validate() error {
	v := validator.New()

	return v.Struct(f)
}
