package models

import "time"

// ProviderAccount links an external identity to a business account.
type ProviderAccount struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	BusinessID     string     `gorm:"type:varchar(36);index" json:"business_id"`
	Provider       string     `gorm:"index:provider_uid,unique;type:varchar(50)" json:"provider"`
	ProviderUserID string     `gorm:"index:provider_uid,unique;type:varchar(191)" json:"provider_user_id"`
	ExpiresAt      *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
