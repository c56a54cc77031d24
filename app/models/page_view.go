package models

import "time"

// PageView is appended on every storefront render and never updated.
type PageView struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BusinessID string    `gorm:"type:varchar(36);not null;index" json:"business_id"`
	Referrer   string    `gorm:"type:varchar(500)" json:"referrer"`
	IPv4       string    `gorm:"column:ip_v4;type:varchar(15)" json:"-"`
	IPv6       string    `gorm:"column:ip_v6;type:varchar(45)" json:"-"`
	UserAgent  string    `gorm:"type:varchar(500)" json:"user_agent"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
