package models

import "time"

// PaystackTransaction is the append-only webhook ledger for the direct
// charge gateway. Reference is unique and makes redeliveries no-ops.
type PaystackTransaction struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Reference  string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"reference"`
	BusinessID *string   `gorm:"type:varchar(36);index" json:"business_id,omitempty"`
	Event      string    `gorm:"type:varchar(100);not null" json:"event"`
	PlanCode   string    `gorm:"type:varchar(100)" json:"plan_code"`
	Amount     int64     `gorm:"default:0" json:"amount"`
	Status     string    `gorm:"type:varchar(30)" json:"status"`
	RawPayload string    `gorm:"type:text" json:"raw_payload"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
