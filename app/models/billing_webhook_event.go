package models

import "time"

const (
	BillingProviderDodo     = "dodo"
	BillingProviderPaystack = "paystack"

	BillingCycleMonthly = "monthly"
	BillingCycleYearly  = "yearly"
)

// BillingWebhookEvent is the subscription gateway ledger, deduplicated by
// (provider, provider_event_id).
type BillingWebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"type:varchar(20);not null;index:ux_billing_webhook_events_provider_event,unique,priority:1" json:"provider"`
	ProviderEventID string     `gorm:"type:varchar(191);not null;index:ux_billing_webhook_events_provider_event,unique,priority:2" json:"provider_event_id"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	BusinessID      *string    `gorm:"type:varchar(36);index" json:"business_id,omitempty"`
	PayloadJSON     string     `gorm:"type:text;not null" json:"payload_json"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
