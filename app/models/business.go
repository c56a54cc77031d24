package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const (
	PlanFree = "free"
	PlanPro  = "pro"

	ROLE_OWNER = "owner"
	ROLE_ADMIN = "admin"

	DefaultAIUsageLimit = 100
)

// Business is a storefront owner account. Storage keeps the historical
// "users" table name, one row per signed-in identity.
type Business struct {
	ID                 string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email              string     `gorm:"type:varchar(200);uniqueIndex" json:"email" validate:"required,email,max=200"`
	Role               string     `gorm:"type:varchar(50);default:'owner'" json:"role" validate:"omitempty,oneof=owner admin"`
	BusinessName       string     `gorm:"type:varchar(150)" json:"business_name" validate:"max=150"`
	BusinessSlug       *string    `gorm:"type:varchar(191);uniqueIndex" json:"business_slug,omitempty"`
	Description        string     `gorm:"type:text" json:"description" validate:"max=5000"`
	Location           string     `gorm:"type:varchar(150)" json:"location" validate:"max=150"`
	Category           string     `gorm:"type:varchar(100);index" json:"category" validate:"max=100"`
	WhatsAppNumber     string     `gorm:"column:whatsapp_number;type:varchar(32)" json:"whatsapp_number" validate:"max=32"`
	InstagramHandle    string     `gorm:"type:varchar(64)" json:"instagram_handle" validate:"max=64"`
	LogoURL            string     `gorm:"type:varchar(255)" json:"logo_url" validate:"max=255"`
	Plan               string     `gorm:"type:varchar(20);default:'free';index" json:"plan" validate:"omitempty,oneof=free pro"`
	IsVerified         bool       `gorm:"default:false" json:"is_verified"`
	Upvotes            int64      `gorm:"default:0;not null" json:"upvotes"`
	SubscriptionID     *string    `gorm:"type:varchar(191)" json:"subscription_id,omitempty"`
	SubscriptionEndsAt *time.Time `gorm:"type:timestamp;default:null" json:"subscription_ends_at,omitempty"`
	AIEnabled          bool       `gorm:"column:ai_enabled;default:false" json:"ai_enabled"`
	AIUsageCount       int        `gorm:"column:ai_usage_count;default:0;not null" json:"ai_usage_count"`
	AIUsageLimit       int        `gorm:"column:ai_usage_limit;default:100;not null" json:"ai_usage_limit"`
	AIInstructions     string     `gorm:"column:ai_instructions;type:text" json:"ai_instructions" validate:"max=2000"`
	AIWelcomeMsg       string     `gorm:"column:ai_welcome_msg;type:varchar(500)" json:"ai_welcome_msg" validate:"max=500"`
	LastLoginAt        *time.Time `gorm:"type:timestamp;default:null" json:"last_login_at,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Business) TableName() string {
	return "users"
}

func (b *Business) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Plan == "" {
		b.Plan = PlanFree
	}
	if b.Role == "" {
		b.Role = ROLE_OWNER
	}
	if b.AIUsageLimit <= 0 {
		b.AIUsageLimit = DefaultAIUsageLimit
	}
	return nil
}

func (b *Business) Validate() error {
	v := validator.New()

	return v.Struct(b)
}

// IsPro reports whether the business is on the paid tier.
func (b *Business) IsPro() bool {
	return strings.EqualFold(b.Plan, PlanPro)
}

// HasProfile reports whether the owner finished onboarding.
func (b *Business) HasProfile() bool {
	return b.BusinessSlug != nil && *b.BusinessSlug != ""
}

// Slug returns the storefront slug or an empty string.
func (b *Business) Slug() string {
	if b.BusinessSlug == nil {
		return ""
	}
	return *b.BusinessSlug
}

// DisplayName falls back to the email local part before onboarding.
func (b *Business) DisplayName() string {
	if name := strings.TrimSpace(b.BusinessName); name != "" {
		return name
	}
	if at := strings.Index(b.Email, "@"); at > 0 {
		return b.Email[:at]
	}
	return "Business"
}

// AIQuotaRemaining never goes below zero.
func (b *Business) AIQuotaRemaining() int {
	if b.AIUsageCount >= b.AIUsageLimit {
		return 0
	}
	return b.AIUsageLimit - b.AIUsageCount
}

// MakeSlug converts a business name into its URL-safe base slug.
func MakeSlug(name string) string {
	s := slug.Make(strings.TrimSpace(name))
	if len(s) > 80 {
		s = strings.Trim(s[:80], "-")
	}
	if s == "" {
		s = "business"
	}
	return s
}
