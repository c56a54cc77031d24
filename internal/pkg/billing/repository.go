package billing

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/app/repository"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	FindBusinessByID(id string) (*models.Business, error)
	FindBusinessByEmail(email string) (*models.Business, error)
	EventRecorded(provider, reference string) (bool, error)
	// RecordEvent appends to the provider's ledger. It returns false when the
	// reference is already present.
	RecordEvent(ev *Event, businessID, status string, processedAt time.Time) (bool, error)
	ApplyPro(businessID, subscriptionRef string, endsAt time.Time) error
	ApplyFree(businessID string) error
	DeactivateExcessProducts(businessID string, keep int) (int64, error)
	ListLapsedPro(before time.Time) ([]models.Business, error)
}

type gormRepository struct {
	db         *gorm.DB
	businesses repository.BusinessRepository
	products   repository.ProductRepository
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{
		db:         db,
		businesses: repository.NewBusinessRepository(db),
		products:   repository.NewProductRepository(db),
	}
}

func (r *gormRepository) FindBusinessByID(id string) (*models.Business, error) {
	return r.businesses.GetByID(id)
}

func (r *gormRepository) FindBusinessByEmail(email string) (*models.Business, error) {
	return r.businesses.GetByEmail(email)
}

func (r *gormRepository) EventRecorded(provider, reference string) (bool, error) {
	var count int64
	var err error
	switch provider {
	case models.BillingProviderPaystack:
		err = r.db.Model(&models.PaystackTransaction{}).Where("reference = ?", reference).Count(&count).Error
	default:
		err = r.db.Model(&models.BillingWebhookEvent{}).
			Where("provider = ? AND provider_event_id = ?", provider, reference).
			Count(&count).Error
	}
	return count > 0, err
}

func (r *gormRepository) RecordEvent(ev *Event, businessID, status string, processedAt time.Time) (bool, error) {
	var bizID *string
	if id := strings.TrimSpace(businessID); id != "" {
		bizID = &id
	}

	var tx *gorm.DB
	switch ev.Provider {
	case models.BillingProviderPaystack:
		tx = r.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference"}},
			DoNothing: true,
		}).Create(&models.PaystackTransaction{
			Reference:  ev.Reference,
			BusinessID: bizID,
			Event:      ev.Type,
			PlanCode:   ev.PlanCode,
			Amount:     ev.Amount,
			Status:     status,
			RawPayload: string(ev.Raw),
		})
	default:
		processingErr := ""
		if status != string(OutcomeApplied) {
			processingErr = status
		}
		tx = r.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "provider"},
				{Name: "provider_event_id"},
			},
			DoNothing: true,
		}).Create(&models.BillingWebhookEvent{
			Provider:        ev.Provider,
			ProviderEventID: ev.Reference,
			EventType:       ev.Type,
			BusinessID:      bizID,
			PayloadJSON:     string(ev.Raw),
			ProcessedAt:     &processedAt,
			ProcessingError: processingErr,
		})
	}
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// ApplyPro writes plan and verified badge together.
func (r *gormRepository) ApplyPro(businessID, subscriptionRef string, endsAt time.Time) error {
	updates := map[string]interface{}{
		"plan":                 models.PlanPro,
		"is_verified":          true,
		"subscription_ends_at": endsAt,
	}
	if ref := strings.TrimSpace(subscriptionRef); ref != "" {
		updates["subscription_id"] = ref
	}
	return r.db.Model(&models.Business{}).Where("id = ?", businessID).Updates(updates).Error
}

func (r *gormRepository) ApplyFree(businessID string) error {
	return r.db.Model(&models.Business{}).Where("id = ?", businessID).Updates(map[string]interface{}{
		"plan":                 models.PlanFree,
		"is_verified":          false,
		"subscription_id":      nil,
		"subscription_ends_at": nil,
	}).Error
}

func (r *gormRepository) DeactivateExcessProducts(businessID string, keep int) (int64, error) {
	return r.products.DeactivateAllButNewest(businessID, keep)
}

func (r *gormRepository) ListLapsedPro(before time.Time) ([]models.Business, error) {
	return r.businesses.ListLapsedPro(before)
}
