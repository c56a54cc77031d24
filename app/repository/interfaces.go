package repository

import (
	"time"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"gorm.io/gorm"
)

// BusinessRepository defines the interface for business account operations
type BusinessRepository interface {
	Create(business *models.Business) error
	GetByID(id string) (*models.Business, error)
	GetBySlug(slug string) (*models.Business, error)
	GetByEmail(email string) (*models.Business, error)
	Update(business *models.Business) error
	SlugTaken(slug, exceptID string) (bool, error)
	ListForRanking() ([]models.Business, error)
	Search(query, category string, offset, limit int) ([]models.Business, int64, error)
	Categories() ([]string, error)
	Count() (int64, error)
	CountPro() (int64, error)
	IncrementUpvotes(id string) (int64, error)
	TryConsumeAIQuota(id string) (bool, error)
	ConsumeAIQuotaUnsafe(id string) (bool, error)
	ResetAIUsage() (int64, error)
	ListLapsedPro(before time.Time) ([]models.Business, error)
}

// ProductRepository defines the interface for product operations
type ProductRepository interface {
	Create(product *models.Product) error
	GetByID(id uint) (*models.Product, error)
	Update(product *models.Product) error
	Delete(id uint) error
	ListByBusiness(businessID string, activeOnly bool) ([]models.Product, error)
	CountActiveByBusiness(businessID string) (int64, error)
	DeactivateAllButNewest(businessID string, keep int) (int64, error)
}

// ReviewRepository defines the interface for review operations
type ReviewRepository interface {
	Create(review *models.Review) error
	ListByBusiness(businessID string, verifiedOnly bool, limit int) ([]models.Review, error)
	ListForRanking() ([]models.Review, error)
	StatsByBusiness(businessID string) (*ReviewStats, error)
}

// PageViewRepository defines the interface for page view operations
type PageViewRepository interface {
	Create(view *models.PageView) error
	ListForRanking() ([]models.PageView, error)
	CountByBusinessSince(businessID string, since time.Time) (int64, error)
	Count() (int64, error)
}

// FeedbackRepository defines the interface for feedback operations
type FeedbackRepository interface {
	Create(feedback *models.Feedback) error
}

// ReviewStats is the all-time review aggregate of one business
type ReviewStats struct {
	Count         int64
	AverageRating float64
}

// Repositories holds all repository instances
type Repositories struct {
	Business BusinessRepository
	Product  ProductRepository
	Review   ReviewRepository
	PageView PageViewRepository
	Feedback FeedbackRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Business: NewBusinessRepository(db),
		Product:  NewProductRepository(db),
		Review:   NewReviewRepository(db),
		PageView: NewPageViewRepository(db),
		Feedback: NewFeedbackRepository(db),
	}
}
