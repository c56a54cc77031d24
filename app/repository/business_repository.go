package repository

import (
	"strings"
	"time"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"gorm.io/gorm"
)

// businessRepository implements the BusinessRepository interface
type businessRepository struct {
	db *gorm.DB
}

// NewBusinessRepository creates a new business repository instance
func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &businessRepository{db: db}
}

// Create creates a new business account
func (r *businessRepository) Create(business *models.Business) error {
	return r.db.Create(business).Error
}

// GetByID retrieves a business by its ID
func (r *businessRepository) GetByID(id string) (*models.Business, error) {
	var business models.Business
	err := r.db.Where("id = ?", id).First(&business).Error
	if err != nil {
		return nil, err
	}
	return &business, nil
}

// GetBySlug retrieves a business by its storefront slug
func (r *businessRepository) GetBySlug(slug string) (*models.Business, error) {
	var business models.Business
	err := r.db.Where("business_slug = ?", slug).First(&business).Error
	if err != nil {
		return nil, err
	}
	return &business, nil
}

// GetByEmail retrieves a business by the owner's email address
func (r *businessRepository) GetByEmail(email string) (*models.Business, error) {
	var business models.Business
	err := r.db.Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&business).Error
	if err != nil {
		return nil, err
	}
	return &business, nil
}

// Update saves all fields of the business
func (r *businessRepository) Update(business *models.Business) error {
	return r.db.Save(business).Error
}

// SlugTaken reports whether another business already uses the slug
func (r *businessRepository) SlugTaken(slug, exceptID string) (bool, error) {
	var count int64
	q := r.db.Model(&models.Business{}).Where("business_slug = ?", slug)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListForRanking returns every published business with the columns the
// leaderboards and cards need
func (r *businessRepository) ListForRanking() ([]models.Business, error) {
	var businesses []models.Business
	err := r.db.
		Select("id, business_name, business_slug, category, location, logo_url, upvotes, plan, is_verified").
		Where("business_slug IS NOT NULL AND business_slug <> ''").
		Find(&businesses).Error
	return businesses, err
}

// Search finds published businesses by name, description, category or location
func (r *businessRepository) Search(query, category string, offset, limit int) ([]models.Business, int64, error) {
	q := r.db.Model(&models.Business{}).Where("business_slug IS NOT NULL AND business_slug <> ''")

	term := strings.ToLower(strings.TrimSpace(query))
	if term != "" {
		like := "%" + term + "%"
		q = q.Where(
			"LOWER(business_name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ? OR LOWER(location) LIKE ?",
			like, like, like, like,
		)
	}
	if c := strings.TrimSpace(category); c != "" {
		q = q.Where("category = ?", c)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var businesses []models.Business
	err := q.Order("is_verified DESC").Order("upvotes DESC").Order("id ASC").
		Offset(offset).Limit(limit).Find(&businesses).Error
	return businesses, total, err
}

// Categories lists the distinct categories in use
func (r *businessRepository) Categories() ([]string, error) {
	var categories []string
	err := r.db.Model(&models.Business{}).
		Where("category <> '' AND business_slug IS NOT NULL").
		Distinct().Order("category").Pluck("category", &categories).Error
	return categories, err
}

// Count returns the total number of business accounts
func (r *businessRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Business{}).Count(&count).Error
	return count, err
}

// CountPro returns the number of businesses on the paid tier
func (r *businessRepository) CountPro() (int64, error) {
	var count int64
	err := r.db.Model(&models.Business{}).Where("plan = ?", models.PlanPro).Count(&count).Error
	return count, err
}

// IncrementUpvotes adds one upvote server-side and returns the new total
func (r *businessRepository) IncrementUpvotes(id string) (int64, error) {
	res := r.db.Model(&models.Business{}).Where("id = ?", id).
		UpdateColumn("upvotes", gorm.Expr("upvotes + ?", 1))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var business models.Business
	if err := r.db.Select("id, upvotes").Where("id = ?", id).First(&business).Error; err != nil {
		return 0, err
	}
	return business.Upvotes, nil
}

// TryConsumeAIQuota charges one chat message if the business is below its
// limit. The check and the increment are a single statement.
func (r *businessRepository) TryConsumeAIQuota(id string) (bool, error) {
	res := r.db.Model(&models.Business{}).
		Where("id = ? AND ai_usage_count < ai_usage_limit", id).
		UpdateColumn("ai_usage_count", gorm.Expr("ai_usage_count + ?", 1))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ConsumeAIQuotaUnsafe is the read-then-write variant. Concurrent callers can
// both pass the limit check.
func (r *businessRepository) ConsumeAIQuotaUnsafe(id string) (bool, error) {
	var business models.Business
	if err := r.db.Select("id, ai_usage_count, ai_usage_limit").Where("id = ?", id).First(&business).Error; err != nil {
		return false, err
	}
	if business.AIUsageCount >= business.AIUsageLimit {
		return false, nil
	}
	err := r.db.Model(&models.Business{}).Where("id = ?", id).
		UpdateColumn("ai_usage_count", business.AIUsageCount+1).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

// ResetAIUsage zeroes every monthly chat counter
func (r *businessRepository) ResetAIUsage() (int64, error) {
	res := r.db.Model(&models.Business{}).Where("ai_usage_count > 0").UpdateColumn("ai_usage_count", 0)
	return res.RowsAffected, res.Error
}

// ListLapsedPro returns pro businesses whose subscription ended before the cutoff
func (r *businessRepository) ListLapsedPro(before time.Time) ([]models.Business, error) {
	var businesses []models.Business
	err := r.db.
		Where("plan = ? AND subscription_ends_at IS NOT NULL AND subscription_ends_at < ?", models.PlanPro, before).
		Find(&businesses).Error
	return businesses, err
}
