package repository

import (
	"github.com/ManuelReschke/Marktplatz/app/models"
	"gorm.io/gorm"
)

// reviewRepository implements the ReviewRepository interface
type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new review repository instance
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(review *models.Review) error {
	return r.db.Create(review).Error
}

// ListByBusiness returns the newest reviews of a business
func (r *reviewRepository) ListByBusiness(businessID string, verifiedOnly bool, limit int) ([]models.Review, error) {
	var reviews []models.Review
	q := r.db.Where("business_id = ?", businessID)
	if verifiedOnly {
		q = q.Where("is_verified = ?", true)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Order("created_at DESC").Order("id DESC").Find(&reviews).Error
	return reviews, err
}

// ListForRanking loads the columns the ranking engine aggregates
func (r *reviewRepository) ListForRanking() ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.Select("business_id, rating, created_at").Find(&reviews).Error
	return reviews, err
}

func (r *reviewRepository) StatsByBusiness(businessID string) (*ReviewStats, error) {
	var row struct {
		Count   int64
		Average float64
	}
	err := r.db.Model(&models.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("business_id = ?", businessID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &ReviewStats{Count: row.Count, AverageRating: row.Average}, nil
}
