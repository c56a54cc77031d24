package repository

import (
	"time"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"gorm.io/gorm"
)

// pageViewRepository implements the PageViewRepository interface
type pageViewRepository struct {
	db *gorm.DB
}

// NewPageViewRepository creates a new page view repository instance
func NewPageViewRepository(db *gorm.DB) PageViewRepository {
	return &pageViewRepository{db: db}
}

func (r *pageViewRepository) Create(view *models.PageView) error {
	return r.db.Create(view).Error
}

// ListForRanking loads the columns the ranking engine aggregates
func (r *pageViewRepository) ListForRanking() ([]models.PageView, error) {
	var views []models.PageView
	err := r.db.Select("business_id, created_at").Find(&views).Error
	return views, err
}

func (r *pageViewRepository) CountByBusinessSince(businessID string, since time.Time) (int64, error) {
	var count int64
	q := r.db.Model(&models.PageView{})
	if businessID != "" {
		q = q.Where("business_id = ?", businessID)
	}
	if !since.IsZero() {
		q = q.Where("created_at > ?", since)
	}
	err := q.Count(&count).Error
	return count, err
}

func (r *pageViewRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.PageView{}).Count(&count).Error
	return count, err
}
