package repository

import (
	"github.com/ManuelReschke/Marktplatz/app/models"
	"gorm.io/gorm"
)

// productRepository implements the ProductRepository interface
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository instance
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}

func (r *productRepository) Delete(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}

// ListByBusiness returns the products of a business, newest first
func (r *productRepository) ListByBusiness(businessID string, activeOnly bool) ([]models.Product, error) {
	var products []models.Product
	q := r.db.Where("business_id = ?", businessID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order("created_at DESC").Order("id DESC").Find(&products).Error
	return products, err
}

func (r *productRepository) CountActiveByBusiness(businessID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Product{}).
		Where("business_id = ? AND is_active = ?", businessID, true).
		Count(&count).Error
	return count, err
}

// DeactivateAllButNewest hides every active product except the newest keep
// ones. Rows are kept; the owner can switch them back on after upgrading.
func (r *productRepository) DeactivateAllButNewest(businessID string, keep int) (int64, error) {
	var ids []uint
	err := r.db.Model(&models.Product{}).
		Where("business_id = ? AND is_active = ?", businessID, true).
		Order("created_at DESC").Order("id DESC").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) <= keep {
		return 0, nil
	}

	res := r.db.Model(&models.Product{}).
		Where("id IN ?", ids[keep:]).
		UpdateColumn("is_active", false)
	return res.RowsAffected, res.Error
}
