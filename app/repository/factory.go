package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetBusinessRepository returns the business repository instance
func (f *Factory) GetBusinessRepository() BusinessRepository {
	return f.GetRepositories().Business
}

// GetProductRepository returns the product repository instance
func (f *Factory) GetProductRepository() ProductRepository {
	return f.GetRepositories().Product
}

// GetReviewRepository returns the review repository instance
func (f *Factory) GetReviewRepository() ReviewRepository {
	return f.GetRepositories().Review
}

// GetPageViewRepository returns the page view repository instance
func (f *Factory) GetPageViewRepository() PageViewRepository {
	return f.GetRepositories().PageView
}

// GetFeedbackRepository returns the feedback repository instance
func (f *Factory) GetFeedbackRepository() FeedbackRepository {
	return f.GetRepositories().Feedback
}

// Global factory instance
var (
	globalFactory *Factory
	factoryMu     sync.RWMutex
)

// InitializeFactory initializes the global repository factory once
func InitializeFactory(db *gorm.DB) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	if globalFactory == nil {
		globalFactory = NewFactory(db)
	}
}

// ResetGlobalFactory replaces the global factory, e.g. to point tests at a fresh database
func ResetGlobalFactory(db *gorm.DB) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	globalFactory = NewFactory(db)
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
