// Package testdb opens throwaway in-memory databases for tests.
package testdb

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/database"
)

var seq atomic.Int64

// New returns a migrated SQLite database private to the calling test.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// One connection keeps the in-memory database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Business inserts a published business with sensible defaults.
func Business(t testing.TB, db *gorm.DB, mutate func(b *models.Business)) *models.Business {
	t.Helper()

	n := seq.Add(1)
	slug := fmt.Sprintf("business-%d", n)
	b := &models.Business{
		Email:        fmt.Sprintf("owner%d@example.com", n),
		BusinessName: fmt.Sprintf("Business %d", n),
		BusinessSlug: &slug,
		Plan:         models.PlanFree,
		AIUsageLimit: models.DefaultAIUsageLimit,
	}
	if mutate != nil {
		mutate(b)
	}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("create business: %v", err)
	}
	return b
}
