package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/app/repository"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/testdb"
)

func TestProductRepositoryDeactivateAllButNewest(t *testing.T) {
	db := testdb.New(t)
	repo := repository.NewProductRepository(db)
	b := testdb.Business(t, db, func(b *models.Business) { b.Plan = models.PlanPro })

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	names := []string{"first", "second", "third", "fourth", "fifth"}
	for i, name := range names {
		p := &models.Product{BusinessID: b.ID, Name: name, Price: int64(1000 * (i + 1)), IsActive: true}
		require.NoError(t, repo.Create(p))
		require.NoError(t, db.Model(p).UpdateColumn("created_at", base.Add(time.Duration(i)*time.Hour)).Error)
	}

	n, err := repo.DeactivateAllButNewest(b.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	active, err := repo.ListByBusiness(b.ID, true)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, "fifth", active[0].Name)
	assert.Equal(t, "third", active[2].Name)

	all, err := repo.ListByBusiness(b.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 5, "hidden products are kept")

	n, err = repo.DeactivateAllButNewest(b.ID, 3)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProductRepositoryCountActive(t *testing.T) {
	db := testdb.New(t)
	repo := repository.NewProductRepository(db)
	b := testdb.Business(t, db, nil)

	require.NoError(t, repo.Create(&models.Product{BusinessID: b.ID, Name: "Tote", Price: 15}))
	p := &models.Product{BusinessID: b.ID, Name: "Scarf", Price: 9}
	require.NoError(t, repo.Create(p))
	require.NoError(t, db.Model(p).UpdateColumn("is_active", false).Error)

	count, err := repo.CountActiveByBusiness(b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
