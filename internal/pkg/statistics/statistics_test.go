package statistics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/app/repository"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/cache"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/testdb"
)

func TestComputeAndFallbackWithoutCache(t *testing.T) {
	cache.SetClient(nil)
	ResetCacheUpdateTimer()

	db := testdb.New(t)
	repos := repository.NewRepositories(db)
	free := testdb.Business(t, db, nil)
	testdb.Business(t, db, func(b *models.Business) { b.Plan = models.PlanPro })

	now := time.Now()
	require.NoError(t, db.Create(&models.PageView{BusinessID: free.ID, CreatedAt: now.Add(-48 * time.Hour)}).Error)
	require.NoError(t, db.Create(&models.PageView{BusinessID: free.ID, CreatedAt: now}).Error)

	data := GetStatisticsData(repos)
	assert.Equal(t, int64(2), data.TotalBusinesses)
	assert.Equal(t, int64(1), data.ProBusinesses)
	assert.Equal(t, int64(2), data.TotalViews)
	assert.Equal(t, int64(1), data.TodayViews)
}
