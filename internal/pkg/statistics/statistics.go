// Package statistics serves the directory counters shown on the home page.
package statistics

import (
	"log"
	"sync"
	"time"

	"github.com/ManuelReschke/Marktplatz/app/repository"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/cache"
)

const (
	CacheKeyDirectory = "statistics:directory"
	CacheExpiration   = 30 * time.Minute
)

// StatisticsData holds the counters for the home page
type StatisticsData struct {
	TotalBusinesses int64 `json:"total_businesses"`
	ProBusinesses   int64 `json:"pro_businesses"`
	TodayViews      int64 `json:"today_views"`
	TotalViews      int64 `json:"total_views"`
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ResetCacheUpdateTimer forces the next call to recompute
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()
	lastCacheUpdate = time.Time{}
}

// Compute reads fresh counters from the database
func Compute(repos *repository.Repositories, now time.Time) (StatisticsData, error) {
	var out StatisticsData
	var err error

	if out.TotalBusinesses, err = repos.Business.Count(); err != nil {
		return out, err
	}
	if out.ProBusinesses, err = repos.Business.CountPro(); err != nil {
		return out, err
	}
	if out.TotalViews, err = repos.PageView.Count(); err != nil {
		return out, err
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if out.TodayViews, err = repos.PageView.CountByBusinessSince("", dayStart); err != nil {
		return out, err
	}
	return out, nil
}

// GetStatisticsData returns cached counters, recomputing at most every few
// minutes. Without a cache the database is queried on every call.
func GetStatisticsData(repos *repository.Repositories) StatisticsData {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	var cached StatisticsData
	if time.Since(lastCacheUpdate) <= cacheUpdateInterval {
		if err := cache.GetJSON(CacheKeyDirectory, &cached); err == nil {
			return cached
		}
	}

	data, err := Compute(repos, time.Now())
	if err != nil {
		log.Printf("Error computing directory statistics: %v", err)
		if err := cache.GetJSON(CacheKeyDirectory, &cached); err == nil {
			return cached
		}
		return StatisticsData{}
	}

	if err := cache.SetJSON(CacheKeyDirectory, data, CacheExpiration); err == nil {
		lastCacheUpdate = time.Now()
	}
	return data
}
