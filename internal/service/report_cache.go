package service

import (
	"strconv"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/taixiu-ai/internal/metrics"
	"github.com/yourusername/taixiu-ai/internal/models"
)

// ReportCache keeps recently issued reports keyed by the session they forecast.
type ReportCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.Mutex
	hitCount  uint64
	missCount uint64
}

// NewReportCache creates a new report cache
func NewReportCache(ttl time.Duration, maxSize int) *ReportCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if maxSize <= 0 {
		maxSize = 500
	}
	return &ReportCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

func cacheKey(nextSession int64) string {
	return strconv.FormatInt(nextSession, 10)
}

// Get retrieves the report issued for nextSession
func (rc *ReportCache) Get(nextSession int64) (*models.PredictionReport, bool) {
	result, found := rc.cache.Get(cacheKey(nextSession))
	report, ok := result.(*models.PredictionReport)

	rc.mu.Lock()
	if found && ok {
		rc.hitCount++
	} else {
		rc.missCount++
	}
	ratio := rc.ratioLocked()
	rc.mu.Unlock()

	metrics.UpdateReportCacheHitRatio(ratio)
	if !found || !ok {
		return nil, false
	}
	return report, true
}

// Set stores a report. The latest report for a session replaces earlier ones.
func (rc *ReportCache) Set(report *models.PredictionReport) {
	if report == nil {
		return
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.cache.ItemCount() >= rc.maxSize {
		// Remove expired items first
		rc.cache.DeleteExpired()
	}
	if rc.cache.ItemCount() >= rc.maxSize {
		rc.evictOldestLocked()
	}

	rc.cache.Set(cacheKey(report.NextSession), report, rc.ttl)
}

// evictOldestLocked drops the entry closest to expiry.
func (rc *ReportCache) evictOldestLocked() {
	var (
		oldestKey string
		oldestExp int64
	)
	for k, item := range rc.cache.Items() {
		if oldestKey == "" || item.Expiration < oldestExp {
			oldestKey = k
			oldestExp = item.Expiration
		}
	}
	if oldestKey != "" {
		rc.cache.Delete(oldestKey)
	}
}

// Clear flushes the entire cache
func (rc *ReportCache) Clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.cache.Flush()
	rc.hitCount = 0
	rc.missCount = 0
}

// Stats returns cache statistics
func (rc *ReportCache) Stats() (hits, misses uint64, ratio float64) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.hitCount, rc.missCount, rc.ratioLocked()
}

func (rc *ReportCache) ratioLocked() float64 {
	total := rc.hitCount + rc.missCount
	if total == 0 {
		return 0
	}
	return float64(rc.hitCount) / float64(total)
}

// ItemCount returns the number of items in cache
func (rc *ReportCache) ItemCount() int {
	return rc.cache.ItemCount()
}
