package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/taixiu-ai/internal/models"
)

func TestReportCacheGetSet(t *testing.T) {
	rc := NewReportCache(time.Minute, 10)

	_, ok := rc.Get(101)
	assert.False(t, ok)

	report := &models.PredictionReport{Session: 100, NextSession: 101, Prediction: "Tài"}
	rc.Set(report)

	got, ok := rc.Get(101)
	require.True(t, ok)
	assert.Same(t, report, got)

	hits, misses, ratio := rc.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.InDelta(t, 0.5, ratio, 1e-9)
}

func TestReportCacheReplacesSameSession(t *testing.T) {
	rc := NewReportCache(time.Minute, 10)
	rc.Set(&models.PredictionReport{NextSession: 5, Prediction: "Tài"})
	rc.Set(&models.PredictionReport{NextSession: 5, Prediction: "Xỉu"})

	got, ok := rc.Get(5)
	require.True(t, ok)
	assert.Equal(t, "Xỉu", got.Prediction)
	assert.Equal(t, 1, rc.ItemCount())
}

func TestReportCacheBounded(t *testing.T) {
	rc := NewReportCache(time.Minute, 3)
	for i := int64(1); i <= 5; i++ {
		rc.Set(&models.PredictionReport{NextSession: i})
		time.Sleep(2 * time.Millisecond)
	}

	assert.Equal(t, 3, rc.ItemCount())
	_, ok := rc.Get(5)
	assert.True(t, ok)
	_, ok = rc.Get(1)
	assert.False(t, ok)
}

func TestReportCacheExpiry(t *testing.T) {
	rc := NewReportCache(20*time.Millisecond, 10)
	rc.Set(&models.PredictionReport{NextSession: 1})

	time.Sleep(40 * time.Millisecond)
	_, ok := rc.Get(1)
	assert.False(t, ok)
}

func TestReportCacheClear(t *testing.T) {
	rc := NewReportCache(time.Minute, 10)
	rc.Set(&models.PredictionReport{NextSession: 1})
	rc.Get(1)
	rc.Set(nil)

	rc.Clear()
	assert.Zero(t, rc.ItemCount())
	hits, misses, _ := rc.Stats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)
}
