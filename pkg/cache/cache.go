// Package cache memoizes trip reports so repeated estimates for the same
// distance and mode skip recomputation.
package cache

import (
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/NERVsystems/co2mcp/pkg/emission"
	"github.com/NERVsystems/co2mcp/pkg/monitoring"
)

const (
	// DefaultSize is the default number of trip reports kept
	DefaultSize = 512

	// CacheType labels this cache in metrics
	CacheType = "trip_report"
)

// Key identifies a trip report.
type Key struct {
	DistanceKm float64
	Mode       emission.Mode
}

// ReportCache is a bounded, thread-safe LRU of trip reports.
type ReportCache struct {
	reports *lru.Cache[Key, emission.TripReport]
}

// NewReportCache creates a cache holding at most size reports.
func NewReportCache(size int) (*ReportCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	reports, err := lru.New[Key, emission.TripReport](size)
	if err != nil {
		return nil, fmt.Errorf("creating report cache: %w", err)
	}
	return &ReportCache{reports: reports}, nil
}

// GetOrCompute returns the cached report for key, calling compute on a miss.
// The boolean reports whether the value came from the cache.
func (c *ReportCache) GetOrCompute(key Key, compute func() emission.TripReport) (emission.TripReport, bool) {
	if r, ok := c.reports.Get(key); ok {
		monitoring.RecordCacheHit(CacheType)
		return cloneReport(r), true
	}
	monitoring.RecordCacheMiss(CacheType)

	r := compute()
	c.reports.Add(key, cloneReport(r))
	monitoring.UpdateCacheSize(CacheType, c.reports.Len())
	return r, false
}

// Len returns the number of cached reports.
func (c *ReportCache) Len() int {
	return c.reports.Len()
}

// Purge removes every cached report.
func (c *ReportCache) Purge() {
	c.reports.Purge()
	monitoring.UpdateCacheSize(CacheType, 0)
}

// cloneReport copies the slice and pointer fields so cached values are never shared.
func cloneReport(r emission.TripReport) emission.TripReport {
	r.Comparison = slices.Clone(r.Comparison)
	if r.Savings != nil {
		s := *r.Savings
		r.Savings = &s
	}
	return r
}
