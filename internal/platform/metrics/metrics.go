package metrics

import (
	"errors"
	"sync/atomic"
	"time"

	"leavemgmt/internal/domain/calendar"
)

// Collector keeps process-lifetime counters exposed on /metrics.
type Collector struct {
	totalRequests   atomic.Uint64
	errorRequests   atomic.Uint64
	rateLimited     atomic.Uint64
	totalDurationMs atomic.Uint64

	holidayChecks       atomic.Uint64
	holidayHits         atomic.Uint64
	holidayStorageFails atomic.Uint64
	invalidRanges       atomic.Uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	c.totalRequests.Add(1)
	if status >= 500 {
		c.errorRequests.Add(1)
	}
	if status == 429 {
		c.rateLimited.Add(1)
	}
	c.totalDurationMs.Add(uint64(duration.Milliseconds()))
}

// RecordHolidayCheck counts one resolver call and its outcome.
func (c *Collector) RecordHolidayCheck(holiday bool, err error) {
	if c == nil {
		return
	}
	c.holidayChecks.Add(1)
	switch {
	case errors.Is(err, calendar.ErrStorageUnavailable):
		c.holidayStorageFails.Add(1)
	case errors.Is(err, calendar.ErrInvalidRange):
		c.invalidRanges.Add(1)
	case err == nil && holiday:
		c.holidayHits.Add(1)
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := c.totalRequests.Load()
	totalMs := c.totalDurationMs.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":              total,
		"errorsTotal":                c.errorRequests.Load(),
		"rateLimitedTotal":           c.rateLimited.Load(),
		"avgDurationMs":              avg,
		"totalDurationMs":            totalMs,
		"holidayChecksTotal":         c.holidayChecks.Load(),
		"holidayHitsTotal":           c.holidayHits.Load(),
		"holidayStorageFailureTotal": c.holidayStorageFails.Load(),
		"invalidRangeTotal":          c.invalidRanges.Load(),
	}
}
