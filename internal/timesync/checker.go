// Package timesync watches wall-clock health against an NTP pool.
// Archive scheduling and telemetry deduplication run on the wall
// clock, so the daemon surfaces skew in its status output.
package timesync

import (
	"context"
	"sync"
	"time"

	"github.com/beevik/ntp"

	"driftd"
)

const (
	defaultPool      = "pool.ntp.org"
	defaultInterval  = 60 * time.Second
	defaultThreshold = 500 * time.Millisecond
)

// Checker periodically queries an NTP pool and keeps the latest
// clock-health verdict.
type Checker struct {
	pool      string
	interval  time.Duration
	threshold time.Duration

	query func(pool string) (*ntp.Response, error)
	now   func() time.Time

	mu     sync.RWMutex
	status driftd.ClockStatus
}

// NewChecker returns a checker against pool. An empty pool falls back
// to pool.ntp.org.
func NewChecker(pool string) *Checker {
	if pool == "" {
		pool = defaultPool
	}
	return &Checker{
		pool:      pool,
		interval:  defaultInterval,
		threshold: defaultThreshold,
		query:     ntp.Query,
		now:       time.Now,
	}
}

// Run checks once immediately, then on every interval until ctx is
// cancelled.
func (c *Checker) Run(ctx context.Context) {
	c.check()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.check()
		}
	}
}

func (c *Checker) check() {
	resp, err := c.query(c.pool)

	c.mu.Lock()
	defer c.mu.Unlock()

	checkedAt := c.now()
	if err != nil {
		c.status = driftd.ClockStatus{
			Healthy:   false,
			Error:     err.Error(),
			CheckedAt: checkedAt,
		}
		return
	}

	offset := resp.ClockOffset
	if offset < 0 {
		offset = -offset
	}
	c.status = driftd.ClockStatus{
		Healthy:   offset < c.threshold,
		Offset:    resp.ClockOffset,
		CheckedAt: checkedAt,
	}
}

// Status returns the latest verdict. Zero until the first check
// completes.
func (c *Checker) Status() driftd.ClockStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}
