package ai

import (
	"sync"
	"time"
)

// DefaultDailyLimit is the free-tier request budget per 24h window.
const DefaultDailyLimit = 1500

// resetWindow is measured from the last reset, not wall-clock midnight.
const resetWindow = 24 * time.Hour

// Governor tracks the daily AI call budget. It is a single process-wide
// instance shared by every request handler; all counter access is
// mutex-guarded so the limit is hard under concurrency.
type Governor struct {
	mu        sync.Mutex
	used      int
	limit     int
	lastReset time.Time
	now       func() time.Time
}

// QuotaStatus is the observability snapshot exposed by Status.
type QuotaStatus struct {
	Used            int     `json:"used"`
	Limit           int     `json:"limit"`
	Remaining       int     `json:"remaining"`
	PercentageUsed  float64 `json:"percentage_used"`
	HoursUntilReset float64 `json:"hours_until_reset"`
	LimitReached    bool    `json:"limit_reached"`
}

// GovernorOption configures a Governor.
type GovernorOption func(*Governor)

// WithClock injects a clock, used by tests to control the reset window.
func WithClock(now func() time.Time) GovernorOption {
	return func(g *Governor) { g.now = now }
}

// NewGovernor creates a governor with the given daily limit. A limit of 0
// falls back to DefaultDailyLimit.
func NewGovernor(limit int, opts ...GovernorOption) *Governor {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	g := &Governor{
		limit: limit,
		now:   time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	g.lastReset = g.now()
	return g
}

// resetIfElapsed zeroes the counter once the reset window has passed.
// Callers must hold g.mu.
func (g *Governor) resetIfElapsed() {
	if g.now().Sub(g.lastReset) >= resetWindow {
		g.used = 0
		g.lastReset = g.now()
	}
}

// Admit reports whether a new AI call may proceed under the budget. The
// counter is reset first if the window has elapsed.
func (g *Governor) Admit() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetIfElapsed()
	return g.used < g.limit
}

// RecordSuccess increments the counter by exactly one.
func (g *Governor) RecordSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetIfElapsed()
	g.used++
}

// RecordExhaustion force-sets the counter to the limit. Used when the oracle
// itself reports quota exhaustion, so local bookkeeping stops admitting calls
// without waiting for the counter to catch up. Idempotent.
func (g *Governor) RecordExhaustion() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetIfElapsed()
	g.used = g.limit
}

// Status returns the current quota snapshot.
func (g *Governor) Status() QuotaStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetIfElapsed()

	remaining := g.limit - g.used
	if remaining < 0 {
		remaining = 0
	}
	hoursLeft := (resetWindow - g.now().Sub(g.lastReset)).Hours()
	if hoursLeft < 0 {
		hoursLeft = 0
	}

	return QuotaStatus{
		Used:            g.used,
		Limit:           g.limit,
		Remaining:       remaining,
		PercentageUsed:  float64(g.used) / float64(g.limit) * 100,
		HoursUntilReset: hoursLeft,
		LimitReached:    g.used >= g.limit,
	}
}
