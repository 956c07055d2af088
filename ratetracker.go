package transitradar

import (
	"sync"
	"time"
)

const rateWindow = 60 * time.Second

// RateStats is a point-in-time view of upstream request usage over the
// trailing window.
type RateStats struct {
	Count      int     `json:"count"`
	Limit      int     `json:"limit"`
	Remaining  int     `json:"remaining"`
	Percentage float64 `json:"percentage"`
	IsWarning  bool    `json:"isWarning"`
	IsCritical bool    `json:"isCritical"`
}

// RateTracker records upstream request timestamps and reports usage against
// a per-minute ceiling. It only observes; it never blocks a request.
type RateTracker struct {
	mu     sync.Mutex
	limit  int
	stamps []time.Time
	now    func() time.Time
}

func NewRateTracker(limit int) *RateTracker {
	if limit <= 0 {
		limit = defaultRateLimit
	}
	return &RateTracker{limit: limit, now: time.Now}
}

// Record appends the current timestamp and returns the resulting stats.
func (rt *RateTracker) Record() RateStats {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.stamps = append(rt.stamps, rt.now())
	rt.prune()
	return rt.statsLocked()
}

func (rt *RateTracker) Stats() RateStats {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.prune()
	return rt.statsLocked()
}

// Reset clears all recorded timestamps.
func (rt *RateTracker) Reset() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.stamps = nil
}

func (rt *RateTracker) prune() {
	cutoff := rt.now().Add(-rateWindow)
	i := 0
	for i < len(rt.stamps) && rt.stamps[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		rt.stamps = append([]time.Time(nil), rt.stamps[i:]...)
	}
}

func (rt *RateTracker) statsLocked() RateStats {
	count := len(rt.stamps)
	remaining := rt.limit - count
	if remaining < 0 {
		remaining = 0
	}
	pct := float64(count) / float64(rt.limit) * 100
	return RateStats{
		Count:      count,
		Limit:      rt.limit,
		Remaining:  remaining,
		Percentage: pct,
		IsWarning:  pct >= 50,
		IsCritical: pct >= 80,
	}
}
