package transitradar

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Source produces one batch of normalized movements per poll cycle.
type Source interface {
	Fetch(ctx context.Context) ([]Movement, error)
}

// PollerStats are cumulative cycle counters, exposed for observability only.
type PollerStats struct {
	TotalCycles            int64      `json:"totalCycles"`
	SuccessfulCycles       int64      `json:"successfulCycles"`
	EmptyCycles            int64      `json:"emptyCycles"`
	FailedCycles           int64      `json:"failedCycles"`
	ConsecutiveEmptyCycles int64      `json:"consecutiveEmptyCycles"`
	LastPollAt             *time.Time `json:"lastPollAt"`
	LastNonEmptyPollAt     *time.Time `json:"lastNonEmptyPollAt"`
}

// Poller runs the fetch→aggregate→cache-update cycle on a fixed period with
// at most one cycle in flight.
type Poller struct {
	source   Source
	cache    *PositionCache
	interval time.Duration

	polling atomic.Bool

	mu    sync.Mutex
	stats PollerStats

	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(source Source, cache *PositionCache, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Duration(defaultIntervalMS) * time.Millisecond
	}
	return &Poller{source: source, cache: cache, interval: interval}
}

// Start runs one cycle immediately, then repeats on the configured period
// until Stop is called or ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		p.RunCycle(ctx)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.RunCycle(ctx)
			}
		}
	}()
	log.Printf("poller: started, interval %s", p.interval)
}

// Stop cancels the schedule and waits for an in-flight cycle to finish.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	if p.done != nil {
		<-p.done
	}
}

// RunCycle executes one fetch→aggregate→cache pass. A tick that finds the
// previous cycle still in flight is dropped, never queued. The busy flag is
// always released, so a failing cycle cannot wedge the schedule.
func (p *Poller) RunCycle(ctx context.Context) {
	if !p.polling.CompareAndSwap(false, true) {
		log.Printf("poller: cycle still in flight, skipping tick")
		return
	}
	defer p.polling.Store(false)

	start := time.Now()
	batch, err := p.fetch(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.stats.TotalCycles++
	p.stats.LastPollAt = &now

	if err != nil {
		// The cache sees a failed cycle as an empty batch: nothing is
		// wiped, the age keeps growing.
		p.cache.Update(nil)
		p.stats.FailedCycles++
		p.stats.ConsecutiveEmptyCycles++
		log.Printf("poller: cycle failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
		return
	}

	p.cache.Update(batch)
	if len(batch) == 0 {
		p.stats.EmptyCycles++
		p.stats.ConsecutiveEmptyCycles++
		log.Printf("poller: empty cycle (%d consecutive)", p.stats.ConsecutiveEmptyCycles)
		return
	}
	p.stats.SuccessfulCycles++
	p.stats.ConsecutiveEmptyCycles = 0
	t := now
	p.stats.LastNonEmptyPollAt = &t
	log.Printf("poller: %d movements in %s", len(batch), time.Since(start).Round(time.Millisecond))
}

// fetch shields the cycle from a panicking source.
func (p *Poller) fetch(ctx context.Context) (batch []Movement, err error) {
	defer func() {
		if r := recover(); r != nil {
			batch = nil
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()
	return p.source.Fetch(ctx)
}

func (p *Poller) Stats() PollerStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	if p.stats.LastPollAt != nil {
		t := *p.stats.LastPollAt
		s.LastPollAt = &t
	}
	if p.stats.LastNonEmptyPollAt != nil {
		t := *p.stats.LastNonEmptyPollAt
		s.LastNonEmptyPollAt = &t
	}
	return s
}
