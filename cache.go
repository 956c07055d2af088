package transitradar

import (
	"sort"
	"sync"
	"time"
)

// Position is one captured coordinate pair.
type Position struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	CapturedAt time.Time `json:"capturedAt"`
}

// TrackedEntity is the cached state of one trip: the current observation
// flattened, plus at most one previous position for client-side animation.
type TrackedEntity struct {
	TripID     string    `json:"tripId"`
	Name       string    `json:"name"`
	Direction  string    `json:"direction"`
	Category   string    `json:"category"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	CapturedAt time.Time `json:"capturedAt"`
	Previous   *Position `json:"previousPosition"`
	FirstSeen  time.Time `json:"firstSeenAt"`
}

// CacheStats describes cache freshness. LastUpdatedAt and AgeMS are nil until
// the first non-empty update has been applied.
type CacheStats struct {
	Count         int        `json:"count"`
	LastUpdatedAt *time.Time `json:"lastUpdatedAt"`
	AgeMS         *int64     `json:"ageMs"`
	UpdateCount   int64      `json:"updateCount"`
	IsHealthy     bool       `json:"isHealthy"`
}

// PositionCache holds the last known good position set. The poller is the
// only writer; readers may arrive at any time and always observe either the
// previous or the fully applied entity set, because updates are built aside
// and swapped in with a single map assignment.
type PositionCache struct {
	mu               sync.RWMutex
	entities         map[string]TrackedEntity
	lastUpdated      time.Time
	updateCount      int64
	consecutiveEmpty int
	healthyAge       time.Duration
	now              func() time.Time
}

func NewPositionCache(healthyAge time.Duration) *PositionCache {
	if healthyAge <= 0 {
		healthyAge = time.Duration(defaultHealthyAgeMS) * time.Millisecond
	}
	return &PositionCache{
		entities:   map[string]TrackedEntity{},
		healthyAge: healthyAge,
		now:        time.Now,
	}
}

// Update applies one aggregated batch. An empty batch is a staleness signal,
// not a removal: the entity set and last-update time stay as they are, so a
// transient upstream failure surfaces as growing age instead of a vanished
// fleet. A non-empty batch replaces the entity set wholesale; trips absent
// from it are dropped.
func (c *PositionCache) Update(batch []Movement) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(batch) == 0 {
		c.consecutiveEmpty++
		return
	}

	now := c.now()
	next := make(map[string]TrackedEntity, len(batch))
	for _, m := range batch {
		e := TrackedEntity{
			TripID:     m.TripID,
			Name:       m.Name,
			Direction:  m.Direction,
			Category:   m.Category,
			Latitude:   m.Latitude,
			Longitude:  m.Longitude,
			CapturedAt: now,
			FirstSeen:  now,
		}
		if prev, ok := c.entities[m.TripID]; ok {
			e.FirstSeen = prev.FirstSeen
			e.Previous = &Position{
				Latitude:   prev.Latitude,
				Longitude:  prev.Longitude,
				CapturedAt: prev.CapturedAt,
			}
		}
		next[m.TripID] = e
	}
	c.entities = next
	c.lastUpdated = now
	c.updateCount++
	c.consecutiveEmpty = 0
}

// All returns a snapshot of the tracked entities, ordered by trip id.
func (c *PositionCache) All() []TrackedEntity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]TrackedEntity, 0, len(c.entities))
	for _, e := range c.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TripID < out[j].TripID })
	return out
}

func (c *PositionCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := CacheStats{Count: len(c.entities), UpdateCount: c.updateCount}
	if !c.lastUpdated.IsZero() {
		t := c.lastUpdated
		s.LastUpdatedAt = &t
		age := c.now().Sub(c.lastUpdated).Milliseconds()
		s.AgeMS = &age
		s.IsHealthy = age < c.healthyAge.Milliseconds()
	}
	return s
}

func (c *PositionCache) ConsecutiveEmpty() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.consecutiveEmpty
}

// Reset clears all state. Test and debug use only.
func (c *PositionCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entities = map[string]TrackedEntity{}
	c.lastUpdated = time.Time{}
	c.updateCount = 0
	c.consecutiveEmpty = 0
}
