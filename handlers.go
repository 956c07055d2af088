package transitradar

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Handlers project cache, rate-tracker and poller state into responses.
// They hold no business logic and never trigger a fetch.
type Handlers struct {
	cache       *PositionCache
	tracker     *RateTracker
	poller      *Poller
	interval    time.Duration
	producerRef string
	startedAt   time.Time
}

func NewHandlers(cache *PositionCache, tracker *RateTracker, poller *Poller, interval time.Duration, producerRef string) *Handlers {
	return &Handlers{
		cache:       cache,
		tracker:     tracker,
		poller:      poller,
		interval:    interval,
		producerRef: producerRef,
		startedAt:   time.Now(),
	}
}

type movementsMeta struct {
	Count         int        `json:"count"`
	LastUpdatedAt *time.Time `json:"lastUpdatedAt"`
	AgeMS         *int64     `json:"ageMs"`
	IsHealthy     bool       `json:"isHealthy"`
}

type movementsResponse struct {
	Movements []TrackedEntity `json:"movements"`
	Meta      movementsMeta   `json:"meta"`
}

func (h *Handlers) HandleMovements(c echo.Context) error {
	entities := h.cache.All()
	stats := h.cache.Stats()
	return c.JSON(http.StatusOK, movementsResponse{
		Movements: entities,
		Meta: movementsMeta{
			Count:         stats.Count,
			LastUpdatedAt: stats.LastUpdatedAt,
			AgeMS:         stats.AgeMS,
			IsHealthy:     stats.IsHealthy,
		},
	})
}

func (h *Handlers) HandleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cache.Stats())
}

func (h *Handlers) HandleRate(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tracker.Stats())
}

func (h *Handlers) HandlePoller(c echo.Context) error {
	return c.JSON(http.StatusOK, h.poller.Stats())
}

type healthCacheInfo struct {
	Count     int    `json:"count"`
	AgeMS     *int64 `json:"ageMs"`
	IsHealthy bool   `json:"isHealthy"`
}

type healthResponse struct {
	Status        string          `json:"status"`
	UptimeSeconds float64         `json:"uptime"`
	Cache         healthCacheInfo `json:"cache"`
}

// HandleHealth reports degraded with a 503 once the cache age passes the
// healthy threshold, so a supervisor can spot a silently stuck poller.
func (h *Handlers) HandleHealth(c echo.Context) error {
	stats := h.cache.Stats()
	resp := healthResponse{
		Status:        "healthy",
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		Cache: healthCacheInfo{
			Count:     stats.Count,
			AgeMS:     stats.AgeMS,
			IsHealthy: stats.IsHealthy,
		},
	}
	code := http.StatusOK
	if !stats.IsHealthy {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}

func (h *Handlers) HandleSiriVehicleMonitoring(c echo.Context) error {
	return c.JSON(http.StatusOK, BuildVehicleMonitoring(h.cache, h.interval, h.producerRef))
}
