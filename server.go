package transitradar

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// ServerDeps holds everything the serving interface reads from.
type ServerDeps struct {
	Cfg     *AppConfig
	Cache   *PositionCache
	Tracker *RateTracker
	Poller  *Poller
}

func NewServer(deps *ServerDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	if len(deps.Cfg.Server.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: deps.Cfg.Server.AllowedOrigins,
		}))
	} else {
		e.Use(middleware.CORS())
	}

	h := NewHandlers(deps.Cache, deps.Tracker, deps.Poller, deps.Cfg.PollInterval(), deps.Cfg.ProducerRef)
	RegisterRoutes(e, h)
	return e
}

func RegisterRoutes(e *echo.Echo, h *Handlers) {
	api := e.Group("/api")
	api.GET("/movements", h.HandleMovements)
	api.GET("/stats", h.HandleStats)
	api.GET("/rate", h.HandleRate)
	api.GET("/poller", h.HandlePoller)
	api.GET("/health", h.HandleHealth)
	api.GET("/siri/vehicle-monitoring.json", h.HandleSiriVehicleMonitoring)
}

// HandleGracefulShutdown blocks until SIGINT/SIGTERM, then stops the poller
// and drains the server.
func HandleGracefulShutdown(e *echo.Echo, p *Poller) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Printf("shutdown signal received")
	if p != nil {
		p.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	} else {
		log.Printf("server shut down successfully")
	}
}
