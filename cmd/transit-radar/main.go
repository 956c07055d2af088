package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"

	radar "github.com/theoremus-urban-solutions/transit-radar"
)

func main() {
	mode := flag.String("mode", "serve", "serve|oneshot")
	configPath := flag.String("config", "", "path to config.yml")
	source := flag.String("source", "", "radar|gtfsrt (overrides config)")
	flag.Parse()

	radar.InitLogging()
	cfg, err := radar.LoadAppConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *source != "" {
		cfg.Source = *source
	}

	tracker := radar.NewRateTracker(cfg.Upstream.RateLimitPerMinute)
	cache := radar.NewPositionCache(cfg.HealthyAge())
	src, err := radar.NewSourceFromConfig(cfg, tracker)
	if err != nil {
		log.Fatalf("source: %v", err)
	}

	switch *mode {
	case "oneshot":
		batch, err := src.Fetch(context.Background())
		if err != nil {
			log.Fatalf("fetch: %v", err)
		}
		cache.Update(batch)
		buf, err := json.MarshalIndent(cache.All(), "", "  ")
		if err != nil {
			log.Fatalf("encode: %v", err)
		}
		fmt.Println(string(buf))
	case "serve":
		poller := radar.NewPoller(src, cache, cfg.PollInterval())
		poller.Start(context.Background())
		e := radar.NewServer(&radar.ServerDeps{Cfg: cfg, Cache: cache, Tracker: tracker, Poller: poller})
		go func() {
			if err := e.Start(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && err != http.ErrServerClosed {
				log.Fatalf("server error: %v", err)
			}
		}()
		log.Printf("server listening on :%d", cfg.Server.Port)
		radar.HandleGracefulShutdown(e, poller)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}
