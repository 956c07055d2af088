package transitradar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// RadarClient fetches vehicle movements for one bounding box from a
// radar-style upstream endpoint.
type RadarClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRadarClient(baseURL string, timeout time.Duration) *RadarClient {
	if timeout <= 0 {
		timeout = time.Duration(defaultTimeoutMS) * time.Millisecond
	}
	return &RadarClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// radarMovement mirrors the upstream payload. Unknown fields are ignored;
// the upstream is treated as untrusted.
type radarMovement struct {
	TripID string `json:"tripId"`
	Line   struct {
		Name    string `json:"name"`
		Product string `json:"product"`
	} `json:"line"`
	Direction string `json:"direction"`
	Location  struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
}

type radarResponse struct {
	Movements []radarMovement `json:"movements"`
}

// FetchBox queries the upstream radar for a single tile and normalizes the
// result. Any HTTP, network or decode failure is returned as an error for
// the caller to absorb.
func (c *RadarClient) FetchBox(ctx context.Context, box BoundingBox) ([]Movement, error) {
	q := url.Values{}
	q.Set("north", strconv.FormatFloat(box.North, 'f', -1, 64))
	q.Set("south", strconv.FormatFloat(box.South, 'f', -1, 64))
	q.Set("east", strconv.FormatFloat(box.East, 'f', -1, 64))
	q.Set("west", strconv.FormatFloat(box.West, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request for box %s: %w", box.ID, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch box %s: %w", box.ID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for box %s", resp.StatusCode, box.ID)
	}

	var payload radarResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode box %s: %w", box.ID, err)
	}

	out := make([]Movement, 0, len(payload.Movements))
	for _, rm := range payload.Movements {
		if rm.TripID == "" {
			continue
		}
		out = append(out, Movement{
			TripID:    rm.TripID,
			Name:      rm.Line.Name,
			Direction: rm.Direction,
			Latitude:  rm.Location.Latitude,
			Longitude: rm.Location.Longitude,
			Category:  rm.Line.Product,
		})
	}
	return out, nil
}

// RadarSource fans one poll cycle out across the configured tiles and folds
// the results into a deduplicated batch.
type RadarSource struct {
	client  *RadarClient
	tracker *RateTracker
	boxes   []BoundingBox
}

func NewRadarSource(client *RadarClient, tracker *RateTracker, boxes []BoundingBox) *RadarSource {
	return &RadarSource{client: client, tracker: tracker, boxes: boxes}
}

// FetchTiles queries every configured box concurrently and waits for all of
// them to settle. A failing tile contributes an empty slice; siblings are
// unaffected.
func (s *RadarSource) FetchTiles(ctx context.Context) [][]Movement {
	results := make([][]Movement, len(s.boxes))
	var wg sync.WaitGroup
	for i, box := range s.boxes {
		wg.Add(1)
		go func(i int, box BoundingBox) {
			defer wg.Done()
			stats := s.tracker.Record()
			if stats.IsCritical {
				log.Printf("radar: rate window at %.0f%% (%d/%d)", stats.Percentage, stats.Count, stats.Limit)
			}
			ms, err := s.client.FetchBox(ctx, box)
			if err != nil {
				log.Printf("radar: box %s: %v", box.ID, err)
				return
			}
			results[i] = ms
		}(i, box)
	}
	wg.Wait()
	return results
}

func (s *RadarSource) Fetch(ctx context.Context) ([]Movement, error) {
	return AggregateMovements(s.FetchTiles(ctx)), nil
}

// NewSourceFromConfig builds the upstream source the config selects.
func NewSourceFromConfig(cfg *AppConfig, tracker *RateTracker) (Source, error) {
	switch cfg.Source {
	case "", "radar":
		if cfg.Upstream.BaseURL == "" {
			return nil, errors.New("upstream.baseURL is required for the radar source")
		}
		if len(cfg.Boxes) == 0 {
			return nil, errors.New("at least one bounding box is required for the radar source")
		}
		client := NewRadarClient(cfg.Upstream.BaseURL, cfg.UpstreamTimeout())
		return NewRadarSource(client, tracker, cfg.Boxes), nil
	case "gtfsrt":
		if cfg.GTFSRT.VehiclePositionsURL == "" {
			return nil, errors.New("gtfsrt.vehiclePositionsURL is required for the gtfsrt source")
		}
		return NewGTFSRTSource(cfg.GTFSRT.VehiclePositionsURL, cfg.GTFSRT.DefaultCategory, cfg.UpstreamTimeout()), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}
