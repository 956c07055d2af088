package transitradar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// GTFSRTSource is an alternate upstream: a single GTFS-RT VehiclePositions
// feed instead of the tiled radar endpoint. Entities without a trip id or a
// position are skipped; the feed carries no product tag, so the category
// comes from config.
type GTFSRTSource struct {
	vehiclePositionsURL string
	defaultCategory     string
	httpClient          *http.Client
}

func NewGTFSRTSource(vehiclePositionsURL, defaultCategory string, timeout time.Duration) *GTFSRTSource {
	if timeout <= 0 {
		timeout = time.Duration(defaultTimeoutMS) * time.Millisecond
	}
	return &GTFSRTSource{
		vehiclePositionsURL: vehiclePositionsURL,
		defaultCategory:     defaultCategory,
		httpClient:          &http.Client{Timeout: timeout},
	}
}

func (s *GTFSRTSource) Fetch(ctx context.Context) ([]Movement, error) {
	fm, err := s.fetchFeed(ctx, s.vehiclePositionsURL)
	if err != nil {
		return nil, fmt.Errorf("vehicle positions: %w", err)
	}
	out := make([]Movement, 0, len(fm.Entity))
	for _, e := range fm.Entity {
		v := e.Vehicle
		if v == nil || v.Position == nil || v.Position.Latitude == nil || v.Position.Longitude == nil {
			continue
		}
		if v.Trip == nil || v.Trip.TripId == nil || *v.Trip.TripId == "" {
			continue
		}
		m := Movement{
			TripID:    *v.Trip.TripId,
			Latitude:  float64(*v.Position.Latitude),
			Longitude: float64(*v.Position.Longitude),
			Category:  s.defaultCategory,
		}
		if v.Trip.RouteId != nil {
			m.Name = *v.Trip.RouteId
		}
		if v.Vehicle != nil && v.Vehicle.Label != nil {
			m.Direction = *v.Vehicle.Label
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *GTFSRTSource) fetchFeed(ctx context.Context, url string) (*gtfsrtpb.FeedMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var fm gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(b, &fm); err != nil {
		return nil, err
	}
	return &fm, nil
}
