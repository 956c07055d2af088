package transitradar

import "time"

// SIRI-VM shaped projection of the cache, for consumers that already speak
// SIRI VehicleMonitoring.

type SiriResponse struct {
	Siri SiriServiceDelivery `json:"Siri"`
}

type SiriServiceDelivery struct {
	ServiceDelivery ServiceDelivery `json:"ServiceDelivery"`
}

type ServiceDelivery struct {
	ResponseTimestamp         string              `json:"ResponseTimestamp"`
	ProducerRef               string              `json:"ProducerRef,omitempty"`
	VehicleMonitoringDelivery []VehicleMonitoring `json:"VehicleMonitoringDelivery"`
}

type VehicleMonitoring struct {
	ResponseTimestamp string                 `json:"ResponseTimestamp"`
	ValidUntil        string                 `json:"ValidUntil"`
	VehicleActivity   []VehicleActivityEntry `json:"VehicleActivity"`
}

type VehicleActivityEntry struct {
	RecordedAtTime          string                  `json:"RecordedAtTime"`
	MonitoredVehicleJourney MonitoredVehicleJourney `json:"MonitoredVehicleJourney"`
}

type MonitoredVehicleJourney struct {
	LineRef           string          `json:"LineRef"`
	PublishedLineName string          `json:"PublishedLineName,omitempty"`
	VehicleMode       string          `json:"VehicleMode,omitempty"`
	DestinationName   string          `json:"DestinationName,omitempty"`
	Monitored         bool            `json:"Monitored"`
	VehicleLocation   VehicleLocation `json:"VehicleLocation"`
	VehicleRef        string          `json:"VehicleRef"`
}

type VehicleLocation struct {
	Latitude  float64 `json:"Latitude"`
	Longitude float64 `json:"Longitude"`
}

// BuildVehicleMonitoring renders the current cache contents as one
// VehicleMonitoringDelivery. ResponseTimestamp is the last non-empty update
// (falling back to now before the first one) and ValidUntil adds one poll
// interval.
func BuildVehicleMonitoring(cache *PositionCache, interval time.Duration, producerRef string) *SiriResponse {
	stats := cache.Stats()
	ts := time.Now()
	if stats.LastUpdatedAt != nil {
		ts = *stats.LastUpdatedAt
	}
	vm := VehicleMonitoring{
		ResponseTimestamp: iso8601FromTime(ts),
		ValidUntil:        validUntilFrom(ts, interval),
		VehicleActivity:   []VehicleActivityEntry{},
	}
	for _, e := range cache.All() {
		vm.VehicleActivity = append(vm.VehicleActivity, VehicleActivityEntry{
			RecordedAtTime: iso8601FromTime(e.CapturedAt),
			MonitoredVehicleJourney: MonitoredVehicleJourney{
				LineRef:           e.Name,
				PublishedLineName: e.Name,
				VehicleMode:       e.Category,
				DestinationName:   e.Direction,
				Monitored:         true,
				VehicleLocation:   VehicleLocation{Latitude: e.Latitude, Longitude: e.Longitude},
				VehicleRef:        e.TripID,
			},
		})
	}
	if producerRef == "" {
		producerRef = "UNKNOWN"
	}
	return &SiriResponse{Siri: SiriServiceDelivery{ServiceDelivery: ServiceDelivery{
		ResponseTimestamp:         iso8601FromTime(ts),
		ProducerRef:               producerRef,
		VehicleMonitoringDelivery: []VehicleMonitoring{vm},
	}}}
}
