package transitradar

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port           int      `yaml:"port" validate:"gt=0"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type UpstreamConfig struct {
	BaseURL            string `yaml:"baseURL" validate:"omitempty,url"`
	TimeoutMS          int    `yaml:"timeoutMS" validate:"gte=0"`
	RateLimitPerMinute int    `yaml:"rateLimitPerMinute" validate:"gte=0"`
}

type PollerConfig struct {
	IntervalMS   int `yaml:"intervalMS" validate:"gte=0"`
	HealthyAgeMS int `yaml:"healthyAgeMS" validate:"gte=0"`
}

type GTFSRTConfig struct {
	VehiclePositionsURL string `yaml:"vehiclePositionsURL" validate:"omitempty,url"`
	DefaultCategory     string `yaml:"defaultCategory"`
}

type AppConfig struct {
	Server      ServerConfig   `yaml:"server"`
	Upstream    UpstreamConfig `yaml:"upstream"`
	Poller      PollerConfig   `yaml:"poller"`
	Source      string         `yaml:"source" validate:"omitempty,oneof=radar gtfsrt"`
	GTFSRT      GTFSRTConfig   `yaml:"gtfsrt"`
	ProducerRef string         `yaml:"producerRef"`
	Boxes       []BoundingBox  `yaml:"boxes"`
}

const (
	defaultPort         = 16181
	defaultTimeoutMS    = 10000
	defaultRateLimit    = 100
	defaultIntervalMS   = 20000
	defaultHealthyAgeMS = 60000
)

// LoadAppConfig reads a YAML config file, applies environment overrides and
// defaults, and validates the result. With an empty path the usual locations
// are tried in order.
func LoadAppConfig(path string) (*AppConfig, error) {
	paths := []string{path}
	if path == "" {
		paths = []string{"config.yml", "./deploy/config.yml"}
	}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, err
	}
	for _, b := range cfg.Boxes {
		if err := v.Struct(b); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Upstream.TimeoutMS == 0 {
		cfg.Upstream.TimeoutMS = defaultTimeoutMS
	}
	if cfg.Upstream.RateLimitPerMinute == 0 {
		cfg.Upstream.RateLimitPerMinute = defaultRateLimit
	}
	if cfg.Poller.IntervalMS == 0 {
		cfg.Poller.IntervalMS = defaultIntervalMS
	}
	if cfg.Poller.HealthyAgeMS == 0 {
		cfg.Poller.HealthyAgeMS = defaultHealthyAgeMS
	}
	if cfg.Source == "" {
		cfg.Source = "radar"
	}
}

func overrideFromEnv(cfg *AppConfig) {
	if v := os.Getenv("RADAR_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("RADAR_UPSTREAM_URL"); v != "" {
		cfg.Upstream.BaseURL = v
	}
	if v := os.Getenv("RADAR_POLL_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Poller.IntervalMS = n
		}
	}
	if v := os.Getenv("RADAR_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Upstream.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("RADAR_HEALTHY_AGE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Poller.HealthyAgeMS = n
		}
	}
}

func (c *AppConfig) PollInterval() time.Duration {
	return time.Duration(c.Poller.IntervalMS) * time.Millisecond
}

func (c *AppConfig) HealthyAge() time.Duration {
	return time.Duration(c.Poller.HealthyAgeMS) * time.Millisecond
}

func (c *AppConfig) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstream.TimeoutMS) * time.Millisecond
}
