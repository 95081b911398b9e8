package config

import (
	"errors"
	"fmt"
	"os"
	"shipment-tracking-service/internal/domain"
	"shipment-tracking-service/internal/services"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the service configuration. Defaults are overlaid by the optional
// YAML file at CONFIG_PATH, then by environment variables.
type Config struct {
	Port        string `yaml:"port" validate:"required,numeric"`
	DatabaseURL string `yaml:"database_url"`
	SeedPath    string `yaml:"seed_path"`
	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn error"`

	Tracking Tracking     `yaml:"tracking"`
	Distance Distance     `yaml:"distance"`
	Events   Events       `yaml:"events"`
	Ports    []PortConfig `yaml:"ports" validate:"dive"`
}

type Tracking struct {
	AvgSpeedKmh               float64       `yaml:"avg_speed_kmh" validate:"gt=0"`
	ArrivalThresholdKm        float64       `yaml:"arrival_threshold_km" validate:"gt=0"`
	RouteDeviationThresholdKm float64       `yaml:"route_deviation_threshold_km" validate:"gt=0"`
	PortProximityThresholdKm  float64       `yaml:"port_proximity_threshold_km" validate:"gt=0"`
	ProviderTimeout           time.Duration `yaml:"provider_timeout" validate:"gt=0"`
	PinnedStatuses            []string      `yaml:"pinned_statuses" validate:"dive,oneof=pending in-transit delayed held delivered cancelled"`
}

type Distance struct {
	Provider   string        `yaml:"provider" validate:"oneof=greatcircle ors"`
	ORSAPIKey  string        `yaml:"ors_api_key" validate:"required_if=Provider ors"`
	ORSProfile string        `yaml:"ors_profile"`
	Cache      string        `yaml:"cache" validate:"oneof=none redis postgres"`
	RedisAddr  string        `yaml:"redis_addr" validate:"required_if=Cache redis"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
}

type Events struct {
	Sink             string `yaml:"sink" validate:"oneof=log kafka rabbitmq"`
	Codec            string `yaml:"codec" validate:"oneof=json msgpack"`
	KafkaBroker      string `yaml:"kafka_broker" validate:"required_if=Sink kafka"`
	KafkaTopic       string `yaml:"kafka_topic"`
	RabbitMQURL      string `yaml:"rabbitmq_url" validate:"required_if=Sink rabbitmq"`
	RabbitMQExchange string `yaml:"rabbitmq_exchange"`
}

type PortConfig struct {
	Name string  `yaml:"name" validate:"required"`
	Lat  float64 `yaml:"lat" validate:"gte=-90,lte=90"`
	Lng  float64 `yaml:"lng" validate:"gte=-180,lte=180"`
}

func Default() Config {
	return Config{
		Port:     "8080",
		SeedPath: "data/seeds/shipments.json",
		LogLevel: "info",
		Tracking: Tracking{
			AvgSpeedKmh:               services.DefaultAvgSpeedKmh,
			ArrivalThresholdKm:        services.DefaultArrivalThresholdKm,
			RouteDeviationThresholdKm: services.DefaultRouteDeviationThresholdKm,
			PortProximityThresholdKm:  services.DefaultPortProximityThresholdKm,
			ProviderTimeout:           5 * time.Second,
			PinnedStatuses:            []string{string(domain.StatusHeld), string(domain.StatusDelayed)},
		},
		Distance: Distance{
			Provider:   "greatcircle",
			ORSProfile: "driving-hgv",
			Cache:      "none",
			CacheTTL:   24 * time.Hour,
		},
		Events: Events{
			Sink:             "log",
			Codec:            "json",
			KafkaTopic:       "shipment-events",
			RabbitMQExchange: "shipments",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at CONFIG_PATH
// (if set) and the environment, then validates it.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("load config: validate: %w", err)
	}

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %q: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Port = Get("PORT", c.Port)
	c.DatabaseURL = Get("DATABASE_URL", c.DatabaseURL)
	c.SeedPath = Get("SEED_PATH", c.SeedPath)
	c.LogLevel = strings.ToLower(Get("LOG_LEVEL", c.LogLevel))

	c.Distance.Provider = strings.ToLower(Get("DISTANCE_PROVIDER", c.Distance.Provider))
	c.Distance.ORSAPIKey = Get("ORS_API_KEY", c.Distance.ORSAPIKey)
	c.Distance.ORSProfile = Get("ORS_PROFILE", c.Distance.ORSProfile)
	c.Distance.Cache = strings.ToLower(Get("DISTANCE_CACHE", c.Distance.Cache))
	c.Distance.RedisAddr = Get("REDIS_ADDR", c.Distance.RedisAddr)

	c.Events.Sink = strings.ToLower(Get("EVENT_SINK", c.Events.Sink))
	c.Events.Codec = strings.ToLower(Get("EVENT_CODEC", c.Events.Codec))
	c.Events.KafkaBroker = Get("KAFKA_BROKER", c.Events.KafkaBroker)
	c.Events.KafkaTopic = Get("KAFKA_TOPIC", c.Events.KafkaTopic)
	c.Events.RabbitMQURL = Get("RABBITMQ_URL", c.Events.RabbitMQURL)
	c.Events.RabbitMQExchange = Get("RABBITMQ_EXCHANGE", c.Events.RabbitMQExchange)

	if v := os.Getenv("PINNED_STATUSES"); v != "" {
		c.Tracking.PinnedStatuses = splitList(v)
	}

	var errs []error
	floats := []struct {
		key string
		dst *float64
	}{
		{"AVG_SPEED_KMH", &c.Tracking.AvgSpeedKmh},
		{"ARRIVAL_THRESHOLD_KM", &c.Tracking.ArrivalThresholdKm},
		{"ROUTE_DEVIATION_THRESHOLD_KM", &c.Tracking.RouteDeviationThresholdKm},
		{"PORT_PROXIMITY_THRESHOLD_KM", &c.Tracking.PortProximityThresholdKm},
	}
	for _, f := range floats {
		v := os.Getenv(f.key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.key, err))
			continue
		}
		*f.dst = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"PROVIDER_TIMEOUT", &c.Tracking.ProviderTimeout},
		{"DISTANCE_CACHE_TTL", &c.Distance.CacheTTL},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		n, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.key, err))
			continue
		}
		*d.dst = n
	}

	return errors.Join(errs...)
}

// Settings converts the tracking section into the services' settings.
func (c Config) Settings() (services.Settings, error) {
	pinned := make([]domain.Status, 0, len(c.Tracking.PinnedStatuses))
	for _, raw := range c.Tracking.PinnedStatuses {
		st, err := domain.ParseStatus(raw)
		if err != nil {
			return services.Settings{}, fmt.Errorf("pinned statuses: %w", err)
		}
		pinned = append(pinned, st)
	}

	ports := make([]domain.Port, 0, len(c.Ports))
	for _, p := range c.Ports {
		ports = append(ports, domain.Port{Name: p.Name, Point: domain.GeoPoint{Lat: p.Lat, Lng: p.Lng}})
	}

	return services.Settings{
		AvgSpeedKmh:               c.Tracking.AvgSpeedKmh,
		ArrivalThresholdKm:        c.Tracking.ArrivalThresholdKm,
		RouteDeviationThresholdKm: c.Tracking.RouteDeviationThresholdKm,
		PortProximityThresholdKm:  c.Tracking.PortProximityThresholdKm,
		ProviderTimeout:           c.Tracking.ProviderTimeout,
		PinnedStatuses:            pinned,
		Ports:                     ports,
	}, nil
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
