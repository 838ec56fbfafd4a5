package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	APIAddr         string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Local durable storage.
	StoreDriver       string
	SQLitePath        string
	PostgresDSN       string
	StoreOpenAttempts int

	// Remote OceanEye API.
	RemoteAPIBase       string
	RemoteHealthTimeout time.Duration
	RemoteLoadTimeout   time.Duration
	RemoteWriteTimeout  time.Duration
	AuthTimeout         time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	// External hazard feeds.
	NWSBaseURL              string
	NWSUserAgent            string
	TsunamiFeedURL          string
	WeatherBaseURL          string
	AlertRefreshInterval    time.Duration
	DisasterRefreshInterval time.Duration
	LiveReportsInterval     time.Duration
	FeedCacheTTL            time.Duration

	HotspotMarkerCap int
	HotspotKeywords  string

	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaReportsTopic string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// SubmitGeocodeTimeout bounds geocoding inside a report submission.
	SubmitGeocodeTimeout time.Duration

	// Redis feed cache; disabled when RedisAddr is empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is read first; variables
// already present in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		APIAddr:         sharedcfg.EnvOrDefault("API_ADDR", ":8090"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StoreDriver: sharedcfg.EnvOrDefault("STORE_DRIVER", DriverSQLite),
		SQLitePath:  sharedcfg.EnvOrDefault("SQLITE_PATH", "oceaneye.db"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		RemoteAPIBase: sharedcfg.EnvOrDefault("REMOTE_API_BASE", "http://localhost:4000"),
		JWTSecret:     sharedcfg.EnvOrDefault("JWT_SECRET", "oceaneye-local-dev-secret"),

		NWSBaseURL:     sharedcfg.EnvOrDefault("NWS_BASE_URL", "https://api.weather.gov"),
		NWSUserAgent:   sharedcfg.EnvOrDefault("NWS_USER_AGENT", "(oceaneye-service, ops@oceaneye.local)"),
		TsunamiFeedURL: sharedcfg.EnvOrDefault("TSUNAMI_FEED_URL", "https://www.tsunami.gov/events.xml"),
		WeatherBaseURL: sharedcfg.EnvOrDefault("WEATHER_BASE_URL", "https://api.open-meteo.com/v1/forecast"),

		HotspotKeywords: sharedcfg.EnvOrDefault("HOTSPOT_KEYWORDS", "#tsunami,#flood,#stormsurge,#highwaves,#swell"),

		KafkaEnabled:      os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:      sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportsTopic: sharedcfg.EnvOrDefault("KAFKA_REPORTS_TOPIC", "oceaneye-report-events"),

		MapboxToken: os.Getenv("MAPBOX_TOKEN"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"REMOTE_HEALTH_TIMEOUT", "1500ms", &cfg.RemoteHealthTimeout},
		{"REMOTE_LOAD_TIMEOUT", "4s", &cfg.RemoteLoadTimeout},
		{"REMOTE_WRITE_TIMEOUT", "5s", &cfg.RemoteWriteTimeout},
		{"AUTH_TIMEOUT", "4s", &cfg.AuthTimeout},
		{"JWT_TTL", "24h", &cfg.JWTTTL},
		{"ALERT_REFRESH_INTERVAL", "5m", &cfg.AlertRefreshInterval},
		{"DISASTER_REFRESH_INTERVAL", "2m", &cfg.DisasterRefreshInterval},
		{"LIVE_REPORTS_INTERVAL", "10s", &cfg.LiveReportsInterval},
		{"FEED_CACHE_TTL", "1m", &cfg.FeedCacheTTL},
		{"MAPBOX_TIMEOUT", "5s", &cfg.MapboxTimeout},
		{"SUBMIT_GEOCODE_TIMEOUT", "2s", &cfg.SubmitGeocodeTimeout},
	}
	for _, d := range durations {
		v, err := parsePositiveDuration(d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	if cfg.HotspotMarkerCap, err = parsePositiveInt("HOTSPOT_MARKER_CAP", 200); err != nil {
		return nil, err
	}
	if cfg.StoreOpenAttempts, err = parsePositiveInt("STORE_OPEN_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.MapboxCacheSize, err = parsePositiveInt("MAPBOX_CACHE_SIZE", 1000); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = parseNonNegativeInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	cfg.MapboxEnabled = cfg.MapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		cfg.MapboxEnabled = v == "true"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORE_DRIVER is sqlite")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORE_DRIVER is postgres")
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: want sqlite or postgres", c.StoreDriver)
	}
	if c.RemoteAPIBase == "" {
		return errors.New("REMOTE_API_BASE is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if c.KafkaEnabled && c.KafkaReportsTopic == "" {
		return errors.New("KAFKA_REPORTS_TOPIC is required when KAFKA_ENABLED is true")
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	return nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: must be a non-negative integer", key)
	}
	return n, nil
}
