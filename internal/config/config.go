package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// DBPath is the SQLite file backing report and offline cache storage.
	// ":memory:" keeps everything in process memory.
	DBPath string

	// Offline cache worker configuration.
	CacheVersion  string
	LeafletBase   string
	OfflineEnable bool

	GeolocationTimeout time.Duration

	// SessionIdleTTL is how long an unused map view session is kept.
	SessionIdleTTL time.Duration

	// Location search (Nominatim) configuration.
	GeosearchEnabled   bool
	GeosearchBaseURL   string
	GeosearchUserAgent string
	GeosearchTimeout   time.Duration
	GeosearchCacheSize int

	// Report event sink configuration. No brokers disables publishing.
	KafkaBrokers      []string
	KafkaReportsTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	geolocationTimeout, err := parsePositiveDuration("GEOLOCATION_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	geosearchTimeout, err := parsePositiveDuration("GEOSEARCH_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	sessionIdleTTL, err := parsePositiveDuration("SESSION_IDLE_TTL", "30m")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DBPath: sharedcfg.EnvOrDefault("DB_PATH", "safescape.db"),

		CacheVersion:  sharedcfg.EnvOrDefault("CACHE_VERSION", "v2"),
		LeafletBase:   strings.TrimRight(sharedcfg.EnvOrDefault("LEAFLET_BASE_URL", "https://unpkg.com/leaflet@1.9.4/dist"), "/"),
		OfflineEnable: os.Getenv("OFFLINE_ENABLED") != "false",

		GeolocationTimeout: geolocationTimeout,
		SessionIdleTTL:     sessionIdleTTL,

		GeosearchEnabled:   os.Getenv("GEOSEARCH_ENABLED") == "true",
		GeosearchBaseURL:   strings.TrimRight(sharedcfg.EnvOrDefault("GEOSEARCH_BASE_URL", "https://nominatim.openstreetmap.org"), "/"),
		GeosearchUserAgent: sharedcfg.EnvOrDefault("GEOSEARCH_USER_AGENT", "safescape-map-service/1.0"),
		GeosearchTimeout:   geosearchTimeout,
		GeosearchCacheSize: parseGeosearchCacheSize(),

		KafkaBrokers:      sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaReportsTopic: sharedcfg.EnvOrDefault("KAFKA_REPORTS_TOPIC", "safety-reports"),
	}

	if strings.ContainsAny(cfg.CacheVersion, " \t/") {
		return nil, errors.New("CACHE_VERSION must be a single token")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaReportsTopic == "" {
		return nil, errors.New("KAFKA_REPORTS_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// CacheName is the versioned offline cache name. Bumping CACHE_VERSION on
// deployment invalidates every older cache on the next activation.
func (c *Config) CacheName() string {
	return "safescape-cache-" + c.CacheVersion
}

// PublishEnabled reports whether appended reports go to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseGeosearchCacheSize() int {
	if s := os.Getenv("GEOSEARCH_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
