package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config captures runtime configuration for the verification service.
type Config struct {
	HTTP      HTTPConfig
	Commerce  CommerceConfig
	Identity  IdentityConfig
	Sink      SinkConfig
	Database  DatabaseConfig
	Telemetry TelemetryConfig
	Service   ServiceConfig
}

type HTTPConfig struct {
	Port          int
	ShutdownGrace int
	// RequestBudget is the wall-clock ceiling applied to each verification
	// request, kept under the platform's own timeout.
	RequestBudget time.Duration
}

// CommerceConfig points at the order store.
type CommerceConfig struct {
	StoreDomain string
	AccessToken string
	// BaseURL overrides the derived admin API base; used by tests.
	BaseURL string
	Timeout time.Duration
}

// IdentityConfig points at the identity provider.
type IdentityConfig struct {
	UsersBaseURL      string
	ThumbnailsBaseURL string
	Timeout           time.Duration
}

// SinkKind selects which registration sink implementation is wired.
type SinkKind string

const (
	SinkMemory   SinkKind = "memory"
	SinkWebhook  SinkKind = "webhook"
	SinkAirtable SinkKind = "airtable"
	SinkPostgres SinkKind = "postgres"
)

// SinkConfig selects and parameterizes the registration sink.
type SinkConfig struct {
	Kind          SinkKind
	Budget        time.Duration
	WebhookURL    string
	AirtableBase  string
	AirtableTable string
	AirtableToken string
}

type DatabaseConfig struct {
	URL            string
	AutoMigrate    bool
	MigrationsPath string
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	defaultHTTPPort       = 8080
	defaultShutdownGrace  = 15
	defaultRequestBudget  = 8 * time.Second
	defaultSinkBudget     = 2500 * time.Millisecond
	defaultUpstreamTimout = 5 * time.Second
	defaultSinkKind       = SinkMemory
	defaultMigrationsPath = "migrations"
	defaultAutoMigrate    = true
	defaultServiceName    = "handoff-api"
	defaultServiceVersion = "0.1.0"
	defaultEnvironment    = "development"
	defaultLogLevel       = "info"
	defaultOTelSampleRate = 1.0
)

// Load reads configuration from environment variables, applying defaults
// when needed.
func Load() (*Config, error) {
	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	commerceCfg, err := loadCommerceConfig()
	if err != nil {
		return nil, fmt.Errorf("loading commerce config: %w", err)
	}

	identityCfg, err := loadIdentityConfig()
	if err != nil {
		return nil, fmt.Errorf("loading identity config: %w", err)
	}

	sinkCfg, err := loadSinkConfig()
	if err != nil {
		return nil, fmt.Errorf("loading sink config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	return &Config{
		HTTP:      httpCfg,
		Commerce:  commerceCfg,
		Identity:  identityCfg,
		Sink:      sinkCfg,
		Database:  loadDatabaseConfig(),
		Telemetry: telCfg,
		Service:   loadServiceConfig(),
	}, nil
}

func loadHTTPConfig() (HTTPConfig, error) {
	port := defaultHTTPPort
	if value, ok := os.LookupEnv("API_HTTP_PORT"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return HTTPConfig{}, fmt.Errorf("invalid API_HTTP_PORT: %w", err)
		}
		port = parsed
	}

	shutdownGrace := defaultShutdownGrace
	if value, ok := os.LookupEnv("API_SHUTDOWN_GRACE_SECONDS"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return HTTPConfig{}, fmt.Errorf("invalid API_SHUTDOWN_GRACE_SECONDS: %w", err)
		}
		shutdownGrace = parsed
	}

	budget, err := getDurationEnv("REQUEST_BUDGET", defaultRequestBudget)
	if err != nil {
		return HTTPConfig{}, err
	}

	return HTTPConfig{
		Port:          port,
		ShutdownGrace: shutdownGrace,
		RequestBudget: budget,
	}, nil
}

func loadCommerceConfig() (CommerceConfig, error) {
	timeout, err := getDurationEnv("COMMERCE_TIMEOUT", defaultUpstreamTimout)
	if err != nil {
		return CommerceConfig{}, err
	}
	return CommerceConfig{
		StoreDomain: os.Getenv("COMMERCE_STORE_DOMAIN"),
		AccessToken: os.Getenv("COMMERCE_ACCESS_TOKEN"),
		BaseURL:     os.Getenv("COMMERCE_BASE_URL"),
		Timeout:     timeout,
	}, nil
}

func loadIdentityConfig() (IdentityConfig, error) {
	timeout, err := getDurationEnv("IDENTITY_TIMEOUT", defaultUpstreamTimout)
	if err != nil {
		return IdentityConfig{}, err
	}
	return IdentityConfig{
		UsersBaseURL:      os.Getenv("IDENTITY_USERS_BASE_URL"),
		ThumbnailsBaseURL: os.Getenv("IDENTITY_THUMBNAILS_BASE_URL"),
		Timeout:           timeout,
	}, nil
}

func loadSinkConfig() (SinkConfig, error) {
	kind := SinkKind(getEnvOrDefault("SINK_KIND", string(defaultSinkKind)))
	switch kind {
	case SinkMemory, SinkWebhook, SinkAirtable, SinkPostgres:
	default:
		return SinkConfig{}, fmt.Errorf("invalid SINK_KIND %q", kind)
	}

	budget, err := getDurationEnv("SINK_BUDGET", defaultSinkBudget)
	if err != nil {
		return SinkConfig{}, err
	}

	return SinkConfig{
		Kind:          kind,
		Budget:        budget,
		WebhookURL:    os.Getenv("SINK_WEBHOOK_URL"),
		AirtableBase:  os.Getenv("SINK_AIRTABLE_BASE_ID"),
		AirtableTable: os.Getenv("SINK_AIRTABLE_TABLE"),
		AirtableToken: os.Getenv("SINK_AIRTABLE_TOKEN"),
	}, nil
}

func loadDatabaseConfig() DatabaseConfig {
	autoMigrate := defaultAutoMigrate
	if value, ok := os.LookupEnv("AUTO_MIGRATE"); ok {
		autoMigrate = value == "true"
	}

	return DatabaseConfig{
		URL:            os.Getenv("DATABASE_URL"),
		AutoMigrate:    autoMigrate,
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
	}
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	sampleRate := defaultOTelSampleRate
	if value, ok := os.LookupEnv("OTEL_SAMPLE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	return TelemetryConfig{
		LogLevel:      getEnvOrDefault("LOG_LEVEL", defaultLogLevel),
		OTelEndpoint:  getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		EnableTracing: getBoolEnv("OTEL_ENABLE_TRACING", false),
		EnableMetrics: getBoolEnv("OTEL_ENABLE_METRICS", false),
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return parsed, nil
	}
	return defaultValue, nil
}
