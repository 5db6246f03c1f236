package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "agilepulse.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg, err := build(yamlPath, CLIFlags{})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithCLI applies the full hierarchy defaults < YAML < ENV < CLI and
// returns the config together with the YAML path that was used.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	path := DefaultConfigFile
	if flags.ConfigPath != nil && *flags.ConfigPath != "" {
		path = *flags.ConfigPath
	}
	cfg, err := build(path, flags)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func build(yamlPath string, flags CLIFlags) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)
	applyCLI(&cfg, flags)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "AGILEPULSE_PORT")
	setString(&cfg.Server.CORSOrigin, "AGILEPULSE_CORS_ORIGIN")
	setDuration(&cfg.Server.RequestTimeout, "AGILEPULSE_REQUEST_TIMEOUT")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "AGILEPULSE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "AGILEPULSE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "AGILEPULSE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "AGILEPULSE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "AGILEPULSE_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Logging.Level, "AGILEPULSE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "AGILEPULSE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "AGILEPULSE_LOG_ASYNC")
	setString(&cfg.Logging.File, "AGILEPULSE_LOG_FILE")
	setInt(&cfg.Breaker.MaxFailures, "AGILEPULSE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "AGILEPULSE_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "AGILEPULSE_RATE_RPS")
	setInt(&cfg.Rate.Burst, "AGILEPULSE_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "AGILEPULSE_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "AGILEPULSE_RATE_MAX_IDLE_TIME")

	// Cache
	setBool(&cfg.Cache.Enabled, "AGILEPULSE_CACHE_ENABLED")
	setInt64(&cfg.Cache.L1MaxSizeMB, "AGILEPULSE_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "AGILEPULSE_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "AGILEPULSE_CACHE_L2_TTL")
	setDuration(&cfg.Cache.RealtimeTTL, "AGILEPULSE_CACHE_REALTIME_TTL")
	setDuration(&cfg.Cache.AggregateTTL, "AGILEPULSE_CACHE_AGGREGATE_TTL")
	setDuration(&cfg.Cache.HistoricalTTL, "AGILEPULSE_CACHE_HISTORICAL_TTL")

	// Telemetry
	setBool(&cfg.Telemetry.Enabled, "AGILEPULSE_OTEL_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.Telemetry.Insecure, "AGILEPULSE_OTEL_INSECURE")
	setString(&cfg.Telemetry.ServiceName, "OTEL_SERVICE_NAME")
	setFloat64(&cfg.Telemetry.SampleRatio, "AGILEPULSE_OTEL_SAMPLE_RATIO")
	setDuration(&cfg.Telemetry.MetricInterval, "AGILEPULSE_OTEL_METRIC_INTERVAL")

	// MCP
	setBool(&cfg.MCP.Enabled, "AGILEPULSE_MCP_ENABLED")
	setString(&cfg.MCP.APIKey, "AGILEPULSE_MCP_API_KEY")

	// Refresh
	setString(&cfg.Refresh.Schedule, "AGILEPULSE_REFRESH_SCHEDULE")
	setInt(&cfg.Refresh.WarmConcurrency, "AGILEPULSE_REFRESH_WARM_CONCURRENCY")
}

// validate checks required fields and ranges. An empty nats.url and a zero
// breaker.max_failures are valid and switch those features off.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Server.RequestTimeout <= 0 {
		return errors.New("server.request_timeout must be > 0")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 0 {
		return errors.New("breaker.max_failures must be >= 0")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Cache.Enabled {
		if cfg.Cache.RealtimeTTL <= 0 || cfg.Cache.AggregateTTL <= 0 || cfg.Cache.HistoricalTTL <= 0 {
			return errors.New("cache ttls must be > 0")
		}
		if cfg.Cache.L2Bucket == "" {
			return errors.New("cache.l2_bucket is required")
		}
	}
	for id, p := range cfg.Reports.SprintPolicies {
		switch strings.ToLower(p) {
		case "aggregate", "reject":
		default:
			return fmt.Errorf("reports.sprint_policies.%s must be aggregate or reject", id)
		}
		if id == "sprint-burndown" && !strings.EqualFold(p, "reject") {
			return errors.New("reports.sprint_policies.sprint-burndown must be reject")
		}
	}
	if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
		return errors.New("telemetry.sample_ratio must be within [0, 1]")
	}
	if cfg.Refresh.WarmConcurrency < 1 {
		return errors.New("refresh.warm_concurrency must be >= 1")
	}
	return nil
}

// CLIFlags carries command-line overrides. A nil field was not given.
type CLIFlags struct {
	ConfigPath *string
	Port       *string
	LogLevel   *string
	DSN        *string
	NatsURL    *string
}

// BindFlags registers the global flags on fs. The returned function reports
// the flags that were actually set once fs has been parsed.
func BindFlags(fs *pflag.FlagSet) func() CLIFlags {
	configPath := fs.StringP("config", "c", DefaultConfigFile, "path to YAML config file")
	port := fs.StringP("port", "p", "", "HTTP listen port")
	logLevel := fs.String("log-level", "", "log level (debug|info|warn|error)")
	dsn := fs.String("dsn", "", "PostgreSQL connection string")
	natsURL := fs.String("nats-url", "", "NATS server URL")

	return func() CLIFlags {
		var out CLIFlags
		if fs.Changed("config") {
			out.ConfigPath = configPath
		}
		if fs.Changed("port") {
			out.Port = port
		}
		if fs.Changed("log-level") {
			out.LogLevel = logLevel
		}
		if fs.Changed("dsn") {
			out.DSN = dsn
		}
		if fs.Changed("nats-url") {
			out.NatsURL = natsURL
		}
		return out
	}
}

// ParseFlags parses args into CLIFlags.
func ParseFlags(args []string) (CLIFlags, error) {
	fs := pflag.NewFlagSet("agilepulse", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	collect := BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return CLIFlags{}, fmt.Errorf("parse flags: %w", err)
	}
	return collect(), nil
}

func applyCLI(cfg *Config, flags CLIFlags) {
	if flags.Port != nil {
		cfg.Server.Port = *flags.Port
	}
	if flags.LogLevel != nil {
		cfg.Logging.Level = *flags.LogLevel
	}
	if flags.DSN != nil {
		cfg.Postgres.DSN = *flags.DSN
	}
	if flags.NatsURL != nil {
		cfg.NATS.URL = *flags.NatsURL
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
