package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Port            string        `mapstructure:"PORT"`
	Env             string        `mapstructure:"ENV"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32         `mapstructure:"DB_MIN_CONNS"`
	StoreDriver     string        `mapstructure:"STORE_DRIVER"`
	MigrationsDir   string        `mapstructure:"MIGRATIONS_DIR"`
	ScorerURL       string        `mapstructure:"SCORER_URL"`
	ScorerTimeout   time.Duration `mapstructure:"SCORER_TIMEOUT"`
	RedisURL        string        `mapstructure:"REDIS_URL"`
	SummaryCacheTTL time.Duration `mapstructure:"SUMMARY_CACHE_TTL"`
	KafkaBrokers    []string      `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic      string        `mapstructure:"KAFKA_TOPIC"`
	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	LogFile         string        `mapstructure:"LOG_FILE"`
	OTLPEndpoint    string        `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	BodyLimit       string        `mapstructure:"BODY_LIMIT"`
}

var envKeys = []string{
	"PORT",
	"ENV",
	"DATABASE_URL",
	"DB_MAX_CONNS",
	"DB_MIN_CONNS",
	"STORE_DRIVER",
	"MIGRATIONS_DIR",
	"SCORER_URL",
	"SCORER_TIMEOUT",
	"REDIS_URL",
	"SUMMARY_CACHE_TTL",
	"KAFKA_BROKERS",
	"KAFKA_TOPIC",
	"CORS_ORIGINS",
	"LOG_LEVEL",
	"LOG_FILE",
	"OTEL_EXPORTER_OTLP_ENDPOINT",
	"BODY_LIMIT",
}

// Load reads configuration from the environment, falling back to an optional
// .env file in the working directory, and validates the result.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "3000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("STORE_DRIVER", StorePostgres)
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("SCORER_URL", "http://localhost:5000")
	v.SetDefault("SCORER_TIMEOUT", "10s")
	v.SetDefault("SUMMARY_CACHE_TTL", "5m")
	v.SetDefault("KAFKA_TOPIC", "patient-risk-events")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("BODY_LIMIT", "1M")

	// Unmarshal only sees keys viper knows about.
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(cfg.CORSOrigins, v.GetString("CORS_ORIGINS"))
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers, v.GetString("KAFKA_BROKERS"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.IsDev() && cfg.StoreDriver == StoreMemory {
		log.Println("WARNING: STORE_DRIVER=memory keeps patients in process memory; data is lost on restart.")
	}

	return cfg, nil
}

// splitList normalizes a comma-separated env value. Viper hands back a single
// element holding the raw string when the value came from the environment.
func splitList(parsed []string, raw string) []string {
	if len(parsed) > 1 {
		return parsed
	}
	if len(parsed) == 1 {
		raw = parsed[0]
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// UsesPostgres reports whether patients are stored in PostgreSQL.
func (c *Config) UsesPostgres() bool {
	return c.StoreDriver == StorePostgres
}

// Validate checks that the configuration is usable before any connection is
// opened.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is %q", StorePostgres)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StorePostgres, StoreMemory, c.StoreDriver)
	}

	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 1, got %d", c.DBMaxConns)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}

	u, err := url.Parse(c.ScorerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("SCORER_URL must be an absolute http(s) URL, got %q", c.ScorerURL)
	}
	if c.ScorerTimeout <= 0 {
		return fmt.Errorf("SCORER_TIMEOUT must be positive, got %s", c.ScorerTimeout)
	}

	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return nil
}
