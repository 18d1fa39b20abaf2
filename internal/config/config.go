package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configPathEnv = "RECOMMENDER_CONFIG"

// Config holds all configuration for the recommender.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Redis     RedisConfig     `yaml:"redis"`
	TMDB      TMDBConfig      `yaml:"tmdb"`
	Engine    EngineConfig    `yaml:"engine"`
	Port      string          `yaml:"port"`
	LogLevel  string          `yaml:"logLevel"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
}

// StoreConfig selects and configures the interaction store.
type StoreConfig struct {
	Driver     string   `yaml:"driver"`
	SQLitePath string   `yaml:"sqlitePath"`
	Postgres   DBConfig `yaml:"postgres"`
}

// DBConfig holds PostgreSQL configuration.
type DBConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	DBName      string `yaml:"dbName"`
	SSLMode     string `yaml:"sslMode"`
	SSLRootCert string `yaml:"sslRootCert"`
}

// DSN returns the PostgreSQL connection string.
func (d DBConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
	if d.SSLRootCert != "" {
		dsn += fmt.Sprintf(" sslrootcert=%s", d.SSLRootCert)
	}
	return dsn
}

// RedisConfig holds Redis configuration. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// TMDBConfig holds TMDB API configuration.
type TMDBConfig struct {
	APIKey    string        `yaml:"apiKey"`
	BaseURL   string        `yaml:"baseUrl"`
	Region    string        `yaml:"region"`
	RateLimit float64       `yaml:"rateLimit"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheTTL  time.Duration `yaml:"cacheTtl"`
}

// EngineConfig tunes candidate aggregation.
type EngineConfig struct {
	SeedLimit        int `yaml:"seedLimit"`
	TargetPoolSize   int `yaml:"targetPoolSize"`
	MaxFallbackPages int `yaml:"maxFallbackPages"`
	HydrateWorkers   int `yaml:"hydrateWorkers"`
}

// RateLimitConfig configures the HTTP rate limiter.
type RateLimitConfig struct {
	Max           int `yaml:"max"`
	WindowSeconds int `yaml:"windowSeconds"`
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in that order of precedence (environment wins).
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		slog.Debug("loaded config file", "path", path)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Validate reports configuration that makes the program unable to run.
func (c *Config) Validate() error {
	if c.TMDB.APIKey == "" {
		return errors.New("TMDB_API_KEY is required")
	}
	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "sqlite" && c.Store.SQLitePath == "" {
		return errors.New("SQLITE_PATH is required for the sqlite store")
	}
	if c.Engine.SeedLimit < 0 || c.Engine.TargetPoolSize < 1 || c.Engine.MaxFallbackPages < 1 {
		return errors.New("engine limits must be positive")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:     "sqlite",
			SQLitePath: "recommender.db",
			Postgres: DBConfig{
				Host:    "localhost",
				Port:    5432,
				User:    "postgres",
				DBName:  "recommender",
				SSLMode: "disable",
			},
		},
		TMDB: TMDBConfig{
			BaseURL:   "https://api.themoviedb.org/3",
			Region:    "US",
			RateLimit: 20,
			Timeout:   15 * time.Second,
			CacheTTL:  5 * time.Minute,
		},
		Engine: EngineConfig{
			SeedLimit:        5,
			TargetPoolSize:   20,
			MaxFallbackPages: 5,
			HydrateWorkers:   4,
		},
		Port:     "8083",
		LogLevel: "info",
		RateLimit: RateLimitConfig{
			Max:           100,
			WindowSeconds: 60,
		},
	}
}

func (c *Config) applyEnvOverrides() {
	c.Store.Driver = getEnv("STORE_DRIVER", c.Store.Driver)
	c.Store.SQLitePath = getEnv("SQLITE_PATH", c.Store.SQLitePath)

	c.Store.Postgres.Host = getEnv("DB_HOST", c.Store.Postgres.Host)
	c.Store.Postgres.Port = getEnvInt("DB_PORT", c.Store.Postgres.Port)
	c.Store.Postgres.User = getEnv("DB_USER", c.Store.Postgres.User)
	c.Store.Postgres.Password = getEnv("DB_PASSWORD", c.Store.Postgres.Password)
	c.Store.Postgres.DBName = getEnv("DB_NAME", c.Store.Postgres.DBName)
	c.Store.Postgres.SSLMode = getEnv("DB_SSLMODE", c.Store.Postgres.SSLMode)
	c.Store.Postgres.SSLRootCert = getEnv("DB_SSLROOTCERT", c.Store.Postgres.SSLRootCert)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)

	c.TMDB.APIKey = getEnv("TMDB_API_KEY", c.TMDB.APIKey)
	c.TMDB.BaseURL = getEnv("TMDB_BASE_URL", c.TMDB.BaseURL)
	c.TMDB.Region = getEnv("TMDB_REGION", c.TMDB.Region)
	c.TMDB.RateLimit = getEnvFloat("TMDB_RATE_LIMIT", c.TMDB.RateLimit)

	c.Engine.SeedLimit = getEnvInt("SEED_LIMIT", c.Engine.SeedLimit)
	c.Engine.TargetPoolSize = getEnvInt("TARGET_POOL_SIZE", c.Engine.TargetPoolSize)
	c.Engine.MaxFallbackPages = getEnvInt("MAX_FALLBACK_PAGES", c.Engine.MaxFallbackPages)
	c.Engine.HydrateWorkers = getEnvInt("HYDRATE_WORKERS", c.Engine.HydrateWorkers)

	c.Port = getEnv("SERVER_PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.RateLimit.Max = getEnvInt("RATE_LIMIT_MAX", c.RateLimit.Max)
	c.RateLimit.WindowSeconds = getEnvInt("RATE_LIMIT_WINDOW_SECONDS", c.RateLimit.WindowSeconds)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("ignoring non-integer environment value", "key", key, "value", v)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		slog.Warn("ignoring non-numeric environment value", "key", key, "value", v)
	}
	return fallback
}
