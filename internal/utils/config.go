package utils

import (
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// PostgresConfig describes the optional API key database.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// Config is the full service configuration.
type Config struct {
	Server struct {
		Host    string `yaml:"host"`
		Port    string `yaml:"port"`
		Prefork bool   `yaml:"prefork"`
	} `yaml:"server"`

	Logger struct {
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
		Level      string `yaml:"level"`
	} `yaml:"logger"`

	Cache struct {
		// Backend is "memory" or "redis".
		Backend     string        `yaml:"backend"`
		RedisHost   string        `yaml:"redis_host"`
		RedisDB     int           `yaml:"redis_db"`
		RateLimitDB int           `yaml:"rate_limit_db"`
		TTL         time.Duration `yaml:"ttl"`
		IdleTTL     time.Duration `yaml:"idle_ttl"`
		MaxEntries  int           `yaml:"max_entries"`
	} `yaml:"cache"`

	Render struct {
		DefaultSize     int           `yaml:"default_size"`
		MinSize         int           `yaml:"min_size"`
		MaxSize         int           `yaml:"max_size"`
		MaxContentBytes int           `yaml:"max_content_bytes"`
		LogoTimeout     time.Duration `yaml:"logo_timeout"`
	} `yaml:"render"`

	RateLimiter struct {
		EnableUserLimiter bool          `yaml:"enable_user_limiter"`
		UserLimit         int           `yaml:"user_limit"`
		Interval          time.Duration `yaml:"interval"`
	} `yaml:"rate_limiter"`

	Auth struct {
		Postgres PostgresConfig `yaml:"postgres"`
	} `yaml:"auth"`
}

var currentConfig struct {
	sync.RWMutex
	cfg Config
}

// LoadConfig reads the yaml config from CONFIG_PATH (default config.yaml),
// applies defaults and environment overrides, and remembers the result for
// GetConfig. A missing file yields a default configuration.
func LoadConfig() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return LoadConfigFrom(path)
}

// LoadConfigFrom is LoadConfig for an explicit path, mainly for tests.
func LoadConfigFrom(path string) Config {
	var cfg Config

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			Warn("Config file is not valid yaml, using defaults", "path", path, "error", err)
			cfg = Config{}
		}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	currentConfig.Lock()
	currentConfig.cfg = cfg
	currentConfig.Unlock()
	return cfg
}

// GetConfig returns the last loaded configuration.
func GetConfig() Config {
	currentConfig.RLock()
	defer currentConfig.RUnlock()
	return currentConfig.cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = time.Hour
	}
	if cfg.Cache.IdleTTL <= 0 {
		cfg.Cache.IdleTTL = 30 * time.Minute
	}
	if cfg.Cache.MaxEntries <= 0 {
		cfg.Cache.MaxEntries = 1000
	}
	if cfg.Render.DefaultSize <= 0 {
		cfg.Render.DefaultSize = 512
	}
	if cfg.Render.MinSize <= 0 {
		cfg.Render.MinSize = 64
	}
	if cfg.Render.MaxSize <= 0 {
		cfg.Render.MaxSize = 2048
	}
	if cfg.Render.MaxContentBytes <= 0 {
		cfg.Render.MaxContentBytes = 2048
	}
	if cfg.Render.LogoTimeout <= 0 {
		cfg.Render.LogoTimeout = 5 * time.Second
	}
	if cfg.RateLimiter.Interval <= 0 {
		cfg.RateLimiter.Interval = time.Minute
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		cfg.Cache.RedisHost = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("CACHE_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Cache.MaxEntries = n
		}
	}
}
