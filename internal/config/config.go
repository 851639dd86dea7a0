package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type Config struct {
	BindAddress    string        `yaml:"bind_address"`
	UnixSocketPath string        `yaml:"unix_socket"`
	Store          string        `yaml:"store"`
	Redis          RedisConfig   `yaml:"redis"`
	CalendarID     string        `yaml:"calendar_id"`
	StrictDates    bool          `yaml:"strict_dates"`
	Seed           bool          `yaml:"seed"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	LogLevel       string        `yaml:"log_level"`
	EnableTray     bool          `yaml:"enable_tray"`
}

func Defaults() Config {
	return Config{
		BindAddress: "127.0.0.1:8080",
		Store:       StoreMemory,
		Redis: RedisConfig{
			Addr:   "127.0.0.1:6379",
			Prefix: "scheduler:",
		},
		CalendarID:     "cal1",
		Seed:           true,
		RequestTimeout: 10 * time.Second,
		LogLevel:       "info",
	}
}

// Load layers, from lowest to highest precedence: defaults, the YAML file
// named by SCHED_CONFIG, PORT, and SCHED_* variables.
func Load() (Config, error) {
	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("SCHED_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.BindAddress = net.JoinHostPort("0.0.0.0", port)
	}

	cfg.BindAddress = getenvDefault("SCHED_BIND_ADDRESS", cfg.BindAddress)
	cfg.UnixSocketPath = getenvDefault("SCHED_UNIX_SOCKET", cfg.UnixSocketPath)
	cfg.Store = strings.ToLower(getenvDefault("SCHED_STORE", cfg.Store))
	cfg.Redis.Addr = getenvDefault("SCHED_REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getenvDefault("SCHED_REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getenvInt("SCHED_REDIS_DB", cfg.Redis.DB)
	cfg.Redis.Prefix = getenvDefault("SCHED_REDIS_PREFIX", cfg.Redis.Prefix)
	cfg.CalendarID = getenvDefault("SCHED_CALENDAR_ID", cfg.CalendarID)
	cfg.StrictDates = getenvBool("SCHED_STRICT_DATES", cfg.StrictDates)
	cfg.Seed = getenvBool("SCHED_SEED", cfg.Seed)
	cfg.RequestTimeout = getenvDuration("SCHED_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.LogLevel = getenvDefault("SCHED_LOG_LEVEL", cfg.LogLevel)
	cfg.EnableTray = getenvBool("SCHED_ENABLE_TRAY", cfg.EnableTray)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.BindAddress == "" && c.UnixSocketPath == "" {
		return errors.New("either bind address or unix socket path must be configured")
	}
	if c.BindAddress != "" {
		if _, _, err := net.SplitHostPort(c.BindAddress); err != nil {
			return fmt.Errorf("invalid bind address %q: %w", c.BindAddress, err)
		}
	}
	switch c.Store {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.Addr == "" {
			return errors.New("SCHED_REDIS_ADDR is required when store=redis")
		}
		if c.Redis.DB < 0 {
			return errors.New("redis db must be >= 0")
		}
	default:
		return fmt.Errorf("unsupported store: %q", c.Store)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be > 0")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
