package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv    string
	OutputDir string

	OrdersAPIURL          string
	OrdersAPITimeoutMs    int
	OrdersAPIRateLimitRPS int
	OrdersAPIMaxAttempts  int
	DefaultStatus         string
	DefaultLookbackDays   int
	Timezone              string

	StateBackend       string
	DBPath             string
	RedisHost          string
	RedisPort          int
	RedisPassword      string
	RedisDB            int
	RedisSessionTTLMin int

	ItemRulesPath string

	LogLevel  string
	LogFormat string

	MonitorIntervalSec int
	MonitorAutoExport  bool
	MetricsAddr        string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:    getEnv("APP_ENV", "production"),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		OrdersAPIURL:          getEnv("ORDERS_API_URL", "https://api.purissima.com/receituario/get-orders.php"),
		OrdersAPITimeoutMs:    getEnvInt("ORDERS_API_TIMEOUT_MS", 30000),
		OrdersAPIRateLimitRPS: getEnvInt("ORDERS_API_RATE_LIMIT_RPS", 2),
		OrdersAPIMaxAttempts:  getEnvInt("ORDERS_API_MAX_ATTEMPTS", 3),
		DefaultStatus:         getEnv("DEFAULT_STATUS", "released"),
		DefaultLookbackDays:   getEnvInt("DEFAULT_LOOKBACK_DAYS", 30),
		Timezone:              getEnv("TIMEZONE", "America/Sao_Paulo"),

		StateBackend:       strings.ToLower(getEnv("STATE_BACKEND", "memory")),
		DBPath:             getEnv("DB_PATH", filepath.Join(cwd, "data", "state.db")),
		RedisHost:          getEnv("REDIS_HOST", "localhost"),
		RedisPort:          getEnvInt("REDIS_PORT", 6379),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		RedisSessionTTLMin: getEnvInt("REDIS_SESSION_TTL_MIN", 720),

		ItemRulesPath: getEnv("ITEM_RULES_PATH", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MonitorIntervalSec: getEnvInt("MONITOR_INTERVAL_SEC", 300),
		MonitorAutoExport:  getEnvBool("MONITOR_AUTO_EXPORT", true),
		MetricsAddr:        getEnv("METRICS_ADDR", ":9090"),
	}

	switch cfg.StateBackend {
	case "memory", "sqlite", "redis":
	default:
		return Config{}, fmt.Errorf("unsupported STATE_BACKEND: %s", cfg.StateBackend)
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// Location resolves Timezone, falling back to UTC when the zone database lacks it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil || loc == nil {
		return time.UTC
	}
	return loc
}

func (c Config) OrdersAPITimeout() time.Duration {
	return time.Duration(c.OrdersAPITimeoutMs) * time.Millisecond
}

func (c Config) RedisSessionTTL() time.Duration {
	return time.Duration(c.RedisSessionTTLMin) * time.Minute
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
