package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	API      APIConfig
	Defaults DefaultsConfig
	Booking  BookingConfig
	Redis    RedisConfig
	Log      LogConfig
}

type APIConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

type DefaultsConfig struct {
	CountryCode  string
	LocationCode string
	Locale       string
}

type BookingConfig struct {
	RateTTL        time.Duration
	Extent         string
	IdempotencyTTL time.Duration
}

type RedisConfig struct {
	URL string
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Load reads .env files (working directory first, then the config dir) and
// builds the config from the environment. Variables already set in the
// process environment are never overridden by a .env file.
func Load(configDir string) Config {
	loadDotEnv(".env")
	if configDir != "" {
		loadDotEnv(filepath.Join(configDir, ".env"))
	}
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		API: APIConfig{
			BaseURL:  getEnv("ROOMBOSS_API_URL", "https://api.roomboss.com"),
			Username: getEnv("ROOMBOSS_USERNAME", ""),
			Password: getEnv("ROOMBOSS_PASSWORD", ""),
			Timeout:  getDuration("ROOMBOSS_TIMEOUT", 15*time.Second),
		},
		Defaults: DefaultsConfig{
			CountryCode:  strings.ToUpper(getEnv("ROOMBOSS_COUNTRY", "JP")),
			LocationCode: strings.ToUpper(getEnv("ROOMBOSS_LOCATION", "")),
			Locale:       getEnv("ROOMBOSS_LOCALE", "en"),
		},
		Booking: BookingConfig{
			RateTTL:        getDuration("ROOMBOSS_RATE_TTL", 15*time.Minute),
			Extent:         strings.ToUpper(getEnv("ROOMBOSS_BOOKING_EXTENT", "RESERVATION")),
			IdempotencyTTL: getDuration("ROOMBOSS_IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getInt("LOG_MAX_SIZE_MB", 10),
			MaxBackups: getInt("LOG_MAX_BACKUPS", 3),
		},
	}
}

func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return i
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}
