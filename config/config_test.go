package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"ROOMBOSS_API_URL", "ROOMBOSS_TIMEOUT", "ROOMBOSS_COUNTRY", "ROOMBOSS_RATE_TTL", "ROOMBOSS_BOOKING_EXTENT", "REDIS_URL"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "https://api.roomboss.com", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, "JP", cfg.Defaults.CountryCode)
	assert.Equal(t, 15*time.Minute, cfg.Booking.RateTTL)
	assert.Equal(t, "RESERVATION", cfg.Booking.Extent)
	assert.Empty(t, cfg.Redis.URL)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ROOMBOSS_API_URL", "https://sandbox.roomboss.test")
	t.Setenv("ROOMBOSS_TIMEOUT", "3s")
	t.Setenv("ROOMBOSS_LOCATION", "hakuba")
	t.Setenv("ROOMBOSS_RATE_TTL", "not-a-duration")
	t.Setenv("LOG_MAX_BACKUPS", "7")

	cfg := FromEnv()
	assert.Equal(t, "https://sandbox.roomboss.test", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "HAKUBA", cfg.Defaults.LocationCode)
	assert.Equal(t, 15*time.Minute, cfg.Booking.RateTTL)
	assert.Equal(t, 7, cfg.Log.MaxBackups)
}

func TestLoad_ReadsDotEnvFromConfigDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ROOMBOSS_USERNAME=from-file\nROOMBOSS_PASSWORD=pw\n"), 0o600))

	t.Setenv("ROOMBOSS_USERNAME", "")
	os.Unsetenv("ROOMBOSS_USERNAME")
	t.Setenv("ROOMBOSS_PASSWORD", "from-env")

	cfg := Load(dir)
	assert.Equal(t, "from-file", cfg.API.Username)
	assert.Equal(t, "from-env", cfg.API.Password)
	t.Cleanup(func() { os.Unsetenv("ROOMBOSS_USERNAME") })
}
