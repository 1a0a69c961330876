package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	hotelsFile   = "hotels.json"
	bookingsFile = "bookings.db"
	credsFile    = "credentials.json"

	configDirEnv = "ROOMBOSS_CONFIG_DIR"
)

// ConfigDir is ~/.config/roomboss unless ROOMBOSS_CONFIG_DIR points elsewhere.
func ConfigDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(configDirEnv)); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "roomboss"), nil
}

func HotelsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, hotelsFile), nil
}

func BookingsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, bookingsFile), nil
}

func CredentialsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, credsFile), nil
}

func ensureConfigDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}
