package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Credentials are the RoomBoss API user saved by `auth login`.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	BaseURL  string `json:"base_url,omitempty"`
	SavedAt  string `json:"saved_at,omitempty"`
}

func (c *Credentials) Complete() bool {
	return c != nil && c.Username != "" && c.Password != ""
}

// LoadCredentials returns nil, nil when nothing has been saved.
func LoadCredentials() (*Credentials, error) {
	path, err := CredentialsPath()
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("credentials path is a directory: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var creds Credentials
	if err := json.NewDecoder(file).Decode(&creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func SaveCredentials(creds *Credentials) error {
	if _, err := ensureConfigDir(); err != nil {
		return err
	}
	path, err := CredentialsPath()
	if err != nil {
		return err
	}
	if creds.SavedAt == "" {
		creds.SavedAt = time.Now().UTC().Format(time.RFC3339)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(creds)
}

func ClearCredentials() error {
	path, err := CredentialsPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}
