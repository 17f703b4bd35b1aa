package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds CLI configuration
type Config struct {
	APIURL    string
	Token     string
	TokenFile string
	Output    string
	Timeout   time.Duration
	Verbose   bool
}

// DefaultConfig returns a Config with values from the environment
func DefaultConfig() *Config {
	return &Config{
		APIURL:    getEnvOrDefault("GAMEHUB_API", "http://localhost:3000"),
		Token:     os.Getenv("GAMEHUB_TOKEN"),
		TokenFile: getEnvOrDefault("GAMEHUB_TOKEN_FILE", defaultTokenFile()),
		Output:    "text",
		Timeout:   15 * time.Second,
	}
}

// LoadToken reads the token file unless a token was given directly
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken writes the token file readable by the owner only
func (c *Config) SaveToken(token string) error {
	c.Token = token

	if err := os.MkdirAll(filepath.Dir(c.TokenFile), 0o700); err != nil {
		return err
	}
	return os.WriteFile(c.TokenFile, []byte(token), 0o600)
}

// ClearToken removes the token file. A missing file is not an error.
func (c *Config) ClearToken() error {
	c.Token = ""
	if err := os.Remove(c.TokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".gamehub", "token")
	}
	return filepath.Join(home, ".gamehub", "token")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
