// Package config loads the console's runtime configuration from the
// environment, with optional .env files for local development.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage types
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config holds all runtime settings of the console server
type Config struct {
	Host           string
	Port           int
	APIURL         string
	BackendTimeout time.Duration
	StorageType    string
	RedisURL       string
	SessionTTL     time.Duration
	CookieSecure   bool
	LogLevel       slog.Level
}

// Default returns the settings used when no variables are set
func Default() Config {
	return Config{
		Port:           8080,
		APIURL:         "http://localhost:3000",
		BackendTimeout: 15 * time.Second,
		StorageType:    StorageMemory,
		SessionTTL:     24 * time.Hour,
		LogLevel:       slog.LevelInfo,
	}
}

// Addr returns the listen address
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Load reads .env and .env.local if present, then the environment.
// Variables already set in the environment win over file values.
func Load() (Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
	return FromEnv()
}

// FromEnv builds the config from environment variables only
func FromEnv() (Config, error) {
	cfg := Default()
	var err error

	cfg.Host = os.Getenv("CONSOLE_HOST")
	if v, ok := lookup("CONSOLE_PORT"); ok {
		cfg.Port, err = strconv.Atoi(v)
		if err != nil || cfg.Port < 0 || cfg.Port > 65535 {
			return Config{}, fmt.Errorf("invalid CONSOLE_PORT %q", v)
		}
	}

	if v, ok := lookup("GAMEHUB_API_URL"); ok {
		u, err := url.Parse(v)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return Config{}, fmt.Errorf("invalid GAMEHUB_API_URL %q", v)
		}
		cfg.APIURL = strings.TrimRight(v, "/")
	}

	if v, ok := lookup("BACKEND_TIMEOUT"); ok {
		if cfg.BackendTimeout, err = parseDuration("BACKEND_TIMEOUT", v); err != nil {
			return Config{}, err
		}
	}
	if v, ok := lookup("SESSION_TTL"); ok {
		if cfg.SessionTTL, err = parseDuration("SESSION_TTL", v); err != nil {
			return Config{}, err
		}
	}

	if v, ok := lookup("STORAGE_TYPE"); ok {
		cfg.StorageType = strings.ToLower(v)
	}
	cfg.RedisURL = os.Getenv("REDIS_URL")
	switch cfg.StorageType {
	case StorageMemory:
	case StorageRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL required when STORAGE_TYPE=%s", StorageRedis)
		}
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_TYPE %q: must be %q or %q", cfg.StorageType, StorageMemory, StorageRedis)
	}

	if v, ok := lookup("COOKIE_SECURE"); ok {
		if cfg.CookieSecure, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("invalid COOKIE_SECURE %q", v)
		}
	}

	if v, ok := lookup("LOG_LEVEL"); ok {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL %q", v)
		}
	}

	return cfg, nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func parseDuration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}
