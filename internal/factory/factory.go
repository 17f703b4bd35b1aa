package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/gamehub-console/internal/backend"
	"github.com/mcoot/gamehub-console/internal/dependencies/clock"
	"github.com/mcoot/gamehub-console/internal/dependencies/random"
	"github.com/mcoot/gamehub-console/internal/modules"
	"github.com/mcoot/gamehub-console/internal/services/auth"
	"github.com/mcoot/gamehub-console/internal/services/forms"
	"github.com/mcoot/gamehub-console/internal/services/listing"
	"github.com/mcoot/gamehub-console/internal/services/profile"
	"github.com/mcoot/gamehub-console/internal/services/stats"
	"github.com/mcoot/gamehub-console/internal/storage"
	"github.com/mcoot/gamehub-console/internal/storage/memory"
	redisstorage "github.com/mcoot/gamehub-console/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock   clock.Clock
	Random  random.Random
	Backend *backend.Client

	// Module definitions
	Registry *modules.Registry

	// Services
	AuthService    *auth.Service
	ListingService *listing.Service
	Binder         *forms.Binder
	FormService    *forms.Service
	ProfileService *profile.Service
	StatsService   *stats.Service
}

// Config holds configuration for the application factory
type Config struct {
	// Backend holds the GameHub API location and timeout
	// If zero value, defaults to backend.DefaultConfig()
	Backend backend.Config
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	return newWithDependencies(store, clk, rnd, cfg.Backend, authCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, backendCfg backend.Config, authCfg auth.Config, logger *slog.Logger) *App {
	client := backend.New(backendCfg, logger)
	registry := modules.Default()

	// Create services
	authService := auth.New(client, store, clk, rnd, authCfg)
	listingService := listing.New(client, store, logger)
	authService.OnClear(listingService.ForgetOptions)
	binder := forms.NewBinder(store, rnd)
	formService := forms.New(client, binder, logger)
	profileService := profile.New(client, authService, binder, logger)
	statsService := stats.New(client, logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		Backend:        client,
		Registry:       registry,
		AuthService:    authService,
		ListingService: listingService,
		Binder:         binder,
		FormService:    formService,
		ProfileService: profileService,
		StatsService:   statsService,
	}
}
