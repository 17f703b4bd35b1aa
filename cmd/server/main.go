package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/gamehub-console/internal/api"
	"github.com/mcoot/gamehub-console/internal/backend"
	"github.com/mcoot/gamehub-console/internal/config"
	"github.com/mcoot/gamehub-console/internal/factory"
	"github.com/mcoot/gamehub-console/internal/services/auth"
	redisstorage "github.com/mcoot/gamehub-console/internal/storage/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	factoryCfg := factory.Config{
		Backend:     backend.Config{BaseURL: cfg.APIURL, Timeout: cfg.BackendTimeout},
		AuthConfig:  auth.Config{SessionDuration: cfg.SessionTTL},
		Logger:      logger,
		StorageType: cfg.StorageType,
	}
	if cfg.StorageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.SessionTTL = cfg.SessionTTL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	if floor := cfg.BackendTimeout * 2; serverConfig.WriteTimeout < floor {
		serverConfig.WriteTimeout = floor
	}
	server := api.NewServer(app.Handler(logger, cfg.CookieSecure), serverConfig, logger)

	logger.Info("console started",
		slog.String("addr", server.Addr()),
		slog.String("api_url", cfg.APIURL),
		slog.String("storage", cfg.StorageType),
	)

	if err := serve(server); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// serve runs the server until SIGINT or SIGTERM
func serve(server *api.Server) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx)
}
