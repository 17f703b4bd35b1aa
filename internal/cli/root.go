package cli

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/gamehub-console/internal/backend"
	"github.com/mcoot/gamehub-console/internal/modules"
)

// ErrNotLoggedIn is returned by commands that need a token when none is stored
var ErrNotLoggedIn = errors.New("not logged in: run 'gamehubctl login' first")

var (
	cfg      *Config
	client   *backend.Client
	registry *modules.Registry
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()
	registry = modules.Default()

	rootCmd := &cobra.Command{
		Use:   "gamehubctl",
		Short: "Admin CLI for the GameHub REST API",
		Long: `gamehubctl drives the GameHub REST API from a terminal.

It signs in with the same credentials as the web console and can list,
inspect and delete catalog records and show the statistics dashboard.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.LoadToken(); err != nil {
				return err
			}

			client = backend.New(backend.Config{BaseURL: cfg.APIURL, Timeout: cfg.Timeout}, newLogger(cmd.ErrOrStderr()))
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.APIURL, "api", cfg.APIURL, "GameHub API URL (env: GAMEHUB_API)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Bearer token (env: GAMEHUB_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Token file path (env: GAMEHUB_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Request timeout")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Log API requests to stderr")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newMeCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func requireToken() (string, error) {
	if cfg.Token == "" {
		return "", ErrNotLoggedIn
	}
	return cfg.Token, nil
}

func output(cmd *cobra.Command) *Output {
	return NewOutput(cfg.Output, cmd.OutOrStdout())
}
