package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/gamehub-console/internal/services/auth"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("GAMEHUB_PASSWORD")
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password (or GAMEHUB_PASSWORD) are required")
			}

			result, err := client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			if err := cfg.SaveToken(result.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := output(cmd)
			msg := fmt.Sprintf("Logged in as %s (%s)", result.User.Username, result.User.Role)
			if claims := auth.DecodeToken(result.Token); !claims.ExpiresAt.IsZero() {
				msg += fmt.Sprintf(", token expires %s", claims.ExpiresAt.UTC().Format(time.RFC3339))
			}
			out.PrintMessage(msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (env: GAMEHUB_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}
			output(cmd).PrintMessage("Logged out")
			return nil
		},
	}
}

func newMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireToken()
			if err != nil {
				return err
			}

			user, err := client.Me(cmd.Context(), token)
			if err != nil {
				return err
			}

			output(cmd).Print(user)
			return nil
		},
	}
}
