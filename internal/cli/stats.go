package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/services/stats"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the statistics dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireToken()
			if err != nil {
				return err
			}

			service := stats.New(client, newLogger(cmd.ErrOrStderr()))
			view, err := service.Load(cmd.Context(), &model.AuthSession{Token: token})
			if err != nil {
				return err
			}

			output(cmd).Print(view)
			return nil
		},
	}
}
