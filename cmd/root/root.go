package root

import (
	"log/slog"

	"github.com/dinerozz/tracking-backend/cmd/experiment"
	"github.com/dinerozz/tracking-backend/cmd/migrate"
	"github.com/dinerozz/tracking-backend/cmd/token"
	"github.com/dinerozz/tracking-backend/config"
	"github.com/dinerozz/tracking-backend/server"
	"github.com/spf13/cobra"
)

func GetRootCmd(config *config.Config, logger *slog.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tracking-backend",
		Short:         "Visitor tracking and experiments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.RunServer(config, logger)
		},
	})

	rootCmd.AddCommand(migrate.GetMigrateCmd(config.DB.DSN()))
	rootCmd.AddCommand(experiment.GetExperimentCmd(config, logger))
	rootCmd.AddCommand(token.GetTokenCmd(config.Auth))

	return rootCmd
}
