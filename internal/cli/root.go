package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yungbote/missions-backend/internal/app"
)

var rootCmd = &cobra.Command{
	Use:          "missions",
	Short:        "Vibe Coding Academy missions backend",
	Long:         "HTTP API for journeys, missions, quizzes and certificates. Runs the server when no subcommand is given.",
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the command tree; ctx is cancelled on SIGINT/SIGTERM.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (default: ./config/config.yaml or ./config.yaml when present)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(reconcileCmd)
}

func loadConfig(cmd *cobra.Command) (*app.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return app.LoadConfig(path)
}
