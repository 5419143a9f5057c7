package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/missions-backend/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and unique indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := app.NewLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		pg, err := app.OpenDatabase(log, cfg)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.AutoMigrateAll(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}
