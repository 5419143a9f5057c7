package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/missions-backend/internal/app"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the curriculum (journeys, missions, cards, questions)",
	Long:  "Upserts the curriculum by id. Without --file the built-in curriculum is used. Safe to run repeatedly.",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
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
		res, err := app.Seed(cmd.Context(), log, pg.DB(), file)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d journeys, %d missions, %d cards, %d questions\n",
			res.Journeys, res.Missions, res.Cards, res.Questions)
		return nil
	},
}

func init() {
	seedCmd.Flags().String("file", "", "Curriculum YAML file (default: built-in curriculum)")
}
