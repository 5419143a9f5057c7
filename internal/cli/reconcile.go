package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/missions-backend/internal/app"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Issue certificates for completed journeys that have none",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		application, err := app.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("init app: %w", err)
		}
		defer application.Close()

		res := application.Reconcile(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "pending=%d issued=%d failed=%d\n", res.Pending, res.Issued, res.Failed)
		if res.Failed > 0 {
			return fmt.Errorf("%d certificates could not be issued", res.Failed)
		}
		return nil
	},
}
