package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/app"
)

func init() {
	recalcCmd.Flags().StringVar(&recalcHabit, "habit", "", "Recalculate only this habit id")
	rootCmd.AddCommand(recalcCmd)
}

var recalcHabit string

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recompute streaks and achievements, then exit",
	Long: `Recompute the stored streaks and award pending achievements for every
active habit, or for one habit with --habit. This is the job the server
runs on RECALC_SCHEDULE.`,
	Args: cobra.NoArgs,
	RunE: runRecalc,
}

func runRecalc(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.Recalculate(ctx, recalcHabit)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recalculated %d habit(s)\n", n)
	return nil
}
