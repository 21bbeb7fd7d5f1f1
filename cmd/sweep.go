package cmd

import (
	"encoding/json"
	"os"

	"sjsage522/pricescout/config"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one sweep over the tracked categories now",
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().StringSlice("categories", nil, "Categories to sweep (default from the sweep plan)")
	sweepCmd.Flags().StringSlice("stores", nil, "Stores to sweep (default from the sweep plan)")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	categories, _ := cmd.Flags().GetStringSlice("categories")
	stores, _ := cmd.Flags().GetStringSlice("stores")

	ctx, stop := signalContext()
	defer stop()

	deps, err := buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	plan, err := cfg.Plan()
	if err != nil {
		return err
	}
	plan = overridePlan(plan, categories, stores)

	report, err := deps.Worker.RunSweep(ctx, plan.Categories, plan.Stores)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func overridePlan(plan *config.SweepPlan, categories, stores []string) *config.SweepPlan {
	out := *plan
	if len(categories) > 0 {
		out.Categories = categories
	}
	if len(stores) > 0 {
		out.Stores = stores
	}
	return &out
}
