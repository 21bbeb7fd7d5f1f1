package cmd

import (
	"sjsage522/pricescout/internal/api"
	"sjsage522/pricescout/logger"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run scheduled sweeps",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from $HTTP_ADDR or :8080)")
	serveCmd.Flags().Bool("no-schedule", false, "Disable the scheduled sweep")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Default

	addr := cfg.HTTPAddr
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		addr = v
	}
	noSchedule, _ := cmd.Flags().GetBool("no-schedule")

	ctx, stop := signalContext()
	defer stop()

	deps, err := buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	log.Info().
		Str("environment", cfg.Environment).
		Str("addr", addr).
		Str("schedule", cfg.SweepSchedule).
		Bool("credential", cfg.HasCredential()).
		Msg("Starting application")

	workerDone := make(chan error, 1)
	if !noSchedule {
		go func() {
			err := deps.Worker.Start(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Worker exited with error")
				stop()
			}
			workerDone <- err
		}()
	}

	server := api.NewServer(deps.Searcher, deps.Worker, deps.Metrics.Registry)
	if err := server.ListenAndServe(ctx, addr); err != nil {
		return err
	}

	if !noSchedule {
		if err := <-workerDone; err != nil {
			return err
		}
	}
	log.Info().Msg("Shut down gracefully")
	return nil
}
