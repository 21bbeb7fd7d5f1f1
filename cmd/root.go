package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/pricescout/config"
	"sjsage522/pricescout/internal"
	"sjsage522/pricescout/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "pricescout",
	Short: "Price comparison scraping and normalization pipeline",
	Long:  "pricescout scrapes store search pages through a scraping proxy, normalizes the results and keeps tracked categories fresh.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a .env file to load")
	rootCmd.PersistentFlags().String("store-driver", "", "Override STORE_DRIVER: sqlite, postgres, none")
	rootCmd.PersistentFlags().String("cache", "", "Override CACHE_BACKEND: memory, memcache, none")
}

func initConfig(cmd *cobra.Command) error {
	// Load environment variables
	envFile, _ := cmd.Flags().GetString("env-file")
	_ = godotenv.Load(envFile)

	// Initialize logger first
	logger.Init()

	cfg = config.LoadConfig()
	if v, _ := cmd.Flags().GetString("store-driver"); v != "" {
		cfg.StoreDriver = v
	}
	if v, _ := cmd.Flags().GetString("cache"); v != "" {
		cfg.CacheBackend = v
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func buildDependencies(ctx context.Context) (*internal.Dependencies, error) {
	deps, err := internal.NewDependencies(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return deps, nil
}
