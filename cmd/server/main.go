// Package main is the entry point for the Verre backend: the HTTP server and
// a couple of provider diagnostics.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verre/backend/config"
)

const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "verre",
	Short: "Wine discovery backend",
	Long: `verre serves nearby wine-menu discovery, retail wine search, the place
photo proxy and the sommelier endpoints.

Run without a subcommand to start the HTTP server. The probe and geocode
subcommands exercise a single provider call for debugging.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and installs the global logger
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg.Server.Environment)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
