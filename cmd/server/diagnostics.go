package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verre/backend/internal/infrastructure/menuprobe"
)

var probeCmd = &cobra.Command{
	Use:   "probe <website>",
	Short: "Check whether a website publishes a wine menu",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		website := ""
		if len(args) > 0 {
			website = args[0]
		}
		mapsURL, _ := cmd.Flags().GetString("maps-url")
		if website == "" && mapsURL == "" {
			return fmt.Errorf("a website or --maps-url is required")
		}

		for _, candidate := range menuprobe.Candidates(website, mapsURL) {
			logger.Debug("candidate", zap.String("url", candidate))
		}
		result := menuprobe.NewProber(cfg.Probe.Timeout).Probe(cmd.Context(), website, mapsURL)
		return printJSON(result)
	},
}

var geocodeCmd = &cobra.Command{
	Use:   "geocode <zip>",
	Short: "Resolve a 5-digit US ZIP code to coordinates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		result := newGoogleClient(cfg).GeocodeZip(cmd.Context(), args[0])
		if err := printJSON(result); err != nil {
			return err
		}
		if !result.OK {
			return fmt.Errorf("geocoding failed: %s", result.Reason)
		}
		return nil
	},
}

func init() {
	probeCmd.Flags().String("maps-url", "", "map listing URL tried after the site paths")

	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(geocodeCmd)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
