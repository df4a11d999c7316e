package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hakim/nativerecon/internal/config"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "nativerecon -t <domain> [-o <dir>]",
	Short: "Reconnaissance pipeline built on standard system tools",
	Long: `nativerecon runs a four-phase reconnaissance pipeline against a domain
using only tools shipped with common security distributions:

  1. Subdomain discovery   host, dig (NS + AXFR), curl (crt.sh)
  2. Port scanning         nmap
  3. Service enumeration   curl -I
  4. Vulnerability scan    nikto

Raw tool output, the subdomain list, a full JSON result document and HTML
and markdown reports are written to the output directory.

For authorized security testing only.`,
	Example: `  nativerecon -t example.com
  nativerecon -t example.com -o /tmp/example-recon
  nativerecon -t example.com --skip vulnscan`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verbose)

		// Skip config loading for commands that don't need it
		skipConfig := map[string]bool{
			"init":    true,
			"help":    true,
			"version": true,
		}
		if skipConfig[cmd.Name()] {
			return nil
		}

		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded

		if cfg.Source != "" {
			log.Debug().Str("path", cfg.Source).Msg("config loaded")
		} else {
			log.Debug().Msg("no config file found, using defaults")
		}
		return nil
	},
	RunE: runScan,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: search for nativerecon.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")

	registerScanFlags(rootCmd)

	rootCmd.Version = "0.1.0-dev"
}

// setupLogging routes the global zerolog logger to a console writer on stderr
func setupLogging(verbose bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
