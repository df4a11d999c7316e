package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hakim/nativerecon/internal/report"
	"github.com/hakim/nativerecon/internal/storage"
)

var reportOutput string

var reportCmd = &cobra.Command{
	Use:   "report <results.json>",
	Short: "Regenerate HTML and markdown reports from a saved result",
	Long: `Load a results.json written by a previous scan and render report.html and
report.md again, using the display limits of the current configuration.
Reports are written next to the results file unless --output is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scan, err := report.LoadResults(args[0])
		if err != nil {
			return err
		}

		outputDir := reportOutput
		if outputDir == "" {
			outputDir = filepath.Dir(args[0])
		}
		if err := storage.EnsureDir(outputDir); err != nil {
			return fmt.Errorf("creating %s: %w", outputDir, err)
		}

		paths, err := report.Generate(scan, outputDir, reportLimits(cfg))
		if err != nil {
			return err
		}

		summary := scan.Summary()
		fmt.Printf("%s Reports for %s (%d subdomains, %d ports, %d services, %d findings)\n",
			color.GreenString("[+]"), scan.Target, summary.Subdomains, summary.Ports, summary.Services, summary.Findings)
		fmt.Printf("    HTML report: %s\n", color.CyanString(paths.HTML))
		fmt.Printf("    Markdown:    %s\n", color.CyanString(paths.Markdown))
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "directory to write reports into")
	rootCmd.AddCommand(reportCmd)
}
