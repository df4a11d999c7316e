package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hakim/nativerecon/internal/models"
	"github.com/hakim/nativerecon/internal/pipeline"
	"github.com/hakim/nativerecon/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show scan history for a domain",
	Long: `Display a formatted table of past scans for a target domain.

Scans are listed newest-first. Each row shows the scan ID (truncated), start time,
final status, the phases that completed and the result counts.

Use --limit to cap the number of rows shown (default: 10) and --latest to show
the full record of the most recent scan.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Step 1: Get flags
		raw, _ := cmd.Flags().GetString("target")
		limit, _ := cmd.Flags().GetInt("limit")
		latest, _ := cmd.Flags().GetBool("latest")

		domain, err := pipeline.NormalizeTarget(raw)
		if err != nil {
			return err
		}

		// Step 2: Open bbolt store
		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		if latest {
			meta, err := store.GetLatestScan(domain)
			if err != nil {
				return fmt.Errorf("reading latest scan for %s: %w", domain, err)
			}
			if meta == nil {
				fmt.Printf("No scan history found for %s\n", domain)
				return nil
			}
			printScanDetail(meta)
			return nil
		}

		// Step 3: List scans (sorted newest-first by store.ListScans)
		scans, err := store.ListScans(domain)
		if err != nil {
			return fmt.Errorf("listing scans for %s: %w", domain, err)
		}

		if len(scans) == 0 {
			fmt.Printf("No scan history found for %s\n", domain)
			return nil
		}

		// Step 4: Apply limit
		if limit > 0 && len(scans) > limit {
			scans = scans[:limit]
		}

		// Step 5: Print formatted table
		separator := strings.Repeat("─", 96)

		fmt.Printf("\nScan History for %s\n", domain)
		fmt.Println(separator)
		fmt.Printf("  %-3s  %-12s  %-17s  %-12s  %-22s  %s\n", "#", "Scan ID", "Started", "Status", "Counts (S/P/W/F)", "Stages")
		fmt.Println(separator)

		for i, scan := range scans {
			fmt.Printf("  %-3d  %-12s  %-17s  %-12s  %-22s  %s\n",
				i+1,
				shortScanID(scan.ID),
				scan.StartedAt.Local().Format("2006-01-02 15:04"),
				formatStatus(scan.Status),
				formatCounts(scan.Summary),
				formatStages(scan.StagesRun))
		}

		fmt.Println(separator)
		fmt.Printf("Total: %d scan(s)\n\n", len(scans))

		return nil
	},
}

func printScanDetail(meta *models.ScanMeta) {
	fmt.Printf("Scan ID:     %s\n", meta.ID)
	fmt.Printf("Target:      %s\n", meta.Target)
	fmt.Printf("Status:      %s\n", formatStatus(meta.Status))
	fmt.Printf("Started:     %s\n", meta.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if meta.CompletedAt != nil {
		fmt.Printf("Finished:    %s (%s)\n", meta.CompletedAt.Local().Format("2006-01-02 15:04:05"),
			meta.CompletedAt.Sub(meta.StartedAt).Round(time.Second))
	}
	fmt.Printf("Output:      %s\n", meta.OutputDir)
	fmt.Printf("Stages:      %s\n", formatStages(meta.StagesRun))
	fmt.Printf("Subdomains:  %d\n", meta.Summary.Subdomains)
	fmt.Printf("Open ports:  %d\n", meta.Summary.Ports)
	fmt.Printf("Services:    %d\n", meta.Summary.Services)
	fmt.Printf("Findings:    %d\n", meta.Summary.Findings)
}

// shortScanID returns the first 8 characters of a UUID followed by "..." for
// compact table display. Falls back to the full ID when shorter than 8 chars.
func shortScanID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

// formatStatus colours a ScanStatus for terminal display.
func formatStatus(s models.ScanStatus) string {
	switch s {
	case models.StatusComplete:
		return color.GreenString("%-12s", s)
	case models.StatusFailed:
		return color.RedString("%-12s", s)
	case models.StatusInterrupted, models.StatusRunning:
		return color.YellowString("%-12s", s)
	default:
		return fmt.Sprintf("%-12s", s)
	}
}

func formatCounts(s models.Summary) string {
	return fmt.Sprintf("%d/%d/%d/%d", s.Subdomains, s.Ports, s.Services, s.Findings)
}

// formatStages joins the StagesRun slice into a comma-separated string.
// Returns "-" when no stages are recorded.
func formatStages(stages []string) string {
	if len(stages) == 0 {
		return "-"
	}
	return strings.Join(stages, ", ")
}

func init() {
	historyCmd.Flags().StringP("target", "t", "", "Target domain (required)")
	historyCmd.Flags().Int("limit", 10, "Maximum number of scans to display")
	historyCmd.Flags().Bool("latest", false, "Show the full record of the most recent scan")
	historyCmd.MarkFlagRequired("target")
	rootCmd.AddCommand(historyCmd)
}
