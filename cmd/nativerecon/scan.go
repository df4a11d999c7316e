package main

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hakim/nativerecon/internal/models"
	"github.com/hakim/nativerecon/internal/pipeline"
	"github.com/hakim/nativerecon/internal/report"
	"github.com/hakim/nativerecon/internal/storage"
	"github.com/hakim/nativerecon/internal/tools"
)

var (
	scanTarget  string
	scanOutput  string
	scanSkip    string
	scanTimeout time.Duration
	scanWebhook string
)

func registerScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&scanTarget, "target", "t", "", "Target domain to scan (required)")
	cmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Output directory (default: recon_<target>_<timestamp> under output_base)")
	cmd.Flags().StringVar(&scanSkip, "skip", "", "Comma-separated phases to skip: discover, portscan, probe, vulnscan")
	cmd.Flags().DurationVar(&scanTimeout, "timeout", 0, "Total pipeline timeout (0 for none)")
	cmd.Flags().StringVar(&scanWebhook, "notify-webhook", "", "HTTP webhook URL to POST a completion summary to (overrides notify.webhook_url)")
	cmd.MarkFlagRequired("target")
}

// runScan executes the full pipeline for --target
func runScan(cmd *cobra.Command, args []string) error {
	// ── 1. Validate target and scope ───────────────────────────────────────────
	target, err := pipeline.NormalizeTarget(scanTarget)
	if err != nil {
		return err
	}

	skip, err := parseSkip(scanSkip)
	if err != nil {
		return err
	}

	scope := pipeline.ScopeConfig{AllowedDomains: cfg.Scope.AllowedDomains}
	if err := scope.ValidateTarget(target); err != nil {
		return fmt.Errorf("scope check failed: %w", err)
	}

	// ── 2. Pre-flight tool check, before anything touches the filesystem ───────
	requirements := tools.WithBinaries(tools.DefaultTools(), cfg.Tools.Binaries())
	if _, err := tools.Preflight(requirements); err != nil {
		return err
	}

	// ── 3. Output directory ────────────────────────────────────────────────────
	scan := models.NewScanResult(target)

	outputDir := scanOutput
	if outputDir == "" {
		outputDir = filepath.Join(cfg.OutputBase, storage.OutputDirName(target, scan.StartedAt))
	}
	if err := storage.CreateOutputDir(outputDir); err != nil {
		return err
	}

	printBanner(scan, outputDir)
	if len(skip) > 0 {
		log.Warn().Strs("phases", skip).Msg("phases skipped on request, the report will be partial")
		color.Yellow("Skipping %s: report will not include their results", strings.Join(skip, ", "))
	}

	// ── 4. History store (optional) ────────────────────────────────────────────
	var history pipeline.HistoryStore
	if cfg.DBPath != "" {
		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			log.Warn().Err(err).Msg("run history disabled")
		} else {
			defer store.Close()
			history = store
		}
	}

	// ── 5. Run the pipeline ────────────────────────────────────────────────────
	webhook := cfg.Notify.WebhookURL
	if scanWebhook != "" {
		webhook = scanWebhook
	}

	pipelineCfg := pipeline.PipelineConfig{
		OutputDir: outputDir,
		Skip:      skip,
		Timeout:   scanTimeout,
		OnStageStart: func(name string, index, total int) {
			printStageHeader(name, index, total)
		},
		OnStageDone: func(name string, index, total int, err error, elapsed time.Duration) {
			if err != nil {
				fmt.Printf("%s %s failed after %s\n", color.RedString("[!]"), name, elapsed.Round(time.Millisecond))
				return
			}
			fmt.Printf("%s %s complete (%s)\n", color.GreenString("[+]"), name, elapsed.Round(time.Millisecond))
		},
	}
	if webhook != "" {
		pipelineCfg.Notify = &pipeline.NotifyConfig{WebhookURL: webhook}
	}

	stages := buildScanStages(cfg, tools.NewExecRunner(), outputDir)

	result, err := pipeline.RunPipeline(cmd.Context(), scan, stages, pipelineCfg, history)
	if result != nil {
		printSummary(result)
	}
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}
	return nil
}

// printBanner shows the target, output directory and start time
func printBanner(scan *models.ScanResult, outputDir string) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)

	fmt.Println()
	bold.Println("nativerecon :: automated reconnaissance")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("%s %s\n", cyan.Sprint("Target:     "), scan.Target)
	fmt.Printf("%s %s\n", cyan.Sprint("Scan ID:    "), scan.ID)
	fmt.Printf("%s %s\n", cyan.Sprint("Output Dir: "), outputDir)
	fmt.Printf("%s %s\n", cyan.Sprint("Started:    "), scan.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Println(strings.Repeat("=", 60))
	color.Yellow("For authorized security testing only")
	fmt.Println()
}

var stageTitles = map[string]string{
	pipeline.StageDiscover: "Subdomain Enumeration",
	pipeline.StagePortScan: "Port Scanning",
	pipeline.StageProbe:    "Service Enumeration",
	pipeline.StageVulnScan: "Vulnerability Scanning",
	pipeline.StageReport:   "Report Generation",
}

func printStageHeader(name string, index, total int) {
	title := stageTitles[name]
	if title == "" {
		title = name
	}
	fmt.Println()
	color.New(color.Bold, color.FgMagenta).Printf("[PHASE %d/%d] %s\n", index+1, total, title)
	fmt.Println(strings.Repeat("-", 60))
}

// printSummary prints the final counts and output locations
func printSummary(result *pipeline.PipelineResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))

	switch result.Status {
	case models.StatusComplete:
		color.New(color.Bold, color.FgGreen).Println("Scan complete")
	case models.StatusInterrupted:
		color.New(color.Bold, color.FgYellow).Println("Scan interrupted")
	default:
		color.New(color.Bold, color.FgRed).Printf("Scan failed in %s\n", result.FailedStage)
	}

	fmt.Printf("    Target:      %s\n", result.Target)
	fmt.Printf("    Scan ID:     %s\n", result.ScanID)
	fmt.Printf("    Elapsed:     %s\n", result.Elapsed.Round(time.Second))
	fmt.Printf("    Stages:      %s\n", formatStages(result.StagesRun))
	if len(result.Skipped) > 0 {
		fmt.Printf("    Skipped:     %s\n", strings.Join(result.Skipped, ", "))
	}
	fmt.Printf("    Subdomains:  %d\n", result.Summary.Subdomains)
	fmt.Printf("    Open ports:  %d\n", result.Summary.Ports)
	fmt.Printf("    Services:    %d\n", result.Summary.Services)
	fmt.Printf("    Findings:    %d\n", result.Summary.Findings)

	if result.Status == models.StatusComplete {
		fmt.Println()
		fmt.Printf("    HTML report: %s\n", color.CyanString(filepath.Join(result.OutputDir, report.HTMLReportFile)))
		fmt.Printf("    Markdown:    %s\n", color.CyanString(filepath.Join(result.OutputDir, report.MarkdownFile)))
		fmt.Printf("    JSON data:   %s\n", color.CyanString(filepath.Join(result.OutputDir, report.ResultsFile)))
	}
	fmt.Println(strings.Repeat("=", 60))
}

// parseSkip validates the --skip list against the scan phases. The report
// stage always runs.
func parseSkip(raw string) ([]string, error) {
	names := splitCSV(raw)
	for _, name := range names {
		if name == pipeline.StageReport {
			return nil, fmt.Errorf("--skip: the %s stage cannot be skipped", name)
		}
		if !slices.Contains(pipeline.StageOrder, name) {
			return nil, fmt.Errorf("--skip: unknown phase %q (valid: discover, portscan, probe, vulnscan)", name)
		}
	}
	return names, nil
}

// splitCSV splits a comma-separated string into a trimmed, non-empty slice.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
