package vulnscan

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hakim/nativerecon/internal/models"
	"github.com/hakim/nativerecon/internal/storage"
	"github.com/hakim/nativerecon/internal/tools"
)

// PhaseName identifies this phase in the aggregate's skipped list
const PhaseName = "vulnscan"

// VulnScanConfig contains configuration for the vulnerability scanning phase
type VulnScanConfig struct {
	NiktoPath string
	Tuning    string
	MaxTime   time.Duration
	Timeout   time.Duration
	// MaxServices caps how many web services are scanned, in discovery order
	MaxServices int
	// RawDir receives one nikto capture per URL; empty disables captures
	RawDir string
	// Matcher selects finding lines; nil means tools.DefaultFindingMatcher
	Matcher tools.FindingMatcher
}

// VulnScanResult contains the results of vulnerability scanning
type VulnScanResult struct {
	Target     string               `json:"target"`
	Scanned    []string             `json:"scanned"`
	Findings   []models.Finding     `json:"findings"`
	TotalCount int                  `json:"total_count"`
	Skipped    bool                 `json:"skipped"`
	SkipReason string               `json:"skip_reason,omitempty"`
	Probes     []models.ProbeRecord `json:"probes"`
}

// RunVulnScan runs nikto against the first MaxServices web services and
// appends every matching output line as a Finding. With no web services the
// phase is skipped and recorded as such on the aggregate.
func RunVulnScan(ctx context.Context, r tools.Runner, scan *models.ScanResult, cfg VulnScanConfig) (*VulnScanResult, error) {
	result := &VulnScanResult{
		Target:   scan.Target,
		Findings: []models.Finding{},
	}

	targets := webTargets(scan.Services, cfg.MaxServices)
	if len(targets) == 0 {
		result.Skipped = true
		result.SkipReason = "no web services found"
		scan.MarkSkipped(PhaseName)
		log.Warn().Str("phase", PhaseName).Msg("no web services found, skipping vulnerability scan")
		return result, nil
	}

	matcher := cfg.Matcher
	if matcher == nil {
		matcher = tools.DefaultFindingMatcher()
	}

	log.Info().Str("phase", PhaseName).Int("targets", len(targets)).Msg("running nikto")

	for _, url := range targets {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("vulnerability scan interrupted: %w", err)
		}

		opts := tools.NiktoOptions{
			BinaryPath: cfg.NiktoPath,
			Tuning:     cfg.Tuning,
			MaxTime:    cfg.MaxTime,
			Timeout:    cfg.Timeout,
		}
		if cfg.RawDir != "" {
			opts.CapturePath = filepath.Join(cfg.RawDir, storage.CaptureName("nikto", url))
		}

		lines, res := tools.RunNikto(ctx, r, url, opts, matcher)
		result.Scanned = append(result.Scanned, url)
		result.Probes = append(result.Probes, res.Record("nikto", url, len(lines)))

		if !res.Succeeded() {
			log.Warn().Str("phase", PhaseName).Str("url", url).Str("reason", res.Reason()).Msg("nikto failed")
			continue
		}

		for _, line := range lines {
			finding := models.Finding{Target: url, Description: line}
			scan.Findings = append(scan.Findings, finding)
			result.Findings = append(result.Findings, finding)
		}
		log.Info().Str("phase", PhaseName).Str("url", url).Int("findings", len(lines)).Msg("scan complete")
	}

	result.TotalCount = len(result.Findings)
	return result, nil
}

// webTargets returns up to limit service URLs with an http or https scheme
func webTargets(services []models.Service, limit int) []string {
	var targets []string
	for _, svc := range services {
		if limit > 0 && len(targets) >= limit {
			break
		}
		if strings.HasPrefix(svc.URL, "http://") || strings.HasPrefix(svc.URL, "https://") {
			targets = append(targets, svc.URL)
		}
	}
	return targets
}
