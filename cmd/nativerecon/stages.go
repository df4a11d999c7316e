package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/hakim/nativerecon/internal/config"
	"github.com/hakim/nativerecon/internal/discovery"
	"github.com/hakim/nativerecon/internal/httpprobe"
	"github.com/hakim/nativerecon/internal/models"
	"github.com/hakim/nativerecon/internal/pipeline"
	"github.com/hakim/nativerecon/internal/portscan"
	"github.com/hakim/nativerecon/internal/report"
	"github.com/hakim/nativerecon/internal/storage"
	"github.com/hakim/nativerecon/internal/tools"
	"github.com/hakim/nativerecon/internal/vulnscan"
)

// buildScanStages constructs the five pipeline stages as closures over the
// loaded configuration, the process runner and the run's output directory.
// The returned slice is in canonical execution order.
func buildScanStages(c *config.Config, runner tools.Runner, outputDir string) []pipeline.Stage {
	rawDir := storage.RawDir(outputDir)

	discoverStage := pipeline.Stage{
		Name: pipeline.StageDiscover,
		Run: func(ctx context.Context, scan *models.ScanResult) error {
			_, err := discovery.RunDiscovery(ctx, runner, scan, discoveryConfig(c))
			if err != nil {
				return err
			}
			return report.WriteSubdomainList(scan.Subdomains, filepath.Join(outputDir, report.SubdomainsFile))
		},
	}

	portscanStage := pipeline.Stage{
		Name: pipeline.StagePortScan,
		Run: func(ctx context.Context, scan *models.ScanResult) error {
			_, err := portscan.RunPortScan(ctx, runner, scan, portscan.PortScanConfig{
				NmapPath: c.Tools.Nmap.Path,
				Timeout:  config.Duration(c.Timeouts.Nmap, tools.DefaultTimeout),
				MaxHosts: c.Limits.PortScanHosts,
				RawDir:   rawDir,
			})
			return err
		},
	}

	probeStage := pipeline.Stage{
		Name: pipeline.StageProbe,
		Run: func(ctx context.Context, scan *models.ScanResult) error {
			_, err := httpprobe.RunHTTPProbe(ctx, runner, scan, httpprobe.HTTPProbeConfig{
				CurlPath:       c.Tools.Curl.Path,
				ConnectTimeout: config.Duration(c.Timeouts.HTTPConnect, 5*time.Second),
				TotalTimeout:   config.Duration(c.Timeouts.HTTPTotal, 10*time.Second),
				MaxHosts:       c.Limits.ProbeHosts,
			})
			return err
		},
	}

	vulnscanStage := pipeline.Stage{
		Name: pipeline.StageVulnScan,
		Run: func(ctx context.Context, scan *models.ScanResult) error {
			_, err := vulnscan.RunVulnScan(ctx, runner, scan, vulnscan.VulnScanConfig{
				NiktoPath:   c.Tools.Nikto.Path,
				Tuning:      c.VulnScan.Tuning,
				MaxTime:     config.Duration(c.VulnScan.MaxTime, 300*time.Second),
				Timeout:     config.Duration(c.Timeouts.Nikto, tools.DefaultTimeout),
				MaxServices: c.Limits.VulnScanServices,
				RawDir:      rawDir,
				Matcher: &tools.LineMatcher{
					Prefix:   c.VulnScan.Matcher.Prefix,
					Tokens:   c.VulnScan.Matcher.Tokens,
					Keywords: c.VulnScan.Matcher.Keywords,
				},
			})
			return err
		},
	}

	reportStage := pipeline.Stage{
		Name: pipeline.StageReport,
		Run: func(ctx context.Context, scan *models.ScanResult) error {
			_, err := report.Generate(scan, outputDir, reportLimits(c))
			return err
		},
	}

	return []pipeline.Stage{discoverStage, portscanStage, probeStage, vulnscanStage, reportStage}
}

func discoveryConfig(c *config.Config) discovery.Config {
	return discovery.Config{
		Wordlist:       c.Discovery.Wordlist,
		HostPath:       c.Tools.Host.Path,
		DigPath:        c.Tools.Dig.Path,
		CurlPath:       c.Tools.Curl.Path,
		HostTimeout:    config.Duration(c.Timeouts.HostLookup, 5*time.Second),
		NSTimeout:      config.Duration(c.Timeouts.NSQuery, 10*time.Second),
		AXFRTimeout:    config.Duration(c.Timeouts.ZoneTransfer, 15*time.Second),
		CTTimeout:      config.Duration(c.Timeouts.CTQuery, 30*time.Second),
		MaxNameservers: c.Limits.Nameservers,
		CTEndpoint:     c.Discovery.CTEndpoint,
		CTEntries:      c.Limits.CTEntries,
	}
}

func reportLimits(c *config.Config) report.Limits {
	return report.Limits{
		Subdomains: c.Report.MaxSubdomains,
		Ports:      c.Report.MaxPorts,
		Services:   c.Report.MaxServices,
		Findings:   c.Report.MaxFindings,
	}
}
