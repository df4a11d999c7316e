package portscan

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hakim/nativerecon/internal/models"
	"github.com/hakim/nativerecon/internal/storage"
	"github.com/hakim/nativerecon/internal/tools"
)

// PortScanConfig contains configuration for the port scanning phase
type PortScanConfig struct {
	NmapPath string
	Timeout  time.Duration
	// MaxHosts caps how many subdomains are scanned, taken in sorted order
	MaxHosts int
	// RawDir receives one nmap capture per host; empty disables captures
	RawDir string
}

// PortScanResult contains the results of port scanning
type PortScanResult struct {
	Target     string               `json:"target"`
	Hosts      []string             `json:"hosts"`
	Ports      []models.Port        `json:"ports"`
	TotalPorts int                  `json:"total_ports"`
	Probes     []models.ProbeRecord `json:"probes"`
}

// RunPortScan scans the first MaxHosts subdomains of scan with nmap and
// appends every open port to the aggregate. A host that fails to scan is
// recorded and skipped.
func RunPortScan(ctx context.Context, r tools.Runner, scan *models.ScanResult, cfg PortScanConfig) (*PortScanResult, error) {
	result := &PortScanResult{
		Target: scan.Target,
		Hosts:  scan.FirstSubdomains(cfg.MaxHosts),
		Ports:  []models.Port{},
	}

	log.Info().Str("phase", "portscan").Int("hosts", len(result.Hosts)).Msg("scanning hosts")

	for _, host := range result.Hosts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("port scan interrupted: %w", err)
		}

		capture := ""
		if cfg.RawDir != "" {
			capture = filepath.Join(cfg.RawDir, storage.CaptureName("nmap", host))
		}

		found, res := tools.RunNmap(ctx, r, host, cfg.NmapPath, cfg.Timeout, capture)
		result.Probes = append(result.Probes, res.Record("nmap", host, len(found)))

		if !res.Succeeded() {
			log.Warn().Str("phase", "portscan").Str("host", host).Str("reason", res.Reason()).Msg("nmap failed")
			continue
		}
		if len(found) == 0 {
			log.Info().Str("phase", "portscan").Str("host", host).Msg("no open ports")
			continue
		}

		for _, p := range found {
			port := models.Port{
				Host:     host,
				Port:     p.Port,
				Protocol: p.Protocol,
				Service:  p.Service,
				State:    p.State,
			}
			scan.Ports = append(scan.Ports, port)
			result.Ports = append(result.Ports, port)
			log.Debug().Str("phase", "portscan").Str("host", host).Int("port", p.Port).Str("service", p.Service).Msg("open port")
		}
		log.Info().Str("phase", "portscan").Str("host", host).Int("open", len(found)).Msg("host scanned")
	}

	result.TotalPorts = len(result.Ports)
	return result, nil
}
