package httpprobe

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hakim/nativerecon/internal/models"
	"github.com/hakim/nativerecon/internal/tools"
)

// Schemes are tried in this order for every host
var Schemes = []string{"http", "https"}

// HTTPProbeConfig holds all configuration for the HTTP probing phase.
type HTTPProbeConfig struct {
	// CurlPath is the path to the curl binary. Empty means resolve from PATH.
	CurlPath string
	// ConnectTimeout and TotalTimeout are handed to curl.
	ConnectTimeout time.Duration
	TotalTimeout   time.Duration
	// MaxHosts caps how many subdomains are probed, taken in sorted order.
	MaxHosts int
}

// HTTPProbeResult contains the aggregated output of the HTTP probing phase.
type HTTPProbeResult struct {
	Target    string               `json:"target"`
	Services  []models.Service     `json:"services"`
	LiveCount int                  `json:"live_count"`
	Probes    []models.ProbeRecord `json:"probes"`
}

// RunHTTPProbe sends a HEAD request over http and https to each of the first
// MaxHosts subdomains and appends a Service for every live answer.
func RunHTTPProbe(ctx context.Context, r tools.Runner, scan *models.ScanResult, cfg HTTPProbeConfig) (*HTTPProbeResult, error) {
	result := &HTTPProbeResult{
		Target:   scan.Target,
		Services: []models.Service{},
	}

	hosts := scan.FirstSubdomains(cfg.MaxHosts)

	log.Info().Str("phase", "probe").Int("hosts", len(hosts)).Msg("probing HTTP services")

	for _, host := range hosts {
		for _, scheme := range Schemes {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("HTTP probe interrupted: %w", err)
			}

			url := scheme + "://" + host
			probe, ok, res := tools.FetchHeaders(ctx, r, url, cfg.CurlPath, cfg.ConnectTimeout, cfg.TotalTimeout)

			rec := res.Record("curl", url, 0)
			if !ok {
				log.Debug().Str("phase", "probe").Str("url", url).Str("outcome", string(rec.Outcome)).Msg("no response")
				result.Probes = append(result.Probes, rec)
				continue
			}

			if !probe.Live() {
				rec.Outcome = models.OutcomeEmpty
				rec.Reason = "status " + probe.Status
				log.Debug().Str("phase", "probe").Str("url", url).Str("status", probe.Status).Msg("not live")
				result.Probes = append(result.Probes, rec)
				continue
			}

			rec.Found = 1
			result.Probes = append(result.Probes, rec)

			svc := models.Service{URL: url, Status: probe.Status, Server: probe.Server}
			scan.Services = append(scan.Services, svc)
			result.Services = append(result.Services, svc)

			log.Info().Str("phase", "probe").Str("url", url).Str("status", probe.Status).Str("server", probe.Server).Msg("live service")
		}
	}

	result.LiveCount = len(result.Services)
	return result, nil
}
