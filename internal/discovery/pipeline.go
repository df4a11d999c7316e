package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hakim/nativerecon/internal/models"
	"github.com/hakim/nativerecon/internal/tools"
)

// Heuristic names used in Result.Added and probe records
const (
	SourceBruteForce   = "bruteforce"
	SourceZoneTransfer = "axfr"
	SourceCT           = "crt.sh"
)

// Config contains configuration for the discovery phase
type Config struct {
	Wordlist []string

	HostPath string
	DigPath  string
	CurlPath string

	HostTimeout time.Duration
	NSTimeout   time.Duration
	AXFRTimeout time.Duration
	CTTimeout   time.Duration

	MaxNameservers int
	CTEndpoint     string
	CTEntries      int
}

// Result contains what the discovery phase found
type Result struct {
	Target     string               `json:"target"`
	Subdomains []string             `json:"subdomains"`
	Added      map[string]int       `json:"added"`
	Probes     []models.ProbeRecord `json:"probes"`
}

// RunDiscovery grows scan's subdomain set using dictionary lookups, zone
// transfer attempts and certificate transparency search, in that order.
// Individual probe failures are recorded and skipped; only cancellation of
// ctx aborts the phase.
func RunDiscovery(ctx context.Context, r tools.Runner, scan *models.ScanResult, cfg Config) (*Result, error) {
	result := &Result{
		Target: scan.Target,
		Added:  make(map[string]int),
	}

	// Step 1: dictionary probe
	log.Info().Str("phase", "discover").Int("labels", len(cfg.Wordlist)).Msg("probing common subdomain labels")
	if err := bruteForce(ctx, r, scan, cfg, result); err != nil {
		return nil, err
	}

	// Step 2: zone transfer against each name server
	log.Info().Str("phase", "discover").Msg("attempting zone transfers")
	if err := zoneTransfers(ctx, r, scan, cfg, result); err != nil {
		return nil, err
	}

	// Step 3: certificate transparency
	log.Info().Str("phase", "discover").Str("endpoint", cfg.CTEndpoint).Msg("querying certificate transparency")
	if err := certTransparency(ctx, r, scan, cfg, result); err != nil {
		return nil, err
	}

	result.Subdomains = append([]string(nil), scan.Subdomains...)

	log.Info().
		Str("phase", "discover").
		Int("subdomains", len(result.Subdomains)).
		Int(SourceBruteForce, result.Added[SourceBruteForce]).
		Int(SourceZoneTransfer, result.Added[SourceZoneTransfer]).
		Int(SourceCT, result.Added[SourceCT]).
		Msg("discovery complete")

	return result, nil
}

// addAll inserts names into the aggregate and returns how many were new
func addAll(scan *models.ScanResult, names []string) int {
	added := 0
	for _, name := range names {
		if scan.AddSubdomain(name) {
			added++
		}
	}
	return added
}

func interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("discovery interrupted: %w", err)
	}
	return nil
}
