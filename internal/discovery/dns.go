package discovery

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/hakim/nativerecon/internal/models"
	"github.com/hakim/nativerecon/internal/tools"
)

// bruteForce resolves <label>.<target> for every wordlist label
func bruteForce(ctx context.Context, r tools.Runner, scan *models.ScanResult, cfg Config, result *Result) error {
	for _, label := range cfg.Wordlist {
		if err := interrupted(ctx); err != nil {
			return err
		}

		fqdn := label + "." + scan.Target
		lookup, res := tools.LookupHost(ctx, r, fqdn, cfg.HostPath, cfg.HostTimeout)

		rec := models.ProbeRecord{
			Tool:    "host",
			Target:  fqdn,
			Outcome: res.Outcome(),
			Reason:  res.Reason(),
		}

		switch {
		case res.Err != nil:
			log.Debug().Str("phase", "discover").Str("host", fqdn).Str("outcome", string(rec.Outcome)).Msg("lookup failed")
		case lookup.Resolved:
			rec.Outcome = models.OutcomeOK
			rec.Reason = ""
			rec.Found = 1
			if scan.AddSubdomain(fqdn) {
				result.Added[SourceBruteForce]++
			}
			log.Debug().Str("phase", "discover").Str("host", fqdn).Msg("resolved")
		default:
			rec.Outcome = models.OutcomeEmpty
			rec.Reason = ""
		}

		result.Probes = append(result.Probes, rec)
	}
	return nil
}

// zoneTransfers asks each of the first MaxNameservers name servers for a full
// zone copy. A refusal or failure on one server moves on to the next.
func zoneTransfers(ctx context.Context, r tools.Runner, scan *models.ScanResult, cfg Config, result *Result) error {
	servers, res := tools.QueryNameservers(ctx, r, scan.Target, cfg.DigPath, cfg.NSTimeout)
	result.Probes = append(result.Probes, res.Record("dig", "NS "+scan.Target, len(servers)))
	if err := interrupted(ctx); err != nil {
		return err
	}

	if len(servers) == 0 {
		log.Info().Str("phase", "discover").Str("reason", res.Reason()).Msg("no name servers found, skipping zone transfer")
		return nil
	}

	if cfg.MaxNameservers > 0 && len(servers) > cfg.MaxNameservers {
		servers = servers[:cfg.MaxNameservers]
	}

	for _, ns := range servers {
		if err := interrupted(ctx); err != nil {
			return err
		}

		names, ok, res := tools.ZoneTransfer(ctx, r, ns, scan.Target, cfg.DigPath, cfg.AXFRTimeout)
		rec := res.Record("dig", "AXFR @"+ns, len(names))
		if !ok {
			if res.Succeeded() {
				rec.Outcome = models.OutcomeEmpty
				rec.Reason = "transfer refused"
			}
			log.Debug().Str("phase", "discover").Str("nameserver", ns).Str("outcome", string(rec.Outcome)).Msg("zone transfer not permitted")
			result.Probes = append(result.Probes, rec)
			continue
		}

		added := addAll(scan, names)
		result.Added[SourceZoneTransfer] += added
		result.Probes = append(result.Probes, rec)

		log.Warn().Str("phase", "discover").Str("nameserver", ns).Int("records", len(names)).Msg("zone transfer permitted")
	}

	return nil
}
