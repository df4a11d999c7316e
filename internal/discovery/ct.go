package discovery

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/hakim/nativerecon/internal/models"
	"github.com/hakim/nativerecon/internal/tools"
)

// certTransparency adds names from certificates logged for the target domain
func certTransparency(ctx context.Context, r tools.Runner, scan *models.ScanResult, cfg Config, result *Result) error {
	if err := interrupted(ctx); err != nil {
		return err
	}

	res, err := tools.QueryCertTransparency(ctx, r, cfg.CTEndpoint, scan.Target, cfg.CurlPath, cfg.CTTimeout)
	if err != nil {
		result.Probes = append(result.Probes, models.ProbeRecord{
			Tool:    "curl",
			Target:  cfg.CTEndpoint,
			Outcome: models.OutcomeError,
			Reason:  err.Error(),
		})
		log.Warn().Err(err).Str("phase", "discover").Msg("certificate transparency query skipped")
		return nil
	}

	if !res.Succeeded() || res.Outcome() != models.OutcomeOK {
		result.Probes = append(result.Probes, res.Record("curl", cfg.CTEndpoint, 0))
		log.Warn().Str("phase", "discover").Str("reason", res.Reason()).Msg("certificate transparency query failed")
		return interrupted(ctx)
	}

	names, err := tools.ParseCertTransparency([]byte(res.Stdout), cfg.CTEntries)
	if err != nil {
		result.Probes = append(result.Probes, models.ProbeRecord{
			Tool:    "curl",
			Target:  cfg.CTEndpoint,
			Outcome: models.OutcomeError,
			Reason:  err.Error(),
		})
		log.Warn().Err(err).Str("phase", "discover").Msg("certificate transparency response unusable")
		return nil
	}

	added := addAll(scan, names)
	result.Added[SourceCT] += added
	result.Probes = append(result.Probes, res.Record("curl", cfg.CTEndpoint, len(names)))

	log.Info().Str("phase", "discover").Int("names", len(names)).Int("new", added).Msg("certificate transparency results")
	return nil
}
