package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"

	"github.com/hakim/nativerecon/internal/models"
)

// ErrInterrupted is returned when the caller's context is cancelled mid-run
var ErrInterrupted = errors.New("scan interrupted")

// Stage names in execution order
const (
	StageDiscover = "discover"
	StagePortScan = "portscan"
	StageProbe    = "probe"
	StageVulnScan = "vulnscan"
	StageReport   = "report"
)

// StageOrder is the canonical order of the pipeline stages
var StageOrder = []string{StageDiscover, StagePortScan, StageProbe, StageVulnScan, StageReport}

// HistoryStore is the minimal bbolt contract required by the orchestrator.
// Using an interface keeps the package testable without a real database.
type HistoryStore interface {
	SaveScan(meta *models.ScanMeta) error
	UpdateScanStatus(id string, status models.ScanStatus) error
}

// StageFunc is the signature each pipeline stage must satisfy. Stages read
// and extend the shared aggregate in place.
type StageFunc func(ctx context.Context, scan *models.ScanResult) error

// Stage pairs a human-readable name with its execution function.
type Stage struct {
	Name string
	Run  StageFunc
}

// PipelineConfig controls how RunPipeline behaves for a single run.
type PipelineConfig struct {
	// OutputDir is recorded in the history entry for this run.
	OutputDir string

	// Skip lists stage names to leave out. Skipped stages are recorded on
	// the aggregate; the report stage cannot be skipped.
	Skip []string

	// Timeout caps the total wall-clock time for all stages combined.
	// Zero means no timeout beyond the caller's context.
	Timeout time.Duration

	// Notify posts a completion payload when set.
	Notify *NotifyConfig

	// OnStageStart is called immediately before each stage executes.
	// index is 0-based; total is the count of stages selected to run.
	OnStageStart func(name string, index, total int)

	// OnStageDone is called immediately after each stage returns (or panics).
	// err is nil on success; elapsed is the wall time for that stage alone.
	OnStageDone func(name string, index, total int, err error, elapsed time.Duration)
}

// PipelineResult summarises what happened after RunPipeline returns.
type PipelineResult struct {
	Target    string
	ScanID    string
	OutputDir string

	// StagesRun lists the stages that completed without error.
	StagesRun []string
	// Skipped lists the stages left out by configuration.
	Skipped []string
	// FailedStage names the stage that aborted the run, if any.
	FailedStage string
	// Error is the message of the error that ended the run, if any.
	Error string

	Status  models.ScanStatus
	Summary models.Summary
	Elapsed time.Duration
}

// RunPipeline executes stages strictly in order against scan.
//
// The first stage that returns an error or panics aborts the run; later
// stages, including report generation, do not execute. Cancellation of ctx
// is checked before every stage and reported as ErrInterrupted.
//
// When store is non-nil a history record is saved as running before the
// first stage, refreshed after each completed stage and finalized as
// complete, failed or interrupted.
func RunPipeline(
	ctx context.Context,
	scan *models.ScanResult,
	stages []Stage,
	cfg PipelineConfig,
	store HistoryStore,
) (*PipelineResult, error) {

	// ── 1. Validate required inputs ───────────────────────────────────────────
	if scan == nil || scan.Target == "" {
		return nil, fmt.Errorf("pipeline: target is required")
	}

	selected, skipped := filterStages(stages, cfg.Skip)
	if len(selected) == 0 {
		return nil, fmt.Errorf("pipeline: no stages remain after filtering")
	}
	for _, name := range skipped {
		scan.MarkSkipped(name)
	}

	// ── 2. Apply optional timeout ─────────────────────────────────────────────
	runCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	// ── 3. Create the history record ──────────────────────────────────────────
	meta := scan.Meta(cfg.OutputDir)
	meta.Status = models.StatusRunning
	if store != nil {
		if err := store.SaveScan(meta); err != nil {
			return nil, fmt.Errorf("pipeline: saving initial scan record: %w", err)
		}
	}
	log.Info().Str("scan_id", meta.ID).Str("target", scan.Target).Msg("scan started")

	// ── 4. Execute stages ─────────────────────────────────────────────────────
	result := &PipelineResult{
		Target:    scan.Target,
		ScanID:    scan.ID,
		OutputDir: cfg.OutputDir,
		Skipped:   skipped,
		Status:    models.StatusComplete,
	}

	pipelineStart := time.Now()
	total := len(selected)
	var runErr error

	for i, stage := range selected {
		if ctx.Err() != nil {
			runErr = fmt.Errorf("before stage %q: %w", stage.Name, ErrInterrupted)
			result.Status = models.StatusInterrupted
			break
		}

		if cfg.OnStageStart != nil {
			cfg.OnStageStart(stage.Name, i, total)
		}

		stageStart := time.Now()
		stageErr := runStageIsolated(runCtx, stage, scan)
		stageElapsed := time.Since(stageStart)

		if cfg.OnStageDone != nil {
			cfg.OnStageDone(stage.Name, i, total, stageErr, stageElapsed)
		}

		if stageErr != nil {
			result.FailedStage = stage.Name
			if ctx.Err() != nil {
				runErr = fmt.Errorf("stage %q: %w", stage.Name, errors.Join(ErrInterrupted, stageErr))
				result.Status = models.StatusInterrupted
			} else {
				runErr = fmt.Errorf("stage %q: %w", stage.Name, stageErr)
				result.Status = models.StatusFailed
			}
			log.Error().Err(stageErr).Str("stage", stage.Name).Dur("elapsed", stageElapsed.Round(time.Millisecond)).Msg("stage failed")
			break
		}

		log.Info().Str("stage", stage.Name).Dur("elapsed", stageElapsed.Round(time.Millisecond)).Msg("stage complete")
		result.StagesRun = append(result.StagesRun, stage.Name)

		// Persist progress after each stage so a crash leaves an accurate record
		meta.StagesRun = appendUnique(meta.StagesRun, stage.Name)
		meta.Summary = scan.Summary()
		if store != nil {
			if err := store.SaveScan(meta); err != nil {
				log.Warn().Err(err).Str("stage", stage.Name).Msg("could not persist stage progress")
			}
		}
	}

	result.Elapsed = time.Since(pipelineStart)
	result.Summary = scan.Summary()
	if runErr != nil {
		result.Error = runErr.Error()
	}

	// ── 5. Finalize history and notify ────────────────────────────────────────
	if store != nil {
		meta.Summary = result.Summary
		if err := store.SaveScan(meta); err != nil {
			log.Warn().Err(err).Msg("could not persist final summary")
		}
		if err := store.UpdateScanStatus(meta.ID, result.Status); err != nil {
			log.Warn().Err(err).Msg("could not update final scan status")
		}
	}

	if cfg.Notify != nil {
		if err := cfg.Notify.SendCompletion(context.WithoutCancel(ctx), result); err != nil {
			log.Warn().Err(err).Msg("completion webhook failed")
		}
	}

	log.Info().
		Str("status", string(result.Status)).
		Dur("elapsed", result.Elapsed.Round(time.Millisecond)).
		Msg("pipeline finished")

	return result, runErr
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// filterStages drops stages named in skipNames, preserving order. The report
// stage is always kept so a run that gets that far always writes its output.
func filterStages(allStages []Stage, skipNames []string) (selected []Stage, skipped []string) {
	skipSet := toSet(skipNames)

	for _, s := range allStages {
		if skipSet[s.Name] && s.Name != StageReport {
			skipped = append(skipped, s.Name)
			continue
		}
		selected = append(selected, s)
	}
	return selected, skipped
}

// runStageIsolated runs a single stage under a panic catcher so that a
// panic in stage code is returned as an error rather than crashing the
// process.
func runStageIsolated(ctx context.Context, s Stage, scan *models.ScanResult) (err error) {
	var pc panics.Catcher
	pc.Try(func() {
		err = s.Run(ctx, scan)
	})
	if r := pc.Recovered(); r != nil {
		return fmt.Errorf("stage %q panicked: %w", s.Name, r.AsError())
	}
	return err
}

// appendUnique appends s to slice only if it is not already present.
func appendUnique(slice []string, s string) []string {
	if slices.Contains(slice, s) {
		return slice
	}
	return append(slice, s)
}

// toSet converts a string slice into a boolean lookup map.
func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}
