package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hakim/nativerecon/internal/models"
)

// memStore records every history write
type memStore struct {
	mu       sync.Mutex
	saved    []models.ScanMeta
	statuses []models.ScanStatus
}

func (m *memStore) SaveScan(meta *models.ScanMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *meta
	cp.StagesRun = append([]string(nil), meta.StagesRun...)
	m.saved = append(m.saved, cp)
	return nil
}

func (m *memStore) UpdateScanStatus(id string, status models.ScanStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
	return nil
}

func recordingStages(order *[]string, names ...string) []Stage {
	stages := make([]Stage, 0, len(names))
	for _, name := range names {
		stages = append(stages, Stage{Name: name, Run: func(ctx context.Context, scan *models.ScanResult) error {
			*order = append(*order, name)
			return nil
		}})
	}
	return stages
}

func TestRunPipelineRunsStagesInOrder(t *testing.T) {
	var order []string
	store := &memStore{}
	scan := models.NewScanResult("example.com")

	stages := recordingStages(&order, StageOrder...)
	stages[0].Run = func(ctx context.Context, scan *models.ScanResult) error {
		order = append(order, StageDiscover)
		scan.AddSubdomain("www.example.com")
		return nil
	}

	result, err := RunPipeline(context.Background(), scan, stages, PipelineConfig{OutputDir: "/tmp/out"}, store)
	require.NoError(t, err)
	require.Equal(t, StageOrder, order)
	require.Equal(t, StageOrder, result.StagesRun)
	require.Equal(t, models.StatusComplete, result.Status)
	require.Equal(t, 2, result.Summary.Subdomains)

	require.Equal(t, models.StatusRunning, store.saved[0].Status)
	require.Equal(t, "/tmp/out", store.saved[0].OutputDir)
	last := store.saved[len(store.saved)-1]
	require.Equal(t, StageOrder, last.StagesRun)
	require.Equal(t, 2, last.Summary.Subdomains)
	require.Equal(t, []models.ScanStatus{models.StatusComplete}, store.statuses)
}

func TestRunPipelineAbortsOnError(t *testing.T) {
	var order []string
	store := &memStore{}
	stages := recordingStages(&order, StageOrder...)
	boom := errors.New("boom")
	stages[1].Run = func(ctx context.Context, scan *models.ScanResult) error { return boom }

	result, err := RunPipeline(context.Background(), models.NewScanResult("example.com"), stages, PipelineConfig{}, store)
	require.ErrorIs(t, err, boom)
	require.False(t, errors.Is(err, ErrInterrupted))
	require.Equal(t, []string{StageDiscover}, order)
	require.Equal(t, StagePortScan, result.FailedStage)
	require.Equal(t, models.StatusFailed, result.Status)
	require.Equal(t, []models.ScanStatus{models.StatusFailed}, store.statuses)
}

func TestRunPipelineRecoversPanics(t *testing.T) {
	var order []string
	stages := recordingStages(&order, StageOrder...)
	stages[2].Run = func(ctx context.Context, scan *models.ScanResult) error {
		var m map[string]int
		m["x"]++
		return nil
	}

	result, err := RunPipeline(context.Background(), models.NewScanResult("example.com"), stages, PipelineConfig{}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "panicked")
	require.Equal(t, StageProbe, result.FailedStage)
	require.NotContains(t, order, StageReport)
}

func TestRunPipelineInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var order []string
	store := &memStore{}
	stages := recordingStages(&order, StageOrder...)
	stages[0].Run = func(ctx context.Context, scan *models.ScanResult) error {
		order = append(order, StageDiscover)
		cancel()
		return nil
	}

	result, err := RunPipeline(ctx, models.NewScanResult("example.com"), stages, PipelineConfig{}, store)
	require.ErrorIs(t, err, ErrInterrupted)
	require.Equal(t, []string{StageDiscover}, order)
	require.Equal(t, models.StatusInterrupted, result.Status)
	require.Equal(t, []models.ScanStatus{models.StatusInterrupted}, store.statuses)
}

func TestRunPipelineStageSeesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var order []string
	stages := recordingStages(&order, StageOrder...)
	stages[1].Run = func(ctx context.Context, scan *models.ScanResult) error {
		cancel()
		return ctx.Err()
	}

	result, err := RunPipeline(ctx, models.NewScanResult("example.com"), stages, PipelineConfig{}, nil)
	require.ErrorIs(t, err, ErrInterrupted)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StagePortScan, result.FailedStage)
}

func TestRunPipelineSkipsStages(t *testing.T) {
	var order []string
	scan := models.NewScanResult("example.com")
	stages := recordingStages(&order, StageOrder...)

	result, err := RunPipeline(context.Background(), scan, stages, PipelineConfig{
		Skip: []string{StagePortScan, StageReport},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{StageDiscover, StageProbe, StageVulnScan, StageReport}, order)
	require.Equal(t, []string{StagePortScan}, result.Skipped)
	require.Equal(t, []string{StagePortScan}, scan.SkippedPhases)
}

func TestRunPipelineCallbacks(t *testing.T) {
	var started, done []string
	var order []string
	_, err := RunPipeline(context.Background(), models.NewScanResult("example.com"), recordingStages(&order, "a", "b"), PipelineConfig{
		OnStageStart: func(name string, index, total int) {
			require.Equal(t, 2, total)
			started = append(started, name)
		},
		OnStageDone: func(name string, index, total int, err error, elapsed time.Duration) {
			require.NoError(t, err)
			done = append(done, name)
		},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, started)
	require.Equal(t, []string{"a", "b"}, done)
}

func TestRunPipelineSendsWebhook(t *testing.T) {
	var (
		got         completionPayload
		method      string
		contentType string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var order []string
	scan := models.NewScanResult("example.com")
	_, err := RunPipeline(context.Background(), scan, recordingStages(&order, StageDiscover), PipelineConfig{
		Notify: &NotifyConfig{WebhookURL: srv.URL},
	}, nil)
	require.NoError(t, err)

	require.Equal(t, http.MethodPost, method)
	require.Equal(t, "application/json", contentType)
	require.Equal(t, "example.com", got.Target)
	require.Equal(t, scan.ID, got.ScanID)
	require.Equal(t, "complete", got.Status)
	require.Equal(t, 1, got.Counts.Subdomains)
}

func TestSendCompletionErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := &NotifyConfig{WebhookURL: srv.URL}
	err := n.SendCompletion(context.Background(), &PipelineResult{Target: "example.com"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")

	var disabled *NotifyConfig
	require.NoError(t, disabled.SendCompletion(context.Background(), &PipelineResult{}))
}
