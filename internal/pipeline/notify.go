package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hakim/nativerecon/internal/models"
)

// NotifyConfig configures where to send completion notifications.
type NotifyConfig struct {
	WebhookURL string // if empty, no notifications
	Client     *http.Client
}

// completionPayload is the JSON body posted to the webhook endpoint.
type completionPayload struct {
	Target         string         `json:"target"`
	ScanID         string         `json:"scan_id"`
	Status         string         `json:"status"`
	StagesRun      []string       `json:"stages_run"`
	Skipped        []string       `json:"skipped,omitempty"`
	FailedStage    string         `json:"failed_stage,omitempty"`
	Error          string         `json:"error,omitempty"`
	ElapsedSeconds float64        `json:"elapsed_seconds"`
	Counts         models.Summary `json:"counts"`
}

// SendCompletion posts a JSON payload describing the finished run.
// Returns nil if WebhookURL is empty. Callers treat errors as warnings.
func (n *NotifyConfig) SendCompletion(ctx context.Context, result *PipelineResult) error {
	if n == nil || n.WebhookURL == "" {
		return nil
	}

	payload := completionPayload{
		Target:         result.Target,
		ScanID:         result.ScanID,
		Status:         string(result.Status),
		StagesRun:      result.StagesRun,
		Skipped:        result.Skipped,
		FailedStage:    result.FailedStage,
		Error:          result.Error,
		ElapsedSeconds: result.Elapsed.Seconds(),
		Counts:         result.Summary,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshaling payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: posting to %s: %w", n.WebhookURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook returned non-2xx status %d", resp.StatusCode)
	}

	return nil
}
