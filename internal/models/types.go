package models

// ScanStatus represents the current state of a scan
type ScanStatus string

const (
	StatusPending     ScanStatus = "pending"
	StatusRunning     ScanStatus = "running"
	StatusComplete    ScanStatus = "complete"
	StatusFailed      ScanStatus = "failed"
	StatusInterrupted ScanStatus = "interrupted"
)

// Terminal reports whether a scan in this state will not change again
func (s ScanStatus) Terminal() bool {
	return s == StatusComplete || s == StatusFailed || s == StatusInterrupted
}

// ProbeOutcome classifies a single best-effort tool invocation
type ProbeOutcome string

const (
	OutcomeOK      ProbeOutcome = "ok"
	OutcomeEmpty   ProbeOutcome = "empty"
	OutcomeTimeout ProbeOutcome = "timeout"
	OutcomeError   ProbeOutcome = "error"
)

// ProbeRecord describes what one tool invocation inside a phase produced.
// Phases never fail on a single probe; the record keeps the reason visible.
type ProbeRecord struct {
	Tool    string       `json:"tool"`
	Target  string       `json:"target"`
	Outcome ProbeOutcome `json:"outcome"`
	Reason  string       `json:"reason,omitempty"`
	Found   int          `json:"found"`
}
