package models

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScanMeta contains metadata about a scan run, persisted to the history store
type ScanMeta struct {
	ID          string     `json:"id"`
	Target      string     `json:"target"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      ScanStatus `json:"status"`
	OutputDir   string     `json:"output_dir"`
	StagesRun   []string   `json:"stages_run,omitempty"`
	Summary     Summary    `json:"summary"`
}

// ScanResult is the aggregate every phase writes into.
// Subdomains is kept sorted and deduplicated and always contains Target.
type ScanResult struct {
	ID            string    `json:"id"`
	Target        string    `json:"target"`
	StartedAt     time.Time `json:"timestamp"`
	Subdomains    []string  `json:"subdomains"`
	Ports         []Port    `json:"ports"`
	Services      []Service `json:"services"`
	Findings      []Finding `json:"findings"`
	SkippedPhases []string  `json:"skipped_phases,omitempty"`
}

// NewScanResult creates an aggregate seeded with the target itself
func NewScanResult(target string) *ScanResult {
	s := &ScanResult{
		ID:         uuid.New().String(),
		Target:     NormalizeHost(target),
		StartedAt:  time.Now(),
		Subdomains: []string{},
		Ports:      []Port{},
		Services:   []Service{},
		Findings:   []Finding{},
	}
	s.AddSubdomain(s.Target)
	return s
}

// AddSubdomain inserts name in sorted position unless it is already present.
// Empty and wildcard names are rejected. Returns true if the name was added.
func (s *ScanResult) AddSubdomain(name string) bool {
	name = NormalizeHost(name)
	if name == "" || strings.HasPrefix(name, "*") {
		return false
	}

	idx, found := slices.BinarySearch(s.Subdomains, name)
	if found {
		return false
	}
	s.Subdomains = slices.Insert(s.Subdomains, idx, name)
	return true
}

// HasSubdomain reports whether name (after normalization) is in the set
func (s *ScanResult) HasSubdomain(name string) bool {
	_, found := slices.BinarySearch(s.Subdomains, NormalizeHost(name))
	return found
}

// FirstSubdomains returns a copy of at most n subdomains in sorted order;
// n <= 0 means all of them.
func (s *ScanResult) FirstSubdomains(n int) []string {
	if n <= 0 || len(s.Subdomains) <= n {
		return slices.Clone(s.Subdomains)
	}
	return slices.Clone(s.Subdomains[:n])
}

// MarkSkipped records that a phase was deliberately skipped
func (s *ScanResult) MarkSkipped(phase string) {
	if !slices.Contains(s.SkippedPhases, phase) {
		s.SkippedPhases = append(s.SkippedPhases, phase)
	}
}

// Summary returns the true counts of every list in the aggregate
func (s *ScanResult) Summary() Summary {
	return Summary{
		Subdomains: len(s.Subdomains),
		Ports:      len(s.Ports),
		Services:   len(s.Services),
		Findings:   len(s.Findings),
	}
}

// Meta builds the history record for this scan
func (s *ScanResult) Meta(outputDir string) *ScanMeta {
	return &ScanMeta{
		ID:        s.ID,
		Target:    s.Target,
		StartedAt: s.StartedAt,
		Status:    StatusPending,
		OutputDir: outputDir,
		StagesRun: []string{},
		Summary:   s.Summary(),
	}
}

// NormalizeHost lowercases a hostname and strips whitespace and the trailing dot
func NormalizeHost(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, ".")
	return strings.ToLower(name)
}
