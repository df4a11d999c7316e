package report

import (
	"time"

	"github.com/hakim/nativerecon/internal/models"
)

// Limits caps how many rows each report section lists
type Limits struct {
	Subdomains int
	Ports      int
	Services   int
	Findings   int
}

// DefaultLimits matches the section sizes of the HTML report
func DefaultLimits() Limits {
	return Limits{Subdomains: 30, Ports: 30, Services: 20, Findings: 30}
}

// Section is one truncated list plus the number of rows left out
type Section[T any] struct {
	Items   []T
	Omitted int
}

// Empty reports whether the full list had no rows at all
func (s Section[T]) Empty() bool {
	return len(s.Items) == 0 && s.Omitted == 0
}

// View is the display model shared by every human-readable report.
// Summary always carries the untruncated totals.
type View struct {
	Target      string
	ScanID      string
	GeneratedAt time.Time
	Summary     models.Summary
	Skipped     []string
	Subdomains  Section[string]
	Ports       Section[models.Port]
	Services    Section[models.Service]
	Findings    Section[models.Finding]
}

// BuildView truncates every list of scan to its limit
func BuildView(scan *models.ScanResult, limits Limits, now time.Time) *View {
	return &View{
		Target:      scan.Target,
		ScanID:      scan.ID,
		GeneratedAt: now,
		Summary:     scan.Summary(),
		Skipped:     scan.SkippedPhases,
		Subdomains:  truncate(scan.Subdomains, limits.Subdomains),
		Ports:       truncate(scan.Ports, limits.Ports),
		Services:    truncate(scan.Services, limits.Services),
		Findings:    truncate(scan.Findings, limits.Findings),
	}
}

// truncate keeps the first limit items; limit <= 0 keeps everything
func truncate[T any](items []T, limit int) Section[T] {
	if limit <= 0 || len(items) <= limit {
		return Section[T]{Items: items}
	}
	return Section[T]{Items: items[:limit], Omitted: len(items) - limit}
}
