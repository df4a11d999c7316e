package report

import (
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hakim/nativerecon/internal/models"
)

// Output file names inside a run directory
const (
	SubdomainsFile = "subdomains.txt"
	ResultsFile    = "results.json"
	HTMLReportFile = "report.html"
	MarkdownFile   = "report.md"
)

// Paths lists the files written by Generate
type Paths struct {
	JSON     string
	HTML     string
	Markdown string
}

// Generate writes results.json, report.html and report.md into outputDir
func Generate(scan *models.ScanResult, outputDir string, limits Limits) (*Paths, error) {
	paths := &Paths{
		JSON:     filepath.Join(outputDir, ResultsFile),
		HTML:     filepath.Join(outputDir, HTMLReportFile),
		Markdown: filepath.Join(outputDir, MarkdownFile),
	}

	if err := WriteJSON(scan, paths.JSON); err != nil {
		return nil, err
	}

	view := BuildView(scan, limits, time.Now())

	if err := WriteHTML(view, paths.HTML); err != nil {
		return nil, err
	}
	if err := WriteMarkdown(view, paths.Markdown); err != nil {
		return nil, err
	}

	log.Info().Str("phase", "report").Str("json", paths.JSON).Str("html", paths.HTML).Str("markdown", paths.Markdown).Msg("reports written")
	return paths, nil
}
