package report

import (
	"fmt"
	"os"
	"strings"
)

// RenderMarkdown renders the view as a markdown document
func RenderMarkdown(v *View) string {
	var b strings.Builder

	// Header; trailing double spaces are markdown hard breaks
	b.WriteString("# Reconnaissance Report\n\n")
	b.WriteString(fmt.Sprintf("**Target:** %s  \n", v.Target))
	b.WriteString(fmt.Sprintf("**Scan ID:** %s  \n", v.ScanID))
	b.WriteString(fmt.Sprintf("**Date:** %s  \n", v.GeneratedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("**Subdomains:** %d | **Open ports:** %d | **Web services:** %d | **Findings:** %d\n\n",
		v.Summary.Subdomains, v.Summary.Ports, v.Summary.Services, v.Summary.Findings))

	if len(v.Skipped) > 0 {
		b.WriteString(fmt.Sprintf("_Skipped phases: %s_\n\n", strings.Join(v.Skipped, ", ")))
	}

	// Subdomains
	b.WriteString("## Subdomains Discovered\n\n")
	if v.Subdomains.Empty() {
		b.WriteString("No subdomains found.\n")
	} else {
		for _, sub := range v.Subdomains.Items {
			b.WriteString(fmt.Sprintf("- `%s`\n", sub))
		}
		writeMore(&b, v.Subdomains.Omitted)
	}
	b.WriteString("\n")

	// Ports
	b.WriteString("## Open Ports\n\n")
	if v.Ports.Empty() {
		b.WriteString("No open ports detected.\n")
	} else {
		b.WriteString("| Host | Port | Service |\n")
		b.WriteString("|------|------|---------|\n")
		for _, p := range v.Ports.Items {
			b.WriteString(fmt.Sprintf("| %s | %d/%s | %s |\n", p.Host, p.Port, p.Protocol, p.Service))
		}
		writeMore(&b, v.Ports.Omitted)
	}
	b.WriteString("\n")

	// Services
	b.WriteString("## Live Web Services\n\n")
	if v.Services.Empty() {
		b.WriteString("No web services detected.\n")
	} else {
		b.WriteString("| URL | Status | Server |\n")
		b.WriteString("|-----|--------|--------|\n")
		for _, s := range v.Services.Items {
			b.WriteString(fmt.Sprintf("| %s | %s | %s |\n", s.URL, s.Status, escapePipes(s.Server)))
		}
		writeMore(&b, v.Services.Omitted)
	}
	b.WriteString("\n")

	// Findings
	b.WriteString("## Security Findings\n\n")
	if v.Findings.Empty() {
		b.WriteString("No vulnerabilities detected.\n")
	} else {
		b.WriteString("| Target | Finding |\n")
		b.WriteString("|--------|---------|\n")
		for _, f := range v.Findings.Items {
			b.WriteString(fmt.Sprintf("| %s | %s |\n", f.Target, escapePipes(f.Description)))
		}
		writeMore(&b, v.Findings.Omitted)
	}
	b.WriteString("\n")

	b.WriteString("---\n\n_For authorized security testing only._\n")

	return b.String()
}

// WriteMarkdown renders the view and writes it to outputPath
func WriteMarkdown(v *View, outputPath string) error {
	if err := os.WriteFile(outputPath, []byte(RenderMarkdown(v)), 0644); err != nil {
		return fmt.Errorf("writing report to %s: %w", outputPath, err)
	}
	return nil
}

func writeMore(b *strings.Builder, omitted int) {
	if omitted > 0 {
		b.WriteString(fmt.Sprintf("\n_...and %d more_\n", omitted))
	}
}

// escapePipes keeps free text from breaking markdown table cells
func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
