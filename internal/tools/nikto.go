package tools

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// FindingMatcher decides whether a scanner output line is a finding
type FindingMatcher interface {
	Match(line string) bool
}

// LineMatcher accepts lines that start with Prefix and contain either one of
// Tokens (case-sensitive) or one of Keywords (case-insensitive).
type LineMatcher struct {
	Prefix   string
	Tokens   []string
	Keywords []string
}

// DefaultFindingMatcher matches nikto's "+ " lines that cite an OSVDB entry
// or mention a vulnerability.
func DefaultFindingMatcher() *LineMatcher {
	return &LineMatcher{
		Prefix:   "+ ",
		Tokens:   []string{"OSVDB"},
		Keywords: []string{"vulnerab"},
	}
}

// Match implements FindingMatcher
func (m *LineMatcher) Match(line string) bool {
	line = strings.TrimSpace(line)
	if m.Prefix != "" && !strings.HasPrefix(line, m.Prefix) {
		return false
	}

	for _, token := range m.Tokens {
		if token != "" && strings.Contains(line, token) {
			return true
		}
	}

	lower := strings.ToLower(line)
	for _, keyword := range m.Keywords {
		if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}

	return false
}

// NiktoOptions controls the scan profile
type NiktoOptions struct {
	BinaryPath  string
	Tuning      string
	MaxTime     time.Duration
	Timeout     time.Duration
	CapturePath string
}

// RunNikto scans targetURL and returns the raw output lines accepted by matcher
func RunNikto(ctx context.Context, r Runner, targetURL string, opts NiktoOptions, matcher FindingMatcher) ([]string, *ToolResult) {
	binary := "nikto"
	if opts.BinaryPath != "" {
		binary = opts.BinaryPath
	}

	args := []string{"-h", targetURL}
	if opts.Tuning != "" {
		args = append(args, "-Tuning", opts.Tuning)
	}
	if opts.MaxTime > 0 {
		args = append(args, "-maxtime", strconv.Itoa(int(opts.MaxTime.Seconds()))+"s")
	}

	res := r.Run(ctx, Command{
		Binary:      binary,
		Args:        args,
		Timeout:     opts.Timeout,
		CapturePath: opts.CapturePath,
	})
	if !res.Succeeded() || res.Stdout == "" {
		return nil, res
	}

	return ParseNiktoFindings(res.Stdout, matcher), res
}

// ParseNiktoFindings returns the trimmed lines accepted by matcher
func ParseNiktoFindings(out string, matcher FindingMatcher) []string {
	if matcher == nil {
		matcher = DefaultFindingMatcher()
	}

	var findings []string
	for _, line := range splitLines(out) {
		if matcher.Match(line) {
			findings = append(findings, strings.TrimSpace(line))
		}
	}
	return findings
}
