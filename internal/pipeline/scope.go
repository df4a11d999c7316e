package pipeline

import (
	"fmt"
	"net"
	"strings"

	"github.com/hakim/nativerecon/internal/models"
)

// ScopeConfig defines allowed scanning boundaries.
// An empty ScopeConfig (no rules) allows any target.
type ScopeConfig struct {
	// AllowedDomains is a list of domain patterns the target must match.
	// Wildcard prefix ("*.example.com") matches any single-label subdomain.
	// Exact entry ("example.com") matches only that literal value.
	AllowedDomains []string
}

// ValidateTarget checks if a domain is within scope.
// Returns nil if allowed, error if out of scope.
// If AllowedDomains is empty, everything is allowed.
func (s *ScopeConfig) ValidateTarget(target string) error {
	if s == nil || len(s.AllowedDomains) == 0 {
		return nil
	}
	for _, pattern := range s.AllowedDomains {
		if domainMatches(target, pattern) {
			return nil
		}
	}
	return fmt.Errorf("target %q is outside allowed scope (domains: %s)",
		target, strings.Join(s.AllowedDomains, ", "))
}

// NormalizeTarget lowercases a domain from the command line, strips the
// trailing dot and rejects anything that is not a plain DNS name: URLs,
// IP addresses, wildcards and names with illegal labels.
func NormalizeTarget(raw string) (string, error) {
	target := models.NormalizeHost(raw)

	switch {
	case target == "":
		return "", fmt.Errorf("target is empty")
	case net.ParseIP(target) != nil:
		return "", fmt.Errorf("target %q is an IP address; a domain name is required", raw)
	case strings.ContainsAny(target, "/:@"):
		return "", fmt.Errorf("target %q must be a bare domain, not a URL", raw)
	case len(target) > 253:
		return "", fmt.Errorf("target %q is longer than 253 characters", raw)
	}

	for _, label := range strings.Split(target, ".") {
		if !validLabel(label) {
			return "", fmt.Errorf("target %q has an invalid label %q", raw, label)
		}
	}

	return target, nil
}

// validLabel reports whether label is 1-63 letters, digits, hyphens or
// underscores and does not begin or end with a hyphen.
func validLabel(label string) bool {
	if len(label) == 0 || len(label) > 63 {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for _, c := range label {
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '_') {
			return false
		}
	}
	return true
}

// domainMatches returns true when target satisfies the scope pattern.
//
//   - "*.example.com" matches "foo.example.com" but not "example.com" or
//     "foo.bar.example.com" (single wildcard label only).
//   - "example.com" matches only the exact string "example.com".
//   - Comparison is case-insensitive.
func domainMatches(target, pattern string) bool {
	target = strings.ToLower(target)
	pattern = strings.ToLower(pattern)

	if !strings.HasPrefix(pattern, "*.") {
		return target == pattern
	}

	suffix := pattern[2:]
	if !strings.HasSuffix(target, "."+suffix) {
		return false
	}

	// The part before the suffix must be a single label (no dots).
	label := target[:len(target)-len(suffix)-1]
	return len(label) > 0 && !strings.Contains(label, ".")
}
