package tools

import (
	"context"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/rs/zerolog/log"
)

// QueryNameservers runs `dig +short NS <domain>` and returns the server names
// with their trailing dots removed.
func QueryNameservers(ctx context.Context, r Runner, domain string, binaryPath string, timeout time.Duration) ([]string, *ToolResult) {
	binary := "dig"
	if binaryPath != "" {
		binary = binaryPath
	}

	res := r.Run(ctx, Command{
		Binary:  binary,
		Args:    []string{"+short", "NS", domain},
		Timeout: timeout,
	})
	if res.Err != nil {
		return nil, res
	}

	return ParseNameservers(res.Stdout), res
}

// ParseNameservers extracts one name server per non-empty line of dig +short output
func ParseNameservers(out string) []string {
	var servers []string
	for _, line := range splitLines(out) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		servers = append(servers, strings.TrimSuffix(line, "."))
	}
	return servers
}

// ZoneTransfer runs `dig @<nameserver> <domain> AXFR`. The returned names are
// the in-zone address records; ok is false when the transfer was refused or
// the command did not complete.
func ZoneTransfer(ctx context.Context, r Runner, nameserver, domain string, binaryPath string, timeout time.Duration) (names []string, ok bool, res *ToolResult) {
	binary := "dig"
	if binaryPath != "" {
		binary = binaryPath
	}

	res = r.Run(ctx, Command{
		Binary:  binary,
		Args:    []string{"@" + nameserver, domain, "AXFR"},
		Timeout: timeout,
	})
	if !res.Succeeded() || TransferFailed(res.Stdout) {
		return nil, false, res
	}

	return ParseZoneTransfer(res.Stdout, domain), true, res
}

// TransferFailed reports whether dig output says the server refused the transfer
func TransferFailed(out string) bool {
	return strings.Contains(out, "Transfer failed")
}

// ParseZoneTransfer returns the owner names of A and AAAA records that belong
// to domain: the apex itself or any name ending in "."+domain. Lines that are
// not resource records are ignored.
func ParseZoneTransfer(out string, domain string) []string {
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))

	seen := make(map[string]bool)
	var names []string

	for _, line := range splitLines(out) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, ";") {
			continue
		}

		rr, err := dns.NewRR(trimmed)
		if err != nil {
			log.Debug().Err(err).Str("line", trimmed).Msg("skipping unparsable AXFR line")
			continue
		}
		if rr == nil {
			continue
		}

		switch rr.(type) {
		case *dns.A, *dns.AAAA:
		default:
			continue
		}

		owner := strings.ToLower(strings.TrimSuffix(rr.Header().Name, "."))
		if strings.HasPrefix(owner, "*") {
			continue
		}
		if owner != domain && !strings.HasSuffix(owner, "."+domain) {
			continue
		}

		if !seen[owner] {
			seen[owner] = true
			names = append(names, owner)
		}
	}

	return names
}
