package tools

import (
	"context"
	"strings"
	"time"
)

// HostLookup is the outcome of a forward lookup of one name
type HostLookup struct {
	Name     string
	Resolved bool
}

// LookupHost runs `host <fqdn>` and reports whether an address record came back.
// The exit code is ignored: host exits non-zero for NXDOMAIN and the output
// decides.
func LookupHost(ctx context.Context, r Runner, fqdn string, binaryPath string, timeout time.Duration) (HostLookup, *ToolResult) {
	binary := "host"
	if binaryPath != "" {
		binary = binaryPath
	}

	res := r.Run(ctx, Command{
		Binary:  binary,
		Args:    []string{fqdn},
		Timeout: timeout,
	})

	lookup := HostLookup{Name: fqdn}
	if res.Err == nil {
		lookup.Resolved = HasAddressRecord(res.Stdout)
	}
	return lookup, res
}

// HasAddressRecord reports whether host output contains an IPv4 or IPv6 answer
func HasAddressRecord(out string) bool {
	return strings.Contains(out, "has address") || strings.Contains(out, "has IPv6 address")
}
