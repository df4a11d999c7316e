package tools

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// NmapPort is one open port line from nmap's normal output
type NmapPort struct {
	Port     int
	Protocol string
	State    string
	Service  string
}

// RunNmap executes a fast open-ports-only TCP scan against host and parses the
// port table. Ports are only parsed when nmap exits cleanly.
func RunNmap(ctx context.Context, r Runner, host string, binaryPath string, timeout time.Duration, capturePath string) ([]NmapPort, *ToolResult) {
	binary := "nmap"
	if binaryPath != "" {
		binary = binaryPath
	}

	// -T4 aggressive timing, -F top 100 ports, --open only open ports
	res := r.Run(ctx, Command{
		Binary:      binary,
		Args:        []string{"-T4", "-F", "--open", host},
		Timeout:     timeout,
		CapturePath: capturePath,
	})
	if !res.Succeeded() {
		return nil, res
	}

	return ParseNmapOutput(res.Stdout), res
}

// ParseNmapOutput returns every open TCP port row in the output
func ParseNmapOutput(out string) []NmapPort {
	var ports []NmapPort
	for _, line := range splitLines(out) {
		if port, ok := ParseNmapLine(line); ok {
			ports = append(ports, port)
		}
	}
	return ports
}

// ParseNmapLine parses a row such as "443/tcp open  https". Lines without a
// TCP port, an open marker or at least three fields do not match.
func ParseNmapLine(line string) (NmapPort, bool) {
	if !strings.Contains(line, "/tcp") || !strings.Contains(line, "open") {
		return NmapPort{}, false
	}

	fields := strings.Fields(line)
	if len(fields) < 3 {
		return NmapPort{}, false
	}

	portStr, proto, found := strings.Cut(fields[0], "/")
	if !found || proto != "tcp" {
		return NmapPort{}, false
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return NmapPort{}, false
	}

	return NmapPort{
		Port:     port,
		Protocol: "tcp",
		State:    fields[1],
		Service:  fields[2],
	}, true
}
