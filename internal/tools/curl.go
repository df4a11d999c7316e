package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// UnknownValue fills status and server fields that could not be parsed
const UnknownValue = "Unknown"

// liveStatuses are the status codes that mark an HTTP endpoint as live
var liveStatuses = []string{"200", "301", "302", "403"}

// HeaderProbe is the parsed response of a HEAD request
type HeaderProbe struct {
	URL    string
	Status string
	Server string
}

// Live reports whether the status is one of the live codes
func (h HeaderProbe) Live() bool {
	return IsLiveStatus(h.Status)
}

// IsLiveStatus reports whether a status token counts as a live service
func IsLiveStatus(status string) bool {
	return slices.Contains(liveStatuses, status)
}

// FetchHeaders runs `curl -I -s` against rawURL. The connect timeout and total
// timeout are passed to curl; the process deadline adds a short grace period
// on top of the total so curl reports its own timeout first.
func FetchHeaders(ctx context.Context, r Runner, rawURL string, binaryPath string, connectTimeout, totalTimeout time.Duration) (HeaderProbe, bool, *ToolResult) {
	binary := "curl"
	if binaryPath != "" {
		binary = binaryPath
	}

	res := r.Run(ctx, Command{
		Binary: binary,
		Args: []string{
			"-I", "-s",
			"--connect-timeout", seconds(connectTimeout),
			"-m", seconds(totalTimeout),
			rawURL,
		},
		Timeout: totalTimeout + 5*time.Second,
	})

	if !res.Succeeded() || strings.TrimSpace(res.Stdout) == "" {
		return HeaderProbe{URL: rawURL}, false, res
	}

	probe := ParseHeaders(res.Stdout)
	probe.URL = rawURL
	return probe, true, res
}

// ParseHeaders reads the status token from the first line and the Server
// header from the rest. Missing values become UnknownValue.
func ParseHeaders(out string) HeaderProbe {
	probe := HeaderProbe{Status: UnknownValue, Server: UnknownValue}

	lines := splitLines(strings.TrimLeft(out, "\r\n"))
	if len(lines) == 0 {
		return probe
	}

	if fields := strings.Fields(lines[0]); len(fields) > 1 {
		probe.Status = fields[1]
	}

	for _, line := range lines {
		if strings.HasPrefix(strings.ToLower(line), "server:") {
			if server := strings.TrimSpace(line[len("server:"):]); server != "" {
				probe.Server = server
			}
			break
		}
	}

	return probe
}

// ctEntry is one row of the crt.sh JSON output
type ctEntry struct {
	NameValue string `json:"name_value"`
}

// QueryCertTransparency fetches `<endpoint>?q=%.<domain>&output=json` with curl
// and returns the raw body.
func QueryCertTransparency(ctx context.Context, r Runner, endpoint, domain string, binaryPath string, timeout time.Duration) (*ToolResult, error) {
	binary := "curl"
	if binaryPath != "" {
		binary = binaryPath
	}

	queryURL, err := CertTransparencyURL(endpoint, domain)
	if err != nil {
		return nil, err
	}

	return r.Run(ctx, Command{
		Binary:  binary,
		Args:    []string{"-s", queryURL},
		Timeout: timeout,
	}), nil
}

// CertTransparencyURL builds the search URL for all names under domain
func CertTransparencyURL(endpoint, domain string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing CT endpoint %q: %w", endpoint, err)
	}
	q := u.Query()
	q.Set("q", "%."+domain)
	q.Set("output", "json")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ParseCertTransparency decodes a crt.sh JSON array and returns names from at
// most limit entries. Multi-name values are split on newlines; empty and
// wildcard names are dropped.
func ParseCertTransparency(body []byte, limit int) ([]string, error) {
	var entries []ctEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decoding certificate transparency response: %w", err)
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	var names []string
	for _, entry := range entries {
		for _, name := range strings.Split(entry.NameValue, "\n") {
			name = strings.TrimSpace(name)
			if name == "" || strings.HasPrefix(name, "*") {
				continue
			}
			names = append(names, name)
		}
	}
	return names, nil
}

// seconds formats a duration as whole seconds for command-line flags
func seconds(d time.Duration) string {
	s := int(d.Seconds())
	if s < 1 {
		s = 1
	}
	return strconv.Itoa(s)
}
