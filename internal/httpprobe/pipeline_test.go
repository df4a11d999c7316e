package httpprobe

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hakim/nativerecon/internal/models"
	"github.com/hakim/nativerecon/internal/tools"
	"github.com/hakim/nativerecon/internal/tools/toolstest"
)

func probeConfig() HTTPProbeConfig {
	return HTTPProbeConfig{ConnectTimeout: 5 * time.Second, TotalTimeout: 10 * time.Second, MaxHosts: 10}
}

func lastArg(cmd tools.Command) string {
	return cmd.Args[len(cmd.Args)-1]
}

func TestRunHTTPProbeForbiddenIsLive(t *testing.T) {
	scan := models.NewScanResult("example.com")
	r := toolstest.NewFakeRunner().Handle("curl", func(cmd tools.Command) *tools.ToolResult {
		if lastArg(cmd) == "http://example.com" {
			return toolstest.Output("HTTP/1.1 403 Forbidden\r\nServer: nginx\r\n\r\n")
		}
		return toolstest.Exit(7, "")
	})

	result, err := RunHTTPProbe(context.Background(), r, scan, probeConfig())
	require.NoError(t, err)
	require.Equal(t, []models.Service{{URL: "http://example.com", Status: "403", Server: "nginx"}}, scan.Services)
	require.Equal(t, 1, result.LiveCount)
	require.Len(t, result.Probes, 2)
	require.Equal(t, models.OutcomeError, result.Probes[1].Outcome)
}

func TestRunHTTPProbeOnlyLiveStatuses(t *testing.T) {
	scan := models.NewScanResult("example.com")
	statuses := map[string]string{
		"http://example.com":  "HTTP/1.1 301 Moved Permanently\r\nLocation: https://example.com/\r\n",
		"https://example.com": "HTTP/2 404\r\nserver: envoy\r\n",
	}
	r := toolstest.NewFakeRunner().Handle("curl", func(cmd tools.Command) *tools.ToolResult {
		return toolstest.Output(statuses[lastArg(cmd)])
	})

	_, err := RunHTTPProbe(context.Background(), r, scan, probeConfig())
	require.NoError(t, err)
	require.Len(t, scan.Services, 1)
	require.Equal(t, "301", scan.Services[0].Status)
	require.Equal(t, tools.UnknownValue, scan.Services[0].Server)
}

func TestRunHTTPProbeCapsHosts(t *testing.T) {
	scan := models.NewScanResult("example.com")
	for i := 0; i < 14; i++ {
		scan.AddSubdomain(fmt.Sprintf("s%02d.example.com", i))
	}

	r := toolstest.NewFakeRunner().Handle("curl", func(cmd tools.Command) *tools.ToolResult {
		return toolstest.Output("HTTP/1.1 200 OK\r\nServer: Apache\r\n")
	})

	result, err := RunHTTPProbe(context.Background(), r, scan, probeConfig())
	require.NoError(t, err)

	calls := r.CallsTo("curl")
	require.Len(t, calls, 20)
	require.Equal(t, "http://example.com", lastArg(calls[0]))
	require.Equal(t, "https://example.com", lastArg(calls[1]))
	require.Equal(t, 20, result.LiveCount)

	for _, svc := range scan.Services {
		require.True(t, strings.HasPrefix(svc.URL, "http://") || strings.HasPrefix(svc.URL, "https://"))
		require.Contains(t, []string{"200", "301", "302", "403"}, svc.Status)
	}
}
