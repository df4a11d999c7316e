package portscan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hakim/nativerecon/internal/models"
	"github.com/hakim/nativerecon/internal/tools"
	"github.com/hakim/nativerecon/internal/tools/toolstest"
)

func scanWith(names ...string) *models.ScanResult {
	scan := models.NewScanResult("example.com")
	for _, n := range names {
		scan.AddSubdomain(n)
	}
	return scan
}

func TestRunPortScanCapsHostsInSortedOrder(t *testing.T) {
	scan := scanWith()
	for i := 0; i < 8; i++ {
		scan.AddSubdomain(fmt.Sprintf("h%d.example.com", i))
	}

	r := toolstest.NewFakeRunner().Handle("nmap", func(cmd tools.Command) *tools.ToolResult {
		return toolstest.Output("PORT   STATE SERVICE\n80/tcp open  http\n")
	})

	result, err := RunPortScan(context.Background(), r, scan, PortScanConfig{MaxHosts: 5, Timeout: time.Minute})
	require.NoError(t, err)

	calls := r.CallsTo("nmap")
	require.Len(t, calls, 5)
	require.Equal(t, []string{"-T4", "-F", "--open", "example.com"}, calls[0].Args)
	require.Equal(t, scan.Subdomains[:5], result.Hosts)

	require.Len(t, scan.Ports, 5)
	for i, p := range scan.Ports {
		require.Equal(t, scan.Subdomains[i], p.Host)
		require.Equal(t, 80, p.Port)
		require.Equal(t, "tcp", p.Protocol)
		require.Equal(t, "open", p.State)
		require.Equal(t, "http", p.Service)
	}
	require.Equal(t, 5, result.TotalPorts)
}

func TestRunPortScanSkipsFailedHosts(t *testing.T) {
	scan := scanWith("a.example.com", "b.example.com")

	r := toolstest.NewFakeRunner().Handle("nmap", func(cmd tools.Command) *tools.ToolResult {
		switch cmd.Args[len(cmd.Args)-1] {
		case "a.example.com":
			return toolstest.Timeout()
		case "b.example.com":
			return toolstest.Output("22/tcp open ssh\n443/tcp open https\n")
		}
		return toolstest.Output("All 100 scanned ports are filtered\n")
	})

	result, err := RunPortScan(context.Background(), r, scan, PortScanConfig{MaxHosts: 5})
	require.NoError(t, err)
	require.Len(t, scan.Ports, 2)
	require.Equal(t, "b.example.com", scan.Ports[0].Host)

	outcomes := map[string]models.ProbeOutcome{}
	for _, p := range result.Probes {
		outcomes[p.Target] = p.Outcome
	}
	require.Equal(t, models.OutcomeTimeout, outcomes["a.example.com"])
	require.Equal(t, models.OutcomeOK, outcomes["b.example.com"])
	require.Equal(t, models.OutcomeOK, outcomes["example.com"])
}

func TestRunPortScanWritesCaptures(t *testing.T) {
	raw := t.TempDir()
	r := toolstest.NewFakeRunner().Handle("nmap", func(cmd tools.Command) *tools.ToolResult {
		return toolstest.Output("80/tcp open http\n")
	})

	_, err := RunPortScan(context.Background(), r, scanWith(), PortScanConfig{MaxHosts: 5, RawDir: raw})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(raw, "nmap_example_com.txt"))
	require.NoError(t, err)
	require.Equal(t, "80/tcp open http\n", string(data))
}

func TestRunPortScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunPortScan(ctx, toolstest.NewFakeRunner(), scanWith(), PortScanConfig{MaxHosts: 5})
	require.ErrorIs(t, err, context.Canceled)
}
