package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Len(t, cfg.Discovery.Wordlist, 20)
	require.Equal(t, 5, cfg.Limits.PortScanHosts)
	require.Equal(t, 10, cfg.Limits.ProbeHosts)
	require.Equal(t, 3, cfg.Limits.VulnScanServices)
	require.Equal(t, 20, cfg.Report.MaxServices)
}

func TestLoadExplicitFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
output_base: /tmp/recon
limits:
  probe_hosts: 4
tools:
  nikto:
    path: /opt/nikto/nikto.pl
notify:
  webhook_url: http://hooks.local/recon
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, cfg.Source)
	require.Equal(t, "/tmp/recon", cfg.OutputBase)
	require.Equal(t, 4, cfg.Limits.ProbeHosts)
	require.Equal(t, "/opt/nikto/nikto.pl", cfg.Tools.Nikto.Path)
	require.Equal(t, "http://hooks.local/recon", cfg.Notify.WebhookURL)

	// untouched keys keep their defaults
	require.Equal(t, 5, cfg.Limits.PortScanHosts)
	require.Equal(t, "nmap", cfg.Tools.Nmap.Path)
	require.Equal(t, "https://crt.sh/", cfg.Discovery.CTEndpoint)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Empty(t, cfg.Source)
	require.Equal(t, DefaultConfig().Limits, cfg.Limits)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NATIVERECON_OUTPUT_BASE", "/srv/out")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/srv/out", cfg.OutputBase)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
timeouts:
  nmap: forever
limits:
  portscan_hosts: 0
`), 0644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "timeouts.nmap")
	require.Contains(t, err.Error(), "limits.portscan_hosts")
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nativerecon.yaml")
	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "output_base:")
	require.Contains(t, string(data), "ct_endpoint: https://crt.sh/")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig().Discovery.Wordlist, cfg.Discovery.Wordlist)
	require.Equal(t, DefaultConfig().VulnScan.Matcher, cfg.VulnScan.Matcher)
}

func TestDuration(t *testing.T) {
	require.Equal(t, 15*time.Second, Duration("15s", time.Minute))
	require.Equal(t, time.Minute, Duration("", time.Minute))
	require.Equal(t, time.Minute, Duration("soon", time.Minute))
}
