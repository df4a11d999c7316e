package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultWordlist is the built-in dictionary of subdomain labels
var DefaultWordlist = []string{
	"www", "mail", "ftp", "admin", "api",
	"dev", "staging", "test", "portal", "app",
	"mobile", "vpn", "blog", "shop", "cdn",
	"secure", "login", "dashboard", "beta", "demo",
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		OutputBase: ".",
		DBPath:     "nativerecon.db",
		Tools: ToolsConfig{
			Nmap:  ToolConfig{Path: "nmap"},
			Host:  ToolConfig{Path: "host"},
			Dig:   ToolConfig{Path: "dig"},
			Curl:  ToolConfig{Path: "curl"},
			Nikto: ToolConfig{Path: "nikto"},
		},
		Timeouts: TimeoutConfig{
			HostLookup:   "5s",
			NSQuery:      "10s",
			ZoneTransfer: "15s",
			CTQuery:      "30s",
			HTTPConnect:  "5s",
			HTTPTotal:    "10s",
			Nmap:         "20m",
			Nikto:        "20m",
		},
		Limits: LimitsConfig{
			PortScanHosts:    5,
			ProbeHosts:       10,
			VulnScanServices: 3,
			CTEntries:        50,
			Nameservers:      3,
		},
		Discovery: DiscoveryConfig{
			Wordlist:   append([]string(nil), DefaultWordlist...),
			CTEndpoint: "https://crt.sh/",
		},
		VulnScan: VulnScanConfig{
			Tuning:  "123456789",
			MaxTime: "300s",
			Matcher: MatcherConfig{
				Prefix:   "+ ",
				Tokens:   []string{"OSVDB"},
				Keywords: []string{"vulnerab"},
			},
		},
		Report: ReportConfig{
			MaxSubdomains: 30,
			MaxPorts:      30,
			MaxServices:   20,
			MaxFindings:   30,
		},
		Scope: ScopeConfig{
			AllowedDomains: []string{},
		},
	}
}

// WriteDefault writes a default configuration to the specified path
func WriteDefault(path string) error {
	cfg := DefaultConfig()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
