package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	OutputBase string          `mapstructure:"output_base" yaml:"output_base"`
	DBPath     string          `mapstructure:"db_path" yaml:"db_path"`
	Tools      ToolsConfig     `mapstructure:"tools" yaml:"tools"`
	Timeouts   TimeoutConfig   `mapstructure:"timeouts" yaml:"timeouts"`
	Limits     LimitsConfig    `mapstructure:"limits" yaml:"limits"`
	Discovery  DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
	VulnScan   VulnScanConfig  `mapstructure:"vulnscan" yaml:"vulnscan"`
	Report     ReportConfig    `mapstructure:"report" yaml:"report"`
	Scope      ScopeConfig     `mapstructure:"scope" yaml:"scope"`
	Notify     NotifyConfig    `mapstructure:"notify" yaml:"notify"`

	// Source is the file the configuration was read from, empty for defaults
	Source string `mapstructure:"-" yaml:"-"`
}

// ToolConfig represents configuration for a single tool
type ToolConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// ToolsConfig contains configuration for all external tools
type ToolsConfig struct {
	Nmap  ToolConfig `mapstructure:"nmap" yaml:"nmap"`
	Host  ToolConfig `mapstructure:"host" yaml:"host"`
	Dig   ToolConfig `mapstructure:"dig" yaml:"dig"`
	Curl  ToolConfig `mapstructure:"curl" yaml:"curl"`
	Nikto ToolConfig `mapstructure:"nikto" yaml:"nikto"`
}

// Binaries maps tool names to configured executable paths
func (t ToolsConfig) Binaries() map[string]string {
	return map[string]string{
		"nmap":  t.Nmap.Path,
		"host":  t.Host.Path,
		"dig":   t.Dig.Path,
		"curl":  t.Curl.Path,
		"nikto": t.Nikto.Path,
	}
}

// TimeoutConfig holds per-invocation deadlines as duration strings
type TimeoutConfig struct {
	HostLookup   string `mapstructure:"host_lookup" yaml:"host_lookup"`
	NSQuery      string `mapstructure:"ns_query" yaml:"ns_query"`
	ZoneTransfer string `mapstructure:"zone_transfer" yaml:"zone_transfer"`
	CTQuery      string `mapstructure:"ct_query" yaml:"ct_query"`
	HTTPConnect  string `mapstructure:"http_connect" yaml:"http_connect"`
	HTTPTotal    string `mapstructure:"http_total" yaml:"http_total"`
	Nmap         string `mapstructure:"nmap" yaml:"nmap"`
	Nikto        string `mapstructure:"nikto" yaml:"nikto"`
}

// LimitsConfig caps how many targets each phase touches
type LimitsConfig struct {
	PortScanHosts    int `mapstructure:"portscan_hosts" yaml:"portscan_hosts"`
	ProbeHosts       int `mapstructure:"probe_hosts" yaml:"probe_hosts"`
	VulnScanServices int `mapstructure:"vulnscan_services" yaml:"vulnscan_services"`
	CTEntries        int `mapstructure:"ct_entries" yaml:"ct_entries"`
	Nameservers      int `mapstructure:"nameservers" yaml:"nameservers"`
}

// DiscoveryConfig configures subdomain discovery
type DiscoveryConfig struct {
	Wordlist   []string `mapstructure:"wordlist" yaml:"wordlist"`
	CTEndpoint string   `mapstructure:"ct_endpoint" yaml:"ct_endpoint"`
}

// VulnScanConfig configures the nikto profile and finding matcher
type VulnScanConfig struct {
	Tuning  string        `mapstructure:"tuning" yaml:"tuning"`
	MaxTime string        `mapstructure:"max_time" yaml:"max_time"`
	Matcher MatcherConfig `mapstructure:"matcher" yaml:"matcher"`
}

// MatcherConfig selects which scanner output lines count as findings
type MatcherConfig struct {
	Prefix   string   `mapstructure:"prefix" yaml:"prefix"`
	Tokens   []string `mapstructure:"tokens" yaml:"tokens"`
	Keywords []string `mapstructure:"keywords" yaml:"keywords"`
}

// ReportConfig sets how many rows each report section shows
type ReportConfig struct {
	MaxSubdomains int `mapstructure:"max_subdomains" yaml:"max_subdomains"`
	MaxPorts      int `mapstructure:"max_ports" yaml:"max_ports"`
	MaxServices   int `mapstructure:"max_services" yaml:"max_services"`
	MaxFindings   int `mapstructure:"max_findings" yaml:"max_findings"`
}

// ScopeConfig restricts which targets may be scanned
type ScopeConfig struct {
	AllowedDomains []string `mapstructure:"allowed_domains" yaml:"allowed_domains"`
}

// NotifyConfig configures the completion webhook
type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url"`
}

// Load reads configuration from a YAML file layered over DefaultConfig.
// If path is empty, searches for nativerecon.yaml in the current directory,
// ./configs and ~/.config/nativerecon/; finding none yields the defaults.
// Environment variables prefixed NATIVERECON_ override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Seed every key from the defaults so env overrides and partial files work
	defaults, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	v.SetEnvPrefix("NATIVERECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		// Use explicit path
		v.SetConfigFile(path)
	} else {
		// Search for config in default locations
		v.SetConfigName("nativerecon")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		homeDir, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "nativerecon"))
		}
	}

	source := ""
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		source = v.ConfigFileUsed()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Source = source

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.OutputBase == "" {
		errs = append(errs, errors.New("output_base cannot be empty"))
	}

	timeouts := map[string]string{
		"timeouts.host_lookup":   c.Timeouts.HostLookup,
		"timeouts.ns_query":      c.Timeouts.NSQuery,
		"timeouts.zone_transfer": c.Timeouts.ZoneTransfer,
		"timeouts.ct_query":      c.Timeouts.CTQuery,
		"timeouts.http_connect":  c.Timeouts.HTTPConnect,
		"timeouts.http_total":    c.Timeouts.HTTPTotal,
		"timeouts.nmap":          c.Timeouts.Nmap,
		"timeouts.nikto":         c.Timeouts.Nikto,
		"vulnscan.max_time":      c.VulnScan.MaxTime,
	}
	for key, value := range timeouts {
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be a positive duration, got %q", key, value))
		}
	}

	limits := map[string]int{
		"limits.portscan_hosts":    c.Limits.PortScanHosts,
		"limits.probe_hosts":       c.Limits.ProbeHosts,
		"limits.vulnscan_services": c.Limits.VulnScanServices,
		"limits.ct_entries":        c.Limits.CTEntries,
		"limits.nameservers":       c.Limits.Nameservers,
		"report.max_subdomains":    c.Report.MaxSubdomains,
		"report.max_ports":         c.Report.MaxPorts,
		"report.max_services":      c.Report.MaxServices,
		"report.max_findings":      c.Report.MaxFindings,
	}
	for key, value := range limits {
		if value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", key))
		}
	}

	if c.Discovery.CTEndpoint == "" {
		errs = append(errs, errors.New("discovery.ct_endpoint cannot be empty"))
	}

	if c.VulnScan.Matcher.Prefix == "" && len(c.VulnScan.Matcher.Tokens) == 0 && len(c.VulnScan.Matcher.Keywords) == 0 {
		errs = append(errs, errors.New("vulnscan.matcher needs a prefix, tokens or keywords"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Duration parses a validated duration string, returning fallback when the
// value is empty or malformed.
func Duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
