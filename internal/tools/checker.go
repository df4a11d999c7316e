package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrMissingTools is returned by the pre-flight check when a required tool is absent
var ErrMissingTools = errors.New("required tools are missing")

// ToolRequirement represents an external tool dependency
type ToolRequirement struct {
	Name       string // Display name
	Binary     string // Executable name or path
	Required   bool   // Whether the tool is required
	InstallCmd string // Installation command
	Purpose    string // One-line description
}

// CheckResult represents the result of checking a single tool
type CheckResult struct {
	Tool    ToolRequirement
	Found   bool
	Path    string
	Version string
}

// LookPathFunc resolves a binary on PATH. Swapped in tests.
type LookPathFunc func(file string) (string, error)

// DefaultTools returns the five external tools the pipeline shells out to
func DefaultTools() []ToolRequirement {
	return []ToolRequirement{
		{
			Name:       "nmap",
			Binary:     "nmap",
			Required:   true,
			InstallCmd: "sudo apt install nmap",
			Purpose:    "TCP port scanning",
		},
		{
			Name:       "host",
			Binary:     "host",
			Required:   true,
			InstallCmd: "sudo apt install bind9-host",
			Purpose:    "Forward DNS lookups",
		},
		{
			Name:       "dig",
			Binary:     "dig",
			Required:   true,
			InstallCmd: "sudo apt install dnsutils",
			Purpose:    "NS and AXFR queries",
		},
		{
			Name:       "curl",
			Binary:     "curl",
			Required:   true,
			InstallCmd: "sudo apt install curl",
			Purpose:    "HTTP header probes and CT log queries",
		},
		{
			Name:       "nikto",
			Binary:     "nikto",
			Required:   true,
			InstallCmd: "sudo apt install nikto",
			Purpose:    "Web vulnerability scanning",
		},
	}
}

// WithBinaries returns a copy of tools with binaries overridden by name
func WithBinaries(tools []ToolRequirement, binaries map[string]string) []ToolRequirement {
	out := make([]ToolRequirement, len(tools))
	copy(out, tools)
	for i := range out {
		if b := binaries[out[i].Name]; b != "" {
			out[i].Binary = b
		}
	}
	return out
}

// CheckTools checks all tools in the provided list
func CheckTools(tools []ToolRequirement) []CheckResult {
	return checkTools(tools, exec.LookPath, true)
}

// checkTools resolves each tool with lookPath; version probing is optional
func checkTools(tools []ToolRequirement, lookPath LookPathFunc, withVersion bool) []CheckResult {
	results := make([]CheckResult, len(tools))
	for i, tool := range tools {
		results[i] = checkTool(tool, lookPath, withVersion)
	}
	return results
}

func checkTool(tool ToolRequirement, lookPath LookPathFunc, withVersion bool) CheckResult {
	result := CheckResult{
		Tool:  tool,
		Found: false,
	}

	path, err := lookPath(tool.Binary)
	if err != nil {
		return result
	}

	result.Found = true
	result.Path = path

	if withVersion {
		result.Version = getVersion(path)
	}

	return result
}

// Preflight verifies every required tool is present. The returned error wraps
// ErrMissingTools and names each missing tool with its install command.
func Preflight(tools []ToolRequirement) ([]CheckResult, error) {
	return preflight(tools, exec.LookPath)
}

func preflight(tools []ToolRequirement, lookPath LookPathFunc) ([]CheckResult, error) {
	results := checkTools(tools, lookPath, false)

	var missing []string
	for _, r := range results {
		if r.Tool.Required && !r.Found {
			missing = append(missing, fmt.Sprintf("%s (install: %s)", r.Tool.Name, r.Tool.InstallCmd))
		}
	}

	if len(missing) > 0 {
		return results, fmt.Errorf("%w: %s", ErrMissingTools, strings.Join(missing, "; "))
	}
	return results, nil
}

// getVersion attempts to get the version of a tool
func getVersion(binary string) string {
	// Try common version flags
	versionFlags := []string{"--version", "-version", "-V", "-v"}

	for _, flag := range versionFlags {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		cmd := exec.CommandContext(ctx, binary, flag)
		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out

		err := cmd.Run()
		cancel()
		if err == nil && out.Len() > 0 {
			firstLine := strings.Split(out.String(), "\n")[0]
			version := strings.TrimSpace(firstLine)
			if len(version) > 50 {
				version = version[:50] + "..."
			}
			return version
		}
	}

	return "unknown"
}
