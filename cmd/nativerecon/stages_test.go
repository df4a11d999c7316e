package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hakim/nativerecon/internal/config"
	"github.com/hakim/nativerecon/internal/models"
	"github.com/hakim/nativerecon/internal/pipeline"
	"github.com/hakim/nativerecon/internal/report"
	"github.com/hakim/nativerecon/internal/storage"
	"github.com/hakim/nativerecon/internal/tools"
	"github.com/hakim/nativerecon/internal/tools/toolstest"
)

func fakeToolchain() *toolstest.FakeRunner {
	return toolstest.NewFakeRunner().
		Handle("host", func(cmd tools.Command) *tools.ToolResult {
			if cmd.Args[0] == "www.example.com" {
				return toolstest.Output("www.example.com has address 93.184.216.34\n")
			}
			return toolstest.Exit(1, "Host "+cmd.Args[0]+" not found: 3(NXDOMAIN)\n")
		}).
		Handle("dig", func(cmd tools.Command) *tools.ToolResult {
			if cmd.Args[0] == "+short" {
				return toolstest.Output("ns1.example.com.\n")
			}
			return toolstest.Output("; Transfer failed.\n")
		}).
		Handle("curl", func(cmd tools.Command) *tools.ToolResult {
			last := cmd.Args[len(cmd.Args)-1]
			switch {
			case strings.HasPrefix(last, "https://crt.sh/"):
				return toolstest.Output(`[{"name_value":"api.example.com"}]`)
			case last == "https://www.example.com":
				return toolstest.Output("HTTP/2 200\r\nserver: nginx\r\n")
			default:
				return toolstest.Exit(7, "")
			}
		}).
		Handle("nmap", func(cmd tools.Command) *tools.ToolResult {
			return toolstest.Output("PORT    STATE SERVICE\n443/tcp open  https\n")
		}).
		Handle("nikto", func(cmd tools.Command) *tools.ToolResult {
			return toolstest.Output("+ Server: nginx\n+ OSVDB-3092: /admin/: This might be interesting.\n")
		})
}

func TestFullPipelineWithFakeTools(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "recon_example_com")
	require.NoError(t, storage.CreateOutputDir(outputDir))

	c := config.DefaultConfig()
	runner := fakeToolchain()
	scan := models.NewScanResult("example.com")

	result, err := pipeline.RunPipeline(context.Background(), scan, buildScanStages(c, runner, outputDir),
		pipeline.PipelineConfig{OutputDir: outputDir}, nil)
	require.NoError(t, err)
	require.Equal(t, models.StatusComplete, result.Status)

	require.Equal(t, []string{"api.example.com", "example.com", "www.example.com"}, scan.Subdomains)
	require.Len(t, scan.Ports, 3)
	require.Equal(t, []models.Service{{URL: "https://www.example.com", Status: "200", Server: "nginx"}}, scan.Services)
	require.Len(t, scan.Findings, 1)

	subs, err := os.ReadFile(filepath.Join(outputDir, report.SubdomainsFile))
	require.NoError(t, err)
	require.Equal(t, "api.example.com\nexample.com\nwww.example.com", string(subs))

	for _, name := range []string{report.ResultsFile, report.HTMLReportFile, report.MarkdownFile} {
		require.FileExists(t, filepath.Join(outputDir, name))
	}
	require.FileExists(t, filepath.Join(outputDir, "raw_output", "nmap_www_example_com.txt"))
	require.FileExists(t, filepath.Join(outputDir, "raw_output", "nikto_https_www_example_com.txt"))

	loaded, err := report.LoadResults(filepath.Join(outputDir, report.ResultsFile))
	require.NoError(t, err)
	require.Equal(t, scan.Summary(), loaded.Summary())
}

func TestFullPipelineWithoutServicesSkipsVulnScan(t *testing.T) {
	outputDir := t.TempDir()
	require.NoError(t, storage.CreateOutputDir(outputDir))

	runner := toolstest.NewFakeRunner() // nothing installed, every probe fails
	scan := models.NewScanResult("example.com")

	result, err := pipeline.RunPipeline(context.Background(), scan, buildScanStages(config.DefaultConfig(), runner, outputDir),
		pipeline.PipelineConfig{OutputDir: outputDir}, nil)
	require.NoError(t, err)
	require.Equal(t, pipeline.StageOrder, result.StagesRun)
	require.Equal(t, []string{"example.com"}, scan.Subdomains)
	require.Equal(t, []string{"vulnscan"}, scan.SkippedPhases)
	require.Empty(t, runner.CallsTo("nikto"))

	md, err := os.ReadFile(filepath.Join(outputDir, report.MarkdownFile))
	require.NoError(t, err)
	require.Contains(t, string(md), "No vulnerabilities detected.")
}
