package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/hakim/nativerecon/internal/models"
)

func bigScan(subdomains, ports, services, findings int) *models.ScanResult {
	scan := models.NewScanResult("example.com")
	for i := 0; len(scan.Subdomains) < subdomains; i++ {
		scan.AddSubdomain(fmt.Sprintf("h%03d.example.com", i))
	}
	for i := 0; i < ports; i++ {
		scan.Ports = append(scan.Ports, models.Port{Host: "example.com", Port: 1000 + i, Protocol: "tcp", Service: "unknown", State: "open"})
	}
	for i := 0; i < services; i++ {
		scan.Services = append(scan.Services, models.Service{URL: fmt.Sprintf("http://s%d.example.com", i), Status: "200", Server: "nginx"})
	}
	for i := 0; i < findings; i++ {
		scan.Findings = append(scan.Findings, models.Finding{Target: "http://example.com", Description: fmt.Sprintf("+ OSVDB-%d: finding", i)})
	}
	return scan
}

func TestBuildViewTruncates(t *testing.T) {
	scan := bigScan(45, 31, 25, 40)
	v := BuildView(scan, DefaultLimits(), time.Now())

	require.Len(t, v.Subdomains.Items, 30)
	require.Equal(t, 15, v.Subdomains.Omitted)
	require.Len(t, v.Ports.Items, 30)
	require.Equal(t, 1, v.Ports.Omitted)
	require.Len(t, v.Services.Items, 20)
	require.Equal(t, 5, v.Services.Omitted)
	require.Len(t, v.Findings.Items, 30)
	require.Equal(t, 10, v.Findings.Omitted)

	require.Equal(t, models.Summary{Subdomains: 45, Ports: 31, Services: 25, Findings: 40}, v.Summary)
}

func TestBuildViewUnderLimits(t *testing.T) {
	v := BuildView(bigScan(3, 2, 1, 0), DefaultLimits(), time.Now())
	require.Len(t, v.Subdomains.Items, 3)
	require.Zero(t, v.Subdomains.Omitted)
	require.True(t, v.Findings.Empty())
	require.False(t, v.Ports.Empty())
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(BuildView(bigScan(45, 0, 0, 0), DefaultLimits(), time.Now()))

	require.Contains(t, md, "**Target:** example.com")
	require.Contains(t, md, "**Subdomains:** 45")
	require.Contains(t, md, "...and 15 more")
	require.Equal(t, 30, strings.Count(md, "\n- `"))
	require.Contains(t, md, "No open ports detected.")
	require.Contains(t, md, "No web services detected.")
	require.Contains(t, md, "No vulnerabilities detected.")
}

func TestRenderMarkdownHeaderLineBreaks(t *testing.T) {
	md := RenderMarkdown(BuildView(bigScan(1, 0, 0, 0), DefaultLimits(), time.Now()))

	lines := strings.Split(md, "\n")
	for _, prefix := range []string{"**Target:**", "**Scan ID:**", "**Date:**"} {
		var line string
		for _, l := range lines {
			if strings.HasPrefix(l, prefix) {
				line = l
				break
			}
		}
		require.NotEmpty(t, line, prefix)
		require.True(t, strings.HasSuffix(line, "  "), "%q needs a hard line break", line)
	}
}

func TestRenderMarkdownEscapesPipes(t *testing.T) {
	scan := bigScan(1, 0, 0, 0)
	scan.Findings = append(scan.Findings, models.Finding{Target: "http://example.com", Description: "+ a|b"})
	md := RenderMarkdown(BuildView(scan, DefaultLimits(), time.Now()))
	require.Contains(t, md, `+ a\|b`)
}

// htmlIndex collects the text of every element with an id attribute and
// counts elements by class.
type htmlIndex struct {
	byID    map[string]string
	classes map[string]int
	more    []string
}

func indexHTML(t *testing.T, data []byte) htmlIndex {
	t.Helper()
	doc, err := html.Parse(bytes.NewReader(data))
	require.NoError(t, err)

	idx := htmlIndex{byID: map[string]string{}, classes: map[string]int{}}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				switch a.Key {
				case "id":
					idx.byID[a.Val] = strings.TrimSpace(textOf(n))
				case "class":
					idx.classes[a.Val]++
					if a.Val == "more" {
						idx.more = append(idx.more, textOf(n))
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return idx
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textOf(c))
	}
	return b.String()
}

func TestRenderHTMLStructure(t *testing.T) {
	data, err := RenderHTML(BuildView(bigScan(45, 2, 1, 0), DefaultLimits(), time.Now()))
	require.NoError(t, err)

	idx := indexHTML(t, data)
	require.Equal(t, "example.com", idx.byID["target"])
	require.True(t, strings.HasPrefix(idx.byID["count-subdomains"], "45"))
	require.True(t, strings.HasPrefix(idx.byID["count-ports"], "2"))
	require.Equal(t, []string{"...and 15 more"}, idx.more)

	// 30 subdomains + 2 ports + 1 service + the empty findings placeholder
	require.Equal(t, 34, idx.classes["item"])
	require.Contains(t, idx.byID["findings"], "No vulnerabilities detected")
}

func TestRenderHTMLEscapesToolOutput(t *testing.T) {
	scan := bigScan(1, 0, 0, 0)
	scan.Findings = append(scan.Findings, models.Finding{
		Target:      "http://example.com",
		Description: `+ <script>alert(1)</script> reflected`,
	})

	data, err := RenderHTML(BuildView(scan, DefaultLimits(), time.Now()))
	require.NoError(t, err)
	require.NotContains(t, string(data), "<script>alert(1)</script>")
	require.Contains(t, string(data), "&lt;script&gt;")
}

func TestGenerateAndReload(t *testing.T) {
	dir := t.TempDir()
	scan := bigScan(45, 3, 2, 1)
	scan.MarkSkipped("vulnscan")

	paths, err := Generate(scan, dir, DefaultLimits())
	require.NoError(t, err)
	require.FileExists(t, paths.HTML)
	require.FileExists(t, paths.Markdown)

	loaded, err := LoadResults(paths.JSON)
	require.NoError(t, err)
	require.Len(t, loaded.Subdomains, 45)
	require.Equal(t, scan.Summary(), loaded.Summary())
	require.Equal(t, scan.ID, loaded.ID)
	require.Equal(t, []string{"vulnscan"}, loaded.SkippedPhases)
	require.True(t, scan.StartedAt.Equal(loaded.StartedAt))
}

func TestLoadResultsRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))
	_, err := LoadResults(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
	_, err = LoadResults(path)
	require.Error(t, err)
}

func TestWriteSubdomainList(t *testing.T) {
	path := filepath.Join(t.TempDir(), SubdomainsFile)
	require.NoError(t, WriteSubdomainList([]string{"a.example.com", "example.com"}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "a.example.com\nexample.com", string(data))
}
