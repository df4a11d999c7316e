package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"strings"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Recon Report - {{.Target}}</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background: #eef0f7; padding: 20px; color: #333; }
        .container { max-width: 1200px; margin: 0 auto; background: white; border-radius: 15px; box-shadow: 0 20px 60px rgba(0,0,0,0.2); overflow: hidden; }
        .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 40px; text-align: center; }
        .header h1 { font-size: 2.5em; margin-bottom: 10px; }
        .stats { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 20px; padding: 30px; background: #f8f9fa; }
        .stat-card { background: white; padding: 20px; border-radius: 10px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); text-align: center; }
        .stat-card .number { font-size: 2.5em; font-weight: bold; color: #667eea; }
        .stat-card .label { color: #666; margin-top: 10px; }
        .section { padding: 30px; }
        .section h2 { color: #667eea; margin-bottom: 20px; font-size: 1.8em; border-bottom: 3px solid #667eea; padding-bottom: 10px; }
        .item { background: #f8f9fa; padding: 15px; margin: 10px 0; border-radius: 8px; border-left: 4px solid #667eea; }
        .item code { background: #e9ecef; padding: 2px 6px; border-radius: 3px; font-family: 'Courier New', monospace; }
        .vulnerability { border-left-color: #dc3545; background: #fff5f5; }
        .port { display: inline-block; background: #667eea; color: white; padding: 5px 10px; border-radius: 5px; margin: 5px; font-size: 0.9em; }
        .footer { text-align: center; padding: 20px; background: #f8f9fa; color: #666; }
        .timestamp { opacity: 0.9; font-size: 0.9em; }
        .skipped { margin-top: 10px; font-size: 0.9em; }
        .more { color: #666; margin-top: 10px; font-style: italic; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Reconnaissance Report</h1>
            <p>Target: <strong id="target">{{.Target}}</strong></p>
            <p class="timestamp">Generated: {{.GeneratedAt.Format "2006-01-02 15:04:05"}}</p>
            {{- if .Skipped}}
            <p class="skipped">Skipped phases: {{join .Skipped ", "}}</p>
            {{- end}}
        </div>

        <div class="stats">
            <div class="stat-card" id="count-subdomains"><div class="number">{{.Summary.Subdomains}}</div><div class="label">Subdomains</div></div>
            <div class="stat-card" id="count-ports"><div class="number">{{.Summary.Ports}}</div><div class="label">Open Ports</div></div>
            <div class="stat-card" id="count-services"><div class="number">{{.Summary.Services}}</div><div class="label">Web Services</div></div>
            <div class="stat-card" id="count-findings"><div class="number">{{.Summary.Findings}}</div><div class="label">Findings</div></div>
        </div>

        <div class="section" id="subdomains">
            <h2>Subdomains Discovered</h2>
            {{- range .Subdomains.Items}}
            <div class="item"><code>{{.}}</code></div>
            {{- else}}
            <div class="item">No subdomains found</div>
            {{- end}}
            {{- if .Subdomains.Omitted}}
            <p class="more">...and {{.Subdomains.Omitted}} more</p>
            {{- end}}
        </div>

        <div class="section" id="ports">
            <h2>Open Ports</h2>
            {{- range .Ports.Items}}
            <div class="item"><strong>{{.Host}}</strong> : <span class="port">{{.Port}}/{{.Protocol}} - {{.Service}}</span></div>
            {{- else}}
            <div class="item">No open ports detected</div>
            {{- end}}
            {{- if .Ports.Omitted}}
            <p class="more">...and {{.Ports.Omitted}} more</p>
            {{- end}}
        </div>

        <div class="section" id="services">
            <h2>Live Web Services</h2>
            {{- range .Services.Items}}
            <div class="item"><strong>{{.URL}}</strong> - Status: {{.Status}} - Server: {{.Server}}</div>
            {{- else}}
            <div class="item">No web services detected</div>
            {{- end}}
            {{- if .Services.Omitted}}
            <p class="more">...and {{.Services.Omitted}} more</p>
            {{- end}}
        </div>

        <div class="section" id="findings">
            <h2>Security Findings</h2>
            {{- range .Findings.Items}}
            <div class="item vulnerability"><strong>{{.Target}}</strong> {{.Description}}</div>
            {{- else}}
            <div class="item">No vulnerabilities detected</div>
            {{- end}}
            {{- if .Findings.Omitted}}
            <p class="more">...and {{.Findings.Omitted}} more</p>
            {{- end}}
        </div>

        <div class="footer">
            <p>Scan {{.ScanID}}</p>
            <p>For authorized security testing only</p>
        </div>
    </div>
</body>
</html>
`

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(htmlTemplate))

// RenderHTML renders the view as a standalone HTML page. Every value is
// escaped by html/template, so tool output cannot inject markup.
func RenderHTML(v *View) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("rendering HTML report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteHTML renders the view and writes it to outputPath
func WriteHTML(v *View, outputPath string) error {
	data, err := RenderHTML(v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("writing report to %s: %w", outputPath, err)
	}
	return nil
}

