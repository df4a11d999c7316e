package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hakim/nativerecon/internal/models"
)

// WriteJSON writes the full aggregate, untruncated, as indented JSON
func WriteJSON(scan *models.ScanResult, outputPath string) error {
	data, err := json.MarshalIndent(scan, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("writing results to %s: %w", outputPath, err)
	}
	return nil
}

// LoadResults reads an aggregate previously written by WriteJSON
func LoadResults(path string) (*models.ScanResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}

	var scan models.ScanResult
	if err := json.Unmarshal(data, &scan); err != nil {
		return nil, fmt.Errorf("decoding results from %s: %w", path, err)
	}
	if scan.Target == "" {
		return nil, fmt.Errorf("results in %s have no target", path)
	}
	return &scan, nil
}

// WriteSubdomainList writes one subdomain per line
func WriteSubdomainList(subdomains []string, outputPath string) error {
	if err := os.WriteFile(outputPath, []byte(strings.Join(subdomains, "\n")), 0644); err != nil {
		return fmt.Errorf("writing subdomain list to %s: %w", outputPath, err)
	}
	return nil
}
