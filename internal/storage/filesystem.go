package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// RawDirName is the subdirectory holding one capture file per tool invocation
const RawDirName = "raw_output"

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9-]+`)

// SanitizeTarget replaces every run of characters other than letters,
// digits and hyphens with a single underscore, so hosts and URLs can be
// used as file name parts.
func SanitizeTarget(target string) string {
	return unsafeChars.ReplaceAllString(target, "_")
}

// OutputDirName generates the default directory name for a run
// Format: recon_{target}_{YYYYMMDD}_{HHMMSS}
func OutputDirName(target string, startedAt time.Time) string {
	return fmt.Sprintf("recon_%s_%s", SanitizeTarget(target), startedAt.Format("20060102_150405"))
}

// CaptureName returns the capture file name for one tool invocation
func CaptureName(tool, target string) string {
	return fmt.Sprintf("%s_%s.txt", tool, SanitizeTarget(target))
}

// CreateOutputDir creates the run directory and its raw output subdirectory
func CreateOutputDir(path string) error {
	if err := EnsureDir(path); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := EnsureDir(RawDir(path)); err != nil {
		return fmt.Errorf("creating raw output directory: %w", err)
	}
	return nil
}

// RawDir returns the raw output subdirectory of a run directory
func RawDir(outputDir string) string {
	return filepath.Join(outputDir, RawDirName)
}

// EnsureDir creates a directory and all parent directories if they don't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
