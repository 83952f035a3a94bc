package repair

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/model"
)

// ReportFileName is the verify→repair bridge file in the working
// directory.
const ReportFileName = "InvalidVideos.json"

var (
	// ErrNoReport covers every way a report can be unusable: missing
	// file, malformed JSON or a shape that is not a verification
	// report. Callers treat all of them as "run verify first".
	ErrNoReport = errors.New("repair: no usable invalid videos report")
)

// LoadReport reads and strictly shape-checks a report. Any deviation
// from {generated_at: string, creators: {name: [entries]}} yields
// ErrNoReport rather than a partial result.
func LoadReport(path string) (*model.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrNoReport
	}
	var report model.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, ErrNoReport
	}
	if report.GeneratedAt == "" || report.Creators == nil {
		return nil, ErrNoReport
	}
	for _, entries := range report.Creators {
		for _, e := range entries {
			if e.Filename == "" || e.Path == "" {
				return nil, ErrNoReport
			}
		}
	}
	return &report, nil
}

// SaveReport writes the invalid-video map as a fresh report. An
// existing report is only overwritten after confirmation (or with
// autoYes). The saved flag reports whether a file was written.
func SaveReport(invalids map[string][]model.InvalidMediaEntry, path string, autoYes bool, confirm func(prompt string) bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !autoYes {
		if confirm == nil || !confirm(ReportFileName+" already exists. Overwrite?") {
			return false, nil
		}
	}

	report := model.Report{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Creators:    invalids,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}
