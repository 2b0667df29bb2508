package bookexport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alnah/go-bookexport/internal/validate"
)

// ReportName is the JSON run report written next to the artifacts.
const ReportName = "export-report.json"

// FormatResult records one format's outcome within a run.
type FormatResult struct {
	Format     Format  `json:"format"`
	Outcome    Outcome `json:"outcome"`
	Artifact   string  `json:"artifact,omitempty"`
	Detail     string  `json:"detail,omitempty"`
	DurationMS int64   `json:"duration_ms"`

	// Implicit marks an epub produced only to satisfy a mobi request.
	Implicit bool `json:"implicit,omitempty"`

	// Validation is attached when the run validates fresh artifacts.
	Validation *validate.Result `json:"validation,omitempty"`
}

// RunReport summarizes one export run. One copy is returned to the
// caller and one is written into the output directory as JSON.
type RunReport struct {
	RunID      string         `json:"run_id"`
	Name       string         `json:"name"`
	BookType   BookType       `json:"book_type"`
	Language   string         `json:"language"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	BackupPath string         `json:"backup_path,omitempty"`
	MergedPath string         `json:"merged_path,omitempty"`
	Fragments  []string       `json:"fragments"`
	Formats    []FormatResult `json:"formats"`
}

// Result returns the outcome recorded for a format.
func (r *RunReport) Result(f Format) (FormatResult, bool) {
	for _, fr := range r.Formats {
		if fr.Format == f {
			return fr, true
		}
	}
	return FormatResult{}, false
}

// HasFailures reports whether any format failed. Skipped formats do not
// count as failures.
func (r *RunReport) HasFailures() bool {
	for _, fr := range r.Formats {
		if fr.Outcome == OutcomeFailed {
			return true
		}
	}
	return false
}

// Produced lists the formats that yielded an artifact.
func (r *RunReport) Produced() []FormatResult {
	var out []FormatResult
	for _, fr := range r.Formats {
		if fr.Outcome == OutcomeProduced {
			out = append(out, fr)
		}
	}
	return out
}

// write stores the report as indented JSON in dir.
func (r *RunReport) write(dir string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run report: %w", err)
	}
	path := filepath.Join(dir, ReportName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { // #nosec G306 -- reports are meant to be readable
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
