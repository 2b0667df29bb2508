package scaffold_test

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/alnah/go-bookexport/internal/config"
	"github.com/alnah/go-bookexport/internal/scaffold"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ----------------------------------------------------------------------------
// TestCreate - laying out a fresh project
// ----------------------------------------------------------------------------

func TestCreate(t *testing.T) {
	t.Parallel()

	t.Run("creates layout and starter files", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		report, err := scaffold.Create(dir, "river-atlas", false, discardLogger())
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		for _, d := range []string{
			"manuscript/front-matter",
			"manuscript/chapters",
			"manuscript/back-matter",
			"assets",
			"output",
			"config",
		} {
			info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(d)))
			if err != nil || !info.IsDir() {
				t.Errorf("directory %s missing (err=%v)", d, err)
			}
		}
		for _, f := range []string{
			"book.toml",
			"config/metadata.yaml",
			"config/metadata_values.json",
			"manuscript/chapters/01-chapter.md",
			"manuscript/front-matter/toc.md",
			"README.md",
		} {
			if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(f))); err != nil {
				t.Errorf("file %s missing: %v", f, err)
			}
			if !slices.Contains(report.Created, f) {
				t.Errorf("report.Created missing %s: %v", f, report.Created)
			}
		}
		if len(report.Skipped) != 0 {
			t.Errorf("report.Skipped = %v, want empty", report.Skipped)
		}
	})

	t.Run("splices project name into book.toml", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		if _, err := scaffold.Create(dir, "river-atlas", false, discardLogger()); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		cfg, _, found, err := config.Load(filepath.Join(dir, "book.toml"), dir)
		if err != nil {
			t.Fatalf("loading generated book.toml: %v", err)
		}
		if !found {
			t.Fatal("generated book.toml not found by loader")
		}
		if cfg.Book.Name != "river-atlas" {
			t.Errorf("Book.Name = %q, want %q", cfg.Book.Name, "river-atlas")
		}
	})

	t.Run("metadata template keeps placeholders intact", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		if _, err := scaffold.Create(dir, "", false, discardLogger()); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		raw, err := os.ReadFile(filepath.Join(dir, "config", "metadata.yaml"))
		if err != nil {
			t.Fatalf("reading metadata template: %v", err)
		}
		for _, key := range []string{"{{BOOK_TITLE}}", "{{AUTHOR_NAME}}", "{{PUBLICATION_DATE}}", "{{KDP_ENABLED}}"} {
			if !strings.Contains(string(raw), key) {
				t.Errorf("template missing placeholder %s", key)
			}
		}
	})

	t.Run("values file parses and defaults to auto date", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		if _, err := scaffold.Create(dir, "", false, discardLogger()); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		raw, err := os.ReadFile(filepath.Join(dir, "config", "metadata_values.json"))
		if err != nil {
			t.Fatalf("reading values file: %v", err)
		}
		var values map[string]any
		if err := json.Unmarshal(raw, &values); err != nil {
			t.Fatalf("values file is not valid JSON: %v", err)
		}
		if values["PUBLICATION_DATE"] != "auto" {
			t.Errorf("PUBLICATION_DATE = %v, want auto", values["PUBLICATION_DATE"])
		}
		if _, ok := values["OUTPUT_FORMATS"].([]any); !ok {
			t.Errorf("OUTPUT_FORMATS = %v, want list", values["OUTPUT_FORMATS"])
		}
	})
}

// ----------------------------------------------------------------------------
// TestCreateExisting - rerunning over an existing project
// ----------------------------------------------------------------------------

func TestCreateExisting(t *testing.T) {
	t.Parallel()

	t.Run("existing files are skipped", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		chapter := filepath.Join(dir, "manuscript", "chapters", "01-chapter.md")
		if err := os.MkdirAll(filepath.Dir(chapter), 0o750); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(chapter, []byte("my words\n"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}

		report, err := scaffold.Create(dir, "", false, discardLogger())
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		got, err := os.ReadFile(chapter)
		if err != nil {
			t.Fatalf("reading chapter: %v", err)
		}
		if string(got) != "my words\n" {
			t.Errorf("existing chapter overwritten: %q", got)
		}
		if !slices.Contains(report.Skipped, "manuscript/chapters/01-chapter.md") {
			t.Errorf("report.Skipped = %v, want the existing chapter", report.Skipped)
		}
	})

	t.Run("force overwrites", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		if _, err := scaffold.Create(dir, "", false, discardLogger()); err != nil {
			t.Fatalf("first Create() error = %v", err)
		}
		readme := filepath.Join(dir, "README.md")
		if err := os.WriteFile(readme, []byte("edited\n"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}

		if _, err := scaffold.Create(dir, "", true, discardLogger()); err != nil {
			t.Fatalf("forced Create() error = %v", err)
		}

		got, err := os.ReadFile(readme)
		if err != nil {
			t.Fatalf("reading README: %v", err)
		}
		if string(got) == "edited\n" {
			t.Error("force did not overwrite README.md")
		}
	})
}
