package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	bookexport "github.com/alnah/go-bookexport"
)

func TestExportCommand_MarkdownRun(t *testing.T) {
	t.Parallel()

	root := writeProject(t, minimalTOML)
	env := newTestEnv(root)

	stdout, _, err := runCLI(t, env, "export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(stdout, string(bookexport.OutcomeProduced)) {
		t.Errorf("summary should report a produced format:\n%s", stdout)
	}
	if !strings.Contains(stdout, "tide-ebook.md") {
		t.Errorf("summary should name the artifact:\n%s", stdout)
	}

	artifact := filepath.Join(root, "output", "tide-ebook.md")
	data, rerr := os.ReadFile(artifact)
	if rerr != nil {
		t.Fatalf("reading artifact: %v", rerr)
	}
	if !strings.Contains(string(data), "# One") {
		t.Errorf("artifact missing chapter content:\n%s", data)
	}
	if _, serr := os.Stat(filepath.Join(root, "output", bookexport.ReportName)); serr != nil {
		t.Errorf("run report not written: %v", serr)
	}
}

func TestExportCommand_FormatsFlagOverridesConfig(t *testing.T) {
	t.Parallel()

	root := writeProject(t, `[book]
name = "tide"
type = "ebook"

[export]
formats = ["epub", "docx"]
`)
	env := newTestEnv(root)

	stdout, _, err := runCLI(t, env, "export", "--formats", "markdown")
	if err != nil {
		t.Fatalf("export --formats markdown: %v", err)
	}
	if strings.Contains(stdout, "epub") || strings.Contains(stdout, "docx") {
		t.Errorf("configured formats should be replaced by the flag:\n%s", stdout)
	}
	if _, serr := os.Stat(filepath.Join(root, "output", "tide-ebook.md")); serr != nil {
		t.Errorf("markdown artifact not written: %v", serr)
	}
}

func TestExportCommand_SkippedFormatsFailRun(t *testing.T) {
	t.Parallel()

	root := writeProject(t, `[book]
name = "tide"
type = "ebook"

[export]
formats = ["epub"]
`)
	env := newTestEnv(root)
	env.LookPath = func(name string) (string, error) {
		return "", errors.New("executable file not found in $PATH")
	}

	stdout, _, err := runCLI(t, env, "export")
	if !errors.Is(err, errFormatsNotProduced) {
		t.Fatalf("err = %v, want errFormatsNotProduced", err)
	}
	if got := exitCodeFor(err); got != ExitGeneral {
		t.Errorf("exit code = %d, want %d", got, ExitGeneral)
	}
	if !strings.Contains(stdout, string(bookexport.OutcomeSkipped)) {
		t.Errorf("summary should report the epub as skipped:\n%s", stdout)
	}
	if !strings.Contains(err.Error(), "epub") {
		t.Errorf("error should name the unproduced format: %v", err)
	}
}

func TestExportCommand_MixedOutcomes(t *testing.T) {
	t.Parallel()

	root := writeProject(t, `[book]
name = "tide"
type = "ebook"

[export]
formats = ["markdown", "pdf"]
`)
	env := newTestEnv(root)
	env.LookPath = func(name string) (string, error) {
		if name == "lualatex" {
			return "", errors.New("executable file not found in $PATH")
		}
		return "/usr/bin/" + name, nil
	}

	stdout, _, err := runCLI(t, env, "export")
	if !errors.Is(err, errFormatsNotProduced) {
		t.Fatalf("err = %v, want errFormatsNotProduced", err)
	}
	if !strings.Contains(err.Error(), "pdf") {
		t.Errorf("error should name the skipped format: %v", err)
	}
	if strings.Contains(err.Error(), "markdown") {
		t.Errorf("error should not name the produced format: %v", err)
	}
	if _, serr := os.Stat(filepath.Join(root, "output", "tide-ebook.md")); serr != nil {
		t.Errorf("markdown artifact should still be produced: %v", serr)
	}
	if !strings.Contains(stdout, string(bookexport.OutcomeSkipped)) {
		t.Errorf("summary should report the pdf as skipped:\n%s", stdout)
	}
}

func TestExportCommand_FailedFormatFailsRun(t *testing.T) {
	t.Parallel()

	// The configured pandoc path cannot exist, so the conversion fails
	// deterministically without a real pandoc install.
	root := writeProject(t, `[book]
name = "tide"
type = "ebook"

[export]
formats = ["docx"]

[tools]
pandoc = "/nonexistent/bookexport-test-pandoc"
`)
	env := newTestEnv(root)

	stdout, _, err := runCLI(t, env, "export")
	if !errors.Is(err, errFormatsNotProduced) {
		t.Fatalf("err = %v, want errFormatsNotProduced", err)
	}
	if got := exitCodeFor(err); got != ExitGeneral {
		t.Errorf("exit code = %d, want %d", got, ExitGeneral)
	}
	if !strings.Contains(stdout, string(bookexport.OutcomeFailed)) {
		t.Errorf("summary should report the failure:\n%s", stdout)
	}
}

func TestExportCommand_BadFormatValue(t *testing.T) {
	t.Parallel()

	root := writeProject(t, minimalTOML)
	env := newTestEnv(root)

	_, _, err := runCLI(t, env, "export", "--formats", "papyrus")
	if !errors.Is(err, bookexport.ErrUnknownFormat) {
		t.Fatalf("err = %v, want ErrUnknownFormat", err)
	}
	if got := exitCodeFor(err); got != ExitUsage {
		t.Errorf("exit code = %d, want %d", got, ExitUsage)
	}
}

func TestExportCommand_KeepMergedFlag(t *testing.T) {
	t.Parallel()

	root := writeProject(t, minimalTOML)
	env := newTestEnv(root)

	if _, _, err := runCLI(t, env, "export", "--keep-merged"); err != nil {
		t.Fatalf("export --keep-merged: %v", err)
	}
	if _, serr := os.Stat(filepath.Join(root, "output", "tide-ebook-merged.md")); serr != nil {
		t.Errorf("merged manuscript not kept: %v", serr)
	}
}

func TestExportCommand_BookTypeFlag(t *testing.T) {
	t.Parallel()

	root := writeProject(t, minimalTOML)
	env := newTestEnv(root)

	if _, _, err := runCLI(t, env, "export", "--book-type", "paperback"); err != nil {
		t.Fatalf("export --book-type paperback: %v", err)
	}
	if _, serr := os.Stat(filepath.Join(root, "output", "tide-paperback.md")); serr != nil {
		t.Errorf("artifact should carry the paperback type: %v", serr)
	}
}
