package validate

import (
	"archive/zip"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeRunner returns canned output, or blocks until the context
// expires when wait is set.
type fakeRunner struct {
	stdout string
	stderr string
	err    error
	wait   bool
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	if f.wait {
		<-ctx.Done()
		return "", "", ctx.Err()
	}
	return f.stdout, f.stderr, f.err
}

func newChecker(r Runner, toolInstalled bool) *Checker {
	c := New(r, Tools{}, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	if toolInstalled {
		c.lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	} else {
		c.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	}
	return c
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeZip(t *testing.T, name string, entries ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path) // #nosec G304 -- test-owned temp path
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	zw := zip.NewWriter(f)
	for _, entry := range entries {
		w, err := zw.Create(entry)
		if err != nil {
			t.Fatalf("zip entry %s: %v", entry, err)
		}
		if _, err := w.Write([]byte("x")); err != nil {
			t.Fatalf("zip write %s: %v", entry, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

// ----------------------------------------------------------------------------
// TestCheckEPUB - epubcheck invocation and degradation
// ----------------------------------------------------------------------------

func TestCheckEPUB(t *testing.T) {
	t.Parallel()

	t.Run("valid when epubcheck succeeds", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "book.epub", "PK")
		c := newChecker(&fakeRunner{}, true)

		res, err := c.Check(context.Background(), path, "epub")
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if res.Status != StatusOK {
			t.Errorf("Status = %q, want %q (%s)", res.Status, StatusOK, res.Detail)
		}
	})

	t.Run("failed with first stderr line on findings", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "book.epub", "PK")
		r := &fakeRunner{
			stderr: "ERROR(RSC-005): duplicate id\nCheck finished with errors\n",
			err:    errors.New("exit status 1"),
		}
		c := newChecker(r, true)

		res, err := c.Check(context.Background(), path, "epub")
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if res.Status != StatusFailed {
			t.Errorf("Status = %q, want %q", res.Status, StatusFailed)
		}
		if res.Detail != "ERROR(RSC-005): duplicate id" {
			t.Errorf("Detail = %q, want first stderr line", res.Detail)
		}
	})

	t.Run("skipped when epubcheck is not installed", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "book.epub", "PK")
		c := newChecker(&fakeRunner{}, false)

		res, err := c.Check(context.Background(), path, "epub")
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if res.Status != StatusSkipped {
			t.Errorf("Status = %q, want %q", res.Status, StatusSkipped)
		}
		if !strings.Contains(res.Detail, "epubcheck") {
			t.Errorf("Detail = %q, want tool name", res.Detail)
		}
	})

	t.Run("failed on timeout", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "book.epub", "PK")
		c := newChecker(&fakeRunner{wait: true}, true)
		c.epubTimeout = 5 * time.Millisecond

		res, err := c.Check(context.Background(), path, "epub")
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if res.Status != StatusFailed {
			t.Errorf("Status = %q, want %q", res.Status, StatusFailed)
		}
		if !strings.Contains(res.Detail, "timed out") {
			t.Errorf("Detail = %q, want timeout message", res.Detail)
		}
	})
}

// ----------------------------------------------------------------------------
// TestCheckPDF - pdfinfo invocation and page count extraction
// ----------------------------------------------------------------------------

func TestCheckPDF(t *testing.T) {
	t.Parallel()

	t.Run("extracts page count", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "book.pdf", "%PDF-1.7")
		r := &fakeRunner{stdout: "Title:          A Book\nPages:          142\nEncrypted:      no\n"}
		c := newChecker(r, true)

		res, err := c.Check(context.Background(), path, "pdf")
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if res.Status != StatusOK {
			t.Errorf("Status = %q, want %q (%s)", res.Status, StatusOK, res.Detail)
		}
		if res.Detail != "Pages: 142" {
			t.Errorf("Detail = %q, want %q", res.Detail, "Pages: 142")
		}
	})

	t.Run("failed when pdfinfo reports no pages", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "book.pdf", "%PDF-1.7")
		c := newChecker(&fakeRunner{stdout: "Title: A Book\n"}, true)

		res, err := c.Check(context.Background(), path, "pdf")
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if res.Status != StatusFailed {
			t.Errorf("Status = %q, want %q", res.Status, StatusFailed)
		}
	})

	t.Run("skipped when pdfinfo is not installed", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "book.pdf", "%PDF-1.7")
		c := newChecker(&fakeRunner{}, false)

		res, err := c.Check(context.Background(), path, "pdf")
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if res.Status != StatusSkipped {
			t.Errorf("Status = %q, want %q", res.Status, StatusSkipped)
		}
	})
}

// ----------------------------------------------------------------------------
// TestCheckDOCX - ZIP container inspection without external tools
// ----------------------------------------------------------------------------

func TestCheckDOCX(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       func(t *testing.T) string
		wantStatus Status
		wantDetail string
	}{
		{
			name: "valid OOXML container",
			path: func(t *testing.T) string {
				return writeZip(t, "book.docx", "[Content_Types].xml", "word/document.xml")
			},
			wantStatus: StatusOK,
		},
		{
			name: "ZIP without content types manifest",
			path: func(t *testing.T) string {
				return writeZip(t, "book.docx", "word/document.xml")
			},
			wantStatus: StatusFailed,
			wantDetail: "missing [Content_Types].xml",
		},
		{
			name: "not a ZIP archive",
			path: func(t *testing.T) string {
				return writeFile(t, "book.docx", "this is not a zip")
			},
			wantStatus: StatusFailed,
			wantDetail: "not a ZIP archive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newChecker(&fakeRunner{}, false)

			res, err := c.Check(context.Background(), tt.path(t), "docx")
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if res.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q (%s)", res.Status, tt.wantStatus, res.Detail)
			}
			if tt.wantDetail != "" && res.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", res.Detail, tt.wantDetail)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// TestCheckText - markdown and HTML just need content
// ----------------------------------------------------------------------------

func TestCheckText(t *testing.T) {
	t.Parallel()

	t.Run("non-empty markdown is valid", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "book.md", "# Title\n")
		c := newChecker(&fakeRunner{}, false)

		res, err := c.Check(context.Background(), path, "md")
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if res.Status != StatusOK {
			t.Errorf("Status = %q, want %q", res.Status, StatusOK)
		}
		if res.Format != "markdown" {
			t.Errorf("Format = %q, want alias normalized to markdown", res.Format)
		}
	})

	t.Run("empty file fails", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "book.html", "")
		c := newChecker(&fakeRunner{}, false)

		res, err := c.Check(context.Background(), path, "html")
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if res.Status != StatusFailed {
			t.Errorf("Status = %q, want %q", res.Status, StatusFailed)
		}
		if res.Detail != "empty file" {
			t.Errorf("Detail = %q, want %q", res.Detail, "empty file")
		}
	})
}

// ----------------------------------------------------------------------------
// TestCheckEdgeCases - missing inputs and unknown formats
// ----------------------------------------------------------------------------

func TestCheckEdgeCases(t *testing.T) {
	t.Parallel()

	t.Run("missing file fails without running tools", func(t *testing.T) {
		t.Parallel()
		c := newChecker(&fakeRunner{err: errors.New("must not run")}, true)

		res, err := c.Check(context.Background(), filepath.Join(t.TempDir(), "absent.epub"), "epub")
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if res.Status != StatusFailed {
			t.Errorf("Status = %q, want %q", res.Status, StatusFailed)
		}
		if res.Detail != "file not found" {
			t.Errorf("Detail = %q, want %q", res.Detail, "file not found")
		}
	})

	t.Run("directory fails", func(t *testing.T) {
		t.Parallel()
		c := newChecker(&fakeRunner{}, false)

		res, err := c.Check(context.Background(), t.TempDir(), "markdown")
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if res.Status != StatusFailed {
			t.Errorf("Status = %q, want %q", res.Status, StatusFailed)
		}
	})

	t.Run("unknown format is an error", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "book.mobi", "BOOKMOBI")
		c := newChecker(&fakeRunner{}, true)

		_, err := c.Check(context.Background(), path, "mobi")
		if !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("Check() error = %v, want ErrUnknownFormat", err)
		}
	})
}

// ----------------------------------------------------------------------------
// TestDetectFormat - extension to validator format mapping
// ----------------------------------------------------------------------------

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "epub", path: "out/book.epub", want: "epub"},
		{name: "pdf uppercase", path: "BOOK.PDF", want: "pdf"},
		{name: "docx", path: "book.docx", want: "docx"},
		{name: "md alias", path: "book.md", want: "markdown"},
		{name: "htm alias", path: "book.htm", want: "html"},
		{name: "mobi has no validator", path: "book.mobi", want: ""},
		{name: "no extension", path: "book", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DetectFormat(tt.path); got != tt.want {
				t.Errorf("DetectFormat(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
