// Package validate checks exported artifacts for structural integrity.
//
// EPUB and PDF checks shell out to epubcheck and pdfinfo when those
// tools are installed and degrade to a skipped result when they are
// not. DOCX is inspected as a ZIP archive in pure Go, and text formats
// only need to exist and be non-empty. Validation reports on artifacts
// but never changes them.
package validate

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnknownFormat indicates a format without a validator.
var ErrUnknownFormat = errors.New("no validator for format")

// Status classifies a validation outcome.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped-no-tool"
)

// Default validator timeouts.
const (
	EpubcheckTimeout = 60 * time.Second
	PdfinfoTimeout   = 30 * time.Second
)

// Result is the outcome of validating one artifact.
type Result struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Runner executes a validator binary and captures its output. The
// exporter's command runner satisfies this.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// Tools overrides validator binary names or paths.
type Tools struct {
	Epubcheck string
	Pdfinfo   string
}

// Checker validates exported artifacts.
type Checker struct {
	runner      Runner
	tools       Tools
	log         *slog.Logger
	lookPath    func(string) (string, error)
	epubTimeout time.Duration
	pdfTimeout  time.Duration
}

// New returns a Checker running validators through runner. Zero-value
// tool names fall back to the standard binaries; a nil logger falls
// back to slog.Default().
func New(runner Runner, tools Tools, logger *slog.Logger) *Checker {
	if tools.Epubcheck == "" {
		tools.Epubcheck = "epubcheck"
	}
	if tools.Pdfinfo == "" {
		tools.Pdfinfo = "pdfinfo"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		runner:      runner,
		tools:       tools,
		log:         logger,
		lookPath:    exec.LookPath,
		epubTimeout: EpubcheckTimeout,
		pdfTimeout:  PdfinfoTimeout,
	}
}

// DetectFormat maps a file extension to its validator format, or ""
// when no validator applies.
func DetectFormat(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "epub":
		return "epub"
	case "pdf":
		return "pdf"
	case "docx":
		return "docx"
	case "md", "markdown", "gfm":
		return "markdown"
	case "html", "htm":
		return "html"
	default:
		return ""
	}
}

// Check validates one artifact. A missing input file or a validator
// finding is a failed Result, not an error; errors are reserved for
// formats without a validator.
func (c *Checker) Check(ctx context.Context, path, format string) (Result, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "md" {
		format = "markdown"
	}
	res := Result{Path: path, Format: format}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		res.Status = StatusFailed
		res.Detail = "file not found"
		return res, nil
	}

	switch format {
	case "epub":
		c.checkEpub(ctx, &res)
	case "pdf":
		c.checkPDF(ctx, &res)
	case "docx":
		c.checkDocx(&res)
	case "markdown", "html":
		checkNonEmpty(&res, info.Size())
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	c.log.Debug("artifact validated",
		"component", "validate", "path", path, "format", format, "status", res.Status)
	return res, nil
}

func (c *Checker) checkEpub(ctx context.Context, res *Result) {
	if _, err := c.lookPath(c.tools.Epubcheck); err != nil {
		res.Status = StatusSkipped
		res.Detail = c.tools.Epubcheck + " not installed"
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.epubTimeout)
	defer cancel()

	_, stderr, err := c.runner.Run(ctx, c.tools.Epubcheck, res.Path)
	switch {
	case err == nil:
		res.Status = StatusOK
		res.Detail = "valid"
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.Status = StatusFailed
		res.Detail = fmt.Sprintf("%s timed out after %s", c.tools.Epubcheck, c.epubTimeout)
	default:
		res.Status = StatusFailed
		res.Detail = firstLine(stderr, err.Error())
	}
}

func (c *Checker) checkPDF(ctx context.Context, res *Result) {
	if _, err := c.lookPath(c.tools.Pdfinfo); err != nil {
		res.Status = StatusSkipped
		res.Detail = c.tools.Pdfinfo + " not installed"
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.pdfTimeout)
	defer cancel()

	stdout, stderr, err := c.runner.Run(ctx, c.tools.Pdfinfo, res.Path)
	switch {
	case err == nil:
		pages := pageCountLine(stdout)
		if pages == "" {
			res.Status = StatusFailed
			res.Detail = "pdfinfo reported no page count"
			return
		}
		res.Status = StatusOK
		res.Detail = pages
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.Status = StatusFailed
		res.Detail = fmt.Sprintf("%s timed out after %s", c.tools.Pdfinfo, c.pdfTimeout)
	default:
		res.Status = StatusFailed
		res.Detail = firstLine(stderr, err.Error())
	}
}

// checkDocx verifies the ZIP container and its content-type manifest,
// which every OOXML document must carry.
func (c *Checker) checkDocx(res *Result) {
	r, err := zip.OpenReader(res.Path)
	if err != nil {
		res.Status = StatusFailed
		res.Detail = "not a ZIP archive"
		return
	}
	defer func() { _ = r.Close() }()

	for _, f := range r.File {
		if f.Name == "[Content_Types].xml" {
			res.Status = StatusOK
			res.Detail = "valid"
			return
		}
	}
	res.Status = StatusFailed
	res.Detail = "missing [Content_Types].xml"
}

func checkNonEmpty(res *Result, size int64) {
	if size == 0 {
		res.Status = StatusFailed
		res.Detail = "empty file"
		return
	}
	res.Status = StatusOK
	res.Detail = fmt.Sprintf("%d bytes", size)
}

// pageCountLine extracts the "Pages:" line from pdfinfo output.
func pageCountLine(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "Pages:") {
			return strings.Join(strings.Fields(line), " ")
		}
	}
	return ""
}

func firstLine(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
