package bookexport

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Format identifies one export output format.
type Format string

// Supported export formats.
const (
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatEPUB     Format = "epub"
	FormatMOBI     Format = "mobi"
	FormatDOCX     Format = "docx"
	FormatHTML     Format = "html"
)

// AllFormats lists every supported format in canonical order.
var AllFormats = []Format{
	FormatPDF,
	FormatEPUB,
	FormatMOBI,
	FormatDOCX,
	FormatHTML,
	FormatMarkdown,
}

// ParseFormat maps a format argument to a Format. "md" is accepted as
// an alias for markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatMarkdown, FormatPDF, FormatEPUB, FormatMOBI, FormatDOCX, FormatHTML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ParseFormats parses a comma-separated format list, preserving request
// order and dropping duplicates.
func ParseFormats(list string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty format list", ErrUnknownFormat)
	}
	return out, nil
}

// Ext returns the artifact file extension for the format, without the
// dot.
func (f Format) Ext() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

func (f Format) String() string { return string(f) }

// BookType identifies the physical or digital edition being exported.
// It only affects output naming.
type BookType string

// Supported book types.
const (
	BookTypeEbook     BookType = "ebook"
	BookTypePaperback BookType = "paperback"
	BookTypeHardcover BookType = "hardcover"
	BookTypeAudiobook BookType = "audiobook"
)

// ParseBookType maps a book type argument to a BookType.
func ParseBookType(s string) (BookType, error) {
	switch t := BookType(strings.ToLower(strings.TrimSpace(s))); t {
	case BookTypeEbook, BookTypePaperback, BookTypeHardcover, BookTypeAudiobook:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBookType, s)
}

func (t BookType) String() string { return string(t) }

// Outcome classifies one format's export result.
type Outcome string

const (
	OutcomeProduced Outcome = "produced"
	OutcomeSkipped  Outcome = "skipped-missing-tool"
	OutcomeFailed   Outcome = "failed-conversion-error"
)

// Option configures a Service.
type Option func(*Service)

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
	lookPath func(string) (string, error)
}

// defaultTimeout bounds a single format conversion when the run
// configuration does not set one. LaTeX runs on a full book take
// minutes.
const defaultTimeout = 10 * time.Minute

// WithTimeout sets the default per-conversion timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("bookexport: WithTimeout duration must be positive")
	}
	return func(s *Service) {
		s.cfg.timeout = d
	}
}

// WithLogger sets the structured logger used by the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.cfg.logger = logger
		}
	}
}

// WithRunner injects the command runner used for external tools.
func WithRunner(r CommandRunner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

// WithDocumentConverter overrides the pandoc-backed document converter.
func WithDocumentConverter(c DocumentConverter) Option {
	return func(s *Service) {
		s.doc = c
	}
}

// WithEbookConverter overrides the Calibre-backed e-book converter.
func WithEbookConverter(c EbookConverter) Option {
	return func(s *Service) {
		s.ebook = c
	}
}

// WithHTMLConverter overrides the in-process HTML converter.
func WithHTMLConverter(c DocumentConverter) Option {
	return func(s *Service) {
		s.html = c
	}
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.cfg.now = now
		}
	}
}

// WithLookPath injects the binary lookup function, for tests.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.cfg.lookPath = fn
		}
	}
}
