// Package config loads and validates the book.toml project file.
//
// A project file marks the project root and carries everything an export
// run needs beyond the manuscript itself: the book identity, input and
// output locations, the default format set, and external tool overrides.
// Loading resolves the file from an explicit path or by walking up from
// a starting directory, applies defaults, and validates the result.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/alnah/go-bookexport/internal/manuscript"
)

//go:embed sample_book.toml
var sampleConfig string

// FileName is the project file searched for by upward walk.
const FileName = "book.toml"

// Sentinel errors for project file operations.
var (
	ErrConfigNotFound = errors.New("project file not found")
	ErrConfigParse    = errors.New("failed to parse project file")
	ErrInvalidConfig  = errors.New("invalid project file")
)

// Field length limits.
const (
	MaxNameLength     = 100 // output base name
	MaxLanguageLength = 35  // longest registered BCP 47 tag
)

// BookTypes lists the accepted book type values.
var BookTypes = []string{"ebook", "paperback", "hardcover", "audiobook"}

// knownFormats mirrors the formats the exporter can produce.
var knownFormats = map[string]bool{
	"pdf":      true,
	"epub":     true,
	"mobi":     true,
	"docx":     true,
	"html":     true,
	"markdown": true,
}

// Book identifies the work being exported.
type Book struct {
	Name     string `toml:"name"`     // output base name, defaults to the project directory name
	Type     string `toml:"type"`     // "ebook", "paperback", "hardcover", "audiobook"
	Language string `toml:"language"` // overrides the metadata language when set
}

// PathsSection locates project inputs and outputs. Entries are resolved
// against the project root unless absolute.
type PathsSection struct {
	Manuscript string `toml:"manuscript"`
	Assets     string `toml:"assets"`
	Output     string `toml:"output"`
	Metadata   string `toml:"metadata"`
	Values     string `toml:"values"`     // placeholder values for the metadata template
	Stylesheet string `toml:"stylesheet"` // optional, EPUB/HTML styling
	Cover      string `toml:"cover"`      // optional, EPUB cover image
}

// ExportSection controls conversion runs.
type ExportSection struct {
	Formats        []string `toml:"formats"`
	TimeoutSeconds int      `toml:"timeout_seconds"` // per-format converter timeout
	Validate       bool     `toml:"validate"`        // run artifact validators after export
	KeepMerged     bool     `toml:"keep_merged"`     // keep the merged manuscript in the output
	EPUB2          bool     `toml:"epub2"`           // force EPUB version 2
}

// ToolsSection overrides external binary names or paths.
type ToolsSection struct {
	Pandoc       string `toml:"pandoc"`
	EbookConvert string `toml:"ebook_convert"`
	Epubcheck    string `toml:"epubcheck"`
	Pdfinfo      string `toml:"pdfinfo"`
}

// Config is the loaded project file plus the root it was resolved
// against.
type Config struct {
	Book   Book          `toml:"book"`
	Paths  PathsSection  `toml:"paths"`
	Export ExportSection `toml:"export"`
	Tools  ToolsSection  `toml:"tools"`

	// Root is the directory all relative paths resolve against: the
	// directory holding book.toml, or the starting directory when no
	// project file was found.
	Root string `toml:"-"`
}

// Default returns the configuration used when no project file exists.
func Default() Config {
	return Config{
		Book: Book{Type: "ebook"},
		Paths: PathsSection{
			Manuscript: "manuscript",
			Assets:     "assets",
			Output:     "output",
			Metadata:   "config/metadata.yaml",
			Values:     "config/metadata_values.json",
		},
		Export: ExportSection{
			Formats:        []string{"pdf", "epub", "mobi", "docx"},
			TimeoutSeconds: 600,
		},
		Tools: ToolsSection{
			Pandoc:       "pandoc",
			EbookConvert: "ebook-convert",
			Epubcheck:    "epubcheck",
			Pdfinfo:      "pdfinfo",
		},
	}
}

// Load resolves and parses the project file. An explicit path must
// exist; with an empty path the file is searched upward from startDir
// and its absence is not an error. The returned path names the file
// that was read, and found reports whether one existed.
func Load(path, startDir string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, found, err := resolvePath(path, startDir)
	if err != nil {
		return nil, "", false, err
	}

	if found {
		data, err := os.ReadFile(resolved) // #nosec G304 -- project file path is user-provided
		if err != nil {
			return nil, "", false, fmt.Errorf("reading %s: %w", resolved, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
		cfg.Root = filepath.Dir(resolved)
	} else {
		if cfg.Root, err = filepath.Abs(startDir); err != nil {
			return nil, "", false, fmt.Errorf("resolving %s: %w", startDir, err)
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, found, nil
}

// resolvePath picks the project file to read. An explicit path is
// required to exist; otherwise book.toml is searched from startDir up
// to the filesystem root.
func resolvePath(path, startDir string) (string, bool, error) {
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", false, fmt.Errorf("resolving %s: %w", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			return "", false, fmt.Errorf("%w: %s", ErrConfigNotFound, abs)
		}
		return abs, true, nil
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("resolving %s: %w", startDir, err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// normalize fills derived defaults: lowercased, deduplicated formats and
// a book name taken from the project directory.
func (c *Config) normalize() {
	seen := map[string]bool{}
	formats := make([]string, 0, len(c.Export.Formats))
	for _, f := range c.Export.Formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		formats = append(formats, f)
	}
	c.Export.Formats = formats

	c.Book.Type = strings.ToLower(strings.TrimSpace(c.Book.Type))
	c.Book.Name = strings.TrimSpace(c.Book.Name)
	if c.Book.Name == "" {
		if base := filepath.Base(c.Root); base != "" && base != "." && base != string(filepath.Separator) {
			c.Book.Name = base
		} else {
			c.Book.Name = "book"
		}
	}
}

// Validate checks the loaded values. Called by Load, and available to
// consumers that build a Config by hand.
func (c *Config) Validate() error {
	if len(c.Book.Name) > MaxNameLength {
		return fmt.Errorf("%w: book.name exceeds %d characters", ErrInvalidConfig, MaxNameLength)
	}
	validType := false
	for _, t := range BookTypes {
		if c.Book.Type == t {
			validType = true
			break
		}
	}
	if !validType {
		return fmt.Errorf("%w: book.type %q (must be one of %s)",
			ErrInvalidConfig, c.Book.Type, strings.Join(BookTypes, ", "))
	}
	if len(c.Book.Language) > MaxLanguageLength {
		return fmt.Errorf("%w: book.language exceeds %d characters", ErrInvalidConfig, MaxLanguageLength)
	}

	if len(c.Export.Formats) == 0 {
		return fmt.Errorf("%w: export.formats must list at least one format", ErrInvalidConfig)
	}
	for _, f := range c.Export.Formats {
		if !knownFormats[f] {
			return fmt.Errorf("%w: unknown export format %q", ErrInvalidConfig, f)
		}
	}
	if c.Export.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: export.timeout_seconds must be positive", ErrInvalidConfig)
	}

	for name, value := range map[string]string{
		"paths.manuscript": c.Paths.Manuscript,
		"paths.assets":     c.Paths.Assets,
		"paths.output":     c.Paths.Output,
		"paths.metadata":   c.Paths.Metadata,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s cannot be empty", ErrInvalidConfig, name)
		}
	}
	return nil
}

// Timeout returns the per-format converter timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Export.TimeoutSeconds) * time.Second
}

// resolve joins a project-file path entry with the root.
func (c *Config) resolve(p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// ManuscriptDir returns the absolute manuscript directory.
func (c *Config) ManuscriptDir() string { return c.resolve(c.Paths.Manuscript) }

// AssetsDir returns the absolute assets directory.
func (c *Config) AssetsDir() string { return c.resolve(c.Paths.Assets) }

// OutputDir returns the absolute output directory.
func (c *Config) OutputDir() string { return c.resolve(c.Paths.Output) }

// MetadataFile returns the absolute metadata document path.
func (c *Config) MetadataFile() string { return c.resolve(c.Paths.Metadata) }

// ValuesFile returns the absolute placeholder values path, or "" when
// unset.
func (c *Config) ValuesFile() string { return c.resolve(c.Paths.Values) }

// StylesheetFile returns the absolute stylesheet path, or "" when unset.
func (c *Config) StylesheetFile() string { return c.resolve(c.Paths.Stylesheet) }

// CoverFile returns the absolute cover image path, or "" when unset.
func (c *Config) CoverFile() string { return c.resolve(c.Paths.Cover) }

// TOCFile returns the conventional table-of-contents location.
func (c *Config) TOCFile() string {
	return filepath.Join(c.ManuscriptDir(), manuscript.FrontMatterDir, manuscript.TOCName)
}

// CreateSample writes the commented sample project file. Parent
// directories are created; an existing file is an error so a project is
// never clobbered.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) // #nosec G304 -- destination is user-provided
	if err != nil {
		return fmt.Errorf("writing sample project file: %w", err)
	}
	if _, err := f.WriteString(sampleConfig); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing sample project file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing sample project file: %w", err)
	}
	return nil
}

// Sample returns the embedded sample project file text.
func Sample() string { return sampleConfig }
