package bookexport

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alnah/go-bookexport/internal/config"
)

// Tools carries the external binary names or paths for one run. Zero
// values fall back to the standard binaries.
type Tools struct {
	Pandoc       string
	EbookConvert string
	Epubcheck    string
	Pdfinfo      string
}

// PandocBin returns the pandoc binary to invoke.
func (t Tools) PandocBin() string {
	if t.Pandoc != "" {
		return t.Pandoc
	}
	return "pandoc"
}

// EbookConvertBin returns the Calibre converter binary to invoke.
func (t Tools) EbookConvertBin() string {
	if t.EbookConvert != "" {
		return t.EbookConvert
	}
	return "ebook-convert"
}

// EpubcheckBin returns the EPUB validator binary to invoke.
func (t Tools) EpubcheckBin() string {
	if t.Epubcheck != "" {
		return t.Epubcheck
	}
	return "epubcheck"
}

// PdfinfoBin returns the PDF inspector binary to invoke.
func (t Tools) PdfinfoBin() string {
	if t.Pdfinfo != "" {
		return t.Pdfinfo
	}
	return "pdfinfo"
}

// Config carries everything one export run needs. The CLI assembles it
// from book.toml and flags; library callers can build it directly.
// Export never reads configuration from anywhere else.
type Config struct {
	// Project layout, absolute or relative to the working directory.
	ProjectRoot   string
	ManuscriptDir string
	AssetsDir     string
	OutputDir     string
	MetadataFile  string
	ValuesFile    string
	Stylesheet    string
	CoverImage    string

	// Book identity. Name and BookType form the artifact basename.
	Name     string
	BookType BookType
	Language string // explicit override; empty defers to metadata

	// Run behavior.
	Formats        []Format
	SkipImages     bool
	KeepMerged     bool
	EPUB2          bool
	ValidateOutput bool

	Tools   Tools
	Timeout time.Duration
}

// FromProject maps a loaded project file into a run Config. CLI flags
// are applied on top by the caller.
func FromProject(pc *config.Config) Config {
	formats := make([]Format, 0, len(pc.Export.Formats))
	for _, f := range pc.Export.Formats {
		formats = append(formats, Format(f))
	}
	return Config{
		ProjectRoot:   pc.Root,
		ManuscriptDir: pc.ManuscriptDir(),
		AssetsDir:     pc.AssetsDir(),
		OutputDir:     pc.OutputDir(),
		MetadataFile:  pc.MetadataFile(),
		ValuesFile:    pc.ValuesFile(),
		Stylesheet:    pc.StylesheetFile(),
		CoverImage:    pc.CoverFile(),
		Name:          pc.Book.Name,
		BookType:      BookType(pc.Book.Type),
		Language:      pc.Book.Language,
		Formats:       formats,
		KeepMerged:     pc.Export.KeepMerged,
		EPUB2:          pc.Export.EPUB2,
		ValidateOutput: pc.Export.Validate,
		Tools: Tools{
			Pandoc:       pc.Tools.Pandoc,
			EbookConvert: pc.Tools.EbookConvert,
			Epubcheck:    pc.Tools.Epubcheck,
			Pdfinfo:      pc.Tools.Pdfinfo,
		},
		Timeout: pc.Timeout(),
	}
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: book name is empty", ErrInvalidConfig)
	}
	if _, err := ParseBookType(string(c.BookType)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if len(c.Formats) == 0 {
		return fmt.Errorf("%w: no formats requested", ErrInvalidConfig)
	}
	for _, f := range c.Formats {
		if _, err := ParseFormat(string(f)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if c.ManuscriptDir == "" {
		return fmt.Errorf("%w: manuscript directory is empty", ErrInvalidConfig)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output directory is empty", ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	return nil
}

// normalize makes every configured path absolute. Relative paths
// resolve against the project root, or the working directory when no
// root is set.
func (c *Config) normalize() error {
	base := c.ProjectRoot
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving working directory: %w", err)
		}
		base = wd
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", base, err)
	}
	c.ProjectRoot = abs

	for _, p := range []*string{
		&c.ManuscriptDir, &c.AssetsDir, &c.OutputDir,
		&c.MetadataFile, &c.ValuesFile, &c.Stylesheet, &c.CoverImage,
	} {
		if *p == "" || filepath.IsAbs(*p) {
			continue
		}
		*p = filepath.Join(c.ProjectRoot, *p)
	}
	return nil
}

// OutputBasename returns the artifact name without extension,
// "<name>-<book-type>".
func (c *Config) OutputBasename() string {
	return c.Name + "-" + string(c.BookType)
}

// ArtifactPath returns the output file path for a format.
func (c *Config) ArtifactPath(f Format) string {
	return filepath.Join(c.OutputDir, c.OutputBasename()+"."+f.Ext())
}

// MergedPath returns where the merged manuscript is kept when
// KeepMerged is set.
func (c *Config) MergedPath() string {
	return filepath.Join(c.OutputDir, c.OutputBasename()+"-merged.md")
}
