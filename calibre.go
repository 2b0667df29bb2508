package bookexport

import (
	"context"
	"fmt"
)

// EbookConverter repackages an e-book artifact into another e-book
// format, mobi from a freshly produced epub.
type EbookConverter interface {
	Convert(ctx context.Context, src, dst string) error
}

// Compile-time interface check
var _ EbookConverter = (*CalibreConverter)(nil)

// CalibreConverter derives mobi from epub by invoking Calibre's
// ebook-convert CLI. Calibre infers both formats from the file
// extensions.
type CalibreConverter struct {
	Runner CommandRunner
	Bin    string // overrides the "ebook-convert" binary name
}

// NewCalibreConverter creates a CalibreConverter with a real command
// runner.
func NewCalibreConverter() *CalibreConverter {
	return &CalibreConverter{Runner: &ExecRunner{}}
}

func (c *CalibreConverter) bin() string {
	if c.Bin != "" {
		return c.Bin
	}
	return "ebook-convert"
}

func (c *CalibreConverter) Convert(ctx context.Context, src, dst string) error {
	_, stderr, err := c.Runner.Run(ctx, c.bin(), src, dst)
	if err != nil {
		return fmt.Errorf("%w: ebook-convert: %v", ErrConversionFailed, commandDetail(stderr, err))
	}
	return nil
}
