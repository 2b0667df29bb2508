package bookexport

import (
	"context"
	"fmt"
	"strings"
)

// ConvertJob describes one conversion of the merged manuscript into an
// output format.
type ConvertJob struct {
	Format       Format
	InputPath    string // merged manuscript
	OutputPath   string
	AssetsDir    string // resource root for image resolution
	MetadataFile string // resolved metadata document
	Title        string
	Language     string
	EPUB2        bool   // force EPUB version 2
	CoverImage   string // optional, EPUB only
	Stylesheet   string // optional, EPUB and HTML
}

// DocumentConverter produces one artifact from the merged manuscript.
// Implementations read job.InputPath and write job.OutputPath.
type DocumentConverter interface {
	Convert(ctx context.Context, job ConvertJob) error
}

// Compile-time interface check
var _ DocumentConverter = (*PandocConverter)(nil)

// pandocWriters maps output formats to pandoc writer names.
var pandocWriters = map[Format]string{
	FormatPDF:  "pdf",
	FormatEPUB: "epub",
	FormatDOCX: "docx",
}

// PandocConverter converts the merged manuscript by invoking the pandoc
// CLI. It covers the PDF, EPUB and DOCX formats.
type PandocConverter struct {
	Runner CommandRunner
	Bin    string // overrides the "pandoc" binary name
}

// NewPandocConverter creates a PandocConverter with a real command
// runner.
func NewPandocConverter() *PandocConverter {
	return &PandocConverter{Runner: &ExecRunner{}}
}

func (c *PandocConverter) bin() string {
	if c.Bin != "" {
		return c.Bin
	}
	return "pandoc"
}

func (c *PandocConverter) Convert(ctx context.Context, job ConvertJob) error {
	args, err := buildPandocArgs(job)
	if err != nil {
		return err
	}
	_, stderr, err := c.Runner.Run(ctx, c.bin(), args...)
	if err != nil {
		return fmt.Errorf("%w: pandoc: %v", ErrConversionFailed, commandDetail(stderr, err))
	}
	return nil
}

// buildPandocArgs assembles the pandoc invocation for a job. The input
// path goes last.
func buildPandocArgs(job ConvertJob) ([]string, error) {
	writer, ok := pandocWriters[job.Format]
	if !ok {
		return nil, fmt.Errorf("%w: pandoc cannot produce %q", ErrUnknownFormat, job.Format)
	}

	args := []string{
		"--from=markdown",
		"--to=" + writer,
		"--output=" + job.OutputPath,
	}
	if job.AssetsDir != "" {
		args = append(args, "--resource-path="+job.AssetsDir)
	}
	if job.MetadataFile != "" {
		args = append(args, "--metadata-file="+job.MetadataFile)
	}

	switch job.Format {
	case FormatEPUB:
		if job.Language != "" {
			args = append(args, "--metadata", "lang="+job.Language)
		}
		if job.EPUB2 {
			args = append(args, "--metadata", "epub.version=2")
		}
		if job.CoverImage != "" {
			args = append(args, "--epub-cover-image="+job.CoverImage)
		}
		if job.Stylesheet != "" {
			args = append(args, "--css="+job.Stylesheet)
		}
	case FormatPDF:
		args = append(args,
			"--pdf-engine=lualatex",
			"-V", "mainfont=DejaVu Sans",
			"-V", "monofont=DejaVu Sans Mono",
		)
	}

	return append(args, job.InputPath), nil
}

// commandDetail picks the most informative failure line: the last
// non-empty stderr line (LaTeX engines report errors at the end of
// their output), falling back to the exec error.
func commandDetail(stderr string, err error) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return err.Error()
}
