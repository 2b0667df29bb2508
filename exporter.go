package bookexport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alnah/go-bookexport/internal/fileutil"
	"github.com/alnah/go-bookexport/internal/hints"
	"github.com/alnah/go-bookexport/internal/manuscript"
	"github.com/alnah/go-bookexport/internal/validate"
)

// lualatexBin is the LaTeX engine pandoc invokes for PDF output. It
// must be on PATH alongside pandoc for PDF export.
const lualatexBin = "lualatex"

// pageBreak returns the separator inserted between manuscript documents
// for a format. PDF targets LaTeX, the e-book and HTML targets use a
// CSS page break, everything else separates with a blank line.
func pageBreak(f Format) string {
	switch f {
	case FormatPDF:
		return `\newpage`
	case FormatEPUB, FormatMOBI, FormatHTML:
		return `<div style="page-break-after: always;"></div>`
	default:
		return ""
	}
}

// exportStep is one planned conversion.
type exportStep struct {
	format   Format
	implicit bool // epub inserted to satisfy a mobi request
}

// orderFormats plans the conversion sequence. Request order is kept,
// except that epub moves (or is inserted) ahead of mobi so mobi always
// derives from an epub produced in the same run. Duplicates collapse
// onto their first position.
func orderFormats(requested []Format) []exportStep {
	wantsEPUB := false
	for _, f := range requested {
		if f == FormatEPUB {
			wantsEPUB = true
		}
	}

	steps := make([]exportStep, 0, len(requested)+1)
	placed := make(map[Format]bool, len(requested))
	for _, f := range requested {
		if placed[f] {
			continue
		}
		if f == FormatMOBI && !placed[FormatEPUB] {
			steps = append(steps, exportStep{format: FormatEPUB, implicit: !wantsEPUB})
			placed[FormatEPUB] = true
		}
		steps = append(steps, exportStep{format: f})
		placed[f] = true
	}
	return steps
}

// mergedInputs lazily materializes the merged manuscript per page-break
// marker, so formats sharing a marker share one temp file.
type mergedInputs struct {
	man      *manuscript.Manuscript
	files    map[string]string
	cleanups []func()
}

func newMergedInputs(man *manuscript.Manuscript) *mergedInputs {
	return &mergedInputs{man: man, files: make(map[string]string)}
}

// text returns the merged manuscript for a format without touching
// disk.
func (m *mergedInputs) text(f Format) string {
	return m.man.Merged(pageBreak(f))
}

// pathFor returns a temp file holding the merged manuscript for a
// format, creating it on first use.
func (m *mergedInputs) pathFor(f Format) (string, error) {
	marker := pageBreak(f)
	if path, ok := m.files[marker]; ok {
		return path, nil
	}
	path, cleanup, err := fileutil.WriteTempFile(m.man.Merged(marker), "md")
	if err != nil {
		return "", err
	}
	m.files[marker] = path
	m.cleanups = append(m.cleanups, cleanup)
	return path, nil
}

// Close removes the materialized temp files.
func (m *mergedInputs) Close() {
	for _, cleanup := range m.cleanups {
		cleanup()
	}
	m.cleanups = nil
	m.files = make(map[string]string)
}

// exporter binds one run's configuration to its converters.
type exporter struct {
	cfg      *Config
	doc      DocumentConverter
	ebook    EbookConverter
	html     DocumentConverter
	checker  *validate.Checker
	log      *slog.Logger
	now      func() time.Time
	lookPath func(string) (string, error)
	timeout  time.Duration // effective per-conversion timeout
}

// newExporter resolves the run's converters: injected test doubles win,
// otherwise the real pandoc and Calibre CLIs with the run's tool
// overrides.
func (s *Service) newExporter(cfg *Config) *exporter {
	e := &exporter{
		cfg:      cfg,
		doc:      s.doc,
		ebook:    s.ebook,
		html:     s.html,
		log:      s.cfg.logger.With("component", "export"),
		now:      s.cfg.now,
		lookPath: s.cfg.lookPath,
		timeout:  cfg.Timeout,
	}
	if e.doc == nil {
		e.doc = &PandocConverter{Runner: s.runner, Bin: cfg.Tools.Pandoc}
	}
	if e.ebook == nil {
		e.ebook = &CalibreConverter{Runner: s.runner, Bin: cfg.Tools.EbookConvert}
	}
	if e.html == nil {
		e.html = NewHTMLConverter()
	}
	if e.timeout <= 0 {
		e.timeout = s.cfg.timeout
	}
	if cfg.ValidateOutput {
		e.checker = validate.New(s.runner, validate.Tools{
			Epubcheck: cfg.Tools.Epubcheck,
			Pdfinfo:   cfg.Tools.Pdfinfo,
		}, s.cfg.logger)
	}
	return e
}

// runFormats converts every planned format sequentially and returns the
// results in execution order. Per-format failures land in the results,
// never as errors.
func (e *exporter) runFormats(ctx context.Context, man *manuscript.Manuscript, metadataFile, language string) []FormatResult {
	merged := newMergedInputs(man)
	defer merged.Close()

	steps := orderFormats(e.cfg.Formats)
	results := make([]FormatResult, 0, len(steps))
	var epub *FormatResult

	for _, step := range steps {
		start := e.now()

		var res FormatResult
		if step.format == FormatMOBI {
			res = e.deriveMOBI(ctx, epub)
		} else {
			res = e.convertFormat(ctx, merged, metadataFile, language, step.format)
		}
		res.Implicit = step.implicit
		res.DurationMS = e.now().Sub(start).Milliseconds()

		if e.checker != nil && res.Outcome == OutcomeProduced {
			e.attachValidation(ctx, &res)
		}

		switch res.Outcome {
		case OutcomeProduced:
			e.log.Info("format produced",
				"format", string(res.Format), "artifact", res.Artifact, "duration_ms", res.DurationMS)
		case OutcomeSkipped:
			e.log.Warn("format skipped", "format", string(res.Format), "detail", res.Detail)
		case OutcomeFailed:
			e.log.Error("format failed", "format", string(res.Format), "detail", res.Detail)
		}

		if step.format == FormatEPUB {
			epub = &res
		}
		results = append(results, res)
	}
	return results
}

// convertFormat produces one non-mobi artifact from the merged
// manuscript.
func (e *exporter) convertFormat(ctx context.Context, merged *mergedInputs, metadataFile, language string, f Format) FormatResult {
	res := FormatResult{Format: f}

	if tool := e.firstMissingTool(f); tool != "" {
		res.Outcome = OutcomeSkipped
		res.Detail = tool + " not installed"
		e.log.Warn("skipping format, tool not found",
			"format", string(f), "tool", tool, "hint", hints.InstallText(tool))
		return res
	}

	artifact := e.cfg.ArtifactPath(f)

	if f == FormatMarkdown {
		// Pass-through: the merged manuscript is the artifact.
		if err := os.WriteFile(artifact, []byte(merged.text(f)), 0o644); err != nil { // #nosec G306 -- artifacts are meant to be readable
			res.Outcome = OutcomeFailed
			res.Detail = err.Error()
			return res
		}
		res.Outcome = OutcomeProduced
		res.Artifact = artifact
		return res
	}

	input, err := merged.pathFor(f)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Detail = err.Error()
		return res
	}

	job := ConvertJob{
		Format:       f,
		InputPath:    input,
		OutputPath:   artifact,
		AssetsDir:    e.cfg.AssetsDir,
		MetadataFile: metadataFile,
		Title:        e.cfg.Name,
		Language:     language,
		EPUB2:        e.cfg.EPUB2,
		CoverImage:   e.cfg.CoverImage,
		Stylesheet:   e.cfg.Stylesheet,
	}

	conv := e.doc
	if f == FormatHTML {
		conv = e.html
	}

	fctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := conv.Convert(fctx, job); err != nil {
		res.Outcome = OutcomeFailed
		res.Detail = e.failDetail(f, err)
		return res
	}

	res.Outcome = OutcomeProduced
	res.Artifact = artifact
	return res
}

// deriveMOBI repackages this run's epub artifact. A failed epub fails
// mobi without attempting conversion; a skipped epub skips it.
func (e *exporter) deriveMOBI(ctx context.Context, epub *FormatResult) FormatResult {
	res := FormatResult{Format: FormatMOBI}

	switch {
	case epub == nil || epub.Outcome == OutcomeFailed:
		res.Outcome = OutcomeFailed
		res.Detail = "epub artifact was not produced"
		return res
	case epub.Outcome == OutcomeSkipped:
		res.Outcome = OutcomeSkipped
		res.Detail = "epub was skipped: " + epub.Detail
		return res
	}

	if tool := e.firstMissingTool(FormatMOBI); tool != "" {
		res.Outcome = OutcomeSkipped
		res.Detail = tool + " not installed"
		e.log.Warn("skipping format, tool not found",
			"format", "mobi", "tool", tool, "hint", hints.InstallText(tool))
		return res
	}

	artifact := e.cfg.ArtifactPath(FormatMOBI)
	fctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.ebook.Convert(fctx, epub.Artifact, artifact); err != nil {
		res.Outcome = OutcomeFailed
		res.Detail = e.failDetail(FormatMOBI, err)
		return res
	}

	res.Outcome = OutcomeProduced
	res.Artifact = artifact
	return res
}

// firstMissingTool returns the first binary on the format's tool chain
// that is not resolvable, or "" when the chain is complete. The html
// and markdown paths run in-process and need none.
func (e *exporter) firstMissingTool(f Format) string {
	var tools []string
	switch f {
	case FormatPDF:
		tools = []string{e.cfg.Tools.PandocBin(), lualatexBin}
	case FormatEPUB, FormatDOCX:
		tools = []string{e.cfg.Tools.PandocBin()}
	case FormatMOBI:
		tools = []string{e.cfg.Tools.EbookConvertBin()}
	}
	for _, tool := range tools {
		if _, err := e.lookPath(tool); err != nil {
			return tool
		}
	}
	return ""
}

// failDetail classifies a converter error for the result detail.
func (e *exporter) failDetail(f Format, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		e.log.Error("conversion timed out",
			"format", string(f), "timeout", e.timeout.String(), "hint", hints.TimeoutText())
		return fmt.Sprintf("timed out after %s", e.timeout)
	}
	return err.Error()
}

// attachValidation runs the post-export check for a fresh artifact.
// Formats without a validator are left untouched.
func (e *exporter) attachValidation(ctx context.Context, res *FormatResult) {
	v, err := e.checker.Check(ctx, res.Artifact, string(res.Format))
	if err != nil {
		return
	}
	res.Validation = &v
}
