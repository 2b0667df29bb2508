package bookexport

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"os"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghtml "github.com/yuin/goldmark/renderer/html"
)

// htmlShell wraps the rendered fragment in a complete HTML5 document.
const htmlShell = `<!DOCTYPE html>
<html lang="%s">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
%s
</style>
</head>
<body>
%s
</body>
</html>
`

// baseStyle is the built-in stylesheet for standalone HTML output. A
// project stylesheet is appended after it and can override any rule.
const baseStyle = `body {
  max-width: 42em;
  margin: 0 auto;
  padding: 0 1.5em;
  font-family: Georgia, "Times New Roman", serif;
  font-size: 1.05rem;
  line-height: 1.6;
  color: #222;
}
h1, h2, h3, h4 { font-family: "Helvetica Neue", Arial, sans-serif; line-height: 1.25; }
h1 { margin-top: 2em; }
img { max-width: 100%; }
pre {
  padding: 0.8em;
  overflow-x: auto;
  border-radius: 4px;
  background: #f6f8fa;
}
code { font-family: "SFMono-Regular", Consolas, monospace; font-size: 0.9em; }
blockquote {
  margin-left: 0;
  padding-left: 1em;
  border-left: 3px solid #ddd;
  color: #555;
}
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.3em 0.6em; }
hr { border: 0; border-top: 1px solid #ccc; margin: 2em 0; }
@media print {
  body { max-width: none; }
}
`

// Compile-time interface check
var _ DocumentConverter = (*HTMLConverter)(nil)

// HTMLConverter renders the merged manuscript to a standalone HTML5
// document in-process using goldmark. No external tool is involved.
type HTMLConverter struct {
	md           goldmark.Markdown
	highlightCSS string
}

// NewHTMLConverter creates an HTMLConverter with GFM extensions and
// syntax highlighting.
func NewHTMLConverter() *HTMLConverter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,      // tables, strikethrough, autolinks, task lists
			extension.Footnote, // [^1] footnotes
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true), // CSS classes, styled by the generated stylesheet
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(), // heading IDs for TOC anchors
		),
		goldmark.WithRendererOptions(
			ghtml.WithXHTML(),
			ghtml.WithUnsafe(), // raw HTML in the manuscript (page-break divs, figures) must survive
		),
	)
	return &HTMLConverter{md: md, highlightCSS: highlightStylesheet()}
}

// highlightStylesheet renders the CSS rules for chroma's highlight
// classes so fenced code blocks are styled without external assets.
func highlightStylesheet() string {
	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, styles.Get("github")); err != nil {
		return ""
	}
	return buf.String()
}

func (c *HTMLConverter) Convert(ctx context.Context, job ConvertJob) error {
	data, err := os.ReadFile(job.InputPath) // #nosec G304 -- merged manuscript path is run-controlled
	if err != nil {
		return fmt.Errorf("reading %s: %w", job.InputPath, err)
	}

	fragment, err := c.render(ctx, data)
	if err != nil {
		return err
	}

	css := baseStyle
	if c.highlightCSS != "" {
		css += "\n" + c.highlightCSS
	}
	if job.Stylesheet != "" {
		user, err := os.ReadFile(job.Stylesheet) // #nosec G304 -- user-provided stylesheet path
		if err != nil {
			return fmt.Errorf("reading %s: %w", job.Stylesheet, err)
		}
		css += "\n" + string(user)
	}

	lang := job.Language
	if lang == "" {
		lang = "en"
	}
	title := job.Title
	if title == "" {
		title = "Book"
	}

	doc := fmt.Sprintf(htmlShell, html.EscapeString(lang), html.EscapeString(title), css, fragment)
	if err := os.WriteFile(job.OutputPath, []byte(doc), 0o644); err != nil { // #nosec G306 -- artifacts are meant to be readable
		return fmt.Errorf("writing %s: %w", job.OutputPath, err)
	}
	return nil
}

// render runs goldmark under the context via the goroutine + select
// pattern, since goldmark has no native context support.
func (c *HTMLConverter) render(ctx context.Context, src []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert(src, &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: rendering markdown: %v", ErrConversionFailed, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}
