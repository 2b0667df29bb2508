// Package metadata resolves book metadata documents for export runs.
//
// A metadata document is a flat YAML file (title, author, date, language,
// keywords and so on) handed to the converter alongside the merged
// manuscript. Before each run the document is resolved: {{PLACEHOLDER}}
// tokens are filled from a project values file, symbolic "auto" dates are
// expanded, and the result is materialized as a temporary file so the
// on-disk source is never modified by an export.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-bookexport/internal/dateutil"
	"github.com/alnah/go-bookexport/internal/fileutil"
	"github.com/alnah/go-bookexport/internal/yamlutil"
)

// Sentinel errors for metadata resolution.
var (
	ErrInvalidMetadata = errors.New("invalid metadata document")
	ErrInvalidValues   = errors.New("invalid values file")
)

// DefaultDocument stands in when no metadata file exists. The date field
// resolves to the day of the export.
const DefaultDocument = "title: 'CHANGE TO YOUR TITLE'\n" +
	"author: 'YOUR NAME'\n" +
	"date: 'auto'\n" +
	"lang: 'en'\n"

// DefaultLanguage is assumed when neither the caller nor the metadata
// document names one.
const DefaultLanguage = "en"

// placeholder matches {{KEY}} tokens in a metadata template.
var placeholder = regexp.MustCompile(`\{\{([A-Za-z][A-Za-z0-9_]*)\}\}`)

// dateLine matches a top-level date field for in-place replacement.
var dateLine = regexp.MustCompile(`(?m)^date:.*$`)

// Values holds project values substituted into metadata placeholders.
type Values map[string]any

// DefaultValues mirrors the starter values file written by project
// scaffolding. Every key doubles as a fill-in instruction.
func DefaultValues() Values {
	return Values{
		"BOOK_TITLE":       "Enter the title of your book",
		"BOOK_SUBTITLE":    "Enter a short subtitle describing your book",
		"AUTHOR_NAME":      "Enter the author's full name",
		"ISBN_NUMBER":      "Enter the ISBN number (if available)",
		"BOOK_EDITION":     "Enter the edition of the book (e.g., 1st Edition, 2nd Edition)",
		"PUBLISHER_NAME":   "Enter the publisher's name",
		"PUBLICATION_DATE": "Enter the publication date in YYYY-MM-DD format",
		"LANGUAGE":         "Enter the book's language code (e.g., en, de, fr)",
		"BOOK_DESCRIPTION": "Provide a detailed description of your book",
		"KEYWORDS":         []any{"Enter some keywords here"},
		"COVER_IMAGE":      "",
		"OUTPUT_FORMATS":   []any{"pdf", "epub", "mobi", "docx"},
		"KDP_ENABLED":      false,
	}
}

// LoadValues reads a JSON values file. A KEYWORDS string is split on
// commas so a comma-separated spelling works as well as a list.
func LoadValues(path string) (Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var v Values
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValues, path, err)
	}
	v.normalize()
	return v, nil
}

func (v Values) normalize() {
	s, ok := v["KEYWORDS"].(string)
	if !ok {
		return
	}
	keywords := make([]any, 0, 4)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			keywords = append(keywords, part)
		}
	}
	v["KEYWORDS"] = keywords
}

// Document is a resolved metadata document ready for a converter.
type Document struct {
	// Text is the resolved YAML text.
	Text string
	// Path is the source file, or "" when the default document was used.
	Path string
	// Generated reports that no metadata file existed and DefaultDocument
	// stands in.
	Generated bool
	// Unresolved lists placeholder keys still present in Text, in order
	// of first appearance.
	Unresolved []string

	fields map[string]any
}

// Field returns a top-level scalar field rendered as a string.
// Missing or non-scalar fields report false.
func (d Document) Field(key string) (string, bool) {
	switch v := d.fields[key].(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int, int64, uint64, float64:
		return fmt.Sprint(v), true
	default:
		return "", false
	}
}

// WriteTemp writes the resolved text to a temporary file for the
// converter and returns its path with a cleanup function.
func (d Document) WriteTemp() (string, func(), error) {
	return fileutil.WriteTempFile(d.Text, "yaml")
}

// Resolver prepares metadata documents for export runs.
type Resolver struct {
	log *slog.Logger
}

// New returns a Resolver logging through logger, or slog.Default()
// when logger is nil.
func New(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{log: logger}
}

// Resolve loads the metadata document at path, fills placeholders from
// values, and expands symbolic dates against now. A missing file falls
// back to DefaultDocument; any other read failure is an error. The
// resolved text must parse as a YAML mapping.
func (r *Resolver) Resolve(path string, values Values, now time.Time) (Document, error) {
	doc := Document{Path: path}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		doc.Text = string(data)
	case errors.Is(err, os.ErrNotExist):
		doc.Text = DefaultDocument
		doc.Path = ""
		doc.Generated = true
		r.log.Warn("metadata file not found, using built-in defaults", "path", path)
	default:
		return Document{}, fmt.Errorf("reading %s: %w", path, err)
	}

	doc.Text, doc.Unresolved = r.substitute(doc.Text, values, now)
	for _, key := range doc.Unresolved {
		r.log.Warn("metadata placeholder has no value", "key", key)
	}

	doc.fields = map[string]any{}
	if strings.TrimSpace(doc.Text) != "" {
		if err := yamlutil.Unmarshal([]byte(doc.Text), &doc.fields); err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
		}
	}

	if err := r.resolveDate(&doc, now); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Language picks the language code for a run. Priority: the explicit
// override, then the document's "language" or "lang" field, then
// DefaultLanguage. An override that disagrees with the document is
// honored but logged.
func (r *Resolver) Language(explicit string, doc Document) string {
	fromDoc, _ := doc.Field("language")
	if fromDoc == "" {
		fromDoc, _ = doc.Field("lang")
	}
	if explicit != "" {
		if fromDoc != "" && !strings.EqualFold(fromDoc, explicit) {
			r.log.Warn("language override differs from metadata",
				"override", explicit, "metadata", fromDoc)
		}
		return explicit
	}
	if fromDoc != "" {
		return fromDoc
	}
	return DefaultLanguage
}

// substitute fills {{KEY}} tokens from values and reports the keys that
// had none, deduplicated in order of first appearance.
func (r *Resolver) substitute(text string, values Values, now time.Time) (string, []string) {
	var unresolved []string
	seen := map[string]bool{}

	out := placeholder.ReplaceAllStringFunc(text, func(m string) string {
		key := m[2 : len(m)-2]
		value, ok := values[key]
		if !ok {
			if !seen[key] {
				seen[key] = true
				unresolved = append(unresolved, key)
			}
			return m
		}
		return r.render(key, value, now)
	})
	return out, unresolved
}

// render turns a value into its YAML textual form: lists become block
// items, booleans lowercase, scalars verbatim. String values of keys
// containing DATE may use the symbolic "auto" syntax.
func (r *Resolver) render(key string, value any, now time.Time) string {
	switch v := value.(type) {
	case []any:
		return renderList(v)
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		return renderList(items)
	case string:
		if strings.Contains(key, "DATE") && dateutil.IsAuto(v) {
			resolved, err := dateutil.Resolve(v, now)
			if err != nil {
				r.log.Warn("cannot resolve date value, leaving it as written",
					"key", key, "value", v, "error", err)
				return v
			}
			return resolved
		}
		return v
	default:
		return renderScalar(value)
	}
}

func renderList(items []any) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("\n  - ")
		b.WriteString(renderScalar(item))
	}
	return b.String()
}

func renderScalar(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

// resolveDate expands a symbolic top-level date field in place, keeping
// the rest of the text byte-for-byte intact.
func (r *Resolver) resolveDate(doc *Document, now time.Time) error {
	raw, ok := doc.fields["date"].(string)
	if !ok || !dateutil.IsAuto(raw) {
		return nil
	}
	resolved, err := dateutil.Resolve(raw, now)
	if err != nil {
		return fmt.Errorf("%w: date: %v", ErrInvalidMetadata, err)
	}
	loc := dateLine.FindStringIndex(doc.Text)
	if loc == nil {
		return nil
	}
	doc.Text = doc.Text[:loc[0]] + "date: '" + resolved + "'" + doc.Text[loc[1]:]
	doc.fields["date"] = resolved
	return nil
}
