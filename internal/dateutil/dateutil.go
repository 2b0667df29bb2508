// Package dateutil resolves symbolic date values in book metadata.
//
// Metadata documents may set date fields to "auto" instead of a literal
// date; the value is replaced with the current date when the metadata is
// resolved for an export run. "auto:LAYOUT" selects a custom layout
// written with the friendly tokens YYYY, YY, MMMM, MMM, MM, M, DD and D,
// and a few named presets cover common publishing conventions.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrBadLayout indicates a date layout that cannot be parsed.
var ErrBadLayout = errors.New("invalid date layout")

// MaxLayoutLength caps layout strings; real layouts are a dozen characters.
const MaxLayoutLength = 64

// DefaultLayout is used for a bare "auto" value.
const DefaultLayout = "YYYY-MM-DD"

type layoutToken struct {
	text  string
	goFmt string
}

// tokens maps friendly layout tokens to Go reference-time fragments,
// longest first so greedy matching picks YYYY over YY.
var tokens = []layoutToken{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"M", "1"},
	{"D", "2"},
}

// Presets name common date conventions accepted after "auto:".
// "year" matches the bare copyright year many title pages carry.
var Presets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
	"long":     "MMMM D, YYYY",
	"year":     "YYYY",
}

// IsAuto reports whether value requests automatic date resolution.
func IsAuto(value string) bool {
	return strings.EqualFold(value, "auto") ||
		len(value) >= 5 && strings.EqualFold(value[:5], "auto:")
}

// Resolve expands "auto" date values against the supplied time.
//
//	"auto"         current date as YYYY-MM-DD
//	"auto:LAYOUT"  current date in a custom layout
//	"auto:preset"  current date using a named preset
//
// Any other value, including strings that merely start with "auto",
// is returned unchanged so literal dates pass through untouched.
func Resolve(value string, now time.Time) (string, error) {
	if strings.EqualFold(value, "auto") {
		return format(DefaultLayout, now)
	}
	if len(value) < 5 || !strings.EqualFold(value[:5], "auto:") {
		return value, nil
	}
	layout := value[5:]
	if layout == "" {
		return "", fmt.Errorf("%w: missing layout after \"auto:\"", ErrBadLayout)
	}
	if preset, ok := Presets[strings.ToLower(layout)]; ok {
		layout = preset
	}
	return format(layout, now)
}

func format(layout string, now time.Time) (string, error) {
	goFmt, err := GoLayout(layout)
	if err != nil {
		return "", err
	}
	return now.Format(goFmt), nil
}

// GoLayout converts a friendly layout to Go's reference-time layout.
// Text inside square brackets is copied literally, so "[Printed] YYYY"
// keeps the word "Printed" even though it contains token letters.
// Returns ErrBadLayout if the layout is empty, too long, or has an
// unclosed bracket.
func GoLayout(layout string) (string, error) {
	if layout == "" {
		return "", fmt.Errorf("%w: empty layout", ErrBadLayout)
	}
	if len(layout) > MaxLayoutLength {
		return "", fmt.Errorf("%w: layout exceeds %d characters", ErrBadLayout, MaxLayoutLength)
	}

	var out strings.Builder
	out.Grow(len(layout) + 8)

	for i := 0; i < len(layout); {
		if layout[i] == '[' {
			end := strings.IndexByte(layout[i+1:], ']')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrBadLayout, i)
			}
			out.WriteString(layout[i+1 : i+1+end])
			i += end + 2
			continue
		}
		if tok := matchToken(layout[i:]); tok != nil {
			out.WriteString(tok.goFmt)
			i += len(tok.text)
			continue
		}
		out.WriteByte(layout[i])
		i++
	}
	return out.String(), nil
}

func matchToken(s string) *layoutToken {
	for i := range tokens {
		if strings.HasPrefix(s, tokens[i].text) {
			return &tokens[i]
		}
	}
	return nil
}
