package manuscript

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// ErrUnknownTOCMode reports an unrecognized TOC normalization mode.
var ErrUnknownTOCMode = errors.New("unknown toc mode")

// TOCMode selects how table-of-contents links are normalized before a
// single-file export.
type TOCMode string

const (
	// TOCModeAnchors strips file paths from anchored links, leaving pure
	// in-document anchors. Safest for single-file output.
	TOCModeAnchors TOCMode = "anchors"
	// TOCModeExt rewrites Markdown link extensions to a target extension.
	TOCModeExt TOCMode = "ext"
)

// ParseTOCMode maps a mode argument to a TOCMode.
func ParseTOCMode(s string) (TOCMode, error) {
	switch TOCMode(s) {
	case TOCModeAnchors, TOCModeExt:
		return TOCMode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTOCMode, s)
}

var (
	// (path.md#anchor) in any of the Markdown extensions.
	anchoredLink = regexp.MustCompile(`\((?:[^)\s]+)\.(?:md|gfm|markdown)(#[^)]+)\)`)

	parenGroup = regexp.MustCompile(`\(([^)]+)\)`)
	linkExt    = regexp.MustCompile(`\.(?:md|gfm|markdown)(#|$)`)
)

// StripToAnchors turns links like (chapters/01.md#intro) into pure
// anchors (#intro). Links without an anchor and plain anchors are left
// unchanged, so the operation is idempotent.
func StripToAnchors(text string) string {
	return anchoredLink.ReplaceAllString(text, "(${1})")
}

// ReplaceLinkExt rewrites the .md/.gfm/.markdown extension of link
// targets to ext, both before an anchor and at the end of the target.
func ReplaceLinkExt(text, ext string) string {
	return parenGroup.ReplaceAllStringFunc(text, func(group string) string {
		url := group[1 : len(group)-1]
		url = linkExt.ReplaceAllStringFunc(url, func(m string) string {
			if strings.HasSuffix(m, "#") {
				return "." + ext + "#"
			}
			return "." + ext
		})
		return "(" + url + ")"
	})
}

// NormalizeTOC rewrites the table-of-contents file in place according to
// mode. Reports whether the file changed.
func NormalizeTOC(path string, mode TOCMode, ext string) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	text := string(raw)

	var out string
	switch mode {
	case TOCModeAnchors:
		out = StripToAnchors(text)
	case TOCModeExt:
		out = ReplaceLinkExt(text, ext)
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownTOCMode, mode)
	}

	if out == text {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}
