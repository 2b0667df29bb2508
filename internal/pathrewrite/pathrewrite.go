// Package pathrewrite converts image references in Markdown manuscripts
// between relative and absolute form. Both Markdown image syntax and raw
// <img> tags are covered, and the two passes are inverse to each other:
// converting to absolute and back restores the original text. Code blocks
// and inline code are never modified.
package pathrewrite

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/alnah/go-bookexport/internal/mdtext"
)

// Sentinel errors for rewriter construction and mode parsing.
var (
	ErrInvalidRoot = errors.New("invalid project root")
	ErrUnknownMode = errors.New("unknown rewrite mode")
)

// Mode selects the rewrite direction.
type Mode string

const (
	// ModeAbsolute resolves relative targets against each file's directory.
	ModeAbsolute Mode = "absolute"
	// ModeRelative re-expresses absolute targets relative to each file.
	ModeRelative Mode = "relative"
)

// ParseMode maps a mode argument to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAbsolute, ModeRelative:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Precompiled patterns.
var (
	// Markdown image: ![alt](target "title"), with angle-bracketed targets
	// and single- or double-quoted titles.
	mdImage = regexp.MustCompile(`!\[[^\]]*\]\((<[^>]*>|[^)"]*?)(\s+(?:"[^"]*"|'[^']*'))?\)`)

	// Raw image tag; attributes are parsed separately.
	imgTag  = regexp.MustCompile(`(?i)<img\b[^>]*>`)
	imgAttr = regexp.MustCompile(`([A-Za-z_:][A-Za-z0-9:._-]*)\s*=\s*(?:"([^"]*)"|'([^']*)')`)

	// Scheme-prefixed and protocol-relative targets (https:, data:, //cdn).
	urlLike = regexp.MustCompile(`^(?:[a-zA-Z][a-zA-Z0-9+.-]*:|//)`)
)

// Stats reports the outcome of a tree pass.
type Stats struct {
	FilesChanged  int
	RefsRewritten int
}

// Rewriter rewrites image targets inside a single project. Targets are
// only converted when they stay inside the project root, so a round trip
// through both modes reproduces the source text.
type Rewriter struct {
	root string
	log  *slog.Logger
}

// New returns a Rewriter for the project rooted at root. The root must be
// an existing directory.
func New(root string, logger *slog.Logger) (*Rewriter, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRoot, abs)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidRoot, abs)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Rewriter{root: abs, log: logger}, nil
}

// Rewrite converts every image target in text according to mode. The
// source path locates the document on disk: relative targets resolve
// against its directory and warnings name it. Returns the new text and
// the number of targets rewritten.
func (r *Rewriter) Rewrite(text, source string, mode Mode) (string, int) {
	if abs, err := filepath.Abs(source); err == nil {
		source = abs
	}
	fileDir := filepath.Dir(source)

	total := 0
	out := mdtext.TransformOutsideCode(text, func(plain string) string {
		next, n := r.rewriteMarkdownRefs(plain, source, fileDir, mode)
		total += n
		next, n = r.rewriteTagRefs(next, source, fileDir, mode)
		total += n
		return next
	})
	return out, total
}

// RewriteTree converts every .md file under the given directories,
// writing each file back only when its content changed. Missing
// directories are skipped with a warning.
func (r *Rewriter) RewriteTree(dirs []string, mode Mode) (Stats, error) {
	return r.apply(dirs, func(path, text string) (string, int) {
		return r.Rewrite(text, path, mode)
	})
}

// NormalizeTagsTree rebuilds <img> tags across every .md file under the
// given directories.
func (r *Rewriter) NormalizeTagsTree(dirs []string) (Stats, error) {
	return r.apply(dirs, func(_, text string) (string, int) {
		return NormalizeTags(text)
	})
}

// apply runs a text transform over every .md file under dirs and writes
// back the files whose content changed.
func (r *Rewriter) apply(dirs []string, transform func(path, text string) (string, int)) (Stats, error) {
	var stats Stats
	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return stats, fmt.Errorf("resolving %s: %w", dir, err)
		}
		if _, err := os.Stat(abs); err != nil {
			r.log.Warn("skipping missing directory", "dir", abs)
			continue
		}

		walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
				return nil
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			text := string(raw)
			out, n := transform(path, text)
			if out == text {
				return nil
			}
			if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			stats.FilesChanged++
			stats.RefsRewritten += n
			return nil
		})
		if walkErr != nil {
			return stats, walkErr
		}
	}
	return stats, nil
}

// rewriteMarkdownRefs rewrites the targets of Markdown image references
// in a code-free text segment. Only the target span is replaced; alt
// text, titles, and spacing survive byte for byte. Angle brackets around
// the target are preserved so the rewrite stays reversible for paths
// containing spaces or parentheses.
func (r *Rewriter) rewriteMarkdownRefs(text, source, fileDir string, mode Mode) (string, int) {
	matches := mdImage.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, 0
	}

	var b strings.Builder
	b.Grow(len(text))
	last, count := 0, 0
	for _, m := range matches {
		tStart, tEnd := m[2], m[3]
		target, angled := stripAngles(text[tStart:tEnd])
		newTarget, ok := r.rewriteTarget(strings.TrimSpace(target), source, fileDir, mode)
		if !ok {
			continue
		}
		count++
		b.WriteString(text[last:tStart])
		if angled {
			b.WriteString("<")
			b.WriteString(newTarget)
			b.WriteString(">")
		} else {
			b.WriteString(newTarget)
		}
		last = tEnd
	}
	b.WriteString(text[last:])
	return b.String(), count
}

// rewriteTagRefs rewrites src attributes of <img> tags in a code-free
// text segment, leaving every other attribute untouched.
func (r *Rewriter) rewriteTagRefs(text, source, fileDir string, mode Mode) (string, int) {
	tags := imgTag.FindAllStringIndex(text, -1)
	if len(tags) == 0 {
		return text, 0
	}

	var b strings.Builder
	b.Grow(len(text))
	last, count := 0, 0
	for _, span := range tags {
		tag := text[span[0]:span[1]]

		var tb strings.Builder
		tLast := 0
		changed := false
		for _, a := range imgAttr.FindAllStringSubmatchIndex(tag, -1) {
			if !strings.EqualFold(tag[a[2]:a[3]], "src") {
				continue
			}
			vStart, vEnd := a[4], a[5]
			if vStart < 0 {
				vStart, vEnd = a[6], a[7]
			}
			newSrc, ok := r.rewriteTarget(tag[vStart:vEnd], source, fileDir, mode)
			if !ok {
				continue
			}
			changed = true
			count++
			tb.WriteString(tag[tLast:vStart])
			tb.WriteString(newSrc)
			tLast = vEnd
		}
		if !changed {
			continue
		}
		tb.WriteString(tag[tLast:])

		b.WriteString(text[last:span[0]])
		b.WriteString(tb.String())
		last = span[1]
	}
	b.WriteString(text[last:])
	return b.String(), count
}

// rewriteTarget applies the conversion rules to one target path. Empty
// targets, anchors, URLs, and targets leaving the project root are never
// touched. In absolute mode a target whose resolved path does not exist
// on disk is left unchanged and reported as a warning.
func (r *Rewriter) rewriteTarget(target, source, fileDir string, mode Mode) (string, bool) {
	if target == "" || strings.HasPrefix(target, "#") || urlLike.MatchString(target) {
		return target, false
	}

	switch mode {
	case ModeAbsolute:
		if filepath.IsAbs(target) {
			return target, false
		}
		abs := filepath.Join(fileDir, target)
		if !r.underRoot(abs) {
			r.log.Debug("image target outside project root",
				"source", source, "target", target)
			return target, false
		}
		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			r.log.Warn("image target not found, reference left unchanged",
				"source", source, "target", target)
			return target, false
		}
		return abs, true

	case ModeRelative:
		if !filepath.IsAbs(target) {
			return target, false
		}
		if !r.underRoot(filepath.Clean(target)) {
			return target, false
		}
		rel, err := filepath.Rel(fileDir, target)
		if err != nil {
			return target, false
		}
		return filepath.ToSlash(rel), true
	}
	return target, false
}

// underRoot reports whether path lies inside the project root.
func (r *Rewriter) underRoot(path string) bool {
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// stripAngles removes surrounding angle brackets and reports whether they
// were present.
func stripAngles(s string) (string, bool) {
	if len(s) >= 2 && strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		return s[1 : len(s)-1], true
	}
	return s, false
}

// NormalizeTags rebuilds every <img> tag outside code with double-quoted
// attributes in a stable order: src first, alt second, remaining
// attributes alphabetical. Duplicate attributes keep the last value, and
// tags without a src attribute are left alone. Returns the new text and
// the number of tags that changed.
func NormalizeTags(text string) (string, int) {
	count := 0
	out := mdtext.TransformOutsideCode(text, func(plain string) string {
		return imgTag.ReplaceAllStringFunc(plain, func(tag string) string {
			rebuilt, ok := rebuildTag(tag)
			if !ok || rebuilt == tag {
				return tag
			}
			count++
			return rebuilt
		})
	})
	return out, count
}

// rebuildTag renders a parsed <img> tag back to canonical form. Reports
// false when the tag carries no src attribute.
func rebuildTag(tag string) (string, bool) {
	attrs := make(map[string]string)
	for _, m := range imgAttr.FindAllStringSubmatchIndex(tag, -1) {
		key := strings.ToLower(tag[m[2]:m[3]])
		if m[4] >= 0 {
			attrs[key] = tag[m[4]:m[5]]
		} else {
			attrs[key] = tag[m[6]:m[7]]
		}
	}
	if _, ok := attrs["src"]; !ok {
		return "", false
	}

	ordered := []string{"src"}
	if _, ok := attrs["alt"]; ok {
		ordered = append(ordered, "alt")
	}
	rest := make([]string, 0, len(attrs))
	for k := range attrs {
		if k != "src" && k != "alt" {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	ordered = append(ordered, rest...)

	var b strings.Builder
	b.WriteString("<img")
	for _, k := range ordered {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(attrs[k])
		b.WriteString(`"`)
	}
	b.WriteString(">")
	return b.String(), true
}
