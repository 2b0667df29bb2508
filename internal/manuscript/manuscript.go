// Package manuscript plans and merges the ordered document set of a book:
// canonical front matter, numerically ordered chapters, canonical back
// matter. Fragments are loaded fresh on every plan and never mutated.
package manuscript

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrManuscriptNotFound reports a missing manuscript root directory.
var ErrManuscriptNotFound = errors.New("manuscript directory not found")

// Manuscript layout below the manuscript root.
const (
	FrontMatterDir = "front-matter"
	ChaptersDir    = "chapters"
	BackMatterDir  = "back-matter"
)

// TOCName is the conventional table-of-contents file in front matter.
const TOCName = "toc.md"

// Canonical section orders. Every section is optional; a file absent
// from disk is skipped.
var (
	FrontMatterOrder = []string{
		TOCName,
		"preface.md",
		"introduction.md",
		"foreword.md",
	}
	BackMatterOrder = []string{
		"epilogue.md",
		"glossary.md",
		"appendix.md",
		"acknowledgments.md",
		"about-the-author.md",
		"faq.md",
		"bibliography.md",
		"index.md",
	}
)

// Section identifies where a fragment sits in the manuscript.
type Section string

const (
	SectionFrontMatter Section = "front-matter"
	SectionChapter     Section = "chapters"
	SectionBackMatter  Section = "back-matter"
)

// Fragment is one source document in reading order. Ordinal is the
// chapter's numeric filename prefix, or the index in the canonical order
// for front and back matter.
type Fragment struct {
	Path    string
	Rel     string
	Section Section
	Ordinal int
	Content string
}

// Manuscript is the ordered fragment set of one export run.
type Manuscript struct {
	Dir       string
	Fragments []Fragment
}

var chapterPrefix = regexp.MustCompile(`^(\d+)`)

// Plan reads the manuscript tree under dir and returns the ordered
// fragment set: canonical front matter, chapters by ascending numeric
// prefix with lexical tiebreak, canonical back matter.
func Plan(dir string, logger *slog.Logger) (*Manuscript, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManuscriptNotFound, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrManuscriptNotFound, abs)
	}

	m := &Manuscript{Dir: abs}

	for i, name := range FrontMatterOrder {
		if err := m.appendIfPresent(FrontMatterDir, name, SectionFrontMatter, i); err != nil {
			return nil, err
		}
	}

	chaptersDir := filepath.Join(abs, ChaptersDir)
	chapters, err := listChapters(chaptersDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Warn("no chapters directory, continuing without chapters", "dir", chaptersDir)
	case err != nil:
		return nil, fmt.Errorf("listing %s: %w", chaptersDir, err)
	}
	for _, ch := range chapters {
		if err := m.appendFragment(ChaptersDir, ch.name, SectionChapter, ch.num); err != nil {
			return nil, err
		}
	}

	for i, name := range BackMatterOrder {
		if err := m.appendIfPresent(BackMatterDir, name, SectionBackMatter, i); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Merged returns the manuscript as one document with the given page-break
// marker between fragments. An empty marker separates fragments with a
// blank line only. Fragment contents are joined, not mutated: trailing
// newlines are normalized at the boundary so markers like \newpage land
// on their own line.
func (m *Manuscript) Merged(pageBreak string) string {
	if len(m.Fragments) == 0 {
		return ""
	}
	sep := "\n\n"
	if pageBreak != "" {
		sep = "\n\n" + pageBreak + "\n\n"
	}
	parts := make([]string, len(m.Fragments))
	for i, f := range m.Fragments {
		parts[i] = strings.TrimRight(f.Content, "\r\n")
	}
	return strings.Join(parts, sep) + "\n"
}

// Included lists the manuscript-relative paths of the planned fragments
// in reading order.
func (m *Manuscript) Included() []string {
	out := make([]string, len(m.Fragments))
	for i, f := range m.Fragments {
		out[i] = f.Rel
	}
	return out
}

// Chapters returns only the chapter fragments.
func (m *Manuscript) Chapters() []Fragment {
	var out []Fragment
	for _, f := range m.Fragments {
		if f.Section == SectionChapter {
			out = append(out, f)
		}
	}
	return out
}

// appendIfPresent adds an optional fragment, skipping it silently when
// the file does not exist. A file that exists but cannot be read is a
// real error.
func (m *Manuscript) appendIfPresent(section, name string, kind Section, ordinal int) error {
	path := filepath.Join(m.Dir, section, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil
	}
	return m.appendFragment(section, name, kind, ordinal)
}

func (m *Manuscript) appendFragment(section, name string, kind Section, ordinal int) error {
	path := filepath.Join(m.Dir, section, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	m.Fragments = append(m.Fragments, Fragment{
		Path:    path,
		Rel:     section + "/" + name,
		Section: kind,
		Ordinal: ordinal,
		Content: string(raw),
	})
	return nil
}

type chapterEntry struct {
	name string
	num  int
}

// listChapters returns the .md entries of the chapters directory ordered
// by ascending numeric prefix, ties broken lexically. Files with no
// numeric prefix sort after the numbered ones.
func listChapters(dir string) ([]chapterEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var chapters []chapterEntry
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			continue
		}
		chapters = append(chapters, chapterEntry{name: e.Name(), num: numericPrefix(e.Name())})
	}

	sort.Slice(chapters, func(i, j int) bool {
		a, b := chapters[i], chapters[j]
		switch {
		case a.num >= 0 && b.num >= 0:
			if a.num != b.num {
				return a.num < b.num
			}
			return a.name < b.name
		case a.num >= 0:
			return true
		case b.num >= 0:
			return false
		default:
			return a.name < b.name
		}
	})
	return chapters, nil
}

// numericPrefix parses the leading digit run of a chapter filename.
// Returns -1 when the name has none.
func numericPrefix(name string) int {
	m := chapterPrefix.FindString(name)
	if m == "" {
		return -1
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return -1
	}
	return n
}
