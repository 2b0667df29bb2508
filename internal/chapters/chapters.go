// Package chapters manages the numbered chapter files of a manuscript.
//
// Chapter files are named NN-slug.md with an ascending numeric prefix.
// Next proposes the file after the highest existing number, and
// Renumber reassigns contiguous prefixes after chapters have been
// inserted, removed, or reordered. Both return plans; nothing touches
// disk until Apply.
package chapters

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/alnah/go-bookexport/internal/fileutil"
)

// ErrChapterExists indicates the planned chapter file already exists.
var ErrChapterExists = errors.New("chapter file already exists")

// numbered matches chapter filenames like "07-the-storm.md" and
// captures the numeric prefix and the remainder.
var numbered = regexp.MustCompile(`^(\d+)(-.*\.md)$`)

// swapSuffix marks files parked mid-renumber so overlapping targets
// never collide.
const swapSuffix = ".swap"

// Plan is a proposed new chapter file.
type Plan struct {
	Dir      string
	Number   int
	Title    string
	FileName string
}

// Path returns the full path of the planned file.
func (p Plan) Path() string {
	return filepath.Join(p.Dir, p.FileName)
}

// Apply creates the planned chapter file with a starter heading. It
// never overwrites an existing file.
func (p Plan) Apply() error {
	if err := fileutil.EnsureDir(p.Dir); err != nil {
		return err
	}
	f, err := os.OpenFile(p.Path(), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) // #nosec G304 -- user-chosen manuscript path
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrChapterExists, p.Path())
		}
		return fmt.Errorf("creating %s: %w", p.Path(), err)
	}
	content := ""
	if p.Title != "" {
		content = "# " + p.Title + "\n"
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", p.Path(), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", p.Path(), err)
	}
	return nil
}

// Next proposes the chapter file following the highest numeric prefix
// in dir. A missing directory starts at chapter 1. The title becomes
// the filename slug; an empty title falls back to "chapter".
func Next(dir, title string) (Plan, error) {
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Plan{}, fmt.Errorf("reading %s: %w", dir, err)
	}

	highest := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := numbered.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}

	num := highest + 1
	return Plan{
		Dir:      dir,
		Number:   num,
		Title:    title,
		FileName: fmt.Sprintf("%02d-%s.md", num, Slug(title)),
	}, nil
}

// Slug lowercases a title and collapses every run of non-alphanumeric
// characters into a single hyphen. An empty result falls back to
// "chapter".
func Slug(title string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(title) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte('-')
			pending = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "chapter"
	}
	return b.String()
}

// Rename maps one chapter filename to its renumbered name. Both names
// are relative to the chapter directory.
type Rename struct {
	From string
	To   string
}

// Renames is an ordered renumbering plan.
type Renames []Rename

// Renumber plans contiguous 01..N prefixes for the chapter files in
// dir, preserving their current order (numeric prefix ascending,
// filename as tiebreak). Files already carrying the right prefix are
// omitted from the plan.
func Renumber(dir string) (Renames, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	type chapter struct {
		name string
		num  int
	}
	var found []chapter
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := numbered.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		found = append(found, chapter{name: entry.Name(), num: n})
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].num != found[j].num {
			return found[i].num < found[j].num
		}
		return found[i].name < found[j].name
	})

	var plan Renames
	for i, ch := range found {
		rest := numbered.FindStringSubmatch(ch.name)[2]
		target := fmt.Sprintf("%02d%s", i+1, rest)
		if target == ch.name {
			continue
		}
		plan = append(plan, Rename{From: ch.name, To: target})
	}
	return plan, nil
}

// Apply performs the renames in two phases. Every source is first
// parked under a swap name, then moved to its target, so a plan like
// 02->01, 03->02 never clobbers a file that is itself being moved.
func (rs Renames) Apply(dir string) error {
	for _, r := range rs {
		from := filepath.Join(dir, r.From)
		if err := os.Rename(from, from+swapSuffix); err != nil {
			return fmt.Errorf("renaming %s: %w", from, err)
		}
	}
	for _, r := range rs {
		parked := filepath.Join(dir, r.From) + swapSuffix
		to := filepath.Join(dir, r.To)
		if err := os.Rename(parked, to); err != nil {
			return fmt.Errorf("renaming %s: %w", parked, err)
		}
	}
	return nil
}
