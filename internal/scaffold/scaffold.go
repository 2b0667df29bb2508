// Package scaffold lays out a new book project on disk: the manuscript
// section directories, an assets and output directory, and embedded
// starter files including a commented book.toml, the metadata template
// with its placeholders intact, a first chapter, and a TOC stub.
package scaffold

import (
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/alnah/go-bookexport/internal/config"
	"github.com/alnah/go-bookexport/internal/fileutil"
	"github.com/alnah/go-bookexport/internal/manuscript"
)

//go:embed starter
var starter embed.FS

// layoutDirs are created for every project, slash-separated relative to
// the project root.
var layoutDirs = []string{
	path.Join("manuscript", manuscript.FrontMatterDir),
	path.Join("manuscript", manuscript.ChaptersDir),
	path.Join("manuscript", manuscript.BackMatterDir),
	"assets",
	"output",
	"config",
}

// starterFiles maps embedded sources to their project-relative targets,
// in creation order.
var starterFiles = []struct {
	source string
	target string
}{
	{"starter/metadata.yaml", "config/metadata.yaml"},
	{"starter/metadata_values.json", "config/metadata_values.json"},
	{"starter/01-chapter.md", path.Join("manuscript", manuscript.ChaptersDir, "01-chapter.md")},
	{"starter/toc.md", path.Join("manuscript", manuscript.FrontMatterDir, manuscript.TOCName)},
	{"starter/README.md", "README.md"},
}

// Report lists what Create did, with paths relative to the project
// root.
type Report struct {
	Root    string
	Created []string
	Skipped []string
}

// Create lays out a book project under dir. A non-empty name is
// spliced into the generated book.toml; existing files are left alone
// and reported as skipped unless force is set.
func Create(dir, name string, force bool, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "scaffold")

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}

	report := &Report{Root: root}
	for _, d := range layoutDirs {
		if err := fileutil.EnsureDir(filepath.Join(root, filepath.FromSlash(d))); err != nil {
			return nil, err
		}
	}

	sample := config.Sample()
	if name != "" {
		sample = strings.Replace(sample, `name = ""`, fmt.Sprintf("name = %q", name), 1)
	}
	if err := writeStarter(root, config.FileName, []byte(sample), force, report); err != nil {
		return nil, err
	}

	for _, sf := range starterFiles {
		content, err := starter.ReadFile(sf.source)
		if err != nil {
			return nil, fmt.Errorf("reading embedded %s: %w", sf.source, err)
		}
		if err := writeStarter(root, sf.target, content, force, report); err != nil {
			return nil, err
		}
	}

	log.Info("project scaffolded",
		"root", root, "created", len(report.Created), "skipped", len(report.Skipped))
	return report, nil
}

func writeStarter(root, target string, content []byte, force bool, report *Report) error {
	full := filepath.Join(root, filepath.FromSlash(target))
	if !force && fileutil.FileExists(full) {
		report.Skipped = append(report.Skipped, target)
		return nil
	}
	if err := os.WriteFile(full, content, 0o644); err != nil { // #nosec G306 -- project files are meant to be readable
		return fmt.Errorf("writing %s: %w", full, err)
	}
	report.Created = append(report.Created, target)
	return nil
}
