package bookexport

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alnah/go-bookexport/internal/fileutil"
	"github.com/alnah/go-bookexport/internal/hints"
	"github.com/alnah/go-bookexport/internal/mdtext"
)

// batchExtensions maps batch writer names to output extensions.
var batchExtensions = map[string]string{
	"epub": ".epub",
	"html": ".html",
	"pdf":  ".pdf",
	"docx": ".docx",
	"odt":  ".odt",
	"rtf":  ".rtf",
}

// BatchConfig controls one batch conversion pass over a directory
// tree. Unlike Export, every Markdown file converts separately.
type BatchConfig struct {
	RootDir string // searched recursively for .md files
	OutDir  string // mirrors RootDir's structure
	To      string // pandoc writer name
	Jobs    int    // parallel conversions; 0 resolves from CPU count

	FixInPlace bool // write patched markdown back to the sources
	TestOnly   bool // convert to the null device, writing nothing

	MetadataFile string
	ResourcePath string
	Language     string
	Tools        Tools
}

// BatchFile records one source file's outcome.
type BatchFile struct {
	Source string `json:"source"`
	Output string `json:"output,omitempty"`
	Fixes  int    `json:"fixes"`
	Error  string `json:"error,omitempty"`
}

// BatchResult summarizes one batch pass.
type BatchResult struct {
	Files     []BatchFile `json:"files"`
	Converted int         `json:"converted"`
	Failures  int         `json:"failures"`
	Fixes     int         `json:"fixes"`
	Workers   int         `json:"workers"`
}

// Batch converts every Markdown file under cfg.RootDir to one format,
// mirroring the tree under cfg.OutDir. Sources are patched before
// conversion (BOM, newlines, horizontal-rule spacing) and conversions
// run in parallel. Per-file failures land in the result; the error
// covers a missing pandoc, an unknown target, or an empty tree.
func (s *Service) Batch(ctx context.Context, cfg BatchConfig) (*BatchResult, error) {
	ext, ok := batchExtensions[cfg.To]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, cfg.To)
	}

	pandoc := cfg.Tools.PandocBin()
	if _, err := s.cfg.lookPath(pandoc); err != nil {
		s.cfg.logger.Error("pandoc not found",
			"tool", pandoc, "hint", hints.InstallText("pandoc"))
		return nil, fmt.Errorf("%w: %s", ErrMissingTool, pandoc)
	}

	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", cfg.RootDir, err)
	}
	outDir, err := filepath.Abs(cfg.OutDir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", cfg.OutDir, err)
	}

	sources, err := listMarkdown(root)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: under %s", ErrNoInputFiles, root)
	}

	workers := ResolveWorkers(cfg.Jobs)
	log := s.cfg.logger.With("component", "batch")
	log.Info("batch conversion started",
		"files", len(sources), "to", cfg.To, "workers", workers, "test_only", cfg.TestOnly)

	result := &BatchResult{Files: make([]BatchFile, len(sources)), Workers: workers}
	for i, src := range sources {
		result.Files[i] = BatchFile{Source: src}
	}

	processed := make([]bool, len(sources))
	forEachLimit(ctx, workers, len(sources), func(i int) {
		processed[i] = true
		result.Files[i] = s.batchOne(ctx, pandoc, root, outDir, ext, cfg, sources[i])
	})

	for i, f := range result.Files {
		if !processed[i] {
			continue
		}
		result.Fixes += f.Fixes
		if f.Error != "" {
			result.Failures++
			log.Error("file failed", "source", f.Source, "detail", f.Error)
		} else {
			result.Converted++
			log.Debug("file converted", "source", f.Source, "output", f.Output)
		}
	}

	log.Info("batch conversion finished",
		"converted", result.Converted, "failures", result.Failures, "fixes", result.Fixes)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// batchOne patches and converts a single source file.
func (s *Service) batchOne(ctx context.Context, pandoc, root, outDir, ext string, cfg BatchConfig, src string) BatchFile {
	file := BatchFile{Source: src}

	raw, err := os.ReadFile(src) // #nosec G304 -- sources come from the scanned tree
	if err != nil {
		file.Error = err.Error()
		return file
	}

	patched, fixes := mdtext.Patch(string(raw))
	file.Fixes = fixes

	input := src
	switch {
	case cfg.FixInPlace && patched != string(raw):
		if err := os.WriteFile(src, []byte(patched), 0o644); err != nil { // #nosec G306 -- manuscript files are meant to be readable
			file.Error = err.Error()
			return file
		}
	case !cfg.FixInPlace && patched != string(raw):
		tmp, cleanup, err := fileutil.WriteTempFile(patched, "md")
		if err != nil {
			file.Error = err.Error()
			return file
		}
		defer cleanup()
		input = tmp
	}

	output := os.DevNull
	if !cfg.TestOnly {
		rel, err := filepath.Rel(root, src)
		if err != nil {
			file.Error = err.Error()
			return file
		}
		out := filepath.Join(outDir, strings.TrimSuffix(rel, filepath.Ext(rel))+ext)
		if err := fileutil.EnsureDir(filepath.Dir(out)); err != nil {
			file.Error = err.Error()
			return file
		}
		output = out
	}

	args := []string{"--standalone", "--from", "markdown", "--to", cfg.To}
	if cfg.MetadataFile != "" {
		args = append(args, "--metadata-file", cfg.MetadataFile)
	}
	if cfg.Language != "" {
		args = append(args, "--metadata", "lang="+cfg.Language)
	}
	if cfg.ResourcePath != "" {
		args = append(args, "--resource-path", cfg.ResourcePath)
	}
	args = append(args, "--output", output, input)

	_, stderr, err := s.runner.Run(ctx, pandoc, args...)
	if err != nil {
		file.Error = commandDetail(stderr, err)
		return file
	}
	if !cfg.TestOnly {
		file.Output = output
	}
	return file
}

// listMarkdown returns every .md file under root, sorted.
func listMarkdown(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".md") {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}
