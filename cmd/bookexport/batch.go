package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	bookexport "github.com/alnah/go-bookexport"
)

// errBatchFailed marks a batch run with at least one failed file.
var errBatchFailed = errors.New("batch conversion finished with failures")

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var (
		to           string
		root         string
		outDir       string
		jobs         int
		fixInPlace   bool
		testOnly     bool
		metadataFile string
		resourcePath string
		language     string
	)

	cmd := &cobra.Command{
		Use:   "batch --to <format>",
		Short: "Convert every Markdown file under a tree",
		Long: `Batch converts each .md file under the root tree separately, mirroring
the directory structure into the output tree and running conversions in
parallel. Before converting, each file is patched in memory: BOM
stripped, newlines normalized, and a blank line ensured after
horizontal rules; --fix-inplace writes the patches back to the sources,
and --test-only converts to the null device to smoke-test the tree.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pc, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			svc, err := ctx.service()
			if err != nil {
				return err
			}

			cfg := bookexport.BatchConfig{
				RootDir:      root,
				OutDir:       outDir,
				To:           to,
				Jobs:         jobs,
				FixInPlace:   fixInPlace,
				TestOnly:     testOnly,
				MetadataFile: metadataFile,
				ResourcePath: resourcePath,
				Language:     language,
				Tools: bookexport.Tools{
					Pandoc: pc.Tools.Pandoc,
				},
			}
			if cfg.RootDir == "" {
				cfg.RootDir = pc.ManuscriptDir()
			}
			if cfg.OutDir == "" {
				cfg.OutDir = pc.OutputDir()
			}

			result, err := svc.Batch(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			out := ctx.env.Stdout
			for _, f := range result.Files {
				switch {
				case f.Error != "":
					fmt.Fprintf(out, "FAIL %s: %s\n", f.Source, f.Error)
				case f.Output != "":
					fmt.Fprintf(out, "OK   %s -> %s\n", f.Source, f.Output)
				default:
					fmt.Fprintf(out, "OK   %s\n", f.Source)
				}
			}
			fmt.Fprintf(out, "converted %d/%d files, %d fixes, %d workers\n",
				result.Converted, len(result.Files), result.Fixes, result.Workers)

			if result.Failures > 0 {
				return fmt.Errorf("%w: %d of %d files", errBatchFailed, result.Failures, len(result.Files))
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&to, "to", "", "pandoc writer to convert to: epub, html, pdf, docx, odt or rtf")
	fl.StringVar(&root, "root", "", "tree searched for .md files (default: the manuscript directory)")
	fl.StringVar(&outDir, "outdir", "", "output tree mirroring the root (default: the output directory)")
	fl.IntVar(&jobs, "jobs", 0, "parallel conversions (default: from CPU count)")
	fl.BoolVar(&fixInPlace, "fix-inplace", false, "write Markdown patches back to the source files")
	fl.BoolVar(&testOnly, "test-only", false, "convert to the null device, writing no output files")
	fl.StringVar(&metadataFile, "metadata-file", "", "YAML metadata file passed to every conversion")
	fl.StringVar(&resourcePath, "resource-path", "", "pandoc resource path for images and includes")
	fl.StringVar(&language, "language", "", "language code passed as pandoc metadata")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
