package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alnah/go-bookexport/internal/manuscript"
)

func newTOCCommand(ctx *commandContext) *cobra.Command {
	var (
		file string
		mode string
		ext  string
	)

	cmd := &cobra.Command{
		Use:   "toc",
		Short: "Normalize table-of-contents links",
		Long: `Toc rewrites the links in the table-of-contents file for single-file
export. Mode "anchors" reduces links like (chapters/01.md#intro) to
pure anchors (#intro); mode "ext" rewrites the .md extension of link
targets to another extension instead. Both are idempotent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tocMode, err := manuscript.ParseTOCMode(mode)
			if err != nil {
				return err
			}

			path := file
			if path == "" {
				pc, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				path = filepath.Join(pc.ManuscriptDir(), manuscript.FrontMatterDir, manuscript.TOCName)
			}

			changed, err := manuscript.NormalizeTOC(path, tocMode, ext)
			if err != nil {
				return err
			}
			if changed {
				fmt.Fprintf(ctx.env.Stdout, "normalized %s\n", path)
			} else {
				fmt.Fprintf(ctx.env.Stdout, "already normalized: %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "TOC file to rewrite (default: front-matter/toc.md in the manuscript)")
	cmd.Flags().StringVar(&mode, "mode", string(manuscript.TOCModeAnchors), "normalization mode: anchors or ext")
	cmd.Flags().StringVar(&ext, "ext", "md", "target link extension for --mode ext")

	return cmd
}
