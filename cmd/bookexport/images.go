package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/go-bookexport/internal/pathrewrite"
)

func newImagesCommand(ctx *commandContext) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "images absolute|relative|tags",
		Short: "Rewrite image references across the manuscript",
		Long: `Images rewrites every image reference in the manuscript tree:

  absolute   turn relative targets into absolute paths (what export
             does before converting)
  relative   turn absolute targets under the project root back into
             relative ones (what export does when it finishes)
  tags       rebuild raw <img> tags with normalized attributes

Targets outside the project root, URLs and data URIs are never
touched, so absolute and relative round-trip losslessly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pc, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			base := root
			if base == "" {
				base = pc.Root
			}
			rewriter, err := pathrewrite.New(base, logger)
			if err != nil {
				return err
			}

			dirs := []string{pc.ManuscriptDir()}
			var stats pathrewrite.Stats
			if args[0] == "tags" {
				stats, err = rewriter.NormalizeTagsTree(dirs)
			} else {
				mode, perr := pathrewrite.ParseMode(args[0])
				if perr != nil {
					return perr
				}
				stats, err = rewriter.RewriteTree(dirs, mode)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(ctx.env.Stdout, "rewrote %d references in %d files\n",
				stats.RefsRewritten, stats.FilesChanged)
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "directory image paths must stay under (default: the project root)")
	return cmd
}
