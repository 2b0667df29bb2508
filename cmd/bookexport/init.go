package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/go-bookexport/internal/scaffold"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	var (
		name  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Lay out a new book project",
		Long: `Init creates the project skeleton: a book.toml sample, the manuscript
tree (front-matter, chapters, back-matter), assets and output
directories, a metadata template and a starter chapter. Existing files
are left alone unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			report, err := scaffold.Create(dir, name, force, logger)
			if err != nil {
				return err
			}

			out := ctx.env.Stdout
			fmt.Fprintf(out, "project ready at %s\n", report.Root)
			for _, f := range report.Created {
				fmt.Fprintf(out, "  created %s\n", f)
			}
			for _, f := range report.Skipped {
				fmt.Fprintf(out, "  kept    %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "book name written into book.toml (default: the directory name at load time)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing starter files")

	return cmd
}
