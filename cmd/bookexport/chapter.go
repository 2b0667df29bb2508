package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-bookexport/internal/chapters"
	"github.com/alnah/go-bookexport/internal/manuscript"
)

func newChapterCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chapter",
		Short: "Manage numbered chapter files",
	}
	cmd.AddCommand(newChapterNewCommand(ctx))
	cmd.AddCommand(newChapterRenumberCommand(ctx))
	return cmd
}

// chaptersDir resolves the chapter directory of the current project.
func chaptersDir(ctx *commandContext) (string, error) {
	pc, err := ctx.ensureConfig()
	if err != nil {
		return "", err
	}
	return filepath.Join(pc.ManuscriptDir(), manuscript.ChaptersDir), nil
}

func newChapterNewCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "new <title>",
		Short: "Create the next numbered chapter file",
		Long: `New proposes the chapter file after the highest numeric prefix in the
chapter directory, with the title slugged into the filename, and
creates it with a starter heading.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := chaptersDir(ctx)
			if err != nil {
				return err
			}
			plan, err := chapters.Next(dir, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(ctx.env.Stdout, "would create %s\n", plan.Path())
				return nil
			}
			if err := plan.Apply(); err != nil {
				return err
			}
			fmt.Fprintf(ctx.env.Stdout, "created %s\n", plan.Path())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "print the planned file without creating it")
	return cmd
}

func newChapterRenumberCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "renumber",
		Short: "Reassign contiguous chapter prefixes",
		Long: `Renumber reassigns the numeric prefixes of every chapter file to a
contiguous 01..N sequence, preserving the current reading order.
Renames go through temporary names, so overlapping targets are safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := chaptersDir(ctx)
			if err != nil {
				return err
			}
			renames, err := chapters.Renumber(dir)
			if err != nil {
				return err
			}

			out := ctx.env.Stdout
			if len(renames) == 0 {
				fmt.Fprintln(out, "chapters already contiguous")
				return nil
			}
			verb := "renamed"
			if dryRun {
				verb = "would rename"
			}
			for _, r := range renames {
				fmt.Fprintf(out, "%s %s -> %s\n", verb, r.From, r.To)
			}
			if dryRun {
				return nil
			}
			return renames.Apply(dir)
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "print the rename plan without touching files")
	return cmd
}
