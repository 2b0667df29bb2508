package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand(env *Environment) *cobra.Command {
	var (
		configFlag string
		logLevel   string
		logJSON    bool
		noColor    bool
	)

	ctx := newCommandContext(env, &configFlag, &logLevel, &logJSON, &noColor)

	rootCmd := &cobra.Command{
		Use:   "bookexport",
		Short: "Export a Markdown book project to distributable formats",
		Long: `bookexport merges a structured Markdown manuscript into a single
document and converts it to pdf, epub, mobi, docx, html or markdown
through pandoc and Calibre.

A project is a directory with a book.toml file, a manuscript/ tree
(front-matter, chapters, back-matter) and optional assets. Run
"bookexport init" to lay one out, then "bookexport export" inside it.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFlag, "config", "c", "", "path to book.toml (default: search upward from the working directory)")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	pf.BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
	pf.BoolVar(&noColor, "no-color", false, "disable color in logs and tables")

	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newInitCommand(ctx))
	rootCmd.AddCommand(newChapterCommand(ctx))
	rootCmd.AddCommand(newImagesCommand(ctx))
	rootCmd.AddCommand(newTOCCommand(ctx))
	rootCmd.AddCommand(newMetadataCommand(ctx))
	rootCmd.AddCommand(newValidateCommand(ctx))
	rootCmd.AddCommand(newBatchCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))

	return rootCmd
}
