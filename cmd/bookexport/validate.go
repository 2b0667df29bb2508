package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	bookexport "github.com/alnah/go-bookexport"
	"github.com/alnah/go-bookexport/internal/validate"
)

// errValidationFailed marks a validate run with at least one failed
// artifact.
var errValidationFailed = errors.New("validation failed")

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate exported artifacts",
		Long: `Validate checks each artifact with the matching validator: epubcheck
for epub, pdfinfo for pdf, a pure-Go archive check for docx, and a
non-empty check for markdown and html. A missing validator binary
degrades the verdict to skipped, never to failed.

The format is detected from the file extension; --format overrides it
for every argument.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pc, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			checker := validate.New(&bookexport.ExecRunner{}, validate.Tools{
				Epubcheck: pc.Tools.Epubcheck,
				Pdfinfo:   pc.Tools.Pdfinfo,
			}, logger)

			var (
				rows   [][]string
				failed []string
			)
			for _, path := range args {
				f := format
				if f == "" {
					f = validate.DetectFormat(path)
				}
				if f == "" {
					return fmt.Errorf("%w: cannot detect a format for %s", validate.ErrUnknownFormat, path)
				}
				res, err := checker.Check(cmd.Context(), path, f)
				if err != nil {
					return err
				}
				if res.Status == validate.StatusFailed {
					failed = append(failed, path)
				}
				rows = append(rows, []string{string(res.Status), res.Format, res.Path, res.Detail})
			}

			fmt.Fprintln(ctx.env.Stdout, renderTable(
				[]string{"STATUS", "FORMAT", "PATH", "DETAIL"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			if len(failed) > 0 {
				return fmt.Errorf("%w: %s", errValidationFailed, strings.Join(failed, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "validator to use for every file: epub, pdf, docx, markdown or html (default: by extension)")

	return cmd
}
