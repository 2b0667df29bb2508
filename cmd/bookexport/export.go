package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	bookexport "github.com/alnah/go-bookexport"
	"github.com/alnah/go-bookexport/internal/validate"
)

// errFormatsNotProduced marks a run that left at least one requested
// format without an artifact, skipped or failed. The run report still
// lists every outcome.
var errFormatsNotProduced = errors.New("export did not produce every requested format")

func newExportCommand(ctx *commandContext) *cobra.Command {
	flags := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run the full export pipeline",
		Long: `Export merges the manuscript in reading order and converts it to every
requested format. Prior output is backed up first, image links are made
absolute for the converters and restored afterwards, and a JSON run
report is written next to the artifacts.

Formats: pdf, epub, mobi, docx, html, markdown. A mobi request converts
the fresh epub through Calibre, producing the epub on the way if it was
not requested itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pc, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg := bookexport.FromProject(pc)
			if err := flags.apply(cmd.Flags(), &cfg); err != nil {
				return err
			}

			svc, err := ctx.service()
			if err != nil {
				return err
			}
			report, err := svc.Export(cmd.Context(), cfg)
			if report != nil {
				printRunReport(ctx.env, report)
				fmt.Fprintf(ctx.env.Stdout, "report: %s\n",
					filepath.Join(cfg.OutputDir, bookexport.ReportName))
			}
			if err != nil {
				return err
			}
			if missing := unproducedFormats(report); len(missing) > 0 {
				return fmt.Errorf("%w: %s", errFormatsNotProduced, strings.Join(missing, ", "))
			}
			return nil
		},
	}

	addExportFlags(cmd.Flags(), flags)

	return cmd
}

// printRunReport renders the per-format outcome table.
func printRunReport(env *Environment, report *bookexport.RunReport) {
	rows := make([][]string, 0, len(report.Formats))
	for _, fr := range report.Formats {
		name := string(fr.Format)
		if fr.Implicit {
			name += " (implicit)"
		}
		rows = append(rows, []string{
			name,
			string(fr.Outcome),
			fmt.Sprintf("%.1fs", float64(fr.DurationMS)/1000),
			resultDetail(fr),
		})
	}
	fmt.Fprintln(env.Stdout, renderTable(
		[]string{"FORMAT", "OUTCOME", "TIME", "DETAIL"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
}

// resultDetail condenses one format outcome into a table cell: the
// artifact name when produced, the failure detail otherwise, plus the
// validation verdict when one was recorded.
func resultDetail(fr bookexport.FormatResult) string {
	detail := fr.Detail
	if fr.Outcome == bookexport.OutcomeProduced {
		detail = filepath.Base(fr.Artifact)
	}
	if fr.Validation != nil {
		v := "validation " + string(fr.Validation.Status)
		if fr.Validation.Status != validate.StatusOK && fr.Validation.Detail != "" {
			v += ": " + fr.Validation.Detail
		}
		if detail == "" {
			return v
		}
		detail += "; " + v
	}
	return detail
}

// unproducedFormats lists the requested formats that yielded no
// artifact, for the final error. Implicit epubs are not user requests
// and are excluded; the mobi they serve carries the consequence.
func unproducedFormats(report *bookexport.RunReport) []string {
	var out []string
	for _, fr := range report.Formats {
		if fr.Implicit || fr.Outcome == bookexport.OutcomeProduced {
			continue
		}
		out = append(out, string(fr.Format))
	}
	return out
}
