package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	bookexport "github.com/alnah/go-bookexport"
)

// doctorReport holds the full diagnostic result.
type doctorReport struct {
	Status string      `json:"status"`           // "ready" or "missing-tools"
	Config string      `json:"config,omitempty"` // project file in effect
	Tools  []toolCheck `json:"tools"`
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the export toolchain is installed",
		Long: `Doctor looks up every external binary the pipeline can invoke,
honoring [tools] overrides from book.toml. A binary is required only
when a configured format needs it; the validators are always optional.
The command fails only when a required tool is missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pc, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			tools := bookexport.Tools{
				Pandoc:       pc.Tools.Pandoc,
				EbookConvert: pc.Tools.EbookConvert,
				Epubcheck:    pc.Tools.Epubcheck,
				Pdfinfo:      pc.Tools.Pdfinfo,
			}
			checks := checkTools(tools, pc.Export.Formats, ctx.env.LookPath)

			var missing []string
			for _, c := range checks {
				if c.Required && !c.Found {
					missing = append(missing, c.Bin)
				}
			}
			report := doctorReport{Status: "ready", Config: ctx.configPath, Tools: checks}
			if len(missing) > 0 {
				report.Status = "missing-tools"
			}

			if jsonOut {
				enc := json.NewEncoder(ctx.env.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printDoctorReport(ctx.env.Stdout, report)
			}

			if len(missing) > 0 {
				return fmt.Errorf("%w: %s", bookexport.ErrMissingTool, strings.Join(missing, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the report as JSON")
	return cmd
}

// printDoctorReport renders the human-readable tool table.
func printDoctorReport(w io.Writer, r doctorReport) {
	rows := make([][]string, 0, len(r.Tools))
	for _, t := range r.Tools {
		status := "[OK]"
		detail := t.Path
		if !t.Found {
			status = "[WARN]"
			if t.Required {
				status = "[ERROR]"
			}
			detail = t.Hint
			if detail == "" {
				detail = "not found"
			}
		}
		rows = append(rows, []string{t.Bin, status, t.Role, detail})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"TOOL", "STATUS", "NEEDED FOR", "DETAIL"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
	))

	if r.Config != "" {
		fmt.Fprintf(w, "project: %s\n", r.Config)
	}
	if r.Status == "ready" {
		fmt.Fprintln(w, "Status: ready to export")
	} else {
		fmt.Fprintln(w, "Status: required tools missing (see rows above)")
	}
}
