package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-bookexport/internal/metadata"
)

// errMetadataNotReady marks a metadata check that found a generated
// fallback document or unresolved placeholders.
var errMetadataNotReady = errors.New("metadata is not ready")

func newMetadataCommand(ctx *commandContext) *cobra.Command {
	var (
		write string
		check bool
	)

	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Print the resolved metadata document",
		Long: `Metadata loads the project metadata template, fills its UPPERCASE
placeholders from the values file, expands symbolic dates, and prints
the resolved YAML exactly as a converter would receive it.

With --check the command prints nothing and fails when no metadata
file exists or placeholders remain unresolved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pc, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			values := metadata.Values{}
			if path := pc.ValuesFile(); path != "" {
				v, verr := metadata.LoadValues(path)
				switch {
				case errors.Is(verr, os.ErrNotExist):
					// No values file is fine; placeholders just stay.
				case verr != nil:
					return verr
				default:
					values = v
				}
			}

			doc, err := metadata.New(logger).Resolve(pc.MetadataFile(), values, ctx.env.Now())
			if err != nil {
				return err
			}

			if check {
				switch {
				case doc.Generated:
					return fmt.Errorf("%w: no metadata file at %s", errMetadataNotReady, pc.MetadataFile())
				case len(doc.Unresolved) > 0:
					return fmt.Errorf("%w: unresolved placeholders: %s",
						errMetadataNotReady, strings.Join(doc.Unresolved, ", "))
				}
				fmt.Fprintf(ctx.env.Stdout, "metadata ok: %s\n", doc.Path)
				return nil
			}

			if write != "" {
				if err := os.WriteFile(write, []byte(doc.Text), 0o644); err != nil { // #nosec G306 -- resolved metadata is meant to be readable
					return fmt.Errorf("writing %s: %w", write, err)
				}
				fmt.Fprintf(ctx.env.Stdout, "wrote %s\n", write)
				return nil
			}

			fmt.Fprint(ctx.env.Stdout, doc.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&write, "write", "", "write the resolved document to a file instead of stdout")
	cmd.Flags().BoolVar(&check, "check", false, "fail when the metadata is missing or has unresolved placeholders")

	return cmd
}
