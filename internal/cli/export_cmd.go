package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rebeliceyang/lazyscores/internal/browser"
	"github.com/rebeliceyang/lazyscores/internal/export"
)

func newExportCmd(v *viper.Viper, flags *scopeFlags) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch one page of a view and write it as CSV or JSON",
		Long:  "Opens the view given by --view or --saved without the TUI, fetches its current page and writes the visible columns to --out or stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			e, err := openEnv(v, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			b, err := newBrowser(e, flags)
			if err != nil {
				return err
			}
			source, closePool, err := openSource(cmd.Context(), e)
			if err != nil {
				return err
			}
			defer closePool()

			return runExport(cmd, b, source, f, out)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format (csv, json)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")

	return cmd
}

// runExport loads the browser's current page from source and writes it
func runExport(cmd *cobra.Command, b *browser.Browser, source browser.RecordSource, format export.Format, out string) error {
	if err := b.Load(cmd.Context(), source); err != nil {
		return fmt.Errorf("fetch scores: %w", err)
	}
	rows := b.State().Rows

	if out == "" {
		return export.Write(cmd.OutOrStdout(), format, b.VisibleColumns(), rows)
	}
	if err := export.ToFile(out, format, b.VisibleColumns(), rows); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d rows to %s\n", len(rows), out)
	return nil
}
