// cmd/dreamctl/export.go
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/akashia/dreambank/internal/models"
	"github.com/akashia/dreambank/internal/services"
	"github.com/akashia/dreambank/internal/storage"
)

type exportOptions struct {
	format string
	out    string
}

func newExportCmd(root *rootOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored submissions as CSV or JSON",
		Long: `Write every stored submission as CSV or JSON.

With --out the export goes to that file ("-" for stdout). Without it a
timestamped snapshot is written to the exports directory under the data
directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", models.ExportFormatCSV, "export format: csv or json")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", `output file, "-" for stdout`)

	return cmd
}

func runExport(cmd *cobra.Command, root *rootOptions, opts *exportOptions) error {
	format := strings.ToLower(strings.TrimSpace(opts.format))
	if format != models.ExportFormatCSV && format != models.ExportFormatJSON {
		return fmt.Errorf("unsupported export format %q (want csv or json)", opts.format)
	}

	cfg, store, err := root.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	exporter := services.NewExportService(store, cfg.DataDir)
	out := cmd.OutOrStdout()

	if opts.out == "" {
		result, err := exporter.Snapshot(cmd.Context(), format)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s rows (%s) to %s\n",
			humanize.Comma(int64(result.Rows)), humanize.Bytes(uint64(result.FileSize)), result.FilePath)
		return nil
	}

	records, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	if opts.out == "-" {
		return exporter.Write(out, format, records)
	}
	if err := storage.WriteFileAtomic(opts.out, func(w io.Writer) error {
		return exporter.Write(w, format, records)
	}); err != nil {
		return fmt.Errorf("write %s: %w", opts.out, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s rows to %s\n", humanize.Comma(int64(len(records))), opts.out)
	return nil
}
