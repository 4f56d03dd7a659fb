package cmd

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"changectl/internal/bootstrap"
	"changectl/internal/bootstrap/logging"
	"changectl/internal/errs"
	"changectl/internal/usecase/request"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export change requests as CSV",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *request.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		status, _ := cmd.Flags().GetString("status")
		department, _ := cmd.Flags().GetString("department")
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		outPath, _ := cmd.Flags().GetString("out")

		payload, err := svc.ExportCSV(ctx, request.Filter{
			Status:        status,
			Department:    department,
			SubmittedFrom: from,
			SubmittedTo:   to,
		})
		if err != nil {
			logging.Error(ctx, "export failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "export change requests")
		}

		writer, closeFn, err := resolveExportWriter(cmd, outPath)
		if err != nil {
			return err
		}

		if _, err := writer.Write(payload); err != nil {
			_ = closeFn()
			return errs.Wrap(err, "write export output")
		}
		if err := closeFn(); err != nil {
			return errs.Wrap(err, "close export output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("status", "", "Filter by status (Pending|Rejected|Implemented)")
	exportCmd.Flags().String("department", "", "Filter by department")
	exportCmd.Flags().String("from", "", "Filter submitted date >= this day (YYYY-MM-DD)")
	exportCmd.Flags().String("to", "", "Filter submitted date <= this day (YYYY-MM-DD)")
	exportCmd.Flags().String("out", "", "Output file path (default: stdout)")
}

func resolveExportWriter(cmd *cobra.Command, outPath string) (io.Writer, func() error, error) {
	trimmed := strings.TrimSpace(outPath)
	if trimmed == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	f, err := os.Create(trimmed)
	if err != nil {
		return nil, nil, errs.Wrapf(err, "open output file %q", trimmed)
	}
	return f, f.Close, nil
}
