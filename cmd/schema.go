package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"changectl/internal/bootstrap"
	"changectl/internal/bootstrap/logging"
	"changectl/internal/errs"
	"changectl/internal/usecase/request"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the live requests table schema",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *request.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		columns, err := svc.Columns(ctx)
		if err != nil {
			logging.Error(ctx, "inspect schema failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "inspect schema")
		}

		for _, column := range columns {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", column.Name, column.Type); err != nil {
				return errs.Wrap(err, "write schema output")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
