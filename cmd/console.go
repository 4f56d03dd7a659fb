package cmd

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"changectl/internal/bootstrap"
	"changectl/internal/bootstrap/logging"
	"changectl/internal/errs"
	"changectl/internal/usecase/adminconsole"
	"changectl/internal/usecase/request"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the interactive change request review console",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *request.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		status, _ := cmd.Flags().GetString("status")
		department, _ := cmd.Flags().GetString("department")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")
		if refreshInterval <= 0 {
			refreshInterval = 5 * time.Second
		}

		model := adminconsole.NewModel(ctx, svc, adminconsole.Options{
			StatusFilter:    status,
			Department:      department,
			RefreshInterval: refreshInterval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run console")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(consoleCmd)

	consoleCmd.Flags().String("status", "", "Filter by status (Pending|Rejected|Implemented)")
	consoleCmd.Flags().String("department", "", "Filter by department")
	consoleCmd.Flags().Duration("refresh-interval", 5*time.Second, "Auto refresh interval")
}
