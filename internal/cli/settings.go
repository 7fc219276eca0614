package cli

import (
	"fmt"
	"strings"

	"sheetdesk-cli/internal/model"

	"github.com/spf13/cobra"
)

func newSettingsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change global transfer settings",
	}
	cmd.AddCommand(newSettingsShowCmd(app))
	cmd.AddCommand(newSettingsSetCmd(app))
	return cmd
}

func newSettingsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current global settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(app)
			snap, err := client.FetchConfig(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": snap.GlobalSettings})
		},
	}
}

func newSettingsSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <transfer-destination>",
		Short: "Replace the global settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := strings.TrimSpace(args[0])
			if dest == "" {
				return writeErr(cmd, fmt.Errorf("transfer destination cannot be empty"))
			}
			client := newAPIClient(app)
			saved, err := client.UpdateGlobalSettings(cmd.Context(), model.GlobalSettings{TransferDestination: dest})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": saved})
		},
	}
}
