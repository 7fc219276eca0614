package cli

import (
	"bufio"
	"fmt"
	"strings"

	"sheetdesk-cli/internal/model"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newSheetsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Manage per-sheet transfer configurations",
	}
	cmd.AddCommand(newSheetsListCmd(app))
	cmd.AddCommand(newSheetsShowCmd(app))
	cmd.AddCommand(newSheetsAddCmd(app))
	cmd.AddCommand(newSheetsUpdateCmd(app))
	cmd.AddCommand(newSheetsDeleteCmd(app))
	return cmd
}

// sheetFieldFlags binds the writable SheetConfig fields to flags, shared by
// add and update.
func sheetFieldFlags(fs *pflag.FlagSet, cfg *model.SheetConfig) {
	fs.StringVar(&cfg.SheetName, "name", cfg.SheetName, "Sheet name (unique per server)")
	fs.StringVar(&cfg.SpreadsheetIDs, "spreadsheet-ids", cfg.SpreadsheetIDs, "Comma-separated spreadsheet ids")
	fs.StringVar(&cfg.BankDestination, "bank-destination", cfg.BankDestination, "Destination bank account number")
	fs.StringVar(&cfg.BankNameDestination, "bank-name", cfg.BankNameDestination, "Destination bank account holder name")
	fs.StringVar(&cfg.DanaUsed, "dana-used", cfg.DanaUsed, "Whether the Dana wallet is used (yes/no)")
}

func newSheetsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all sheet configurations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(app)
			snap, err := client.FetchConfig(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": snap.SheetConfigs})
		},
	}
}

func newSheetsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <sheet-id>",
		Short: "Show one sheet configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(app)
			snap, err := client.FetchConfig(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			for _, cfg := range snap.SheetConfigs {
				if cfg.SheetID == args[0] {
					return writeOut(cmd, app, map[string]any{"data": cfg})
				}
			}
			return writeErr(cmd, fmt.Errorf("sheet config not found: %s", args[0]))
		},
	}
}

func newSheetsAddCmd(app *App) *cobra.Command {
	var cfg model.SheetConfig

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a sheet configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return writeErr(cmd, err)
			}
			client := newAPIClient(app)
			saved, err := client.AddSheetConfig(cmd.Context(), cfg)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": saved})
		},
	}
	sheetFieldFlags(cmd.Flags(), &cfg)
	return cmd
}

func newSheetsUpdateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <sheet-id>",
		Short: "Update a sheet configuration (unset flags keep current values)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			client := newAPIClient(app)

			// Start from the server's view so unset flags keep their values.
			snap, err := client.FetchConfig(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			var cfg model.SheetConfig
			found := false
			for _, c := range snap.SheetConfigs {
				if c.SheetID == id {
					cfg = c
					found = true
					break
				}
			}
			if !found {
				return writeErr(cmd, fmt.Errorf("sheet config not found: %s", id))
			}

			applySheetFlag(cmd, "name", &cfg.SheetName)
			applySheetFlag(cmd, "spreadsheet-ids", &cfg.SpreadsheetIDs)
			applySheetFlag(cmd, "bank-destination", &cfg.BankDestination)
			applySheetFlag(cmd, "bank-name", &cfg.BankNameDestination)
			applySheetFlag(cmd, "dana-used", &cfg.DanaUsed)

			if err := cfg.Validate(); err != nil {
				return writeErr(cmd, err)
			}
			saved, err := client.UpdateSheetConfig(cmd.Context(), id, cfg)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": saved})
		},
	}
	// Declared without a target struct so current values can be overlaid at
	// run time.
	var scratch model.SheetConfig
	sheetFieldFlags(cmd.Flags(), &scratch)
	return cmd
}

func applySheetFlag(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		*dst = v
	}
}

func newSheetsDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <sheet-id>",
		Short: "Delete a sheet configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "Delete sheet config %s? [y/N] ", id)
				reader := bufio.NewReader(cmd.InOrStdin())
				line, _ := reader.ReadString('\n')
				switch strings.ToLower(strings.TrimSpace(line)) {
				case "y", "yes":
				default:
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}
			client := newAPIClient(app)
			if err := client.DeleteSheetConfig(cmd.Context(), id); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": id}})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	return cmd
}
