package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"sheetdesk-cli/internal/api"
	"sheetdesk-cli/internal/config"
	"sheetdesk-cli/internal/format"
	"sheetdesk-cli/internal/tui"

	"github.com/spf13/cobra"
)

const defaultServerURL = "http://localhost:8000"

type App struct {
	ServerURL string
	Pretty    bool
	Verbose   bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "sheetdesk",
		Short:        "Admin panel + CLI for spreadsheet-to-bank transfer configs",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive panel
  sheetdesk

  # Scriptable commands
  sheetdesk sheets list
  sheetdesk settings set "LAYER 2"

  # Follow server push events
  sheetdesk watch
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive panel.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.ServerURL, "server", envOr("SHEETDESK_SERVER", ""), "Backend base URL (default: config file, then "+defaultServerURL+")")
	cmd.PersistentFlags().BoolVar(&app.Pretty, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().BoolVar(&app.Verbose, "verbose", false, "Log request/connection details to stderr")

	cmd.AddCommand(newSettingsCmd(app))
	cmd.AddCommand(newSheetsCmd(app))
	cmd.AddCommand(newWatchCmd(app))
	cmd.AddCommand(newDemoCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// resolveServerURL picks the backend base URL.
//
// Priority:
// 1) --server / SHEETDESK_SERVER
// 2) serverUrl in ~/.sheetdesk/config.json
// 3) the local-dev default
func resolveServerURL(app *App) string {
	if app.ServerURL != "" {
		return app.ServerURL
	}
	if cfg, err := config.Load(); err == nil && strings.TrimSpace(cfg.ServerURL) != "" {
		return strings.TrimSpace(cfg.ServerURL)
	}
	return defaultServerURL
}

func newAPIClient(app *App) *api.Client {
	return api.NewClient(resolveServerURL(app))
}

func runTUI(app *App) error {
	confirmDelete := true
	if cfg, err := config.Load(); err == nil && cfg.TUI != nil && cfg.TUI.ConfirmDelete != nil {
		confirmDelete = *cfg.TUI.ConfirmDelete
	}
	return tui.Run(tui.Options{
		ServerURL:     resolveServerURL(app),
		ConfirmDelete: confirmDelete,
		Logger:        newLogger(app),
	})
}

// newLogger builds the stderr logger. Quiet by default so JSON output
// stays pipeable; --verbose turns on debug records.
func newLogger(app *App) *slog.Logger {
	level := slog.LevelWarn
	if app.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.WriteJSON(cmd.OutOrStdout(), v, app.Pretty)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
