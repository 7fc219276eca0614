package tui

import (
	"log/slog"

	"sheetdesk-cli/internal/api"
	"sheetdesk-cli/internal/push"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	ServerURL     string
	ConfirmDelete bool
	Logger        *slog.Logger
}

// Run starts the interactive admin panel and blocks until the user quits.
func Run(opts Options) error {
	applyColorProfilePreference()
	applyThemePreference()

	client := api.NewClient(opts.ServerURL)
	m := newAppModel(client, opts.ServerURL, opts.ConfirmDelete)

	// The listener needs the program (to inject msgs) and the model needs
	// the listener (to resume on focus), so wire through a late-bound var.
	var listener *push.Listener
	m.resumePush = func() {
		if listener != nil {
			listener.Resume()
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus())

	listener = push.NewListener(opts.ServerURL, push.Handlers{
		ConfigUpdated: func() {
			p.Send(pushEventMsg{ev: push.Event{Type: push.EventConfigUpdated}})
		},
		DataProcessed: func(sheetName string) {
			p.Send(pushEventMsg{ev: push.Event{Type: push.EventDataProcessed, SheetName: sheetName}})
		},
		StateChange: func(s push.State) {
			p.Send(pushStateMsg{state: s})
		},
	}, opts.Logger)
	defer listener.Close()

	listener.Connect()

	_, err := p.Run()
	return err
}
