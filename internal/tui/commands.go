package tui

import (
	"context"

	"sheetdesk-cli/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

// Commands run on their own goroutines; they must not touch the model.
// Each closes over the client and reports back via a typed msg.

func (m appModel) loadConfigCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		snap, err := client.FetchConfig(ctx)
		return configLoadedMsg{snap: snap, err: err}
	}
}

func (m appModel) saveSettingsCmd(gs model.GlobalSettings) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		saved, err := client.UpdateGlobalSettings(ctx, gs)
		return settingsSavedMsg{settings: saved, err: err}
	}
}

func (m appModel) saveSheetCmd(cfg model.SheetConfig) tea.Cmd {
	client := m.client
	id := cfg.SheetID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if id == "" {
			saved, err := client.AddSheetConfig(ctx, cfg)
			return sheetSavedMsg{cfg: saved, created: true, err: err}
		}
		saved, err := client.UpdateSheetConfig(ctx, id, cfg)
		return sheetSavedMsg{cfg: saved, err: err}
	}
}

func (m appModel) deleteSheetCmd(id string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := client.DeleteSheetConfig(ctx, id)
		return sheetDeletedMsg{id: id, err: err}
	}
}
