package tui

import (
	"strings"

	"sheetdesk-cli/internal/model"

	"github.com/charmbracelet/bubbles/list"
)

type sheetItem struct {
	cfg model.SheetConfig
}

func (i sheetItem) FilterValue() string { return i.cfg.SheetName }

func (i sheetItem) Title() string {
	name := strings.TrimSpace(i.cfg.SheetName)
	if name == "" {
		name = "(unnamed sheet)"
	}
	if i.cfg.Legacy() {
		return name + " (legacy)"
	}
	return name
}

func (i sheetItem) Description() string {
	parts := []string{}
	if bank := strings.TrimSpace(i.cfg.BankDestination); bank != "" {
		parts = append(parts, "→ "+bank)
	}
	if ids := strings.TrimSpace(i.cfg.SpreadsheetIDs); ids != "" {
		parts = append(parts, ids)
	}
	if len(parts) == 0 {
		return i.cfg.SheetID
	}
	return strings.Join(parts, "  ")
}

func newList(title, help string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	// The app renders its own header and footer; keep list chrome minimal.
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("config", "configs")
	// The list defaults to quitting on ESC; here ESC means cancel.
	l.KeyMap.Quit.SetKeys("q")
	// Emacs-style navigation aliases.
	cursorUpKeys := append([]string{}, l.KeyMap.CursorUp.Keys()...)
	cursorUpKeys = append(cursorUpKeys, "ctrl+p")
	l.KeyMap.CursorUp.SetKeys(cursorUpKeys...)

	cursorDownKeys := append([]string{}, l.KeyMap.CursorDown.Keys()...)
	cursorDownKeys = append(cursorDownKeys, "ctrl+n")
	l.KeyMap.CursorDown.SetKeys(cursorDownKeys...)
	return l
}
