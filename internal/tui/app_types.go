package tui

import (
	"sheetdesk-cli/internal/model"
	"sheetdesk-cli/internal/push"
)

// modal identifies which overlay (if any) owns the keyboard.
type modal int

const (
	modalNone modal = iota
	modalSheetForm
	modalSettingsForm
	modalConfirmDelete
	modalHelp
)

type confirmModalFocus int

const (
	confirmFocusConfirm confirmModalFocus = iota
	confirmFocusCancel
)

// configLoadedMsg carries the result of a wholesale GET of the server
// configuration. On error the previous cache stays in place.
type configLoadedMsg struct {
	snap model.ConfigSnapshot
	err  error
}

type settingsSavedMsg struct {
	settings model.GlobalSettings
	err      error
}

// sheetSavedMsg carries the server-canonical record after a create or
// update; the server may have normalized fields, so its copy wins.
type sheetSavedMsg struct {
	cfg     model.SheetConfig
	created bool
	err     error
}

type sheetDeletedMsg struct {
	id  string
	err error
}

// pushEventMsg wraps a server push notification into the bubbletea loop.
type pushEventMsg struct{ ev push.Event }

type pushStateMsg struct{ state push.State }

type flashDoneMsg struct{ seq int }
