package tui

import (
	"fmt"
	"strings"

	"sheetdesk-cli/internal/model"
	"sheetdesk-cli/internal/push"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.configs.SetSize(msg.Width, listHeight(msg.Height))
		return m, nil

	case tea.FocusMsg:
		// The terminal regained focus; re-arm the push channel in case it
		// dropped while the app was backgrounded.
		if m.resumePush != nil {
			m.resumePush()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case flashDoneMsg:
		if msg.seq == m.flashSeq {
			m.flashText = ""
			m.flashKind = ""
		}
		return m, nil

	case configLoadedMsg:
		m.busy--
		if msg.err != nil {
			// Keep whatever cache we had; stale beats empty.
			return m, m.flash("error", fmt.Sprintf("Load failed: %v", msg.err))
		}
		m.cache.ReplaceAll(msg.snap)
		m.refreshConfigs()
		return m, nil

	case settingsSavedMsg:
		m.busy--
		if msg.err != nil {
			return m, m.flash("error", fmt.Sprintf("Saving settings failed: %v", msg.err))
		}
		m.cache.SetGlobalSettings(msg.settings)
		if m.modal == modalSettingsForm {
			m.closeModal()
		}
		return m, m.flash("", "Settings saved")

	case sheetSavedMsg:
		m.busy--
		if msg.err != nil {
			// Leave the form open so the input survives the failure.
			return m, m.flash("error", fmt.Sprintf("Save failed: %v", msg.err))
		}
		if msg.created {
			m.cache.Append(msg.cfg)
		} else {
			m.cache.Replace(msg.cfg.SheetID, msg.cfg)
		}
		m.refreshConfigs()
		if m.modal == modalSheetForm {
			m.closeModal()
		}
		verb := "Updated"
		if msg.created {
			verb = "Added"
		}
		return m, m.flash("", fmt.Sprintf("%s %q", verb, msg.cfg.SheetName))

	case sheetDeletedMsg:
		m.busy--
		if msg.err != nil {
			return m, m.flash("error", fmt.Sprintf("Delete failed: %v", msg.err))
		}
		name := msg.id
		if cfg, ok := m.cache.Get(msg.id); ok {
			name = cfg.SheetName
		}
		m.cache.Remove(msg.id)
		m.refreshConfigs()
		return m, m.flash("", fmt.Sprintf("Deleted %q", name))

	case pushEventMsg:
		return m.updatePushEvent(msg.ev)

	case pushStateMsg:
		m.pushState = msg.state
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}

	return m, nil
}

func (m appModel) updatePushEvent(ev push.Event) (tea.Model, tea.Cmd) {
	switch ev.Type {
	case push.EventConfigUpdated:
		// Invalidate by reloading wholesale; one fetch per notification.
		m.busy++
		flashCmd := m.flash("", "Configuration changed on the server; reloading")
		return m, tea.Batch(m.loadConfigCmd(), flashCmd)
	case push.EventDataProcessed:
		sheet := ev.SheetName
		if sheet == "" {
			sheet = "(unnamed sheet)"
		}
		return m, m.flash("", fmt.Sprintf("Data processed for %q", sheet))
	}
	return m, nil
}

func (m appModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalHelp:
		switch msg.String() {
		case "esc", "q", "?", "ctrl+g":
			m.modal = modalNone
		}
		return m, nil
	case modalConfirmDelete:
		return m.updateConfirmDeleteKey(msg)
	case modalSheetForm:
		return m.updateSheetFormKey(msg)
	case modalSettingsForm:
		return m.updateSettingsFormKey(msg)
	}
	return m.updateListKey(msg)
}

func (m appModel) updateListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While the filter prompt is active the list owns every key.
	if m.configs.SettingFilter() {
		var cmd tea.Cmd
		m.configs, cmd = m.configs.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "a":
		m.openSheetForm("")
		return m, nil

	case "enter", "e":
		it, ok := m.configs.SelectedItem().(sheetItem)
		if !ok {
			return m, nil
		}
		if it.cfg.Legacy() {
			return m, m.flash("error", "This entry predates server ids; re-create it to edit")
		}
		m.openSheetForm(it.cfg.SheetID)
		return m, nil

	case "d":
		it, ok := m.configs.SelectedItem().(sheetItem)
		if !ok {
			return m, nil
		}
		if it.cfg.Legacy() {
			return m, m.flash("error", "This entry predates server ids; re-create it to delete")
		}
		if !m.confirmDelete {
			m.busy++
			return m, m.deleteSheetCmd(it.cfg.SheetID)
		}
		m.deleteTargetID = it.cfg.SheetID
		m.deleteTargetName = it.cfg.SheetName
		m.confirmFocus = confirmFocusCancel
		m.modal = modalConfirmDelete
		return m, nil

	case "g":
		m.settingsInput.SetValue(m.cache.GlobalSettings().TransferDestination)
		m.settingsInput.Focus()
		m.modal = modalSettingsForm
		return m, nil

	case "r":
		m.busy++
		return m, m.loadConfigCmd()

	case "?":
		m.modal = modalHelp
		return m, nil
	}

	var cmd tea.Cmd
	m.configs, cmd = m.configs.Update(msg)
	return m, cmd
}

func (m appModel) updateConfirmDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+g", "n":
		m.modal = modalNone
		m.deleteTargetID = ""
		return m, nil
	case "tab", "shift+tab", "left", "right":
		if m.confirmFocus == confirmFocusConfirm {
			m.confirmFocus = confirmFocusCancel
		} else {
			m.confirmFocus = confirmFocusConfirm
		}
		return m, nil
	case "y":
		return m.applyConfirmedDelete()
	case "enter":
		if m.confirmFocus == confirmFocusConfirm {
			return m.applyConfirmedDelete()
		}
		m.modal = modalNone
		m.deleteTargetID = ""
		return m, nil
	}
	return m, nil
}

func (m appModel) applyConfirmedDelete() (tea.Model, tea.Cmd) {
	id := m.deleteTargetID
	m.modal = modalNone
	m.deleteTargetID = ""
	if id == "" {
		return m, nil
	}
	m.busy++
	return m, m.deleteSheetCmd(id)
}

func (m appModel) updateSheetFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+g":
		m.closeModal()
		return m, nil

	case "tab", "down":
		m.focusField((m.fieldFocus + 1) % fieldCount)
		return m, nil

	case "shift+tab", "up":
		m.focusField((m.fieldFocus + fieldCount - 1) % fieldCount)
		return m, nil

	case "enter":
		if m.fieldFocus < fieldCount-1 {
			m.focusField(m.fieldFocus + 1)
			return m, nil
		}
		return m.submitSheetForm()

	case "ctrl+s":
		return m.submitSheetForm()
	}

	var cmd tea.Cmd
	m.fieldInputs[m.fieldFocus], cmd = m.fieldInputs[m.fieldFocus].Update(msg)
	return m, cmd
}

func (m *appModel) focusField(idx int) {
	m.fieldInputs[m.fieldFocus].Blur()
	m.fieldFocus = idx
	m.fieldInputs[m.fieldFocus].Focus()
}

func (m appModel) submitSheetForm() (tea.Model, tea.Cmd) {
	cfg := m.sheetFromForm()
	if err := cfg.Validate(); err != nil {
		return m, m.flash("error", err.Error())
	}
	m.busy++
	return m, m.saveSheetCmd(cfg)
}

func (m appModel) updateSettingsFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+g":
		m.closeModal()
		return m, nil

	case "enter", "ctrl+s":
		dest := strings.TrimSpace(m.settingsInput.Value())
		if dest == "" {
			return m, m.flash("error", "Transfer destination cannot be empty")
		}
		m.busy++
		return m, m.saveSettingsCmd(model.GlobalSettings{TransferDestination: dest})
	}

	var cmd tea.Cmd
	m.settingsInput, cmd = m.settingsInput.Update(msg)
	return m, cmd
}
