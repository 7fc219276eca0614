package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m appModel) renderSheetForm() string {
	bodyW := modalBodyWidth(m.width)

	var rows []string
	for i := range m.fieldInputs {
		label := fieldLabels[i]
		lbl := styleMuted().Render(label)
		if i == m.fieldFocus {
			lbl = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render(label)
		}
		rows = append(rows, lbl, renderInputLine(bodyW, m.fieldInputs[i].View()))
	}

	rows = append(rows, "",
		styleMuted().Width(bodyW).Render("tab: next field   enter: next/save   ctrl+s: save   esc/ctrl+g: cancel"))

	title := "Add sheet config"
	if m.editTargetID != "" {
		title = "Edit sheet config"
	}
	return renderModalBox(m.width, title, strings.Join(rows, "\n"))
}

func (m appModel) renderSettingsForm() string {
	bodyW := modalBodyWidth(m.width)

	rows := []string{
		lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("Transfer destination"),
		renderInputLine(bodyW, m.settingsInput.View()),
		"",
		styleMuted().Width(bodyW).Render("enter: save   esc/ctrl+g: cancel"),
	}
	return renderModalBox(m.width, "Global settings", strings.Join(rows, "\n"))
}
