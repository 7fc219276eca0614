package tui

import (
	"fmt"
	"strings"

	"sheetdesk-cli/internal/docs"

	"github.com/charmbracelet/lipgloss"
)

// listHeight reserves rows for the header, settings line and footer.
func listHeight(termH int) int {
	h := termH - 5
	if h < 3 {
		h = 3
	}
	return h
}

func (m appModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.modal {
	case modalSheetForm:
		return placeCentered(m.width, m.height, m.renderSheetForm())
	case modalSettingsForm:
		return placeCentered(m.width, m.height, m.renderSettingsForm())
	case modalConfirmDelete:
		body := fmt.Sprintf("Delete the configuration for %q?\nThis cannot be undone from here.", m.deleteTargetName)
		box := renderConfirmModal(m.width, "Delete sheet config", body, "Delete", "Cancel", m.confirmFocus)
		return placeCentered(m.width, m.height, box)
	case modalHelp:
		return m.renderHelp()
	}

	header := lipgloss.NewStyle().Bold(true).Render("Sheetdesk") +
		styleMuted().Render("  "+m.serverURL)

	settings := styleMuted().Render("Transfer destination: ") +
		lipgloss.NewStyle().Foreground(colorAccent).Render(m.cache.GlobalSettings().TransferDestination)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		settings,
		"",
		m.configs.View(),
		m.renderFooter(),
	)
}

func (m appModel) renderFooter() string {
	var left string
	switch {
	case m.flashText != "" && m.flashKind == "error":
		left = lipgloss.NewStyle().Foreground(colorErrorFg).Render(m.flashText)
	case m.flashText != "":
		left = lipgloss.NewStyle().Foreground(colorOKFg).Render(m.flashText)
	default:
		left = styleMuted().Render("a add  enter edit  d delete  g settings  r reload  / filter  ? help  q quit")
	}

	right := styleMuted().Render(m.pushState.String())
	if m.busy > 0 {
		right = m.spin.View() + " " + right
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m appModel) renderHelp() string {
	src, ok := docs.Get("keys")
	if !ok {
		src = "No help available."
	}
	body := renderMarkdown(src, min(m.width-4, 78))
	footer := styleMuted().Render("esc/q: close")
	return lipgloss.JoinVertical(lipgloss.Left, body, "", footer)
}
