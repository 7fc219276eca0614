package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Modal chrome is built from stacked background-filled blocks instead of
// borders; bordered components nested inside a background-colored modal show
// artifacts in some terminals.

func modalWidth(termW int) int {
	w := termW - 8
	if w > 64 {
		w = 64
	}
	if w < 30 {
		w = 30
	}
	return w
}

// modalBodyWidth is the usable content width inside the modal padding.
func modalBodyWidth(termW int) int {
	return modalWidth(termW) - 4
}

func renderModalBox(termW int, title, content string) string {
	w := modalWidth(termW)
	header := lipgloss.NewStyle().
		Bold(true).
		Width(w).
		Padding(0, 2).
		Background(colorControlBg).
		Foreground(colorSurfaceFg).
		Render(title)
	body := lipgloss.NewStyle().
		Width(w).
		Padding(1, 2).
		Background(colorSurfaceBg).
		Foreground(colorSurfaceFg).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

func placeCentered(termW, termH int, box string) string {
	return lipgloss.Place(termW, termH, lipgloss.Center, lipgloss.Center, box)
}
