package console

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// styles degrade to plain text when out is not a terminal.
type styles struct {
	title lipgloss.Style
	label lipgloss.Style
	faint lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		label: r.NewStyle().Foreground(lipgloss.Color("241")),
		faint: r.NewStyle().Faint(true),
		ok:    r.NewStyle().Foreground(lipgloss.Color("42")),
		err:   r.NewStyle().Foreground(lipgloss.Color("160")),
	}
}
