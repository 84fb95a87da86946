package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorNode     = lipgloss.Color("#367AFF") // node fill of the default theme
	colorSelected = lipgloss.Color("#FFD700")
	colorTextSub  = lipgloss.Color("#808080")
	colorDanger   = lipgloss.Color("#FF0055")
	colorWarning  = lipgloss.Color("#F59E0B")

	titleStyle = lipgloss.NewStyle().
			Foreground(colorNode).
			Bold(true).
			Padding(0, 1)

	canvasStyle = lipgloss.NewStyle().Foreground(colorNode)

	selectedStyle = lipgloss.NewStyle().Foreground(colorSelected).Bold(true)
	subtle        = lipgloss.NewStyle().Foreground(colorTextSub)
	danger        = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	warning       = lipgloss.NewStyle().Foreground(colorWarning)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorTextSub).
			Padding(1, 2).
			Margin(1, 1)
)

func helpStyle(s string) string {
	return subtle.Render(s)
}
