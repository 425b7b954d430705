package browser

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#3b82f6")
	colorMuted   = lipgloss.Color("#6b7280")
	colorError   = lipgloss.Color("#ef4444")
	colorSuccess = lipgloss.Color("#22c55e")
	colorWarn    = lipgloss.Color("#f59e0b")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError)
	okStyle     = lipgloss.NewStyle().Foreground(colorSuccess)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarn)

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(colorMuted).
			PaddingRight(1)
	columnTitleStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	focusedTitleStyle  = columnTitleStyle.Foreground(colorAccent)
	cursorStyle        = lipgloss.NewStyle().Reverse(true)
	selectedStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	dialogStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(1, 2)
	detailsStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorMuted).Padding(0, 1)
	disconnectedBanner = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorError).Padding(1, 3)
)

// tagStyle renders a tag chip in the tag's own color.
func tagStyle(color string) lipgloss.Style {
	if color == "" {
		color = string(colorAccent)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}
