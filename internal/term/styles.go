package term

import "github.com/charmbracelet/lipgloss"

var (
	green = lipgloss.Color("34")
	red   = lipgloss.Color("160")
	grey  = lipgloss.Color("245")

	titleStyle    = lipgloss.NewStyle().Foreground(grey)
	headingStyle  = lipgloss.NewStyle().Bold(true)
	subtitleStyle = lipgloss.NewStyle().Foreground(grey).MarginBottom(1)
	counterStyle  = lipgloss.NewStyle().Foreground(grey)
	messageStyle  = lipgloss.NewStyle().Foreground(red)
	bannerStyle   = lipgloss.NewStyle().Foreground(green).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(grey).MarginTop(1)

	completeMark = lipgloss.NewStyle().Foreground(green).Render("✓")
	errorMark    = lipgloss.NewStyle().Foreground(red).Bold(true).Render("!")

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			MarginTop(1).
			Background(lipgloss.Color("63")).
			Foreground(lipgloss.Color("231"))
	disabledButtonStyle = buttonStyle.
				Background(lipgloss.Color("238")).
				Foreground(grey)

	toastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(green).
			Padding(0, 1).
			MarginTop(1)
	errorToastStyle = toastStyle.BorderForeground(red)
)
