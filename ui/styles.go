package ui

import "github.com/charmbracelet/lipgloss"

var (
	fuchsia   = lipgloss.Color("#EE6FF8")
	mintGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#89F0CB"}
	red       = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	yellow    = lipgloss.AdaptiveColor{Light: "#B38600", Dark: "#ECFD65"}
	subtle    = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}

	statusBarBg = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(fuchsia).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(subtle).
			Background(statusBarBg)

	backendStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#5A56E0")).
			Padding(0, 1)

	unavailableStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFDF5")).
				Background(red).
				Padding(0, 1)

	timeStyle     = lipgloss.NewStyle().Foreground(subtle)
	queuedStyle   = lipgloss.NewStyle().Foreground(mintGreen)
	droppedStyle  = lipgloss.NewStyle().Foreground(yellow)
	rejectedStyle = lipgloss.NewStyle().Foreground(red)
	sourceStyle   = lipgloss.NewStyle().Foreground(subtle).Italic(true)

	helpViewStyle = lipgloss.NewStyle().Padding(0, 1)
)
