package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette
var (
	ColorAccent  = lipgloss.Color("#7aa2f7")
	ColorRed     = lipgloss.Color("#f7768e")
	ColorGreen   = lipgloss.Color("#9ece6a")
	ColorYellow  = lipgloss.Color("#e0af68")
	ColorOrange  = lipgloss.Color("#ff9e64")
	ColorBorder  = lipgloss.Color("#3b4261")
	ColorTextDim = lipgloss.Color("#565f89")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent).
			Padding(0, 1)

	tileStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Bold(true).
			Padding(1, 2)

	heartRateStyle = lipgloss.NewStyle().Foreground(ColorRed)
	caloriesStyle  = lipgloss.NewStyle().Foreground(ColorOrange)

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1a1b26")).
			Background(ColorGreen).
			Padding(0, 2)

	stopButtonStyle = buttonStyle.Background(ColorRed)

	stateStyle = lipgloss.NewStyle().Foreground(ColorTextDim).Italic(true)
	busyStyle  = lipgloss.NewStyle().Foreground(ColorYellow)
)

// ConfigureColor disables colour output when noColor is set or NO_COLOR is
// present in the environment.
func ConfigureColor(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}
