package tui

import (
	"github.com/Iron-Ham/airlift/internal/flight"
	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor = lipgloss.Color("#A78BFA") // Purple
	greenColor   = lipgloss.Color("#10B981") // Green
	amberColor   = lipgloss.Color("#F59E0B") // Amber
	redColor     = lipgloss.Color("#F87171") // Red
	blueColor    = lipgloss.Color("#60A5FA") // Blue
	mutedColor   = lipgloss.Color("#9CA3AF") // Gray
	borderColor  = lipgloss.Color("#6B7280") // Gray

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	labelStyle = lipgloss.NewStyle().Foreground(mutedColor).Width(12)
	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle = lipgloss.NewStyle().Foreground(redColor).Bold(true)
	doneStyle  = lipgloss.NewStyle().Foreground(greenColor).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(amberColor)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)
)

// passengerColors gives each passenger phase its own color in the grid.
var passengerColors = map[flight.PassengerPhase]lipgloss.Color{
	flight.GoingToAirport: mutedColor,
	flight.InQueue:        amberColor,
	flight.InFlight:       blueColor,
	flight.AtDestination:  greenColor,
	flight.TurnedAway:     redColor,
}

func passengerStyle(p flight.PassengerPhase) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(passengerColors[p])
}
