package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
)

var (
	primaryColor = lipgloss.Color("#A78BFA") // Purple
	successColor = lipgloss.Color("#10B981") // Green
	warningColor = lipgloss.Color("#F59E0B") // Amber
	mutedColor   = lipgloss.Color("#9CA3AF") // Gray
	borderColor  = lipgloss.Color("#6B7280") // Gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	labelStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	lastStyle    = lipgloss.NewStyle().Padding(0, 1).Foreground(warningColor)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
)

// Summary is everything printed at the end of a run.
type Summary struct {
	RunID       string
	Seed        uint64
	Passengers  int
	Capacity    int
	Elapsed     time.Duration
	Transported int
	TurnedAway  int
	Flights     []FlightStats
}

// IsTerminal reports whether f is attached to a terminal, in which case the
// summary is rendered with colors.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Render writes the summary to w. When styled is false every ANSI escape is
// stripped so the output is safe for files and pipes.
func Render(w io.Writer, s Summary, styled bool) error {
	out := render(s)
	if !styled {
		out = ansi.Strip(out)
	}
	_, err := io.WriteString(w, out)
	return err
}

func render(s Summary) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Airlift summary"))
	sb.WriteString("\n")

	field := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", label)))
		sb.WriteString(value)
		sb.WriteString("\n")
	}
	field("Run", s.RunID)
	field("Seed", strconv.FormatUint(s.Seed, 10))
	field("Capacity", strconv.Itoa(s.Capacity))
	field("Flights", strconv.Itoa(len(s.Flights)))
	field("Elapsed", s.Elapsed.Round(time.Microsecond).String())

	transported := fmt.Sprintf("%d/%d", s.Transported, s.Passengers)
	if s.Transported == s.Passengers {
		transported = successStyle.Render(transported)
	}
	field("Transported", transported)
	if s.TurnedAway > 0 {
		field("Turned away", warningStyle.Render(strconv.Itoa(s.TurnedAway)))
	}

	if len(s.Flights) > 0 {
		sb.WriteString("\n")
		sb.WriteString(flightTable(s.Flights))
		sb.WriteString("\n")
	}
	return sb.String()
}

func flightTable(flights []FlightStats) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers("Flight", "Boarded", "Left", "Leg", "Note")

	for _, fs := range flights {
		note := ""
		switch {
		case fs.Last:
			note = "last"
		case fs.Boarded == 0:
			note = "empty"
		}
		t.Row(
			strconv.Itoa(fs.Flight),
			strconv.Itoa(fs.Boarded),
			strconv.Itoa(fs.Left),
			fs.Leg.Round(time.Microsecond).String(),
			note,
		)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if row >= 0 && row < len(flights) && flights[row].Last {
			return lastStyle
		}
		return cellStyle
	})
	return t.Render()
}
