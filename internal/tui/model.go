// Package tui is the live terminal view of a running airlift simulation.
// It polls the shared flight record on a timer and tails the event bus, so
// the actors never wait on the screen.
package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Iron-Ham/airlift/internal/flight"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultRefresh is how often the view re-reads the flight record.
const DefaultRefresh = 50 * time.Millisecond

// passengersPerRow wraps the passenger grid.
const passengersPerRow = 10

// Source yields consistent copies of the flight record. *flight.Shared
// satisfies it.
type Source interface {
	Snapshot() (flight.State, error)
}

// Finisher ends the run gracefully at the next cycle boundary.
type Finisher interface {
	Finish() error
}

// Outcome is how the run ended, delivered once on Options.Done.
type Outcome struct {
	Flights     int
	Transported int
	TurnedAway  int
	Err         error
}

// Options wires the view to one simulation.
type Options struct {
	Source   Source
	Feed     *Feed
	Finisher Finisher
	// Abort cancels the run without waiting for the flight in progress.
	Abort func()
	Done  <-chan Outcome

	Passengers int
	Capacity   int
	Refresh    time.Duration
}

type tickMsg time.Time

type doneMsg Outcome

// Model is the bubbletea model of the live view.
type Model struct {
	opts    Options
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	state     flight.State
	haveState bool
	lines     []string

	finishing bool
	aborted   bool
	done      bool
	outcome   Outcome
	err       error
	width     int
}

// NewModel creates the live view model.
func NewModel(opts Options) Model {
	if opts.Refresh <= 0 {
		opts.Refresh = DefaultRefresh
	}
	if opts.Abort == nil {
		opts.Abort = func() {}
	}
	return Model{
		opts: opts,
		keys: defaultKeyMap(),
		help: help.New(),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(primaryColor)),
		),
	}
}

// Init starts the spinner, the refresh timer and the wait for the outcome.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick(m.opts.Refresh), waitForDone(m.opts.Done))
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func waitForDone(ch <-chan Outcome) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		return doneMsg(<-ch)
	}
}

// Update handles keys, timer ticks and the end of the run.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.refresh()
		if m.done {
			return m, nil
		}
		return m, tick(m.opts.Refresh)

	case doneMsg:
		m.done = true
		m.outcome = Outcome(msg)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Stop):
		switch {
		case m.done:
			return m, tea.Quit
		case !m.finishing:
			m.finishing = true
			if err := m.opts.Finisher.Finish(); err != nil {
				m.err = err
				m.aborted = true
				m.opts.Abort()
			}
		default:
			// Second request while the last flight is still in progress
			m.aborted = true
			m.opts.Abort()
		}
	case key.Matches(msg, m.keys.Abort):
		if !m.done {
			m.aborted = true
			m.opts.Abort()
		}
	}
	return m, nil
}

// refresh copies the latest record and event lines into the model. Once
// the run is over the record is torn down and the last copy is kept.
func (m *Model) refresh() {
	if m.opts.Source != nil {
		if st, err := m.opts.Source.Snapshot(); err == nil {
			m.state = st
			m.haveState = true
		}
	}
	if m.opts.Feed != nil {
		m.lines = m.opts.Feed.Lines()
	}
}

// View renders the live view.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Airlift"))
	sb.WriteString("  ")
	sb.WriteString(m.status())
	sb.WriteString("\n\n")

	if m.haveState {
		sb.WriteString(panelStyle.Render(m.crewView() + "\n\n" + m.passengerGrid()))
		sb.WriteString("\n")
	} else {
		sb.WriteString(mutedStyle.Render("waiting for the first state change..."))
		sb.WriteString("\n")
	}

	if len(m.lines) > 0 {
		sb.WriteString("\n")
		for _, line := range m.lines {
			sb.WriteString(mutedStyle.Render(line))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	if m.done {
		sb.WriteString(mutedStyle.Render("q: quit"))
	} else {
		sb.WriteString(m.help.View(m.keys))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) status() string {
	switch {
	case m.done && m.outcome.Err != nil:
		return errorStyle.Render("aborted: " + m.outcome.Err.Error())
	case m.done:
		return doneStyle.Render(fmt.Sprintf("finished: %d/%d transported in %d flights",
			m.outcome.Transported, m.opts.Passengers, m.outcome.Flights))
	case m.err != nil:
		return errorStyle.Render("finish failed: " + m.err.Error())
	case m.aborted:
		return errorStyle.Render(m.spinner.View() + " aborting")
	case m.finishing:
		return warnStyle.Render(m.spinner.View() + " finishing after this flight")
	default:
		return m.spinner.View() + " running"
	}
}

func (m Model) crewView() string {
	st := m.state
	row := func(label, value string) string {
		return labelStyle.Render(label) + value
	}

	queue := mutedStyle.Render("empty")
	if len(st.Queue) > 0 {
		ids := make([]string, len(st.Queue))
		for i, id := range st.Queue {
			ids[i] = strconv.Itoa(id)
		}
		queue = strings.Join(ids, " ")
	}

	lines := []string{
		row("Pilot", st.Pilot.String()),
		row("Hostess", st.Hostess.String()),
		row("Flight", strconv.Itoa(st.FlightNumber)),
		row("Boarded", fmt.Sprintf("%d/%d", st.Boarded, m.opts.Capacity)),
		row("In flight", strconv.Itoa(st.InFlight)),
		row("Queue", queue),
		row("Transported", fmt.Sprintf("%d/%d", st.Transported, len(st.Passengers))),
	}
	if st.Finished {
		lines = append(lines, row("", warnStyle.Render("finished flag set")))
	}
	return strings.Join(lines, "\n")
}

func (m Model) passengerGrid() string {
	var rows []string
	var cells []string
	for id, p := range m.state.Passengers {
		cells = append(cells, passengerStyle(p).Render(fmt.Sprintf("%02d:%s", id, p.Code())))
		if len(cells) == passengersPerRow {
			rows = append(rows, strings.Join(cells, " "))
			cells = nil
		}
	}
	if len(cells) > 0 {
		rows = append(rows, strings.Join(cells, " "))
	}
	return strings.Join(rows, "\n")
}
