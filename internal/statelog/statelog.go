// Package statelog writes the airlift state log: a header followed by one
// fixed-width row per state change and a line per flight event. It is the
// persistence sink handed to flight.NewShared, so every write happens with
// the mutex gate held.
package statelog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Iron-Ham/airlift/internal/flight"
)

// Log appends rows to a named state log.
type Log struct {
	w          *bufio.Writer
	closer     io.Closer
	passengers int
	rows       int
}

// Create truncates (or creates) the file at path and writes the header.
func Create(path string, passengers int) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open state log: %w", err)
	}
	l, err := New(f, passengers)
	if err != nil {
		f.Close()
		return nil, err
	}
	l.closer = f
	return l, nil
}

// New writes the header to w and returns a Log appending to it.
func New(w io.Writer, passengers int) (*Log, error) {
	l := &Log{
		w:          bufio.NewWriter(w),
		passengers: passengers,
	}
	if err := l.writeHeader(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Log) writeHeader() error {
	var sb strings.Builder
	title := "Airlift - Description of the internal state"
	width := len(Columns(l.passengers))
	if pad := (width - len(title)) / 2; pad > 0 {
		sb.WriteString(strings.Repeat(" ", pad))
	}
	sb.WriteString(title)
	sb.WriteString("\n\n")
	sb.WriteString(Columns(l.passengers))
	sb.WriteString("\n")
	return l.write(sb.String())
}

// Columns returns the column header line for the given passenger count.
func Columns(passengers int) string {
	var sb strings.Builder
	sb.WriteString(" PT   HT  ")
	for i := 0; i < passengers; i++ {
		fmt.Fprintf(&sb, " P%02d", i)
	}
	sb.WriteString("  InQ InF InD FNo")
	return sb.String()
}

// Row formats one state row.
func Row(st *flight.State) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, " %s %s ", st.Pilot.Code(), st.Hostess.Code())
	for _, p := range st.Passengers {
		fmt.Fprintf(&sb, " %s", p.Code())
	}
	fmt.Fprintf(&sb, "  %3d %3d %3d %3d", st.QueueLen(), st.Boarded, st.Transported, st.FlightNumber)
	return sb.String()
}

// NoteLine formats a flight event line.
func NoteLine(n flight.Note, st *flight.State) string {
	if n == flight.NoteFlightDeparted {
		return fmt.Sprintf("Flight %d departed with %d passengers", st.FlightNumber, st.Boarded)
	}
	return fmt.Sprintf("Flight %d %s", st.FlightNumber, n)
}

// SaveState appends a state row.
func (l *Log) SaveState(st *flight.State) error {
	l.rows++
	return l.write(Row(st) + "\n")
}

// SaveNote appends a flight event line framed by blank lines.
func (l *Log) SaveNote(n flight.Note, st *flight.State) error {
	return l.write("\n" + NoteLine(n, st) + "\n\n")
}

// Rows returns the number of state rows written.
func (l *Log) Rows() int { return l.rows }

func (l *Log) write(s string) error {
	if _, err := l.w.WriteString(s); err != nil {
		return fmt.Errorf("failed to write state log: %w", err)
	}
	if err := l.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush state log: %w", err)
	}
	return nil
}

// Close flushes the log and closes the underlying file, if Create opened one.
func (l *Log) Close() error {
	if err := l.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush state log: %w", err)
	}
	if l.closer != nil {
		if err := l.closer.Close(); err != nil {
			return fmt.Errorf("failed to close state log: %w", err)
		}
		l.closer = nil
	}
	return nil
}

// Tee fans every write out to several sinks, stopping at the first failure.
type Tee []flight.Sink

// SaveState forwards to every sink.
func (t Tee) SaveState(st *flight.State) error {
	for _, s := range t {
		if err := s.SaveState(st); err != nil {
			return err
		}
	}
	return nil
}

// SaveNote forwards to every sink.
func (t Tee) SaveNote(n flight.Note, st *flight.State) error {
	for _, s := range t {
		if err := s.SaveNote(n, st); err != nil {
			return err
		}
	}
	return nil
}
