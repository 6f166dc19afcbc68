package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the live view on the alternate screen until the user quits
// after the run has ended. Canceling ctx closes the view early.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
