// Package tui runs a session as an interactive terminal program.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/termfolio/termfolio/internal/session"
)

// Run starts the shell on sess and blocks until the user quits or ctx is
// done.
func Run(ctx context.Context, sess *session.Session) error {
	program := tea.NewProgram(NewModel(ctx, sess), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
