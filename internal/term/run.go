package term

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dalemusser/phoneform/form"
	"go.uber.org/zap"
)

// Run shows the form in the terminal until the user quits or ctx is done.
// The form is closed on return, so a pending reset never fires.
func Run(ctx context.Context, title string, logger *zap.Logger, opts ...form.Option) error {
	m := NewModel(title, logger, opts...)
	defer m.Form().Close()

	p := tea.NewProgram(m, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !(errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil) {
		return fmt.Errorf("run terminal form: %w", err)
	}
	return nil
}
