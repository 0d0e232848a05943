package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sparse/dp/internal/logging"
)

// taskDoneMsg tells the spinner model that the task has returned.
type taskDoneMsg struct{}

// SpinnerModel shows a spinner and a label until the task finishes.
type SpinnerModel struct {
	spinner spinner.Model
	label   string
	done    bool
}

// NewSpinnerModel creates a spinner model with the given label.
func NewSpinnerModel(label string) SpinnerModel {
	return SpinnerModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(SpinnerStyle),
		),
		label: label,
	}
}

// Init implements tea.Model
func (m SpinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model
func (m SpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskDoneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model
func (m SpinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), SpinnerLabelStyle.Render(m.label))
}

// RunWithSpinner runs task and returns its error. When out is a terminal a
// spinner with label is shown while the task runs; otherwise the label is
// printed once. Cancelling ctx stops the spinner, and task is expected to
// return promptly on the same ctx.
func RunWithSpinner(ctx context.Context, out io.Writer, label string, task func(context.Context) error) error {
	f, ok := out.(*os.File)
	if !ok || !IsTerminal(f) {
		_, _ = fmt.Fprintln(out, SpinnerLabelStyle.Render(label))
		return task(ctx)
	}

	p := tea.NewProgram(NewSpinnerModel(label),
		tea.WithContext(ctx),
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)

	result := make(chan error, 1)
	go func() {
		result <- task(ctx)
		p.Send(taskDoneMsg{})
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logging.Debug("spinner stopped", zap.Error(err))
	}
	return <-result
}
