package cli

import (
	"fmt"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// taskDoneMsg carries the result of the background task.
type taskDoneMsg struct {
	result string
	err    error
}

// waitModel is the bubbletea model shown while a turn is in flight.
type waitModel struct {
	spinner  spinner.Model
	label    string
	theme    Theme
	task     func() (string, error)
	result   string
	err      error
	canceled bool
}

func newWaitModel(label string, task func() (string, error)) waitModel {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	return waitModel{
		spinner: sp,
		label:   label,
		theme:   defaultTheme,
		task:    task,
	}
}

// Init starts the spinner animation and kicks off the task.
func (m waitModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			result, err := m.task()
			return taskDoneMsg{result: result, err: err}
		},
	)
}

// Update handles messages and returns the updated model.
func (m waitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			m.canceled = true
			return m, tea.Quit
		}

	case taskDoneMsg:
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the waiting line.
func (m waitModel) View() tea.View {
	line := fmt.Sprintf("%s %s %s",
		m.spinner.View(),
		m.theme.statusStyle().Render(m.label),
		m.theme.hintStyle().Render("(Ctrl+C to cancel)"))
	return tea.NewView(line)
}

// runWithSpinner runs task behind an animated waiting line and returns its
// result. Falls back to running the task inline if the UI cannot start.
func runWithSpinner(label string, task func() (string, error)) (string, error) {
	p := tea.NewProgram(newWaitModel(label, task))
	finalModel, err := p.Run()
	if err != nil {
		return task()
	}

	m, ok := finalModel.(waitModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type")
	}
	if m.canceled {
		return "", fmt.Errorf("canceled")
	}
	return m.result, m.err
}
