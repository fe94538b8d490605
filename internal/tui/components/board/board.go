// Package board renders the employee status board.
package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/models"
)

var (
	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true).
			Width(24)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	staleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	focusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// SetStatusMsg asks the parent to change an employee's status.
type SetStatusMsg struct {
	EmployeeID string
	Status     constants.WorkStatus
}

// TouchMsg asks the parent to confirm the employee's status for today.
type TouchMsg struct {
	EmployeeID string
}

// SelectMsg asks the parent to scope the task and calendar views to one
// employee. An empty id selects everyone.
type SelectMsg struct {
	EmployeeID string
}

type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Status key.Binding
	Touch  key.Binding
	Select key.Binding
	All    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Status: key.NewBinding(
			key.WithKeys("1", "2", "3", "4"),
			key.WithHelp("1-4", "set status"),
		),
		Touch: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "still current"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "show tasks"),
		),
		All: key.NewBinding(
			key.WithKeys("*"),
			key.WithHelp("*", "everyone"),
		),
	}
}

type Model struct {
	employees []models.Employee
	tasks     map[string]string
	cursor    int
	keys      KeyMap
	today     time.Time
	loc       *time.Location
}

func New(loc *time.Location) Model {
	return Model{keys: DefaultKeyMap(), loc: loc, tasks: map[string]string{}}
}

func (m Model) Keys() KeyMap {
	return m.keys
}

// SetEmployees replaces the board rows. taskOfDay maps employee ids to the
// description of their task of the day.
func (m *Model) SetEmployees(employees []models.Employee, taskOfDay map[string]string, today time.Time) {
	selected := m.Selected()
	m.employees = employees
	m.tasks = taskOfDay
	m.today = today
	m.cursor = 0
	for i, e := range employees {
		if e.ID == selected.ID {
			m.cursor = i
		}
	}
}

// Selected returns the employee under the cursor, or the zero value.
func (m Model) Selected() models.Employee {
	if m.cursor < 0 || m.cursor >= len(m.employees) {
		return models.Employee{}
	}
	return m.employees[m.cursor]
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(km, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, m.keys.Down):
		if m.cursor < len(m.employees)-1 {
			m.cursor++
		}
	case key.Matches(km, m.keys.All):
		return m, func() tea.Msg { return SelectMsg{} }
	}

	e := m.Selected()
	if e.ID == "" {
		return m, nil
	}
	switch {
	case key.Matches(km, m.keys.Status):
		idx := int(km.String()[0] - '1')
		status := constants.WorkStatuses[idx]
		return m, func() tea.Msg { return SetStatusMsg{EmployeeID: e.ID, Status: status} }
	case key.Matches(km, m.keys.Touch):
		return m, func() tea.Msg { return TouchMsg{EmployeeID: e.ID} }
	case key.Matches(km, m.keys.Select):
		return m, func() tea.Msg { return SelectMsg{EmployeeID: e.ID} }
	}
	return m, nil
}

func (m Model) View() string {
	if len(m.employees) == 0 {
		return "\n  No employees yet.\n  Add one with 'dtracker employee add <name>'."
	}

	var b strings.Builder
	for i, e := range m.employees {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(e.Status.Color())).Render("●")
		line := fmt.Sprintf("%s%s %s %-16s", cursor, dot, nameStyle.Render(e.Name), e.Status.Label())
		if !m.today.IsZero() && e.LastUpdated.In(m.loc).Before(m.today) {
			line += " " + staleStyle.Render("not updated today")
		}
		b.WriteString(line + "\n")
		if task := m.tasks[e.ID]; task != "" {
			b.WriteString(focusStyle.Render("      ★ "+task) + "\n")
		}
	}

	legend := make([]string, len(constants.WorkStatuses))
	for i, s := range constants.WorkStatuses {
		legend[i] = fmt.Sprintf("%d %s", i+1, s.Label())
	}
	b.WriteString("\n" + focusStyle.Render(strings.Join(legend, "  ·  ")))
	return b.String()
}
