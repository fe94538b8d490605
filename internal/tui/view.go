package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/tui/components/tasklist"
)

var tabTitles = []string{"Board", "Tasks", "Calendar"}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case constants.StateBoard:
		content = docStyle.Render(m.board.View())
	case constants.StateTasks:
		content = docStyle.Render(m.viewTasks())
	case constants.StateCalendar:
		content = docStyle.Render(m.monthView.View())
	case constants.StateAddTask, constants.StateAddEvent:
		content = docStyle.Render(m.form.View())
	case constants.StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range tabTitles {
		if m.state == constants.SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	tabs = append(tabs, scopeLabel(m.employees, m.session.Scope()))
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewTasks() string {
	return lipgloss.JoinVertical(lipgloss.Left, m.taskSummary(), m.taskList.View())
}

func (m Model) taskSummary() string {
	tasks := m.session.Tasks()
	items := make([]tasklist.Item, len(tasks))
	for i, t := range tasks {
		items[i] = tasklist.Item{Task: t}
	}
	return scopeStyle.Render(tasklist.Summary(items))
}

func (m Model) viewStatus() string {
	var parts []string
	if m.errorLine != "" {
		parts = append(parts, dangerStyle.Render(m.errorLine))
	} else if m.statusLine != "" {
		parts = append(parts, okStyle.Render(m.statusLine))
	}
	if m.validationWarning != "" {
		parts = append(parts, warningStyle.Render(m.validationWarning))
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + lipgloss.JoinHorizontal(lipgloss.Top, joinWithSep(parts, "  ")...)
}

func (m Model) viewConfirmDelete() string {
	desc := ""
	if t, ok := m.session.Task(m.taskToDeleteID); ok {
		desc = t.Description
	}
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render("Are you sure you want to delete this task?"),
			desc,
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}

func warningCount(n int) string {
	return fmt.Sprintf("⚠ %d validation warning(s), run 'dtracker validate'", n)
}

func joinWithSep(parts []string, sep string) []string {
	out := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, p)
	}
	return out
}
