package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/models"
)

// palette shared by the tab bar and the status line
const (
	accent = lipgloss.Color("205")
	muted  = lipgloss.Color("241")
	faint  = lipgloss.Color("240")
	shade  = lipgloss.Color("236")
	red    = lipgloss.Color("196")
	amber  = lipgloss.Color("214")
	green  = lipgloss.Color("42")
)

var (
	docStyle = lipgloss.NewStyle().Padding(1, 2)

	activeTabStyle   = lipgloss.NewStyle().Foreground(accent).Background(shade).Bold(true).Padding(0, 1)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(faint).Padding(0, 1)
	scopeStyle       = lipgloss.NewStyle().Foreground(muted).Padding(0, 1)

	dangerStyle  = lipgloss.NewStyle().Foreground(red).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(amber).Italic(true)
	okStyle      = lipgloss.NewStyle().Foreground(green)
)

// statusBadge renders an employee's work status in its board color.
func statusBadge(s constants.WorkStatus) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color())).Render("● " + s.Label())
}

// scopeLabel names the selected employee with their current status, or
// "Everyone" when no employee is selected.
func scopeLabel(employees []models.Employee, id string) string {
	if id == "" {
		return scopeStyle.Render("· Everyone")
	}
	for _, e := range employees {
		if e.ID == id {
			return scopeStyle.Render("· "+e.Name) + statusBadge(e.Status)
		}
	}
	return scopeStyle.Render("· " + id)
}
