// Package monthview renders the calendar tab: a month grid with the selected
// day's events underneath.
package monthview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/dtracker/internal/calendar"
	"github.com/julianstephens/dtracker/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	weekdayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(5).
			Align(lipgloss.Right)

	cellStyle = lipgloss.NewStyle().
			Width(5).
			Align(lipgloss.Right)

	selectedStyle = cellStyle.
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("205")).
			Bold(true)

	todayStyle = cellStyle.
			Underline(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// MonthChangedMsg tells the parent to load the events of a month.
type MonthChangedMsg struct {
	Year  int
	Month time.Month
}

// AddEventMsg asks the parent to open the event form for a day.
type AddEventMsg struct {
	Date time.Time
}

type KeyMap struct {
	Left      key.Binding
	Right     key.Binding
	Up        key.Binding
	Down      key.Binding
	PrevMonth key.Binding
	NextMonth key.Binding
	Today     key.Binding
	Add       key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "prev day"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "next day"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "prev week"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next week"),
		),
		PrevMonth: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev month"),
		),
		NextMonth: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next month"),
		),
		Today: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "today"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add event"),
		),
	}
}

type Model struct {
	keys     KeyMap
	loc      *time.Location
	today    time.Time
	selected time.Time
	events   []models.CalendarEvent
	filter   string
	grid     calendar.Month
}

func New(today time.Time, loc *time.Location) Model {
	m := Model{keys: DefaultKeyMap(), loc: loc, today: today, selected: today}
	m.rebuild()
	return m
}

func (m Model) Keys() KeyMap {
	return m.keys
}

// Month returns the month currently shown.
func (m Model) Month() (int, time.Month) {
	return m.selected.Year(), m.selected.Month()
}

// SetEvents replaces the events of the shown month. Events for other months
// are ignored by the grid.
func (m *Model) SetEvents(events []models.CalendarEvent) {
	m.events = events
	m.rebuild()
}

// SetFilter scopes the view to one employee; "" shows everyone.
func (m *Model) SetFilter(employeeID string) {
	m.filter = employeeID
	m.rebuild()
}

func (m *Model) SetToday(today time.Time) {
	m.today = today
}

func (m *Model) rebuild() {
	m.grid = calendar.MonthGrid(m.events, m.selected.Year(), m.selected.Month(), m.filter, m.loc)
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	prev := m.selected
	switch {
	case key.Matches(km, m.keys.Left):
		m.selected = m.selected.AddDate(0, 0, -1)
	case key.Matches(km, m.keys.Right):
		m.selected = m.selected.AddDate(0, 0, 1)
	case key.Matches(km, m.keys.Up):
		m.selected = m.selected.AddDate(0, 0, -7)
	case key.Matches(km, m.keys.Down):
		m.selected = m.selected.AddDate(0, 0, 7)
	case key.Matches(km, m.keys.PrevMonth):
		m.selected = shiftMonth(m.selected, -1, m.loc)
	case key.Matches(km, m.keys.NextMonth):
		m.selected = shiftMonth(m.selected, 1, m.loc)
	case key.Matches(km, m.keys.Today):
		m.selected = m.today
	case key.Matches(km, m.keys.Add):
		day := m.selected
		return m, func() tea.Msg { return AddEventMsg{Date: day} }
	}

	if prev.Year() != m.selected.Year() || prev.Month() != m.selected.Month() {
		m.events = nil
		m.rebuild()
		year, month := m.selected.Year(), m.selected.Month()
		return m, func() tea.Msg { return MonthChangedMsg{Year: year, Month: month} }
	}
	return m, nil
}

// shiftMonth moves n months keeping the day, clamped to the target month.
func shiftMonth(d time.Time, n int, loc *time.Location) time.Time {
	year, month := calendar.Shift(d.Year(), d.Month(), n)
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	day := d.Day()
	if day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s %d", m.grid.Month, m.grid.Year)) + "\n\n")

	var names []string
	for _, d := range []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"} {
		names = append(names, weekdayStyle.Render(d))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, names...) + "\n")

	for _, week := range m.grid.Weeks() {
		var cells []string
		for _, day := range week {
			cells = append(cells, m.renderCell(day))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...) + "\n")
	}

	b.WriteString("\n" + headerStyle.Render(m.selected.Format("Monday, January 2")) + "\n")
	events := calendar.EventsForDay(m.events, m.selected.Year(), m.selected.Month(), m.selected.Day(), m.filter)
	if len(events) == 0 {
		b.WriteString(mutedStyle.Render("  No events") + "\n")
	}
	for _, e := range events {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(eventColor(e))).Render("●")
		line := fmt.Sprintf("  %s %s", dot, e.Title)
		if h, min := e.Date.Hour(), e.Date.Minute(); h != 0 || min != 0 {
			line += fmt.Sprintf(" at %02d:%02d", h, min)
		}
		if e.ReadOnly() {
			line += mutedStyle.Render(" (public holiday)")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) renderCell(day *calendar.Day) string {
	if day == nil {
		return cellStyle.Render("")
	}
	label := fmt.Sprintf("%d", day.Date.Day())
	if len(day.Events) > 0 {
		label += "•"
	} else {
		label += " "
	}
	switch {
	case day.Date.Equal(m.selected):
		return selectedStyle.Render(label)
	case day.Date.Equal(m.today):
		return todayStyle.Render(label)
	default:
		return cellStyle.Render(label)
	}
}

func eventColor(e models.CalendarEvent) string {
	if e.Color != "" {
		return e.Color
	}
	return e.Type.DefaultColor()
}
