package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/holidays"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/session"
	"github.com/julianstephens/dtracker/internal/storage"
	"github.com/julianstephens/dtracker/internal/tui/components/board"
	"github.com/julianstephens/dtracker/internal/tui/components/monthview"
	"github.com/julianstephens/dtracker/internal/tui/components/tasklist"
	"github.com/julianstephens/dtracker/internal/utils"
)

type TaskFormModel struct {
	EmployeeID  string
	Description string
	Due         string
	Recurrence  constants.RecurrenceType
	Interval    string
	Weekdays    string
	DayOfMonth  string
}

type EventFormModel struct {
	Title      string
	Date       string
	Time       string
	Type       constants.EventType
	EmployeeID string
}

type Model struct {
	store   storage.Provider
	session *session.Session
	seeder  *holidays.Seeder
	loc     *time.Location
	now     func() time.Time

	yearsAhead int

	state     constants.SessionState
	keys      KeyMap
	help      help.Model
	board     board.Model
	taskList  tasklist.Model
	monthView monthview.Model

	form      *huh.Form
	taskForm  *TaskFormModel
	eventForm *EventFormModel

	employees      []models.Employee
	taskToDeleteID string

	// changes carries store pushes into the update loop
	changes     chan models.Change
	unsubscribe []func()

	statusLine        string
	errorLine         string
	validationWarning string
	quitting          bool
	width             int
	height            int
}

func NewModel(store storage.Provider, loc *time.Location, yearsAhead int) Model {
	if loc == nil {
		loc = time.Local
	}
	now := time.Now
	today := utils.DateOf(now().In(loc))

	m := Model{
		store:      store,
		session:    session.New(store, loc),
		seeder:     holidays.NewSeeder(store, loc),
		loc:        loc,
		now:        now,
		yearsAhead: yearsAhead,
		state:      constants.StateBoard,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		board:      board.New(loc),
		taskList:   tasklist.New(0, 0),
		monthView:  monthview.New(today, loc),
		changes:    make(chan models.Change, 64),
	}

	sessionUnsub := m.session.Watch(m.push)
	// employees and events are not tracked by the session
	feedUnsub := store.Subscribe("", func(c models.Change) {
		if c.Collection != constants.CollectionTasks {
			m.push(c)
		}
	})
	m.unsubscribe = []func(){sessionUnsub, feedUnsub}
	return m
}

// push hands a change to the update loop without blocking the publisher. A
// full buffer drops the change; the next reload picks it up.
func (m Model) push(c models.Change) {
	select {
	case m.changes <- c:
	default:
	}
}

// Close removes the store subscriptions.
func (m Model) Close() {
	for _, fn := range m.unsubscribe {
		fn()
	}
}

func (m Model) today() time.Time {
	return utils.DateOf(m.now().In(m.loc))
}

func (m Model) Init() tea.Cmd {
	year, month := m.monthView.Month()
	return tea.Batch(
		m.seedHolidays(),
		m.loadEmployees(),
		m.loadTasks(),
		m.loadEvents(year, month),
		m.validate(),
		m.waitForChange(),
	)
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case constants.StateBoard:
		bk := m.board.Keys()
		keys = append(keys, bk.Status, bk.Touch, bk.Select)
	case constants.StateTasks:
		tk := tasklist.DefaultKeyMap()
		keys = append(keys, tk.Add, tk.Complete, tk.Focus, tk.Delete, m.keys.Refresh)
	case constants.StateCalendar:
		mk := m.monthView.Keys()
		keys = append(keys, mk.PrevMonth, mk.NextMonth, mk.Add)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Left, m.keys.Right, m.keys.Quit, m.keys.Help}

	var actions []key.Binding
	switch m.state {
	case constants.StateBoard:
		bk := m.board.Keys()
		actions = []key.Binding{bk.Up, bk.Down, bk.Status, bk.Touch, bk.Select, bk.All}
	case constants.StateTasks:
		tk := tasklist.DefaultKeyMap()
		actions = []key.Binding{tk.Add, tk.Complete, tk.Defer, tk.Reopen, tk.Focus, tk.Delete, m.keys.Refresh}
	case constants.StateCalendar:
		mk := m.monthView.Keys()
		actions = []key.Binding{mk.Left, mk.Right, mk.Up, mk.Down, mk.PrevMonth, mk.NextMonth, mk.Today, mk.Add}
	}

	return [][]key.Binding{global, actions}
}

// employeeName returns the display name for id, or the id itself.
func (m Model) employeeName(id string) string {
	for _, e := range m.employees {
		if e.ID == id {
			return e.Name
		}
	}
	return id
}

// syncTasks rebuilds the task list from the session.
func (m *Model) syncTasks() {
	tasks := m.session.Tasks()
	items := make([]tasklist.Item, len(tasks))
	for i, t := range tasks {
		owner := ""
		if m.session.Scope() == "" {
			owner = m.employeeName(t.EmployeeID)
		}
		items[i] = tasklist.Item{Task: t, Owner: owner, Pending: m.session.Pending(t.ID)}
	}
	m.taskList.SetItems(items)
}

// syncBoard rebuilds the board from the loaded employees and the session.
func (m *Model) syncBoard() {
	focus := map[string]string{}
	for _, e := range m.employees {
		if e.TaskOfDayID == "" {
			continue
		}
		if t, ok := m.session.Task(e.TaskOfDayID); ok {
			focus[e.ID] = t.Description
		}
	}
	m.board.SetEmployees(m.employees, focus, m.today())
}
