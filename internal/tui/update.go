package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/session"
	"github.com/julianstephens/dtracker/internal/tui/components/board"
	"github.com/julianstephens/dtracker/internal/tui/components/monthview"
	"github.com/julianstephens/dtracker/internal/tui/components/tasklist"
)

const tabCount = 3

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.taskList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case changeMsg:
		return m.handleChange(msg)

	case employeesLoadedMsg:
		if msg.err != nil {
			m.errorLine = errorText(msg.err)
			return m, nil
		}
		m.employees = msg.employees
		m.syncBoard()
		m.syncTasks()
		return m, nil

	case tasksLoadedMsg:
		if msg.err != nil {
			if !errors.Is(msg.err, session.ErrStale) {
				m.errorLine = errorText(msg.err)
			}
			return m, nil
		}
		m.syncTasks()
		m.syncBoard()
		return m, nil

	case eventsLoadedMsg:
		year, month := m.monthView.Month()
		if msg.year != year || msg.month != month {
			return m, nil
		}
		if msg.err != nil {
			m.errorLine = errorText(msg.err)
			return m, nil
		}
		m.monthView.SetEvents(msg.events)
		return m, nil

	case validationMsg:
		switch {
		case msg.err != nil:
			m.validationWarning = "⚠ Validation unavailable"
		case msg.conflicts > 0:
			m.validationWarning = warningCount(msg.conflicts)
		default:
			m.validationWarning = ""
		}
		return m, nil

	case resultMsg:
		m.syncTasks()
		m.syncBoard()
		if msg.err != nil {
			m.errorLine = errorText(msg.err)
			m.statusLine = ""
			return m, nil
		}
		if msg.status != "" {
			m.statusLine = msg.status
			m.errorLine = ""
		}
		if msg.reload {
			return m, tea.Batch(m.validate(), m.loadTasks())
		}
		return m, m.validate()
	}

	switch m.state {
	case constants.StateAddTask, constants.StateAddEvent:
		return m.updateForm(msg)
	case constants.StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	if handled, cmd := m.handleComponentMsg(msg); handled {
		return m, cmd
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, m.keys.Quit):
			m.quitting = true
			m.Close()
			return m, tea.Quit
		case key.Matches(km, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(km, m.keys.Tab), key.Matches(km, m.keys.Right):
			m.state = (m.state + 1) % tabCount
			return m, nil
		case key.Matches(km, m.keys.ShiftTab), key.Matches(km, m.keys.Left):
			m.state = (m.state - 1 + tabCount) % tabCount
			return m, nil
		case key.Matches(km, m.keys.Refresh):
			year, month := m.monthView.Month()
			m.statusLine = "Reloading..."
			return m, tea.Batch(m.loadEmployees(), m.loadTasks(), m.loadEvents(year, month), m.validate())
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case constants.StateBoard:
		m.board, cmd = m.board.Update(msg)
	case constants.StateTasks:
		m.taskList, cmd = m.taskList.Update(msg)
	case constants.StateCalendar:
		m.monthView, cmd = m.monthView.Update(msg)
	}
	return m, cmd
}

// handleChange applies a pushed change and re-arms the listener.
func (m Model) handleChange(msg changeMsg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.waitForChange()}
	switch msg.change.Collection {
	case constants.CollectionTasks:
		// the session already reconciled it
		m.syncTasks()
		m.syncBoard()
	case constants.CollectionEmployees:
		cmds = append(cmds, m.loadEmployees())
	case constants.CollectionEvents:
		year, month := m.monthView.Month()
		cmds = append(cmds, m.loadEvents(year, month))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleComponentMsg(msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case board.SetStatusMsg:
		return true, m.setStatus(msg.EmployeeID, msg.Status)
	case board.TouchMsg:
		return true, m.touch(msg.EmployeeID)
	case board.SelectMsg:
		m.session.Select(msg.EmployeeID)
		m.monthView.SetFilter(msg.EmployeeID)
		m.state = constants.StateTasks
		m.syncTasks()
		return true, m.loadTasks()

	case tasklist.AddTaskMsg:
		if len(m.employees) == 0 {
			m.errorLine = "Add an employee first with 'dtracker employee add'"
			return true, nil
		}
		fm := &TaskFormModel{
			EmployeeID: m.session.Scope(),
			Recurrence: constants.RecurrenceNone,
			Interval:   "1",
		}
		if fm.EmployeeID == "" {
			fm.EmployeeID = m.board.Selected().ID
		}
		m.taskForm = fm
		m.form = m.NewTaskForm(fm)
		m.state = constants.StateAddTask
		return true, m.form.Init()
	case tasklist.UpdateTaskMsg:
		return true, m.applyTask(msg.ID, msg.Update)
	case tasklist.FocusTaskMsg:
		taskID := msg.Task.ID
		if msg.Task.IsTaskOfDay {
			taskID = ""
		}
		return true, m.setTaskOfDay(msg.Task.EmployeeID, taskID)
	case tasklist.DeleteTaskMsg:
		m.taskToDeleteID = msg.ID
		m.state = constants.StateConfirmDelete
		return true, nil

	case monthview.MonthChangedMsg:
		return true, m.loadEvents(msg.Year, msg.Month)
	case monthview.AddEventMsg:
		fm := &EventFormModel{
			Date:       msg.Date.Format(constants.DateFormat),
			Type:       constants.EventEvent,
			EmployeeID: m.session.Scope(),
		}
		m.eventForm = fm
		m.form = m.NewEventForm(fm)
		m.state = constants.StateAddEvent
		return true, m.form.Init()
	}
	return false, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	back := constants.StateTasks
	if m.state == constants.StateAddEvent {
		back = constants.StateCalendar
	}
	if km, ok := msg.(tea.KeyMsg); ok && km.Type == tea.KeyEsc {
		m.state = back
		return m, nil
	}

	var cmds []tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		m.state = back
		if back == constants.StateTasks {
			t, err := m.taskForm.task(m.loc)
			if err != nil {
				m.errorLine = err.Error()
				return m, nil
			}
			cmds = append(cmds, m.addTask(t))
		} else {
			e, err := m.eventForm.event(m.loc)
			if err != nil {
				m.errorLine = err.Error()
				return m, nil
			}
			cmds = append(cmds, m.addEvent(e))
		}
	case huh.StateAborted:
		m.state = back
	}
	return m, tea.Batch(cmds...)
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(km, m.keys.Confirm):
		id := m.taskToDeleteID
		m.taskToDeleteID = ""
		m.state = constants.StateTasks
		return m, m.deleteTask(id)
	case key.Matches(km, m.keys.Cancel):
		m.taskToDeleteID = ""
		m.state = constants.StateTasks
	}
	return m, nil
}
