package tasklist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/utils"
)

type AddTaskMsg struct{}

type DeleteTaskMsg struct {
	ID string
}

// UpdateTaskMsg asks the parent to apply a change to a task.
type UpdateTaskMsg struct {
	ID     string
	Update models.TaskUpdate
}

// FocusTaskMsg asks the parent to make the task its owner's task of the day,
// or to clear the selection when the task already holds it.
type FocusTaskMsg struct {
	Task models.Task
}

type Item struct {
	Task    models.Task
	Owner   string
	Pending bool
}

func (i Item) Title() string {
	var b strings.Builder
	if i.Task.IsTaskOfDay {
		b.WriteString("★ ")
	}
	b.WriteString(i.Task.Description)
	if i.Task.Status == constants.TaskCompleted {
		b.WriteString(" ✓")
	}
	return b.String()
}

func (i Item) Description() string {
	parts := []string{string(i.Task.Status)}
	if i.Owner != "" {
		parts = append(parts, i.Owner)
	}
	if i.Task.IsRecurring {
		parts = append(parts, utils.DescribeRecurrence(i.Task.Recurrence))
	}
	if i.Task.DueDate != nil {
		parts = append(parts, "due "+utils.FormatDate(i.Task.DueDate))
	}
	if i.Pending {
		parts = append(parts, "saving…")
	}
	return strings.Join(parts, " | ")
}

func (i Item) FilterValue() string { return i.Task.Description }

type KeyMap struct {
	Add      key.Binding
	Complete key.Binding
	Defer    key.Binding
	Reopen   key.Binding
	Focus    key.Binding
	Delete   key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Complete: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "complete"),
		),
		Defer: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "defer"),
		),
		Reopen: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "reopen"),
		),
		Focus: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "task of day"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.Title = "Tasks"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Complete, keys.Focus, keys.Delete}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Complete, keys.Defer, keys.Reopen, keys.Focus, keys.Delete}
	}

	return Model{list: l, keys: keys}
}

// SetItems replaces the list, keeping the cursor on the same task when it
// is still present.
func (m *Model) SetItems(items []Item) {
	selected := ""
	if i, ok := m.list.SelectedItem().(Item); ok {
		selected = i.Task.ID
	}
	out := make([]list.Item, len(items))
	cursor := -1
	for idx, it := range items {
		out[idx] = it
		if it.Task.ID == selected {
			cursor = idx
		}
	}
	m.list.SetItems(out)
	if cursor >= 0 {
		m.list.Select(cursor)
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		if key.Matches(msg, m.keys.Add) {
			return m, func() tea.Msg { return AddTaskMsg{} }
		}
		i, ok := m.list.SelectedItem().(Item)
		if !ok {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Complete):
			return m, update(i.Task.ID, models.StatusChange{Status: constants.TaskCompleted})
		case key.Matches(msg, m.keys.Defer):
			return m, update(i.Task.ID, models.StatusChange{Status: constants.TaskDeferred})
		case key.Matches(msg, m.keys.Reopen):
			return m, update(i.Task.ID, models.StatusChange{Status: constants.TaskActive})
		case key.Matches(msg, m.keys.Focus):
			return m, func() tea.Msg { return FocusTaskMsg{Task: i.Task} }
		case key.Matches(msg, m.keys.Delete):
			return m, func() tea.Msg { return DeleteTaskMsg{ID: i.Task.ID} }
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func update(id string, u models.TaskUpdate) tea.Cmd {
	return func() tea.Msg { return UpdateTaskMsg{ID: id, Update: u} }
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No tasks yet.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

// Summary is the one-line count shown above the list.
func Summary(items []Item) string {
	counts := map[constants.TaskStatus]int{}
	for _, it := range items {
		counts[it.Task.Status]++
	}
	return fmt.Sprintf("%d active, %d completed, %d deferred",
		counts[constants.TaskActive], counts[constants.TaskCompleted], counts[constants.TaskDeferred])
}
