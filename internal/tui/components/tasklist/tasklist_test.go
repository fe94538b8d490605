package tasklist

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/models"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func items() []Item {
	return []Item{
		{Task: models.Task{ID: "t1", Description: "Fit windows", Status: constants.TaskActive, IsTaskOfDay: true}, Owner: "Alice"},
		{Task: models.Task{ID: "t2", Description: "Sweep", Status: constants.TaskCompleted}, Owner: "Bob", Pending: true},
	}
}

func TestItemRendering(t *testing.T) {
	it := items()
	if got := it[0].Title(); got != "★ Fit windows" {
		t.Errorf("Title = %q", got)
	}
	if got := it[1].Title(); got != "Sweep ✓" {
		t.Errorf("Title = %q", got)
	}
	if desc := it[1].Description(); !strings.Contains(desc, "Bob") || !strings.Contains(desc, "saving") {
		t.Errorf("Description = %q", desc)
	}
	if got := Summary(it); got != "1 active, 1 completed, 0 deferred" {
		t.Errorf("Summary = %q", got)
	}
}

func TestTaskKeysEmitIntents(t *testing.T) {
	m := New(80, 20)
	m.SetItems(items())

	_, cmd := m.Update(runes("c"))
	msg, ok := cmd().(UpdateTaskMsg)
	if !ok || msg.ID != "t1" {
		t.Fatalf("complete produced %+v", msg)
	}
	if sc, ok := msg.Update.(models.StatusChange); !ok || sc.Status != constants.TaskCompleted {
		t.Errorf("update = %+v", msg.Update)
	}

	_, cmd = m.Update(runes("f"))
	if focus, ok := cmd().(FocusTaskMsg); !ok || focus.Task.ID != "t1" {
		t.Errorf("focus produced %+v", focus)
	}

	_, cmd = m.Update(runes("d"))
	if del, ok := cmd().(DeleteTaskMsg); !ok || del.ID != "t1" {
		t.Errorf("delete produced %+v", del)
	}

	_, cmd = m.Update(runes("a"))
	if _, ok := cmd().(AddTaskMsg); !ok {
		t.Error("expected AddTaskMsg")
	}
}

func TestSetItemsKeepsCursor(t *testing.T) {
	m := New(80, 20)
	m.SetItems(items())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})

	reordered := []Item{{Task: models.Task{ID: "t0", Description: "New", Status: constants.TaskActive}}}
	reordered = append(reordered, items()...)
	m.SetItems(reordered)

	_, cmd := m.Update(runes("d"))
	if del, ok := cmd().(DeleteTaskMsg); !ok || del.ID != "t2" {
		t.Errorf("cursor moved off t2: %+v", del)
	}
}
