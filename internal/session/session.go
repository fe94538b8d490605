// Package session holds the task state one user is looking at and keeps it
// consistent with the store while local writes and pushed changes interleave.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/dtracker/internal/constants"
	apperrors "github.com/julianstephens/dtracker/internal/errors"
	"github.com/julianstephens/dtracker/internal/logger"
	"github.com/julianstephens/dtracker/internal/models"
	"github.com/julianstephens/dtracker/internal/scheduler"
	"github.com/julianstephens/dtracker/internal/storage"
	"github.com/julianstephens/dtracker/internal/utils"
)

// ErrStale is returned by Refresh when the scope changed while the fetch was
// in flight. The result has been discarded.
var ErrStale = errors.New("scope changed during refresh")

// Store is the part of the storage provider a session uses.
type Store interface {
	QueryTasks(ctx context.Context, q storage.TaskQuery) ([]models.Task, error)
	UpdateTask(ctx context.Context, id string, u models.TaskUpdate) (models.Task, error)
	SetTaskOfDay(ctx context.Context, employeeID, taskID string) error
	Subscribe(collection string, fn func(models.Change)) (unsubscribe func())
}

// Session is safe for concurrent use. The store is never called with the
// lock held, so changes published synchronously during a write are handled
// like any other push.
type Session struct {
	mu sync.Mutex

	store     Store
	refresher *scheduler.Scheduler
	loc       *time.Location
	now       func() time.Time

	scope      string
	generation uint64
	seq        uint64

	// observed holds, per id, the value of seq when the store last told
	// us about the task by push or confirmation. A refresh that fetched
	// before that point must not overwrite it.
	observed map[string]uint64

	// tasks is what the user sees; confirmed is the last row the store
	// returned for each id. They differ only while a mutation is pending.
	tasks     map[string]models.Task
	confirmed map[string]models.Task
	pending   map[string]uint64
}

func New(store Store, loc *time.Location) *Session {
	if loc == nil {
		loc = time.Local
	}
	return &Session{
		store:     store,
		refresher: scheduler.New(store),
		loc:       loc,
		now:       time.Now,
		tasks:     make(map[string]models.Task),
		confirmed: make(map[string]models.Task),
		pending:   make(map[string]uint64),
		observed:  make(map[string]uint64),
	}
}

// SetClock replaces the session clock.
func (s *Session) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Scope returns the selected employee id, empty for every employee.
func (s *Session) Scope() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

// Select changes the employee scope and drops the cached tasks. Any refresh
// still in flight for the previous scope will be discarded.
func (s *Session) Select(employeeID string) {
	if employeeID == constants.EmployeeFilterAll {
		employeeID = ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scope = employeeID
	s.generation++
	s.tasks = make(map[string]models.Task)
	s.confirmed = make(map[string]models.Task)
	s.pending = make(map[string]uint64)
	s.observed = make(map[string]uint64)
}

func (s *Session) inScope(t models.Task) bool {
	return s.scope == "" || t.EmployeeID == s.scope
}

// Refresh loads the scope's tasks, brings stale recurring due dates up to
// date and reloads if anything was written. Refresh failures are logged and
// do not prevent the load. Tasks pushed or confirmed while the load was in
// flight keep their newer state.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	gen, scope, today := s.generation, s.scope, utils.DateOf(s.now().In(s.loc))
	s.seq++
	mark := s.seq
	s.mu.Unlock()

	q := storage.TaskQuery{OrderBy: "created_at", Descending: true}
	if scope != "" {
		q.EmployeeIDs = []string{scope}
	}

	tasks, err := s.store.QueryTasks(ctx, q)
	if err != nil {
		return s.remote("load tasks", err)
	}

	updated, err := s.refresher.RefreshDueDates(ctx, tasks, today)
	if err != nil {
		logger.Warn("Due date refresh incomplete", "scope", scope, "error", err)
	}
	if len(updated) > 0 {
		if tasks, err = s.store.QueryTasks(ctx, q); err != nil {
			return s.remote("reload tasks", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		logger.Debug("Discarding stale refresh", "scope", scope)
		return ErrStale
	}

	next := make(map[string]models.Task, len(tasks))
	confirmed := make(map[string]models.Task, len(tasks))
	for _, t := range tasks {
		if s.observed[t.ID] > mark {
			continue
		}
		confirmed[t.ID] = t
		if _, busy := s.pending[t.ID]; busy {
			next[t.ID] = s.tasks[t.ID]
			continue
		}
		next[t.ID] = t
	}
	for id, at := range s.observed {
		if at <= mark {
			continue
		}
		if t, ok := s.tasks[id]; ok {
			next[id] = t
		}
		if t, ok := s.confirmed[id]; ok {
			confirmed[id] = t
		}
	}
	s.tasks, s.confirmed = next, confirmed
	return nil
}

// Tasks returns the visible tasks, newest first.
func (s *Session) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Task returns one visible task.
func (s *Session) Task(id string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return t.Clone(), ok
}

// Pending reports whether id has a local mutation the store has not confirmed.
func (s *Session) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

// Apply shows the change immediately, then persists it. On success the
// stored row replaces the optimistic one; on failure the task goes back to
// its last confirmed state and the error wraps ErrRemote. Invalid changes
// are rejected before anything is shown.
func (s *Session) Apply(ctx context.Context, taskID string, u models.TaskUpdate) (models.Task, error) {
	s.mu.Lock()
	cur, ok := s.tasks[taskID]
	if !ok {
		s.mu.Unlock()
		return models.Task{}, fmt.Errorf("task %s: %w", taskID, apperrors.ErrNotFound)
	}
	optimistic, err := models.ApplyUpdate(cur, u, s.now().In(s.loc))
	if err != nil {
		s.mu.Unlock()
		return cur, err
	}
	seq := s.begin(taskID)
	s.tasks[taskID] = optimistic
	s.mu.Unlock()

	saved, err := s.store.UpdateTask(ctx, taskID, u)

	s.mu.Lock()
	defer s.mu.Unlock()
	latest := s.finish(taskID, seq)
	if err != nil {
		if latest {
			s.rollback(taskID)
		}
		logger.Error("Task update failed", "task", taskID, "change", u.Kind(), "error", err)
		return cur, s.remote("update task", err)
	}
	s.confirm(saved, latest)
	return saved, nil
}

// SetTaskOfDay marks taskID as the employee's only task of the day, or
// clears the selection when taskID is empty. Every task of the employee the
// session holds is updated optimistically and rolled back together.
func (s *Session) SetTaskOfDay(ctx context.Context, employeeID, taskID string) error {
	s.mu.Lock()
	if taskID != "" {
		if t, ok := s.tasks[taskID]; !ok || t.EmployeeID != employeeID {
			s.mu.Unlock()
			return fmt.Errorf("task %s for employee %s: %w", taskID, employeeID, apperrors.ErrNotFound)
		}
	}
	seqs := make(map[string]uint64)
	for id, t := range s.tasks {
		if t.EmployeeID != employeeID {
			continue
		}
		want := id == taskID
		if t.IsTaskOfDay == want {
			continue
		}
		seqs[id] = s.begin(id)
		t = t.Clone()
		t.IsTaskOfDay = want
		s.tasks[id] = t
	}
	s.mu.Unlock()

	err := s.store.SetTaskOfDay(ctx, employeeID, taskID)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, seq := range seqs {
		latest := s.finish(id, seq)
		switch {
		case !latest:
		case err != nil:
			s.rollback(id)
		default:
			// the store publishes the rows it touched; until they arrive
			// the optimistic flag is the best known state
			s.confirmed[id] = s.tasks[id]
		}
	}
	if err != nil {
		logger.Error("Set task of day failed", "employee", employeeID, "task", taskID, "error", err)
		return s.remote("set task of day", err)
	}
	return nil
}

// HandleChange reconciles a pushed change and reports whether the visible
// state changed. Changes for entities with an unconfirmed local mutation
// are skipped; the mutation's own result wins. Otherwise the most recent
// push for an id replaces what the session holds.
func (s *Session) HandleChange(c models.Change) bool {
	if c.Collection != constants.CollectionTasks {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.pending[c.ID]; busy {
		logger.Debug("Skipping push for pending task", "task", c.ID, "kind", c.Kind)
		return false
	}

	s.observe(c.ID)
	if c.Kind == constants.ChangeDelete {
		_, had := s.tasks[c.ID]
		delete(s.tasks, c.ID)
		delete(s.confirmed, c.ID)
		return had
	}

	if c.Task == nil {
		logger.Warn("Push without a task row", "task", c.ID, "kind", c.Kind)
		return false
	}
	t := c.Task.Clone()
	if !s.inScope(t) {
		_, had := s.tasks[t.ID]
		delete(s.tasks, t.ID)
		delete(s.confirmed, t.ID)
		return had
	}
	s.tasks[t.ID] = t
	s.confirmed[t.ID] = t
	return true
}

// Watch subscribes the session to task changes. notify runs after every
// push that changed the visible state. The returned func unsubscribes.
func (s *Session) Watch(notify func(models.Change)) (unsubscribe func()) {
	return s.store.Subscribe(constants.CollectionTasks, func(c models.Change) {
		if s.HandleChange(c) && notify != nil {
			notify(c)
		}
	})
}

func (s *Session) begin(id string) uint64 {
	s.seq++
	s.pending[id] = s.seq
	return s.seq
}

// finish clears the pending marker if seq is still the newest mutation of
// id and reports whether it was.
func (s *Session) finish(id string, seq uint64) bool {
	if s.pending[id] != seq {
		return false
	}
	delete(s.pending, id)
	return true
}

func (s *Session) rollback(id string) {
	if prev, ok := s.confirmed[id]; ok {
		s.tasks[id] = prev
		return
	}
	delete(s.tasks, id)
}

func (s *Session) observe(id string) {
	s.seq++
	s.observed[id] = s.seq
}

func (s *Session) confirm(t models.Task, latest bool) {
	s.observe(t.ID)
	s.confirmed[t.ID] = t
	if !latest {
		return
	}
	if !s.inScope(t) {
		delete(s.tasks, t.ID)
		delete(s.confirmed, t.ID)
		return
	}
	s.tasks[t.ID] = t
}

func (s *Session) remote(op string, err error) error {
	if errors.Is(err, apperrors.ErrRemote) {
		return err
	}
	return apperrors.Remote(op, err)
}
