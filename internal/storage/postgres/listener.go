package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	pq "github.com/lib/pq"

	"github.com/julianstephens/dtracker/internal/constants"
	"github.com/julianstephens/dtracker/internal/logger"
	"github.com/julianstephens/dtracker/internal/models"
)

const (
	minReconnect = 10 * time.Second
	maxReconnect = time.Minute
	pingInterval = 90 * time.Second
	fetchTimeout = 10 * time.Second
)

// notification is the payload written by dtracker_notify_change().
type notification struct {
	Collection string               `json:"collection"`
	Kind       constants.ChangeKind `json:"kind"`
	ID         string               `json:"id"`
}

func listenerLog() *log.Logger { return logger.Component("pg-listener") }

func (s *Store) startListener() error {
	l := pq.NewListener(s.connStr, minReconnect, maxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			listenerLog().Warn("Change listener event", "event", ev, "error", err)
		}
	})
	if err := l.Listen(constants.NotifyChannel); err != nil {
		l.Close()
		return fmt.Errorf("failed to listen on %s: %w", constants.NotifyChannel, err)
	}
	s.listener = l
	go s.listen(l)
	return nil
}

func (s *Store) listen(l *pq.Listener) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case n, ok := <-l.Notify:
			if !ok {
				return
			}
			// nil after a reconnect: changes may have been missed
			if n == nil {
				listenerLog().Warn("Change listener reconnected")
				continue
			}
			s.dispatch(n.Extra)
		case <-ticker.C:
			if err := l.Ping(); err != nil {
				listenerLog().Warn("Change listener ping failed", "error", err)
			}
		}
	}
}

// dispatch decodes a notification, re-reads the changed row and publishes it.
func (s *Store) dispatch(payload string) {
	change, err := s.decode(payload)
	if err != nil {
		listenerLog().Warn("Skipping change notification", "payload", payload, "error", err)
		return
	}
	s.broker.Publish(change)
}

func (s *Store) decode(payload string) (models.Change, error) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return models.Change{}, fmt.Errorf("invalid payload: %w", err)
	}
	change := models.Change{Collection: n.Collection, Kind: n.Kind, ID: n.ID}
	if n.Kind == constants.ChangeDelete {
		return change, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	switch n.Collection {
	case constants.CollectionEmployees:
		e, err := s.GetEmployee(ctx, n.ID)
		if err != nil {
			return models.Change{}, err
		}
		change.Employee = &e
	case constants.CollectionTasks:
		t, err := s.GetTask(ctx, n.ID)
		if err != nil {
			return models.Change{}, err
		}
		change.Task = &t
	case constants.CollectionEvents:
		e, err := s.GetEvent(ctx, n.ID)
		if err != nil {
			return models.Change{}, err
		}
		change.Event = &e
	default:
		return models.Change{}, fmt.Errorf("unknown collection %q", n.Collection)
	}
	return change, nil
}
