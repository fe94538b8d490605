package models

import (
	"time"

	"github.com/julianstephens/dtracker/internal/constants"
)

type CalendarEvent struct {
	ID                string              `json:"id"`
	Title             string              `json:"title"`
	Date              time.Time           `json:"date"`
	Type              constants.EventType `json:"event_type"`
	EmployeeID        string              `json:"employee_id,omitempty"` // empty applies to everyone
	IsTrinidadHoliday bool                `json:"is_trinidad_holiday"`
	Year              int                 `json:"year,omitempty"`
	Color             string              `json:"color,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// ReadOnly reports whether the event is a seeded holiday.
func (e CalendarEvent) ReadOnly() bool {
	return e.IsTrinidadHoliday || e.Type == constants.EventHoliday
}

// Change is a single notification from the store's change feed. Exactly one
// of Employee, Task or Event is set for inserts and updates; deletes carry
// only the ID.
type Change struct {
	Collection string
	Kind       constants.ChangeKind
	ID         string
	Employee   *Employee
	Task       *Task
	Event      *CalendarEvent
}
