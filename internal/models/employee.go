package models

import (
	"time"

	"github.com/julianstephens/dtracker/internal/constants"
)

type Employee struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Status      constants.WorkStatus `json:"status"`
	LastUpdated time.Time            `json:"lastUpdated"`
	TaskOfDayID string               `json:"task_of_day_id,omitempty"`
}
