package constants

// WorkStatus is an employee's work-location status
type WorkStatus string

// TaskStatus is the lifecycle state of a task
type TaskStatus string

// RecurrenceType is the unit a recurring task repeats in
type RecurrenceType string

// EventType is the kind of a calendar entry
type EventType string

// ChangeKind is the kind of a change delivered by the store's feed
type ChangeKind string

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName            = "dtracker"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/dtracker"
	DefaultConfigPath  = "~/.config/dtracker/dtracker.db"
	DefaultConfigFile  = "~/.config/dtracker/config.yaml"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// EmployeeFilterAll selects events for every employee
	EmployeeFilterAll = "all"

	// HolidayIDPrefix prefixes the deterministic ids of seeded holidays
	HolidayIDPrefix = "trinidad"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "dtracker-"
	BackupFileSuffix = ".db"

	// Feed
	NotifyChannel = "dtracker_changes"

	// Collections
	CollectionEmployees = "employees"
	CollectionTasks     = "tasks"
	CollectionEvents    = "calendar_events"

	// Work statuses
	StatusInOffice WorkStatus = "in-office"
	StatusOnJob    WorkStatus = "on-job"
	StatusWFH      WorkStatus = "wfh"
	StatusOff      WorkStatus = "off"

	// Task statuses
	TaskActive    TaskStatus = "active"
	TaskCompleted TaskStatus = "completed"
	TaskDeferred  TaskStatus = "deferred"

	// Recurrence constants
	RecurrenceNone    RecurrenceType = "none"
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"

	// Event types
	EventHoliday  EventType = "holiday"
	EventEvent    EventType = "event"
	EventReminder EventType = "reminder"

	// Event colors
	ColorHoliday  = "#FF5733"
	ColorEvent    = "#9C27B0"
	ColorReminder = "#FF9800"

	// Change kinds
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// Session States
const (
	StateBoard SessionState = iota
	StateTasks
	StateCalendar
	StateAddTask
	StateAddEvent
	StateConfirmDelete
)

// WorkStatuses lists the selectable statuses in display order
var WorkStatuses = []WorkStatus{StatusInOffice, StatusOnJob, StatusWFH, StatusOff}

// Label returns the display label of a work status
func (s WorkStatus) Label() string {
	switch s {
	case StatusInOffice:
		return "In Office"
	case StatusOnJob:
		return "Out on Job"
	case StatusWFH:
		return "Work from Home"
	case StatusOff:
		return "Off for the Day"
	default:
		return string(s)
	}
}

// Color returns the indicator color of a work status
func (s WorkStatus) Color() string {
	switch s {
	case StatusInOffice:
		return "#4CAF50"
	case StatusOnJob:
		return "#2196F3"
	case StatusWFH:
		return "#9C27B0"
	default:
		return "#757575"
	}
}

// Valid reports whether s is a known work status
func (s WorkStatus) Valid() bool {
	for _, ws := range WorkStatuses {
		if s == ws {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known task status
func (s TaskStatus) Valid() bool {
	return s == TaskActive || s == TaskCompleted || s == TaskDeferred
}

// Valid reports whether t is a known event type
func (t EventType) Valid() bool {
	return t == EventHoliday || t == EventEvent || t == EventReminder
}

// DefaultColor returns the color used for an event type when none is stored
func (t EventType) DefaultColor() string {
	switch t {
	case EventHoliday:
		return ColorHoliday
	case EventReminder:
		return ColorReminder
	default:
		return ColorEvent
	}
}
