package recorder

import (
	"time"

	"LPSentinel/internal/model"
)

// CycleEvent summarizes one monitor cycle.
type CycleEvent struct {
	CycleID      string
	At           time.Time
	UniverseSize int
	Posted       bool
	Degraded     int
	Reselected   bool
	Tracked      int
	Error        string
}

// SelectionEvent records a posted pick set.
type SelectionEvent struct {
	CycleID string
	At      time.Time
	Trigger model.TriggerType
	Picks   []model.Pick
}

// AlertEvent records the pools that failed health checks in one cycle.
type AlertEvent struct {
	CycleID  string
	At       time.Time
	Degraded []model.Degradation
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordCycle(evt *CycleEvent) error
	RecordSelection(evt *SelectionEvent) error
	RecordAlert(evt *AlertEvent) error
	Close() error
}
