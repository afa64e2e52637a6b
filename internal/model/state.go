package model

import "time"

// MonitorState is the persisted process state: when the last scheduled
// post went out and which pools are currently recommended.
type MonitorState struct {
	LastPostAt *time.Time     `json:"last_post_at"`
	Current    []PoolSnapshot `json:"current_recs"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Clone returns a deep copy so callers can mutate freely.
func (s *MonitorState) Clone() *MonitorState {
	out := &MonitorState{UpdatedAt: s.UpdatedAt}
	if s.LastPostAt != nil {
		t := *s.LastPostAt
		out.LastPostAt = &t
	}
	if s.Current != nil {
		out.Current = make([]PoolSnapshot, len(s.Current))
		copy(out.Current, s.Current)
	}
	return out
}

// Degradation is a tracked pool that failed one or more health rules.
type Degradation struct {
	Snapshot PoolSnapshot
	Reasons  []string
}

// TriggerType indicates why a selection was posted.
type TriggerType string

const (
	TriggerScheduled TriggerType = "SCHEDULED"
	TriggerForced    TriggerType = "FORCED"
	TriggerRefresh   TriggerType = "REFRESH"
)
