package models

import (
	"encoding/json"
	"time"
)

// JobStatus enumerates the lifecycle states of a scrape job.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	switch status {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// JobRecord tracks one scrape job from submission to eviction.
// Status only moves forward along queued -> running -> terminal;
// Result and Error are mutually exclusive and both empty while the
// job is non-terminal.
type JobRecord struct {
	ID                   string
	Status               string
	SubmittedAt          time.Time
	StartedAt            time.Time
	FinishedAt           time.Time
	LastUpdated          time.Time
	AssignedWorker       int
	QueueSizeOnEnqueue   int
	QueueSizeWhenStarted int
	Result               json.RawMessage
	Error                string
	DurationSeconds      float64
	HasDuration          bool
}

// Snapshot is the external projection of a JobRecord. Fields with no
// value yet are omitted; JobID and QueueSize are always present.
type Snapshot struct {
	JobID                string          `json:"jobId"`
	Status               string          `json:"status"`
	SubmittedAt          time.Time       `json:"submittedAt"`
	StartedAt            *time.Time      `json:"startedAt,omitempty"`
	FinishedAt           *time.Time      `json:"finishedAt,omitempty"`
	LastUpdated          *time.Time      `json:"lastUpdated,omitempty"`
	AssignedWorker       *int            `json:"assignedWorker,omitempty"`
	QueueSizeOnEnqueue   int             `json:"queueSizeOnEnqueue"`
	QueueSizeWhenStarted *int            `json:"queueSizeWhenStarted,omitempty"`
	Result               json.RawMessage `json:"result,omitempty"`
	Error                string          `json:"error,omitempty"`
	DurationSeconds      *float64        `json:"durationSeconds,omitempty"`
	QueueSize            int             `json:"queueSize"`
}

// Snapshot projects the record into its response form with the given
// live queue depth.
func (r JobRecord) Snapshot(queueSize int) Snapshot {
	s := Snapshot{
		JobID:              r.ID,
		Status:             r.Status,
		SubmittedAt:        r.SubmittedAt,
		QueueSizeOnEnqueue: r.QueueSizeOnEnqueue,
		Result:             r.Result,
		Error:              r.Error,
		QueueSize:          queueSize,
	}
	if !r.StartedAt.IsZero() {
		t := r.StartedAt
		s.StartedAt = &t
		w := r.AssignedWorker
		s.AssignedWorker = &w
		q := r.QueueSizeWhenStarted
		s.QueueSizeWhenStarted = &q
	}
	if !r.FinishedAt.IsZero() {
		t := r.FinishedAt
		s.FinishedAt = &t
	}
	if !r.LastUpdated.IsZero() {
		t := r.LastUpdated
		s.LastUpdated = &t
	}
	if r.HasDuration {
		d := r.DurationSeconds
		s.DurationSeconds = &d
	}
	return s
}

// JobPayload is the immutable tuple carried through the work queue. It
// is owned by the queue until a worker dequeues it.
type JobPayload struct {
	JobID           string
	Email           string
	Password        string
	ExcludeNickname string
}
