package store

import (
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"scraper-service/internal/models"
)

// Store keeps job records and submission history in memory. All
// methods are safe for concurrent use; records handed out are copies.
//
// History is the submission-ordered list of job ids and exists only to
// drive pruning: once the retained record count exceeds maxHistory,
// the oldest terminal records are evicted front-first. A maxHistory of
// 0 disables pruning entirely.
type Store struct {
	mu         sync.RWMutex
	records    map[string]*models.JobRecord
	history    []string
	maxHistory int
}

// New creates an empty store with the given retention cap.
func New(maxHistory int) *Store {
	return &Store{
		records:    make(map[string]*models.JobRecord),
		maxHistory: maxHistory,
	}
}

// CreateJob inserts a fresh queued record and appends it to history.
func (s *Store) CreateJob(id string, queueDepth int) models.JobRecord {
	now := time.Now().UTC()
	rec := &models.JobRecord{
		ID:                 id,
		Status:             models.StatusQueued,
		SubmittedAt:        now,
		LastUpdated:        now,
		QueueSizeOnEnqueue: queueDepth,
	}
	s.mu.Lock()
	s.records[id] = rec
	s.history = append(s.history, id)
	s.mu.Unlock()
	return *rec
}

// GetJob returns a copy of the record, or false if the id was never
// issued or has been pruned. The two cases are indistinguishable.
func (s *Store) GetJob(id string) (models.JobRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return models.JobRecord{}, false
	}
	return *rec, true
}

// MarkRunning transitions a queued record to running and stamps the
// worker identity and queue depth. It reports false when the record is
// missing or not in the queued state.
func (s *Store) MarkRunning(id string, worker int, queueDepth int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok || rec.Status != models.StatusQueued {
		return false
	}
	now := time.Now().UTC()
	rec.Status = models.StatusRunning
	rec.StartedAt = now
	rec.LastUpdated = now
	rec.AssignedWorker = worker
	rec.QueueSizeWhenStarted = queueDepth
	return true
}

// MarkSucceeded finalizes a running record with its result payload.
func (s *Store) MarkSucceeded(id string, result json.RawMessage) {
	s.finalize(id, models.StatusSucceeded, result, "")
}

// MarkFailed finalizes a running record with a failure message.
func (s *Store) MarkFailed(id string, message string) {
	s.finalize(id, models.StatusFailed, nil, message)
}

// MarkCancelled finalizes a record interrupted by shutdown. Unlike the
// other terminal transitions it is also legal from the queued state,
// covering jobs drained without ever being dispatched.
func (s *Store) MarkCancelled(id string, message string) {
	s.finalize(id, models.StatusCancelled, nil, message)
}

func (s *Store) finalize(id, status string, result json.RawMessage, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok || models.IsTerminal(rec.Status) {
		return
	}
	if status != models.StatusCancelled && rec.Status != models.StatusRunning {
		return
	}
	now := time.Now().UTC()
	rec.Status = status
	rec.Result = result
	rec.Error = message
	rec.FinishedAt = now
	if !rec.StartedAt.IsZero() {
		seconds := now.Sub(rec.StartedAt).Seconds()
		rec.DurationSeconds = math.Round(seconds*1000) / 1000
		rec.HasDuration = true
	}
	rec.LastUpdated = now
}

// Prune evicts the oldest terminal records while the retained count
// exceeds the configured cap. Eviction is strictly front-first: the
// first non-terminal entry stops the sweep, so a live job is never
// deleted out from under a worker.
func (s *Store) Prune() {
	if s.maxHistory <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for len(s.history) > s.maxHistory {
		oldest := s.history[0]
		rec, ok := s.records[oldest]
		if ok && !models.IsTerminal(rec.Status) {
			break
		}
		s.history = s.history[1:]
		delete(s.records, oldest)
		evicted++
	}
	if evicted > 0 {
		log.Debug().
			Str("component", "store").
			Int("evicted", evicted).
			Int("retained", len(s.history)).
			Msg("pruned job history")
	}
}

// Discard removes a record and its history entry. It backs out a
// submission whose payload could not be handed to the queue.
func (s *Store) Discard(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	for i, h := range s.history {
		if h == id {
			s.history = append(s.history[:i], s.history[i+1:]...)
			break
		}
	}
}

// StatusCounts tallies records by status with a full scan. The result
// is a point-in-time aggregate and may lag jobs transitioning mid-scan.
func (s *Store) StatusCounts() (running, succeeded, failed int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		switch rec.Status {
		case models.StatusRunning:
			running++
		case models.StatusSucceeded:
			succeeded++
		case models.StatusFailed:
			failed++
		}
	}
	return running, succeeded, failed
}

// Len returns the number of retained records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
