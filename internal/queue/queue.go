package queue

import (
	"context"
	"errors"

	"scraper-service/internal/models"
)

// ErrFull is returned when a push would exceed the queue's capacity.
var ErrFull = errors.New("work queue is full")

// Queue is an in-process FIFO of pending job payloads. Dequeue blocks
// the calling worker until an item arrives or its context is
// cancelled; Depth is a non-blocking point-in-time reading.
type Queue struct {
	items chan models.JobPayload
}

// New builds a queue sized to absorb the admission limit plus headroom
// for racing submitters. A limit of 0 disables admission control
// upstream, so the channel falls back to a generous fixed capacity.
func New(limit int) *Queue {
	capacity := 1024
	if limit > 0 {
		capacity = limit * 2
		if capacity < 64 {
			capacity = 64
		}
	}
	return &Queue{items: make(chan models.JobPayload, capacity)}
}

// Push appends a payload. It never blocks; a full channel means the
// soft admission limit has been overshot beyond the headroom, which is
// surfaced as ErrFull rather than stalling the submitter.
func (q *Queue) Push(p models.JobPayload) error {
	select {
	case q.items <- p:
		return nil
	default:
		return ErrFull
	}
}

// Pop blocks until a payload is available or ctx is cancelled.
func (q *Queue) Pop(ctx context.Context) (models.JobPayload, error) {
	select {
	case <-ctx.Done():
		return models.JobPayload{}, ctx.Err()
	case p := <-q.items:
		return p, nil
	}
}

// Depth returns the number of payloads currently waiting.
func (q *Queue) Depth() int {
	return len(q.items)
}
