// Package service owns the shared state of the scraper queue: the
// record store, the work queue, and the worker pool. It is the
// admission controller for new submissions and the read path for
// status queries.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"scraper-service/internal/config"
	"scraper-service/internal/extract"
	"scraper-service/internal/models"
	"scraper-service/internal/queue"
	"scraper-service/internal/store"
	"scraper-service/internal/telemetry"
	"scraper-service/internal/worker"
)

var (
	// ErrQueueFull rejects a submission when the queue depth has
	// reached the configured limit.
	ErrQueueFull = errors.New("scraper queue is currently full")

	// ErrNotFound covers both ids that were never issued and ids
	// whose records have been pruned; the two are indistinguishable.
	ErrNotFound = errors.New("job not found")
)

var validate = validator.New()

// ValidationError is a lightweight error used for 422 responses.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil || e.Reason == "" {
		return "validation failed"
	}
	return e.Reason
}

// SubmitParams are the raw inputs of one submission. Email and
// ExcludeNickname are trimmed before validation; Password is taken
// verbatim.
type SubmitParams struct {
	Email           string `validate:"required"`
	Password        string `validate:"required"`
	ExcludeNickname string `validate:"required"`
}

// Receipt is returned to the caller at enqueue time.
type Receipt struct {
	JobID          string    `json:"jobId"`
	Status         string    `json:"status"`
	SubmittedAt    time.Time `json:"submittedAt"`
	QueueSize      int       `json:"queueSize"`
	MaxConcurrency int       `json:"maxConcurrency"`
}

// SystemStatus is the point-in-time aggregate exposed on /api/system.
type SystemStatus struct {
	QueueSize      int `json:"queueSize"`
	Running        int `json:"running"`
	Completed      int `json:"completed"`
	Failed         int `json:"failed"`
	MaxConcurrency int `json:"maxConcurrency"`
}

// Service composes the store, queue, and pool around one Extractor.
type Service struct {
	cfg   config.Config
	store *store.Store
	queue *queue.Queue
	pool  *worker.Pool
}

// New wires the service from configuration and an extractor.
func New(cfg config.Config, ex extract.Extractor) *Service {
	st := store.New(cfg.MaxHistory)
	q := queue.New(cfg.QueueLimit)
	return &Service{
		cfg:   cfg,
		store: st,
		queue: q,
		pool:  worker.New(cfg.MaxConcurrency, q, st, ex),
	}
}

// Start launches the worker pool. Idempotent.
func (s *Service) Start(ctx context.Context) {
	s.pool.Start(ctx)
}

// Stop drains the worker pool, bounded by ctx.
func (s *Service) Stop(ctx context.Context) error {
	return s.pool.Stop(ctx)
}

// Submit admits a new job: validate, check the soft queue limit,
// create the queued record, and hand the payload to the queue.
//
// The depth check and the push are not atomic across concurrent
// submitters; the limit is best-effort backpressure, and the queue
// carries headroom to absorb bounded overshoot.
func (s *Service) Submit(params SubmitParams) (Receipt, error) {
	params.Email = strings.TrimSpace(params.Email)
	params.ExcludeNickname = strings.TrimSpace(params.ExcludeNickname)
	if err := validate.Struct(params); err != nil {
		telemetry.ValidationErrors.Inc()
		return Receipt{}, &ValidationError{Reason: "email, password, and excludeNickname are required"}
	}

	depth := s.queue.Depth()
	if s.cfg.QueueLimit > 0 && depth >= s.cfg.QueueLimit {
		telemetry.CapacityRejects.Inc()
		return Receipt{}, ErrQueueFull
	}

	id := uuid.New().String()
	rec := s.store.CreateJob(id, depth)
	s.store.Prune()

	err := s.queue.Push(models.JobPayload{
		JobID:           id,
		Email:           params.Email,
		Password:        params.Password,
		ExcludeNickname: params.ExcludeNickname,
	})
	if err != nil {
		s.store.Discard(id)
		telemetry.CapacityRejects.Inc()
		return Receipt{}, ErrQueueFull
	}

	telemetry.EnqueueCounter.Inc()
	telemetry.QueueDepthGauge.Set(float64(s.queue.Depth()))
	log.Info().
		Str("component", "service").
		Str("job_id", id).
		Int("queue_depth", depth).
		Msg("job enqueued")

	return Receipt{
		JobID:          id,
		Status:         rec.Status,
		SubmittedAt:    rec.SubmittedAt,
		QueueSize:      s.queue.Depth(),
		MaxConcurrency: s.cfg.MaxConcurrency,
	}, nil
}

// Job returns a snapshot of the record, or ErrNotFound.
func (s *Service) Job(id string) (models.Snapshot, error) {
	rec, ok := s.store.GetJob(id)
	if !ok {
		return models.Snapshot{}, ErrNotFound
	}
	return rec.Snapshot(s.queue.Depth()), nil
}

// Status scans the store for per-status tallies.
func (s *Service) Status() SystemStatus {
	running, succeeded, failed := s.store.StatusCounts()
	return SystemStatus{
		QueueSize:      s.queue.Depth(),
		Running:        running,
		Completed:      succeeded,
		Failed:         failed,
		MaxConcurrency: s.cfg.MaxConcurrency,
	}
}

// QueueDepth reports the number of pending payloads.
func (s *Service) QueueDepth() int {
	return s.queue.Depth()
}

// Config returns the service configuration.
func (s *Service) Config() config.Config {
	return s.cfg
}
