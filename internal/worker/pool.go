package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"scraper-service/internal/extract"
	"scraper-service/internal/queue"
	"scraper-service/internal/store"
	"scraper-service/internal/telemetry"
)

// CancelledMessage is recorded on jobs interrupted by shutdown.
const CancelledMessage = "worker stopped during execution"

// Pool runs a fixed set of workers consuming the work queue. Each
// worker holds a stable identity 1..N for the lifetime of a Start.
type Pool struct {
	size      int
	queue     *queue.Queue
	store     *store.Store
	extractor extract.Extractor

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New builds a pool of size workers. Sizes below 1 are clamped to 1.
func New(size int, q *queue.Queue, st *store.Store, ex extract.Extractor) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{size: size, queue: q, store: st, extractor: ex}
}

// Size returns the configured worker count.
func (p *Pool) Size() int {
	return p.size
}

// Start spawns the workers. Calling Start on a running pool is a no-op.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}

	workerCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	for i := 1; i <= p.size; i++ {
		p.wg.Add(1)
		go p.run(workerCtx, i)
	}
	p.started = true
	log.Info().
		Str("component", "worker").
		Int("workers", p.size).
		Msg("worker pool started")
}

// Stop cancels all workers and waits for them to exit, bounded by ctx.
// A stopped pool can be started again.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	p.cancel()
	p.started = false
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Str("component", "worker").Msg("worker pool stopped")
		return nil
	case <-ctx.Done():
		log.Warn().Str("component", "worker").Msg("worker pool shutdown timed out")
		return ctx.Err()
	}
}

// run is one worker's loop: block on the queue, execute, record the
// outcome, prune, repeat until cancellation.
func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	logger := log.With().Str("component", "worker").Int("worker_id", id).Logger()
	logger.Debug().Msg("worker started")

	for {
		payload, err := p.queue.Pop(ctx)
		if err != nil {
			logger.Debug().Msg("worker stopping")
			return
		}
		telemetry.QueueDepthGauge.Set(float64(p.queue.Depth()))

		// A missing record means the job was pruned before dispatch,
		// which pruning rules forbid for live jobs; drop it and move on.
		if ok := p.store.MarkRunning(payload.JobID, id, p.queue.Depth()); !ok {
			logger.Warn().Str("job_id", payload.JobID).Msg("dequeued payload without a record")
			continue
		}
		telemetry.RunningGauge.Inc()

		result, err := p.extractor.Extract(ctx, extract.Credentials{
			Email:           payload.Email,
			Password:        payload.Password,
			ExcludeNickname: payload.ExcludeNickname,
		})
		switch {
		case err != nil && ctx.Err() != nil:
			p.store.MarkCancelled(payload.JobID, CancelledMessage)
			telemetry.JobsCancelled.Inc()
			telemetry.RunningGauge.Dec()
			p.store.Prune()
			logger.Info().Str("job_id", payload.JobID).Msg("job cancelled during shutdown")
			return
		case err != nil:
			p.store.MarkFailed(payload.JobID, err.Error())
			telemetry.JobsFailed.Inc()
			logger.Info().Str("job_id", payload.JobID).Err(err).Msg("job failed")
		default:
			p.store.MarkSucceeded(payload.JobID, result)
			telemetry.JobsSucceeded.Inc()
			logger.Info().Str("job_id", payload.JobID).Msg("job succeeded")
		}
		telemetry.RunningGauge.Dec()
		p.store.Prune()
	}
}
