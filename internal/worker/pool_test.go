package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"scraper-service/internal/extract"
	"scraper-service/internal/models"
	"scraper-service/internal/queue"
	"scraper-service/internal/store"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

// gate is a controllable extractor: every call signals started, then
// blocks until released or the context is cancelled.
type gate struct {
	started chan string
	release chan error
}

func newGate() *gate {
	return &gate{started: make(chan string, 16), release: make(chan error)}
}

func (g *gate) Extract(ctx context.Context, creds extract.Credentials) (json.RawMessage, error) {
	g.started <- creds.Email
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-g.release:
		if err != nil {
			return nil, err
		}
		return json.RawMessage(`{"done":true}`), nil
	}
}

func enqueue(t *testing.T, st *store.Store, q *queue.Queue, id, email string) {
	t.Helper()
	st.CreateJob(id, q.Depth())
	require.NoError(t, q.Push(models.JobPayload{JobID: id, Email: email, Password: "pw", ExcludeNickname: "nick"}))
}

func waitStatus(t *testing.T, st *store.Store, id, status string) models.JobRecord {
	t.Helper()
	var rec models.JobRecord
	require.Eventually(t, func() bool {
		var ok bool
		rec, ok = st.GetJob(id)
		return ok && rec.Status == status
	}, 2*time.Second, 5*time.Millisecond, "job %s never reached %s", id, status)
	return rec
}

func TestConcurrencyCeiling(t *testing.T) {
	st := store.New(0)
	q := queue.New(10)
	g := newGate()
	pool := New(2, q, st, g)

	enqueue(t, st, q, "job-1", "one@example.com")
	enqueue(t, st, q, "job-2", "two@example.com")
	enqueue(t, st, q, "job-3", "three@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer stopCancel()
		_ = pool.Stop(stopCtx)
	}()

	// Exactly two extractions begin; the third job stays queued.
	<-g.started
	<-g.started
	waitStatus(t, st, "job-1", models.StatusRunning)
	waitStatus(t, st, "job-2", models.StatusRunning)

	time.Sleep(50 * time.Millisecond)
	rec, ok := st.GetJob("job-3")
	require.True(t, ok)
	require.Equal(t, models.StatusQueued, rec.Status)
	select {
	case <-g.started:
		t.Fatal("third extraction started while both workers were busy")
	default:
	}

	// Releasing one running job frees a worker for the third.
	g.release <- nil
	<-g.started
	waitStatus(t, st, "job-3", models.StatusRunning)

	done := 0
	for _, id := range []string{"job-1", "job-2"} {
		if r, _ := st.GetJob(id); r.Status == models.StatusSucceeded {
			done++
			require.JSONEq(t, `{"done":true}`, string(r.Result))
		}
	}
	require.Equal(t, 1, done, "exactly one job should have completed")

	g.release <- nil
	g.release <- nil
}

func TestExtractionFailureRecorded(t *testing.T) {
	st := store.New(0)
	q := queue.New(10)
	pool := New(1, q, st, extract.Func(func(ctx context.Context, creds extract.Credentials) (json.RawMessage, error) {
		return nil, errors.New("auth failed")
	}))

	enqueue(t, st, q, "job-1", "user@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	rec := waitStatus(t, st, "job-1", models.StatusFailed)
	require.Equal(t, "auth failed", rec.Error)
	require.Nil(t, rec.Result)
	require.True(t, rec.HasDuration)
	require.False(t, rec.FinishedAt.Before(rec.StartedAt))
	require.False(t, rec.StartedAt.Before(rec.SubmittedAt))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, pool.Stop(stopCtx))
}

func TestShutdownCancelsInFlight(t *testing.T) {
	st := store.New(0)
	q := queue.New(10)
	g := newGate()
	pool := New(1, q, st, g)

	enqueue(t, st, q, "job-1", "user@example.com")

	pool.Start(context.Background())
	<-g.started

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, pool.Stop(stopCtx))

	rec, ok := st.GetJob("job-1")
	require.True(t, ok)
	require.Equal(t, models.StatusCancelled, rec.Status)
	require.Equal(t, CancelledMessage, rec.Error)
	require.False(t, rec.FinishedAt.IsZero())
}

func TestStartIdempotentAndRestartable(t *testing.T) {
	st := store.New(0)
	q := queue.New(10)
	ok := extract.Func(func(ctx context.Context, creds extract.Credentials) (json.RawMessage, error) {
		return json.RawMessage(`{}`), nil
	})
	pool := New(2, q, st, ok)

	ctx := context.Background()
	pool.Start(ctx)
	pool.Start(ctx) // no-op

	enqueue(t, st, q, "job-1", "user@example.com")
	waitStatus(t, st, "job-1", models.StatusSucceeded)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, pool.Stop(stopCtx))
	require.NoError(t, pool.Stop(stopCtx), "stopping a stopped pool is a no-op")

	// A stopped pool can be started again and keeps processing.
	pool.Start(ctx)
	enqueue(t, st, q, "job-2", "user@example.com")
	waitStatus(t, st, "job-2", models.StatusSucceeded)
	require.NoError(t, pool.Stop(stopCtx))
}

func TestOrphanPayloadSkipped(t *testing.T) {
	st := store.New(0)
	q := queue.New(10)
	var calls sync.Map
	pool := New(1, q, st, extract.Func(func(ctx context.Context, creds extract.Credentials) (json.RawMessage, error) {
		calls.Store(creds.Email, true)
		return json.RawMessage(`{}`), nil
	}))

	// No record exists for this payload; the worker must drop it
	// without invoking the extractor.
	require.NoError(t, q.Push(models.JobPayload{JobID: "ghost", Email: "ghost@example.com"}))
	enqueue(t, st, q, "job-1", "real@example.com")

	pool.Start(context.Background())
	waitStatus(t, st, "job-1", models.StatusSucceeded)

	_, ghostCalled := calls.Load("ghost@example.com")
	require.False(t, ghostCalled)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, pool.Stop(stopCtx))
}
