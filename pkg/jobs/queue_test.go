package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsJobs(t *testing.T) {
	done := make(chan string, 2)
	q := NewQueue("exports", func(_ context.Context, job Job) error {
		done <- job.ID
		return nil
	}, QueueConfig{Workers: 2})

	require.Error(t, q.Enqueue(Job{ID: "early"}))

	q.Start(context.Background())
	defer q.Stop()
	require.NoError(t, q.Enqueue(Job{ID: "a"}))
	require.NoError(t, q.Enqueue(Job{ID: "b"}))

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-done:
			got[id] = true
		case <-time.After(2 * time.Second):
			t.Fatal("job not processed")
		}
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, got)
	assert.Equal(t, "exports", q.Name())
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	done := make(chan int, 1)
	q := NewQueue("exports", func(_ context.Context, job Job) error {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			return errors.New("backend down")
		}
		done <- job.Attempt
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "retry"}))
	select {
	case attempt := <-done:
		assert.Equal(t, 2, attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
}

func TestQueueRecoversFromPanics(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("exports", func(context.Context, Job) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			panic("boom")
		}
		close(done)
		return nil
	}, QueueConfig{RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "panics"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried after panic")
	}
}

func TestQueueStopIsIdempotent(t *testing.T) {
	q := NewQueue("exports", func(context.Context, Job) error { return nil }, QueueConfig{})
	q.Stop()
	q.Start(context.Background())
	q.Stop()
	assert.Equal(t, 0, q.Pending())
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveJob(_ string, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) snapshot() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.outcomes...)
}

func TestQueueReportsOutcomes(t *testing.T) {
	observer := &recordingObserver{}
	q := NewQueue("exports", func(context.Context, Job) error {
		return errors.New("pdf renderer failed")
	}, QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond, Observer: observer})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "doomed"}))
	require.Eventually(t, func() bool { return len(observer.snapshot()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{OutcomeRetried, OutcomeGaveUp}, observer.snapshot())
}

func TestQueueRejectsJobsAfterStop(t *testing.T) {
	q := NewQueue("exports", func(context.Context, Job) error { return nil }, QueueConfig{})

	err := q.Enqueue(Job{ID: "early"})
	assert.ErrorIs(t, err, ErrNotStarted)

	q.Start(context.Background())
	q.Stop()
	q.Start(context.Background())

	err = q.Enqueue(Job{ID: "late"})
	assert.ErrorIs(t, err, ErrStopped)
}
