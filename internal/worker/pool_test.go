package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekodecrux/expertaitutor3-sub001/internal/worker"
)

type recordingJob struct {
	done chan struct{}
	once sync.Once
}

func (j *recordingJob) Name() string { return "recording" }

func (j *recordingJob) Run(ctx context.Context) error {
	j.once.Do(func() { close(j.done) })
	return nil
}

type blockingJob struct {
	release chan struct{}
}

func (j *blockingJob) Name() string { return "blocking" }

func (j *blockingJob) Run(ctx context.Context) error {
	select {
	case <-j.release:
	case <-ctx.Done():
	}
	return nil
}

func TestPool_RunsSubmittedJobs(t *testing.T) {
	pool := worker.NewPool(1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	job := &recordingJob{done: make(chan struct{})}
	require.True(t, pool.TrySubmit(job))

	select {
	case <-job.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not executed")
	}
}

func TestPool_TrySubmitFullQueue(t *testing.T) {
	pool := worker.NewPool(1, 1)
	// Not started, so the single queue slot fills and stays full.
	require.True(t, pool.TrySubmit(&recordingJob{done: make(chan struct{})}))
	assert.False(t, pool.TrySubmit(&recordingJob{done: make(chan struct{})}))
	assert.Equal(t, 1, pool.QueueSize())
}

func TestPool_SubmitAfterStopIsDropped(t *testing.T) {
	pool := worker.NewPool(1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	pool.Stop()

	// Neither call may panic once the pool has stopped.
	assert.False(t, pool.TrySubmit(&recordingJob{done: make(chan struct{})}))
	pool.Submit(&recordingJob{done: make(chan struct{})})
	assert.Zero(t, pool.QueueSize())
}

func TestPool_StopWaitsForInFlightJob(t *testing.T) {
	pool := worker.NewPool(1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	job := &blockingJob{release: make(chan struct{})}
	require.True(t, pool.TrySubmit(job))

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after cancellation")
	}
}
