package mailqueue

import (
	"context"
	"sync"

	"github.com/redmonkez12/go-contacts-api/internal/logging"
)

// Queue is an in-process worker pool fed by a buffered channel.
type Queue struct {
	sender   Sender
	logger   *logging.Logger
	recorder Recorder
	jobs     chan Job
	workers  int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewQueue(sender Sender, workers, bufferSize int, logger *logging.Logger, recorder Recorder) *Queue {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if workers < 1 {
		workers = 1
	}

	return &Queue{
		sender:   sender,
		logger:   logger,
		recorder: recorder,
		jobs:     make(chan Job, bufferSize),
		workers:  workers,
	}
}

// Start launches the workers. They run until Shutdown.
func (q *Queue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(i)
	}
}

// Enqueue hands job to the pool without waiting for delivery.
// It never blocks: a full buffer yields ErrQueueFull.
func (q *Queue) Enqueue(_ context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		q.recorder.RecordEmailJob(OutcomeDropped)
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for queued ones to drain or ctx to expire.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) work(id int) {
	defer q.wg.Done()

	logger := q.logger.WithFields(map[string]any{"worker": id})
	ctx := logging.WithLogger(context.Background(), logger)

	for job := range q.jobs {
		if err := Deliver(ctx, q.sender, job); err != nil {
			// delivery is best effort; the user can ask for a new link
			logger.Warn("failed to send confirmation email", "email", job.To, "error", err)
			q.recorder.RecordEmailJob(OutcomeFailed)
			continue
		}
		q.recorder.RecordEmailJob(OutcomeSent)
	}
}
