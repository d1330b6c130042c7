package jobs

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/matchthumb/pkg/errors"
	"github.com/matzehuels/matchthumb/pkg/observability"
)

// Options configures a Dispatcher.
type Options struct {
	Workers   int // defaults to 1
	QueueSize int // defaults to 16
	Logger    *log.Logger
}

type task struct {
	ctx  context.Context
	job  *Job
	done chan Job
}

// Dispatcher runs jobs on a fixed pool of workers.
//
// Jobs are not ordered against each other. A running job is never
// interrupted: workers detach from the submitter's context, so a client
// that goes away does not leave a half-written thumbnail behind.
type Dispatcher struct {
	composer Composer
	trimmer  Trimmer
	store    Store
	logger   *log.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan task
	wg     sync.WaitGroup
}

// NewDispatcher starts the workers. composer or trimmer may be nil when the
// corresponding job part is never submitted; such a part then fails.
func NewDispatcher(composer Composer, trimmer Trimmer, store Store, opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 16
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if store == nil {
		store = NewMemoryStore()
	}

	d := &Dispatcher{
		composer: composer,
		trimmer:  trimmer,
		store:    store,
		logger:   opts.Logger,
		queue:    make(chan task, opts.QueueSize),
	}
	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Submit queues spec and returns the queued job. The finished job is sent on
// the returned channel exactly once. Submit blocks while the queue is full,
// until ctx is done.
func (d *Dispatcher) Submit(ctx context.Context, spec Spec) (Job, <-chan Job, error) {
	job := newJob(spec)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return Job{}, nil, errors.New(errors.ErrCodeInternal, "dispatcher is closed")
	}

	if err := d.store.Set(ctx, job); err != nil {
		return Job{}, nil, err
	}

	queued := *job
	done := make(chan Job, 1)
	select {
	case d.queue <- task{ctx: context.WithoutCancel(ctx), job: job, done: done}:
	case <-ctx.Done():
		_ = d.store.Delete(context.WithoutCancel(ctx), job.ID)
		return Job{}, nil, ctx.Err()
	}

	d.logger.Debug("job queued", "id", job.ID)
	observability.Jobs().OnJobQueued(ctx, job.ID)
	return queued, done, nil
}

// Get returns the current state of a job.
func (d *Dispatcher) Get(ctx context.Context, id string) (*Job, error) {
	return d.store.Get(ctx, id)
}

// Close stops accepting jobs, waits for queued jobs to finish and closes the store.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	return d.store.Close()
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for t := range d.queue {
		t.done <- d.run(t.ctx, t.job)
		close(t.done)
	}
}

// run executes one job and records every state change in the store.
func (d *Dispatcher) run(ctx context.Context, job *Job) Job {
	job.Status = StatusRunning
	job.StartedAt = time.Now().UTC()
	d.save(ctx, job)

	msg, err := d.execute(ctx, job)
	job.FinishedAt = time.Now().UTC()
	if err != nil {
		job.Status = StatusFailed
		job.Message = errors.UserMessage(err)
		d.logger.Error("job failed", "id", job.ID, "err", err)
	} else {
		job.Status = StatusDone
		job.Message = msg
		d.logger.Info(msg, "id", job.ID, "duration", job.FinishedAt.Sub(job.StartedAt))
	}
	d.save(ctx, job)
	observability.Jobs().OnJobFinished(ctx, job.ID, job.Status == StatusFailed, job.FinishedAt.Sub(job.StartedAt))
	return *job
}

// execute composes and then trims, building the completion message as it goes:
// "Finished generating thumbnail and generating video!".
func (d *Dispatcher) execute(ctx context.Context, job *Job) (string, error) {
	var msg strings.Builder
	msg.WriteString("Finished")

	if job.Thumbnail != nil {
		if d.composer == nil {
			return "", errors.New(errors.ErrCodeUnsupported, "thumbnail generation is not available")
		}
		result, err := d.composer.Compose(ctx, *job.Thumbnail)
		if err != nil {
			return "", err
		}
		job.Output = result.Output
		job.Digest = result.Digest
		msg.WriteString(" generating thumbnail")
		if job.Video != nil {
			msg.WriteString(" and")
		}
	}

	if job.Video != nil {
		if d.trimmer == nil {
			return "", errors.New(errors.ErrCodeUnsupported, "video trimming is not available")
		}
		if err := d.trimmer.Trim(ctx, *job.Video); err != nil {
			return "", err
		}
		msg.WriteString(" generating video")
	}

	msg.WriteByte('!')
	return msg.String(), nil
}

func (d *Dispatcher) save(ctx context.Context, job *Job) {
	if err := d.store.Set(ctx, job); err != nil {
		d.logger.Warn("failed to record job state", "id", job.ID, "status", job.Status, "err", err)
	}
}
