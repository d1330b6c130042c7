// Package jobs runs compositions and video trims on a worker pool.
//
// A control surface (TUI, HTTP API) submits one [Job] per user submission and
// receives the finished job on a channel, so it can keep its own event loop
// responsive while a composition runs. Job state is also written to a
// [Store], which lets the HTTP API answer status polls:
//   - memory: in-process map, for the CLI and tests
//   - redis: shared across API instances, entries expire after a TTL
//   - mongo: durable job history
//
// # Usage
//
//	d := jobs.NewDispatcher(runner, trimmer, jobs.NewMemoryStore(), jobs.Options{Workers: 2})
//	defer d.Close()
//
//	job, done, err := d.Submit(ctx, jobs.Spec{Thumbnail: &req})
//	if err != nil {
//	    return err
//	}
//	finished := <-done
//	fmt.Println(finished.Message) // "Finished generating thumbnail!"
package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/matchthumb/pkg/pipeline"
	"github.com/matzehuels/matchthumb/pkg/video"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Spec is what a job should do. Either part may be nil; a spec with neither
// finishes immediately.
type Spec struct {
	Thumbnail *pipeline.Request  `json:"thumbnail,omitempty"`
	Video     *video.TrimRequest `json:"video,omitempty"`
}

// Job is a submitted Spec and its outcome.
type Job struct {
	ID        string             `json:"id" bson:"_id"`
	Status    Status             `json:"status" bson:"status"`
	Message   string             `json:"message,omitempty" bson:"message,omitempty"`
	Thumbnail *pipeline.Request  `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
	Video     *video.TrimRequest `json:"video,omitempty" bson:"video,omitempty"`

	// Output and Digest describe the written thumbnail, if any.
	Output string `json:"output,omitempty" bson:"output,omitempty"`
	Digest string `json:"digest,omitempty" bson:"digest,omitempty"`

	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	StartedAt  time.Time `json:"started_at,omitzero" bson:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitzero" bson:"finished_at,omitempty"`
}

// Done reports whether the job reached a final state.
func (j *Job) Done() bool {
	return j.Status == StatusDone || j.Status == StatusFailed
}

// newJob creates a queued job for spec.
func newJob(spec Spec) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Thumbnail: spec.Thumbnail,
		Video:     spec.Video,
		CreatedAt: time.Now().UTC(),
	}
}

// Store persists job state.
type Store interface {
	// Get returns the job with id, or a NOT_FOUND error.
	Get(ctx context.Context, id string) (*Job, error)

	// Set creates or replaces a job.
	Set(ctx context.Context, job *Job) error

	// Delete removes a job. Deleting a missing job is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend connections.
	Close() error
}

// Composer writes a thumbnail. *pipeline.Runner implements it.
type Composer interface {
	Compose(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Trimmer cuts a video. *video.Trimmer implements it.
type Trimmer interface {
	Trim(ctx context.Context, req video.TrimRequest) error
}
