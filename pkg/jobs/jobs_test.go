package jobs

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/matzehuels/matchthumb/pkg/errors"
	"github.com/matzehuels/matchthumb/pkg/pipeline"
	"github.com/matzehuels/matchthumb/pkg/video"
)

type fakeComposer struct {
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (f *fakeComposer) Compose(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.Result{Output: req.Output, Digest: "abc"}, nil
}

type fakeTrimmer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeTrimmer) Trim(ctx context.Context, req video.TrimRequest) error {
	f.calls.Add(1)
	return f.err
}

func quietOptions() Options {
	return Options{Workers: 2, Logger: log.New(io.Discard)}
}

func thumbnail() *pipeline.Request {
	return &pipeline.Request{Tournament: "Cup", Player1: "A", Player2: "B", Sprite1: "a.png", Sprite2: "b.png", Output: "out/Cup - A vs B.jpg"}
}

func trim() *video.TrimRequest {
	return &video.TrimRequest{Input: "in.mp4", Output: "out/Cup - A vs B.mp4", Start: "00:00:01", End: "00:00:02"}
}

func wait(t *testing.T, done <-chan Job) Job {
	t.Helper()
	select {
	case j := <-done:
		return j
	case <-time.After(5 * time.Second):
		t.Fatal("job did not finish")
		return Job{}
	}
}

func TestDispatcherMessages(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want string
	}{
		{"both", Spec{Thumbnail: thumbnail(), Video: trim()}, "Finished generating thumbnail and generating video!"},
		{"thumbnail only", Spec{Thumbnail: thumbnail()}, "Finished generating thumbnail!"},
		{"video only", Spec{Video: trim()}, "Finished generating video!"},
		{"nothing", Spec{}, "Finished!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(&fakeComposer{}, &fakeTrimmer{}, nil, quietOptions())
			defer d.Close()

			_, done, err := d.Submit(context.Background(), tt.spec)
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			got := wait(t, done)
			if got.Status != StatusDone {
				t.Errorf("Status = %s, want done", got.Status)
			}
			if got.Message != tt.want {
				t.Errorf("Message = %q, want %q", got.Message, tt.want)
			}
		})
	}
}

func TestDispatcherRecordsResult(t *testing.T) {
	store := NewMemoryStore()
	d := NewDispatcher(&fakeComposer{}, &fakeTrimmer{}, store, quietOptions())
	defer d.Close()

	queued, done, err := d.Submit(context.Background(), Spec{Thumbnail: thumbnail()})
	if err != nil {
		t.Fatal(err)
	}
	if queued.Status != StatusQueued {
		t.Errorf("queued Status = %s, want queued", queued.Status)
	}
	if _, err := uuid.Parse(queued.ID); err != nil {
		t.Errorf("ID %q is not a UUID: %v", queued.ID, err)
	}

	finished := wait(t, done)
	stored, err := d.Get(context.Background(), queued.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(finished, *stored); diff != "" {
		t.Errorf("stored job differs from delivered job (-delivered +stored):\n%s", diff)
	}
	if stored.Output != thumbnail().Output || stored.Digest != "abc" {
		t.Errorf("Output/Digest = %q/%q", stored.Output, stored.Digest)
	}
	if !stored.Done() || stored.StartedAt.IsZero() || stored.FinishedAt.Before(stored.StartedAt) {
		t.Errorf("timestamps not recorded: %+v", stored)
	}
}

func TestDispatcherFailures(t *testing.T) {
	composeErr := errors.New(errors.ErrCodeResourceLoad, "load image static/chars/chun.png")
	trimErr := errors.New(errors.ErrCodeExternalProcess, "trim in.mp4")

	tests := []struct {
		name         string
		composer     *fakeComposer
		trimmer      *fakeTrimmer
		spec         Spec
		want         string
		wantTrimRuns int32
	}{
		{
			name:     "compose fails",
			composer: &fakeComposer{err: composeErr},
			trimmer:  &fakeTrimmer{},
			spec:     Spec{Thumbnail: thumbnail(), Video: trim()},
			want:     "load image static/chars/chun.png",
		},
		{
			name:         "trim fails",
			composer:     &fakeComposer{},
			trimmer:      &fakeTrimmer{err: trimErr},
			spec:         Spec{Thumbnail: thumbnail(), Video: trim()},
			want:         "trim in.mp4",
			wantTrimRuns: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(tt.composer, tt.trimmer, nil, quietOptions())
			defer d.Close()

			_, done, err := d.Submit(context.Background(), tt.spec)
			if err != nil {
				t.Fatal(err)
			}
			got := wait(t, done)
			if got.Status != StatusFailed {
				t.Errorf("Status = %s, want failed", got.Status)
			}
			if got.Message != tt.want {
				t.Errorf("Message = %q, want %q", got.Message, tt.want)
			}
			if n := tt.trimmer.calls.Load(); n != tt.wantTrimRuns {
				t.Errorf("trimmer ran %d times, want %d", n, tt.wantTrimRuns)
			}
		})
	}
}

func TestDispatcherMissingCollaborator(t *testing.T) {
	d := NewDispatcher(&fakeComposer{}, nil, nil, quietOptions())
	defer d.Close()

	_, done, err := d.Submit(context.Background(), Spec{Video: trim()})
	if err != nil {
		t.Fatal(err)
	}
	if got := wait(t, done); got.Status != StatusFailed {
		t.Errorf("Status = %s, want failed", got.Status)
	}
}

func TestDispatcherIgnoresSubmitterCancellation(t *testing.T) {
	c := &fakeComposer{block: make(chan struct{})}
	d := NewDispatcher(c, nil, nil, quietOptions())
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	_, done, err := d.Submit(ctx, Spec{Thumbnail: thumbnail()})
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	close(c.block)

	if got := wait(t, done); got.Status != StatusDone {
		t.Errorf("Status = %s (%s), want done", got.Status, got.Message)
	}
}

func TestDispatcherConcurrentJobs(t *testing.T) {
	c := &fakeComposer{}
	d := NewDispatcher(c, nil, nil, Options{Workers: 4, QueueSize: 2, Logger: log.New(io.Discard)})

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, done, err := d.Submit(context.Background(), Spec{Thumbnail: thumbnail()})
			if err != nil {
				t.Errorf("Submit: %v", err)
				return
			}
			if got := <-done; got.Status != StatusDone {
				t.Errorf("Status = %s", got.Status)
			}
		}()
	}
	wg.Wait()

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := c.calls.Load(); got != n {
		t.Errorf("composer ran %d times, want %d", got, n)
	}
}

func TestDispatcherClose(t *testing.T) {
	d := NewDispatcher(&fakeComposer{}, nil, nil, quietOptions())
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, _, err := d.Submit(context.Background(), Spec{}); err == nil {
		t.Error("Submit after Close should fail")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Get(missing) err = %v, want NOT_FOUND", err)
	}

	j := newJob(Spec{Thumbnail: thumbnail()})
	if err := s.Set(ctx, j); err != nil {
		t.Fatal(err)
	}

	// Stored jobs are copies.
	j.Status = StatusRunning
	got, err := s.Get(ctx, j.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusQueued {
		t.Errorf("Status = %s, want queued", got.Status)
	}

	if err := s.Delete(ctx, j.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, j.ID); err != nil {
		t.Errorf("deleting a missing job: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestJobJSON(t *testing.T) {
	j := newJob(Spec{Video: trim()})
	data, err := json.Marshal(j)
	if err != nil {
		t.Fatal(err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "status", "video", "created_at"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing %q in %s", key, data)
		}
	}
	for _, key := range []string{"thumbnail", "started_at", "finished_at", "message"} {
		if _, ok := fields[key]; ok {
			t.Errorf("unexpected %q in %s", key, data)
		}
	}
}

func TestRedisStoreDefaults(t *testing.T) {
	s := newRedisStore(nil, RedisConfig{})
	if s.ttl != DefaultRedisTTL {
		t.Errorf("ttl = %v, want %v", s.ttl, DefaultRedisTTL)
	}
	if got, want := s.key("42"), "matchthumb:job:42"; got != want {
		t.Errorf("key = %q, want %q", got, want)
	}

	s = newRedisStore(nil, RedisConfig{TTL: time.Minute, Prefix: "test:"})
	if s.ttl != time.Minute || s.key("x") != "test:x" {
		t.Errorf("custom config not applied: ttl=%v key=%q", s.ttl, s.key("x"))
	}
}
