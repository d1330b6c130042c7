package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// Counters implements every hook interface with in-process counters.
// The zero value is ready to use.
type Counters struct {
	composed      atomic.Int64
	composeFailed atomic.Int64
	trimmed       atomic.Int64
	trimFailed    atomic.Int64

	imageHits   atomic.Int64
	imageMisses atomic.Int64
	textHits    atomic.Int64
	textMisses  atomic.Int64
	purged      atomic.Int64

	queued   atomic.Int64
	finished atomic.Int64
	failed   atomic.Int64
}

// CounterSnapshot is a point-in-time copy of Counters.
type CounterSnapshot struct {
	Composed      int64 `json:"composed"`
	ComposeFailed int64 `json:"compose_failed"`
	Trimmed       int64 `json:"trimmed"`
	TrimFailed    int64 `json:"trim_failed"`
	ImageHits     int64 `json:"image_hits"`
	ImageMisses   int64 `json:"image_misses"`
	TextHits      int64 `json:"text_hits"`
	TextMisses    int64 `json:"text_misses"`
	Purged        int64 `json:"purged"`
	JobsQueued    int64 `json:"jobs_queued"`
	JobsFinished  int64 `json:"jobs_finished"`
	JobsFailed    int64 `json:"jobs_failed"`
}

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() CounterSnapshot {
	return CounterSnapshot{
		Composed:      c.composed.Load(),
		ComposeFailed: c.composeFailed.Load(),
		Trimmed:       c.trimmed.Load(),
		TrimFailed:    c.trimFailed.Load(),
		ImageHits:     c.imageHits.Load(),
		ImageMisses:   c.imageMisses.Load(),
		TextHits:      c.textHits.Load(),
		TextMisses:    c.textMisses.Load(),
		Purged:        c.purged.Load(),
		JobsQueued:    c.queued.Load(),
		JobsFinished:  c.finished.Load(),
		JobsFailed:    c.failed.Load(),
	}
}

func (c *Counters) OnComposeStart(context.Context, string, string) {}

func (c *Counters) OnComposeComplete(_ context.Context, _ int, _ time.Duration, err error) {
	if err != nil {
		c.composeFailed.Add(1)
		return
	}
	c.composed.Add(1)
}

func (c *Counters) OnTrimComplete(_ context.Context, _ time.Duration, err error) {
	if err != nil {
		c.trimFailed.Add(1)
		return
	}
	c.trimmed.Add(1)
}

func (c *Counters) OnCacheHit(_ context.Context, kind string) {
	switch kind {
	case CacheImage:
		c.imageHits.Add(1)
	case CacheText:
		c.textHits.Add(1)
	}
}

func (c *Counters) OnCacheMiss(_ context.Context, kind string) {
	switch kind {
	case CacheImage:
		c.imageMisses.Add(1)
	case CacheText:
		c.textMisses.Add(1)
	}
}

func (c *Counters) OnCachePurge(_ context.Context, _ string, entries int) {
	c.purged.Add(int64(entries))
}

func (c *Counters) OnJobQueued(context.Context, string) {
	c.queued.Add(1)
}

func (c *Counters) OnJobFinished(_ context.Context, _ string, failed bool, _ time.Duration) {
	c.finished.Add(1)
	if failed {
		c.failed.Add(1)
	}
}
