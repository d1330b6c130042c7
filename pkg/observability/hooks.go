// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through the registered hooks; the defaults do
// nothing. Register hooks once at startup, before any composition runs:
//
//	counters := &observability.Counters{}
//	observability.SetPipelineHooks(counters)
//	observability.SetCacheHooks(counters)
//	observability.SetJobHooks(counters)
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnComposeStart(ctx, sprite1, sprite2)
//	// ... compose ...
//	observability.Pipeline().OnComposeComplete(ctx, layers, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// Cache kinds reported to CacheHooks.
const (
	CacheImage = "image"
	CacheText  = "text"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from compositions and video trims.
type PipelineHooks interface {
	OnComposeStart(ctx context.Context, sprite1, sprite2 string)
	OnComposeComplete(ctx context.Context, layers int, duration time.Duration, err error)
	OnTrimComplete(ctx context.Context, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from the image and text caches.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, kind string)
	OnCacheMiss(ctx context.Context, kind string)

	// OnCachePurge reports entries dropped after a configuration reload.
	OnCachePurge(ctx context.Context, kind string, entries int)
}

// =============================================================================
// Job Hooks
// =============================================================================

// JobHooks receives job lifecycle events.
type JobHooks interface {
	OnJobQueued(ctx context.Context, id string)
	OnJobFinished(ctx context.Context, id string, failed bool, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnComposeStart(context.Context, string, string)                {}
func (NoopPipelineHooks) OnComposeComplete(context.Context, int, time.Duration, error) {}
func (NoopPipelineHooks) OnTrimComplete(context.Context, time.Duration, error)         {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)        {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)       {}
func (NoopCacheHooks) OnCachePurge(context.Context, string, int) {}

// NoopJobHooks is a no-op implementation of JobHooks.
type NoopJobHooks struct{}

func (NoopJobHooks) OnJobQueued(context.Context, string)                       {}
func (NoopJobHooks) OnJobFinished(context.Context, string, bool, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	jobHooks      JobHooks      = NoopJobHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks. nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetJobHooks registers custom job hooks. nil is ignored.
func SetJobHooks(h JobHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		jobHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Jobs returns the registered job hooks.
func Jobs() JobHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return jobHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	jobHooks = NoopJobHooks{}
}
