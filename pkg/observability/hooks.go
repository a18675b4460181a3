// Package observability provides hooks for metrics, tracing, and logging.
//
// Consumers register hook implementations at startup to receive events about
// pipeline stages, link routing, cache operations and worker requests. The
// library only ever calls the registered hooks, so it carries no dependency on
// a particular metrics or tracing backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRouteHooks(&myRouteHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Route().OnRouteStart(ctx, link.ID, "inherit")
//	// ... route ...
//	observability.Route().OnRouteComplete(ctx, link.ID, "inherit", paths, failures)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the layout pipeline.
type PipelineHooks interface {
	// Schema events
	OnParseStart(ctx context.Context, format, source string)
	OnParseComplete(ctx context.Context, format, source string, nodeCount int, duration time.Duration, err error)

	// Layout events. stage is "place", "route" or "focus".
	OnLayoutStart(ctx context.Context, stage string, nodeCount int)
	OnLayoutComplete(ctx context.Context, stage string, duration time.Duration, err error)
}

// =============================================================================
// Route Hooks
// =============================================================================

// RouteHooks receives events from the link routing orchestrator.
type RouteHooks interface {
	// OnRouteStart is called before a link is routed. class is "inherit",
	// "relation" or "self".
	OnRouteStart(ctx context.Context, linkID, class string)

	// OnRouteComplete reports the number of routed paths and failed branches.
	OnRouteComplete(ctx context.Context, linkID, class string, paths, failures int)

	// OnFallback is called when inheritance failures trigger the
	// alternative routing order.
	OnFallback(ctx context.Context, inheritFailures int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Worker Hooks
// =============================================================================

// WorkerHooks receives events from the layout worker.
type WorkerHooks interface {
	// OnRequest records an accepted request.
	OnRequest(ctx context.Context, method, messageID string)

	// OnResponse records a finished request.
	OnResponse(ctx context.Context, method, messageID string, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnParseStart(context.Context, string, string) {}
func (NoopPipelineHooks) OnParseComplete(context.Context, string, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnLayoutStart(context.Context, string, int)                     {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, string, time.Duration, error) {}

// NoopRouteHooks is a no-op implementation of RouteHooks.
type NoopRouteHooks struct{}

func (NoopRouteHooks) OnRouteStart(context.Context, string, string)              {}
func (NoopRouteHooks) OnRouteComplete(context.Context, string, string, int, int) {}
func (NoopRouteHooks) OnFallback(context.Context, int)                           {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopWorkerHooks is a no-op implementation of WorkerHooks.
type NoopWorkerHooks struct{}

func (NoopWorkerHooks) OnRequest(context.Context, string, string)                        {}
func (NoopWorkerHooks) OnResponse(context.Context, string, string, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	routeHooks    RouteHooks    = NoopRouteHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	workerHooks   WorkerHooks   = NoopWorkerHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetRouteHooks registers custom routing hooks.
func SetRouteHooks(h RouteHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		routeHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetWorkerHooks registers custom worker hooks.
func SetWorkerHooks(h WorkerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		workerHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Route returns the registered routing hooks.
func Route() RouteHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return routeHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Worker returns the registered worker hooks.
func Worker() WorkerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return workerHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	routeHooks = NoopRouteHooks{}
	cacheHooks = NoopCacheHooks{}
	workerHooks = NoopWorkerHooks{}
}
