// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup
// to receive events about compilation, rendering, cache operations, telemetry
// correlation and the debugger connection.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so libraries never import
// an observability backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetTelemetryHooks(&myTelemetryHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnCompileStart(ctx, source)
//	// ... compile ...
//	observability.Pipeline().OnCompileComplete(ctx, source, nodeCount, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the check and render pipeline.
type PipelineHooks interface {
	// Compile events
	OnCompileStart(ctx context.Context, source string)
	OnCompileComplete(ctx context.Context, source string, nodeCount int, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
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
// Telemetry Hooks
// =============================================================================

// TelemetryHooks receives events from telemetry correlation.
type TelemetryHooks interface {
	// OnBatch records one split sample batch.
	OnBatch(ctx context.Context, graph string, samples, ports, skipped int)

	// OnPublish records a frame handed to a publisher.
	OnPublish(ctx context.Context, channel string, err error)
}

// =============================================================================
// Debugger Hooks
// =============================================================================

// DebuggerHooks receives events from the debugger connection.
type DebuggerHooks interface {
	// OnRequest records an outgoing request.
	OnRequest(ctx context.Context, feature, command string, seq int64)

	// OnResponse records a response matched to a pending request.
	OnResponse(ctx context.Context, feature, command string, seq int64, duration time.Duration)

	// OnEvent records an event pushed by the runtime.
	OnEvent(ctx context.Context, event string)

	// OnError records a transport failure.
	OnError(ctx context.Context, target string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnCompileStart(context.Context, string) {}
func (NoopPipelineHooks) OnCompileComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopTelemetryHooks is a no-op implementation of TelemetryHooks.
type NoopTelemetryHooks struct{}

func (NoopTelemetryHooks) OnBatch(context.Context, string, int, int, int) {}
func (NoopTelemetryHooks) OnPublish(context.Context, string, error)       {}

// NoopDebuggerHooks is a no-op implementation of DebuggerHooks.
type NoopDebuggerHooks struct{}

func (NoopDebuggerHooks) OnRequest(context.Context, string, string, int64)                 {}
func (NoopDebuggerHooks) OnResponse(context.Context, string, string, int64, time.Duration) {}
func (NoopDebuggerHooks) OnEvent(context.Context, string)                                  {}
func (NoopDebuggerHooks) OnError(context.Context, string, error)                           {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks  PipelineHooks  = NoopPipelineHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	telemetryHooks TelemetryHooks = NoopTelemetryHooks{}
	debuggerHooks  DebuggerHooks  = NoopDebuggerHooks{}
	hooksMu        sync.RWMutex
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

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetTelemetryHooks registers custom telemetry hooks.
func SetTelemetryHooks(h TelemetryHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		telemetryHooks = h
	}
}

// SetDebuggerHooks registers custom debugger hooks.
func SetDebuggerHooks(h DebuggerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		debuggerHooks = h
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

// Telemetry returns the registered telemetry hooks.
func Telemetry() TelemetryHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return telemetryHooks
}

// Debugger returns the registered debugger hooks.
func Debugger() DebuggerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return debuggerHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	telemetryHooks = NoopTelemetryHooks{}
	debuggerHooks = NoopDebuggerHooks{}
}
