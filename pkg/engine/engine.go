// Package engine drives a core.Context from a host loop: it queues work for
// the UI goroutine, runs render passes on demand, records frame timings and
// serves a small HTTP debug endpoint.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-drift/kayak/pkg/core"
	"github.com/go-drift/kayak/pkg/errors"
)

const defaultFrameInterval = 16667 * time.Microsecond

// Option configures a Runner.
type Option func(*Runner)

// WithInterval sets how often Run polls for work when nothing wakes it.
func WithInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithFrameTrace sets the capacity of the frame trace ring buffer and the
// duration above which a frame counts as dropped.
func WithFrameTrace(capacity int, threshold time.Duration) Option {
	return func(r *Runner) {
		r.trace = NewFrameTraceBuffer(capacity, threshold)
	}
}

// Runner owns the frame loop of one core.Context.
type Runner struct {
	ctx      *core.Context
	interval time.Duration
	trace    *FrameTraceBuffer

	// frameLock serializes StepFrame.
	frameLock sync.Mutex
	frames    atomic.Int64

	dispatchMu    sync.Mutex
	dispatchQueue []func()

	pendingFrameRequest atomic.Bool
	wake                chan struct{}
}

// NewRunner creates a runner for kctx and registers itself as the context's
// needs-render callback.
func NewRunner(kctx *core.Context, opts ...Option) *Runner {
	r := &Runner{
		ctx:      kctx,
		interval: defaultFrameInterval,
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.trace == nil {
		r.trace = NewFrameTraceBuffer(0, 0)
	}
	kctx.SetOnNeedsRender(r.notify)
	return r
}

// Context returns the driven context.
func (r *Runner) Context() *core.Context {
	return r.ctx
}

// Dispatch schedules fn to run on the UI goroutine before the next render
// pass. It is safe to call from any goroutine.
func (r *Runner) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	r.dispatchMu.Lock()
	r.dispatchQueue = append(r.dispatchQueue, fn)
	r.dispatchMu.Unlock()
	r.notify()
}

// RequestFrame asks for a frame even if nothing is dirty.
func (r *Runner) RequestFrame() {
	r.pendingFrameRequest.Store(true)
	r.notify()
}

// NeedsFrame reports whether StepFrame has work to do.
func (r *Runner) NeedsFrame() bool {
	r.dispatchMu.Lock()
	hasCallbacks := len(r.dispatchQueue) > 0
	r.dispatchMu.Unlock()
	return hasCallbacks || r.pendingFrameRequest.Load() || r.ctx.NeedsRender()
}

func (r *Runner) notify() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Runner) drainDispatchQueue() []func() {
	r.dispatchMu.Lock()
	callbacks := r.dispatchQueue
	r.dispatchQueue = nil
	r.dispatchMu.Unlock()
	return callbacks
}

// StepFrame runs queued callbacks, then renders every dirty node, and
// records the frame in the trace.
func (r *Runner) StepFrame() FrameSample {
	r.frameLock.Lock()
	defer r.frameLock.Unlock()

	start := time.Now()
	sample := FrameSample{
		Frame:     r.frames.Add(1),
		Timestamp: start.UnixMilli(),
	}
	r.pendingFrameRequest.Store(false)

	callbacks := r.drainDispatchQueue()
	for _, fn := range callbacks {
		runDispatched(fn)
	}
	sample.Counts.Dispatched = len(callbacks)
	renderStart := time.Now()
	sample.Phases.DispatchMs = durationToMillis(renderStart.Sub(start))

	stats := r.ctx.RenderRoot()
	sample.Phases.RenderMs = durationToMillis(time.Since(renderStart))
	sample.Counts.Rendered = stats.Rendered
	sample.Counts.Failed = stats.Failed
	sample.Counts.Removed = stats.Removed
	sample.Counts.Skipped = stats.Skipped
	sample.Counts.Batches = stats.Batches
	r.ctx.Inspect(func(tree *core.WidgetTree) {
		sample.Counts.Nodes = tree.Len()
	})

	frameDuration := time.Since(start)
	sample.FrameMs = durationToMillis(frameDuration)
	r.trace.Add(sample, frameDuration)
	return sample
}

func runDispatched(fn func()) {
	defer errors.Recover("engine.Dispatch")
	fn()
}

// Run steps frames whenever work arrives until ctx is done. It returns
// ctx.Err().
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if r.NeedsFrame() {
			r.StepFrame()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.wake:
		case <-ticker.C:
		}
	}
}

// Trace returns the recorded frame timeline.
func (r *Runner) Trace() FrameTimeline {
	return r.trace.Snapshot()
}

// Frames returns the number of frames stepped so far.
func (r *Runner) Frames() int64 {
	return r.frames.Load()
}
