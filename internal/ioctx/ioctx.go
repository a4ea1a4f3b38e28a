// Package ioctx carries the mutable, single-threaded state that the spec's
// concurrency model forbids from living in package globals: a tick flag,
// progress counters, a debug bitmask and a logger. Every core operation
// that previously would have reached a global in the source this spec was
// distilled from instead takes an *IOContext parameter.
package ioctx

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Debug bitmask flags. Combine with bitwise OR.
const (
	DebugNone      uint32 = 0
	DebugNormalize uint32 = 1 << iota
	DebugImprint
	DebugGenerator
	DebugDepreciate
)

// Progress is the per-tick snapshot reported to a caller-supplied sink,
// per SPEC_FULL.md §12 ("Progress reporting cadence").
type Progress struct {
	SignaturesCreated  uint64
	ImprintsAdded      uint64
	MembersDepreciated uint64
	GeneratorPosition  uint64
}

// IOContext is threaded explicitly through every core operation. It owns
// no long-lived data tables; it only carries counters, the cancellation-
// free tick flag, and the logger. The zero value is usable except for
// Logger, which New sets (to a no-op logger when given nil).
type IOContext struct {
	Logger *zap.Logger
	Debug  uint32

	tickInterval time.Duration
	lastTick     atomic.Int64 // unix nanos
	tickDue      atomic.Bool

	sigCreated  atomic.Uint64
	impAdded    atomic.Uint64
	memDeprec   atomic.Uint64
	genPosition atomic.Uint64

	onProgress func(Progress)
}

// New builds an IOContext with the given logger and a default 1s
// progress tick, per §5 ("a coarse wall-clock tick, default 1 s").
func New(logger *zap.Logger) *IOContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &IOContext{Logger: logger, tickInterval: time.Second}
	c.lastTick.Store(time.Now().UnixNano())
	return c
}

// WithTick overrides the default progress-tick interval.
func (c *IOContext) WithTick(d time.Duration) *IOContext {
	c.tickInterval = d
	return c
}

// OnProgress registers a sink invoked at most once per tick interval from
// Poll. It is never invoked concurrently; Poll is expected to be called
// from the single core thread only.
func (c *IOContext) OnProgress(fn func(Progress)) *IOContext {
	c.onProgress = fn
	return c
}

// Poll is called between iterations of any long-running core loop. It is
// the only "suspension point" in the model: a flag read, never a yield to
// another goroutine. If the tick interval has elapsed, it fires the
// registered progress sink.
func (c *IOContext) Poll() {
	now := time.Now().UnixNano()
	last := c.lastTick.Load()
	if time.Duration(now-last) < c.tickInterval {
		return
	}
	if !c.lastTick.CompareAndSwap(last, now) {
		return
	}
	if c.onProgress != nil {
		c.onProgress(c.Snapshot())
	}
}

// Snapshot returns the current progress counters.
func (c *IOContext) Snapshot() Progress {
	return Progress{
		SignaturesCreated:  c.sigCreated.Load(),
		ImprintsAdded:      c.impAdded.Load(),
		MembersDepreciated: c.memDeprec.Load(),
		GeneratorPosition:  c.genPosition.Load(),
	}
}

// AddSignature increments the signatures-created counter.
func (c *IOContext) AddSignature(n uint64) { c.sigCreated.Add(n) }

// AddImprint increments the imprints-added counter.
func (c *IOContext) AddImprint(n uint64) { c.impAdded.Add(n) }

// AddDepreciated increments the members-depreciated counter.
func (c *IOContext) AddDepreciated(n uint64) { c.memDeprec.Add(n) }

// SetGeneratorPosition records the generator's current packed restart
// position, for progress reporting and for resuming after a crash.
func (c *IOContext) SetGeneratorPosition(pos uint64) { c.genPosition.Store(pos) }

// Debugf logs at debug level only when flag is set in c.Debug.
func (c *IOContext) Debugf(flag uint32, msg string, fields ...zap.Field) {
	if c.Debug&flag == 0 {
		return
	}
	c.Logger.Debug(msg, fields...)
}
