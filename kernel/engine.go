package kernel

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// EngineState is the coarse state machine every Engine moves through.
type EngineState int

const (
	StateIdle EngineState = iota
	StateReady
	StateRunning
	StateStopped
)

func (s EngineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// EventHooks lets an embedder observe dispatch/cancel/remove/queue-depth
// activity without the kernel importing any metrics library directly; the
// observability package adapts this to Prometheus.
type EventHooks interface {
	OnDispatch(key EventKey, latency time.Duration)
	OnCancel(key EventKey)
	OnRemove(key EventKey)
	OnQueueDepth(depth int)
}

// SpanHooks lets an embedder wrap dispatch/run activity in tracing spans
// without the kernel importing OpenTelemetry directly. Each Start* call
// returns a function to invoke when the span should end.
type SpanHooks interface {
	StartDispatch(key EventKey) (end func())
	StartRun() (end func())
}

// EngineOption configures an Engine at construction time.
type EngineOption func(*Engine)

// WithLogWriter enables the i/e/r textual run log, writing to w.
func WithLogWriter(w io.Writer) EngineOption {
	return func(e *Engine) { e.logWriter = w }
}

// WithEventHooks wires metrics-style observation of engine activity.
func WithEventHooks(hooks EventHooks) EngineOption {
	return func(e *Engine) { e.hooks = hooks }
}

// WithSpanHooks wires tracing around dispatch and Run.
func WithSpanHooks(hooks SpanHooks) EngineOption {
	return func(e *Engine) { e.spans = hooks }
}

// WithSchedulerBackend selects one of the three built-in scheduler backends.
// Equivalent to calling SetScheduler immediately after construction.
func WithSchedulerBackend(backend SchedulerBackend) EngineOption {
	return func(e *Engine) { e.SetScheduler(backend) }
}

type destroyClosure struct {
	fn func()
}

// Engine is the discrete-event simulation kernel: it owns the scheduler,
// drives simulated time forward, and dispatches events. It is not safe for
// concurrent use from multiple goroutines *except* for the read-only
// Now/IsFinished/State accessors, which a supervising goroutine (e.g. a
// health check) may call while Run executes elsewhere; the state these
// three accessors read (currentNs, currentUid, currentTime, state,
// queueEmpty) is guarded by mu and only ever published to it by the single
// logical executor — IsFinished never touches the scheduler itself, which
// is not guarded and not safe for concurrent access. Schedule/Cancel/
// Remove/Run/Stop/StopAt/Destroy must all be called from that single
// logical executor, per the kernel's single-threaded, cooperative
// concurrency model.
type Engine struct {
	mu          sync.Mutex // guards currentNs, currentUid, currentTime, state, queueEmpty
	currentNs   uint64
	currentUid  uint32
	currentTime Time
	state       EngineState
	queueEmpty  bool

	scheduler       Scheduler
	schedulerChosen bool
	schedulerFactory func() Scheduler

	nextUid uint32

	stopRequested bool
	stopAtSet     bool
	stopAtNs      uint64

	destroyList []destroyClosure

	logWriter io.Writer
	hooks     EventHooks
	spans     SpanHooks
}

// NewEngine constructs an Engine. The scheduler backend defaults to the
// heap backend and is lazily created on first use unless overridden by
// WithSchedulerBackend or a prior call to SetScheduler/SetSchedulerFactory.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{queueEmpty: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetScheduler selects a built-in backend. It must be called before any
// event has been scheduled; doing so afterwards is a configuration
// conflict.
func (e *Engine) SetScheduler(backend SchedulerBackend) {
	e.setSchedulerFactory(func() Scheduler { return NewScheduler(backend) })
}

// SetSchedulerFactory installs an externally-constructed Scheduler. Once an
// external factory has been set, it is the one used to lazily create the
// active scheduler until Destroy, which clears it: later calls to
// SetScheduler are rejected as a configuration conflict rather than
// silently overriding it. This resolves
// an ambiguity in the source this kernel is modelled on, whose backend
// switch statement fell through from an "external" case to the default
// case without a break.
func (e *Engine) SetSchedulerFactory(factory func() Scheduler) {
	e.setSchedulerFactory(factory)
}

func (e *Engine) setSchedulerFactory(factory func() Scheduler) {
	if e.schedulerChosen {
		panicConfigConflict("scheduler backend already chosen")
	}
	e.schedulerFactory = factory
	e.schedulerChosen = true
}

func (e *Engine) ensureScheduler() {
	if e.scheduler != nil {
		return
	}
	if e.schedulerFactory == nil {
		e.schedulerFactory = func() Scheduler { return NewScheduler(SchedulerBackendHeap) }
		e.schedulerChosen = true
	}
	e.scheduler = e.schedulerFactory()
}

// Now returns the current simulated time. Inside a dispatched event it
// equals that event's scheduled instant, at full HighPrecision resolution
// (not truncated to the scheduler's nanosecond ordering key).
func (e *Engine) Now() Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentTime
}

// State reports the engine's current state-machine position.
func (e *Engine) State() EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsFinished reports whether the scheduler holds no more events. It reads a
// snapshot published under mu rather than the scheduler itself, so it is
// safe to call from a supervising goroutine while Run is dispatching on
// another.
func (e *Engine) IsFinished() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queueEmpty
}

// Schedule queues f to run at now()+delay. delay must be non-negative.
func (e *Engine) Schedule(delay Time, f func()) EventId {
	if delay.IsNegative() {
		panicPrecondition("negative delay")
	}
	return e.scheduleAt(e.Now().Add(delay), f)
}

// ScheduleNow queues f to run at the current simulated instant, after any
// already-queued events at that instant (its uid is strictly greater).
func (e *Engine) ScheduleNow(f func()) EventId {
	return e.scheduleAt(e.Now(), f)
}

func (e *Engine) scheduleAt(abs Time, f func()) EventId {
	e.ensureScheduler()

	ns := abs.ApproximateNanoSeconds()
	uid := e.nextUid
	e.nextUid++
	key := EventKey{Ns: ns, Uid: uid}

	impl := newEventImpl(f)
	impl.scheduledAt = abs

	e.mu.Lock()
	if e.state == StateIdle {
		e.state = StateReady
	}
	curUid, curNs := e.currentUid, e.currentNs
	e.mu.Unlock()

	id := e.scheduler.Insert(impl, key)

	e.mu.Lock()
	e.queueEmpty = e.scheduler.IsEmpty()
	e.mu.Unlock()

	if e.logWriter != nil {
		fmt.Fprintf(e.logWriter, "i %d %d %d %d\n", curUid, curNs, key.Uid, key.Ns)
	}
	if e.hooks != nil {
		e.hooks.OnQueueDepth(e.scheduler.Len())
	}
	return id
}

// EnableLogTo opens path and enables the i/e/r textual run log, appending
// if the file already exists. The returned error is from os.OpenFile.
func (e *Engine) EnableLogTo(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	e.logWriter = f
	return nil
}

// ScheduleDestroy registers f to run once, during Destroy, in the order
// ScheduleDestroy was called. Destroy-closures are never placed on the
// clock and never appear in the scheduler.
func (e *Engine) ScheduleDestroy(f func()) {
	e.destroyList = append(e.destroyList, destroyClosure{fn: f})
}

// Cancel idempotently marks the event so its closure will not run when
// popped. It is always safe to call, even with a null, already-expired, or
// already-cancelled id.
func (e *Engine) Cancel(id EventId) {
	if id.impl == nil {
		return
	}
	pending := !id.impl.IsCancelled() && e.scheduler != nil && e.scheduler.IsValid(id)
	id.impl.Cancel()
	if e.hooks != nil && pending {
		e.hooks.OnCancel(id.key)
	}
}

// Remove extracts the event and destroys it immediately without running
// its closure. Passing a null id (one never returned by Schedule) is a
// programmer error and panics; passing a real id whose event has already
// been dispatched or removed returns ErrNotFound.
func (e *Engine) Remove(id EventId) error {
	if id.impl == nil {
		panicPrecondition("remove of a null event id")
	}
	e.ensureScheduler()

	_, key, err := e.scheduler.Remove(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	curUid, curNs := e.currentUid, e.currentNs
	e.queueEmpty = e.scheduler.IsEmpty()
	e.mu.Unlock()

	if e.logWriter != nil {
		fmt.Fprintf(e.logWriter, "r %d %d %d %d\n", curUid, curNs, key.Uid, key.Ns)
	}
	if e.hooks != nil {
		e.hooks.OnRemove(key)
		e.hooks.OnQueueDepth(e.scheduler.Len())
	}
	return nil
}

// IsExpired reports whether id is null, or refers to an instant at or
// before the engine's current dispatch progress.
func (e *Engine) IsExpired(id EventId) bool {
	if id.impl == nil {
		return true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if id.key.Ns < e.currentNs {
		return true
	}
	return id.key.Ns == e.currentNs && id.key.Uid <= e.currentUid
}

// Stop requests that Run exit once the currently-dispatching event (if any)
// completes.
func (e *Engine) Stop() {
	e.stopRequested = true
}

// StopAt sets an absolute stop time: Run will exit before dispatching any
// event whose key time is strictly greater than t.
func (e *Engine) StopAt(t Time) {
	e.stopAtSet = true
	e.stopAtNs = t.ApproximateNanoSeconds()
}

// Run drives the dispatch loop: pop the earliest event, advance current
// time to its key, invoke it (a no-op if cancelled), destroy it, and repeat
// until the scheduler empties, Stop is called, or StopAt's bound is
// reached.
func (e *Engine) Run() {
	e.ensureScheduler()

	e.mu.Lock()
	e.state = StateRunning
	e.mu.Unlock()
	e.stopRequested = false

	var endRun func()
	if e.spans != nil {
		endRun = e.spans.StartRun()
	}

	for {
		empty := e.scheduler.IsEmpty()
		e.mu.Lock()
		e.queueEmpty = empty
		e.mu.Unlock()
		if empty {
			break
		}
		nextKey := e.scheduler.PeekNextKey()
		if e.stopAtSet && nextKey.Ns > e.stopAtNs {
			break
		}

		impl, key := e.scheduler.RemoveNext()

		e.mu.Lock()
		e.currentNs = key.Ns
		e.currentUid = key.Uid
		e.currentTime = impl.scheduledAt
		e.mu.Unlock()

		if e.logWriter != nil {
			fmt.Fprintf(e.logWriter, "e %d %d\n", key.Uid, key.Ns)
		}
		if e.hooks != nil {
			e.hooks.OnQueueDepth(e.scheduler.Len())
		}

		var endDispatch func()
		if e.spans != nil {
			endDispatch = e.spans.StartDispatch(key)
		}
		start := time.Now()
		impl.Invoke()
		latency := time.Since(start)
		if endDispatch != nil {
			endDispatch()
		}
		if e.hooks != nil {
			e.hooks.OnDispatch(key, latency)
		}

		if e.stopRequested {
			break
		}
	}

	if endRun != nil {
		endRun()
	}

	e.mu.Lock()
	e.queueEmpty = e.scheduler.IsEmpty()
	e.state = StateStopped
	e.mu.Unlock()
}

// Destroy drains the destroy-list (invoking each closure once, in
// insertion order), discards any remaining scheduled events without
// invoking them, releases the scheduler, and resets the engine to IDLE.
func (e *Engine) Destroy() {
	for _, d := range e.destroyList {
		d.fn()
	}
	e.destroyList = nil

	e.scheduler = nil
	e.schedulerFactory = nil
	e.schedulerChosen = false
	e.nextUid = 0
	e.stopRequested = false
	e.stopAtSet = false
	e.stopAtNs = 0

	e.mu.Lock()
	e.currentNs = 0
	e.currentUid = 0
	e.currentTime = ZeroTime
	e.state = StateIdle
	e.queueEmpty = true
	e.mu.Unlock()
}
