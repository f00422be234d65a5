package kernel

// EventKey is the scheduler's total order key: ns ascending, ties broken by
// uid ascending. uid is the monotonically increasing counter assigned at
// schedule time, so ties can only happen between events scheduled for the
// exact same simulated instant, and the one scheduled earlier always sorts
// first.
type EventKey struct {
	Ns  uint64
	Uid uint32
}

// Less reports whether k sorts strictly before other.
func (k EventKey) Less(other EventKey) bool {
	if k.Ns != other.Ns {
		return k.Ns < other.Ns
	}
	return k.Uid < other.Uid
}

// EventImpl is the owned, heap-allocated container for a one-shot closure.
// It is created by Schedule, owned by the scheduler until dispatched or
// removed, and destroyed immediately after Invoke (or after Cancel, at its
// scheduled instant).
type EventImpl struct {
	fn        func()
	cancelled bool

	// scheduledAt is the exact, un-truncated instant this event was
	// scheduled for. The scheduler orders purely by EventKey (nanosecond
	// granularity), but Engine.Now() needs full HighPrecision
	// resolution during dispatch, so the engine carries it alongside the
	// event rather than through the scheduler.
	scheduledAt Time

	// back is an opaque handle a scheduler backend may use to accelerate
	// remove-by-id. Its concrete type is backend-specific (e.g. the
	// *heapEntry holding the event's current slice index for the heap
	// backend) and is never inspected outside the backend that set it.
	back any
}

func newEventImpl(fn func()) *EventImpl {
	return &EventImpl{fn: fn}
}

// Invoke runs the closure unless the event has been cancelled. It is a
// no-op, not an error, to invoke a cancelled event.
func (e *EventImpl) Invoke() {
	if e.cancelled {
		return
	}
	e.fn()
}

// Cancel idempotently marks the event so Invoke becomes a no-op. The event
// is not removed from its scheduler; it still occupies a slot until its
// scheduled instant arrives.
func (e *EventImpl) Cancel() {
	e.cancelled = true
}

// IsCancelled reports whether Cancel has been called.
func (e *EventImpl) IsCancelled() bool {
	return e.cancelled
}

// EventId is a lightweight, copyable, non-owning handle returned by
// Schedule. A zero-value EventId is "null" and is always expired.
type EventId struct {
	impl *EventImpl
	key  EventKey
}

// IsNull reports whether this is a default-constructed, never-scheduled id.
func (id EventId) IsNull() bool {
	return id.impl == nil
}

// Key returns the (ns, uid) this id was scheduled under.
func (id EventId) Key() EventKey {
	return id.key
}

// Uid returns the uid component of the id's key.
func (id EventId) Uid() uint32 {
	return id.key.Uid
}
