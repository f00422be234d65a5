package kernel

// Scheduler is the pluggable priority-queue contract every backend (List,
// Heap, Map) satisfies identically. Exactly one backend is active per
// Engine. Implementations are not safe for concurrent use; the
// engine is the only caller, and it is single-threaded by design (see
// Engine).
type Scheduler interface {
	// Insert takes ownership of event, stores it under key, and returns a
	// handle identifying it.
	Insert(event *EventImpl, key EventKey) EventId

	// IsEmpty reports whether the scheduler holds no events.
	IsEmpty() bool

	// Len reports the number of events currently held.
	Len() int

	// PeekNext returns the earliest event without removing it. Precondition:
	// !IsEmpty().
	PeekNext() *EventImpl

	// PeekNextKey returns the key of the earliest event. Precondition:
	// !IsEmpty().
	PeekNextKey() EventKey

	// RemoveNext extracts and returns the earliest event, transferring
	// ownership to the caller. Precondition: !IsEmpty().
	RemoveNext() (*EventImpl, EventKey)

	// Remove extracts the event identified by id. Precondition: id
	// identifies an event currently held. Returns ErrNotFound otherwise.
	Remove(id EventId) (*EventImpl, EventKey, error)

	// IsValid reports whether id still identifies an event currently held.
	IsValid(id EventId) bool
}

// SchedulerBackend names one of the three interchangeable Scheduler
// implementations built into this package.
type SchedulerBackend int

const (
	// SchedulerBackendList is an O(n)-insert, O(1)-pop ordered list; best
	// for tiny queues.
	SchedulerBackendList SchedulerBackend = iota
	// SchedulerBackendHeap is an O(log n) binary heap; the general-purpose
	// default.
	SchedulerBackendHeap
	// SchedulerBackendMap is an O(log n) ordered tree (backed by a B-tree)
	// with stable in-order iteration internally; the Scheduler interface
	// itself offers no way to walk the queue.
	SchedulerBackendMap
)

// NewScheduler constructs a fresh, empty Scheduler for the given backend.
func NewScheduler(backend SchedulerBackend) Scheduler {
	switch backend {
	case SchedulerBackendList:
		return newListScheduler()
	case SchedulerBackendHeap:
		return newHeapScheduler()
	case SchedulerBackendMap:
		return newMapScheduler()
	default:
		panicConfigConflict("unknown scheduler backend")
		return nil
	}
}
