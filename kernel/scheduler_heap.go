package kernel

import "container/heap"

// heapEntry is one slot of the binary heap. EventImpl.back points at this
// entry, whose index is kept current on every swap, so Remove(id) can locate
// it without scanning and remove it in O(log n), the same trick the pack's event-loop timer heaps use
// for cancellable timers.
type heapEntry struct {
	key   EventKey
	event *EventImpl
	index int
}

type eventHeap []*heapEntry

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool { return h[i].key.Less(h[j].key) }

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
	h[i].event.back = h[i]
	h[j].event.back = h[j]
}

func (h *eventHeap) Push(x any) {
	entry := x.(*heapEntry)
	entry.index = len(*h)
	*h = append(*h, entry)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	entry.index = -1
	return entry
}

// heapScheduler is the general-purpose backend: O(log n) insert, pop, and
// remove-by-id.
type heapScheduler struct {
	h eventHeap
}

func newHeapScheduler() *heapScheduler {
	return &heapScheduler{}
}

func (s *heapScheduler) Insert(event *EventImpl, key EventKey) EventId {
	entry := &heapEntry{key: key, event: event}
	event.back = entry
	heap.Push(&s.h, entry)
	return EventId{impl: event, key: key}
}

func (s *heapScheduler) IsEmpty() bool {
	return len(s.h) == 0
}

func (s *heapScheduler) Len() int {
	return len(s.h)
}

func (s *heapScheduler) PeekNext() *EventImpl {
	if s.IsEmpty() {
		panicPrecondition("PeekNext on empty scheduler")
	}
	return s.h[0].event
}

func (s *heapScheduler) PeekNextKey() EventKey {
	if s.IsEmpty() {
		panicPrecondition("PeekNextKey on empty scheduler")
	}
	return s.h[0].key
}

func (s *heapScheduler) RemoveNext() (*EventImpl, EventKey) {
	if s.IsEmpty() {
		panicPrecondition("RemoveNext on empty scheduler")
	}
	entry := heap.Pop(&s.h).(*heapEntry)
	entry.event.back = nil
	return entry.event, entry.key
}

func (s *heapScheduler) Remove(id EventId) (*EventImpl, EventKey, error) {
	entry, ok := s.backEntry(id)
	if !ok {
		return nil, EventKey{}, ErrNotFound
	}
	heap.Remove(&s.h, entry.index)
	entry.event.back = nil
	return entry.event, entry.key, nil
}

func (s *heapScheduler) IsValid(id EventId) bool {
	_, ok := s.backEntry(id)
	return ok
}

func (s *heapScheduler) backEntry(id EventId) (*heapEntry, bool) {
	if id.impl == nil {
		return nil, false
	}
	entry, ok := id.impl.back.(*heapEntry)
	if !ok || entry.index < 0 || entry.index >= len(s.h) || s.h[entry.index] != entry {
		return nil, false
	}
	return entry, true
}
