package kernel

import "container/list"

// listEntry is the payload stored in each container/list.Element.
type listEntry struct {
	key   EventKey
	event *EventImpl
}

// listScheduler keeps events in a container/list.List sorted by key,
// inserting each new event at its ordered position. It is the simplest
// backend: O(n) insert, but O(1) pop-next and O(1) remove-by-id once the
// element is known, since EventImpl.back holds the *list.Element directly.
type listScheduler struct {
	l *list.List
}

func newListScheduler() *listScheduler {
	return &listScheduler{l: list.New()}
}

func (s *listScheduler) Insert(event *EventImpl, key EventKey) EventId {
	for e := s.l.Front(); e != nil; e = e.Next() {
		entry := e.Value.(*listEntry)
		if key.Less(entry.key) {
			elem := s.l.InsertBefore(&listEntry{key: key, event: event}, e)
			event.back = elem
			return EventId{impl: event, key: key}
		}
	}
	elem := s.l.PushBack(&listEntry{key: key, event: event})
	event.back = elem
	return EventId{impl: event, key: key}
}

func (s *listScheduler) IsEmpty() bool {
	return s.l.Len() == 0
}

func (s *listScheduler) Len() int {
	return s.l.Len()
}

func (s *listScheduler) PeekNext() *EventImpl {
	if s.IsEmpty() {
		panicPrecondition("PeekNext on empty scheduler")
	}
	return s.l.Front().Value.(*listEntry).event
}

func (s *listScheduler) PeekNextKey() EventKey {
	if s.IsEmpty() {
		panicPrecondition("PeekNextKey on empty scheduler")
	}
	return s.l.Front().Value.(*listEntry).key
}

func (s *listScheduler) RemoveNext() (*EventImpl, EventKey) {
	if s.IsEmpty() {
		panicPrecondition("RemoveNext on empty scheduler")
	}
	front := s.l.Front()
	entry := s.l.Remove(front).(*listEntry)
	entry.event.back = nil
	return entry.event, entry.key
}

func (s *listScheduler) Remove(id EventId) (*EventImpl, EventKey, error) {
	if id.impl == nil || id.impl.back == nil {
		return nil, EventKey{}, ErrNotFound
	}
	elem, ok := id.impl.back.(*list.Element)
	if !ok {
		return nil, EventKey{}, ErrNotFound
	}
	entry := s.l.Remove(elem).(*listEntry)
	entry.event.back = nil
	return entry.event, entry.key, nil
}

func (s *listScheduler) IsValid(id EventId) bool {
	if id.impl == nil {
		return false
	}
	elem, ok := id.impl.back.(*list.Element)
	return ok && elem != nil
}
