package kernel

import "github.com/google/btree"

// btreeDegree is the B-tree branching factor; 32 is a reasonable default for
// in-memory ordered sets of this size (the library's own examples use the
// same order of magnitude).
const btreeDegree = 32

// mapItem adapts (EventKey, *EventImpl) to btree.Item. Keys are unique by
// construction (uid is a process-wide monotonic counter), so the tree never
// needs to disambiguate equal items.
type mapItem struct {
	key   EventKey
	event *EventImpl
}

func (m *mapItem) Less(than btree.Item) bool {
	return m.key.Less(than.(*mapItem).key)
}

// mapScheduler is the stable-iteration backend: an ordered tree (via
// github.com/google/btree) instead of a hand-rolled balanced tree, giving
// genuine O(log n) insert/delete/min without maintaining custom rotation
// logic.
type mapScheduler struct {
	t *btree.BTree
	n int
}

func newMapScheduler() *mapScheduler {
	return &mapScheduler{t: btree.New(btreeDegree)}
}

func (s *mapScheduler) Insert(event *EventImpl, key EventKey) EventId {
	s.t.ReplaceOrInsert(&mapItem{key: key, event: event})
	s.n++
	return EventId{impl: event, key: key}
}

func (s *mapScheduler) IsEmpty() bool {
	return s.n == 0
}

func (s *mapScheduler) Len() int {
	return s.n
}

func (s *mapScheduler) PeekNext() *EventImpl {
	if s.IsEmpty() {
		panicPrecondition("PeekNext on empty scheduler")
	}
	return s.t.Min().(*mapItem).event
}

func (s *mapScheduler) PeekNextKey() EventKey {
	if s.IsEmpty() {
		panicPrecondition("PeekNextKey on empty scheduler")
	}
	return s.t.Min().(*mapItem).key
}

func (s *mapScheduler) RemoveNext() (*EventImpl, EventKey) {
	if s.IsEmpty() {
		panicPrecondition("RemoveNext on empty scheduler")
	}
	item := s.t.DeleteMin().(*mapItem)
	s.n--
	return item.event, item.key
}

func (s *mapScheduler) Remove(id EventId) (*EventImpl, EventKey, error) {
	removed := s.t.Delete(&mapItem{key: id.key})
	if removed == nil {
		return nil, EventKey{}, ErrNotFound
	}
	s.n--
	item := removed.(*mapItem)
	return item.event, item.key, nil
}

func (s *mapScheduler) IsValid(id EventId) bool {
	return s.t.Get(&mapItem{key: id.key}) != nil
}
