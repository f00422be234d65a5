package kernel

import "testing"

func TestEventKeyLess(t *testing.T) {
	a := EventKey{Ns: 10, Uid: 5}
	b := EventKey{Ns: 10, Uid: 6}
	c := EventKey{Ns: 11, Uid: 0}

	if !a.Less(b) {
		t.Error("same ns, lower uid should sort first")
	}
	if b.Less(a) {
		t.Error("same ns, higher uid should not sort first")
	}
	if !a.Less(c) {
		t.Error("lower ns should sort first regardless of uid")
	}
}

func TestEventImplInvoke(t *testing.T) {
	ran := false
	impl := newEventImpl(func() { ran = true })
	impl.Invoke()
	if !ran {
		t.Error("Invoke should run the closure")
	}
}

func TestEventImplCancelSkipsInvoke(t *testing.T) {
	ran := false
	impl := newEventImpl(func() { ran = true })
	impl.Cancel()
	if !impl.IsCancelled() {
		t.Error("IsCancelled should be true after Cancel")
	}
	impl.Invoke()
	if ran {
		t.Error("Invoke should be a no-op after Cancel")
	}
}

func TestEventImplCancelIdempotent(t *testing.T) {
	impl := newEventImpl(func() {})
	impl.Cancel()
	impl.Cancel()
	if !impl.IsCancelled() {
		t.Error("expected cancelled after repeated Cancel calls")
	}
}

func TestEventIdNull(t *testing.T) {
	var id EventId
	if !id.IsNull() {
		t.Error("zero-value EventId should be null")
	}

	impl := newEventImpl(func() {})
	key := EventKey{Ns: 1, Uid: 2}
	real := EventId{impl: impl, key: key}
	if real.IsNull() {
		t.Error("EventId built from a real impl should not be null")
	}
	if real.Uid() != 2 {
		t.Errorf("Uid() = %d, want 2", real.Uid())
	}
	if real.Key() != key {
		t.Errorf("Key() = %+v, want %+v", real.Key(), key)
	}
}
