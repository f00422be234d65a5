package kernel

import (
	"bytes"
	"testing"
)

func TestEngineDispatchOrder(t *testing.T) {
	e := NewEngine()
	var order []int
	e.Schedule(NanoSeconds(30), func() { order = append(order, 30) })
	e.Schedule(NanoSeconds(10), func() { order = append(order, 10) })
	e.Schedule(NanoSeconds(20), func() { order = append(order, 20) })
	e.Run()

	want := []int{10, 20, 30}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestEngineScheduleNowOrdersAfterSameInstant(t *testing.T) {
	e := NewEngine()
	var order []string
	e.Schedule(ZeroTime, func() {
		order = append(order, "first")
		e.ScheduleNow(func() { order = append(order, "second") })
	})
	e.Run()
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("order = %v, want [first second]", order)
	}
}

func TestEngineNowDuringDispatch(t *testing.T) {
	e := NewEngine()
	var observed Time
	e.Schedule(NanoSeconds(42), func() { observed = e.Now() })
	e.Run()
	if got := observed.ApproximateNanoSeconds(); got != 42 {
		t.Fatalf("Now() during dispatch = %dns, want 42ns", got)
	}
}

func TestEngineCancelPreventsInvoke(t *testing.T) {
	e := NewEngine()
	ran := false
	id := e.Schedule(NanoSeconds(10), func() { ran = true })
	e.Cancel(id)
	e.Run()
	if ran {
		t.Error("cancelled event should not run")
	}
}

func TestEngineCancelIsIdempotentAndSafeOnNull(t *testing.T) {
	e := NewEngine()
	var null EventId
	e.Cancel(null) // must not panic

	id := e.Schedule(NanoSeconds(1), func() {})
	e.Cancel(id)
	e.Cancel(id) // must not panic
}

func TestEngineRemoveDropsEventWithoutRunning(t *testing.T) {
	e := NewEngine()
	ran := false
	id := e.Schedule(NanoSeconds(10), func() { ran = true })
	if err := e.Remove(id); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	e.Run()
	if ran {
		t.Error("removed event should not run")
	}
}

func TestEngineRemoveAlreadyDispatchedIsNotFound(t *testing.T) {
	e := NewEngine()
	id := e.Schedule(NanoSeconds(1), func() {})
	e.Run()
	if err := e.Remove(id); err != ErrNotFound {
		t.Fatalf("Remove after dispatch = %v, want ErrNotFound", err)
	}
}

func TestEngineRemoveNullPanics(t *testing.T) {
	e := NewEngine()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic removing a null id")
		}
	}()
	var null EventId
	e.Remove(null)
}

func TestEngineScheduleNegativeDelayPanics(t *testing.T) {
	e := NewEngine()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic scheduling a negative delay")
		}
		if _, ok := r.(preconditionError); !ok {
			t.Fatalf("expected preconditionError, got %T", r)
		}
	}()
	e.Schedule(NanoSeconds(-1), func() {})
}

func TestEngineStopEndsLoopAfterCurrentEvent(t *testing.T) {
	e := NewEngine()
	var ran []int
	e.Schedule(NanoSeconds(10), func() { ran = append(ran, 1) })
	e.Schedule(NanoSeconds(20), func() {
		ran = append(ran, 2)
		e.Stop()
	})
	e.Schedule(NanoSeconds(30), func() { ran = append(ran, 3) })
	e.Run()

	if len(ran) != 2 || ran[0] != 1 || ran[1] != 2 {
		t.Fatalf("ran = %v, want [1 2]", ran)
	}
}

func TestEngineStopAtBoundsDispatch(t *testing.T) {
	e := NewEngine()
	var ran []int
	e.Schedule(NanoSeconds(10), func() { ran = append(ran, 1) })
	e.Schedule(NanoSeconds(20), func() { ran = append(ran, 2) })
	e.Schedule(NanoSeconds(30), func() { ran = append(ran, 3) })
	e.StopAt(NanoSeconds(20))
	e.Run()

	if len(ran) != 2 || ran[0] != 1 || ran[1] != 2 {
		t.Fatalf("ran = %v, want [1 2]", ran)
	}
}

func TestEngineIsFinished(t *testing.T) {
	e := NewEngine()
	if !e.IsFinished() {
		t.Fatal("fresh engine should report finished")
	}
	e.Schedule(NanoSeconds(10), func() {})
	if e.IsFinished() {
		t.Fatal("engine with a pending event should not report finished")
	}
	e.Run()
	if !e.IsFinished() {
		t.Fatal("engine should report finished after draining all events")
	}
}

func TestEngineIsExpired(t *testing.T) {
	e := NewEngine()
	var null EventId
	if !e.IsExpired(null) {
		t.Error("null id should always be expired")
	}

	id := e.Schedule(NanoSeconds(10), func() {})
	if e.IsExpired(id) {
		t.Error("id should not be expired before dispatch")
	}
	e.Run()
	if !e.IsExpired(id) {
		t.Error("id should be expired after dispatch")
	}
}

func TestEngineSetSchedulerAfterScheduleIsConfigConflict(t *testing.T) {
	e := NewEngine()
	e.Schedule(NanoSeconds(1), func() {})
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic changing scheduler after first use")
		}
		if _, ok := r.(configConflictError); !ok {
			t.Fatalf("expected configConflictError, got %T", r)
		}
	}()
	e.SetScheduler(SchedulerBackendList)
}

func TestEngineSetSchedulerFactoryWins(t *testing.T) {
	e := NewEngine()
	built := false
	e.SetSchedulerFactory(func() Scheduler {
		built = true
		return NewScheduler(SchedulerBackendMap)
	})
	e.Schedule(NanoSeconds(1), func() {})
	if !built {
		t.Fatal("external scheduler factory was never invoked")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic calling SetScheduler after an external factory was installed")
		}
	}()
	e.SetScheduler(SchedulerBackendHeap)
}

func TestEngineScheduleDestroyRunsOnDestroy(t *testing.T) {
	e := NewEngine()
	var order []int
	e.ScheduleDestroy(func() { order = append(order, 1) })
	e.ScheduleDestroy(func() { order = append(order, 2) })
	e.Run()
	if len(order) != 0 {
		t.Fatalf("destroy closures must not run during Run, got %v", order)
	}
	e.Destroy()
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("order = %v, want [1 2]", order)
	}
}

func TestEngineDestroyDiscardsRemainingEventsWithoutRunningThem(t *testing.T) {
	e := NewEngine()
	ran := false
	e.Schedule(NanoSeconds(1_000_000), func() { ran = true })
	e.Destroy()
	if ran {
		t.Fatal("Destroy must not dispatch remaining events")
	}
	if !e.IsFinished() {
		t.Fatal("engine should be empty after Destroy")
	}
}

func TestEngineDestroyResetsToIdle(t *testing.T) {
	e := NewEngine()
	e.Schedule(NanoSeconds(1), func() {})
	e.Destroy()
	if e.State() != StateIdle {
		t.Fatalf("State() after Destroy = %v, want idle", e.State())
	}
	// Engine must be reusable after Destroy.
	ran := false
	e.Schedule(NanoSeconds(1), func() { ran = true })
	e.Run()
	if !ran {
		t.Error("engine should be reusable after Destroy")
	}
}

func TestEngineLogFormat(t *testing.T) {
	e := NewEngine()
	var buf bytes.Buffer
	e.logWriter = &buf

	id := e.Schedule(NanoSeconds(10), func() {})
	e.Run()
	if err := e.Remove(id); err != ErrNotFound {
		t.Fatalf("Remove after dispatch = %v, want ErrNotFound", err)
	}

	got := buf.String()
	wantInsert := "i 0 0 0 10\n"
	wantExec := "e 0 10\n"
	if got != wantInsert+wantExec {
		t.Fatalf("log = %q, want %q", got, wantInsert+wantExec)
	}
}
