package kernel

import "testing"

func TestEventCollectorTrackAndSweep(t *testing.T) {
	e := NewEngine()
	e.SetScheduler(SchedulerBackendHeap)
	c := NewEventCollector(e)

	var fired []int
	for i := 0; i < collectorStartThreshold; i++ {
		i := i
		id := e.Schedule(NanoSeconds(int64(i)), func() { fired = append(fired, i) })
		c.Track(id)
	}
	if c.Len() != collectorStartThreshold {
		t.Fatalf("Len() = %d, want %d", c.Len(), collectorStartThreshold)
	}

	e.Run()
	if len(fired) != collectorStartThreshold {
		t.Fatalf("expected all events to fire, got %d", len(fired))
	}

	// Every tracked id has now expired; the next Track should sweep them
	// all out before appending the new one.
	id := e.Schedule(NanoSeconds(1000), func() {})
	c.Track(id)
	if c.Len() != 1 {
		t.Fatalf("Len() after sweep = %d, want 1 (sweep should have dropped expired ids)", c.Len())
	}
}

func TestEventCollectorCancelAll(t *testing.T) {
	e := NewEngine()
	e.SetScheduler(SchedulerBackendHeap)
	c := NewEventCollector(e)

	var fired bool
	id := e.Schedule(NanoSeconds(100), func() { fired = true })
	c.Track(id)

	c.CancelAll()
	if c.Len() != 0 {
		t.Fatalf("Len() after CancelAll = %d, want 0", c.Len())
	}

	e.Run()
	if fired {
		t.Error("cancelled event should not have fired")
	}
}

func TestEventCollectorDrop(t *testing.T) {
	e := NewEngine()
	e.SetScheduler(SchedulerBackendHeap)
	c := NewEventCollector(e)

	var fired bool
	id := e.Schedule(NanoSeconds(100), func() { fired = true })
	c.Track(id)
	c.Drop()

	e.Run()
	if fired {
		t.Error("event tracked by a dropped collector should not fire")
	}
}
