package main

import (
	"context"
	"testing"

	"github.com/signalsfoundry/deskernel/internal/logging"
	"github.com/signalsfoundry/deskernel/kernel"
)

func TestParseBackend(t *testing.T) {
	cases := map[string]kernel.SchedulerBackend{
		"list": kernel.SchedulerBackendList,
		"heap": kernel.SchedulerBackendHeap,
		"map":  kernel.SchedulerBackendMap,
	}
	for name, want := range cases {
		got, err := parseBackend(name)
		if err != nil {
			t.Fatalf("parseBackend(%q) returned error: %v", name, err)
		}
		if got != want {
			t.Fatalf("parseBackend(%q) = %v, want %v", name, got, want)
		}
	}

	if _, err := parseBackend("bogus"); err == nil {
		t.Fatal("expected an error for an unknown backend name")
	}
}

// TestScheduleDemo exercises the basic-dispatch scenario the demo
// embedder sets up: only B and D ever fire.
func TestScheduleDemo(t *testing.T) {
	engine := kernel.NewEngine()
	log := logging.Noop()
	ctx := context.Background()

	scheduleDemo(engine, log, ctx)
	engine.Run()

	if !engine.IsFinished() {
		t.Fatal("expected engine to drain all events")
	}
}
