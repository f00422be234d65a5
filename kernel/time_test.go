package kernel

import "testing"

func withFreshResolution(t *testing.T) {
	t.Helper()
	resetResolutionForTest()
	t.Cleanup(func() { resetResolutionForTest() })
}

func TestTimeDefaultResolutionIsNanoseconds(t *testing.T) {
	withFreshResolution(t)
	if CurrentResolution() != Nanoseconds {
		t.Fatalf("default resolution = %v, want Nanoseconds", CurrentResolution())
	}
}

func TestSetResolutionBeforeUse(t *testing.T) {
	withFreshResolution(t)
	SetResolution(Microseconds)
	if got := CurrentResolution(); got != Microseconds {
		t.Fatalf("CurrentResolution() = %v, want Microseconds", got)
	}
}

func TestSetResolutionAfterLockIsConfigConflict(t *testing.T) {
	withFreshResolution(t)
	_ = CurrentResolution() // locks it in

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic changing resolution after first use")
		}
		if _, ok := r.(configConflictError); !ok {
			t.Fatalf("expected configConflictError, got %T", r)
		}
	}()
	SetResolution(Picoseconds)
}

func TestTimeNanoSecondsRoundTrip(t *testing.T) {
	withFreshResolution(t)
	tm := NanoSeconds(1500)
	if got := tm.ApproximateNanoSeconds(); got != 1500 {
		t.Errorf("ApproximateNanoSeconds() = %d, want 1500", got)
	}
}

func TestTimeSecondsConversion(t *testing.T) {
	withFreshResolution(t)
	tm := Seconds(2)
	if got := tm.ApproximateNanoSeconds(); got != 2_000_000_000 {
		t.Errorf("2s in ns = %d, want 2e9", got)
	}
}

func TestTimeAddSubCompare(t *testing.T) {
	withFreshResolution(t)
	a := NanoSeconds(100)
	b := NanoSeconds(40)
	if got := a.Add(b).ApproximateNanoSeconds(); got != 140 {
		t.Errorf("100+40 = %d, want 140", got)
	}
	if got := a.Sub(b).ApproximateNanoSeconds(); got != 60 {
		t.Errorf("100-40 = %d, want 60", got)
	}
	if a.Compare(b) <= 0 {
		t.Error("100ns should compare greater than 40ns")
	}
	if ZeroTime.IsPositive() {
		t.Error("ZeroTime should not be positive")
	}
	if a.Sub(a).IsPositive() {
		t.Error("a-a should not be positive")
	}
}

func TestTimeIsNegative(t *testing.T) {
	withFreshResolution(t)
	a := NanoSeconds(10)
	b := NanoSeconds(20)
	if !a.Sub(b).IsNegative() {
		t.Error("10ns - 20ns should be negative")
	}
}

func TestTimeScale(t *testing.T) {
	withFreshResolution(t)
	a := NanoSeconds(100)
	if got := a.Scale(2.5).ApproximateNanoSeconds(); got != 250 {
		t.Errorf("100ns * 2.5 = %d, want 250", got)
	}
}

func TestTimePicosecondResolutionSubNanosecondPrecision(t *testing.T) {
	withFreshResolution(t)
	SetResolution(Picoseconds)
	// 1500 picosecond-ticks = 1.5 nanoseconds; ApproximateNanoSeconds
	// truncates, but ApproximateSeconds must still reflect the
	// sub-nanosecond fraction.
	tm := Time{ticks: HighPrecisionFromInt(1500)}
	if got := tm.ApproximateNanoSeconds(); got != 1 {
		t.Errorf("truncated ns = %d, want 1", got)
	}
	wantSeconds := 1.5e-9
	if diff := tm.ApproximateSeconds() - wantSeconds; diff < -1e-15 || diff > 1e-15 {
		t.Errorf("ApproximateSeconds() = %v, want ~%v", tm.ApproximateSeconds(), wantSeconds)
	}
}

func TestApproximateNanoSecondsRejectsNegative(t *testing.T) {
	withFreshResolution(t)
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for negative time")
		}
		if _, ok := r.(preconditionError); !ok {
			t.Fatalf("expected preconditionError, got %T", r)
		}
	}()
	NanoSeconds(-5).ApproximateNanoSeconds()
}
