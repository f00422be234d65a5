package kernel

import "sync"

// Resolution selects the unit of one Time "tick". It may be set once, before
// any Time value is constructed; changing it afterwards is a configuration
// conflict.
type Resolution int

const (
	Nanoseconds Resolution = iota
	Femtoseconds
	Picoseconds
	Microseconds
	Milliseconds
)

// nsPerTick returns the number of nanoseconds in one tick, as an exact
// Q64.64 value. Resolutions coarser than a nanosecond (Microseconds,
// Milliseconds) have an exact integer ratio; resolutions finer than a
// nanosecond (Picoseconds, Femtoseconds) are an exact reciprocal, computed
// on each call via HighPrecision.Div rather than a float64 division so the result
// stays correct to the type's full 2^-64 tick fraction instead of a
// double's 53-bit mantissa.
func (r Resolution) nsPerTick() HighPrecision {
	switch r {
	case Femtoseconds:
		return highPrecisionRatio(1, 1_000_000)
	case Picoseconds:
		return highPrecisionRatio(1, 1_000)
	case Nanoseconds:
		return HighPrecisionFromInt(1)
	case Microseconds:
		return HighPrecisionFromInt(1_000)
	case Milliseconds:
		return HighPrecisionFromInt(1_000_000)
	default:
		panicConfigConflict("unknown time resolution")
		return HighPrecision{}
	}
}

// highPrecisionRatio returns num/den as an exact Q64.64 value.
func highPrecisionRatio(num, den int64) HighPrecision {
	ratio, err := HighPrecisionFromInt(num).Div(HighPrecisionFromInt(den))
	if err != nil {
		panicConfigConflict("invalid tick ratio")
	}
	return ratio
}

var resolutionState struct {
	mu       sync.Mutex
	value    Resolution
	explicit bool
	locked   bool
}

// SetResolution fixes the process-wide tick unit used by every Time value.
// It must be called before the first Time is constructed; calling it again,
// or calling it after any Time has already been built, is a configuration
// conflict and panics.
func SetResolution(r Resolution) {
	resolutionState.mu.Lock()
	defer resolutionState.mu.Unlock()
	if resolutionState.locked {
		panicConfigConflict("time resolution already in use")
	}
	if resolutionState.explicit {
		panicConfigConflict("time resolution already set")
	}
	resolutionState.value = r
	resolutionState.explicit = true
}

// CurrentResolution returns the resolution in effect, locking it in for the
// remainder of the process if it was not already.
func CurrentResolution() Resolution {
	resolutionState.mu.Lock()
	defer resolutionState.mu.Unlock()
	resolutionState.locked = true
	return resolutionState.value
}

func resetResolutionForTest() {
	resolutionState.mu.Lock()
	defer resolutionState.mu.Unlock()
	resolutionState.value = Nanoseconds
	resolutionState.explicit = false
	resolutionState.locked = false
}

// Time is a scaled virtual-time value: a HighPrecision count of ticks of the
// process-wide resolution. Resolution is looked up lazily, so the same Time
// value reinterprets consistently once the resolution is locked in.
type Time struct {
	ticks HighPrecision
}

// ZeroTime is the start of simulated time.
var ZeroTime = Time{}

// fromExactNanoseconds builds a Time from an exact count of nanoseconds via
// integer Q64.64 division (HighPrecisionFromInt then Div), so values across
// the type's full signed range stay exact regardless of the configured
// resolution — unlike a float64 intermediate, which caps exact integers at
// 2^53 (~9.0e15), well inside the years-scale range this type exists for.
func fromExactNanoseconds(ns int64) Time {
	ticks, err := HighPrecisionFromInt(ns).Div(CurrentResolution().nsPerTick())
	if err != nil {
		panicConfigConflict("zero-duration tick resolution")
	}
	return Time{ticks: ticks}
}

// NanoSeconds constructs a Time from an exact count of nanoseconds.
func NanoSeconds(ns int64) Time { return fromExactNanoseconds(ns) }

// MicroSeconds constructs a Time from an exact count of microseconds.
func MicroSeconds(us int64) Time { return fromExactNanoseconds(us * 1_000) }

// MilliSeconds constructs a Time from an exact count of milliseconds.
func MilliSeconds(ms int64) Time { return fromExactNanoseconds(ms * 1_000_000) }

// Seconds constructs a Time from a fractional quantity of seconds. Unlike
// the integer constructors above, a fractional second has no exact integer
// nanosecond representation in general, so this one necessarily goes
// through HighPrecisionFromDouble and is limited to a float64's precision.
func Seconds(s float64) Time {
	ticksPerSecond, err := HighPrecisionFromInt(1_000_000_000).Div(CurrentResolution().nsPerTick())
	if err != nil {
		panicConfigConflict("zero-duration tick resolution")
	}
	return Time{ticks: HighPrecisionFromDouble(s).Mul(ticksPerSecond)}
}

// IsPositive reports whether the time is strictly greater than zero.
func (t Time) IsPositive() bool {
	return t.ticks.Compare(HighPrecisionZero) > 0
}

// IsNegative reports whether the time is strictly less than zero.
func (t Time) IsNegative() bool {
	return t.ticks.IsNegative()
}

// Compare returns -1, 0, or 1 as t is before, equal to, or after other.
func (t Time) Compare(other Time) int {
	return t.ticks.Compare(other.ticks)
}

// Add returns t + other.
func (t Time) Add(other Time) Time {
	return Time{ticks: t.ticks.Add(other.ticks)}
}

// Sub returns t - other.
func (t Time) Sub(other Time) Time {
	return Time{ticks: t.ticks.Sub(other.ticks)}
}

// Scale returns t multiplied by a dimensionless scalar.
func (t Time) Scale(factor float64) Time {
	return Time{ticks: t.ticks.Mul(HighPrecisionFromDouble(factor))}
}

// ApproximateNanoSeconds truncates the value toward zero into nanoseconds,
// via an exact Q64.64 multiply (ticks * ns-per-tick) rather than a float64
// intermediate, so the result stays exact across the type's full range;
// it is named "approximate" because ticks finer than a nanosecond (under
// picosecond/femtosecond resolutions) are still lost in the conversion.
func (t Time) ApproximateNanoSeconds() uint64 {
	if t.IsNegative() {
		panicPrecondition("negative absolute time")
	}
	ns := t.ticks.Mul(CurrentResolution().nsPerTick())
	return uint64(ns.ToInt())
}

// ApproximateSeconds returns the value in fractional seconds, for display
// and logging purposes only.
func (t Time) ApproximateSeconds() float64 {
	ns := t.ticks.Mul(CurrentResolution().nsPerTick())
	return ns.ToDouble() / 1e9
}
