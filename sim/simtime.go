package sim

import "fmt"

// SimTime is a point in simulated time, in microsecond ticks since the start of the run.
type SimTime int64

// SimTimeDelta is a signed distance between two SimTime values, in ticks.
type SimTimeDelta int64

// NoDelta schedules an event at the current simulated instant.
const NoDelta SimTimeDelta = 0

// Tick conversions.
const (
	TicksPerMilli  = 1_000
	TicksPerSecond = 1_000_000
)

// Micros returns a delta of n microseconds.
func Micros(n int64) SimTimeDelta { return SimTimeDelta(n) }

// Millis returns a delta of n milliseconds.
func Millis(n int64) SimTimeDelta { return SimTimeDelta(n * TicksPerMilli) }

// Seconds returns a delta of n seconds.
func Seconds(n int64) SimTimeDelta { return SimTimeDelta(n * TicksPerSecond) }

// Add returns t shifted by d.
func (t SimTime) Add(d SimTimeDelta) SimTime { return t + SimTime(d) }

// Sub returns the delta t - u.
func (t SimTime) Sub(u SimTime) SimTimeDelta { return SimTimeDelta(t - u) }

// Before reports whether t is strictly earlier than u.
func (t SimTime) Before(u SimTime) bool { return t < u }

// After reports whether t is strictly later than u.
func (t SimTime) After(u SimTime) bool { return t > u }

// IsZero reports whether t is the start of the simulation.
func (t SimTime) IsZero() bool { return t == 0 }

// Millis returns t in whole milliseconds.
func (t SimTime) Millis() int64 { return int64(t) / TicksPerMilli }

func (t SimTime) String() string {
	return fmt.Sprintf("%.3fms", float64(t)/TicksPerMilli)
}

func (d SimTimeDelta) String() string {
	return fmt.Sprintf("%.3fms", float64(d)/TicksPerMilli)
}
