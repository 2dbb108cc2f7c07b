package simpledv

import (
	"fmt"
	"strconv"
)

// MaxHopCount is the hop count treated as infinity.
const MaxHopCount = 15

// Metric is a saturating hop count. Any value at or above MaxHopCount is
// infinity, and sums that would reach the ceiling saturate to it.
type Metric int

const (
	Zero     Metric = 0
	OneHop   Metric = 1
	Infinity Metric = MaxHopCount
)

// NewMetric returns a metric of hops hops, saturated at Infinity. Panics on a negative count.
func NewMetric(hops int) Metric {
	if hops < 0 {
		panic(fmt.Sprintf("NewMetric: negative hop count %d", hops))
	}
	if hops >= MaxHopCount {
		return Infinity
	}
	return Metric(hops)
}

// Add returns m + o, saturated at Infinity.
func (m Metric) Add(o Metric) Metric {
	if m.IsInfinity() || o.IsInfinity() || int(m)+int(o) >= MaxHopCount {
		return Infinity
	}
	return m + o
}

// IsInfinity reports whether m is unreachable.
func (m Metric) IsInfinity() bool { return m >= Infinity }

// Less reports whether m is a strictly shorter distance than o.
func (m Metric) Less(o Metric) bool { return m.normalize() < o.normalize() }

// Hops returns the hop count, MaxHopCount for infinity.
func (m Metric) Hops() int { return int(m.normalize()) }

func (m Metric) normalize() Metric {
	if m.IsInfinity() {
		return Infinity
	}
	return m
}

func (m Metric) String() string {
	if m.IsInfinity() {
		return "inf"
	}
	return strconv.Itoa(int(m))
}
