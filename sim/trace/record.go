// Package trace provides event and routing trace recording for simulation analysis.
// This package has no dependencies on sim/ or its protocol packages; it stores pure data types.
package trace

// EventRecord captures a single dispatched kernel event.
type EventRecord struct {
	Index    uint64 // 1-based dispatch position
	Clock    int64
	Kind     string
	Sender   int // -1 when not meaningful for Kind
	Receiver int // -1 when not meaningful for Kind
	Channel  int // -1 when not meaningful for Kind
}

// AdvertisementRecord captures one distance-vector update sent by a router.
type AdvertisementRecord struct {
	Clock       int64
	Router      int
	Interface   int
	Destination string
	Metric      int
	Infinite    bool // poisoned or unreachable
}

// RouteChangeRecord captures a change of a router's best route to a destination.
type RouteChangeRecord struct {
	Clock       int64
	Router      int
	Destination string
	Metric      int
	Interface   int
	Infinite    bool
	Reason      string // "update", "neighbor-down", "local"
}
