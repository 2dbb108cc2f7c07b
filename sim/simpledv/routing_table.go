package simpledv

import (
	"fmt"
	"strings"
)

// RouteEntry is the distance vector for one destination: the candidate
// distance advertised on every interface, the best of them plus one hop, and
// the interface that best distance goes through.
type RouteEntry struct {
	Dest      HostAddr
	distances []Metric
	preferred InterfaceID
	best      Metric
}

// Best returns the router's own distance to the destination.
func (e *RouteEntry) Best() Metric { return e.best }

// Preferred returns the next-hop interface.
func (e *RouteEntry) Preferred() InterfaceID { return e.preferred }

// Candidate returns the distance advertised on iface.
func (e *RouteEntry) Candidate(iface InterfaceID) Metric { return e.distances[iface] }

// Candidates returns a copy of every candidate distance, indexed by interface.
func (e *RouteEntry) Candidates() []Metric {
	out := make([]Metric, len(e.distances))
	copy(out, e.distances)
	return out
}

// recompute refreshes best and preferred from the candidates. On ties the
// current preferred interface is kept. It reports whether either changed.
func (e *RouteEntry) recompute() bool {
	minIf := e.preferred
	min := e.distances[e.preferred]
	for i, d := range e.distances {
		if d.Less(min) {
			minIf, min = InterfaceID(i), d
		}
	}
	best := min.Add(OneHop)
	changed := best != e.best || minIf != e.preferred
	e.best, e.preferred = best, minIf
	return changed
}

// Change describes a new best route for a destination.
type Change struct {
	Dest      HostAddr
	Metric    Metric
	Preferred InterfaceID
}

func (e *RouteEntry) change() Change {
	return Change{Dest: e.Dest, Metric: e.best, Preferred: e.preferred}
}

// RoutingTable keeps one RouteEntry per destination, in insertion order.
// Entries that become unreachable are kept with an infinite metric.
type RoutingTable struct {
	entries       []*RouteEntry
	index         map[HostAddr]int
	numInterfaces int
}

// NewRoutingTable creates an empty table with no interfaces.
func NewRoutingTable() *RoutingTable {
	return &RoutingTable{index: make(map[HostAddr]int)}
}

// SetNumInterfaces fixes the width of every distance vector.
// Panics once any entry exists.
func (t *RoutingTable) SetNumInterfaces(n int) {
	if len(t.entries) != 0 {
		panic("RoutingTable.SetNumInterfaces: changing the number of interfaces is not supported")
	}
	if n < 0 {
		panic(fmt.Sprintf("RoutingTable.SetNumInterfaces: negative count %d", n))
	}
	t.numInterfaces = n
}

// NumInterfaces returns the distance vector width.
func (t *RoutingTable) NumInterfaces() int { return t.numInterfaces }

func (t *RoutingTable) checkInterface(op string, iface InterfaceID) {
	if iface < 0 || int(iface) >= t.numInterfaces {
		panic(fmt.Sprintf("RoutingTable.%s: interface %s out of range [0, %d)", op, iface, t.numInterfaces))
	}
}

func (t *RoutingTable) insert(dest HostAddr, iface InterfaceID, metric Metric) *RouteEntry {
	e := &RouteEntry{
		Dest:      dest,
		distances: make([]Metric, t.numInterfaces),
		preferred: iface,
	}
	for i := range e.distances {
		e.distances[i] = Infinity
	}
	e.distances[iface] = metric
	e.best = metric.Add(OneHop)
	t.index[dest] = len(t.entries)
	t.entries = append(t.entries, e)
	return e
}

// AddLocal installs a directly attached destination: candidate 0 on iface, best one hop.
// If dest is already known, only the candidate on iface is reset to 0.
func (t *RoutingTable) AddLocal(dest HostAddr, iface InterfaceID) (Change, bool) {
	t.checkInterface("AddLocal", iface)
	if e := t.Lookup(dest); e != nil {
		e.distances[iface] = Zero
		if !e.recompute() {
			return Change{}, false
		}
		return e.change(), true
	}
	return t.insert(dest, iface, Zero).change(), true
}

// Update records metric as the candidate distance to dest on iface.
// An infinite advertisement for an unknown destination is ignored. It reports
// a change when the best distance or the preferred interface moved.
func (t *RoutingTable) Update(iface InterfaceID, dest HostAddr, metric Metric) (Change, bool) {
	t.checkInterface("Update", iface)
	e := t.Lookup(dest)
	if e == nil {
		if metric.IsInfinity() {
			return Change{}, false
		}
		return t.insert(dest, iface, metric).change(), true
	}
	e.distances[iface] = metric
	if !e.recompute() {
		return Change{}, false
	}
	return e.change(), true
}

// InterfaceDown sets the candidate on iface to infinity for every entry. It
// returns, in table order, the entries whose preferred interface changed or
// whose best distance is now infinity.
func (t *RoutingTable) InterfaceDown(iface InterfaceID) []Change {
	t.checkInterface("InterfaceDown", iface)
	var changes []Change
	for _, e := range t.entries {
		e.distances[iface] = Infinity
		oldPreferred := e.preferred
		e.recompute()
		if e.preferred != oldPreferred || e.best.IsInfinity() {
			changes = append(changes, e.change())
		}
	}
	return changes
}

// Lookup returns the entry for dest, or nil.
func (t *RoutingTable) Lookup(dest HostAddr) *RouteEntry {
	i, ok := t.index[dest]
	if !ok {
		return nil
	}
	return t.entries[i]
}

// Entries returns all entries in insertion order.
func (t *RoutingTable) Entries() []*RouteEntry { return t.entries }

// Len returns the number of destinations.
func (t *RoutingTable) Len() int { return len(t.entries) }

// String dumps the table; the preferred candidate is marked with '*'.
func (t *RoutingTable) String() string {
	var sb strings.Builder
	sb.WriteString("Routing Table:\n\t")
	fmt.Fprintf(&sb, "%-18s", "dest")
	for i := 0; i < t.numInterfaces; i++ {
		fmt.Fprintf(&sb, " %-6s", InterfaceID(i))
	}
	sb.WriteString(" best/over\n")
	for _, e := range t.entries {
		fmt.Fprintf(&sb, "\t%-18s", e.Dest)
		for i, d := range e.distances {
			cell := d.String()
			if InterfaceID(i) == e.preferred {
				cell += "*"
			}
			fmt.Fprintf(&sb, " %-6s", cell)
		}
		fmt.Fprintf(&sb, " %s/%s\n", e.best, e.preferred)
	}
	return sb.String()
}
