package simpledv

import (
	"fmt"
	"strings"

	"github.com/d2sim/d2sim/sim"
)

// InterfaceType tells whether an interface faces a host or a protocol peer.
type InterfaceType int

const (
	EndSystem InterfaceType = iota
	Peer
)

func (t InterfaceType) String() string {
	if t == EndSystem {
		return "end-system"
	}
	return "peer"
}

// NeighborEntry is the per-interface neighbor state.
type NeighborEntry struct {
	ID        InterfaceID
	Type      InterfaceType
	Local     InterfaceAddress
	Neighbor  *InterfaceAddress // nil until a Hello binds the peer
	LastHello sim.SimTime
	Up        bool

	// Timers cannot be cancelled: bumping a generation makes every pending
	// timer of that kind stale.
	helloGen uint64
	holdGen  uint64
}

// IsPeer reports whether the interface speaks the protocol.
func (e *NeighborEntry) IsPeer() bool { return e.Type == Peer }

// IsActivePeer reports whether the interface speaks the protocol, is up and has a bound neighbor.
func (e *NeighborEntry) IsActivePeer() bool {
	return e.Type == Peer && e.Neighbor != nil && e.Up
}

// bind records neighbor as the peer on this interface.
func (e *NeighborEntry) bind(neighbor InterfaceAddress, now sim.SimTime) {
	n := neighbor
	e.Neighbor = &n
	e.LastHello = now
}

// unbind forgets the peer and invalidates its hold timer. It reports whether a peer was bound.
func (e *NeighborEntry) unbind() bool {
	had := e.Neighbor != nil
	e.Neighbor = nil
	e.LastHello = 0
	e.holdGen++
	return had
}

// NeighborTable holds one entry per router interface, indexed by InterfaceID.
type NeighborTable struct {
	entries []*NeighborEntry
}

// NewNeighborTable creates an empty table.
func NewNeighborTable() *NeighborTable {
	return &NeighborTable{}
}

// Add appends the entry for the next interface. Interfaces must be added in id order.
func (t *NeighborTable) Add(router RouterID, id InterfaceID, typ InterfaceType) *NeighborEntry {
	if int(id) != len(t.entries) {
		panic(fmt.Sprintf("NeighborTable.Add: interface %s added out of order (have %d)", id, len(t.entries)))
	}
	e := &NeighborEntry{
		ID:    id,
		Type:  typ,
		Local: InterfaceAddress{Router: router, Interface: id},
	}
	t.entries = append(t.entries, e)
	return e
}

// Get returns the entry for id, or nil for an unknown interface.
func (t *NeighborTable) Get(id InterfaceID) *NeighborEntry {
	if id < 0 || int(id) >= len(t.entries) {
		return nil
	}
	return t.entries[id]
}

// Len returns the number of interfaces.
func (t *NeighborTable) Len() int { return len(t.entries) }

// Entries returns all entries in interface order.
func (t *NeighborTable) Entries() []*NeighborEntry { return t.entries }

// ActivePeers returns the active peer entries in interface order.
func (t *NeighborTable) ActivePeers() []*NeighborEntry {
	var out []*NeighborEntry
	for _, e := range t.entries {
		if e.IsActivePeer() {
			out = append(out, e)
		}
	}
	return out
}

func (t *NeighborTable) String() string {
	var sb strings.Builder
	sb.WriteString("Neighbor Table:\n")
	fmt.Fprintf(&sb, "\t%-6s %-10s %-5s %-10s %-10s %s\n", "if", "type", "up", "local", "neighbor", "last hello")
	for _, e := range t.entries {
		neighbor, last := "-", "-"
		if e.Neighbor != nil {
			neighbor = e.Neighbor.String()
			last = e.LastHello.String()
		}
		fmt.Fprintf(&sb, "\t%-6s %-10s %-5t %-10s %-10s %s\n", e.ID, e.Type, e.Up, e.Local, neighbor, last)
	}
	return sb.String()
}
