package simpledv

import "fmt"

// Content is the closed set of protocol messages: Hello or Update.
type Content interface {
	isContent()
	fmt.Stringer
}

// Hello announces the sender on a link. Seen is the peer the sender currently
// has bound on that link, nil when it knows of none.
type Hello struct {
	Seen *InterfaceAddress
}

func (Hello) isContent() {}

func (h Hello) String() string {
	if h.Seen == nil {
		return "Hello{}"
	}
	return fmt.Sprintf("Hello{seen=%s}", *h.Seen)
}

// Route is one advertised (destination, metric) pair.
type Route struct {
	Dest   HostAddr
	Metric Metric
}

func (r Route) String() string { return fmt.Sprintf("%s:%s", r.Dest, r.Metric) }

// Update advertises a route to the neighbor it is addressed to.
type Update struct {
	Route Route
}

func (Update) isContent() {}

func (u Update) String() string { return fmt.Sprintf("Update{%s}", u.Route) }

// Packet is a protocol message between two neighboring routers.
type Packet struct {
	Source      InterfaceAddress
	Destination Address
	Content     Content
}

// NewHello builds a multicast Hello from src.
func NewHello(src InterfaceAddress, seen *InterfaceAddress) Packet {
	return Packet{Source: src, Destination: Multicast, Content: Hello{Seen: seen}}
}

// NewUpdate builds a unicast Update from src to dst.
func NewUpdate(src, dst InterfaceAddress, route Route) Packet {
	return Packet{Source: src, Destination: Unicast(dst), Content: Update{Route: route}}
}

func (p Packet) String() string {
	return fmt.Sprintf("%s -> %s %s", p.Source, p.Destination, p.Content)
}

// NextHeader identifies what a layer-2 frame carries.
type NextHeader int

const (
	// ControlPlane frames carry routing protocol packets.
	ControlPlane NextHeader = iota
)

func (h NextHeader) String() string {
	if h == ControlPlane {
		return "control-plane"
	}
	return fmt.Sprintf("next-header(%d)", int(h))
}

// Frame is what crosses a channel between two routers.
type Frame struct {
	NextHeader NextHeader
	Packet     Packet
}

func (*Frame) isPayload() {}
