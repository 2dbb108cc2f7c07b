package simpledv

import "fmt"

// RouterID identifies a router. Routers are numbered sequentially from 1 in build order.
type RouterID int

func (id RouterID) String() string { return fmt.Sprintf("R%d", int(id)) }

// InterfaceID is a router-local interface index, assigned in channel attach order from 0.
type InterfaceID int

func (id InterfaceID) String() string { return fmt.Sprintf("if_%d", int(id)) }

// InterfaceAddress names one interface of one router.
type InterfaceAddress struct {
	Router    RouterID
	Interface InterfaceID
}

func (a InterfaceAddress) String() string {
	return fmt.Sprintf("%s.%s", a.Router, a.Interface)
}

// HostAddr is the destination a router advertises for an attached end system.
// It is the address of the router interface facing the host.
type HostAddr InterfaceAddress

func (a HostAddr) String() string {
	return fmt.Sprintf("host@%s", InterfaceAddress(a))
}

// Address is a packet destination: a single interface, or every listener on the link.
type Address struct {
	multicast bool
	unicast   InterfaceAddress
}

// Multicast reaches whoever is on the other end of the link.
var Multicast = Address{multicast: true}

// Unicast returns an Address targeting a.
func Unicast(a InterfaceAddress) Address { return Address{unicast: a} }

// IsMulticast reports whether the address is the link-local multicast address.
func (a Address) IsMulticast() bool { return a.multicast }

// Target returns the unicast interface address. ok is false for Multicast.
func (a Address) Target() (addr InterfaceAddress, ok bool) {
	if a.multicast {
		return InterfaceAddress{}, false
	}
	return a.unicast, true
}

func (a Address) String() string {
	if a.multicast {
		return "multicast"
	}
	return a.unicast.String()
}
