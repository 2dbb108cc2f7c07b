package simpledv

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/d2sim/d2sim/sim"
	"github.com/d2sim/d2sim/sim/topology"
	"github.com/d2sim/d2sim/sim/trace"
)

// DefaultLinkDelay is the channel delay used when none is configured.
var DefaultLinkDelay = sim.Millis(1)

type nodeSpec struct {
	name string
	kind topology.NodeKind
}

type linkSpec struct {
	a, b     string
	delay    sim.SimTimeDelta
	hasDelay bool
}

// NetworkBuilder assembles hosts, routers and links into a runnable Network.
// Errors are collected and reported by Build.
type NetworkBuilder struct {
	nodes    []nodeSpec
	byName   map[string]int
	links    []linkSpec
	config   Config
	delayMin sim.SimTimeDelta
	delayMax sim.SimTimeDelta
	rng      *rand.Rand
	trace    *trace.SimulationTrace
	errs     []error
}

// NewNetworkBuilder returns a builder with DefaultConfig and DefaultLinkDelay.
func NewNetworkBuilder() *NetworkBuilder {
	return &NetworkBuilder{
		byName:   make(map[string]int),
		config:   DefaultConfig(),
		delayMin: DefaultLinkDelay,
		delayMax: DefaultLinkDelay,
	}
}

// AddHost adds a passive end system.
func (b *NetworkBuilder) AddHost(name string) *NetworkBuilder {
	return b.addNode(name, topology.KindHost)
}

// AddRouter adds a router. Routers get ids 1, 2, ... in the order they are added.
func (b *NetworkBuilder) AddRouter(name string) *NetworkBuilder {
	return b.addNode(name, topology.KindRouter)
}

func (b *NetworkBuilder) addNode(name string, kind topology.NodeKind) *NetworkBuilder {
	if _, dup := b.byName[name]; dup {
		b.errs = append(b.errs, fmt.Errorf("duplicate node %q", name))
		return b
	}
	b.byName[name] = len(b.nodes)
	b.nodes = append(b.nodes, nodeSpec{name: name, kind: kind})
	return b
}

// AddLink connects a and b with the default delay.
func (b *NetworkBuilder) AddLink(a, c string) *NetworkBuilder {
	b.links = append(b.links, linkSpec{a: a, b: c})
	return b
}

// AddLinkWithDelay connects a and b with a fixed delay.
func (b *NetworkBuilder) AddLinkWithDelay(a, c string, delay sim.SimTimeDelta) *NetworkBuilder {
	b.links = append(b.links, linkSpec{a: a, b: c, delay: delay, hasDelay: true})
	return b
}

// WithConfig sets the protocol timers used by every router.
func (b *NetworkBuilder) WithConfig(cfg Config) *NetworkBuilder {
	b.config = cfg
	return b
}

// WithDelay sets a fixed default link delay.
func (b *NetworkBuilder) WithDelay(delay sim.SimTimeDelta) *NetworkBuilder {
	b.delayMin, b.delayMax, b.rng = delay, delay, nil
	return b
}

// WithDelayRange draws each default-delay link's delay uniformly from [min, max].
func (b *NetworkBuilder) WithDelayRange(min, max sim.SimTimeDelta, rng *rand.Rand) *NetworkBuilder {
	b.delayMin, b.delayMax, b.rng = min, max, rng
	return b
}

// WithTrace records kernel events and routing activity into st.
func (b *NetworkBuilder) WithTrace(st *trace.SimulationTrace) *NetworkBuilder {
	b.trace = st
	return b
}

// FromTopology adds every node and link of t, in t's order.
func (b *NetworkBuilder) FromTopology(t *topology.Topology) *NetworkBuilder {
	for _, n := range t.Nodes() {
		b.addNode(n.Name, n.Kind)
	}
	for _, l := range t.Links() {
		if l.HasDelay() {
			b.AddLinkWithDelay(l.A, l.B, l.Delay)
		} else {
			b.AddLink(l.A, l.B)
		}
	}
	return b
}

func (b *NetworkBuilder) validate() error {
	errs := append([]error(nil), b.errs...)
	if err := b.config.Validate(); err != nil {
		errs = append(errs, err)
	}
	if b.delayMin < 0 || b.delayMax < b.delayMin {
		errs = append(errs, fmt.Errorf("invalid delay range [%s, %s]", b.delayMin, b.delayMax))
	}
	if b.delayMin != b.delayMax && b.rng == nil {
		errs = append(errs, fmt.Errorf("delay range needs an rng"))
	}
	seen := make(map[[2]string]bool)
	for _, l := range b.links {
		ia, okA := b.byName[l.a]
		ib, okB := b.byName[l.b]
		switch {
		case !okA || !okB:
			errs = append(errs, fmt.Errorf("link %s-%s: unknown node", l.a, l.b))
			continue
		case l.a == l.b:
			errs = append(errs, fmt.Errorf("link %s-%s: self-loop", l.a, l.b))
			continue
		case b.nodes[ia].kind == topology.KindHost && b.nodes[ib].kind == topology.KindHost:
			errs = append(errs, fmt.Errorf("link %s-%s: hosts must attach to a router", l.a, l.b))
		case l.hasDelay && l.delay < 0:
			errs = append(errs, fmt.Errorf("link %s-%s: negative delay %s", l.a, l.b, l.delay))
		}
		key := [2]string{l.a, l.b}
		if l.b < l.a {
			key = [2]string{l.b, l.a}
		}
		if seen[key] {
			errs = append(errs, fmt.Errorf("link %s-%s: duplicate link", l.a, l.b))
		}
		seen[key] = true
	}
	return errors.Join(errs...)
}

// Build wires the simulation. The builder must not be reused afterwards.
func (b *NetworkBuilder) Build() (*Network, error) {
	if err := b.validate(); err != nil {
		return nil, fmt.Errorf("building network: %w", err)
	}

	var opts []sim.Option[Payload]
	if b.trace != nil {
		opts = append(opts, sim.WithTrace[Payload](b.trace))
	}
	n := &Network{
		sim:        sim.NewSimulation[Payload](opts...),
		routers:    make(map[string]*Router),
		components: make(map[string]sim.ComponentID),
		hostAddrs:  make(map[string][]HostAddr),
		interfaces: make(map[string]map[string]InterfaceID),
	}

	// Interface ids follow channel attach order, which is link order.
	routerIDs := make(map[string]RouterID)
	next := RouterID(1)
	for _, node := range b.nodes {
		if node.kind == topology.KindRouter {
			routerIDs[node.name] = next
			n.interfaces[node.name] = make(map[string]InterfaceID)
			next++
		}
	}
	endSystems := make(map[string]map[InterfaceID]HostAddr)
	ifCount := make(map[string]int)
	for _, l := range b.links {
		ifA, ifB := InterfaceID(ifCount[l.a]), InterfaceID(ifCount[l.b])
		ifCount[l.a]++
		ifCount[l.b]++
		for _, side := range []struct {
			router, other string
			iface         InterfaceID
		}{{l.a, l.b, ifA}, {l.b, l.a, ifB}} {
			rid, isRouter := routerIDs[side.router]
			if !isRouter {
				continue
			}
			n.interfaces[side.router][side.other] = side.iface
			if b.nodes[b.byName[side.other]].kind == topology.KindHost {
				if endSystems[side.router] == nil {
					endSystems[side.router] = make(map[InterfaceID]HostAddr)
				}
				addr := HostAddr{Router: rid, Interface: side.iface}
				endSystems[side.router][side.iface] = addr
				n.hostAddrs[side.other] = append(n.hostAddrs[side.other], addr)
			}
		}
	}

	for _, node := range b.nodes {
		switch node.kind {
		case topology.KindHost:
			n.components[node.name] = n.sim.AddComponent(sim.DummyBuilder[Payload]{})
		case topology.KindRouter:
			cfg := b.config.withEndSystems(endSystems[node.name])
			id := n.sim.AddComponent(sim.ComponentBuilderFunc[Payload](func(id sim.ComponentID) sim.Component[Payload] {
				r := NewRouter(id, routerIDs[node.name], node.name, cfg, b.trace)
				n.routers[node.name] = r
				n.routerOrder = append(n.routerOrder, r)
				return r
			}))
			n.components[node.name] = id
		}
	}

	defaultDelay := sim.NewDelayChannelBuilder[Payload]()
	if b.rng != nil && b.delayMin != b.delayMax {
		defaultDelay.WithDelayRange(b.delayMin, b.delayMax, b.rng)
	} else {
		defaultDelay.WithDelay(b.delayMin)
	}
	for _, l := range b.links {
		var cb sim.ChannelBuilder[Payload] = defaultDelay
		if l.hasDelay {
			cb = sim.NewDelayChannelBuilder[Payload]().WithDelay(l.delay)
		}
		n.sim.AddChannel(cb, n.components[l.a], n.components[l.b])
	}

	logrus.Infof("Built network: %d routers, %d hosts, %d links", len(n.routers), len(n.components)-len(n.routers), len(b.links))
	return n, nil
}

// Network is a built router network ready to run.
type Network struct {
	sim         *sim.Simulation[Payload]
	routers     map[string]*Router
	routerOrder []*Router
	components  map[string]sim.ComponentID
	hostAddrs   map[string][]HostAddr
	interfaces  map[string]map[string]InterfaceID
}

// Simulation returns the underlying simulation.
func (n *Network) Simulation() *sim.Simulation[Payload] { return n.sim }

// Router returns the named router, or nil.
func (n *Network) Router(name string) *Router { return n.routers[name] }

// Routers returns every router in build order.
func (n *Network) Routers() []*Router { return n.routerOrder }

// HostAddrs returns the addresses advertised for host, one per attached router interface.
func (n *Network) HostAddrs(host string) []HostAddr { return n.hostAddrs[host] }

// HostAddr returns the first address advertised for host.
func (n *Network) HostAddr(host string) (HostAddr, bool) {
	addrs := n.hostAddrs[host]
	if len(addrs) == 0 {
		return HostAddr{}, false
	}
	return addrs[0], true
}

// Interface returns the interface of router facing neighbor.
func (n *Network) Interface(router, neighbor string) (InterfaceID, error) {
	ifaces, ok := n.interfaces[router]
	if !ok {
		return 0, fmt.Errorf("unknown router %q", router)
	}
	iface, ok := ifaces[neighbor]
	if !ok {
		return 0, fmt.Errorf("router %q has no link to %q", router, neighbor)
	}
	return iface, nil
}

// ScheduleInterfaceDown takes router's interface facing neighbor down at time at.
func (n *Network) ScheduleInterfaceDown(at sim.SimTime, router, neighbor string) error {
	return n.scheduleInterfaceEvent(at, router, neighbor, func(iface InterfaceID) Payload {
		return InterfaceDown{Interface: iface}
	})
}

// ScheduleInterfaceUp brings router's interface facing neighbor back up at time at.
func (n *Network) ScheduleInterfaceUp(at sim.SimTime, router, neighbor string) error {
	return n.scheduleInterfaceEvent(at, router, neighbor, func(iface InterfaceID) Payload {
		return InterfaceUp{Interface: iface}
	})
}

func (n *Network) scheduleInterfaceEvent(at sim.SimTime, router, neighbor string, mk func(InterfaceID) Payload) error {
	if at <= 0 {
		return fmt.Errorf("interface event at %s: must be after the start of the run", at)
	}
	iface, err := n.Interface(router, neighbor)
	if err != nil {
		return err
	}
	n.sim.ScheduleWakeup(at, n.components[router], mk(iface))
	return nil
}

// RunUntil runs the simulation until deadline. Hello timers keep the queue
// busy forever, so a router network always needs a deadline.
func (n *Network) RunUntil(deadline sim.SimTime) error { return n.sim.RunUntil(deadline) }
