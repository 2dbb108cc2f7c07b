package simpledv

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/d2sim/d2sim/sim"
	"github.com/d2sim/d2sim/sim/trace"
)

// Environment is what the control plane may do to the world. The Router
// builds one per dispatched event.
type Environment interface {
	Now() sim.SimTime
	SendPacket(iface InterfaceID, pkt Packet)
	StartTimer(delay sim.SimTimeDelta, t Timer)
	// Abort fails the whole run.
	Abort(reason string)
	// Trace returns the attached trace, or nil.
	Trace() *trace.SimulationTrace
}

// Route change reasons recorded in the trace.
const (
	reasonLocal        = "local"
	reasonUpdate       = "update"
	reasonNeighborDown = "neighbor-down"
)

// SimpleDV is the distance-vector control plane of one router.
//
// Neighbors are discovered with periodic Hellos and expired by a hold timer.
// Every change of a best route is advertised to all active peers, with
// infinity sent toward the preferred next hop (poison reverse).
type SimpleDV struct {
	routerID  RouterID
	config    Config
	neighbors *NeighborTable
	routes    *RoutingTable
	started   bool
}

// NewSimpleDV creates the control plane for router id.
func NewSimpleDV(id RouterID, config Config) *SimpleDV {
	return &SimpleDV{
		routerID:  id,
		config:    config,
		neighbors: NewNeighborTable(),
		routes:    NewRoutingTable(),
	}
}

// RouterID returns the router this control plane runs on.
func (dv *SimpleDV) RouterID() RouterID { return dv.routerID }

// Neighbors returns the neighbor table.
func (dv *SimpleDV) Neighbors() *NeighborTable { return dv.neighbors }

// Routes returns the routing table.
func (dv *SimpleDV) Routes() *RoutingTable { return dv.routes }

// AddInterface registers the next interface. End-system interfaces are the ones
// listed in the config; every other interface is a protocol peer.
func (dv *SimpleDV) AddInterface(iface InterfaceID) {
	if dv.started {
		panic(fmt.Sprintf("SimpleDV %s: AddInterface(%s) after start", dv.routerID, iface))
	}
	typ := Peer
	if _, ok := dv.config.IsEndSystem(iface); ok {
		typ = EndSystem
	}
	dv.neighbors.Add(dv.routerID, iface, typ)
}

// Start sizes the routing table to the interface count.
func (dv *SimpleDV) Start(env Environment) {
	logrus.Debugf("[tick %07d] %s: starting SimpleDV on %d interfaces", env.Now(), dv.routerID, dv.neighbors.Len())
	dv.routes.SetNumInterfaces(dv.neighbors.Len())
	dv.started = true
}

// InterfaceUp brings an interface into the protocol: an end-system interface
// installs its local route, a peer interface starts sending Hellos.
func (dv *SimpleDV) InterfaceUp(env Environment, iface InterfaceID) {
	e := dv.mustEntry("InterfaceUp", iface)
	if e.Up {
		logrus.Warnf("[tick %07d] %s: %s already up", env.Now(), dv.routerID, iface)
		return
	}
	e.Up = true

	if e.Type == EndSystem {
		addr, _ := dv.config.IsEndSystem(iface)
		if change, ok := dv.routes.AddLocal(addr, iface); ok {
			dv.routeChanged(env, change, reasonLocal)
		}
		return
	}

	logrus.Debugf("[tick %07d] %s: starting hellos on %s", env.Now(), dv.routerID, iface)
	env.SendPacket(iface, NewHello(e.Local, e.Neighbor))
	env.StartTimer(dv.config.HelloInterval, Timer{Kind: HelloTimer, Interface: iface, Generation: e.helloGen})
}

// InterfaceDown takes an interface out of the protocol. Its pending timers go
// stale, a bound peer is forgotten and every route through it is withdrawn.
func (dv *SimpleDV) InterfaceDown(env Environment, iface InterfaceID) {
	e := dv.mustEntry("InterfaceDown", iface)
	if !e.Up {
		logrus.Warnf("[tick %07d] %s: %s already down", env.Now(), dv.routerID, iface)
		return
	}
	e.Up = false
	e.helloGen++
	hadNeighbor := e.unbind()
	logrus.Debugf("[tick %07d] %s: %s down (had neighbor: %t)", env.Now(), dv.routerID, iface, hadNeighbor)
	if hadNeighbor || e.Type == EndSystem {
		dv.neighborDown(env, iface)
	}
}

// ReceivePacket handles a packet that arrived on iface.
func (dv *SimpleDV) ReceivePacket(env Environment, iface InterfaceID, pkt Packet) {
	logrus.Debugf("[tick %07d] %s: received on %s: %s", env.Now(), dv.routerID, iface, pkt)
	if dv.neighbors.Get(iface) == nil {
		env.Abort(fmt.Sprintf("%s: packet on unknown interface %s", dv.routerID, iface))
		return
	}
	switch c := pkt.Content.(type) {
	case Hello:
		dv.receiveHello(env, iface, pkt.Source, c)
	case Update:
		dv.receiveUpdate(env, iface, pkt, c.Route)
	default:
		env.Abort(fmt.Sprintf("%s: unexpected packet content %T", dv.routerID, pkt.Content))
	}
}

// Timeout handles an expired protocol timer.
func (dv *SimpleDV) Timeout(env Environment, t Timer) {
	switch t.Kind {
	case HelloTimer:
		dv.timeoutHello(env, t)
	case HoldTimer:
		dv.timeoutHold(env, t)
	default:
		env.Abort(fmt.Sprintf("%s: unknown timer %s", dv.routerID, t))
	}
}

// Terminate dumps both tables.
func (dv *SimpleDV) Terminate(env Environment) {
	logrus.Infof("[tick %07d] %s terminating\n%s%s", env.Now(), dv.routerID, dv.neighbors, dv.routes)
}

// BestRoute returns the best distance and next-hop interface to dest.
// ok is false when the destination was never learned.
func (dv *SimpleDV) BestRoute(dest HostAddr) (metric Metric, via InterfaceID, ok bool) {
	e := dv.routes.Lookup(dest)
	if e == nil {
		return Infinity, 0, false
	}
	return e.Best(), e.Preferred(), true
}

func (dv *SimpleDV) mustEntry(op string, iface InterfaceID) *NeighborEntry {
	e := dv.neighbors.Get(iface)
	if e == nil {
		panic(fmt.Sprintf("SimpleDV %s.%s: unknown interface %s", dv.routerID, op, iface))
	}
	return e
}

// === Neighbor discovery ===

func (dv *SimpleDV) receiveHello(env Environment, iface InterfaceID, source InterfaceAddress, hello Hello) {
	e := dv.neighbors.Get(iface)
	if !e.IsPeer() {
		env.Abort(fmt.Sprintf("%s: hello from %s on non-peer interface %s", dv.routerID, source, iface))
		return
	}

	if e.Neighbor == nil {
		logrus.Debugf("[tick %07d] %s: new neighbor %s on %s", env.Now(), dv.routerID, source, iface)
		e.bind(source, env.Now())
		env.StartTimer(dv.config.HoldTime, Timer{Kind: HoldTimer, Interface: iface, Generation: e.holdGen})
		dv.helloBack(env, e)
		dv.newNeighbor(env, iface)
		return
	}

	if *e.Neighbor != source {
		env.Abort(fmt.Sprintf("%s: hello from %s on %s, already bound to %s", dv.routerID, source, iface, *e.Neighbor))
		return
	}
	e.LastHello = env.Now()

	// The peer lost the adjacency while we kept it: resynchronize.
	if hello.Seen == nil || *hello.Seen != e.Local {
		logrus.Debugf("[tick %07d] %s: neighbor %s on %s restarted, resending routes", env.Now(), dv.routerID, source, iface)
		dv.helloBack(env, e)
		dv.newNeighbor(env, iface)
	}
}

// helloBack answers a Hello right away so the peer binds this router before
// any Update sent after it arrives.
func (dv *SimpleDV) helloBack(env Environment, e *NeighborEntry) {
	env.SendPacket(e.ID, NewHello(e.Local, e.Neighbor))
}

func (dv *SimpleDV) timeoutHello(env Environment, t Timer) {
	e := dv.neighbors.Get(t.Interface)
	if e == nil || !e.Up || t.Generation != e.helloGen {
		logrus.Tracef("[tick %07d] %s: stale %s", env.Now(), dv.routerID, t)
		return
	}
	env.SendPacket(e.ID, NewHello(e.Local, e.Neighbor))
	env.StartTimer(dv.config.HelloInterval, t)
}

func (dv *SimpleDV) timeoutHold(env Environment, t Timer) {
	e := dv.neighbors.Get(t.Interface)
	if e == nil || e.Neighbor == nil || t.Generation != e.holdGen {
		logrus.Tracef("[tick %07d] %s: stale %s", env.Now(), dv.routerID, t)
		return
	}
	deadline := e.LastHello.Add(dv.config.HoldTime)
	if env.Now().Before(deadline) {
		env.StartTimer(deadline.Sub(env.Now()), t)
		return
	}
	logrus.Infof("[tick %07d] %s: neighbor %s on %s timed out", env.Now(), dv.routerID, *e.Neighbor, e.ID)
	e.unbind()
	dv.neighborDown(env, e.ID)
}

// === Route dissemination ===

func (dv *SimpleDV) newNeighbor(env Environment, iface InterfaceID) {
	e := dv.neighbors.Get(iface)
	for _, r := range dv.routes.Entries() {
		dv.advertise(env, e, r.change())
	}
}

func (dv *SimpleDV) receiveUpdate(env Environment, iface InterfaceID, pkt Packet, route Route) {
	e := dv.neighbors.Get(iface)
	if !e.IsActivePeer() {
		env.Abort(fmt.Sprintf("%s: update %s from non-active interface %s", dv.routerID, route, iface))
		return
	}
	if *e.Neighbor != pkt.Source {
		env.Abort(fmt.Sprintf("%s: update on %s from %s, bound to %s", dv.routerID, iface, pkt.Source, *e.Neighbor))
		return
	}
	if dst, ok := pkt.Destination.Target(); !ok || dst != e.Local {
		env.Abort(fmt.Sprintf("%s: update on %s addressed to %s", dv.routerID, iface, pkt.Destination))
		return
	}

	change, changed := dv.routes.Update(iface, route.Dest, route.Metric)
	if !changed {
		logrus.Debugf("[tick %07d] %s: %s brings no change", env.Now(), dv.routerID, route)
		return
	}
	dv.routeChanged(env, change, reasonUpdate)
}

func (dv *SimpleDV) neighborDown(env Environment, iface InterfaceID) {
	for _, change := range dv.routes.InterfaceDown(iface) {
		dv.routeChanged(env, change, reasonNeighborDown)
	}
}

// routeChanged records change and advertises it to every active peer.
func (dv *SimpleDV) routeChanged(env Environment, change Change, reason string) {
	logrus.Debugf("[tick %07d] %s: route to %s now %s via %s (%s)",
		env.Now(), dv.routerID, change.Dest, change.Metric, change.Preferred, reason)
	if st := env.Trace(); st != nil && st.Config.Level.IncludesRouting() {
		st.RecordRouteChange(trace.RouteChangeRecord{
			Clock:       int64(env.Now()),
			Router:      int(dv.routerID),
			Destination: change.Dest.String(),
			Metric:      change.Metric.Hops(),
			Interface:   int(change.Preferred),
			Infinite:    change.Metric.IsInfinity(),
			Reason:      reason,
		})
	}
	for _, peer := range dv.neighbors.ActivePeers() {
		dv.advertise(env, peer, change)
	}
}

// advertise sends change to peer, poisoned when peer is the next hop.
func (dv *SimpleDV) advertise(env Environment, peer *NeighborEntry, change Change) {
	metric := change.Metric
	if peer.ID == change.Preferred {
		metric = Infinity
	}
	route := Route{Dest: change.Dest, Metric: metric}
	if st := env.Trace(); st != nil && st.Config.Level.IncludesRouting() {
		st.RecordAdvertisement(trace.AdvertisementRecord{
			Clock:       int64(env.Now()),
			Router:      int(dv.routerID),
			Interface:   int(peer.ID),
			Destination: route.Dest.String(),
			Metric:      metric.Hops(),
			Infinite:    metric.IsInfinity(),
		})
	}
	env.SendPacket(peer.ID, NewUpdate(peer.Local, *peer.Neighbor, route))
}
