package simpledv

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/d2sim/d2sim/sim"
	"github.com/d2sim/d2sim/sim/trace"
)

// Payload is the closed set of everything a router network carries through the
// event queue: *Frame on channels, and the router's own wakeups.
type Payload interface {
	isPayload()
}

// startRouter is the wakeup a router schedules for itself on Init.
type startRouter struct{}

func (startRouter) isPayload() {}

// timerFired delivers an expired protocol timer.
type timerFired struct {
	Timer Timer
}

func (timerFired) isPayload() {}

// InterfaceDown is an external event taking a router interface down.
type InterfaceDown struct {
	Interface InterfaceID
}

func (InterfaceDown) isPayload() {}

// InterfaceUp is an external event bringing a router interface back up.
type InterfaceUp struct {
	Interface InterfaceID
}

func (InterfaceUp) isPayload() {}

// Router is a simulated router: one layer-2 interface per attached channel and
// a SimpleDV control plane on top.
type Router struct {
	sim.ComponentBase
	name    string
	l2      *layer2
	dv      *SimpleDV
	trace   *trace.SimulationTrace
	started bool
}

// NewRouter creates a router. st may be nil.
func NewRouter(id sim.ComponentID, routerID RouterID, name string, config Config, st *trace.SimulationTrace) *Router {
	return &Router{
		ComponentBase: sim.NewComponentBase(id),
		name:          name,
		l2:            newLayer2(),
		dv:            NewSimpleDV(routerID, config),
		trace:         st,
	}
}

// Name returns the router's name in the network.
func (r *Router) Name() string { return r.name }

// RouterID returns the protocol-level router id.
func (r *Router) RouterID() RouterID { return r.dv.RouterID() }

// ControlPlane exposes the router's SimpleDV instance.
func (r *Router) ControlPlane() *SimpleDV { return r.dv }

// BestRoute returns the best distance and next-hop interface to dest.
func (r *Router) BestRoute(dest HostAddr) (Metric, InterfaceID, bool) { return r.dv.BestRoute(dest) }

// Neighbors returns the router's neighbor table.
func (r *Router) Neighbors() *NeighborTable { return r.dv.Neighbors() }

// Dropped returns the number of frames dropped on down interfaces.
func (r *Router) Dropped() int { return r.l2.dropped }

// InterfaceForChannel returns the interface bound to channel.
func (r *Router) InterfaceForChannel(channel sim.ChannelID) (InterfaceID, bool) {
	return r.l2.interfaceFor(channel)
}

// AddChannel creates a new interface for channel. The label is ignored.
func (r *Router) AddChannel(channel sim.ChannelID, label sim.ChannelLabel) {
	r.ComponentBase.AddChannel(channel, label)
	r.dv.AddInterface(r.l2.createInterface(channel))
}

// Init schedules the router start.
func (r *Router) Init(q *sim.EventQueue[Payload]) {
	logrus.Debugf("initializing router %s (%s, %s)", r.name, r.RouterID(), r.ID())
	q.ScheduleWakeup(sim.NoDelta, r.ID(), r.ID(), startRouter{})
}

func (r *Router) ProcessEvent(q *sim.EventQueue[Payload], sender sim.ComponentID, payload Payload) {
	env := r.env(q)
	if sender != r.ID() {
		env.Abort(fmt.Sprintf("wakeup from foreign component %s", sender))
		return
	}
	switch ev := payload.(type) {
	case startRouter:
		r.start(env)
	case timerFired:
		r.dv.Timeout(env, ev.Timer)
	case InterfaceDown:
		if !r.checkInterfaceEvent(env, ev.Interface) {
			return
		}
		r.l2.setUp(ev.Interface, false)
		r.dv.InterfaceDown(env, ev.Interface)
	case InterfaceUp:
		if !r.checkInterfaceEvent(env, ev.Interface) {
			return
		}
		r.l2.setUp(ev.Interface, true)
		r.dv.InterfaceUp(env, ev.Interface)
	default:
		env.Abort(fmt.Sprintf("unexpected wakeup payload %T", payload))
	}
}

func (r *Router) checkInterfaceEvent(env routerEnv, iface InterfaceID) bool {
	if !r.started {
		env.Abort(fmt.Sprintf("interface event for %s before router start", iface))
		return false
	}
	if !r.l2.valid(iface) {
		env.Abort(fmt.Sprintf("interface event for unknown %s", iface))
		return false
	}
	return true
}

// start brings up layer 2, then every interface in order.
func (r *Router) start(env routerEnv) {
	if r.started {
		env.Abort("router started twice")
		return
	}
	r.started = true
	r.dv.Start(env)
	for i := 0; i < r.l2.numInterfaces(); i++ {
		iface := InterfaceID(i)
		r.l2.setUp(iface, true)
		r.dv.InterfaceUp(env, iface)
	}
}

func (r *Router) ReceiveMsg(q *sim.EventQueue[Payload], incoming sim.ChannelID, payload Payload) {
	env := r.env(q)
	iface, ok := r.l2.interfaceFor(incoming)
	if !ok {
		env.Abort(fmt.Sprintf("message on unknown channel %s", incoming))
		return
	}
	frame, ok := payload.(*Frame)
	if !ok {
		env.Abort(fmt.Sprintf("non-frame payload %T on %s", payload, incoming))
		return
	}
	if !r.l2.accept(q.Now(), r.ID(), iface, frame) {
		return
	}
	if frame.NextHeader != ControlPlane {
		env.Abort(fmt.Sprintf("unsupported next header %s on %s", frame.NextHeader, iface))
		return
	}
	r.dv.ReceivePacket(env, iface, frame.Packet)
}

func (r *Router) Terminate(q *sim.EventQueue[Payload]) {
	if r.l2.dropped > 0 {
		logrus.Debugf("router %s dropped %d frames on down interfaces", r.name, r.l2.dropped)
	}
	r.dv.Terminate(r.env(q))
}

func (r *Router) env(q *sim.EventQueue[Payload]) routerEnv {
	return routerEnv{q: q, r: r}
}

// routerEnv is the Environment handed to the control plane for one event.
type routerEnv struct {
	q *sim.EventQueue[Payload]
	r *Router
}

func (e routerEnv) Now() sim.SimTime { return e.q.Now() }

func (e routerEnv) SendPacket(iface InterfaceID, pkt Packet) {
	e.r.l2.send(e.q, e.r.ID(), iface, pkt)
}

func (e routerEnv) StartTimer(delay sim.SimTimeDelta, t Timer) {
	e.q.ScheduleWakeup(delay, e.r.ID(), e.r.ID(), timerFired{Timer: t})
}

func (e routerEnv) Abort(reason string) {
	e.q.Fail(fmt.Sprintf("router %s (%s): %s", e.r.name, e.r.RouterID(), reason))
}

func (e routerEnv) Trace() *trace.SimulationTrace { return e.r.trace }
