// Package sim provides the discrete-event simulation kernel for d2sim.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - simtime.go: SimTime / SimTimeDelta (microsecond ticks, time only moves forward)
//   - event_queue.go: the (time, sequence) ordered EventQueue and the run-wide failure flag
//   - simulation.go: topology wiring, the event loop and the component lifecycle
//
// # Architecture
//
// The sim package defines the kernel and its two extension points; protocol
// implementations live in sub-packages:
//   - sim/simpledv/: SimpleDV distance-vector routers (neighbor discovery, poison reverse)
//   - sim/lcr/: LCR leader election on a ring
//   - sim/topology/: graph construction, random topologies, YAML scenario descriptions
//   - sim/trace/: event and routing trace recording
//
// # Key Interfaces
//
//   - Component: a simulated node with an Init / ProcessEvent / ReceiveMsg / Terminate lifecycle
//   - Channel: a point-to-point link that forwards a message to the opposite endpoint after a delay
//
// The kernel is generic over the payload type P. Each protocol declares a closed
// set of payload variants (a sealed interface) and resolves them with a type switch.
//
// Execution is single-threaded: exactly one event is dispatched at a time, and all
// delayed reactions are expressed by scheduling further events.
package sim
