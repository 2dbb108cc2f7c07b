package sim

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/d2sim/d2sim/sim/trace"
)

// ErrAborted is wrapped by the error Run returns when a component flagged a failure.
var ErrAborted = errors.New("simulation aborted")

type simulationPhase int

const (
	phaseBuilding simulationPhase = iota
	phaseInitialized
	phaseFinished
)

// Simulation owns the components, the channels and the EventQueue of one run.
// Build the topology with AddComponent / AddChannel, then call Run or RunUntil.
type Simulation[P any] struct {
	components []Component[P]
	channels   []Channel[P]
	queue      *EventQueue[P]
	trace      *trace.SimulationTrace
	phase      simulationPhase
	dispatched uint64
}

// Option configures a Simulation.
type Option[P any] func(*Simulation[P])

// WithTrace records every dispatched event into st when its level includes events.
func WithTrace[P any](st *trace.SimulationTrace) Option[P] {
	return func(s *Simulation[P]) { s.trace = st }
}

// NewSimulation creates an empty Simulation with a fresh EventQueue.
func NewSimulation[P any](opts ...Option[P]) *Simulation[P] {
	s := &Simulation[P]{queue: NewEventQueue[P]()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddComponent builds a component with the next sequential id.
// Panics once the simulation has been initialized.
func (s *Simulation[P]) AddComponent(builder ComponentBuilder[P]) ComponentID {
	s.requireBuilding("AddComponent")
	id := ComponentID(len(s.components))
	c := builder.BuildComponent(id)
	if c.ID() != id {
		panic(fmt.Sprintf("Simulation.AddComponent: builder returned component %s for id %s", c.ID(), id))
	}
	s.components = append(s.components, c)
	return id
}

// AddChannel builds a channel with the next sequential id between left and right
// and attaches it to both: left receives label Left, right receives label Right.
func (s *Simulation[P]) AddChannel(builder ChannelBuilder[P], left, right ComponentID) ChannelID {
	s.requireBuilding("AddChannel")
	s.mustComponent(left, "AddChannel")
	s.mustComponent(right, "AddChannel")
	if left == right {
		panic(fmt.Sprintf("Simulation.AddChannel: self-loop on %s", left))
	}
	id := ChannelID(len(s.channels))
	s.channels = append(s.channels, builder.BuildChannel(id, left, right))
	s.components[left].AddChannel(id, Left)
	s.components[right].AddChannel(id, Right)
	return id
}

// Initialize calls Init on every component, in id order. Called implicitly by Run.
func (s *Simulation[P]) Initialize() {
	s.requireBuilding("Initialize")
	logrus.Infof("Initializing simulation: %d components, %d channels", len(s.components), len(s.channels))
	s.phase = phaseInitialized
	for _, c := range s.components {
		c.Init(s.queue)
	}
}

// ScheduleWakeup injects an external ComponentWakeup for receiver at absolute time at.
// The sender is the receiver itself; use it for scenario events such as link failures.
func (s *Simulation[P]) ScheduleWakeup(at SimTime, receiver ComponentID, payload P) {
	if s.phase == phaseFinished {
		panic("Simulation.ScheduleWakeup: simulation already finished")
	}
	s.mustComponent(receiver, "ScheduleWakeup")
	if at < s.queue.Now() {
		panic(fmt.Sprintf("Simulation.ScheduleWakeup: %s is in the past (now %s)", at, s.queue.Now()))
	}
	s.queue.ScheduleWakeup(at.Sub(s.queue.Now()), receiver, receiver, payload)
}

// Run processes events until the queue is exhausted or a failure is flagged,
// then terminates every component.
func (s *Simulation[P]) Run() error {
	return s.run(nil)
}

// RunUntil is Run with an early stop once simulated time exceeds deadline.
// The check happens after each dispatched event, so the event that crosses the
// deadline is still delivered.
func (s *Simulation[P]) RunUntil(deadline SimTime) error {
	return s.run(&deadline)
}

func (s *Simulation[P]) run(deadline *SimTime) error {
	if s.phase == phaseFinished {
		panic("Simulation.Run() called more than once")
	}
	if s.phase == phaseBuilding {
		s.Initialize()
	}
	if deadline != nil {
		logrus.Infof("Running simulation until %s", *deadline)
	} else {
		logrus.Info("Running simulation")
	}

	for s.step() {
		if deadline != nil && s.queue.Now().After(*deadline) {
			logrus.Infof("[tick %07d] deadline %s reached, %d events pending", s.queue.Now(), *deadline, s.queue.Len())
			break
		}
	}

	s.terminate()

	if s.queue.Failed() {
		return fmt.Errorf("%w: %s", ErrAborted, s.queue.FailureReason())
	}
	return nil
}

// step dispatches one event. It returns false on EndSimulation.
func (s *Simulation[P]) step() bool {
	ev := s.queue.PopNext()
	if ev.Kind == EndSimulation {
		return false
	}
	s.dispatched++
	logrus.Tracef("[tick %07d] Executing %s sender=%d receiver=%d channel=%d",
		s.queue.Now(), ev.Kind, ev.Sender, ev.Receiver, ev.Channel)
	if s.trace != nil && s.trace.Config.Level.IncludesEvents() {
		s.trace.RecordEvent(trace.EventRecord{
			Index:    s.dispatched,
			Clock:    int64(ev.Time),
			Kind:     ev.Kind.String(),
			Sender:   int(ev.Sender),
			Receiver: int(ev.Receiver),
			Channel:  int(ev.Channel),
		})
	}

	switch ev.Kind {
	case ComponentWakeup:
		s.mustComponent(ev.Receiver, "dispatch").ProcessEvent(s.queue, ev.Sender, ev.Payload)
	case MessageSend:
		s.mustChannel(ev.Channel, "dispatch").AcceptMessageFrom(s.queue, ev.Sender, ev.Payload)
	case MessageReceive:
		s.mustComponent(ev.Receiver, "dispatch").ReceiveMsg(s.queue, ev.Channel, ev.Payload)
	default:
		panic(fmt.Sprintf("Simulation: unexpected event kind %s", ev.Kind))
	}
	return true
}

func (s *Simulation[P]) terminate() {
	s.phase = phaseFinished
	s.queue.seal()
	logrus.Infof("Simulation completed at %s after %d events", s.queue.Now(), s.dispatched)
	for _, c := range s.components {
		c.Terminate(s.queue)
	}
}

// Now returns the current simulated time.
func (s *Simulation[P]) Now() SimTime { return s.queue.Now() }

// Failed reports whether any component flagged a failure.
func (s *Simulation[P]) Failed() bool { return s.queue.Failed() }

// EventsDispatched returns the number of events delivered so far.
func (s *Simulation[P]) EventsDispatched() uint64 { return s.dispatched }

// NumComponents returns the number of components.
func (s *Simulation[P]) NumComponents() int { return len(s.components) }

// NumChannels returns the number of channels.
func (s *Simulation[P]) NumChannels() int { return len(s.channels) }

// Component returns the component with the given id. Panics on an unknown id.
func (s *Simulation[P]) Component(id ComponentID) Component[P] {
	return s.mustComponent(id, "Component")
}

// Channel returns the channel with the given id. Panics on an unknown id.
func (s *Simulation[P]) Channel(id ChannelID) Channel[P] {
	return s.mustChannel(id, "Channel")
}

// Components returns all components in id order.
func (s *Simulation[P]) Components() []Component[P] { return s.components }

func (s *Simulation[P]) requireBuilding(op string) {
	if s.phase != phaseBuilding {
		panic(fmt.Sprintf("Simulation.%s: topology is frozen once the simulation is initialized", op))
	}
}

func (s *Simulation[P]) mustComponent(id ComponentID, op string) Component[P] {
	if id < 0 || int(id) >= len(s.components) {
		panic(fmt.Sprintf("Simulation.%s: unknown component %s", op, id))
	}
	return s.components[id]
}

func (s *Simulation[P]) mustChannel(id ChannelID, op string) Channel[P] {
	if id < 0 || int(id) >= len(s.channels) {
		panic(fmt.Sprintf("Simulation.%s: unknown channel %s", op, id))
	}
	return s.channels[id]
}
