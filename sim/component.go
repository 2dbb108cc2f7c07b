package sim

import "fmt"

// Component is a simulated node or process.
//
// Lifecycle: AddChannel is called once per attached channel, then Init once,
// then any number of ProcessEvent / ReceiveMsg calls, then Terminate once.
// A component only ever touches its own state; everything else happens by
// scheduling events on the queue it is handed.
type Component[P any] interface {
	ID() ComponentID

	// AddChannel records an attached channel. Called strictly before Init.
	AddChannel(channel ChannelID, label ChannelLabel)

	// Init may schedule the component's first wakeup. It must not assume that
	// any other component has been initialized.
	Init(q *EventQueue[P])

	// ProcessEvent delivers a ComponentWakeup. sender == ID() marks the
	// component's own timers and start triggers.
	ProcessEvent(q *EventQueue[P], sender ComponentID, payload P)

	// ReceiveMsg delivers a message that crossed the given channel.
	ReceiveMsg(q *EventQueue[P], incoming ChannelID, payload P)

	// Terminate is called once after the event loop ends. The queue is sealed:
	// Fail is allowed, scheduling panics.
	Terminate(q *EventQueue[P])
}

// ComponentBuilder produces a component for a freshly assigned id.
type ComponentBuilder[P any] interface {
	BuildComponent(id ComponentID) Component[P]
}

// ComponentBuilderFunc adapts a function to ComponentBuilder.
type ComponentBuilderFunc[P any] func(id ComponentID) Component[P]

// BuildComponent calls f(id).
func (f ComponentBuilderFunc[P]) BuildComponent(id ComponentID) Component[P] { return f(id) }

// ComponentBase holds the id and attached channels shared by most components.
type ComponentBase struct {
	id       ComponentID
	channels []ChannelID
	labels   []ChannelLabel
}

// NewComponentBase creates a base for the given id.
func NewComponentBase(id ComponentID) ComponentBase {
	return ComponentBase{id: id}
}

// ID returns the component id.
func (b *ComponentBase) ID() ComponentID { return b.id }

// AddChannel appends channel with its label.
func (b *ComponentBase) AddChannel(channel ChannelID, label ChannelLabel) {
	b.channels = append(b.channels, channel.MustBeWired())
	b.labels = append(b.labels, label)
}

// Channels returns the attached channels in attach order.
func (b *ComponentBase) Channels() []ChannelID { return b.channels }

// ChannelLabelled returns the first channel attached with label, or UninitializedChannel.
func (b *ComponentBase) ChannelLabelled(label ChannelLabel) ChannelID {
	for i, l := range b.labels {
		if l == label {
			return b.channels[i]
		}
	}
	return UninitializedChannel
}

// HasChannel reports whether channel is attached to this component.
func (b *ComponentBase) HasChannel(channel ChannelID) bool {
	for _, c := range b.channels {
		if c == channel {
			return true
		}
	}
	return false
}

func (b *ComponentBase) String() string {
	return fmt.Sprintf("%s%v", b.id, b.channels)
}
