package sim

// EventKind is the variant tag of an Event.
type EventKind int

const (
	// ComponentWakeup delivers a self-scheduled or externally scheduled event to a component.
	ComponentWakeup EventKind = iota
	// MessageSend hands a message to a channel on behalf of one of its endpoints.
	MessageSend
	// MessageReceive delivers a message that crossed a channel.
	MessageReceive
	// EndSimulation is returned by PopNext when the run is over.
	EndSimulation
)

var eventKindNames = map[EventKind]string{
	ComponentWakeup: "ComponentWakeup",
	MessageSend:     "MessageSend",
	MessageReceive:  "MessageReceive",
	EndSimulation:   "EndSimulation",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Event is one scheduled occurrence. Which of Sender, Receiver and Channel are
// meaningful depends on Kind:
//   - ComponentWakeup: Sender, Receiver, Payload
//   - MessageSend: Sender, Channel, Payload
//   - MessageReceive: Channel, Receiver, Payload
//   - EndSimulation: none
//
// The queue owns the event until it is dispatched; the payload then belongs to
// the component that receives it.
type Event[P any] struct {
	Kind     EventKind
	Time     SimTime
	Sender   ComponentID
	Receiver ComponentID
	Channel  ChannelID
	Payload  P
}

// NewWakeup builds a ComponentWakeup event.
func NewWakeup[P any](sender, receiver ComponentID, payload P) Event[P] {
	return Event[P]{Kind: ComponentWakeup, Sender: sender, Receiver: receiver, Channel: UninitializedChannel, Payload: payload}
}

// NewMessageSend builds a MessageSend event.
func NewMessageSend[P any](sender ComponentID, channel ChannelID, payload P) Event[P] {
	return Event[P]{Kind: MessageSend, Sender: sender, Receiver: -1, Channel: channel.MustBeWired(), Payload: payload}
}

// NewMessageReceive builds a MessageReceive event.
func NewMessageReceive[P any](channel ChannelID, receiver ComponentID, payload P) Event[P] {
	return Event[P]{Kind: MessageReceive, Sender: -1, Receiver: receiver, Channel: channel.MustBeWired(), Payload: payload}
}

func endSimulation[P any](now SimTime) Event[P] {
	return Event[P]{Kind: EndSimulation, Time: now, Sender: -1, Receiver: -1, Channel: UninitializedChannel}
}
