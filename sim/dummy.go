package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Dummy is a passive endpoint, e.g. a host attached to a router. It accepts any
// number of channels, never sends, and drops whatever it receives.
type Dummy[P any] struct {
	ComponentBase
	received int
}

// NewDummy creates a Dummy with the given id.
func NewDummy[P any](id ComponentID) *Dummy[P] {
	return &Dummy[P]{ComponentBase: NewComponentBase(id)}
}

// DummyBuilder builds Dummy components.
type DummyBuilder[P any] struct{}

// BuildComponent implements ComponentBuilder.
func (DummyBuilder[P]) BuildComponent(id ComponentID) Component[P] { return NewDummy[P](id) }

func (d *Dummy[P]) Init(*EventQueue[P]) {}

// ProcessEvent panics: a Dummy never schedules anything, so a wakeup is a wiring error.
func (d *Dummy[P]) ProcessEvent(_ *EventQueue[P], sender ComponentID, _ P) {
	panic(fmt.Sprintf("Dummy %s: unexpected wakeup from %s", d.ID(), sender))
}

func (d *Dummy[P]) ReceiveMsg(q *EventQueue[P], incoming ChannelID, _ P) {
	if !d.HasChannel(incoming) {
		q.Fail(fmt.Sprintf("dummy %s received a message on foreign channel %s", d.ID(), incoming))
		return
	}
	d.received++
	logrus.Debugf("[tick %07d] dummy %s dropped message from %s", q.Now(), d.ID(), incoming)
}

func (d *Dummy[P]) Terminate(*EventQueue[P]) {}

// Received returns the number of messages dropped so far.
func (d *Dummy[P]) Received() int { return d.received }
