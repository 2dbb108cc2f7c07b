package sim

import (
	"fmt"
	"math/rand"
)

// Channel is a point-to-point link between two components.
// Channels are the only place transit delay enters the simulation.
type Channel[P any] interface {
	ID() ChannelID
	Endpoints() (left, right ComponentID)
	Delay() SimTimeDelta

	// AcceptMessageFrom forwards payload from source to the opposite endpoint.
	// A source that is not an endpoint is a wiring error.
	AcceptMessageFrom(q *EventQueue[P], source ComponentID, payload P)
}

// ChannelBuilder produces a channel for a freshly assigned id and its endpoints.
type ChannelBuilder[P any] interface {
	BuildChannel(id ChannelID, left, right ComponentID) Channel[P]
}

// DelayChannel delivers every message after a fixed propagation delay.
type DelayChannel[P any] struct {
	id    ChannelID
	left  ComponentID
	right ComponentID
	delay SimTimeDelta
}

// NewDelayChannel creates a channel between left and right. Panics on a negative delay.
func NewDelayChannel[P any](id ChannelID, left, right ComponentID, delay SimTimeDelta) *DelayChannel[P] {
	if delay < 0 {
		panic(fmt.Sprintf("NewDelayChannel: negative delay %d on %s", delay, id))
	}
	return &DelayChannel[P]{id: id, left: left, right: right, delay: delay}
}

func (c *DelayChannel[P]) ID() ChannelID { return c.id }

func (c *DelayChannel[P]) Endpoints() (ComponentID, ComponentID) { return c.left, c.right }

func (c *DelayChannel[P]) Delay() SimTimeDelta { return c.delay }

// AcceptMessageFrom schedules a MessageReceive for the other endpoint at now + delay.
func (c *DelayChannel[P]) AcceptMessageFrom(q *EventQueue[P], source ComponentID, payload P) {
	var dst ComponentID
	switch source {
	case c.left:
		dst = c.right
	case c.right:
		dst = c.left
	default:
		panic(fmt.Sprintf("DelayChannel %s: unknown source %s (endpoints %s, %s)", c.id, source, c.left, c.right))
	}
	q.DeliverMessage(c.delay, c.id, dst, payload)
}

func (c *DelayChannel[P]) String() string {
	return fmt.Sprintf("%s{%s<->%s delay=%s}", c.id, c.left, c.right, c.delay)
}

// DelayChannelBuilder builds DelayChannels with either a fixed delay or a delay
// drawn once per channel from a uniform [min, max] range.
type DelayChannelBuilder[P any] struct {
	min SimTimeDelta
	max SimTimeDelta
	rng *rand.Rand
}

// NewDelayChannelBuilder returns a builder with zero delay.
func NewDelayChannelBuilder[P any]() *DelayChannelBuilder[P] {
	return &DelayChannelBuilder[P]{}
}

// WithDelay sets a fixed delay for every channel built afterwards.
func (b *DelayChannelBuilder[P]) WithDelay(delay SimTimeDelta) *DelayChannelBuilder[P] {
	if delay < 0 {
		panic(fmt.Sprintf("DelayChannelBuilder.WithDelay: negative delay %d", delay))
	}
	b.min, b.max, b.rng = delay, delay, nil
	return b
}

// WithDelayRange draws each channel's delay uniformly from [min, max] using rng.
func (b *DelayChannelBuilder[P]) WithDelayRange(min, max SimTimeDelta, rng *rand.Rand) *DelayChannelBuilder[P] {
	if min < 0 || max < min {
		panic(fmt.Sprintf("DelayChannelBuilder.WithDelayRange: invalid range [%d, %d]", min, max))
	}
	if rng == nil {
		panic("DelayChannelBuilder.WithDelayRange: nil rng")
	}
	b.min, b.max, b.rng = min, max, rng
	return b
}

// BuildChannel creates a DelayChannel, drawing its delay if a range is configured.
func (b *DelayChannelBuilder[P]) BuildChannel(id ChannelID, left, right ComponentID) Channel[P] {
	return NewDelayChannel[P](id, left, right, b.nextDelay())
}

func (b *DelayChannelBuilder[P]) nextDelay() SimTimeDelta {
	if b.rng == nil || b.min == b.max {
		return b.min
	}
	return b.min + SimTimeDelta(b.rng.Int63n(int64(b.max-b.min)+1))
}
