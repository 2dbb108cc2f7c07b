package sim

import "fmt"

// ComponentID identifies a component within one simulation run.
// Ids are assigned sequentially from 0 in AddComponent order.
type ComponentID int

// ChannelID identifies a channel within one simulation run.
// Ids are assigned sequentially from 0 in AddChannel order.
type ChannelID int

// UninitializedChannel marks a channel slot that has not been wired yet.
const UninitializedChannel ChannelID = -1

// IsWired reports whether c refers to a channel created by the Simulation.
func (c ChannelID) IsWired() bool { return c != UninitializedChannel }

// MustBeWired returns c, panicking if it is still the uninitialized sentinel.
func (c ChannelID) MustBeWired() ChannelID {
	if c == UninitializedChannel {
		panic("sim: use of uninitialized channel id")
	}
	return c
}

func (c ChannelID) String() string {
	if c == UninitializedChannel {
		return "ch_uninit"
	}
	return fmt.Sprintf("ch_%d", int(c))
}

func (id ComponentID) String() string {
	return fmt.Sprintf("c_%d", int(id))
}

// ChannelLabel tells a component which end of a channel it sits on.
// Ring protocols use it to tell the left neighbor from the right one;
// arbitrary-degree nodes ignore it and append the channel as a new interface.
type ChannelLabel int

const (
	Left ChannelLabel = iota
	Right
)

func (l ChannelLabel) String() string {
	if l == Left {
		return "left"
	}
	return "right"
}
