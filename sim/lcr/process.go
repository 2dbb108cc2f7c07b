package lcr

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/d2sim/d2sim/sim"
)

// MessageKind distinguishes the two LCR messages.
type MessageKind int

const (
	// SendUID carries a candidate id around the ring.
	SendUID MessageKind = iota
	// Terminate announces the elected leader.
	Terminate
)

func (k MessageKind) String() string {
	switch k {
	case SendUID:
		return "SendUID"
	case Terminate:
		return "Terminate"
	default:
		return fmt.Sprintf("MessageKind(%d)", int(k))
	}
}

// Message is the payload of an LCR ring. Wakeups carry the zero Message.
type Message struct {
	Kind MessageKind
	UID  UniqueID
}

func (m Message) String() string { return fmt.Sprintf("%s(%s)", m.Kind, m.UID) }

// State is a process's view of the election.
type State int

const (
	Unknown State = iota
	Leader
	Terminated
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Leader:
		return "leader"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Process is one LCR participant. It sends on its Left channel and receives
// on its Right channel.
type Process struct {
	sim.ComponentBase
	uid    UniqueID
	state  State
	leader UniqueID
	sent   int
}

// NewProcess creates a process with the given id and uid.
func NewProcess(id sim.ComponentID, uid UniqueID) *Process {
	return &Process{ComponentBase: sim.NewComponentBase(id), uid: uid}
}

// UID returns the process's own id.
func (p *Process) UID() UniqueID { return p.uid }

// State returns the current election state.
func (p *Process) State() State { return p.state }

// Leader returns the elected leader's uid once the process left Unknown.
func (p *Process) Leader() (UniqueID, bool) {
	if p.state == Unknown {
		return 0, false
	}
	return p.leader, true
}

// Sent returns the number of messages this process sent.
func (p *Process) Sent() int { return p.sent }

func (p *Process) left() sim.ChannelID  { return p.ChannelLabelled(sim.Left) }
func (p *Process) right() sim.ChannelID { return p.ChannelLabelled(sim.Right) }

// Init checks the ring wiring and schedules the first round.
func (p *Process) Init(q *sim.EventQueue[Message]) {
	if !p.left().IsWired() || !p.right().IsWired() {
		panic(fmt.Sprintf("lcr.Process %s: needs a Left and a Right channel, has %v", p.ID(), p.Channels()))
	}
	logrus.Debugf("initialized process %s uid=%s left=%s right=%s", p.ID(), p.uid, p.left(), p.right())
	q.ScheduleWakeup(sim.NoDelta, p.ID(), p.ID(), Message{})
}

// ProcessEvent runs round 0: send the own uid to the left.
func (p *Process) ProcessEvent(q *sim.EventQueue[Message], sender sim.ComponentID, _ Message) {
	if sender != p.ID() {
		q.Fail(fmt.Sprintf("process %s: wakeup from foreign component %s", p.ID(), sender))
		return
	}
	logrus.Debugf("[tick %07d] process %s starting with uid %s", q.Now(), p.ID(), p.uid)
	p.send(q, Message{Kind: SendUID, UID: p.uid})
}

func (p *Process) ReceiveMsg(q *sim.EventQueue[Message], incoming sim.ChannelID, msg Message) {
	if incoming != p.right() {
		q.Fail(fmt.Sprintf("process %s: %s on %s, expected right channel %s", p.ID(), msg, incoming, p.right()))
		return
	}
	logrus.Debugf("[tick %07d] process %s (%s, uid %s) received %s", q.Now(), p.ID(), p.state, p.uid, msg)

	switch p.state {
	case Unknown:
		p.round(q, msg)
	case Leader:
		if msg.Kind != Terminate || msg.UID != p.uid {
			q.Fail(fmt.Sprintf("process %s: leader %s received %s", p.ID(), p.uid, msg))
			return
		}
		logrus.Debugf("[tick %07d] process %s: termination went round the ring", q.Now(), p.ID())
	case Terminated:
		q.Fail(fmt.Sprintf("process %s: %s after termination", p.ID(), msg))
	}
}

func (p *Process) round(q *sim.EventQueue[Message], msg Message) {
	switch msg.Kind {
	case SendUID:
		switch {
		case msg.UID > p.uid:
			p.send(q, msg)
		case msg.UID < p.uid:
			logrus.Debugf("[tick %07d] process %s: discarding %s < %s", q.Now(), p.ID(), msg.UID, p.uid)
		default:
			logrus.Debugf("[tick %07d] process %s: own uid returned, leader", q.Now(), p.ID())
			p.state = Leader
			p.leader = p.uid
			p.send(q, Message{Kind: Terminate, UID: p.uid})
		}
	case Terminate:
		p.state = Terminated
		p.leader = msg.UID
		p.send(q, msg)
	default:
		q.Fail(fmt.Sprintf("process %s: unknown message %s", p.ID(), msg))
	}
}

func (p *Process) send(q *sim.EventQueue[Message], msg Message) {
	p.sent++
	q.SendMessage(sim.NoDelta, p.ID(), p.left(), msg)
}

// Terminate fails the run if the election never reached this process.
func (p *Process) Terminate(q *sim.EventQueue[Message]) {
	logrus.Debugf("terminating process %s uid=%s state=%s leader=%s", p.ID(), p.uid, p.state, p.leader)
	if p.state == Unknown {
		q.Fail(fmt.Sprintf("process %s (uid %s) terminated without a leader", p.ID(), p.uid))
	}
}
