package simpledv

import (
	"github.com/sirupsen/logrus"

	"github.com/d2sim/d2sim/sim"
)

// p2pInterface is one point-to-point layer-2 interface bound to a channel.
type p2pInterface struct {
	id      InterfaceID
	channel sim.ChannelID
	up      bool
}

// layer2 maps channels to interfaces and gates traffic on the interface state.
type layer2 struct {
	interfaces []p2pInterface
	byChannel  map[sim.ChannelID]InterfaceID
	dropped    int
}

func newLayer2() *layer2 {
	return &layer2{byChannel: make(map[sim.ChannelID]InterfaceID)}
}

// createInterface binds the next interface id to channel.
func (l *layer2) createInterface(channel sim.ChannelID) InterfaceID {
	id := InterfaceID(len(l.interfaces))
	l.interfaces = append(l.interfaces, p2pInterface{id: id, channel: channel.MustBeWired()})
	l.byChannel[channel] = id
	return id
}

func (l *layer2) numInterfaces() int { return len(l.interfaces) }

func (l *layer2) valid(iface InterfaceID) bool {
	return iface >= 0 && int(iface) < len(l.interfaces)
}

func (l *layer2) interfaceFor(channel sim.ChannelID) (InterfaceID, bool) {
	id, ok := l.byChannel[channel]
	return id, ok
}

func (l *layer2) channelOf(iface InterfaceID) sim.ChannelID { return l.interfaces[iface].channel }

func (l *layer2) isUp(iface InterfaceID) bool { return l.interfaces[iface].up }

func (l *layer2) setUp(iface InterfaceID, up bool) { l.interfaces[iface].up = up }

// send frames pkt onto the channel of iface. Frames for a down interface are dropped.
func (l *layer2) send(q *sim.EventQueue[Payload], owner sim.ComponentID, iface InterfaceID, pkt Packet) {
	if !l.isUp(iface) {
		l.dropped++
		logrus.Debugf("[tick %07d] %s: dropping outgoing %s on down %s", q.Now(), owner, pkt, iface)
		return
	}
	q.SendMessage(sim.NoDelta, owner, l.channelOf(iface), &Frame{NextHeader: ControlPlane, Packet: pkt})
}

// accept reports whether a frame arriving on iface should be passed up.
func (l *layer2) accept(now sim.SimTime, owner sim.ComponentID, iface InterfaceID, frame *Frame) bool {
	if !l.isUp(iface) {
		l.dropped++
		logrus.Debugf("[tick %07d] %s: dropping incoming %s on down %s", now, owner, frame.Packet, iface)
		return false
	}
	return true
}
