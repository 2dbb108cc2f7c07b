package sim

import (
	"container/heap"
	"fmt"

	"github.com/sirupsen/logrus"
)

// eventEntry wraps an Event with a sequence ID for deterministic FIFO
// tie-breaking when timestamps are equal.
type eventEntry[P any] struct {
	event Event[P]
	seqID uint64
}

// eventHeap is a min-heap ordered by (Time, seqID).
// Implements heap.Interface.
type eventHeap[P any] []eventEntry[P]

func (h eventHeap[P]) Len() int { return len(h) }

func (h eventHeap[P]) Less(i, j int) bool {
	if h[i].event.Time != h[j].event.Time {
		return h[i].event.Time < h[j].event.Time
	}
	return h[i].seqID < h[j].seqID
}

func (h eventHeap[P]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap[P]) Push(x any) {
	*h = append(*h, x.(eventEntry[P]))
}

func (h *eventHeap[P]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = eventEntry[P]{}
	*h = old[:n-1]
	return item
}

// EventQueue owns the simulation clock and every pending event.
// Events pop in (time, insertion sequence) order, so events scheduled for the
// same instant are delivered in the order Schedule was called.
//
// The queue also carries the run-wide failure flag. Once Fail is called,
// PopNext reports EndSimulation without consuming further events.
//
// Thread-safety: NOT thread-safe. The Simulation is its only owner.
type EventQueue[P any] struct {
	events        eventHeap[P]
	now           SimTime
	nextSeq       uint64
	failed        bool
	failureReason string
	sealed        bool
}

// NewEventQueue creates an empty queue at time 0 with the failure flag cleared.
func NewEventQueue[P any]() *EventQueue[P] {
	q := &EventQueue[P]{events: make(eventHeap[P], 0)}
	heap.Init(&q.events)
	return q
}

// Now returns the current simulated time.
func (q *EventQueue[P]) Now() SimTime { return q.now }

// Len returns the number of pending events.
func (q *EventQueue[P]) Len() int { return q.events.Len() }

// Schedule inserts ev at now + delta. A negative delta is a programming error.
func (q *EventQueue[P]) Schedule(delta SimTimeDelta, ev Event[P]) {
	if q.sealed {
		panic(fmt.Sprintf("EventQueue.Schedule: %s scheduled after the run ended", ev.Kind))
	}
	if delta < 0 {
		panic(fmt.Sprintf("EventQueue.Schedule: negative delta %d for %s", delta, ev.Kind))
	}
	if ev.Kind == EndSimulation {
		panic("EventQueue.Schedule: EndSimulation cannot be scheduled, use Fail")
	}
	ev.Time = q.now.Add(delta)
	heap.Push(&q.events, eventEntry[P]{event: ev, seqID: q.nextSeq})
	q.nextSeq++
}

// ScheduleWakeup schedules a ComponentWakeup for receiver after delta.
func (q *EventQueue[P]) ScheduleWakeup(delta SimTimeDelta, sender, receiver ComponentID, payload P) {
	q.Schedule(delta, NewWakeup(sender, receiver, payload))
}

// SendMessage schedules sender handing payload to channel after delta.
func (q *EventQueue[P]) SendMessage(delta SimTimeDelta, sender ComponentID, channel ChannelID, payload P) {
	q.Schedule(delta, NewMessageSend(sender, channel, payload))
}

// DeliverMessage schedules the receive side of a channel transfer after delta.
func (q *EventQueue[P]) DeliverMessage(delta SimTimeDelta, channel ChannelID, receiver ComponentID, payload P) {
	q.Schedule(delta, NewMessageReceive(channel, receiver, payload))
}

// Peek returns the next event without removing it. ok is false on an empty queue.
func (q *EventQueue[P]) Peek() (ev Event[P], ok bool) {
	if q.events.Len() == 0 {
		return ev, false
	}
	return q.events[0].event, true
}

// PopNext removes and returns the next event, advancing the clock to its time.
// It returns an EndSimulation event when the queue is empty or the run has failed.
func (q *EventQueue[P]) PopNext() Event[P] {
	if q.failed || q.events.Len() == 0 {
		return endSimulation[P](q.now)
	}
	entry := heap.Pop(&q.events).(eventEntry[P])
	q.advanceTo(entry.event.Time)
	return entry.event
}

func (q *EventQueue[P]) advanceTo(t SimTime) {
	if t < q.now {
		panic(fmt.Sprintf("EventQueue: time moved backwards from %s to %s", q.now, t))
	}
	q.now = t
}

// Fail flags the run as failed. Only the first reason is kept; the current
// event still completes and the driver stops at the next PopNext.
func (q *EventQueue[P]) Fail(reason string) {
	if q.failed {
		logrus.Warnf("[tick %07d] additional failure after abort: %s", q.now, reason)
		return
	}
	logrus.Errorf("[tick %07d] simulation aborted: %s", q.now, reason)
	q.failed = true
	q.failureReason = reason
}

// Failed reports whether Fail has been called.
func (q *EventQueue[P]) Failed() bool { return q.failed }

// FailureReason returns the reason passed to the first Fail call.
func (q *EventQueue[P]) FailureReason() string { return q.failureReason }

// seal rejects any further scheduling; used once the event loop has ended.
func (q *EventQueue[P]) seal() { q.sealed = true }
