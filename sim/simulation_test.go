package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d2sim/d2sim/sim/trace"
)

// pinger sends one message per attached channel on Init and echoes back
// whatever it receives until the hop budget is spent.
type pinger struct {
	ComponentBase
	budget     int
	received   []SimTime
	wakeups    int
	terminated bool
	failOn     int
}

func newPinger(id ComponentID, budget int) *pinger {
	return &pinger{ComponentBase: NewComponentBase(id), budget: budget, failOn: -1}
}

func (p *pinger) Init(q *EventQueue[int]) {
	for _, ch := range p.Channels() {
		q.SendMessage(NoDelta, p.ID(), ch, 0)
	}
}

func (p *pinger) ProcessEvent(q *EventQueue[int], sender ComponentID, payload int) {
	p.wakeups++
	if payload == p.failOn {
		q.Fail("wakeup asked to fail")
	}
}

func (p *pinger) ReceiveMsg(q *EventQueue[int], incoming ChannelID, hops int) {
	p.received = append(p.received, q.Now())
	if hops < p.budget {
		q.SendMessage(NoDelta, p.ID(), incoming, hops+1)
	}
}

func (p *pinger) Terminate(*EventQueue[int]) { p.terminated = true }

func pingerBuilder(budget int, out *[]*pinger) ComponentBuilder[int] {
	return ComponentBuilderFunc[int](func(id ComponentID) Component[int] {
		p := newPinger(id, budget)
		*out = append(*out, p)
		return p
	})
}

func TestSimulation_ChannelDelay_DeliversAtSendPlusDelay(t *testing.T) {
	// GIVEN two pingers joined by a 3ms channel
	var ps []*pinger
	s := NewSimulation[int]()
	a := s.AddComponent(pingerBuilder(0, &ps))
	b := s.AddComponent(pingerBuilder(0, &ps))
	s.AddChannel(NewDelayChannelBuilder[int]().WithDelay(Millis(3)), a, b)

	// WHEN both send at time 0
	require.NoError(t, s.Run())

	// THEN each message arrives at exactly 3ms
	assert.Equal(t, []SimTime{SimTime(Millis(3))}, ps[0].received)
	assert.Equal(t, []SimTime{SimTime(Millis(3))}, ps[1].received)
	// 2 sends + 2 receives
	assert.Equal(t, uint64(4), s.EventsDispatched())
}

func TestSimulation_PingPong_RunsToQuiescence(t *testing.T) {
	// GIVEN a ping-pong exchange with a budget of 4 hops
	var ps []*pinger
	s := NewSimulation[int]()
	a := s.AddComponent(pingerBuilder(4, &ps))
	b := s.AddComponent(pingerBuilder(4, &ps))
	s.AddChannel(NewDelayChannelBuilder[int]().WithDelay(Millis(1)), a, b)

	// WHEN run
	require.NoError(t, s.Run())

	// THEN every component was terminated once the queue drained
	assert.Len(t, ps[0].received, 5)
	assert.Equal(t, SimTime(Millis(5)), s.Now())
	assert.True(t, ps[0].terminated)
	assert.True(t, ps[1].terminated)
	assert.False(t, s.Failed())
}

func TestSimulation_Fail_AbortsAfterCurrentEvent(t *testing.T) {
	// GIVEN a component with a scheduled failing wakeup at 2ms and a later one at 5ms
	var ps []*pinger
	s := NewSimulation[int]()
	a := s.AddComponent(pingerBuilder(0, &ps))
	ps[0].failOn = 1
	s.ScheduleWakeup(SimTime(Millis(2)), a, 1)
	s.ScheduleWakeup(SimTime(Millis(5)), a, 2)

	// WHEN run
	err := s.Run()

	// THEN the run aborts with ErrAborted and the later wakeup never fires
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAborted))
	assert.Contains(t, err.Error(), "wakeup asked to fail")
	assert.Equal(t, 1, ps[0].wakeups)
	assert.True(t, ps[0].terminated, "Terminate still runs on abort")
}

func TestSimulation_RunUntil_StopsAfterDeadline(t *testing.T) {
	// GIVEN wakeups at 1ms, 2ms and 10ms
	var ps []*pinger
	s := NewSimulation[int]()
	a := s.AddComponent(pingerBuilder(0, &ps))
	for _, ms := range []int64{1, 2, 10} {
		s.ScheduleWakeup(SimTime(Millis(ms)), a, 0)
	}

	// WHEN run until 5ms
	require.NoError(t, s.RunUntil(SimTime(Millis(5))))

	// THEN the event crossing the deadline is the last one delivered
	assert.Equal(t, 3, ps[0].wakeups)
	assert.Equal(t, SimTime(Millis(10)), s.Now())
}

func TestSimulation_AddChannel_LabelsLeftAndRight(t *testing.T) {
	var ps []*pinger
	s := NewSimulation[int]()
	a := s.AddComponent(pingerBuilder(0, &ps))
	b := s.AddComponent(pingerBuilder(0, &ps))

	ch := s.AddChannel(NewDelayChannelBuilder[int](), a, b)

	assert.Equal(t, ch, ps[0].ChannelLabelled(Left))
	assert.Equal(t, UninitializedChannel, ps[0].ChannelLabelled(Right))
	assert.Equal(t, ch, ps[1].ChannelLabelled(Right))
	left, right := s.Channel(ch).Endpoints()
	assert.Equal(t, a, left)
	assert.Equal(t, b, right)
}

func TestSimulation_Misuse_Panics(t *testing.T) {
	var ps []*pinger
	s := NewSimulation[int]()
	a := s.AddComponent(pingerBuilder(0, &ps))

	assert.Panics(t, func() { s.AddChannel(NewDelayChannelBuilder[int](), a, a) }, "self-loop")
	assert.Panics(t, func() { s.AddChannel(NewDelayChannelBuilder[int](), a, 9) }, "unknown component")

	require.NoError(t, s.Run())
	assert.Panics(t, func() { _ = s.Run() }, "second run")
	assert.Panics(t, func() { s.AddComponent(pingerBuilder(0, &ps)) }, "frozen topology")
}

func TestSimulation_WithTrace_RecordsEvents(t *testing.T) {
	// GIVEN a traced simulation
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelEvents})
	var ps []*pinger
	s := NewSimulation[int](WithTrace[int](st))
	a := s.AddComponent(pingerBuilder(0, &ps))
	b := s.AddComponent(pingerBuilder(0, &ps))
	s.AddChannel(NewDelayChannelBuilder[int]().WithDelay(1), a, b)

	// WHEN run
	require.NoError(t, s.Run())

	// THEN every dispatched event is recorded in order
	require.Len(t, st.Events, 4)
	assert.Equal(t, "MessageSend", st.Events[0].Kind)
	assert.Equal(t, "MessageReceive", st.Events[3].Kind)
	for i, e := range st.Events {
		assert.Equal(t, uint64(i+1), e.Index)
	}
}

func TestSimulation_WithTrace_LevelNoneRecordsNothing(t *testing.T) {
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelNone})
	var ps []*pinger
	s := NewSimulation[int](WithTrace[int](st))
	a := s.AddComponent(pingerBuilder(0, &ps))
	s.ScheduleWakeup(1, a, 0)

	require.NoError(t, s.Run())

	assert.Empty(t, st.Events)
}

func TestDummy_CountsAndRejectsForeignChannel(t *testing.T) {
	// GIVEN a pinger wired to a dummy
	var ps []*pinger
	s := NewSimulation[int]()
	p := s.AddComponent(pingerBuilder(3, &ps))
	d := s.AddComponent(DummyBuilder[int]{})
	s.AddChannel(NewDelayChannelBuilder[int]().WithDelay(1), p, d)

	// WHEN run
	require.NoError(t, s.Run())

	// THEN the dummy dropped the single message and never answered
	assert.Equal(t, 1, s.Component(d).(*Dummy[int]).Received())
	assert.Empty(t, ps[0].received)

	// AND a message on a channel it does not own fails the run
	q := NewEventQueue[int]()
	NewDummy[int](5).ReceiveMsg(q, 3, 0)
	assert.True(t, q.Failed())
}
