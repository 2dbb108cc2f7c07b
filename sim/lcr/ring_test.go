package lcr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d2sim/d2sim/sim"
	"github.com/d2sim/d2sim/sim/trace"
)

func fixedDelay(d sim.SimTimeDelta) sim.ChannelBuilder[Message] {
	return sim.NewDelayChannelBuilder[Message]().WithDelay(d)
}

func TestRing_IncreasingUIDs_LargestWins(t *testing.T) {
	// GIVEN a 3-ring with uids 1, 2, 3 and 1ms channels
	s := sim.NewSimulation[Message]()
	procs, err := BuildRingFromUIDs(s, []UniqueID{1, 2, 3}, fixedDelay(sim.Millis(1)))
	require.NoError(t, err)

	// WHEN run to quiescence
	require.NoError(t, s.Run())

	// THEN uid 3 leads, the rest follow it, and the message count is exact
	assert.Equal(t, Terminated, procs[0].State())
	assert.Equal(t, Terminated, procs[1].State())
	assert.Equal(t, Leader, procs[2].State())
	for _, p := range procs {
		leader, ok := p.Leader()
		require.True(t, ok)
		assert.Equal(t, UniqueID(3), leader)
	}
	// 3 initial sends, 2 forwards of uid 3, the leader's Terminate and 2 Terminate forwards
	assert.Equal(t, 8, procs[0].Sent()+procs[1].Sent()+procs[2].Sent())
	assert.Equal(t, sim.SimTime(sim.Millis(6)), s.Now())
	assert.NoError(t, Validate(procs))
}

func TestRing_ChannelLabels(t *testing.T) {
	s := sim.NewSimulation[Message]()
	procs, err := BuildRingFromUIDs(s, []UniqueID{5, 7}, fixedDelay(0))
	require.NoError(t, err)

	// process i's Left is process i+1's Right
	assert.Equal(t, procs[0].left(), procs[1].right())
	assert.Equal(t, procs[1].left(), procs[0].right())
}

func TestBuildRing_Rejects(t *testing.T) {
	s := sim.NewSimulation[Message]()
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(1)).ForSubsystem(sim.SubsystemUID)

	_, err := BuildRing(s, 1, rng, fixedDelay(0))
	assert.Error(t, err)
	_, err = BuildRingFromUIDs(s, []UniqueID{4, 4, 5}, fixedDelay(0))
	assert.Error(t, err)
	assert.Zero(t, s.NumComponents())
}

func TestElect_ExactlyOneLeaderEveryoneAgrees(t *testing.T) {
	for _, async := range []bool{false, true} {
		for seed := int64(1); seed <= 5; seed++ {
			cfg := DefaultRingConfig()
			cfg.Processes = 12
			cfg.Seed = seed
			cfg.Async = async

			out, err := Elect(cfg)

			require.NoError(t, err, "seed %d async %t", seed, async)
			leaders := 0
			maxUID := UniqueID(-1)
			for _, p := range out.Processes {
				maxUID = max(maxUID, p.UID())
				if p.State() == Leader {
					leaders++
				}
				got, _ := p.Leader()
				assert.Equal(t, out.Leader, got)
			}
			assert.Equal(t, 1, leaders)
			assert.Equal(t, maxUID, out.Leader)
			// every uid goes out once, the winner is forwarded n-1 times, Terminate n times
			assert.GreaterOrEqual(t, out.Messages, 3*cfg.Processes-1)
		}
	}
}

func TestElect_SameSeedSameOutcome(t *testing.T) {
	cfg := DefaultRingConfig()
	cfg.Async = true

	a, err := Elect(cfg)
	require.NoError(t, err)
	b, err := Elect(cfg)
	require.NoError(t, err)

	assert.Equal(t, a.Leader, b.Leader)
	assert.Equal(t, a.FinishedAt, b.FinishedAt)
	assert.Equal(t, a.Messages, b.Messages)
}

func TestElect_TracesEveryEvent(t *testing.T) {
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelEvents})
	cfg := DefaultRingConfig()
	cfg.Processes = 4
	cfg.Trace = st

	out, err := Elect(cfg)

	require.NoError(t, err)
	assert.Len(t, st.Events, int(out.Events))
}

func TestElect_InvalidConfig(t *testing.T) {
	cfg := DefaultRingConfig()
	cfg.Processes = 1
	_, err := Elect(cfg)
	assert.Error(t, err)

	cfg = DefaultRingConfig()
	cfg.Async = true
	cfg.MaxDelay = cfg.Delay - 1
	_, err = Elect(cfg)
	assert.Error(t, err)
}

func TestRing_StoppedEarly_UnknownProcessFailsRun(t *testing.T) {
	// GIVEN a ring that is cut off before the Terminate message gets around
	s := sim.NewSimulation[Message]()
	_, err := BuildRingFromUIDs(s, []UniqueID{1, 2, 3}, fixedDelay(sim.Millis(1)))
	require.NoError(t, err)

	// WHEN stopping at 2ms
	err = s.RunUntil(sim.SimTime(sim.Millis(2)))

	// THEN terminate flags the processes still in Unknown
	require.Error(t, err)
	assert.True(t, errors.Is(err, sim.ErrAborted))
	assert.Contains(t, err.Error(), "without a leader")
}

// injector sends one stray SendUID on its only channel at start.
type injector struct {
	sim.ComponentBase
}

func (c *injector) Init(q *sim.EventQueue[Message]) {
	q.ScheduleWakeup(sim.NoDelta, c.ID(), c.ID(), Message{})
}

func (c *injector) ProcessEvent(q *sim.EventQueue[Message], _ sim.ComponentID, _ Message) {
	q.SendMessage(sim.NoDelta, c.ID(), c.Channels()[0], Message{Kind: SendUID, UID: 99})
}

func (c *injector) ReceiveMsg(*sim.EventQueue[Message], sim.ChannelID, Message) {}

func (c *injector) Terminate(*sim.EventQueue[Message]) {}

func TestRing_MessageOnUnexpectedChannel_FailsRun(t *testing.T) {
	// GIVEN a ring plus an extra channel into process 0 that is not its Right
	s := sim.NewSimulation[Message]()
	procs, err := BuildRingFromUIDs(s, []UniqueID{1, 2}, fixedDelay(sim.Millis(1)))
	require.NoError(t, err)
	inj := s.AddComponent(sim.ComponentBuilderFunc[Message](func(id sim.ComponentID) sim.Component[Message] {
		return &injector{ComponentBase: sim.NewComponentBase(id)}
	}))
	s.AddChannel(fixedDelay(0), inj, procs[0].ID())

	// WHEN run
	err = s.Run()

	// THEN process 0 aborts on the stray message
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected right channel")
}
