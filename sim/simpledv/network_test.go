package simpledv

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d2sim/d2sim/sim"
	"github.com/d2sim/d2sim/sim/topology"
	"github.com/d2sim/d2sim/sim/trace"
)

// chainNetwork builds h1 - r1 - r2 - r3 - r4 with 1ms links.
func chainNetwork(t *testing.T, st *trace.SimulationTrace) *Network {
	t.Helper()
	b := NewNetworkBuilder().
		AddHost("h1").
		AddRouter("r1").AddRouter("r2").AddRouter("r3").AddRouter("r4").
		AddLink("h1", "r1").AddLink("r1", "r2").AddLink("r2", "r3").AddLink("r3", "r4").
		WithDelay(sim.Millis(1))
	if st != nil {
		b.WithTrace(st)
	}
	n, err := b.Build()
	require.NoError(t, err)
	return n
}

func requireRoute(t *testing.T, n *Network, router string, dest HostAddr) (Metric, InterfaceID) {
	t.Helper()
	r := n.Router(router)
	require.NotNil(t, r, router)
	m, via, ok := r.BestRoute(dest)
	require.True(t, ok, "%s has no route to %s", router, dest)
	return m, via
}

func TestNetwork_Chain_ConvergesToHopDistance(t *testing.T) {
	// GIVEN a chain of four routers with the host on r1
	n := chainNetwork(t, nil)
	host, ok := n.HostAddr("h1")
	require.True(t, ok)

	// WHEN the Hello exchange and updates have settled
	require.NoError(t, n.RunUntil(sim.SimTime(sim.Seconds(1))))

	// THEN every router's distance equals its hop count, via the interface toward r1
	for i, name := range []string{"r1", "r2", "r3", "r4"} {
		m, via := requireRoute(t, n, name, host)
		assert.Equal(t, NewMetric(i+1), m, name)
		toward := "h1"
		if i > 0 {
			toward = []string{"r1", "r2", "r3"}[i-1]
		}
		want, err := n.Interface(name, toward)
		require.NoError(t, err)
		assert.Equal(t, want, via, name)
	}
}

func TestNetwork_Chain_PoisonReverseTowardR1(t *testing.T) {
	// GIVEN a traced chain
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelRouting})
	n := chainNetwork(t, st)

	// WHEN run to convergence
	require.NoError(t, n.RunUntil(sim.SimTime(sim.Seconds(30))))

	// THEN r2 only ever advertised infinity on its r1-facing interface
	r2 := n.Router("r2")
	iface, err := n.Interface("r2", "r1")
	require.NoError(t, err)
	ads := st.AdvertisementsFrom(int(r2.RouterID()), int(iface))
	require.NotEmpty(t, ads)
	for _, a := range ads {
		assert.True(t, a.Infinite, "r2 advertised %d toward r1 at %d", a.Metric, a.Clock)
	}

	summary := trace.Summarize(st)
	assert.Positive(t, summary.PoisonedAdvertised)
	assert.Equal(t, 4, summary.RoutersWithChanges)
}

func TestNetwork_Chain_StaysConvergedAcrossHoldTimes(t *testing.T) {
	// GIVEN a converged chain
	n := chainNetwork(t, nil)
	host, _ := n.HostAddr("h1")

	// WHEN running for several hold times with only periodic hellos
	require.NoError(t, n.RunUntil(sim.SimTime(sim.Seconds(120))))

	// THEN no adjacency was lost and routes are unchanged
	for i, name := range []string{"r1", "r2", "r3", "r4"} {
		m, _ := requireRoute(t, n, name, host)
		assert.Equal(t, NewMetric(i+1), m, name)
	}
	for _, r := range n.Routers() {
		for _, e := range r.Neighbors().Entries() {
			if e.IsPeer() {
				assert.True(t, e.IsActivePeer(), "%s %s lost its neighbor", r.Name(), e.ID)
			}
		}
	}
}

func TestNetwork_Chain_NeighborDownConvergesToInfinity(t *testing.T) {
	// GIVEN a chain where r2's interface toward r1 goes down at 2s
	n := chainNetwork(t, nil)
	host, _ := n.HostAddr("h1")
	require.NoError(t, n.ScheduleInterfaceDown(sim.SimTime(sim.Seconds(2)), "r2", "r1"))

	// WHEN running well past the hold time
	require.NoError(t, n.RunUntil(sim.SimTime(sim.Seconds(60))))

	// THEN r2, r3 and r4 hold no stale finite route
	for _, name := range []string{"r2", "r3", "r4"} {
		m, _ := requireRoute(t, n, name, host)
		assert.True(t, m.IsInfinity(), "%s still has %s", name, m)
	}
	// AND r1 keeps its local route and has expired r2
	m, _ := requireRoute(t, n, "r1", host)
	assert.Equal(t, OneHop, m)
	iface, _ := n.Interface("r1", "r2")
	assert.Nil(t, n.Router("r1").Neighbors().Get(iface).Neighbor)
	assert.Positive(t, n.Router("r2").Dropped(), "r1's hellos were dropped on the down interface")
}

func TestNetwork_Chain_InterfaceUpReconverges(t *testing.T) {
	// GIVEN r2's r1-facing interface down at 2s and back up at 7s, before r1's hold time runs out
	n := chainNetwork(t, nil)
	host, _ := n.HostAddr("h1")
	require.NoError(t, n.ScheduleInterfaceDown(sim.SimTime(sim.Seconds(2)), "r2", "r1"))
	require.NoError(t, n.ScheduleInterfaceUp(sim.SimTime(sim.Seconds(7)), "r2", "r1"))

	// WHEN running on
	require.NoError(t, n.RunUntil(sim.SimTime(sim.Seconds(60))))

	// THEN the chain has re-converged
	for i, name := range []string{"r1", "r2", "r3", "r4"} {
		m, _ := requireRoute(t, n, name, host)
		assert.Equal(t, NewMetric(i+1), m, name)
	}
}

func TestNetwork_Chain_InterfaceUpAfterHoldExpiry(t *testing.T) {
	n := chainNetwork(t, nil)
	host, _ := n.HostAddr("h1")
	require.NoError(t, n.ScheduleInterfaceDown(sim.SimTime(sim.Seconds(2)), "r2", "r1"))
	require.NoError(t, n.ScheduleInterfaceUp(sim.SimTime(sim.Seconds(40)), "r2", "r1"))

	require.NoError(t, n.RunUntil(sim.SimTime(sim.Seconds(90))))

	m, _ := requireRoute(t, n, "r4", host)
	assert.Equal(t, NewMetric(4), m)
}

func TestNetwork_RandomTopology_ConvergesToShortestPaths(t *testing.T) {
	// GIVEN a random connected topology with two hosts and random link delays
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(11))
	topo, err := topology.BuildConnected(topology.NewAnchoredRandomGenerator(8, 0.3),
		rng.ForSubsystem(sim.SubsystemTopology), topology.DefaultMaxIter)
	require.NoError(t, err)
	require.NoError(t, topology.AttachHosts(topo, 2, rng.ForSubsystem(sim.SubsystemTopology)))

	n, err := NewNetworkBuilder().
		FromTopology(topo).
		WithDelayRange(sim.Millis(1), sim.Millis(5), rng.ForSubsystem(sim.SubsystemDelay)).
		Build()
	require.NoError(t, err)

	// WHEN run to convergence
	require.NoError(t, n.RunUntil(sim.SimTime(sim.Seconds(10))))

	// THEN every router's distance to each host is its hop distance
	for _, host := range []string{topology.HostName(0), topology.HostName(1)} {
		addr, ok := n.HostAddr(host)
		require.True(t, ok)
		hops, err := topo.HopDistances(host)
		require.NoError(t, err)
		for _, r := range n.Routers() {
			m, _ := requireRoute(t, n, r.Name(), addr)
			assert.Equal(t, NewMetric(hops[r.Name()]), m, "%s -> %s", r.Name(), host)
		}
	}
}

func TestNetwork_SameSeed_SameEventSequence(t *testing.T) {
	run := func() []trace.EventRecord {
		st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelEvents})
		n := chainNetwork(t, st)
		require.NoError(t, n.RunUntil(sim.SimTime(sim.Seconds(10))))
		return st.Events
	}

	first, second := run(), run()

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestNetwork_LinkDelayOverride(t *testing.T) {
	n, err := NewNetworkBuilder().
		AddRouter("a").AddRouter("b").AddRouter("c").
		AddLinkWithDelay("a", "b", sim.Millis(7)).
		AddLink("b", "c").
		WithDelay(sim.Millis(2)).
		Build()
	require.NoError(t, err)

	assert.Equal(t, sim.Millis(7), n.Simulation().Channel(0).Delay())
	assert.Equal(t, sim.Millis(2), n.Simulation().Channel(1).Delay())
	assert.Equal(t, RouterID(1), n.Router("a").RouterID())
	assert.Equal(t, RouterID(3), n.Router("c").RouterID())
}

func TestNetworkBuilder_Build_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		build func() *NetworkBuilder
	}{
		{"duplicate node", func() *NetworkBuilder { return NewNetworkBuilder().AddRouter("r1").AddHost("r1") }},
		{"unknown node", func() *NetworkBuilder { return NewNetworkBuilder().AddRouter("r1").AddLink("r1", "r2") }},
		{"self-loop", func() *NetworkBuilder { return NewNetworkBuilder().AddRouter("r1").AddLink("r1", "r1") }},
		{"host to host", func() *NetworkBuilder { return NewNetworkBuilder().AddHost("a").AddHost("b").AddLink("a", "b") }},
		{"duplicate link", func() *NetworkBuilder {
			return NewNetworkBuilder().AddRouter("a").AddRouter("b").AddLink("a", "b").AddLink("b", "a")
		}},
		{"negative delay", func() *NetworkBuilder {
			return NewNetworkBuilder().AddRouter("a").AddRouter("b").AddLinkWithDelay("a", "b", -1)
		}},
		{"bad timers", func() *NetworkBuilder {
			return NewNetworkBuilder().WithConfig(Config{HelloInterval: sim.Seconds(5), HoldTime: sim.Seconds(1)})
		}},
		{"range without rng", func() *NetworkBuilder {
			return NewNetworkBuilder().WithDelayRange(sim.Millis(1), sim.Millis(3), nil)
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.build().Build()
			assert.Error(t, err)
		})
	}
}

func TestNetwork_ScheduleInterfaceEvent_Rejects(t *testing.T) {
	n := chainNetwork(t, nil)

	assert.Error(t, n.ScheduleInterfaceDown(sim.SimTime(sim.Seconds(1)), "r9", "r1"), "unknown router")
	assert.Error(t, n.ScheduleInterfaceDown(sim.SimTime(sim.Seconds(1)), "r1", "r4"), "no such link")
	assert.Error(t, n.ScheduleInterfaceUp(0, "r1", "r2"), "at start of run")
	assert.Error(t, n.ScheduleInterfaceDown(sim.SimTime(sim.Seconds(1)), "h1", "r1"), "host is not a router")
}

func TestNetwork_InvalidInterfaceEvent_AbortsRun(t *testing.T) {
	// GIVEN a wakeup naming an interface r1 does not have
	n := chainNetwork(t, nil)
	n.Simulation().ScheduleWakeup(sim.SimTime(sim.Seconds(1)), n.Router("r1").ID(), InterfaceDown{Interface: 9})

	// WHEN run
	err := n.RunUntil(sim.SimTime(sim.Seconds(5)))

	// THEN the run aborts right after that event
	require.Error(t, err)
	assert.True(t, errors.Is(err, sim.ErrAborted))
	assert.Equal(t, sim.SimTime(sim.Seconds(1)), n.Simulation().Now())
}

func TestNetwork_HostAddrs_OnePerAttachment(t *testing.T) {
	n, err := NewNetworkBuilder().
		AddHost("h").AddRouter("a").AddRouter("b").
		AddLink("a", "b").AddLink("h", "a").AddLink("b", "h").
		WithDelayRange(sim.Millis(1), sim.Millis(2), rand.New(rand.NewSource(1))).
		Build()
	require.NoError(t, err)

	addrs := n.HostAddrs("h")

	assert.Equal(t, []HostAddr{{Router: 1, Interface: 1}, {Router: 2, Interface: 1}}, addrs)

	require.NoError(t, n.RunUntil(sim.SimTime(sim.Seconds(1))))
	m, _ := requireRoute(t, n, "a", addrs[1])
	assert.Equal(t, NewMetric(2), m)
}
