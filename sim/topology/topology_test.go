package topology

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d2sim/d2sim/sim"
)

// chain builds h1 - r1 - r2 - ... - rN.
func chain(t *testing.T, n int) *Topology {
	t.Helper()
	topo := New()
	require.NoError(t, topo.AddNode("h1", KindHost))
	for i := 0; i < n; i++ {
		require.NoError(t, topo.AddNode(RouterName(i), KindRouter))
	}
	require.NoError(t, topo.AddLink("h1", "r1", DefaultDelay))
	for i := 1; i < n; i++ {
		require.NoError(t, topo.AddLink(RouterName(i-1), RouterName(i), DefaultDelay))
	}
	return topo
}

func TestTopology_HopDistances_Chain(t *testing.T) {
	// GIVEN h1 - r1 - r2 - r3 - r4
	topo := chain(t, 4)

	// WHEN computing hop distances from the host
	dist, err := topo.HopDistances("h1")

	// THEN each router is as many hops away as its position
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"h1": 0, "r1": 1, "r2": 2, "r3": 3, "r4": 4}, dist)
}

func TestTopology_HopDistances_OmitsUnreachable(t *testing.T) {
	topo := chain(t, 2)
	require.NoError(t, topo.AddNode("island", KindRouter))

	dist, err := topo.HopDistances("r1")

	require.NoError(t, err)
	_, ok := dist["island"]
	assert.False(t, ok)
	assert.False(t, topo.IsConnected())

	_, err = topo.HopDistances("nope")
	assert.Error(t, err)
}

func TestTopology_Neighbors_InLinkOrder(t *testing.T) {
	topo := chain(t, 3)

	assert.Equal(t, []string{"h1", "r2"}, topo.Neighbors("r1"))
	assert.Equal(t, []string{"r2"}, topo.Neighbors("r3"))
	assert.Equal(t, 2, topo.Degree("r2"))
	assert.True(t, topo.IsConnected())
	assert.True(t, topo.HasLink("r2", "r1"))
	assert.False(t, topo.HasLink("r1", "r3"))
}

func TestTopology_AddLink_Rejects(t *testing.T) {
	topo := chain(t, 2)

	tests := []struct {
		name  string
		a, b  string
		delay sim.SimTimeDelta
	}{
		{"unknown endpoint", "r1", "r9", DefaultDelay},
		{"self-loop", "r1", "r1", DefaultDelay},
		{"duplicate", "r2", "r1", DefaultDelay},
		{"negative delay", "h1", "r2", -5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, topo.AddLink(tc.a, tc.b, tc.delay))
		})
	}
	assert.Equal(t, 2, topo.NumLinks())
}

func TestTopology_AddNode_Rejects(t *testing.T) {
	topo := New()
	require.NoError(t, topo.AddNode("r1", KindRouter))

	assert.Error(t, topo.AddNode("r1", KindRouter), "duplicate")
	assert.Error(t, topo.AddNode("x", "switch"), "unknown kind")
	assert.Error(t, topo.AddNode("", KindHost), "empty name")
	assert.Equal(t, 1, topo.NumNodes())
}

func TestTopology_DOT_ContainsNodesAndEdges(t *testing.T) {
	topo := chain(t, 2)

	out, err := topo.DOT("net")

	require.NoError(t, err)
	assert.Contains(t, out, "net")
	assert.Contains(t, out, "h1")
	assert.Contains(t, out, "r2")
	assert.Contains(t, out, "--")
	assert.True(t, strings.Contains(out, "box"), "hosts render as boxes")
}

func TestLink_HasDelay(t *testing.T) {
	assert.False(t, Link{Delay: DefaultDelay}.HasDelay())
	assert.True(t, Link{Delay: 0}.HasDelay())
}
