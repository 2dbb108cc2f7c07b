package topology

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrNotConnected is returned when no connected topology was produced within the retry budget.
var ErrNotConnected = errors.New("could not generate a connected topology")

// DefaultMaxIter is the retry budget used by the CLI.
const DefaultMaxIter = 10

// AnchoredRandomGenerator produces a random graph of routers named r1..rN.
// Every node first gets MinimumDegree links ("anchoring"), then random links are
// added until the estimated edge count is reached.
type AnchoredRandomGenerator struct {
	NumNodes      int
	Connectivity  float64 // fraction of n*n/2 edges to aim for
	MinimumDegree int
}

// NewAnchoredRandomGenerator returns a generator with a minimum degree of 1.
func NewAnchoredRandomGenerator(numNodes int, connectivity float64) AnchoredRandomGenerator {
	return AnchoredRandomGenerator{NumNodes: numNodes, Connectivity: connectivity, MinimumDegree: 1}
}

// Validate checks the generator parameters.
func (g AnchoredRandomGenerator) Validate() error {
	if g.NumNodes < 1 {
		return fmt.Errorf("number of nodes must be >= 1, got %d", g.NumNodes)
	}
	if g.Connectivity < 0 || g.Connectivity > 1 {
		return fmt.Errorf("connectivity must be in [0, 1], got %v", g.Connectivity)
	}
	if g.MinimumDegree < 0 {
		return fmt.Errorf("minimum degree must be >= 0, got %d", g.MinimumDegree)
	}
	if g.NumNodes > 1 && g.MinimumDegree > g.NumNodes-1 {
		return fmt.Errorf("minimum degree %d impossible with %d nodes", g.MinimumDegree, g.NumNodes)
	}
	if g.NumNodes == 1 && g.MinimumDegree > 0 {
		return fmt.Errorf("minimum degree %d impossible with a single node", g.MinimumDegree)
	}
	return nil
}

// EstimatedEdgesCount returns max(ceil(c*n*n/2), ceil(minDeg*n/2)), capped at
// the n*(n-1)/2 edges of a complete graph.
func (g AnchoredRandomGenerator) EstimatedEdgesCount() int {
	n := float64(g.NumNodes)
	edges := int(math.Max(
		math.Ceil(g.Connectivity*n*n/2),
		math.Ceil(float64(g.MinimumDegree)*n/2),
	))
	if complete := g.NumNodes * (g.NumNodes - 1) / 2; edges > complete {
		edges = complete
	}
	return edges
}

// RouterName returns the name the generator gives to node i (0-based).
func RouterName(i int) string { return fmt.Sprintf("r%d", i+1) }

// Generate builds one random topology. It may be disconnected.
func (g AnchoredRandomGenerator) Generate(rng *rand.Rand) (*Topology, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	t := New()
	for i := 0; i < g.NumNodes; i++ {
		if err := t.AddNode(RouterName(i), KindRouter); err != nil {
			return nil, err
		}
	}
	g.generateLinks(t, rng)
	return t, nil
}

func (g AnchoredRandomGenerator) generateLinks(t *Topology, rng *rand.Rand) {
	edgesLeft := g.EstimatedEdgesCount()

	// anchor every node to MinimumDegree others
	for head := 0; head < g.NumNodes; head++ {
		for t.Degree(RouterName(head)) < g.MinimumDegree {
			tail := rng.Intn(g.NumNodes)
			if tail == head || t.HasLink(RouterName(head), RouterName(tail)) {
				continue
			}
			_ = t.AddLink(RouterName(head), RouterName(tail), DefaultDelay)
			edgesLeft--
		}
	}

	for edgesLeft > 0 {
		head, tail := rng.Intn(g.NumNodes), rng.Intn(g.NumNodes)
		if head == tail || t.HasLink(RouterName(head), RouterName(tail)) {
			continue
		}
		_ = t.AddLink(RouterName(head), RouterName(tail), DefaultDelay)
		edgesLeft--
	}
}

// BuildConnected generates topologies until one is connected, giving up after maxIter attempts.
func BuildConnected(g AnchoredRandomGenerator, rng *rand.Rand, maxIter int) (*Topology, error) {
	if maxIter < 1 {
		return nil, fmt.Errorf("maxIter must be >= 1, got %d", maxIter)
	}
	t, err := g.Generate(rng)
	if err != nil {
		return nil, err
	}
	for i := 0; i < maxIter; i++ {
		if i > 0 {
			t.clearLinks()
			g.generateLinks(t, rng)
		}
		if t.IsConnected() {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %d nodes, connectivity %v, %d attempts", ErrNotConnected, g.NumNodes, g.Connectivity, maxIter)
}

// HostName returns the name AttachHosts gives to host i (0-based).
func HostName(i int) string { return fmt.Sprintf("h%d", i+1) }

// AttachHosts adds n hosts h1..hN, each linked to a router picked uniformly at random.
func AttachHosts(t *Topology, n int, rng *rand.Rand) error {
	var routers []string
	for _, node := range t.Nodes() {
		if node.Kind == KindRouter {
			routers = append(routers, node.Name)
		}
	}
	if n > 0 && len(routers) == 0 {
		return fmt.Errorf("cannot attach %d hosts: topology has no routers", n)
	}
	for i := 0; i < n; i++ {
		name := HostName(i)
		if err := t.AddNode(name, KindHost); err != nil {
			return err
		}
		if err := t.AddLink(routers[rng.Intn(len(routers))], name, DefaultDelay); err != nil {
			return err
		}
	}
	return nil
}
