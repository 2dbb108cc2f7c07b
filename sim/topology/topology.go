// Package topology describes the graph of hosts, routers and links a network
// simulation is wired from. It is only consulted while the simulation is being
// built; nothing here is touched once the event loop runs.
package topology

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/d2sim/d2sim/sim"
)

// NodeKind distinguishes passive end systems from protocol-speaking routers.
type NodeKind string

const (
	KindHost   NodeKind = "host"
	KindRouter NodeKind = "router"
)

// validNodeKinds is the set of recognized node kinds.
var validNodeKinds = map[NodeKind]bool{KindHost: true, KindRouter: true}

// IsValidNodeKind returns true if kind names a known node kind.
func IsValidNodeKind(kind string) bool {
	return validNodeKinds[NodeKind(kind)]
}

// DefaultDelay marks a link that uses the builder's default delay.
const DefaultDelay sim.SimTimeDelta = -1

// Node is a vertex of the topology. It implements graph.Node and dot.Node.
type Node struct {
	id   int64
	Name string
	Kind NodeKind
}

// ID implements graph.Node.
func (n *Node) ID() int64 { return n.id }

// DOTID implements dot.Node.
func (n *Node) DOTID() string { return n.Name }

// Attributes implements encoding.Attributer so hosts render as boxes.
func (n *Node) Attributes() []encoding.Attribute {
	if n.Kind == KindHost {
		return []encoding.Attribute{{Key: "shape", Value: "box"}}
	}
	return []encoding.Attribute{{Key: "shape", Value: "ellipse"}}
}

// Link is an undirected edge between two named nodes.
type Link struct {
	A     string
	B     string
	Delay sim.SimTimeDelta // DefaultDelay when not overridden
}

// HasDelay reports whether the link overrides the default delay.
func (l Link) HasDelay() bool { return l.Delay != DefaultDelay }

// Topology is an undirected graph of named nodes. Nodes and links are kept in
// insertion order so channel ids derived from it are reproducible.
type Topology struct {
	g      *simple.WeightedUndirectedGraph
	nodes  []*Node
	byName map[string]*Node
	links  []Link
}

// New creates an empty Topology.
func New() *Topology {
	return &Topology{
		g:      simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		byName: make(map[string]*Node),
	}
}

// AddNode adds a node. Names must be unique.
func (t *Topology) AddNode(name string, kind NodeKind) error {
	if name == "" {
		return fmt.Errorf("node name must not be empty")
	}
	if !validNodeKinds[kind] {
		return fmt.Errorf("node %q: unknown kind %q", name, kind)
	}
	if _, dup := t.byName[name]; dup {
		return fmt.Errorf("duplicate node %q", name)
	}
	n := &Node{id: int64(len(t.nodes)), Name: name, Kind: kind}
	t.g.AddNode(n)
	t.nodes = append(t.nodes, n)
	t.byName[name] = n
	return nil
}

// AddLink connects a and b with a unit-weight edge. Pass DefaultDelay to use
// the builder's default delay.
func (t *Topology) AddLink(a, b string, delay sim.SimTimeDelta) error {
	na, ok := t.byName[a]
	if !ok {
		return fmt.Errorf("link %s-%s: unknown node %q", a, b, a)
	}
	nb, ok := t.byName[b]
	if !ok {
		return fmt.Errorf("link %s-%s: unknown node %q", a, b, b)
	}
	if a == b {
		return fmt.Errorf("link %s-%s: self-loop", a, b)
	}
	if t.g.HasEdgeBetween(na.ID(), nb.ID()) {
		return fmt.Errorf("link %s-%s: duplicate link", a, b)
	}
	if delay < 0 && delay != DefaultDelay {
		return fmt.Errorf("link %s-%s: negative delay %d", a, b, delay)
	}
	t.g.SetWeightedEdge(t.g.NewWeightedEdge(na, nb, 1))
	t.links = append(t.links, Link{A: a, B: b, Delay: delay})
	return nil
}

// Node returns the named node, or nil.
func (t *Topology) Node(name string) *Node { return t.byName[name] }

// Nodes returns all nodes in insertion order.
func (t *Topology) Nodes() []*Node { return t.nodes }

// Links returns all links in insertion order.
func (t *Topology) Links() []Link { return t.links }

// NumNodes returns the number of nodes.
func (t *Topology) NumNodes() int { return len(t.nodes) }

// NumLinks returns the number of links.
func (t *Topology) NumLinks() int { return len(t.links) }

// HasLink reports whether a and b are directly connected.
func (t *Topology) HasLink(a, b string) bool {
	na, nb := t.byName[a], t.byName[b]
	if na == nil || nb == nil {
		return false
	}
	return t.g.HasEdgeBetween(na.ID(), nb.ID())
}

// Degree returns the number of links attached to name.
func (t *Topology) Degree(name string) int {
	return len(t.Neighbors(name))
}

// Neighbors returns the names of the nodes linked to name, in link insertion order.
func (t *Topology) Neighbors(name string) []string {
	var out []string
	for _, l := range t.links {
		switch name {
		case l.A:
			out = append(out, l.B)
		case l.B:
			out = append(out, l.A)
		}
	}
	return out
}

// IsConnected reports whether every node is reachable from every other.
// An empty topology is considered connected.
func (t *Topology) IsConnected() bool {
	return len(topo.ConnectedComponents(t.g)) <= 1
}

// HopDistances returns the hop count from the named node to every reachable node.
// Unreachable nodes are omitted.
func (t *Topology) HopDistances(from string) (map[string]int, error) {
	src, ok := t.byName[from]
	if !ok {
		return nil, fmt.Errorf("unknown node %q", from)
	}
	shortest := path.DijkstraFrom(src, t.g)
	out := make(map[string]int, len(t.nodes))
	for _, n := range t.nodes {
		w := shortest.WeightTo(n.ID())
		if math.IsInf(w, 1) {
			continue
		}
		out[n.Name] = int(w)
	}
	return out, nil
}

// DOT renders the topology in Graphviz DOT format.
func (t *Topology) DOT(name string) (string, error) {
	b, err := dot.Marshal(t.g, name, "", "\t")
	if err != nil {
		return "", fmt.Errorf("encoding topology as DOT: %w", err)
	}
	return string(b), nil
}

// Graph exposes the underlying gonum graph for read-only analysis.
func (t *Topology) Graph() graph.Undirected { return t.g }

// clearLinks removes every edge, keeping the nodes.
func (t *Topology) clearLinks() {
	for _, l := range t.links {
		t.g.RemoveEdge(t.byName[l.A].ID(), t.byName[l.B].ID())
	}
	t.links = t.links[:0]
}
