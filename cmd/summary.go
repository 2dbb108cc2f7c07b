package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/d2sim/d2sim/sim/simpledv"
	"github.com/d2sim/d2sim/sim/topology"
	"github.com/d2sim/d2sim/sim/trace"
)

// shortestPathMismatches compares every router's distance to each single-homed
// host against the hop distance in the topology. Multi-homed hosts are skipped:
// their addresses are per attachment, so no single hop count applies.
func shortestPathMismatches(topo *topology.Topology, n *simpledv.Network) []string {
	var out []string
	for _, node := range topo.Nodes() {
		if node.Kind != topology.KindHost {
			continue
		}
		addrs := n.HostAddrs(node.Name)
		if len(addrs) != 1 {
			continue
		}
		hops, err := topo.HopDistances(node.Name)
		if err != nil {
			out = append(out, err.Error())
			continue
		}
		for _, r := range n.Routers() {
			want, reachable := hops[r.Name()]
			got, _, ok := r.BestRoute(addrs[0])
			switch {
			case !reachable && ok && !got.IsInfinity():
				out = append(out, fmt.Sprintf("%s -> %s: got %s, host unreachable", r.Name(), node.Name, got))
			case reachable && (!ok || got != simpledv.NewMetric(want)):
				out = append(out, fmt.Sprintf("%s -> %s: got %s, want %d", r.Name(), node.Name, got, want))
			}
		}
	}
	return out
}

// writeSummary prints the run outcome, every routing table and, when a trace
// was collected, its aggregate statistics as JSON.
func writeSummary(w io.Writer, p *runPlan, n *simpledv.Network, st *trace.SimulationTrace) error {
	s := n.Simulation()
	fmt.Fprintln(w, "=== Simulation Summary ===")
	fmt.Fprintf(w, "Routers              : %d\n", len(n.Routers()))
	fmt.Fprintf(w, "Links                : %d\n", p.topo.NumLinks())
	fmt.Fprintf(w, "Simulated Time       : %s\n", s.Now())
	fmt.Fprintf(w, "Events Dispatched    : %d\n", s.EventsDispatched())
	if len(p.events) == 0 {
		mismatches := shortestPathMismatches(p.topo, n)
		fmt.Fprintf(w, "Shortest Paths       : %d mismatches\n", len(mismatches))
		for _, m := range mismatches {
			fmt.Fprintf(w, "  %s\n", m)
		}
	}

	fmt.Fprintln(w, "=== Routing Tables ===")
	for _, r := range n.Routers() {
		fmt.Fprintf(w, "%s (%s)\n", r.Name(), r.RouterID())
		for _, e := range r.ControlPlane().Routes().Entries() {
			fmt.Fprintf(w, "  %-16s %4s via %s\n", e.Dest, e.Best(), e.Preferred())
		}
	}

	if st == nil {
		return nil
	}
	summary := trace.Summarize(st)
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding trace summary: %w", err)
	}
	fmt.Fprintln(w, "=== Trace Summary ===")
	fmt.Fprintln(w, string(data))
	return nil
}
