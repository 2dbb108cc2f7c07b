package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/d2sim/d2sim/sim"
	"github.com/d2sim/d2sim/sim/simpledv"
	"github.com/d2sim/d2sim/sim/topology"
	"github.com/d2sim/d2sim/sim/trace"
)

// runPlan is everything needed to build and run one router network.
type runPlan struct {
	topo     *topology.Topology
	config   simpledv.Config
	seed     int64
	horizon  sim.SimTime
	delayMin sim.SimTimeDelta
	delayMax sim.SimTimeDelta
	events   []topology.EventDesc
}

// planOverrides carries the CLI values that may override a scenario file.
// A *Set field is true when the flag was given explicitly.
type planOverrides struct {
	seed       int64
	seedSet    bool
	horizonMs  int64
	horizonSet bool
	config     simpledv.Config
}

// planFromScenario turns a loaded scenario into a runPlan. Explicit CLI flags win
// over the file; the file wins over flag defaults.
func planFromScenario(desc *topology.Description, o planOverrides) (*runPlan, error) {
	topo, err := desc.Topology()
	if err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	seed := o.seed
	if desc.Seed != nil && !o.seedSet {
		seed = *desc.Seed
	}
	horizonMs := o.horizonMs
	if desc.HorizonMs > 0 && !o.horizonSet {
		horizonMs = desc.HorizonMs
	}

	timers := simpledv.TimersConfig{
		HelloIntervalMs: desc.Timers.HelloIntervalMs,
		HoldTimeMs:      desc.Timers.HoldTimeMs,
	}
	cfg := timers.Apply(o.config)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scenario timers: %w", err)
	}

	p := &runPlan{
		topo:     topo,
		config:   cfg,
		seed:     seed,
		horizon:  sim.SimTime(sim.Millis(horizonMs)),
		delayMin: simpledv.DefaultLinkDelay,
		delayMax: simpledv.DefaultLinkDelay,
		events:   desc.Events,
	}
	if desc.Delay.MaxMs > 0 {
		p.delayMin, p.delayMax = sim.Millis(desc.Delay.MinMs), sim.Millis(desc.Delay.MaxMs)
	}
	return p, nil
}

// randomSpec describes a generated topology.
type randomSpec struct {
	routers      int
	connectivity float64
	minDegree    int
	hosts        int
	delayMinMs   int64
	delayMaxMs   int64
}

func (r randomSpec) generator() topology.AnchoredRandomGenerator {
	g := topology.NewAnchoredRandomGenerator(r.routers, r.connectivity)
	if r.minDegree > 0 {
		g.MinimumDegree = r.minDegree
	}
	return g
}

// generateTopology builds a connected random topology with hosts attached,
// drawing from the seed's topology stream.
func generateTopology(r randomSpec, seed int64) (*topology.Topology, error) {
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(seed)).ForSubsystem(sim.SubsystemTopology)
	topo, err := topology.BuildConnected(r.generator(), rng, topology.DefaultMaxIter)
	if err != nil {
		return nil, err
	}
	if err := topology.AttachHosts(topo, r.hosts, rng); err != nil {
		return nil, err
	}
	return topo, nil
}

// planRandom builds a runPlan around a generated topology.
func planRandom(r randomSpec, o planOverrides) (*runPlan, error) {
	if r.delayMinMs < 0 || r.delayMaxMs < r.delayMinMs {
		return nil, fmt.Errorf("invalid delay range [%d, %d] ms", r.delayMinMs, r.delayMaxMs)
	}
	topo, err := generateTopology(r, o.seed)
	if err != nil {
		return nil, fmt.Errorf("generating topology: %w", err)
	}
	return &runPlan{
		topo:     topo,
		config:   o.config,
		seed:     o.seed,
		horizon:  sim.SimTime(sim.Millis(o.horizonMs)),
		delayMin: sim.Millis(r.delayMinMs),
		delayMax: sim.Millis(r.delayMaxMs),
	}, nil
}

// build wires the network and schedules the plan's interface events. st may be nil.
func (p *runPlan) build(st *trace.SimulationTrace) (*simpledv.Network, error) {
	if p.horizon <= 0 {
		return nil, fmt.Errorf("horizon must be > 0, got %s", p.horizon)
	}
	b := simpledv.NewNetworkBuilder().FromTopology(p.topo).WithConfig(p.config)
	if p.delayMin == p.delayMax {
		b.WithDelay(p.delayMin)
	} else {
		rng := sim.NewPartitionedRNG(sim.NewSimulationKey(p.seed))
		b.WithDelayRange(p.delayMin, p.delayMax, rng.ForSubsystem(sim.SubsystemDelay))
	}
	if st != nil {
		b.WithTrace(st)
	}
	n, err := b.Build()
	if err != nil {
		return nil, err
	}

	for _, ev := range p.events {
		at := sim.SimTime(sim.Millis(ev.AtMs))
		switch ev.Action {
		case topology.ActionDown:
			err = n.ScheduleInterfaceDown(at, ev.Router, ev.Neighbor)
		case topology.ActionUp:
			err = n.ScheduleInterfaceUp(at, ev.Router, ev.Neighbor)
		default:
			err = fmt.Errorf("unknown action %q", ev.Action)
		}
		if err != nil {
			return nil, fmt.Errorf("scheduling %s of %s-%s at %dms: %w", ev.Action, ev.Router, ev.Neighbor, ev.AtMs, err)
		}
		logrus.Debugf("scheduled %s of %s-%s at %s", ev.Action, ev.Router, ev.Neighbor, at)
	}
	return n, nil
}
