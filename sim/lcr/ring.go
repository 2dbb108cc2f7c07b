package lcr

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/d2sim/d2sim/sim"
	"github.com/d2sim/d2sim/sim/trace"
)

// DefaultMaxUID bounds randomly drawn uids for small rings.
const DefaultMaxUID = 100

// BuildRing adds n processes to s with distinct random uids and connects
// process i to process i+1 so that each sends on Left and receives on Right.
func BuildRing(s *sim.Simulation[Message], n int, rng *rand.Rand, cb sim.ChannelBuilder[Message]) ([]*Process, error) {
	if n < 2 {
		return nil, fmt.Errorf("ring needs at least 2 processes, got %d", n)
	}
	gen := NewRandomUIDs(max(DefaultMaxUID, 2*n), rng)
	uids := make([]UniqueID, n)
	for i := range uids {
		uids[i] = gen.Generate()
	}
	return BuildRingFromUIDs(s, uids, cb)
}

// BuildRingFromUIDs is BuildRing with caller-chosen uids, one per process in ring order.
func BuildRingFromUIDs(s *sim.Simulation[Message], uids []UniqueID, cb sim.ChannelBuilder[Message]) ([]*Process, error) {
	if len(uids) < 2 {
		return nil, fmt.Errorf("ring needs at least 2 processes, got %d", len(uids))
	}
	seen := make(map[UniqueID]bool, len(uids))
	for _, uid := range uids {
		if seen[uid] {
			return nil, fmt.Errorf("duplicate uid %s", uid)
		}
		seen[uid] = true
	}

	procs := make([]*Process, len(uids))
	for i, uid := range uids {
		s.AddComponent(sim.ComponentBuilderFunc[Message](func(id sim.ComponentID) sim.Component[Message] {
			procs[i] = NewProcess(id, uid)
			return procs[i]
		}))
	}
	for i := range procs {
		next := procs[(i+1)%len(procs)]
		s.AddChannel(cb, procs[i].ID(), next.ID())
	}
	return procs, nil
}

// Validate checks the outcome of a finished election: exactly one leader,
// holding the largest uid, and every other process terminated with it.
func Validate(procs []*Process) error {
	var errs []error
	var leaders []*Process
	maxUID := UniqueID(-1)
	for _, p := range procs {
		maxUID = max(maxUID, p.UID())
		if p.State() == Leader {
			leaders = append(leaders, p)
		}
	}
	if len(leaders) != 1 {
		return fmt.Errorf("expected exactly one leader, found %d", len(leaders))
	}
	leader := leaders[0].UID()
	if leader != maxUID {
		errs = append(errs, fmt.Errorf("leader %s is not the largest uid %s", leader, maxUID))
	}
	for _, p := range procs {
		got, ok := p.Leader()
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("process %s never learned the leader", p.ID()))
		case got != leader:
			errs = append(errs, fmt.Errorf("process %s follows %s, leader is %s", p.ID(), got, leader))
		}
	}
	return errors.Join(errs...)
}

// RingConfig describes one election run.
type RingConfig struct {
	Processes int
	Seed      int64

	// Async draws each channel's delay from [Delay, MaxDelay]; otherwise every
	// channel has the fixed Delay.
	Async    bool
	Delay    sim.SimTimeDelta
	MaxDelay sim.SimTimeDelta

	Trace *trace.SimulationTrace
}

// DefaultRingConfig returns a synchronous 10-process ring with 1ms channels.
func DefaultRingConfig() RingConfig {
	return RingConfig{
		Processes: 10,
		Seed:      42,
		Delay:     sim.Millis(1),
		MaxDelay:  sim.Millis(10),
	}
}

// Outcome summarizes a finished election.
type Outcome struct {
	Leader     UniqueID
	LeaderID   sim.ComponentID
	Messages   int
	FinishedAt sim.SimTime
	Events     uint64
	Processes  []*Process
}

// Elect builds a ring from cfg, runs it to quiescence and validates the result.
func Elect(cfg RingConfig) (*Outcome, error) {
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed))

	cb := sim.NewDelayChannelBuilder[Message]()
	if cfg.Async {
		if cfg.Delay < 0 || cfg.MaxDelay < cfg.Delay {
			return nil, fmt.Errorf("invalid delay range [%s, %s]", cfg.Delay, cfg.MaxDelay)
		}
		cb.WithDelayRange(cfg.Delay, cfg.MaxDelay, rng.ForSubsystem(sim.SubsystemDelay))
	} else {
		if cfg.Delay < 0 {
			return nil, fmt.Errorf("invalid delay %s", cfg.Delay)
		}
		cb.WithDelay(cfg.Delay)
	}

	var opts []sim.Option[Message]
	if cfg.Trace != nil {
		opts = append(opts, sim.WithTrace[Message](cfg.Trace))
	}
	s := sim.NewSimulation[Message](opts...)
	procs, err := BuildRing(s, cfg.Processes, rng.ForSubsystem(sim.SubsystemUID), cb)
	if err != nil {
		return nil, fmt.Errorf("building ring: %w", err)
	}

	if err := s.Run(); err != nil {
		return nil, err
	}
	if err := Validate(procs); err != nil {
		return nil, fmt.Errorf("election result: %w", err)
	}

	out := &Outcome{FinishedAt: s.Now(), Events: s.EventsDispatched(), Processes: procs}
	for _, p := range procs {
		out.Messages += p.Sent()
		if p.State() == Leader {
			out.Leader, out.LeaderID = p.UID(), p.ID()
		}
	}
	logrus.Infof("Elected leader uid %s (%s) after %d messages at %s", out.Leader, out.LeaderID, out.Messages, out.FinishedAt)
	return out, nil
}
