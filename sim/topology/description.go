package topology

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/d2sim/d2sim/sim"
)

// Description is a network scenario loadable from a YAML file.
// Zero-valued optional fields mean "not set": the CLI falls back to its flag defaults.
type Description struct {
	Seed      *int64      `yaml:"seed"`
	HorizonMs int64       `yaml:"horizon_ms"`
	Timers    TimersDesc  `yaml:"timers"`
	Delay     DelayDesc   `yaml:"delay"`
	Nodes     []NodeDesc  `yaml:"nodes"`
	Links     []LinkDesc  `yaml:"links"`
	Events    []EventDesc `yaml:"events"`
}

// TimersDesc holds the routing protocol timer overrides.
type TimersDesc struct {
	HelloIntervalMs int64 `yaml:"hello_interval_ms"`
	HoldTimeMs      int64 `yaml:"hold_time_ms"`
}

// DelayDesc is the default link delay range. MinMs == MaxMs is a fixed delay.
type DelayDesc struct {
	MinMs int64 `yaml:"min_ms"`
	MaxMs int64 `yaml:"max_ms"`
}

// NodeDesc describes one node.
type NodeDesc struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

// LinkDesc describes one link. DelayMs overrides the default delay when set.
type LinkDesc struct {
	A       string `yaml:"a"`
	B       string `yaml:"b"`
	DelayMs *int64 `yaml:"delay_ms"`
}

// EventDesc schedules an interface state change on router's link to neighbor.
type EventDesc struct {
	AtMs     int64  `yaml:"at_ms"`
	Action   string `yaml:"action"`
	Router   string `yaml:"router"`
	Neighbor string `yaml:"neighbor"`
}

// Interface event actions.
const (
	ActionDown = "down"
	ActionUp   = "up"
)

// ValidActions is the set of recognized interface event actions.
var ValidActions = map[string]bool{ActionDown: true, ActionUp: true}

// LoadDescription reads and parses a YAML scenario file.
func LoadDescription(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return ParseDescription(data)
}

// ParseDescription parses a YAML scenario. Unknown keys are rejected.
func ParseDescription(data []byte) (*Description, error) {
	var d Description
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &d, nil
}

// Validate checks names, kinds, links, delays and scheduled events.
func (d *Description) Validate() error {
	if d.HorizonMs < 0 {
		return fmt.Errorf("horizon_ms must be >= 0, got %d", d.HorizonMs)
	}
	if d.Timers.HelloIntervalMs < 0 || d.Timers.HoldTimeMs < 0 {
		return fmt.Errorf("timers must be >= 0, got hello=%d hold=%d", d.Timers.HelloIntervalMs, d.Timers.HoldTimeMs)
	}
	if d.Delay.MinMs < 0 || d.Delay.MaxMs < d.Delay.MinMs {
		return fmt.Errorf("invalid delay range [%d, %d]", d.Delay.MinMs, d.Delay.MaxMs)
	}
	if len(d.Nodes) == 0 {
		return fmt.Errorf("scenario has no nodes")
	}
	// Topology performs the structural checks.
	t, err := d.buildTopology()
	if err != nil {
		return err
	}
	for i, ev := range d.Events {
		if !ValidActions[ev.Action] {
			return fmt.Errorf("event %d: unknown action %q", i, ev.Action)
		}
		if ev.AtMs < 0 {
			return fmt.Errorf("event %d: at_ms must be >= 0, got %d", i, ev.AtMs)
		}
		n := t.Node(ev.Router)
		if n == nil || n.Kind != KindRouter {
			return fmt.Errorf("event %d: %q is not a router", i, ev.Router)
		}
		if !t.HasLink(ev.Router, ev.Neighbor) {
			return fmt.Errorf("event %d: no link between %q and %q", i, ev.Router, ev.Neighbor)
		}
	}
	return nil
}

// Topology builds the graph of a validated description.
func (d *Description) Topology() (*Topology, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d.buildTopology()
}

func (d *Description) buildTopology() (*Topology, error) {
	t := New()
	for _, n := range d.Nodes {
		if err := t.AddNode(n.Name, NodeKind(n.Kind)); err != nil {
			return nil, err
		}
	}
	for _, l := range d.Links {
		delay := DefaultDelay
		if l.DelayMs != nil {
			if *l.DelayMs < 0 {
				return nil, fmt.Errorf("link %s-%s: negative delay_ms %d", l.A, l.B, *l.DelayMs)
			}
			delay = sim.Millis(*l.DelayMs)
		}
		if err := t.AddLink(l.A, l.B, delay); err != nil {
			return nil, err
		}
	}
	return t, nil
}
