package simpledv

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/d2sim/d2sim/sim"
)

// Default protocol timers. The hold time is three hello intervals.
const (
	DefaultHelloIntervalMs = 5_000
	DefaultHoldTimeMs      = 3 * DefaultHelloIntervalMs
)

// Config holds the per-router protocol configuration.
type Config struct {
	HelloInterval sim.SimTimeDelta
	HoldTime      sim.SimTimeDelta

	// EndSystems maps interfaces facing a host to the address advertised for it.
	// Every other interface speaks the protocol. Filled in by the NetworkBuilder.
	EndSystems map[InterfaceID]HostAddr
}

// DefaultConfig returns the default timers and no end-system interfaces.
func DefaultConfig() Config {
	return Config{
		HelloInterval: sim.Millis(DefaultHelloIntervalMs),
		HoldTime:      sim.Millis(DefaultHoldTimeMs),
	}
}

// Validate checks timer values.
func (c Config) Validate() error {
	if c.HelloInterval <= 0 {
		return fmt.Errorf("hello interval must be > 0, got %s", c.HelloInterval)
	}
	if c.HoldTime <= 0 {
		return fmt.Errorf("hold time must be > 0, got %s", c.HoldTime)
	}
	if c.HoldTime < c.HelloInterval {
		return fmt.Errorf("hold time %s must be >= hello interval %s", c.HoldTime, c.HelloInterval)
	}
	return nil
}

// IsEndSystem reports whether iface faces a host, returning the address it advertises.
func (c Config) IsEndSystem(iface InterfaceID) (HostAddr, bool) {
	addr, ok := c.EndSystems[iface]
	return addr, ok
}

// withEndSystems returns a copy of c with its own EndSystems map.
func (c Config) withEndSystems(endSystems map[InterfaceID]HostAddr) Config {
	c.EndSystems = endSystems
	return c
}

// TimersConfig is the YAML form of the protocol timers.
// Zero fields mean "not set" and keep the current value.
type TimersConfig struct {
	HelloIntervalMs int64 `yaml:"hello_interval_ms"`
	HoldTimeMs      int64 `yaml:"hold_time_ms"`
}

// Apply overrides the timers of c with every non-zero field of t.
func (t TimersConfig) Apply(c Config) Config {
	if t.HelloIntervalMs != 0 {
		c.HelloInterval = sim.Millis(t.HelloIntervalMs)
	}
	if t.HoldTimeMs != 0 {
		c.HoldTime = sim.Millis(t.HoldTimeMs)
	}
	return c
}

// LoadConfig reads protocol timers from a YAML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading simpledv config: %w", err)
	}
	var timers TimersConfig
	if err := yaml.Unmarshal(data, &timers); err != nil {
		return Config{}, fmt.Errorf("parsing simpledv config: %w", err)
	}
	cfg := timers.Apply(DefaultConfig())
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid simpledv config: %w", err)
	}
	return cfg, nil
}
