package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d2sim/d2sim/sim"
)

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	assert.True(t, names["run"])
	assert.True(t, names["lcr"])
	assert.True(t, names["topo"])
}

// Shared flag variables are bound by several commands; the last binding sets
// the variable's default, so every command must agree on it.
func TestSharedFlags_SameDefaultEverywhere(t *testing.T) {
	for _, name := range []string{"seed", "log", "routers", "connectivity", "min-degree", "hosts", "scenario"} {
		var defaults []string
		for _, c := range rootCmd.Commands() {
			if f := c.Flags().Lookup(name); f != nil {
				defaults = append(defaults, f.DefValue)
			}
		}
		require.NotEmpty(t, defaults, name)
		for _, d := range defaults[1:] {
			assert.Equal(t, defaults[0], d, "flag --%s", name)
		}
	}
}

func TestLcrConfig_FromFlags(t *testing.T) {
	// GIVEN flag values for an async ring
	numProcesses, asyncRing, ringDelayMs, ringMaxDelayMs, seed = 7, true, 2, 9, 5
	t.Cleanup(func() { numProcesses, asyncRing, ringDelayMs, ringMaxDelayMs, seed = 10, false, 1, 10, 42 })

	// WHEN the election config is assembled
	cfg := lcrConfig()

	// THEN every flag lands in it
	assert.Equal(t, 7, cfg.Processes)
	assert.True(t, cfg.Async)
	assert.Equal(t, sim.Millis(2), cfg.Delay)
	assert.Equal(t, sim.Millis(9), cfg.MaxDelay)
	assert.Equal(t, int64(5), cfg.Seed)
}
