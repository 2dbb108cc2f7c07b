package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/d2sim/d2sim/sim/topology"
)

var dotName string // Graph name in the DOT output

// topoCmd prints a topology as Graphviz DOT
var topoCmd = &cobra.Command{
	Use:   "topo",
	Short: "Generate a random connected topology, or load a scenario, and print it as DOT",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		var topo *topology.Topology
		var err error
		if scenarioPath != "" {
			var desc *topology.Description
			if desc, err = topology.LoadDescription(scenarioPath); err == nil {
				topo, err = desc.Topology()
			}
		} else {
			topo, err = generateTopology(randomSpec{
				routers:      numRouters,
				connectivity: connectivity,
				minDegree:    minimumDegree,
				hosts:        numHosts,
			}, seed)
		}
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		dot, err := topo.DOT(dotName)
		if err != nil {
			logrus.Fatalf("Failed to encode DOT: %v", err)
		}
		fmt.Println(dot)
	},
}

func init() {
	topoCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for topology generation")
	topoCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	topoCmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML scenario file to render instead of a generated topology")
	topoCmd.Flags().IntVar(&numRouters, "routers", 10, "Number of routers")
	topoCmd.Flags().Float64Var(&connectivity, "connectivity", 0.3, "Edge density, in [0, 1]")
	topoCmd.Flags().IntVar(&minimumDegree, "min-degree", 1, "Minimum degree of every router")
	topoCmd.Flags().IntVar(&numHosts, "hosts", 2, "Number of hosts attached to random routers")
	topoCmd.Flags().StringVar(&dotName, "name", "d2sim", "Graph name in the DOT output")
}
