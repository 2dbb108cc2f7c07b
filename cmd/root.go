package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/d2sim/d2sim/sim/simpledv"
	"github.com/d2sim/d2sim/sim/topology"
	"github.com/d2sim/d2sim/sim/trace"
)

var (
	// Shared flags
	seed     int64  // Master seed for topology, delays and uids
	logLevel string // Log verbosity level

	// CLI flags for the router network
	scenarioPath  string  // YAML scenario file; overrides the random topology flags
	dvConfigPath  string  // YAML file with SimpleDV timers
	horizonMs     int64   // Simulated time to run, in milliseconds
	traceLevel    string  // Trace verbosity: none, events, routing, all
	numRouters    int     // Routers in a generated topology
	connectivity  float64 // Edge density of a generated topology
	minimumDegree int     // Minimum router degree of a generated topology
	numHosts      int     // Hosts attached to random routers
	delayMinMs    int64   // Lower bound of the link delay range
	delayMaxMs    int64   // Upper bound of the link delay range
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "d2sim",
	Short: "Discrete-event simulator for distributed algorithms and routing protocols",
}

// setLogLevel applies --log or exits.
func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// runCmd simulates a SimpleDV router network
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a SimpleDV distance-vector routing simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}

		dvConfig := simpledv.DefaultConfig()
		if dvConfigPath != "" {
			var err error
			if dvConfig, err = simpledv.LoadConfig(dvConfigPath); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
		overrides := planOverrides{
			seed:       seed,
			seedSet:    cmd.Flags().Changed("seed"),
			horizonMs:  horizonMs,
			horizonSet: cmd.Flags().Changed("horizon-ms"),
			config:     dvConfig,
		}

		var plan *runPlan
		if scenarioPath != "" {
			desc, err := topology.LoadDescription(scenarioPath)
			if err != nil {
				logrus.Fatalf("Failed to load scenario: %v", err)
			}
			if plan, err = planFromScenario(desc, overrides); err != nil {
				logrus.Fatalf("%v", err)
			}
		} else {
			random := randomSpec{
				routers:      numRouters,
				connectivity: connectivity,
				minDegree:    minimumDegree,
				hosts:        numHosts,
				delayMinMs:   delayMinMs,
				delayMaxMs:   delayMaxMs,
			}
			var err error
			if plan, err = planRandom(random, overrides); err != nil {
				logrus.Fatalf("%v", err)
			}
		}

		var st *trace.SimulationTrace
		if level := trace.TraceLevel(traceLevel); level != "" && level != trace.TraceLevelNone {
			st = trace.NewSimulationTrace(trace.TraceConfig{Level: level})
		}

		n, err := plan.build(st)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Starting simulation: %d nodes, %d links, seed=%d, horizon=%s",
			plan.topo.NumNodes(), plan.topo.NumLinks(), plan.seed, plan.horizon)

		runErr := n.RunUntil(plan.horizon)
		if err := writeSummary(os.Stdout, plan, n, st); err != nil {
			logrus.Errorf("%v", err)
		}
		if runErr != nil {
			logrus.Fatalf("Simulation failed: %v", runErr)
		}
		logrus.Info("Simulation complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for topology generation and link delays")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML scenario file (nodes, links, events)")
	runCmd.Flags().StringVar(&dvConfigPath, "dv-config", "", "YAML file with SimpleDV timers (hello_interval_ms, hold_time_ms)")
	runCmd.Flags().Int64Var(&horizonMs, "horizon-ms", 60_000, "Simulated time to run, in milliseconds")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Trace level (none, events, routing, all)")

	// Generated topology
	runCmd.Flags().IntVar(&numRouters, "routers", 10, "Number of routers in a generated topology")
	runCmd.Flags().Float64Var(&connectivity, "connectivity", 0.3, "Edge density of a generated topology, in [0, 1]")
	runCmd.Flags().IntVar(&minimumDegree, "min-degree", 1, "Minimum degree of every router in a generated topology")
	runCmd.Flags().IntVar(&numHosts, "hosts", 2, "Number of hosts attached to random routers")
	runCmd.Flags().Int64Var(&delayMinMs, "delay-min-ms", 1, "Minimum link delay, in milliseconds")
	runCmd.Flags().Int64Var(&delayMaxMs, "delay-max-ms", 1, "Maximum link delay, in milliseconds")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(lcrCmd)
	rootCmd.AddCommand(topoCmd)
}
