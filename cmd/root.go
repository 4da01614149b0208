package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/busnet-sim/busnet-sim/sim/config"
	"github.com/busnet-sim/busnet-sim/sim/experiment"
	"github.com/busnet-sim/busnet-sim/sim/trace"
)

var (
	// CLI flags for the run command
	seed            int64  // Seed for the event and passenger RNG streams
	logLevel        string // Log verbosity level
	outputPath      string // File for the event log and statistics; stdout when empty
	colour          bool   // Colour the event log by event kind
	quiet           bool   // Suppress the event log
	legacyDelay     bool   // Sample delays with log10 instead of ln
	checkInvariants bool   // Recompute the event index after every event
	ignoreWarnings  bool   // Accept configurations that only raise warnings
	optimise        bool   // Report only the lowest-cost experiment combination
	traceSummary    bool   // Record every event and print a trace summary
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "busnet-sim",
	Short: "Stochastic simulator for bus networks",
}

// runOptions collects the run flags so the run can be driven without cobra.
type runOptions struct {
	Seed            int64
	Colour          bool
	Quiet           bool
	LegacyDelay     bool
	CheckInvariants bool
	IgnoreWarnings  bool
	Optimise        bool
	TraceSummary    bool
}

// runCmd executes the simulation described by the input file
var runCmd = &cobra.Command{
	Use:   "run INPUT",
	Short: "Run the bus network simulation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel(logLevel)

		var w io.Writer = os.Stdout
		if outputPath != "" {
			f, err := os.Create(outputPath)
			if err != nil {
				logrus.Fatalf("Failed to create output file: %v", err)
			}
			defer f.Close()
			w = f
		}

		opts := runOptions{
			Seed:            seed,
			Colour:          colour,
			Quiet:           quiet,
			LegacyDelay:     legacyDelay,
			CheckInvariants: checkInvariants,
			IgnoreWarnings:  ignoreWarnings,
			Optimise:        optimise,
			TraceSummary:    traceSummary,
		}
		if err := runSimulation(args[0], opts, w); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

func setLogLevel(name string) {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", name)
	}
	logrus.SetLevel(level)
}

// loadConfig reads and validates the input file, logging every warning.
func loadConfig(path string, ignoreWarnings bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.IgnoreWarnings = cfg.IgnoreWarnings || ignoreWarnings
	warnings, err := cfg.Validate()
	for _, w := range warnings {
		logrus.Warnf("%s: %s", path, w)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// runSimulation runs a single configuration with its event log, or every
// combination of an experimental one, writing reports to w.
func runSimulation(path string, opts runOptions, w io.Writer) error {
	cfg, err := loadConfig(path, opts.IgnoreWarnings)
	if err != nil {
		return err
	}
	params := experiment.Expand(cfg)
	runner := &experiment.Runner{
		Seed:            opts.Seed,
		LegacyDelay:     opts.LegacyDelay,
		CheckInvariants: opts.CheckInvariants,
	}
	var st *trace.SimulationTrace
	if opts.TraceSummary {
		st = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelEvents})
		runner.Trace = st
	}

	switch {
	case !cfg.Experimental():
		if !opts.Quiet {
			runner.EventLog = w
			runner.Colour = opts.Colour
		}
		logrus.Infof("Starting simulation with %d routes, stop time %g, seed %d",
			len(cfg.Routes), params[0].StopTime, opts.Seed)
		res, err := runner.Run(params[0])
		if err != nil {
			return err
		}
		if !opts.Quiet {
			fmt.Fprintln(w)
		}
		res.Summary.Print(w)
	case cfg.Optimise || opts.Optimise:
		logrus.Infof("Optimising over %d parameter combinations", len(params))
		best, err := runner.Optimise(params)
		if err != nil {
			return err
		}
		best.Print(w)
	default:
		logrus.Infof("Running %d parameter combinations", len(params))
		first := true
		_, err := runner.RunAll(params, func(res *experiment.Result) {
			if !first {
				fmt.Fprintln(w)
			}
			first = false
			res.Print(w)
		})
		if err != nil {
			return err
		}
	}

	if st != nil {
		fmt.Fprintln(w)
		trace.Summarize(st).Print(w)
	}
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for the simulation random streams")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&outputPath, "output", "", "Write the event log and statistics to this file instead of stdout")
	runCmd.Flags().BoolVar(&colour, "color", false, "Colour event log lines by event kind")
	runCmd.Flags().BoolVar(&quiet, "quiet", false, "Do not print the event log")
	runCmd.Flags().BoolVar(&legacyDelay, "legacy-delay", false, "Sample delays as -log10(u)/total instead of -ln(u)/total")
	runCmd.Flags().BoolVar(&checkInvariants, "check-invariants", false, "Verify the event index against the network after every event (slow)")
	runCmd.Flags().BoolVar(&ignoreWarnings, "ignore-warnings", false, "Run configurations that only raise warnings")
	runCmd.Flags().BoolVar(&optimise, "optimise", false, "Report only the lowest-cost experiment combination")
	runCmd.Flags().BoolVar(&traceSummary, "trace-summary", false, "Record every event and print a trace summary")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
