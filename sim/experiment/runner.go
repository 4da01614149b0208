package experiment

import (
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/busnet-sim/busnet-sim/sim"
	"github.com/busnet-sim/busnet-sim/sim/trace"
)

// Runner runs parameter combinations. Every run uses the same Seed, so
// combinations are compared on common random numbers.
type Runner struct {
	Seed        int64
	LegacyDelay bool
	// CheckInvariants verifies the event index against the network after
	// every event. Slow; meant for debugging.
	CheckInvariants bool

	// EventLog, when set, receives one line per applied event.
	EventLog io.Writer
	Colour   bool
	// Trace, when set, records every applied event.
	Trace *trace.SimulationTrace
}

// Result is the outcome of a single run.
type Result struct {
	ID      uuid.UUID
	Params  Params
	Summary *sim.Summary
	Events  int
	EndTime float64
	// Cost is Resources × average waiting passengers; lower is better.
	Cost float64
}

// Run simulates p once and summarises it.
func (r *Runner) Run(p Params) (*Result, error) {
	net, rates, err := p.Build()
	if err != nil {
		return nil, err
	}
	s := sim.NewSimulator(net, rates, sim.RunConfig{
		StopTime:    p.StopTime,
		Seed:        r.Seed,
		LegacyDelay: r.LegacyDelay,
	})
	s.Initialise()

	metrics := sim.NewMetrics(net)
	s.AddObserver(metrics)
	if r.EventLog != nil {
		s.AddObserver(sim.NewEventLogger(r.EventLog, r.Colour))
	}
	if r.Trace.Enabled() {
		s.AddObserver(sim.NewTraceObserver(s, r.Trace))
	}

	if r.CheckInvariants {
		err = runChecked(s)
	} else {
		err = s.Run()
	}
	if err != nil {
		return nil, err
	}

	metrics.Finalize(s.Time)
	summary := metrics.Summary()
	res := &Result{
		ID:      uuid.New(),
		Params:  p,
		Summary: summary,
		Events:  s.EventCount,
		EndTime: s.Time,
		Cost:    float64(p.Resources()) * summary.AvgWait,
	}
	logrus.Debugf("run %s: %d events, end time %.4f, cost %.4f", res.ID, res.Events, res.EndTime, res.Cost)
	return res, nil
}

// runChecked is Simulator.Run with a full invariant check after every event.
func runChecked(s *sim.Simulator) error {
	if err := s.CheckInvariants(); err != nil {
		return err
	}
	for s.Time <= s.StopTime {
		if _, err := s.Step(); err != nil {
			return err
		}
		if err := s.CheckInvariants(); err != nil {
			return err
		}
	}
	return nil
}

// RunAll runs every combination in order, handing each result to report as
// soon as it is available.
func (r *Runner) RunAll(params []Params, report func(*Result)) ([]*Result, error) {
	results := make([]*Result, 0, len(params))
	for i, p := range params {
		logrus.Infof("Running combination %d/%d", i+1, len(params))
		res, err := r.Run(p)
		if err != nil {
			return results, fmt.Errorf("combination %d: %w", i+1, err)
		}
		results = append(results, res)
		if report != nil {
			report(res)
		}
	}
	logCosts(results)
	return results, nil
}

// Optimise runs every combination and returns the one with the lowest cost.
// Ties keep the earliest combination.
func (r *Runner) Optimise(params []Params) (*Result, error) {
	results, err := r.RunAll(params, nil)
	if err != nil {
		return nil, err
	}
	return Best(results), nil
}

// Best returns the lowest-cost result, or nil for none.
func Best(results []*Result) *Result {
	var best *Result
	for _, res := range results {
		if best == nil || res.Cost < best.Cost {
			best = res
		}
	}
	return best
}

// CostStats returns the mean and standard deviation of the results' costs.
// The deviation is 0 for fewer than two results.
func CostStats(results []*Result) (mean, stddev float64) {
	if len(results) == 0 {
		return 0, 0
	}
	costs := make([]float64, len(results))
	for i, res := range results {
		costs[i] = res.Cost
	}
	if len(costs) == 1 {
		return costs[0], 0
	}
	mean, stddev = stat.MeanStdDev(costs, nil)
	if math.IsNaN(stddev) {
		stddev = 0
	}
	return mean, stddev
}

func logCosts(results []*Result) {
	mean, stddev := CostStats(results)
	logrus.Infof("Ran %d combinations, cost mean %.4f, stddev %.4f", len(results), mean, stddev)
}

// Print writes the result's parameters followed by its statistics.
func (res *Result) Print(w io.Writer) {
	res.Params.Print(w)
	fmt.Fprintln(w)
	res.Summary.Print(w)
	fmt.Fprintf(w, "cost %.4f\n", res.Cost)
}
