// Package experiment runs a bus network over every combination of its
// configured parameter variants and compares the outcomes.
package experiment

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/busnet-sim/busnet-sim/sim"
	"github.com/busnet-sim/busnet-sim/sim/config"
)

// RouteParams is one route with a concrete bus count and capacity.
type RouteParams struct {
	ID       int
	Stops    []int
	Buses    int
	Capacity int
}

// RoadParams is one road with a concrete rate.
type RoadParams struct {
	From, To int
	Rate     float64
}

// Params is one fully concrete parameter combination.
type Params struct {
	Routes        []RouteParams // sorted by ID
	Roads         []RoadParams  // sorted by (From, To)
	Board         float64
	Disembarks    float64
	Departs       float64
	NewPassengers float64
	StopTime      float64
}

// Expand returns the cartesian product of every variant list in cfg, in a
// fixed order: routes by id (bus count, then capacity), roads by (from, to),
// then board, disembarks, departs and new passengers. The last dimension
// varies fastest. cfg must have passed Validate.
func Expand(cfg *config.Config) []Params {
	routes := slices.SortedFunc(slices.Values(cfg.Routes), func(a, b config.RouteSpec) int {
		return cmp.Compare(a.ID, b.ID)
	})
	roads := slices.SortedFunc(slices.Values(cfg.Roads), func(a, b config.RoadSpec) int {
		return cmp.Or(cmp.Compare(a.From, b.From), cmp.Compare(a.To, b.To))
	})
	rates := []config.FloatValues{cfg.Rates.Board, cfg.Rates.Disembarks, cfg.Rates.Departs, cfg.Rates.NewPassengers}

	var sizes []int
	for _, r := range routes {
		sizes = append(sizes, len(r.Buses), len(r.Capacity))
	}
	for _, r := range roads {
		sizes = append(sizes, len(r.Rate))
	}
	for _, v := range rates {
		sizes = append(sizes, len(v))
	}
	if slices.Contains(sizes, 0) || cfg.StopTime == nil {
		return nil
	}

	assemble := func(idx []int) Params {
		p := Params{StopTime: *cfg.StopTime}
		i := 0
		for _, r := range routes {
			p.Routes = append(p.Routes, RouteParams{
				ID:       r.ID,
				Stops:    r.Stops,
				Buses:    r.Buses[idx[i]],
				Capacity: r.Capacity[idx[i+1]],
			})
			i += 2
		}
		for _, r := range roads {
			p.Roads = append(p.Roads, RoadParams{From: r.From, To: r.To, Rate: r.Rate[idx[i]]})
			i++
		}
		p.Board = rates[0][idx[i]]
		p.Disembarks = rates[1][idx[i+1]]
		p.Departs = rates[2][idx[i+2]]
		p.NewPassengers = rates[3][idx[i+3]]
		return p
	}

	idx := make([]int, len(sizes))
	var out []Params
	for {
		out = append(out, assemble(idx))
		d := len(idx) - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < sizes[d] {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return out
		}
	}
}

// Rates converts p into the engine's rate table.
func (p Params) Rates() sim.Rates {
	roads := make(map[sim.RoadKey]float64, len(p.Roads))
	for _, r := range p.Roads {
		roads[sim.RoadKey{From: r.From, To: r.To}] = r.Rate
	}
	return sim.Rates{
		Board:         p.Board,
		Disembark:     p.Disembarks,
		Depart:        p.Departs,
		NewPassengers: p.NewPassengers,
		Roads:         roads,
	}
}

// Build creates the network and rate table for p.
func (p Params) Build() (*sim.Network, sim.Rates, error) {
	net := sim.NewNetwork()
	for _, r := range p.Routes {
		if err := net.AddRoute(r.ID, r.Stops, r.Buses, r.Capacity); err != nil {
			return nil, sim.Rates{}, fmt.Errorf("building route %d: %w", r.ID, err)
		}
	}
	return net, p.Rates(), nil
}

// Resources is the total seat count across every route's buses.
func (p Params) Resources() int {
	total := 0
	for _, r := range p.Routes {
		total += r.Buses * r.Capacity
	}
	return total
}

// Print writes p in the text configuration format.
func (p Params) Print(w io.Writer) {
	for _, r := range p.Routes {
		stops := make([]string, len(r.Stops))
		for i, s := range r.Stops {
			stops[i] = strconv.Itoa(s)
		}
		fmt.Fprintf(w, "route %d stops %s buses %d capacity %d\n", r.ID, strings.Join(stops, " "), r.Buses, r.Capacity)
	}
	for _, r := range p.Roads {
		fmt.Fprintf(w, "road %d %d %g\n", r.From, r.To, r.Rate)
	}
	fmt.Fprintf(w, "board %g\n", p.Board)
	fmt.Fprintf(w, "disembarks %g\n", p.Disembarks)
	fmt.Fprintf(w, "departs %g\n", p.Departs)
	fmt.Fprintf(w, "new passengers %g\n", p.NewPassengers)
	fmt.Fprintf(w, "stop time %g\n", p.StopTime)
}
