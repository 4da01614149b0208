package sim

import (
	"errors"
	"fmt"
	"maps"
	"math"
)

// ExpectedTotalRate recomputes the total rate from the network alone,
// ignoring the incremental index.
func (sim *Simulator) ExpectedTotalRate() float64 {
	total := sim.Rates.NewPassengers
	for _, b := range sim.Network.Buses() {
		if b.InMotion() {
			total += b.RoadRate()
			continue
		}
		if b.IsHead() && !b.Full() {
			for _, count := range b.Boards() {
				total += sim.Rates.Board * float64(count)
			}
		}
		total += sim.Rates.Disembark * float64(b.Disembarks())
		if b.DepartureReady() {
			total += sim.Rates.Depart
		}
	}
	return total
}

// CheckInvariants compares the event index with a from-scratch derivation
// from the network and reports every mismatch.
func (sim *Simulator) CheckInvariants() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}
	m := sim.Events

	want := sim.ExpectedTotalRate()
	if tol := 1e-9 * math.Max(1, want); math.Abs(want-m.TotalRate()) > tol {
		fail("total rate %.12g, recomputed %.12g", m.TotalRate(), want)
	}

	for _, id := range sim.Network.StopIDs() {
		s := sim.Network.Stops[id]
		for dest, n := range s.Pax.All() {
			if n <= 0 {
				fail("stop %d holds %d passengers for %d", id, n, dest)
			}
		}
		for _, b := range s.Queue {
			if b.InMotion() || b.Stop() != s {
				fail("bus %s queued at stop %d but positioned elsewhere", b, id)
			}
		}
	}

	for _, b := range sim.Network.Buses() {
		for dest, n := range b.Pax.All() {
			if n <= 0 {
				fail("bus %s holds %d passengers for %d", b, n, dest)
			}
		}
		if b.Load() > b.Capacity() {
			fail("bus %s carries %d over capacity %d", b, b.Load(), b.Capacity())
		}

		if b.InMotion() {
			if !m.HasArrival(b) {
				fail("bus %s in motion but not an arrival candidate", b)
			}
			if m.HasDepart(b) || m.HasDisembark(b) || len(m.BoardCandidates(b)) > 0 {
				fail("bus %s in motion but still has docked candidates", b)
			}
			continue
		}

		if m.HasArrival(b) {
			fail("bus %s docked but an arrival candidate", b)
		}
		wantBoards := map[int]int{}
		if b.IsHead() && !b.Full() {
			for dest, count := range b.Boards() {
				wantBoards[dest] = count
			}
		}
		if got := m.BoardCandidates(b); !maps.Equal(got, wantBoards) {
			fail("bus %s board candidates %v, want %v", b, got, wantBoards)
		}
		if got, want := m.HasDisembark(b), b.Disembarks() > 0; got != want {
			fail("bus %s disembark candidate %v, want %v", b, got, want)
		}
		if got, want := m.HasDepart(b), b.DepartureReady(); got != want {
			fail("bus %s depart candidate %v, want %v", b, got, want)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return &InvariantError{Time: sim.Time, Msg: errors.Join(errs...).Error()}
}
