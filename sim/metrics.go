// Tracks run-wide statistics of the bus network such as:
//   - passengers left behind by full buses
//   - passengers carried per bus trip
//   - time-averaged bus queue length and waiting passengers per stop

package sim

import (
	"fmt"
	"io"
)

// busTrips accumulates passengers carried over a bus's departures.
type busTrips struct {
	Trips      int
	Passengers int
}

// Metrics aggregates statistics about the simulation for final reporting.
// It is an Observer; register it before running and call Finalize at the end.
type Metrics struct {
	net *Network

	MissedByStop  map[int]int // passengers left waiting when a full bus that could take them departs
	MissedByRoute map[int]int
	Trips         map[*Bus]*busTrips
	QueueArea     map[int]float64 // integral of queue length over time, per stop
	WaitArea      map[int]float64 // integral of waiting passengers over time, per stop
	EndTime       float64
}

// NewMetrics creates Metrics for net. The network must already be initialised.
func NewMetrics(net *Network) *Metrics {
	return &Metrics{
		net:           net,
		MissedByStop:  make(map[int]int),
		MissedByRoute: make(map[int]int),
		Trips:         make(map[*Bus]*busTrips),
		QueueArea:     make(map[int]float64),
		WaitArea:      make(map[int]float64),
	}
}

// integrate accrues the stop's queue length and waiting passengers over the
// interval since its last observation. It must run before either changes.
func (m *Metrics) integrate(s *Stop, now float64) {
	dt := s.observe(now)
	m.QueueArea[s.ID] += float64(s.QueueLength()) * dt
	m.WaitArea[s.ID] += float64(s.PaxCount()) * dt
}

func (m *Metrics) BeforeEvent(ev Event, now float64) {
	switch e := ev.(type) {
	case *DepartEvent:
		b := e.Bus
		stop := b.Stop()
		m.integrate(stop, now)
		if b.Full() {
			if missed := b.BoardersWaiting(); missed > 0 {
				m.MissedByStop[stop.ID] += missed
				m.MissedByRoute[b.Route.ID] += missed
			}
		}
		t, ok := m.Trips[b]
		if !ok {
			t = &busTrips{}
			m.Trips[b] = t
		}
		t.Trips++
		t.Passengers += b.Load()
	case *ArrivalEvent:
		m.integrate(e.Bus.Stop(), now)
	case *BoardEvent:
		m.integrate(e.Bus.Stop(), now)
	case *PassengerEvent:
		if s, ok := m.net.Stops[e.Origin]; ok {
			m.integrate(s, now)
		}
	}
}

func (m *Metrics) AfterEvent(Event, float64) {}

// Finalize closes every stop's integral at end.
func (m *Metrics) Finalize(end float64) {
	for _, id := range m.net.StopIDs() {
		m.integrate(m.net.Stops[id], end)
	}
	m.EndTime = end
}

// Summary holds the averages reported at the end of a run.
type Summary struct {
	MissedByRoute map[int]int
	MissedByStop  map[int]int
	Missed        int

	AvgPaxByBus   map[string]float64
	AvgPaxByRoute map[int]float64
	AvgPax        float64

	AvgQueueByStop map[int]float64
	AvgQueue       float64

	AvgWaitByRoute map[int]float64
	AvgWaitByStop  map[int]float64
	AvgWait        float64

	routeIDs []int
	stopIDs  []int
	busIDs   []string
}

func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Summary computes averages from the accumulated counters. Time averages
// divide by EndTime, so call Finalize first.
func (m *Metrics) Summary() *Summary {
	s := &Summary{
		MissedByRoute:  make(map[int]int),
		MissedByStop:   make(map[int]int),
		AvgPaxByBus:    make(map[string]float64),
		AvgPaxByRoute:  make(map[int]float64),
		AvgQueueByStop: make(map[int]float64),
		AvgWaitByRoute: make(map[int]float64),
		AvgWaitByStop:  make(map[int]float64),
		routeIDs:       m.net.RouteIDs(),
		stopIDs:        m.net.StopIDs(),
	}

	var trips, pax int
	for _, rid := range s.routeIDs {
		r := m.net.Routes[rid]
		s.MissedByRoute[rid] = m.MissedByRoute[rid]
		s.Missed += m.MissedByRoute[rid]

		var routeTrips, routePax int
		for _, b := range r.Buses {
			var t busTrips
			if bt, ok := m.Trips[b]; ok {
				t = *bt
			}
			s.busIDs = append(s.busIDs, b.ID())
			s.AvgPaxByBus[b.ID()] = ratio(float64(t.Passengers), float64(t.Trips))
			routeTrips += t.Trips
			routePax += t.Passengers
		}
		s.AvgPaxByRoute[rid] = ratio(float64(routePax), float64(routeTrips))
		trips += routeTrips
		pax += routePax
	}
	s.AvgPax = ratio(float64(pax), float64(trips))

	for _, sid := range s.stopIDs {
		s.MissedByStop[sid] = m.MissedByStop[sid]
		s.AvgQueueByStop[sid] = ratio(m.QueueArea[sid], m.EndTime)
		s.AvgWaitByStop[sid] = ratio(m.WaitArea[sid], m.EndTime)
		s.AvgQueue += s.AvgQueueByStop[sid]
		s.AvgWait += s.AvgWaitByStop[sid]
	}
	for _, rid := range s.routeIDs {
		seen := make(map[int]bool)
		for _, stop := range m.net.Routes[rid].Stops {
			if !seen[stop.ID] {
				seen[stop.ID] = true
				s.AvgWaitByRoute[rid] += s.AvgWaitByStop[stop.ID]
			}
		}
	}
	return s
}

// Print writes the summary in the report line format.
func (s *Summary) Print(w io.Writer) {
	for _, rid := range s.routeIDs {
		fmt.Fprintf(w, "number of missed passengers route %d %d\n", rid, s.MissedByRoute[rid])
	}
	for _, sid := range s.stopIDs {
		fmt.Fprintf(w, "number of missed passengers stop %d %d\n", sid, s.MissedByStop[sid])
	}
	fmt.Fprintf(w, "number of missed passengers %d\n", s.Missed)
	fmt.Fprintln(w)

	for _, bid := range s.busIDs {
		fmt.Fprintf(w, "average passengers bus %s %.4f\n", bid, s.AvgPaxByBus[bid])
	}
	for _, rid := range s.routeIDs {
		fmt.Fprintf(w, "average passengers route %d %.4f\n", rid, s.AvgPaxByRoute[rid])
	}
	fmt.Fprintf(w, "average passengers %.4f\n", s.AvgPax)
	fmt.Fprintln(w)

	for _, sid := range s.stopIDs {
		fmt.Fprintf(w, "average queueing at stop %d %.4f\n", sid, s.AvgQueueByStop[sid])
	}
	fmt.Fprintf(w, "average queueing at all stops %.4f\n", s.AvgQueue)
	fmt.Fprintln(w)

	for _, rid := range s.routeIDs {
		fmt.Fprintf(w, "average waiting passengers on route %d %.4f\n", rid, s.AvgWaitByRoute[rid])
	}
	for _, sid := range s.stopIDs {
		fmt.Fprintf(w, "average waiting passengers at stop %d %.4f\n", sid, s.AvgWaitByStop[sid])
	}
	fmt.Fprintf(w, "average waiting passengers %.4f\n", s.AvgWait)
}
