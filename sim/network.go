package sim

import (
	"fmt"
	"math/rand"
	"slices"
)

// RoadKey identifies a directed road between two consecutive stops.
type RoadKey struct {
	From int
	To   int
}

// Rates groups the rate constants that drive the simulation.
// All values must be positive; config.Validate rejects anything else.
type Rates struct {
	Board         float64 // per waiting passenger per boardable bus
	Disembark     float64 // per passenger at its destination
	Depart        float64 // per departure-ready bus, flat
	NewPassengers float64 // passenger creation, flat
	Roads         map[RoadKey]float64
}

// Road returns the transit rate from one stop to the next.
func (r Rates) Road(from, to int) (float64, bool) {
	rate, ok := r.Roads[RoadKey{From: from, To: to}]
	return rate, ok
}

// Stop is a location with a FIFO bus queue and pending passengers per destination.
type Stop struct {
	ID int
	// Queue holds the docked buses; index 0 is the head, the only bus that boards.
	Queue []*Bus
	// Pax maps destination stop id to the number of passengers waiting for it.
	Pax *Counter

	routes     []*Route
	observedAt float64 // last time statistics were integrated
}

func newStop(id int) *Stop {
	return &Stop{ID: id, Pax: NewCounter()}
}

// Head returns the bus at the front of the queue, or nil.
func (s *Stop) Head() *Bus {
	if len(s.Queue) == 0 {
		return nil
	}
	return s.Queue[0]
}

// QueueLength returns the number of docked buses.
func (s *Stop) QueueLength() int { return len(s.Queue) }

// PaxCount returns the number of waiting passengers.
func (s *Stop) PaxCount() int { return s.Pax.Total() }

// Routes returns the routes that call at this stop, ordered by route id.
func (s *Stop) Routes() []*Route { return s.routes }

func (s *Stop) enqueue(b *Bus) {
	s.Queue = append(s.Queue, b)
}

func (s *Stop) remove(b *Bus) bool {
	i := slices.Index(s.Queue, b)
	if i < 0 {
		return false
	}
	s.Queue = slices.Delete(s.Queue, i, i+1)
	return true
}

// observe returns the time elapsed since the previous observation and moves
// the observation mark to now.
func (s *Stop) observe(now float64) float64 {
	dt := now - s.observedAt
	s.observedAt = now
	return dt
}

func (s *Stop) reset() {
	s.Queue = s.Queue[:0]
	s.Pax.Reset()
	s.observedAt = 0
}

func (s *Stop) String() string { return fmt.Sprint(s.ID) }

// Route is an ordered, cyclic sequence of stops served by a fleet of identical buses.
// A route is immutable once added to a Network.
type Route struct {
	ID       int
	Stops    []*Stop
	BusCount int
	Capacity int
	Buses    []*Bus

	stopSet map[int]bool
}

// Next returns the route position following pos, wrapping at the end.
func (r *Route) Next(pos int) int {
	return (pos + 1) % len(r.Stops)
}

// Serves reports whether the route calls at the stop.
func (r *Route) Serves(stopID int) bool { return r.stopSet[stopID] }

// Satisfies reports whether a bus of this route standing at from can carry a
// passenger to dest.
func (r *Route) Satisfies(from, dest int) bool {
	return dest != from && r.stopSet[dest]
}

// StopIDs returns the route's stop ids in order.
func (r *Route) StopIDs() []int {
	ids := make([]int, len(r.Stops))
	for i, s := range r.Stops {
		ids[i] = s.ID
	}
	return ids
}

func (r *Route) String() string { return fmt.Sprint(r.ID) }

// Network owns every stop, route and bus of a simulation.
type Network struct {
	Stops  map[int]*Stop
	Routes map[int]*Route

	stopIDs  []int // ascending
	routeIDs []int // ascending
}

// NewNetwork creates an empty network.
func NewNetwork() *Network {
	return &Network{
		Stops:  make(map[int]*Stop),
		Routes: make(map[int]*Route),
	}
}

// AddRoute registers a route and creates any stop it mentions for the first time.
// Buses are not created until Initialise.
func (n *Network) AddRoute(id int, stopIDs []int, busCount, capacity int) error {
	if _, exists := n.Routes[id]; exists {
		return fmt.Errorf("route %d added twice", id)
	}
	if distinct := len(slices.Compact(slices.Sorted(slices.Values(stopIDs)))); distinct < 2 {
		return fmt.Errorf("route %d must have at least 2 distinct stops, got %d", id, distinct)
	}
	if busCount <= 0 {
		return fmt.Errorf("route %d: bus count must be positive, got %d", id, busCount)
	}
	if capacity <= 0 {
		return fmt.Errorf("route %d: capacity must be positive, got %d", id, capacity)
	}

	r := &Route{
		ID:       id,
		BusCount: busCount,
		Capacity: capacity,
		stopSet:  make(map[int]bool, len(stopIDs)),
	}
	for _, sid := range stopIDs {
		s, ok := n.Stops[sid]
		if !ok {
			s = newStop(sid)
			n.Stops[sid] = s
			i, _ := slices.BinarySearch(n.stopIDs, sid)
			n.stopIDs = slices.Insert(n.stopIDs, i, sid)
		}
		r.Stops = append(r.Stops, s)
		if !r.stopSet[sid] {
			r.stopSet[sid] = true
			s.routes = append(s.routes, r)
			slices.SortFunc(s.routes, func(a, b *Route) int { return a.ID - b.ID })
		}
	}

	n.Routes[id] = r
	i, _ := slices.BinarySearch(n.routeIDs, id)
	n.routeIDs = slices.Insert(n.routeIDs, i, id)
	return nil
}

// StopIDs returns every stop id in ascending order.
func (n *Network) StopIDs() []int { return n.stopIDs }

// RouteIDs returns every route id in ascending order.
func (n *Network) RouteIDs() []int { return n.routeIDs }

// Buses returns every bus ordered by route id, then sequence number.
func (n *Network) Buses() []*Bus {
	var buses []*Bus
	for _, id := range n.routeIDs {
		buses = append(buses, n.Routes[id].Buses...)
	}
	return buses
}

// Initialise resets every stop and places each route's fleet on its stops:
// bus i starts docked at route position i mod len(stops), queued in sequence
// order. Calling it again restores the same starting state.
func (n *Network) Initialise() {
	for _, id := range n.stopIDs {
		n.Stops[id].reset()
	}
	for _, id := range n.routeIDs {
		r := n.Routes[id]
		r.Buses = make([]*Bus, r.BusCount)
		for seq := range r.BusCount {
			b := newBus(r, seq, seq%len(r.Stops))
			r.Buses[seq] = b
			r.Stops[b.pos].enqueue(b)
		}
	}
}

// GeneratePassenger picks a uniformly random origin stop and a uniformly random
// destination among the other stops of every route through that origin.
func (n *Network) GeneratePassenger(rng *rand.Rand) (origin, dest int) {
	origin = n.stopIDs[rng.Intn(len(n.stopIDs))]
	dests := n.Reachable(origin)
	return origin, dests[rng.Intn(len(dests))]
}

// Reachable returns, in ascending order, the stops a passenger at origin can
// travel to without changing route.
func (n *Network) Reachable(origin int) []int {
	seen := make(map[int]bool)
	var dests []int
	for _, r := range n.Stops[origin].routes {
		for _, s := range r.Stops {
			if s.ID != origin && !seen[s.ID] {
				seen[s.ID] = true
				dests = append(dests, s.ID)
			}
		}
	}
	slices.Sort(dests)
	return dests
}
