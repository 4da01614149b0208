package sim

import (
	"fmt"
	"iter"
)

// Bus runs on exactly one route. At any instant it is either docked in a stop's
// queue or in transit on the road to the next stop of its route.
//
// Bus methods change only the entity model. Keeping the EventMap in step with
// these transitions is the Simulator's job.
type Bus struct {
	Route *Route
	Seq   int
	// Pax maps destination stop id to the number of passengers on board for it.
	Pax *Counter

	pos      int     // route position of the current stop, or of the stop being driven to
	roadRate float64 // > 0 while in transit
}

func newBus(r *Route, seq, pos int) *Bus {
	return &Bus{Route: r, Seq: seq, Pax: NewCounter(), pos: pos}
}

// ID returns the bus identifier "route.seq".
func (b *Bus) ID() string { return fmt.Sprintf("%d.%d", b.Route.ID, b.Seq) }

func (b *Bus) String() string { return b.ID() }

// InMotion reports whether the bus is on a road.
func (b *Bus) InMotion() bool { return b.roadRate > 0 }

// RoadRate returns the rate of the road the bus is on, 0 when docked.
func (b *Bus) RoadRate() float64 { return b.roadRate }

// Stop returns the stop the bus is docked at, or the stop it is driving to
// when in motion.
func (b *Bus) Stop() *Stop { return b.Route.Stops[b.pos] }

// NextStop returns the stop after the current one on the route.
func (b *Bus) NextStop() *Stop { return b.Route.Stops[b.Route.Next(b.pos)] }

// Load returns the number of passengers on board.
func (b *Bus) Load() int { return b.Pax.Total() }

// Capacity returns the route capacity shared by all its buses.
func (b *Bus) Capacity() int { return b.Route.Capacity }

// Full reports whether every seat is taken.
func (b *Bus) Full() bool { return b.Load() >= b.Route.Capacity }

// IsHead reports whether the bus is docked at the front of its stop's queue.
func (b *Bus) IsHead() bool {
	return !b.InMotion() && b.Stop().Head() == b
}

// Satisfies reports whether the bus can carry a passenger from its current stop to dest.
func (b *Bus) Satisfies(dest int) bool {
	return b.Route.Satisfies(b.Stop().ID, dest)
}

// Disembarks returns the number of passengers on board whose destination is
// the current stop. It is 0 while in motion.
func (b *Bus) Disembarks() int {
	if b.InMotion() {
		return 0
	}
	return b.Pax.Get(b.Stop().ID)
}

// Boards yields (destination, waiting count) for every destination this bus
// could serve from its current stop that has passengers waiting.
// Yields nothing while in motion.
func (b *Bus) Boards() iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		if b.InMotion() {
			return
		}
		stop := b.Stop()
		for dest, count := range stop.Pax.All() {
			if !b.Route.Satisfies(stop.ID, dest) {
				continue
			}
			if !yield(dest, count) {
				return
			}
		}
	}
}

// BoardersWaiting returns the number of passengers at the current stop this bus could take.
func (b *Bus) BoardersWaiting() int {
	n := 0
	for _, count := range b.Boards() {
		n += count
	}
	return n
}

// DepartureReady reports whether the bus may leave its stop: nobody wants to
// get off here and the bus is either full or has no one to pick up.
func (b *Bus) DepartureReady() bool {
	if b.InMotion() || b.Disembarks() > 0 {
		return false
	}
	if b.Full() {
		return true
	}
	for range b.Boards() {
		return false
	}
	return true
}

// Board moves one passenger bound for dest from the stop onto the bus.
func (b *Bus) Board(dest int) {
	b.Stop().Pax.Sub(dest, 1)
	b.Pax.Add(dest, 1)
}

// Disembark lets one passenger off at the current stop.
func (b *Bus) Disembark() {
	b.Pax.Sub(b.Stop().ID, 1)
}

// Dequeue takes the bus out of its stop's queue and puts it on the road to the
// next stop with that road's rate.
func (b *Bus) Dequeue(rates Rates) error {
	from, to := b.Stop(), b.NextStop()
	rate, ok := rates.Road(from.ID, to.ID)
	if !ok || rate <= 0 {
		return &InvariantError{Msg: fmt.Sprintf("bus %s: no positive road rate for %d -> %d", b, from.ID, to.ID)}
	}
	if !from.remove(b) {
		return &InvariantError{Msg: fmt.Sprintf("bus %s departing stop %d is not in its queue", b, from.ID)}
	}
	b.roadRate = rate
	b.pos = b.Route.Next(b.pos)
	return nil
}

// Arrive ends the road trip and joins the tail of the destination stop's queue.
func (b *Bus) Arrive() {
	b.roadRate = 0
	b.Stop().enqueue(b)
}
