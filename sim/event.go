package sim

import "fmt"

// EventKind enumerates the five things that can happen in the network.
type EventKind int

const (
	KindBoard EventKind = iota
	KindDisembark
	KindDepart
	KindArrival
	KindNewPassenger
)

var eventKindNames = [...]string{
	KindBoard:        "board",
	KindDisembark:    "disembarks",
	KindDepart:       "departs",
	KindArrival:      "arrivals",
	KindNewPassenger: "new_passengers",
}

// EventKinds lists every kind in selection order.
var EventKinds = []EventKind{KindBoard, KindDisembark, KindDepart, KindArrival, KindNewPassenger}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventKindNames[k]
}

// ParseEventKind maps a kind name back to its EventKind.
func ParseEventKind(name string) (EventKind, error) {
	for i, n := range eventKindNames {
		if n == name {
			return EventKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", name)
}

// Event is one state transition of the network. The set of implementations is
// closed: each carries exactly the payload its transition needs.
type Event interface {
	Kind() EventKind
	execute(*Simulator) error
}

// BoardEvent moves one passenger bound for Dest from the stop onto Bus.
type BoardEvent struct {
	Bus  *Bus
	Dest int
}

// DisembarkEvent lets one passenger off Bus at its current stop.
type DisembarkEvent struct {
	Bus *Bus
}

// DepartEvent sends Bus from its stop onto the road to the next stop.
type DepartEvent struct {
	Bus *Bus
}

// ArrivalEvent docks Bus at the stop it was driving to.
type ArrivalEvent struct {
	Bus *Bus
}

// PassengerEvent creates a passenger at Origin travelling to Dest.
type PassengerEvent struct {
	Origin int
	Dest   int
}

func (*BoardEvent) Kind() EventKind     { return KindBoard }
func (*DisembarkEvent) Kind() EventKind { return KindDisembark }
func (*DepartEvent) Kind() EventKind    { return KindDepart }
func (*ArrivalEvent) Kind() EventKind   { return KindArrival }
func (*PassengerEvent) Kind() EventKind { return KindNewPassenger }

// execute boards one passenger. Only the head bus boards, so no other bus
// holds a candidate for this passenger; emptying the destination may however
// make other docked buses departure-ready.
func (e *BoardEvent) execute(sim *Simulator) error {
	b, stop := e.Bus, e.Bus.Stop()
	if !b.IsHead() || b.Full() || !b.Satisfies(e.Dest) || stop.Pax.Get(e.Dest) == 0 {
		return sim.invariant("bus %s cannot board a passenger for stop %d at stop %d", b, e.Dest, stop.ID)
	}
	b.Board(e.Dest)

	ev := sim.Events
	ev.removeBoard(b, e.Dest, 1)
	if b.Full() {
		ev.clearBoards(b)
	}
	ev.refreshDepart(b)
	if stop.Pax.Get(e.Dest) == 0 {
		for _, other := range stop.Queue {
			if other != b && other.Satisfies(e.Dest) {
				ev.refreshDepart(other)
			}
		}
	}
	return nil
}

func (e *DisembarkEvent) execute(sim *Simulator) error {
	b := e.Bus
	if b.Disembarks() == 0 {
		return sim.invariant("bus %s has nobody to let off", b)
	}
	wasFull := b.Full()
	b.Disembark()

	ev := sim.Events
	ev.disembarked(b)
	if wasFull && b.IsHead() {
		ev.setBoards(b)
	}
	ev.refreshDepart(b)
	return nil
}

func (e *DepartEvent) execute(sim *Simulator) error {
	b := e.Bus
	if !sim.Events.HasDepart(b) {
		return sim.invariant("bus %s is not ready to depart", b)
	}
	stop, wasHead := b.Stop(), b.IsHead()

	ev := sim.Events
	ev.clearBoards(b)
	if err := b.Dequeue(sim.Rates); err != nil {
		return err
	}
	ev.refreshDepart(b)
	ev.addArrival(b)
	if wasHead {
		if h := stop.Head(); h != nil && !h.Full() {
			ev.setBoards(h)
		}
	}
	return nil
}

func (e *ArrivalEvent) execute(sim *Simulator) error {
	b := e.Bus
	if !b.InMotion() {
		return sim.invariant("bus %s is not on a road", b)
	}
	sim.Events.removeArrival(b)
	b.Arrive()
	sim.Events.seed(b)
	return nil
}

// execute adds the passenger to its origin. The head bus gains a boarding
// candidate when it can take the passenger; any docked bus that can serve the
// destination stops being boarder-free.
func (e *PassengerEvent) execute(sim *Simulator) error {
	stop, ok := sim.Network.Stops[e.Origin]
	if !ok {
		return sim.invariant("passenger created at unknown stop %d", e.Origin)
	}
	stop.Pax.Add(e.Dest, 1)

	ev := sim.Events
	if h := stop.Head(); h != nil && !h.Full() && h.Satisfies(e.Dest) {
		ev.addBoard(h, e.Dest, 1)
	}
	for _, b := range stop.Queue {
		if b.Satisfies(e.Dest) {
			ev.refreshDepart(b)
		}
	}
	return nil
}
