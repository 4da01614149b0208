package sim

// busSet is an insertion-ordered set of buses with O(1) add and remove.
// Removal swaps the last element into the hole, so iteration order depends
// only on the sequence of operations, which keeps runs reproducible.
type busSet struct {
	items []*Bus
	index map[*Bus]int
}

func newBusSet() busSet {
	return busSet{index: make(map[*Bus]int)}
}

func (s *busSet) add(b *Bus) bool {
	if _, ok := s.index[b]; ok {
		return false
	}
	s.index[b] = len(s.items)
	s.items = append(s.items, b)
	return true
}

func (s *busSet) remove(b *Bus) bool {
	i, ok := s.index[b]
	if !ok {
		return false
	}
	last := len(s.items) - 1
	s.items[i] = s.items[last]
	s.index[s.items[i]] = i
	s.items = s.items[:last]
	delete(s.index, b)
	return true
}

func (s *busSet) contains(b *Bus) bool {
	_, ok := s.index[b]
	return ok
}

// EventMap indexes every event that could happen next, together with the
// running sum of their rates.
//
// Each method that changes a collection adjusts total by exactly the rate it
// added or removed. total is never recomputed from the network.
type EventMap struct {
	rates Rates

	board      map[*Bus]*Counter // head bus -> destination -> waiting passengers it can take
	boardBuses busSet            // iteration order for board
	disembarks busSet
	departs    busSet
	arrivals   busSet

	total float64
}

func newEventMap(rates Rates) *EventMap {
	return &EventMap{
		rates:      rates,
		board:      make(map[*Bus]*Counter),
		boardBuses: newBusSet(),
		disembarks: newBusSet(),
		departs:    newBusSet(),
		arrivals:   newBusSet(),
		total:      rates.NewPassengers,
	}
}

// TotalRate returns the sum of the rates of all candidate events.
func (m *EventMap) TotalRate() float64 { return m.total }

// BoardCandidates returns a copy of the boarding candidates of b.
func (m *EventMap) BoardCandidates(b *Bus) map[int]int {
	if c, ok := m.board[b]; ok {
		return c.Map()
	}
	return map[int]int{}
}

// HasDisembark reports whether b has passengers waiting to get off.
func (m *EventMap) HasDisembark(b *Bus) bool { return m.disembarks.contains(b) }

// HasDepart reports whether b is a departure candidate.
func (m *EventMap) HasDepart(b *Bus) bool { return m.departs.contains(b) }

// HasArrival reports whether b is an arrival candidate.
func (m *EventMap) HasArrival(b *Bus) bool { return m.arrivals.contains(b) }

// Departs returns the departure candidates in selection order.
func (m *EventMap) Departs() []*Bus { return append([]*Bus(nil), m.departs.items...) }

// Arrivals returns the buses in transit in selection order.
func (m *EventMap) Arrivals() []*Bus { return append([]*Bus(nil), m.arrivals.items...) }

// Disembarking returns the buses with passengers to let off in selection order.
func (m *EventMap) Disembarking() []*Bus { return append([]*Bus(nil), m.disembarks.items...) }

// Boarding returns the buses with boarding candidates in selection order.
func (m *EventMap) Boarding() []*Bus { return append([]*Bus(nil), m.boardBuses.items...) }

// --- board ---

func (m *EventMap) addBoard(b *Bus, dest, n int) {
	c, ok := m.board[b]
	if !ok {
		c = NewCounter()
		m.board[b] = c
		m.boardBuses.add(b)
	}
	c.Add(dest, n)
	m.total += m.rates.Board * float64(n)
}

func (m *EventMap) removeBoard(b *Bus, dest, n int) {
	c := m.board[b]
	c.Sub(dest, n)
	m.total -= m.rates.Board * float64(n)
	if c.Len() == 0 {
		delete(m.board, b)
		m.boardBuses.remove(b)
	}
}

// setBoards adds a candidate for every destination b can serve at its stop.
func (m *EventMap) setBoards(b *Bus) {
	for dest, count := range b.Boards() {
		m.addBoard(b, dest, count)
	}
}

// clearBoards drops every boarding candidate of b.
func (m *EventMap) clearBoards(b *Bus) {
	c, ok := m.board[b]
	if !ok {
		return
	}
	m.total -= m.rates.Board * float64(c.Total())
	delete(m.board, b)
	m.boardBuses.remove(b)
}

// --- disembarks ---

// addDisembarks registers every passenger on b whose destination is its stop.
func (m *EventMap) addDisembarks(b *Bus) {
	n := b.Disembarks()
	if n == 0 || !m.disembarks.add(b) {
		return
	}
	m.total += m.rates.Disembark * float64(n)
}

// disembarked accounts for one passenger having left b.
func (m *EventMap) disembarked(b *Bus) {
	m.total -= m.rates.Disembark
	if b.Disembarks() == 0 {
		m.disembarks.remove(b)
	}
}

// --- departs ---

// refreshDepart makes departs membership of b match b.DepartureReady().
func (m *EventMap) refreshDepart(b *Bus) {
	ready := b.DepartureReady()
	switch {
	case ready && m.departs.add(b):
		m.total += m.rates.Depart
	case !ready && m.departs.remove(b):
		m.total -= m.rates.Depart
	}
}

// --- arrivals ---

func (m *EventMap) addArrival(b *Bus) {
	if m.arrivals.add(b) {
		m.total += b.RoadRate()
	}
}

// removeArrival must run before the bus clears its road rate.
func (m *EventMap) removeArrival(b *Bus) {
	if m.arrivals.remove(b) {
		m.total -= b.RoadRate()
	}
}

// seed registers every candidate of a docked or moving bus from scratch.
func (m *EventMap) seed(b *Bus) {
	if b.InMotion() {
		m.addArrival(b)
		return
	}
	if b.IsHead() && !b.Full() {
		m.setBoards(b)
	}
	m.addDisembarks(b)
	m.refreshDepart(b)
}
