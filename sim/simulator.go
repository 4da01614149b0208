// sim/simulator.go
package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Simulator is the core object that holds simulation time, the network state,
// the candidate-event index and the run loop.
//
// Each step samples an exponential delay from the total rate, picks one
// candidate event with probability proportional to its rate, and applies it.
// Exactly one event is applied at a time; nothing here is safe for concurrent use.
type Simulator struct {
	Time     float64
	StopTime float64
	Network  *Network
	Rates    Rates
	// Events indexes every candidate event and the running total rate.
	// It is seeded by Initialise and then maintained incrementally.
	Events *EventMap
	// EventCount is the number of events applied since Initialise.
	EventCount int

	legacyDelay bool
	rng         *PartitionedRNG
	eventRNG    *rand.Rand
	paxRNG      *rand.Rand
	observers   []Observer
}

// NewSimulator creates a simulator over net. Call Initialise before running.
func NewSimulator(net *Network, rates Rates, cfg RunConfig) *Simulator {
	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	return &Simulator{
		StopTime:    cfg.StopTime,
		Network:     net,
		Rates:       rates,
		legacyDelay: cfg.LegacyDelay,
		rng:         rng,
		eventRNG:    rng.ForSubsystem(SubsystemEvents),
		paxRNG:      rng.ForSubsystem(SubsystemPassengers),
	}
}

// AddObserver registers an observer called around every applied event.
func (sim *Simulator) AddObserver(o Observer) {
	sim.observers = append(sim.observers, o)
}

// Initialise resets the network to its starting layout, rewinds time and
// seeds the event index from scratch. It does not reseed the RNG.
func (sim *Simulator) Initialise() {
	sim.Network.Initialise()
	sim.Time = 0
	sim.EventCount = 0
	sim.Events = newEventMap(sim.Rates)
	for _, b := range sim.Network.Buses() {
		sim.Events.seed(b)
	}
	logrus.Debugf("[t=%.4f] Initialised %d stops, %d buses, total rate %.4f",
		sim.Time, len(sim.Network.Stops), len(sim.Network.Buses()), sim.Events.TotalRate())
}

// TotalRate returns the sum of the rates of every candidate event.
func (sim *Simulator) TotalRate() float64 { return sim.Events.TotalRate() }

func (sim *Simulator) checkTotal() error {
	total := sim.Events.TotalRate()
	if !(total > 0) || math.IsInf(total, 0) {
		return sim.invariant("total rate is %g", total)
	}
	return nil
}

// SampleDelay draws the time until the next event from an exponential
// distribution with the current total rate.
func (sim *Simulator) SampleDelay() (float64, error) {
	if err := sim.checkTotal(); err != nil {
		return 0, err
	}
	u := sim.eventRNG.Float64()
	for u == 0 {
		u = sim.eventRNG.Float64()
	}
	if sim.legacyDelay {
		return -math.Log10(u) / sim.Events.TotalRate(), nil
	}
	return -math.Log(u) / sim.Events.TotalRate(), nil
}

// ChooseEvent picks the next event with probability proportional to its rate.
// Candidates are walked in a fixed order: boards, disembarks, departs,
// arrivals, then passenger creation. The passenger's origin and destination
// are drawn when it is chosen.
func (sim *Simulator) ChooseEvent() (Event, error) {
	if err := sim.checkTotal(); err != nil {
		return nil, err
	}
	m := sim.Events
	r := sim.eventRNG.Float64() * m.TotalRate()

	for _, b := range m.boardBuses.items {
		for dest, count := range m.board[b].All() {
			if r -= sim.Rates.Board * float64(count); r < 0 {
				return &BoardEvent{Bus: b, Dest: dest}, nil
			}
		}
	}
	for _, b := range m.disembarks.items {
		if r -= sim.Rates.Disembark * float64(b.Disembarks()); r < 0 {
			return &DisembarkEvent{Bus: b}, nil
		}
	}
	for _, b := range m.departs.items {
		if r -= sim.Rates.Depart; r < 0 {
			return &DepartEvent{Bus: b}, nil
		}
	}
	for _, b := range m.arrivals.items {
		if r -= b.RoadRate(); r < 0 {
			return &ArrivalEvent{Bus: b}, nil
		}
	}
	// Passenger creation is always possible and also absorbs rounding left in r.
	origin, dest := sim.Network.GeneratePassenger(sim.paxRNG)
	return &PassengerEvent{Origin: origin, Dest: dest}, nil
}

// Update applies ev at the current time.
func (sim *Simulator) Update(ev Event) error {
	return sim.apply(ev, sim.Time)
}

func (sim *Simulator) apply(ev Event, now float64) error {
	for _, o := range sim.observers {
		o.BeforeEvent(ev, now)
	}
	if err := ev.execute(sim); err != nil {
		return err
	}
	sim.EventCount++
	for _, o := range sim.observers {
		o.AfterEvent(ev, now)
	}
	return nil
}

// Step samples a delay, chooses an event, applies it at the end of the delay
// and advances the clock. It returns the applied event.
func (sim *Simulator) Step() (Event, error) {
	delay, err := sim.SampleDelay()
	if err != nil {
		return nil, err
	}
	ev, err := sim.ChooseEvent()
	if err != nil {
		return nil, err
	}
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		logrus.Debugf("[t=%.4f] %s", sim.Time+delay, Describe(ev))
	}
	if err := sim.apply(ev, sim.Time+delay); err != nil {
		return nil, err
	}
	sim.Time += delay
	return ev, nil
}

// Run steps the simulation while the clock has not passed StopTime.
func (sim *Simulator) Run() error {
	if sim.Events == nil {
		return fmt.Errorf("simulator not initialised")
	}
	logrus.Infof("[t=%.4f] Simulation started, stop time %g, total rate %.4f", sim.Time, sim.StopTime, sim.TotalRate())
	for sim.Time <= sim.StopTime {
		if _, err := sim.Step(); err != nil {
			return err
		}
	}
	logrus.Infof("[t=%.4f] Simulation ended after %d events", sim.Time, sim.EventCount)
	return nil
}

// RunUntil steps the simulation until the next chosen event satisfies stop and
// returns that event without applying it, so callers can inspect the state
// right before the transition. It returns nil when StopTime passes first.
func (sim *Simulator) RunUntil(stop func(Event) bool) (Event, error) {
	if sim.Events == nil {
		return nil, fmt.Errorf("simulator not initialised")
	}
	for sim.Time <= sim.StopTime {
		delay, err := sim.SampleDelay()
		if err != nil {
			return nil, err
		}
		ev, err := sim.ChooseEvent()
		if err != nil {
			return nil, err
		}
		if stop(ev) {
			return ev, nil
		}
		if err := sim.apply(ev, sim.Time+delay); err != nil {
			return nil, err
		}
		sim.Time += delay
	}
	return nil, nil
}

func (sim *Simulator) invariant(format string, args ...any) error {
	return &InvariantError{Time: sim.Time, Msg: fmt.Sprintf(format, args...)}
}

// Key returns the SimulationKey the simulator's RNG streams derive from.
func (sim *Simulator) Key() SimulationKey { return sim.rng.Key() }
