package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioRates is the reference three-stop loop: roads 1→2→3→1.
func scenarioRates() Rates {
	return Rates{
		Board:         0.5,
		Disembark:     0.6,
		Depart:        0.5,
		NewPassengers: 5,
		Roads: map[RoadKey]float64{
			{1, 2}: 0.3,
			{2, 3}: 0.5,
			{3, 1}: 0.8,
		},
	}
}

func newScenarioSim(t *testing.T, seed int64) *Simulator {
	t.Helper()
	net := NewNetwork()
	require.NoError(t, net.AddRoute(1, []int{1, 2, 3}, 3, 10))
	s := NewSimulator(net, scenarioRates(), RunConfig{StopTime: 80, Seed: seed})
	s.Initialise()
	return s
}

func busAt(t *testing.T, s *Simulator, stop int) *Bus {
	t.Helper()
	b := s.Network.Stops[stop].Head()
	require.NotNil(t, b, "no bus at stop %d", stop)
	return b
}

func requireConsistent(t *testing.T, s *Simulator) {
	t.Helper()
	require.NoError(t, s.CheckInvariants())
}

func TestSimulator_InitialTotalRate(t *testing.T) {
	// GIVEN three empty buses, one per stop
	s := newScenarioSim(t, 42)

	// THEN every bus is departure-ready and nothing else but passenger creation is possible
	assert.InDelta(t, 5+3*0.5, s.TotalRate(), 1e-12)
	assert.Len(t, s.Events.Departs(), 3)
	assert.Empty(t, s.Events.Arrivals())
	assert.Empty(t, s.Events.Boarding())
	assert.Empty(t, s.Events.Disembarking())
	requireConsistent(t, s)
}

func TestSimulator_WaitingPassengersCreateBoardCandidates(t *testing.T) {
	// GIVEN the initial network
	s := newScenarioSim(t, 42)
	head := busAt(t, s, 1)

	// WHEN three passengers for stop 2 appear at stop 1
	for range 3 {
		require.NoError(t, s.Update(&PassengerEvent{Origin: 1, Dest: 2}))
	}

	// THEN the head bus may board them and is no longer departure-ready
	assert.Equal(t, map[int]int{2: 3}, s.Events.BoardCandidates(head))
	assert.False(t, s.Events.HasDepart(head))
	assert.InDelta(t, 6.5+1.5-0.5, s.TotalRate(), 1e-12)
	requireConsistent(t, s)
}

func TestSimulator_BoardingLastSeatMakesBusReady(t *testing.T) {
	// GIVEN a head bus with 9 of 10 seats taken and three boarders waiting
	s := newScenarioSim(t, 42)
	head := busAt(t, s, 1)
	head.Pax.Add(3, 9)
	for range 3 {
		require.NoError(t, s.Update(&PassengerEvent{Origin: 1, Dest: 2}))
	}
	requireConsistent(t, s)

	// WHEN one passenger boards
	require.NoError(t, s.Update(&BoardEvent{Bus: head, Dest: 2}))

	// THEN the bus is full, loses every board candidate and may depart
	assert.True(t, head.Full())
	assert.Empty(t, s.Events.BoardCandidates(head))
	assert.NotContains(t, s.Events.Boarding(), head)
	assert.True(t, s.Events.HasDepart(head))
	assert.Equal(t, 2, s.Network.Stops[1].Pax.Get(2))
	assert.InDelta(t, 6.5, s.TotalRate(), 1e-12)
	requireConsistent(t, s)
}

func TestSimulator_DepartPutsBusOnRoad(t *testing.T) {
	// GIVEN the initial network
	s := newScenarioSim(t, 42)
	b := busAt(t, s, 1)
	before := s.TotalRate()

	// WHEN the bus at stop 1 departs
	require.NoError(t, s.Update(&DepartEvent{Bus: b}))

	// THEN it is on road 1→2 and an arrival candidate with that road's rate
	assert.False(t, s.Events.HasDepart(b))
	assert.NotContains(t, s.Network.Stops[1].Queue, b)
	assert.True(t, s.Events.HasArrival(b))
	assert.Equal(t, 0.3, b.RoadRate())
	assert.Equal(t, 2, b.Stop().ID)
	assert.InDelta(t, before-0.5+0.3, s.TotalRate(), 1e-12)
	requireConsistent(t, s)
}

func TestSimulator_ArrivalQueuesBehindHead(t *testing.T) {
	// GIVEN the bus from stop 1 driving to stop 2, where another bus waits
	s := newScenarioSim(t, 42)
	b := busAt(t, s, 1)
	other := busAt(t, s, 2)
	require.NoError(t, s.Update(&DepartEvent{Bus: b}))

	// WHEN it arrives
	require.NoError(t, s.Update(&ArrivalEvent{Bus: b}))

	// THEN it joins the tail of the queue and is immediately ready to leave again
	assert.Equal(t, []*Bus{other, b}, s.Network.Stops[2].Queue)
	assert.False(t, b.IsHead())
	assert.True(t, s.Events.HasDepart(b))
	assert.False(t, s.Events.HasArrival(b))
	requireConsistent(t, s)
}

func TestSimulator_OnlyHeadBoards(t *testing.T) {
	// GIVEN two buses docked at stop 2
	s := newScenarioSim(t, 42)
	b := busAt(t, s, 1)
	head := busAt(t, s, 2)
	require.NoError(t, s.Update(&DepartEvent{Bus: b}))
	require.NoError(t, s.Update(&ArrivalEvent{Bus: b}))

	// WHEN a passenger for stop 3 arrives at stop 2
	require.NoError(t, s.Update(&PassengerEvent{Origin: 2, Dest: 3}))

	// THEN only the head may board, but neither bus is ready to leave
	assert.Equal(t, map[int]int{3: 1}, s.Events.BoardCandidates(head))
	assert.Empty(t, s.Events.BoardCandidates(b))
	assert.False(t, s.Events.HasDepart(head))
	assert.False(t, s.Events.HasDepart(b))
	requireConsistent(t, s)

	// WHEN a non-head bus tries to board THEN the engine refuses
	var inv *InvariantError
	require.ErrorAs(t, s.Update(&BoardEvent{Bus: b, Dest: 3}), &inv)

	// WHEN the head boards the only passenger THEN both buses become ready
	require.NoError(t, s.Update(&BoardEvent{Bus: head, Dest: 3}))
	assert.True(t, s.Events.HasDepart(head))
	assert.True(t, s.Events.HasDepart(b))
	requireConsistent(t, s)

	// WHEN the head leaves THEN the second bus is promoted and takes new boarders
	require.NoError(t, s.Update(&DepartEvent{Bus: head}))
	assert.True(t, b.IsHead())
	require.NoError(t, s.Update(&PassengerEvent{Origin: 2, Dest: 1}))
	assert.Equal(t, map[int]int{1: 1}, s.Events.BoardCandidates(b))
	requireConsistent(t, s)
}

func TestSimulator_DisembarkAtDestination(t *testing.T) {
	// GIVEN a bus carrying two passengers to stop 2
	s := newScenarioSim(t, 42)
	b := busAt(t, s, 1)
	b.Pax.Add(2, 2)
	require.NoError(t, s.Update(&DepartEvent{Bus: b}))

	// WHEN it arrives at stop 2
	require.NoError(t, s.Update(&ArrivalEvent{Bus: b}))

	// THEN both passengers may get off, even behind the head, and it cannot leave yet
	assert.True(t, s.Events.HasDisembark(b))
	assert.False(t, s.Events.HasDepart(b))
	requireConsistent(t, s)

	require.NoError(t, s.Update(&DisembarkEvent{Bus: b}))
	assert.True(t, s.Events.HasDisembark(b))
	require.NoError(t, s.Update(&DisembarkEvent{Bus: b}))
	assert.False(t, s.Events.HasDisembark(b))
	assert.True(t, s.Events.HasDepart(b))
	assert.Zero(t, b.Load())
	requireConsistent(t, s)

	var inv *InvariantError
	assert.ErrorAs(t, s.Update(&DisembarkEvent{Bus: b}), &inv)
}

func TestSimulator_DisembarkFromFullHeadReopensBoarding(t *testing.T) {
	// GIVEN a full bus arriving at an empty stop 2 with one rider for it
	net := NewNetwork()
	require.NoError(t, net.AddRoute(1, []int{1, 2}, 1, 2))
	s := NewSimulator(net, Rates{Board: 1, Disembark: 1, Depart: 1, NewPassengers: 1,
		Roads: map[RoadKey]float64{{1, 2}: 1, {2, 1}: 1}}, RunConfig{StopTime: 10})
	s.Initialise()
	b := busAt(t, s, 1)
	require.NoError(t, s.Update(&DepartEvent{Bus: b}))
	b.Pax.Add(2, 1)
	b.Pax.Add(1, 1)
	require.NoError(t, s.Update(&ArrivalEvent{Bus: b}))
	require.NoError(t, s.Update(&PassengerEvent{Origin: 2, Dest: 1}))
	assert.Empty(t, s.Events.BoardCandidates(b), "full bus cannot board")
	requireConsistent(t, s)

	// WHEN the rider gets off
	require.NoError(t, s.Update(&DisembarkEvent{Bus: b}))

	// THEN the freed seat is offered to the waiting passenger
	assert.Equal(t, map[int]int{1: 1}, s.Events.BoardCandidates(b))
	requireConsistent(t, s)
}

func TestSimulator_DepartRequiresReadiness(t *testing.T) {
	s := newScenarioSim(t, 42)
	b := busAt(t, s, 1)
	require.NoError(t, s.Update(&PassengerEvent{Origin: 1, Dest: 3}))

	var inv *InvariantError
	require.ErrorAs(t, s.Update(&DepartEvent{Bus: b}), &inv)
	assert.Contains(t, inv.Error(), "not ready to depart")

	require.ErrorAs(t, s.Update(&ArrivalEvent{Bus: b}), &inv)
}

func TestSimulator_SampleDelayRejectsZeroTotal(t *testing.T) {
	net := NewNetwork()
	require.NoError(t, net.AddRoute(1, []int{1, 2}, 1, 1))
	s := NewSimulator(net, Rates{}, RunConfig{StopTime: 1})
	s.Initialise()

	_, err := s.SampleDelay()
	var inv *InvariantError
	require.True(t, errors.As(err, &inv))
	assert.Contains(t, inv.Msg, "total rate")

	_, err = s.ChooseEvent()
	assert.ErrorAs(t, err, &inv)
	assert.Error(t, s.Run())
}

func TestSimulator_RunRequiresInitialise(t *testing.T) {
	net := NewNetwork()
	require.NoError(t, net.AddRoute(1, []int{1, 2}, 1, 1))
	s := NewSimulator(net, scenarioRates(), RunConfig{StopTime: 1})
	assert.Error(t, s.Run())
	_, err := s.RunUntil(func(Event) bool { return true })
	assert.Error(t, err)
}

func TestSimulator_LegacyDelayScalesByLn10(t *testing.T) {
	natural := newScenarioSim(t, 9)
	net := NewNetwork()
	require.NoError(t, net.AddRoute(1, []int{1, 2, 3}, 3, 10))
	legacy := NewSimulator(net, scenarioRates(), RunConfig{StopTime: 80, Seed: 9, LegacyDelay: true})
	legacy.Initialise()

	for range 5 {
		d1, err := natural.SampleDelay()
		require.NoError(t, err)
		d2, err := legacy.SampleDelay()
		require.NoError(t, err)
		assert.InDelta(t, d1/math.Ln10, d2, 1e-12)
	}
}

func TestSimulator_ChooseEventProportionalToRate(t *testing.T) {
	// GIVEN the initial network: three departs at 0.5 and passenger creation at 5
	s := newScenarioSim(t, 1)
	const n = 20000

	counts := map[EventKind]int{}
	for range n {
		ev, err := s.ChooseEvent()
		require.NoError(t, err)
		counts[ev.Kind()]++
	}

	// THEN choices follow rate / total
	assert.InDelta(t, 5/6.5, float64(counts[KindNewPassenger])/n, 0.02)
	assert.InDelta(t, 1.5/6.5, float64(counts[KindDepart])/n, 0.02)
	assert.Zero(t, counts[KindBoard]+counts[KindDisembark]+counts[KindArrival])
}

func TestSimulator_SameSeedSameRun(t *testing.T) {
	describeRun := func(seed int64) []string {
		s := newScenarioSim(t, seed)
		s.StopTime = 20
		var lines []string
		s.AddObserver(ObserverFuncs{Before: func(ev Event, now float64) {
			lines = append(lines, Describe(ev))
		}})
		require.NoError(t, s.Run())
		return lines
	}
	a, b := describeRun(5), describeRun(5)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, describeRun(6))
}

func TestSimulator_RunAdvancesPastStopTime(t *testing.T) {
	s := newScenarioSim(t, 42)
	s.StopTime = 10
	var last float64
	s.AddObserver(ObserverFuncs{After: func(_ Event, now float64) {
		assert.GreaterOrEqual(t, now, last, "time must not go backwards")
		last = now
	}})

	require.NoError(t, s.Run())
	assert.Greater(t, s.Time, 10.0)
	assert.Equal(t, last, s.Time)
	assert.Positive(t, s.EventCount)
}

func TestSimulator_InitialiseTwiceEqualsOnce(t *testing.T) {
	s := newScenarioSim(t, 42)
	s.StopTime = 5
	require.NoError(t, s.Run())

	s.Initialise()
	once := s.TotalRate()
	queues := queueIDs(s.Network)
	s.Initialise()

	assert.Equal(t, once, s.TotalRate())
	assert.Equal(t, queues, queueIDs(s.Network))
	assert.Zero(t, s.Time)
	assert.Zero(t, s.EventCount)
	assert.InDelta(t, 6.5, s.TotalRate(), 1e-12)
	requireConsistent(t, s)
}
