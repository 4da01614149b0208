package sim

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMetricsSim builds a single one-seat bus shuttling between stops 1 and 2,
// with Metrics attached. Tests drive it by hand, moving the clock themselves.
func newMetricsSim(t *testing.T) (*Simulator, *Metrics) {
	t.Helper()
	net := NewNetwork()
	require.NoError(t, net.AddRoute(1, []int{1, 2}, 1, 1))
	s := NewSimulator(net, Rates{
		Board: 1, Disembark: 1, Depart: 1, NewPassengers: 1,
		Roads: map[RoadKey]float64{{1, 2}: 1, {2, 1}: 1},
	}, RunConfig{StopTime: 10})
	s.Initialise()
	m := NewMetrics(net)
	s.AddObserver(m)
	return s, m
}

func at(t *testing.T, s *Simulator, now float64, ev Event) {
	t.Helper()
	s.Time = now
	require.NoError(t, s.Update(ev))
}

func TestMetrics_TimeWeightedAveragesAndMissedPassengers(t *testing.T) {
	// GIVEN the bus docked at stop 1 from time 0
	s, m := newMetricsSim(t)
	b := s.Network.Routes[1].Buses[0]

	// WHEN two passengers arrive, one boards, and the full bus leaves the other behind
	at(t, s, 2, &PassengerEvent{Origin: 1, Dest: 2})
	at(t, s, 5, &BoardEvent{Bus: b, Dest: 2})
	at(t, s, 5.5, &PassengerEvent{Origin: 1, Dest: 2})
	at(t, s, 6, &DepartEvent{Bus: b})
	m.Finalize(10)

	// THEN stop 1 saw the bus for 6 time units and passengers for 1×3 + 1×0.5 + 1×4
	assert.InDelta(t, 6.0, m.QueueArea[1], 1e-12)
	assert.InDelta(t, 7.5, m.WaitArea[1], 1e-12)
	assert.Zero(t, m.QueueArea[2])
	assert.Equal(t, 1, m.MissedByStop[1])
	assert.Equal(t, 1, m.MissedByRoute[1])

	sum := m.Summary()
	assert.Equal(t, 1, sum.Missed)
	assert.InDelta(t, 0.6, sum.AvgQueueByStop[1], 1e-12)
	assert.InDelta(t, 0.6, sum.AvgQueue, 1e-12)
	assert.InDelta(t, 0.75, sum.AvgWaitByStop[1], 1e-12)
	assert.InDelta(t, 0.75, sum.AvgWaitByRoute[1], 1e-12)
	assert.InDelta(t, 0.75, sum.AvgWait, 1e-12)
	assert.Equal(t, 1.0, sum.AvgPaxByBus["1.0"])
	assert.Equal(t, 1.0, sum.AvgPax)
}

func TestMetrics_MissedCountsOnlyPassengersTheBusServes(t *testing.T) {
	// GIVEN stop 1 shared by route 1 (to stop 2) and route 2 (to stop 3)
	net := NewNetwork()
	require.NoError(t, net.AddRoute(1, []int{1, 2}, 1, 1))
	require.NoError(t, net.AddRoute(2, []int{1, 3}, 1, 1))
	s := NewSimulator(net, Rates{
		Board: 1, Disembark: 1, Depart: 1, NewPassengers: 1,
		Roads: map[RoadKey]float64{{1, 2}: 1, {2, 1}: 1, {1, 3}: 1, {3, 1}: 1},
	}, RunConfig{StopTime: 10})
	s.Initialise()
	m := NewMetrics(net)
	s.AddObserver(m)
	b := net.Routes[1].Buses[0]

	// WHEN the route 1 bus fills up and leaves a stop 3 passenger behind
	at(t, s, 1, &PassengerEvent{Origin: 1, Dest: 2})
	at(t, s, 2, &PassengerEvent{Origin: 1, Dest: 3})
	at(t, s, 3, &BoardEvent{Bus: b, Dest: 2})
	require.True(t, b.Full())
	at(t, s, 4, &DepartEvent{Bus: b})

	// THEN nobody counts as missed: route 1 could not have carried them
	assert.Zero(t, m.MissedByStop[1])
	assert.Zero(t, m.MissedByRoute[1])
	assert.Equal(t, 1, net.Stops[1].PaxCount())
}

func TestMetrics_NotFullBusMissesNobody(t *testing.T) {
	s, m := newMetricsSim(t)
	b := s.Network.Routes[1].Buses[0]

	// an empty bus leaves an empty stop
	at(t, s, 1, &DepartEvent{Bus: b})
	at(t, s, 2, &ArrivalEvent{Bus: b})
	at(t, s, 3, &DepartEvent{Bus: b})
	m.Finalize(4)

	sum := m.Summary()
	assert.Zero(t, sum.Missed)
	assert.Equal(t, 2, m.Trips[b].Trips)
	assert.Zero(t, sum.AvgPax)
	// docked at stop 1 over [0,1], at stop 2 over [2,3]
	assert.InDelta(t, 0.25, sum.AvgQueueByStop[1], 1e-12)
	assert.InDelta(t, 0.25, sum.AvgQueueByStop[2], 1e-12)
	assert.InDelta(t, 0.5, sum.AvgQueue, 1e-12)
}

func TestSummary_PrintUsesReportLines(t *testing.T) {
	s, m := newMetricsSim(t)
	b := s.Network.Routes[1].Buses[0]
	at(t, s, 2, &PassengerEvent{Origin: 1, Dest: 2})
	at(t, s, 5, &BoardEvent{Bus: b, Dest: 2})
	at(t, s, 6, &DepartEvent{Bus: b})
	m.Finalize(10)

	var buf bytes.Buffer
	m.Summary().Print(&buf)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	assert.Equal(t, []string{
		"number of missed passengers route 1 0",
		"number of missed passengers stop 1 0",
		"number of missed passengers stop 2 0",
		"number of missed passengers 0",
		"",
		"average passengers bus 1.0 1.0000",
		"average passengers route 1 1.0000",
		"average passengers 1.0000",
		"",
		"average queueing at stop 1 0.6000",
		"average queueing at stop 2 0.0000",
		"average queueing at all stops 0.6000",
		"",
		"average waiting passengers on route 1 0.3000",
		"average waiting passengers at stop 1 0.3000",
		"average waiting passengers at stop 2 0.0000",
		"average waiting passengers 0.3000",
	}, lines)
}

func TestMetrics_EmptyRunReportsZeros(t *testing.T) {
	_, m := newMetricsSim(t)
	m.Finalize(0)
	sum := m.Summary()
	assert.Zero(t, sum.AvgQueue)
	assert.Zero(t, sum.AvgWait)
	assert.Zero(t, sum.AvgPax)
}
