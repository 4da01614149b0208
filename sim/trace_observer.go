package sim

import "github.com/busnet-sim/busnet-sim/sim/trace"

// traceObserver feeds applied events into a trace.SimulationTrace.
// The stop is read before the transition, the total rate after it.
type traceObserver struct {
	st      *trace.SimulationTrace
	sim     *Simulator
	pending trace.EventRecord
}

// NewTraceObserver returns an Observer recording every event applied by s into st.
func NewTraceObserver(s *Simulator, st *trace.SimulationTrace) Observer {
	return &traceObserver{st: st, sim: s}
}

func (o *traceObserver) BeforeEvent(ev Event, now float64) {
	if !o.st.Enabled() {
		return
	}
	r := trace.EventRecord{Kind: ev.Kind().String(), Time: now}
	switch e := ev.(type) {
	case *BoardEvent:
		r.Bus, r.Stop, r.Dest = e.Bus.ID(), e.Bus.Stop().ID, e.Dest
	case *DisembarkEvent:
		r.Bus, r.Stop = e.Bus.ID(), e.Bus.Stop().ID
	case *DepartEvent:
		r.Bus, r.Stop = e.Bus.ID(), e.Bus.Stop().ID
	case *ArrivalEvent:
		r.Bus, r.Stop = e.Bus.ID(), e.Bus.Stop().ID
	case *PassengerEvent:
		r.Stop, r.Dest = e.Origin, e.Dest
	}
	o.pending = r
}

func (o *traceObserver) AfterEvent(Event, float64) {
	if !o.st.Enabled() {
		return
	}
	o.pending.TotalRate = o.sim.TotalRate()
	o.st.RecordEvent(o.pending)
}
