package trace

import (
	"testing"
)

func TestSimulationTrace_RecordEvent_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for events
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})

	// WHEN an event record is recorded
	st.RecordEvent(EventRecord{
		Kind:      "departs",
		Time:      1.5,
		Bus:       "1.0",
		Stop:      3,
		TotalRate: 7.5,
	})

	// THEN the trace contains one record with correct data
	if len(st.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(st.Events))
	}
	if st.Events[0].Bus != "1.0" {
		t.Errorf("expected bus 1.0, got %s", st.Events[0].Bus)
	}
	if st.Events[0].Stop != 3 {
		t.Errorf("expected stop 3, got %d", st.Events[0].Stop)
	}
}

func TestSimulationTrace_LevelNone_RecordsNothing(t *testing.T) {
	// GIVEN a trace with tracing disabled
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelNone})

	// WHEN an event is recorded
	st.RecordEvent(EventRecord{Kind: "board"})

	// THEN nothing is stored
	if st.Enabled() {
		t.Error("expected trace to be disabled")
	}
	if len(st.Events) != 0 {
		t.Errorf("expected 0 events, got %d", len(st.Events))
	}
}

func TestSimulationTrace_NilTrace_IsDisabled(t *testing.T) {
	var st *SimulationTrace
	if st.Enabled() {
		t.Error("expected nil trace to be disabled")
	}
	// must not panic
	st.RecordEvent(EventRecord{Kind: "board"})
}

func TestSimulationTrace_MaxEvents_CountsDropped(t *testing.T) {
	// GIVEN a trace capped at two records
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents, MaxEvents: 2})

	// WHEN five events are recorded
	for i := range 5 {
		st.RecordEvent(EventRecord{Kind: "arrivals", Time: float64(i)})
	}

	// THEN the first two are kept and the rest counted as dropped
	if len(st.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(st.Events))
	}
	if st.Events[1].Time != 1 {
		t.Errorf("expected second kept event at time 1, got %g", st.Events[1].Time)
	}
	if st.Dropped != 3 {
		t.Errorf("expected 3 dropped, got %d", st.Dropped)
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"events", true},
		{"", true},
		{"decisions", false},
		{"EVENTS", false},
	}
	for _, tc := range tests {
		if got := IsValidTraceLevel(tc.level); got != tc.valid {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tc.level, got, tc.valid)
		}
	}
}
