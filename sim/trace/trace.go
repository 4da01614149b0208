package trace

// TraceLevel controls the verbosity of event tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvents captures every applied event.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelEvents: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
	// MaxEvents caps the number of stored records; 0 means unlimited.
	// Records past the cap are counted but not kept.
	MaxEvents int
}

// SimulationTrace collects event records during a simulation.
type SimulationTrace struct {
	Config  TraceConfig
	Events  []EventRecord
	Dropped int
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config: config,
		Events: make([]EventRecord, 0),
	}
}

// Enabled reports whether records are collected at all.
func (st *SimulationTrace) Enabled() bool {
	return st != nil && st.Config.Level == TraceLevelEvents
}

// RecordEvent appends an event record.
func (st *SimulationTrace) RecordEvent(record EventRecord) {
	if !st.Enabled() {
		return
	}
	if st.Config.MaxEvents > 0 && len(st.Events) >= st.Config.MaxEvents {
		st.Dropped++
		return
	}
	st.Events = append(st.Events, record)
}
