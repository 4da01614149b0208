// Package trace provides event-trace recording for post-run analysis of a simulation.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// EventRecord captures a single applied event.
type EventRecord struct {
	Kind      string  // event kind name, e.g. "departs"
	Time      float64 // simulated time the event fired
	Bus       string  // bus id "route.seq"; empty for passenger creation
	Stop      int     // stop the event happened at (origin for passenger creation)
	Dest      int     // passenger destination for board and creation events, else 0
	TotalRate float64 // total rate right after the event was applied
}
