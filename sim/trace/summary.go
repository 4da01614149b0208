package trace

import (
	"fmt"
	"io"
	"sort"
)

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalEvents   int
	Dropped       int
	KindCounts    map[string]int // event kind → count
	BusCounts     map[string]int // bus id → events involving it
	UniqueBuses   int
	EndTime       float64
	MeanTotalRate float64
	MaxTotalRate  float64
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		KindCounts: make(map[string]int),
		BusCounts:  make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalEvents = len(st.Events)
	summary.Dropped = st.Dropped
	if len(st.Events) > 0 {
		totalRate := 0.0
		for _, e := range st.Events {
			summary.KindCounts[e.Kind]++
			if e.Bus != "" {
				summary.BusCounts[e.Bus]++
			}
			totalRate += e.TotalRate
			if e.TotalRate > summary.MaxTotalRate {
				summary.MaxTotalRate = e.TotalRate
			}
		}
		summary.MeanTotalRate = totalRate / float64(len(st.Events))
		summary.EndTime = st.Events[len(st.Events)-1].Time
	}

	summary.UniqueBuses = len(summary.BusCounts)

	return summary
}

// Print writes the summary, one "key value" line per statistic, kinds sorted by name.
func (s *TraceSummary) Print(w io.Writer) {
	fmt.Fprintf(w, "trace events %d\n", s.TotalEvents)
	if s.Dropped > 0 {
		fmt.Fprintf(w, "trace events dropped %d\n", s.Dropped)
	}
	kinds := make([]string, 0, len(s.KindCounts))
	for k := range s.KindCounts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "trace events %s %d\n", k, s.KindCounts[k])
	}
	fmt.Fprintf(w, "trace buses %d\n", s.UniqueBuses)
	fmt.Fprintf(w, "trace end time %.4f\n", s.EndTime)
	fmt.Fprintf(w, "trace mean total rate %.4f\n", s.MeanTotalRate)
	fmt.Fprintf(w, "trace max total rate %.4f\n", s.MaxTotalRate)
}
