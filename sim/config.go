package sim

// RunConfig groups the run-level parameters of a Simulator.
type RunConfig struct {
	StopTime float64 // simulated time at which the run loop stops (must be > 0)
	Seed     int64   // master seed for PartitionedRNG
	// LegacyDelay samples delays as -log10(u)/total instead of -ln(u)/total,
	// matching the numeric output of earlier releases.
	LegacyDelay bool
}
