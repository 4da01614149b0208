// Package sim provides the continuous-time stochastic simulation engine for a
// bus network.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - network.go, bus.go: Stops, routes and buses (docked in a queue or on a road)
//   - event.go: The five event kinds and how each one changes the network
//   - simulator.go: Delay sampling, weighted event choice and the run loop
//
// # Architecture
//
// The engine never rescans the network between events. event_map.go keeps an
// index of every candidate event and the sum of their rates; each event's
// execute updates the network and that index together. invariants.go
// recomputes the index from scratch for tests and --check-invariants.
//
// Sub-packages:
//   - sim/config/: Configuration model, YAML and text loaders, validation
//   - sim/experiment/: Parameter sweeps, cost evaluation and optimisation
//   - sim/trace/: Event trace recording
//
// # Key Interfaces
//
//   - Event: closed set of transitions (board, disembark, depart, arrival, new passenger)
//   - Observer: notified before and after every applied event; Metrics,
//     EventLogger and the trace observer are all Observers
package sim
