// Package script registers the population and collection types and their
// member functions with the host engine, wiring the user-facing names to the
// aggregation engine and equation compiler.
package script

import (
	"github.com/vk/evogrid/internal/org"
)

// Control is the orchestrator surface the script bindings delegate to.
// Organism transfer, run termination, and run-wide state all live outside
// this layer.
type Control interface {
	// MoveOrgs transfers every organism from one population to another.
	// When clearDest is set the destination is emptied first.
	MoveOrgs(from, to *org.Population, clearDest bool) error
	// RequestExit asks for an orderly run termination.
	RequestExit()
	// Update returns the current update number.
	Update() int
	// Verbose reports whether the verbose flag is set.
	Verbose() bool
	// RandomSeed returns the run's random seed.
	RandomSeed() int64
	// SetRandomSeed replaces the run's random seed.
	SetRandomSeed(seed int64)
}
