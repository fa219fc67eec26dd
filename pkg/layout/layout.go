// Package layout computes new positions for a set of connected nodes by
// mapping them onto an integer grid and running a two-phase search: a global
// simulated-annealing pass followed by local greedy repair. The cost function
// penalizes node overlap, edges passing through unrelated nodes, and port
// congestion, plus a Manhattan distance term over edges.
//
// The search proposes randomized moves, so results are not deterministic
// run-to-run unless Options.Seed is set: identical inputs with the same
// non-zero seed always produce identical layouts, while a zero seed draws
// fresh entropy per call.
package layout

import (
	"math/rand/v2"
)

// =============================================================================
// Input / Output Types
// =============================================================================

// Node is a rectangle participating in layout. X and Y are the node's center
// in board coordinates. Width and Height fall back to 100 when not positive.
type Node struct {
	ID     string
	X, Y   float64
	Width  float64
	Height float64
}

// Edge is an undirected connection between two nodes, identified by id.
// Edges referencing ids absent from the node set are dropped silently.
type Edge struct {
	SourceID string
	TargetID string
}

// Point is a continuous board coordinate.
type Point struct {
	X float64
	Y float64
}

// Options configures a layout run.
type Options struct {
	// SpacingFactor scales the grid cell size relative to the mean node
	// dimensions. Must be > 0; DefaultSpacingFactor is used otherwise.
	SpacingFactor float64

	// Seed seeds the random source for the annealing and repair phases.
	// Zero means fresh entropy (nondeterministic run-to-run).
	Seed uint64
}

// DefaultSpacingFactor is the grid spacing used when none is configured.
const DefaultSpacingFactor = 1.5

// FallbackCellSize is the grid cell size for empty or degenerate node sets.
const FallbackCellSize = 100.0

// Search budgets and cost weights.
const (
	annealIterations   = 2000
	initialTemperature = 100.0
	coolingFactor      = 0.95
	repairIterations   = 500
	maxSpiralRadius    = 20

	overlapPenalty    = 100000.0
	throughPenalty    = 1000.0
	congestionPenalty = 500.0
	distanceWeight    = 10.0
)

// =============================================================================
// Entry Point
// =============================================================================

// Optimize computes new continuous positions for the given nodes. The
// returned map has one entry per input node. An empty node set yields an
// empty map.
//
// The optimized cluster is re-anchored so its centroid matches the centroid
// of the original input positions.
func Optimize(nodes []Node, edges []Edge, opts Options) map[string]Point {
	if len(nodes) == 0 {
		return map[string]Point{}
	}
	if opts.SpacingFactor <= 0 {
		opts.SpacingFactor = DefaultSpacingFactor
	}

	g := newGrid(nodes, edges, opts.SpacingFactor, newRand(opts.Seed))
	g.place()
	g.anneal()
	g.repair()
	g.compact()
	return g.positions()
}

// newRand builds the search's random source. A zero seed draws entropy from
// the shared global source.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64() | 1
	}
	return rand.New(rand.NewPCG(seed, seed))
}
