// Package optimize sequences a full connector-layout optimization run:
// connectivity collection, optional grid layout, snap-side assignment, and
// best-effort persistence back to the board.
//
// The entry point is Runner.Run. A run never escalates an internal fault to
// the caller: every failure mode is converted into a Result with Success
// false and a descriptive message, so embedding hosts cannot be crashed by
// the optimizer.
package optimize

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/detangle/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultSpacingFactor scales grid cell size relative to mean node size.
	DefaultSpacingFactor = 1.5

	// DefaultPriority is the default optimization priority. The field is
	// validated and carried but reserved: no phase currently consults it.
	DefaultPriority = 50

	// MaxPriority bounds the priority option.
	MaxPriority = 100
)

// =============================================================================
// Options - Run Configuration
// =============================================================================

// Options contains all configuration for an optimization run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// AllowMovement enables the grid layout phase. When false, nodes keep
	// their positions and only snap sides are reassigned.
	AllowMovement bool `json:"allow_movement"`

	// SpacingFactor scales the layout grid cell size. Must be > 0.
	SpacingFactor float64 `json:"spacing_factor,omitempty"`

	// Priority is accepted and validated to 0..100 but is reserved for
	// future scoring use; no phase currently reads it.
	Priority int `json:"priority,omitempty"`

	// Seed seeds the randomized layout search. Zero means fresh entropy,
	// making layout results nondeterministic run-to-run; only seeded runs
	// participate in layout-result caching.
	Seed uint64 `json:"seed,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// DefaultOptions returns the standard run configuration:
// movement allowed, spacing factor 1.5, priority 50.
func DefaultOptions() Options {
	return Options{
		AllowMovement: true,
		SpacingFactor: DefaultSpacingFactor,
		Priority:      DefaultPriority,
	}
}

// Validate checks option ranges and applies defaults for zero values.
func (o *Options) Validate() error {
	if o.SpacingFactor == 0 {
		o.SpacingFactor = DefaultSpacingFactor
	}
	if o.SpacingFactor < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "spacing factor must be > 0, got %v", o.SpacingFactor)
	}
	if o.Priority < 0 || o.Priority > MaxPriority {
		return errors.New(errors.ErrCodeInvalidOptions, "priority must be in 0..%d, got %d", MaxPriority, o.Priority)
	}
	return nil
}

// =============================================================================
// Result - Run Summary
// =============================================================================

// Result summarizes an optimization run for the caller.
type Result struct {
	// RunID uniquely identifies this run in logs and API responses.
	RunID string `json:"run_id"`

	// Success reports whether the run completed. Individual persistence
	// failures do not clear it; only input errors, internal faults, or a
	// run where every write failed do.
	Success bool `json:"success"`

	// Message is a human-readable outcome description.
	Message string `json:"message"`

	// ObjectsProcessed counts the drawable nodes in the working set,
	// including nodes whose position commit failed.
	ObjectsProcessed int `json:"objects_processed"`

	// ConnectorsOptimized counts connectors whose computed attachment
	// differed from their current state and was successfully persisted.
	ConnectorsOptimized int `json:"connectors_optimized"`

	// Stats contains timing and size information.
	Stats Stats `json:"stats"`

	// CacheInfo tracks whether the layout came from cache.
	CacheInfo CacheInfo `json:"cache_info"`
}

// Stats contains run execution statistics.
type Stats struct {
	NodeCount      int           `json:"node_count"`
	EdgeCount      int           `json:"edge_count"`
	ConnectorCount int           `json:"connector_count"`
	CollectTime    time.Duration `json:"collect_time"`
	LayoutTime     time.Duration `json:"layout_time"`
	SnapTime       time.Duration `json:"snap_time"`
}

// CacheInfo tracks cache hits for the run.
type CacheInfo struct {
	LayoutHit bool `json:"layout_hit"` // Whether the layout came from cache
}

// failed builds an unsuccessful result carrying the error's user message.
func failed(runID string, err error) Result {
	return Result{
		RunID:   runID,
		Success: false,
		Message: errors.UserMessage(err),
	}
}
