// Package snap decides which side of each endpoint node a connector should
// attach to, balancing geometric direction against per-side load.
//
// The side is chosen by the dominant axis of the endpoint-to-endpoint
// displacement; when that side already carries a connection on the node, the
// assigner falls back to the strictly less loaded of the two orthogonal
// sides. Load bookkeeping is per-invocation state: create one Assigner per
// optimization call and run every connector through it so later assignments
// see the sides taken by earlier ones.
package snap

import (
	"math"

	"github.com/matzehuels/detangle/pkg/board"
)

// Position is an endpoint node's center after layout.
type Position struct {
	X float64
	Y float64
}

// Connection records one assignment on a node: the outgoing direction and
// the side it took. Discarded with the Assigner after the invocation.
type Connection struct {
	Angle float64
	Side  board.SnapSide
}

// Assignment is the computed attachment for one connector. Changed reports
// whether persisting it would alter the connector (side or shape differs
// from its current state); unchanged connectors are not counted as
// optimized.
type Assignment struct {
	ConnectorID string
	StartSnap   board.SnapSide
	EndSnap     board.SnapSide
	Shape       board.Shape
	Changed     bool
}

// Assigner computes snap sides for connectors against a fixed set of node
// positions. It is not safe for concurrent use; the optimizer runs a single
// sequential pass.
type Assigner struct {
	positions map[string]Position
	records   map[string][]Connection
}

// NewAssigner creates an assigner over post-layout node positions.
func NewAssigner(positions map[string]Position) *Assigner {
	return &Assigner{
		positions: positions,
		records:   make(map[string][]Connection),
	}
}

// Records returns the connections assigned so far on the given node.
func (a *Assigner) Records(nodeID string) []Connection {
	return a.records[nodeID]
}

// Assign computes snap sides for both endpoints of the connector. The far
// endpoint is assigned with the same rule and the direction reversed. The
// routing shape is forced to elbowed for visual consistency.
//
// The second return is false when either endpoint does not resolve to a
// known position; such connectors are skipped entirely and contribute no
// load records.
func (a *Assigner) Assign(conn board.Item) (Assignment, bool) {
	startID, endID := conn.Endpoints()
	start, okS := a.positions[startID]
	end, okE := a.positions[endID]
	if !okS || !okE {
		return Assignment{}, false
	}

	dx := end.X - start.X
	dy := end.Y - start.Y

	out := Assignment{
		ConnectorID: conn.ID,
		StartSnap:   a.takeSide(startID, dx, dy),
		EndSnap:     a.takeSide(endID, -dx, -dy),
		Shape:       board.ShapeElbowed,
	}

	var curStart, curEnd board.SnapSide
	if conn.Start != nil {
		curStart = conn.Start.SnapTo
	}
	if conn.End != nil {
		curEnd = conn.End.SnapTo
	}
	out.Changed = curStart != out.StartSnap || curEnd != out.EndSnap || conn.Shape != out.Shape

	return out, true
}

// takeSide picks a side for one endpoint and records the assignment so
// subsequent connectors on the same node see updated load.
func (a *Assigner) takeSide(nodeID string, dx, dy float64) board.SnapSide {
	side := dominantSide(dx, dy)

	if a.load(nodeID, side) >= 1 {
		alt1, alt2 := orthogonal(side)
		alt := alt1
		if a.load(nodeID, alt2) < a.load(nodeID, alt1) {
			alt = alt2
		}
		if a.load(nodeID, alt) < a.load(nodeID, side) {
			side = alt
		}
	}

	a.records[nodeID] = append(a.records[nodeID], Connection{
		Angle: math.Atan2(dy, dx),
		Side:  side,
	})
	return side
}

// load counts assignments already made on the node's side.
func (a *Assigner) load(nodeID string, side board.SnapSide) int {
	n := 0
	for _, c := range a.records[nodeID] {
		if c.Side == side {
			n++
		}
	}
	return n
}

// dominantSide maps a displacement onto the side it exits through. Ties go
// to the horizontal axis, so a purely diagonal edge snaps left/right.
func dominantSide(dx, dy float64) board.SnapSide {
	if math.Abs(dx) >= math.Abs(dy) {
		if dx >= 0 {
			return board.SnapRight
		}
		return board.SnapLeft
	}
	if dy >= 0 {
		return board.SnapBottom
	}
	return board.SnapTop
}

// orthogonal returns the two sides perpendicular to s.
func orthogonal(s board.SnapSide) (board.SnapSide, board.SnapSide) {
	switch s {
	case board.SnapLeft, board.SnapRight:
		return board.SnapTop, board.SnapBottom
	default:
		return board.SnapLeft, board.SnapRight
	}
}
