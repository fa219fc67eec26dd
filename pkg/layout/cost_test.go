package layout

import "testing"

// placeAt pins nodes to explicit cells, bypassing place().
func placeAt(g *grid, cells ...cell) {
	g.occ = make(map[cell]int, len(cells))
	for i, c := range cells {
		g.nodes[i].gx, g.nodes[i].gy = c.gx, c.gy
		g.occ[c]++
	}
}

func TestOverlapPenalty(t *testing.T) {
	g := gridFor([]Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}, nil, 1)
	placeAt(g, cell{0, 0}, cell{0, 0}, cell{1, 0})

	if got := g.overlap(); got != overlapPenalty {
		t.Errorf("overlap() = %v, want %v", got, overlapPenalty)
	}

	placeAt(g, cell{0, 0}, cell{0, 0}, cell{0, 0})
	if got := g.overlap(); got != 2*overlapPenalty {
		t.Errorf("overlap() with triple stack = %v, want %v", got, 2*overlapPenalty)
	}
}

func TestPassThroughPenalty(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	edges := []Edge{{SourceID: "a", TargetID: "b"}}

	// c sits strictly between a and b on a horizontal edge.
	g := gridFor(nodes, edges, 1)
	placeAt(g, cell{0, 0}, cell{4, 0}, cell{2, 0})
	if got := g.passThrough(); got != throughPenalty {
		t.Errorf("passThrough() = %v, want %v", got, throughPenalty)
	}

	// Off the edge's row: no charge.
	placeAt(g, cell{0, 0}, cell{4, 0}, cell{2, 1})
	if got := g.passThrough(); got != 0 {
		t.Errorf("passThrough() off-row = %v, want 0", got)
	}

	// Diagonal edges are never charged.
	placeAt(g, cell{0, 0}, cell{4, 3}, cell{2, 1})
	if got := g.passThrough(); got != 0 {
		t.Errorf("passThrough() diagonal = %v, want 0", got)
	}
}

func TestCongestionPenalty(t *testing.T) {
	nodes := []Node{{ID: "hub"}, {ID: "a"}, {ID: "b"}, {ID: "c"}}
	edges := []Edge{
		{SourceID: "hub", TargetID: "a"},
		{SourceID: "hub", TargetID: "b"},
		{SourceID: "hub", TargetID: "c"},
	}

	// All three neighbors to the right of the hub load the same port.
	g := gridFor(nodes, edges, 1)
	placeAt(g, cell{0, 0}, cell{2, 0}, cell{3, 0}, cell{4, 0})
	if got := g.congestion(); got != 2*congestionPenalty {
		t.Errorf("congestion() = %v, want %v", got, 2*congestionPenalty)
	}

	// Spread across sides: no port holds more than one neighbor.
	placeAt(g, cell{0, 0}, cell{2, 0}, cell{-2, 0}, cell{0, 2})
	if got := g.congestion(); got != 0 {
		t.Errorf("congestion() spread = %v, want 0", got)
	}
}

// Leaf nodes never pay congestion: a node needs at least two neighbors.
func TestCongestionSkipsLeaves(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "b"}}
	edges := []Edge{{SourceID: "a", TargetID: "b"}}

	g := gridFor(nodes, edges, 1)
	placeAt(g, cell{0, 0}, cell{1, 0})
	if got := g.congestion(); got != 0 {
		t.Errorf("congestion() on a leaf pair = %v, want 0", got)
	}
}

func TestPortIndex(t *testing.T) {
	tests := []struct {
		dx, dy int
		want   int
	}{
		{0, -1, 0}, // top
		{1, 0, 1},  // right
		{0, 1, 2},  // bottom
		{-1, 0, 3}, // left
		{2, 2, 1},  // tie goes horizontal
		{-2, -2, 3},
		{1, 3, 2},
		{-1, -3, 0},
	}

	for _, tt := range tests {
		if got := portIndex(tt.dx, tt.dy); got != tt.want {
			t.Errorf("portIndex(%d, %d) = %d, want %d", tt.dx, tt.dy, got, tt.want)
		}
	}
}

func TestDistance(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "b"}}
	edges := []Edge{{SourceID: "a", TargetID: "b"}}

	g := gridFor(nodes, edges, 1)
	placeAt(g, cell{0, 0}, cell{3, 4})

	if got := g.distance(); got != 7*distanceWeight {
		t.Errorf("distance() = %v, want %v", got, 7*distanceWeight)
	}
}

// Repair must never worsen the penalty and must leave a two-node stack
// separated: moving one node into an empty adjacent cell strictly improves.
func TestRepairResolvesStack(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "b"}}
	g := gridFor(nodes, nil, 1)
	placeAt(g, cell{0, 0}, cell{0, 0})

	before := g.penalty()
	g.repair()
	after := g.penalty()

	if after > before {
		t.Errorf("repair worsened penalty: %v -> %v", before, after)
	}
	if after != 0 {
		t.Errorf("repair left penalty %v, want 0", after)
	}
}
