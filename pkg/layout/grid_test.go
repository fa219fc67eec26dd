package layout

import (
	"testing"
)

func gridFor(nodes []Node, edges []Edge, seed uint64) *grid {
	return newGrid(nodes, edges, DefaultSpacingFactor, newRand(seed))
}

func TestPlaceExclusiveOccupancy(t *testing.T) {
	// Nine nodes dumped on the same spot: the spiral must spread them out.
	var nodes []Node
	for i := 0; i < 9; i++ {
		nodes = append(nodes, Node{ID: string(rune('a' + i))})
	}

	g := gridFor(nodes, nil, 1)
	g.place()

	for c, count := range g.occ {
		if count != 1 {
			t.Errorf("cell %v holds %d nodes after place", c, count)
		}
	}
	if len(g.occ) != len(nodes) {
		t.Errorf("occupied %d cells, want %d", len(g.occ), len(nodes))
	}
}

func TestNearestFreeScansRingsOutward(t *testing.T) {
	g := gridFor([]Node{{ID: "a"}}, nil, 1)
	origin := cell{0, 0}

	if got := g.nearestFree(origin); got != origin {
		t.Errorf("nearestFree on empty grid = %v, want %v", got, origin)
	}

	g.occ[origin] = 1
	got := g.nearestFree(origin)
	if got == origin {
		t.Fatal("nearestFree returned an occupied cell")
	}
	if max(abs(got.gx), abs(got.gy)) != 1 {
		t.Errorf("nearestFree skipped ring 1: %v", got)
	}
}

func TestMoveToUpdatesOccupancy(t *testing.T) {
	// "b" sits at gx=6, well clear of the destination cell.
	g := gridFor([]Node{{ID: "a"}, {ID: "b", X: 900}}, nil, 1)
	g.place()

	from := cell{g.nodes[0].gx, g.nodes[0].gy}
	dest := cell{from.gx + 3, from.gy}
	if g.occ[dest] != 0 {
		t.Fatalf("fixture error: destination %v already occupied", dest)
	}
	g.moveTo(0, dest)

	if _, ok := g.occ[from]; ok {
		t.Errorf("vacated cell %v still tracked: %v", from, g.occ)
	}
	if g.occ[dest] != 1 {
		t.Errorf("destination %v occupancy = %d, want 1", dest, g.occ[dest])
	}
}

func TestSwapPreservesOccupancy(t *testing.T) {
	g := gridFor([]Node{{ID: "a"}, {ID: "b", X: 500}}, nil, 1)
	g.place()

	ca := cell{g.nodes[0].gx, g.nodes[0].gy}
	cb := cell{g.nodes[1].gx, g.nodes[1].gy}

	g.swap(0, 1)

	if got := (cell{g.nodes[0].gx, g.nodes[0].gy}); got != cb {
		t.Errorf("node a at %v after swap, want %v", got, cb)
	}
	if got := (cell{g.nodes[1].gx, g.nodes[1].gy}); got != ca {
		t.Errorf("node b at %v after swap, want %v", got, ca)
	}
	if g.occ[ca] != 1 || g.occ[cb] != 1 {
		t.Errorf("occupancy disturbed by swap: %v", g.occ)
	}
}

func TestCompactRemovesGaps(t *testing.T) {
	g := gridFor([]Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}, nil, 1)
	g.nodes[0].gx, g.nodes[0].gy = -5, 10
	g.nodes[1].gx, g.nodes[1].gy = 0, 10
	g.nodes[2].gx, g.nodes[2].gy = 7, 20
	g.occ = map[cell]int{{-5, 10}: 1, {0, 10}: 1, {7, 20}: 1}

	g.compact()

	wantCells := map[string]cell{
		"a": {0, 0},
		"b": {1, 0},
		"c": {2, 1},
	}
	for _, n := range g.nodes {
		want := wantCells[n.id]
		if got := (cell{n.gx, n.gy}); got != want {
			t.Errorf("node %q compacted to %v, want %v", n.id, got, want)
		}
	}
}

func TestDenseIndex(t *testing.T) {
	got := denseIndex([]int{7, -3, 7, 0})
	want := map[int]int{-3: 0, 0: 1, 7: 2}
	if len(got) != len(want) {
		t.Fatalf("denseIndex = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("denseIndex[%d] = %d, want %d", k, got[k], v)
		}
	}
}

func TestCellSizeFromMeanDimensions(t *testing.T) {
	nodes := []Node{
		{ID: "a", Width: 100, Height: 50},
		{ID: "b", Width: 300, Height: 150},
	}
	g := newGrid(nodes, nil, 1.5, newRand(1))

	if g.cellW != 300 { // mean 200 * 1.5
		t.Errorf("cellW = %v, want 300", g.cellW)
	}
	if g.cellH != 150 { // mean 100 * 1.5
		t.Errorf("cellH = %v, want 150", g.cellH)
	}
}

func TestCellSizeFallback(t *testing.T) {
	g := newGrid([]Node{{ID: "a"}}, nil, 1.5, newRand(1))
	want := FallbackCellSize * 1.5
	if g.cellW != want || g.cellH != want {
		t.Errorf("cell size = (%v, %v), want %v", g.cellW, g.cellH, want)
	}
}
