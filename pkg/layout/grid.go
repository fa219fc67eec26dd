package layout

import (
	"math"
	"math/rand/v2"
	"slices"
)

// cell is an integer grid coordinate bucket.
type cell struct {
	gx, gy int
}

// gridNode is a node snapped to a grid cell. It exists only for the duration
// of one Optimize call.
type gridNode struct {
	id           string
	gx, gy       int
	origX, origY float64
}

// grid holds the mutable search state: node cells, an occupancy count per
// cell, and the filtered edge list as index pairs. It is owned exclusively
// by a single Optimize call; no synchronization is needed.
type grid struct {
	nodes []*gridNode
	byID  map[string]*gridNode
	occ   map[cell]int
	edges [][2]int
	adj   [][]int // node index -> neighbor indices

	cellW, cellH float64
	rng          *rand.Rand
}

func newGrid(nodes []Node, edges []Edge, spacing float64, rng *rand.Rand) *grid {
	g := &grid{
		byID: make(map[string]*gridNode, len(nodes)),
		occ:  make(map[cell]int, len(nodes)),
		rng:  rng,
	}

	var sumW, sumH float64
	for _, n := range nodes {
		w, h := n.Width, n.Height
		if w <= 0 {
			w = FallbackCellSize
		}
		if h <= 0 {
			h = FallbackCellSize
		}
		sumW += w
		sumH += h

		gn := &gridNode{id: n.ID, origX: n.X, origY: n.Y}
		g.nodes = append(g.nodes, gn)
		g.byID[n.ID] = gn
	}

	g.cellW = FallbackCellSize * spacing
	g.cellH = FallbackCellSize * spacing
	if len(nodes) > 0 {
		g.cellW = sumW / float64(len(nodes)) * spacing
		g.cellH = sumH / float64(len(nodes)) * spacing
	}

	// Filter edges down to pairs fully inside the node set. Violating edges
	// are dropped, not reported.
	index := make(map[string]int, len(g.nodes))
	for i, gn := range g.nodes {
		index[gn.id] = i
	}
	g.adj = make([][]int, len(g.nodes))
	for _, e := range edges {
		si, okS := index[e.SourceID]
		ti, okT := index[e.TargetID]
		if !okS || !okT || si == ti {
			continue
		}
		g.edges = append(g.edges, [2]int{si, ti})
		g.adj[si] = append(g.adj[si], ti)
		g.adj[ti] = append(g.adj[ti], si)
	}

	return g
}

// =============================================================================
// Initial Placement
// =============================================================================

// place snaps every node to its nearest grid cell, resolving collisions with
// an outward spiral search. After place, cell occupancy is exclusive unless
// the spiral cap forced an overlap (which the cost function then penalizes).
func (g *grid) place() {
	for _, n := range g.nodes {
		target := cell{
			gx: int(math.Round(n.origX / g.cellW)),
			gy: int(math.Round(n.origY / g.cellH)),
		}
		c := g.nearestFree(target)
		n.gx, n.gy = c.gx, c.gy
		g.occ[c]++
	}
}

// nearestFree returns target if empty, otherwise the first empty cell found
// on the expanding rings around it. Each ring is scanned fully before the
// radius grows. Past maxSpiralRadius the node is force-placed on target.
func (g *grid) nearestFree(target cell) cell {
	if g.occ[target] == 0 {
		return target
	}
	for r := 1; r <= maxSpiralRadius; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if max(abs(dx), abs(dy)) != r {
					continue // interior of the ring, already scanned
				}
				c := cell{target.gx + dx, target.gy + dy}
				if g.occ[c] == 0 {
					return c
				}
			}
		}
	}
	return target
}

// =============================================================================
// Move Primitives
// =============================================================================

// moveTo relocates node i to dest, updating occupancy.
func (g *grid) moveTo(i int, dest cell) {
	n := g.nodes[i]
	g.occ[cell{n.gx, n.gy}]--
	if g.occ[cell{n.gx, n.gy}] == 0 {
		delete(g.occ, cell{n.gx, n.gy})
	}
	n.gx, n.gy = dest.gx, dest.gy
	g.occ[dest]++
}

// swap exchanges the cells of nodes i and j. The intermediate double
// occupancy is confined to this call and never observed by the cost function.
func (g *grid) swap(i, j int) {
	a, b := g.nodes[i], g.nodes[j]
	ca := cell{a.gx, a.gy}
	cb := cell{b.gx, b.gy}
	a.gx, a.gy = cb.gx, cb.gy
	b.gx, b.gy = ca.gx, ca.gy
	// Occupancy counts per cell are unchanged by a pure exchange.
}

// =============================================================================
// Compaction and De-gridding
// =============================================================================

// compact remaps used grid coordinates on each axis onto a dense 0..k range,
// removing empty rows and columns left behind by the search.
func (g *grid) compact() {
	if len(g.nodes) == 0 {
		return
	}
	xs := make([]int, 0, len(g.nodes))
	ys := make([]int, 0, len(g.nodes))
	for _, n := range g.nodes {
		xs = append(xs, n.gx)
		ys = append(ys, n.gy)
	}
	xmap := denseIndex(xs)
	ymap := denseIndex(ys)

	g.occ = make(map[cell]int, len(g.nodes))
	for _, n := range g.nodes {
		n.gx = xmap[n.gx]
		n.gy = ymap[n.gy]
		g.occ[cell{n.gx, n.gy}]++
	}
}

// denseIndex maps each distinct value to its rank among the distinct values.
func denseIndex(vals []int) map[int]int {
	slices.Sort(vals)
	vals = slices.Compact(vals)
	m := make(map[int]int, len(vals))
	for i, v := range vals {
		m[v] = i
	}
	return m
}

// positions converts grid cells back to continuous coordinates, anchoring
// the grid's centroid to the centroid of the original input positions so the
// optimized cluster stays roughly where the selection was.
func (g *grid) positions() map[string]Point {
	out := make(map[string]Point, len(g.nodes))
	if len(g.nodes) == 0 {
		return out
	}

	var sumGX, sumGY, sumOX, sumOY float64
	for _, n := range g.nodes {
		sumGX += float64(n.gx) * g.cellW
		sumGY += float64(n.gy) * g.cellH
		sumOX += n.origX
		sumOY += n.origY
	}
	count := float64(len(g.nodes))
	offX := sumOX/count - sumGX/count
	offY := sumOY/count - sumGY/count

	for _, n := range g.nodes {
		out[n.id] = Point{
			X: float64(n.gx)*g.cellW + offX,
			Y: float64(n.gy)*g.cellH + offY,
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
