package layout

// cost is the full objective: constraint penalties plus the distance term.
func (g *grid) cost() float64 {
	return g.penalty() + g.distance()
}

// penalty sums the three constraint violations: cell overlap, edges passing
// through unrelated nodes, and per-side port congestion.
func (g *grid) penalty() float64 {
	return g.overlap() + g.passThrough() + g.congestion()
}

// overlap charges every cell holding more than one node.
func (g *grid) overlap() float64 {
	var p float64
	for _, count := range g.occ {
		if count > 1 {
			p += overlapPenalty * float64(count-1)
		}
	}
	return p
}

// passThrough charges axis-aligned edges for every node sitting strictly
// between their endpoints. Any occupant of an intermediate cell is
// necessarily a third node.
func (g *grid) passThrough() float64 {
	var p float64
	for _, e := range g.edges {
		a, b := g.nodes[e[0]], g.nodes[e[1]]
		switch {
		case a.gy == b.gy:
			lo, hi := minMax(a.gx, b.gx)
			for x := lo + 1; x < hi; x++ {
				p += throughPenalty * float64(g.occ[cell{x, a.gy}])
			}
		case a.gx == b.gx:
			lo, hi := minMax(a.gy, b.gy)
			for y := lo + 1; y < hi; y++ {
				p += throughPenalty * float64(g.occ[cell{a.gx, y}])
			}
		}
	}
	return p
}

// congestion buckets each node's neighbors into four directional ports by the
// dominant axis of displacement and charges ports holding more than one
// neighbor.
func (g *grid) congestion() float64 {
	var p float64
	for i, n := range g.nodes {
		if len(g.adj[i]) < 2 {
			continue
		}
		var ports [4]int // top, right, bottom, left
		for _, j := range g.adj[i] {
			nb := g.nodes[j]
			dx := nb.gx - n.gx
			dy := nb.gy - n.gy
			if dx == 0 && dy == 0 {
				continue // co-located, covered by the overlap penalty
			}
			ports[portIndex(dx, dy)]++
		}
		for _, count := range ports {
			if count > 1 {
				p += congestionPenalty * float64(count-1)
			}
		}
	}
	return p
}

// portIndex maps a displacement to the directional port it loads:
// 0 top, 1 right, 2 bottom, 3 left. Ties go to the horizontal axis.
func portIndex(dx, dy int) int {
	if abs(dx) >= abs(dy) {
		if dx > 0 {
			return 1
		}
		return 3
	}
	if dy > 0 {
		return 2
	}
	return 0
}

// distance is the weighted sum of Manhattan cell distances over edges.
func (g *grid) distance() float64 {
	var d float64
	for _, e := range g.edges {
		a, b := g.nodes[e[0]], g.nodes[e[1]]
		d += float64(abs(a.gx-b.gx) + abs(a.gy-b.gy))
	}
	return d * distanceWeight
}

func minMax(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}
