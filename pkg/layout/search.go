package layout

import "math"

// =============================================================================
// Phase 1 - Simulated Annealing
// =============================================================================

// anneal runs the global randomized search: a fixed iteration budget with a
// multiplicative cooling schedule. Each iteration proposes either a swap of
// two random nodes or a single-cell nudge into an empty neighboring cell,
// accepts cost-neutral and improving moves outright, accepts worsening moves
// with probability exp(-delta/temperature), and reverts rejections exactly.
func (g *grid) anneal() {
	if len(g.nodes) < 2 {
		return
	}

	temp := initialTemperature
	for iter := 0; iter < annealIterations; iter++ {
		before := g.cost()

		var revert func()
		if g.rng.IntN(2) == 0 {
			revert = g.proposeSwap()
		} else {
			revert = g.proposeNudge()
		}
		if revert == nil {
			temp *= coolingFactor
			continue // move was not applicable this iteration
		}

		delta := g.cost() - before
		if delta > 0 && g.rng.Float64() >= math.Exp(-delta/temp) {
			revert()
		}
		temp *= coolingFactor
	}
}

// proposeSwap exchanges the cells of two distinct random nodes and returns
// the inverse operation.
func (g *grid) proposeSwap() func() {
	i := g.rng.IntN(len(g.nodes))
	j := g.rng.IntN(len(g.nodes) - 1)
	if j >= i {
		j++
	}
	g.swap(i, j)
	return func() { g.swap(i, j) }
}

// proposeNudge moves one random node a single cell in a random direction,
// but only into an empty cell. Returns nil when the drawn destination is
// occupied (the iteration is skipped, not retried).
func (g *grid) proposeNudge() func() {
	i := g.rng.IntN(len(g.nodes))
	n := g.nodes[i]

	// Random offset in {-1,0,1}^2 excluding the zero offset.
	k := g.rng.IntN(8)
	if k >= 4 {
		k++ // skip (0,0)
	}
	dx, dy := k%3-1, k/3-1

	from := cell{n.gx, n.gy}
	dest := cell{n.gx + dx, n.gy + dy}
	if g.occ[dest] != 0 {
		return nil
	}
	g.moveTo(i, dest)
	return func() { g.moveTo(i, from) }
}

// =============================================================================
// Phase 2 - Iterative Repair
// =============================================================================

// repair is the local descent pass: while any penalty remains and the budget
// is not exhausted, visit nodes in randomized order and greedily apply the
// axis-aligned single-cell move that most reduces the global penalty. A full
// pass with no improving move means a local minimum; the residual penalty is
// accepted as the layout's imperfection.
func (g *grid) repair() {
	var dirs = [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

	for iter := 0; iter < repairIterations; iter++ {
		current := g.penalty()
		if current == 0 {
			return
		}

		improved := false
		for _, i := range g.rng.Perm(len(g.nodes)) {
			n := g.nodes[i]
			from := cell{n.gx, n.gy}

			best := current
			var bestDest cell
			found := false
			for _, d := range dirs {
				dest := cell{n.gx + d[0], n.gy + d[1]}
				if g.occ[dest] != 0 {
					continue
				}
				g.moveTo(i, dest)
				if p := g.penalty(); p < best {
					best = p
					bestDest = dest
					found = true
				}
				g.moveTo(i, from)
			}
			if found {
				g.moveTo(i, bestDest)
				current = best
				improved = true
			}
		}

		if !improved {
			return
		}
	}
}
