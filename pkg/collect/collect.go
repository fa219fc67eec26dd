// Package collect discovers the connected component(s) of a board's
// connector graph reachable from a seed selection.
//
// The traversal is a depth-first search over connector adjacency using an
// explicit stack, so arbitrarily deep diagrams cannot exhaust the call
// stack. Diagrams routinely contain cycles; the visited set makes re-entry
// a no-op, which also makes the traversal idempotent: collecting twice from
// the same seeds over an unchanged board yields the same set.
package collect

import (
	"context"

	"github.com/matzehuels/detangle/pkg/board"
)

// Component returns the union of connected components containing the seed
// ids, as a set of item ids reachable via connector adjacency.
//
// Lookup misses are not errors: an id that cannot be fetched is marked
// visited so it is never retried, and contributes no further edges. The
// traversal is read-only.
func Component(ctx context.Context, p board.Provider, seeds []string) map[string]bool {
	visited := make(map[string]bool, len(seeds))
	stack := make([]string, 0, len(seeds))

	for _, id := range seeds {
		if id != "" {
			stack = append(stack, id)
		}
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true

		if _, ok, err := p.GetItem(ctx, id); err != nil || !ok {
			// Unfetchable: treat as an isolated leaf.
			continue
		}

		conns, err := p.IncidentConnectors(ctx, id)
		if err != nil {
			continue
		}
		for _, c := range conns {
			start, end := c.Endpoints()
			if start != "" && !visited[start] {
				stack = append(stack, start)
			}
			if end != "" && !visited[end] {
				stack = append(stack, end)
			}
		}
	}

	return visited
}
