package optimize

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/detangle/pkg/board"
	"github.com/matzehuels/detangle/pkg/cache"
	"github.com/matzehuels/detangle/pkg/collect"
	"github.com/matzehuels/detangle/pkg/errors"
	"github.com/matzehuels/detangle/pkg/layout"
	"github.com/matzehuels/detangle/pkg/observability"
	"github.com/matzehuels/detangle/pkg/snap"
)

// fetchWorkers bounds the fan-out of concurrent item fetches within a stage.
const fetchWorkers = 8

// Runner executes optimization runs against a board Provider, with optional
// caching of layout results.
//
// The Runner is stateless except for the provider, cache and logger - it
// doesn't store run results. Multiple goroutines can safely use the same
// Runner for different runs.
type Runner struct {
	Provider board.Provider
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
}

// NewRunner creates a runner over the given provider.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(p board.Provider, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Provider: p,
		Cache:    c,
		Keyer:    keyer,
		Logger:   logger,
	}
}

// Run executes the full optimization sequence for the selected item ids.
// It never returns an error or panics: every failure is converted into a
// Result with Success false and a descriptive message.
func (r *Runner) Run(ctx context.Context, selection []string, opts Options) (result Result) {
	runID := uuid.NewString()

	defer func() {
		if rec := recover(); rec != nil {
			r.Logger.Error("optimization run panicked", "run", runID, "panic", rec)
			result = failed(runID, errors.New(errors.ErrCodeInternal, "internal failure: %v", rec))
		}
	}()

	res, err := r.run(ctx, runID, selection, opts)
	if err != nil {
		r.Logger.Error("optimization run failed", "run", runID, "err", err)
		return failed(runID, err)
	}
	return res
}

// RunSelection runs the optimizer over the provider's current selection.
func (r *Runner) RunSelection(ctx context.Context, opts Options) Result {
	sel, err := r.Provider.Selection(ctx)
	if err != nil {
		return failed(uuid.NewString(), errors.Wrap(errors.ErrCodeInvalidSelection, err, "read selection"))
	}
	ids := make([]string, 0, len(sel))
	for _, it := range sel {
		ids = append(ids, it.ID)
	}
	return r.Run(ctx, ids, opts)
}

func (r *Runner) run(ctx context.Context, runID string, selection []string, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	if len(selection) == 0 {
		return Result{}, errors.New(errors.ErrCodeInvalidSelection, "nothing selected to optimize")
	}
	logger := opts.Logger
	if logger == nil {
		logger = r.Logger
	}
	hooks := observability.Optimizer()

	res := Result{RunID: runID, Success: true}

	// Stage 1: collect the connected component around the selection.
	collectStart := time.Now()
	hooks.OnCollectStart(ctx, len(selection))
	component := collect.Component(ctx, r.Provider, selection)
	res.Stats.CollectTime = time.Since(collectStart)
	hooks.OnCollectComplete(ctx, len(component), res.Stats.CollectTime)

	// Stage 2: resolve the component to drawable nodes. Misses and
	// connector items are dropped here; only nodes participate in layout.
	nodes := r.fetchNodes(ctx, component)
	if len(nodes) == 0 {
		return Result{}, errors.New(errors.ErrCodeItemNotFound, "selection resolved to no drawable nodes")
	}
	res.ObjectsProcessed = len(nodes)
	res.Stats.NodeCount = len(nodes)

	logger.Info("collected component",
		"run", runID,
		"seeds", len(selection),
		"nodes", len(nodes),
		"duration", res.Stats.CollectTime)

	// Stage 3: gather incident connectors, deduplicated by id, keeping only
	// those whose both endpoints resolved to retained nodes.
	connectors := r.fetchConnectors(ctx, nodes)
	res.Stats.ConnectorCount = len(connectors)

	var writesAttempted, writesFailed int

	// Stage 4: grid layout and best-effort position commits.
	if opts.AllowMovement {
		layoutStart := time.Now()
		lnodes, ledges := buildLayoutInput(nodes, connectors)
		res.Stats.EdgeCount = len(ledges)

		hooks.OnLayoutStart(ctx, len(lnodes), len(ledges))
		positions, hit := r.layoutWithCache(ctx, lnodes, ledges, opts)
		res.Stats.LayoutTime = time.Since(layoutStart)
		res.CacheInfo.LayoutHit = hit
		hooks.OnLayoutComplete(ctx, res.Stats.LayoutTime, hit)

		logger.Info("computed layout",
			"run", runID,
			"nodes", len(lnodes),
			"edges", len(ledges),
			"cache_hit", hit,
			"duration", res.Stats.LayoutTime)

		for _, id := range sortedKeys(positions) {
			pt := positions[id]
			writesAttempted++
			if err := r.Provider.CommitPosition(ctx, id, pt.X, pt.Y); err != nil {
				writesFailed++
				logger.Warn("position commit failed, skipping", "run", runID, "item", id, "err", err)
				hooks.OnCommit(ctx, id, true)
				continue
			}
			hooks.OnCommit(ctx, id, false)
		}
	}

	// Stage 5: snap assignment over the (possibly moved) nodes and
	// best-effort connector commits.
	snapStart := time.Now()
	positions := r.rereadPositions(ctx, nodes)
	assigner := snap.NewAssigner(positions)

	optimized := 0
	for _, c := range connectors {
		asn, ok := assigner.Assign(c)
		if !ok || !asn.Changed {
			continue
		}
		writesAttempted++
		if err := r.Provider.CommitConnector(ctx, asn.ConnectorID, asn.StartSnap, asn.EndSnap, asn.Shape); err != nil {
			writesFailed++
			logger.Warn("connector commit failed, skipping", "run", runID, "connector", asn.ConnectorID, "err", err)
			hooks.OnCommit(ctx, asn.ConnectorID, true)
			continue
		}
		hooks.OnCommit(ctx, asn.ConnectorID, false)
		optimized++
	}
	res.ConnectorsOptimized = optimized
	res.Stats.SnapTime = time.Since(snapStart)
	hooks.OnSnapComplete(ctx, len(connectors), optimized)

	// Individual write failures are logged and skipped; only a run where
	// every single write failed counts as a batch failure.
	if writesAttempted > 0 && writesFailed == writesAttempted {
		return Result{}, errors.New(errors.ErrCodePersistFailed,
			"every persistence write failed (%d attempted)", writesAttempted)
	}

	res.Message = fmt.Sprintf("optimized %d nodes and %d connectors", res.ObjectsProcessed, optimized)
	logger.Info("optimization complete",
		"run", runID,
		"nodes", res.ObjectsProcessed,
		"connectors", optimized)
	return res, nil
}

// =============================================================================
// Fetch Stages
// =============================================================================

// fetchNodes resolves component ids to items concurrently and keeps the
// drawable nodes. Lookup misses and connector items are dropped.
func (r *Runner) fetchNodes(ctx context.Context, component map[string]bool) map[string]board.Item {
	ids := make([]string, 0, len(component))
	for id := range component {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var mu sync.Mutex
	nodes := make(map[string]board.Item)

	fanOut(ids, func(id string) {
		it, ok, err := r.Provider.GetItem(ctx, id)
		if err != nil || !ok || !it.IsNode() {
			return
		}
		mu.Lock()
		nodes[id] = it
		mu.Unlock()
	})

	return nodes
}

// fetchConnectors gathers connectors incident to the retained nodes,
// deduplicated by connector id and restricted to connectors whose both
// endpoints are retained. The result is sorted by id so commit order and
// snap bookkeeping are stable.
func (r *Runner) fetchConnectors(ctx context.Context, nodes map[string]board.Item) []board.Item {
	ids := sortedKeys(nodes)

	var mu sync.Mutex
	seen := make(map[string]board.Item)

	fanOut(ids, func(id string) {
		conns, err := r.Provider.IncidentConnectors(ctx, id)
		if err != nil {
			return
		}
		mu.Lock()
		for _, c := range conns {
			start, end := c.Endpoints()
			if _, okS := nodes[start]; !okS {
				continue
			}
			if _, okE := nodes[end]; !okE {
				continue
			}
			seen[c.ID] = c
		}
		mu.Unlock()
	})

	out := make([]board.Item, 0, len(seen))
	for _, id := range sortedKeys(seen) {
		out = append(out, seen[id])
	}
	return out
}

// rereadPositions fetches the current position of every retained node,
// falling back to the pre-commit snapshot when a re-read misses. Commits are
// best-effort, so the board may hold a mix of old and new positions; snap
// assignment must see whatever actually stuck.
func (r *Runner) rereadPositions(ctx context.Context, nodes map[string]board.Item) map[string]snap.Position {
	positions := make(map[string]snap.Position, len(nodes))
	for id, stale := range nodes {
		x, y := stale.X, stale.Y
		if it, ok, err := r.Provider.GetItem(ctx, id); err == nil && ok {
			x, y = it.X, it.Y
		}
		positions[id] = snap.Position{X: x, Y: y}
	}
	return positions
}

// fanOut runs fn over ids with a bounded worker pool and waits for all of
// them. Ordering of fn calls is unspecified.
func fanOut(ids []string, fn func(id string)) {
	workers := fetchWorkers
	if len(ids) < workers {
		workers = len(ids)
	}
	if workers == 0 {
		return
	}

	work := make(chan string)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for id := range work {
				fn(id)
			}
		}()
	}
	for _, id := range ids {
		work <- id
	}
	close(work)
	wg.Wait()
}

// =============================================================================
// Layout Stage
// =============================================================================

// buildLayoutInput converts the retained nodes and connectors into the
// layout package's view. Nodes are sorted by id and edges by endpoint pair
// so the snapshot hash is stable.
func buildLayoutInput(nodes map[string]board.Item, connectors []board.Item) ([]layout.Node, []layout.Edge) {
	lnodes := make([]layout.Node, 0, len(nodes))
	for _, id := range sortedKeys(nodes) {
		it := nodes[id]
		lnodes = append(lnodes, layout.Node{
			ID:     it.ID,
			X:      it.X,
			Y:      it.Y,
			Width:  it.EffectiveWidth(),
			Height: it.EffectiveHeight(),
		})
	}

	ledges := make([]layout.Edge, 0, len(connectors))
	for _, c := range connectors {
		start, end := c.Endpoints()
		ledges = append(ledges, layout.Edge{SourceID: start, TargetID: end})
	}
	slices.SortFunc(ledges, func(a, b layout.Edge) int {
		if a.SourceID != b.SourceID {
			if a.SourceID < b.SourceID {
				return -1
			}
			return 1
		}
		if a.TargetID < b.TargetID {
			return -1
		}
		if a.TargetID > b.TargetID {
			return 1
		}
		return 0
	})

	return lnodes, ledges
}

// layoutWithCache computes the layout, serving it from cache when an
// identical snapshot with identical options has been optimized before.
// Unseeded runs bypass the cache entirely: a zero seed means fresh entropy
// per run, and serving the first run's layout back would quietly pin it.
func (r *Runner) layoutWithCache(ctx context.Context, nodes []layout.Node, edges []layout.Edge, opts Options) (map[string]layout.Point, bool) {
	if opts.Seed == 0 {
		return layout.Optimize(nodes, edges, layout.Options{
			SpacingFactor: opts.SpacingFactor,
		}), false
	}

	key := r.Keyer.LayoutKey(snapshotHash(nodes, edges), cache.LayoutKeyOpts{
		SpacingFactor: opts.SpacingFactor,
		Seed:          opts.Seed,
	})

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var cached map[string]layout.Point
		if err := json.Unmarshal(data, &cached); err == nil && coversAll(cached, nodes) {
			observability.Cache().OnCacheHit(ctx, "layout")
			return cached, true
		}
		// Corrupt or incomplete entry - fall through to recompute.
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	positions := layout.Optimize(nodes, edges, layout.Options{
		SpacingFactor: opts.SpacingFactor,
		Seed:          opts.Seed,
	})

	if data, err := json.Marshal(positions); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return positions, false
}

// snapshotHash content-addresses the layout input.
func snapshotHash(nodes []layout.Node, edges []layout.Edge) string {
	data, _ := json.Marshal(struct {
		Nodes []layout.Node
		Edges []layout.Edge
	}{nodes, edges})
	return cache.Hash(data)
}

// coversAll reports whether the cached position map has an entry for every
// input node.
func coversAll(positions map[string]layout.Point, nodes []layout.Node) bool {
	if len(positions) != len(nodes) {
		return false
	}
	for _, n := range nodes {
		if _, ok := positions[n.ID]; !ok {
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
