package board

import (
	"context"
	"fmt"
	"sync"
)

// MemoryProvider is a Provider backed by an in-memory Document. It powers
// the CLI file workflow (load a board from JSON, optimize, save it back) and
// serves as the test double for the orchestrator.
//
// Commit failures can be injected per item id via FailCommit, which lets
// tests exercise the best-effort persistence path without a real backend.
type MemoryProvider struct {
	mu    sync.RWMutex
	items map[string]Item
	sel   []string

	// FailCommit lists item ids whose CommitPosition/CommitConnector calls
	// fail. Nil means every commit succeeds.
	FailCommit map[string]bool
}

// NewMemoryProvider builds a provider over the document's items. The
// document's Selection field becomes the provider's selection. The document
// itself is not retained; call Document to read the mutated state back.
func NewMemoryProvider(d *Document) *MemoryProvider {
	items := make(map[string]Item, len(d.Items))
	for _, it := range d.Items {
		items[it.ID] = it
	}
	return &MemoryProvider{
		items: items,
		sel:   append([]string(nil), d.Selection...),
	}
}

// GetItem fetches an item by id.
func (p *MemoryProvider) GetItem(ctx context.Context, id string) (Item, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	it, ok := p.items[id]
	return it, ok, nil
}

// IncidentConnectors returns all connectors touching the given node.
func (p *MemoryProvider) IncidentConnectors(ctx context.Context, nodeID string) ([]Item, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var conns []Item
	for _, it := range p.items {
		if it.IsConnector() && it.Touches(nodeID) {
			conns = append(conns, it)
		}
	}
	return conns, nil
}

// Selection returns the currently selected items. Selected ids that no
// longer resolve are skipped.
func (p *MemoryProvider) Selection(ctx context.Context) ([]Item, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var sel []Item
	for _, id := range p.sel {
		if it, ok := p.items[id]; ok {
			sel = append(sel, it)
		}
	}
	return sel, nil
}

// SetSelection replaces the provider's selection.
func (p *MemoryProvider) SetSelection(ids []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sel = append([]string(nil), ids...)
}

// CommitPosition persists a new center position for a node.
func (p *MemoryProvider) CommitPosition(ctx context.Context, nodeID string, x, y float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailCommit[nodeID] {
		return fmt.Errorf("commit position %s: injected failure", nodeID)
	}
	it, ok := p.items[nodeID]
	if !ok {
		return fmt.Errorf("commit position %s: unknown item", nodeID)
	}
	it.X, it.Y = x, y
	p.items[nodeID] = it
	return nil
}

// CommitConnector persists new snap sides and a routing shape.
func (p *MemoryProvider) CommitConnector(ctx context.Context, connectorID string, startSnap, endSnap SnapSide, shape Shape) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailCommit[connectorID] {
		return fmt.Errorf("commit connector %s: injected failure", connectorID)
	}
	it, ok := p.items[connectorID]
	if !ok || !it.IsConnector() {
		return fmt.Errorf("commit connector %s: unknown connector", connectorID)
	}
	if it.Start != nil {
		start := *it.Start
		start.SnapTo = startSnap
		it.Start = &start
	}
	if it.End != nil {
		end := *it.End
		end.SnapTo = endSnap
		it.End = &end
	}
	it.Shape = shape
	p.items[connectorID] = it
	return nil
}

// Document returns a snapshot of the provider's current state as a board
// document. Item order is unspecified; serialization sorts by id.
func (p *MemoryProvider) Document() *Document {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d := &Document{Selection: append([]string(nil), p.sel...)}
	for _, it := range p.items {
		d.Items = append(d.Items, it)
	}
	return d
}

// Ensure MemoryProvider implements Provider.
var _ Provider = (*MemoryProvider)(nil)
