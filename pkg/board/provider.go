package board

import "context"

// Provider is the graph-access capability the optimizer requires from its
// host. Implementations wrap whatever actually stores the board: an
// in-memory document (MemoryProvider), a MongoDB collection (mongostore), or
// a remote board SDK.
//
// Lookup methods report absence through the boolean result rather than an
// error; the optimizer treats both absence and lookup errors as "this item
// does not exist" and degrades gracefully. Commit methods are best-effort:
// a failed commit for one item must not affect others.
type Provider interface {
	// GetItem fetches a node or connector snapshot by id.
	GetItem(ctx context.Context, id string) (Item, bool, error)

	// IncidentConnectors returns all connectors touching the given node.
	IncidentConnectors(ctx context.Context, nodeID string) ([]Item, error)

	// Selection returns the items currently selected by the user.
	Selection(ctx context.Context) ([]Item, error)

	// CommitPosition persists a new center position for a node.
	CommitPosition(ctx context.Context, nodeID string, x, y float64) error

	// CommitConnector persists new endpoint snap sides and a routing shape
	// for a connector.
	CommitConnector(ctx context.Context, connectorID string, startSnap, endSnap SnapSide, shape Shape) error
}
