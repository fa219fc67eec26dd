// Package mongostore provides a MongoDB-backed board store and Provider.
//
// Boards are stored one document per board in a single collection, using the
// bson tags on board.Item. Reads are served from a snapshot loaded at
// Provider construction time; commits write through to the stored document
// with targeted array updates, so a failed commit for one item never
// invalidates the others.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/detangle/pkg/board"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "boards"

// connectTimeout bounds the initial server handshake.
const connectTimeout = 10 * time.Second

// ErrBoardNotFound is returned by Load and NewProvider when no board with
// the requested id exists.
var ErrBoardNotFound = errors.New("board not found")

// Store wraps a MongoDB collection of board documents.
type Store struct {
	client *mongo.Client
	boards *mongo.Collection
}

// Connect dials MongoDB and returns a store over db's boards collection.
func Connect(ctx context.Context, uri, db string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", uri, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping %s: %w", uri, err)
	}
	return &Store{
		client: client,
		boards: client.Database(db).Collection(DefaultCollection),
	}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Load fetches a board document by id.
func (s *Store) Load(ctx context.Context, boardID string) (*board.Document, error) {
	var doc board.Document
	err := s.boards.FindOne(ctx, bson.M{"_id": boardID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrBoardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load board %s: %w", boardID, err)
	}
	return &doc, nil
}

// Save upserts a board document by id.
func (s *Store) Save(ctx context.Context, doc *board.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("save board: empty id")
	}
	_, err := s.boards.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save board %s: %w", doc.ID, err)
	}
	return nil
}

// NewProvider loads the board and returns a Provider over it. Reads are
// served from the loaded snapshot; commits write through to MongoDB and to
// the snapshot on success.
func (s *Store) NewProvider(ctx context.Context, boardID string) (*Provider, error) {
	doc, err := s.Load(ctx, boardID)
	if err != nil {
		return nil, err
	}
	return &Provider{
		store:   s,
		boardID: boardID,
		mem:     board.NewMemoryProvider(doc),
	}, nil
}

// Provider implements board.Provider against a stored board.
type Provider struct {
	store   *Store
	boardID string
	mem     *board.MemoryProvider
}

// GetItem fetches an item from the loaded snapshot.
func (p *Provider) GetItem(ctx context.Context, id string) (board.Item, bool, error) {
	return p.mem.GetItem(ctx, id)
}

// IncidentConnectors returns connectors touching the node, from the snapshot.
func (p *Provider) IncidentConnectors(ctx context.Context, nodeID string) ([]board.Item, error) {
	return p.mem.IncidentConnectors(ctx, nodeID)
}

// Selection returns the board's stored selection.
func (p *Provider) Selection(ctx context.Context) ([]board.Item, error) {
	return p.mem.Selection(ctx)
}

// CommitPosition writes a node position to the stored document.
func (p *Provider) CommitPosition(ctx context.Context, nodeID string, x, y float64) error {
	res, err := p.store.boards.UpdateOne(ctx,
		bson.M{"_id": p.boardID},
		bson.M{"$set": bson.M{"items.$[it].x": x, "items.$[it].y": y}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"it.id": nodeID}},
		}),
	)
	if err != nil {
		return fmt.Errorf("commit position %s: %w", nodeID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("commit position %s: %w", nodeID, ErrBoardNotFound)
	}
	return p.mem.CommitPosition(ctx, nodeID, x, y)
}

// CommitConnector writes connector snap sides and shape to the stored document.
func (p *Provider) CommitConnector(ctx context.Context, connectorID string, startSnap, endSnap board.SnapSide, shape board.Shape) error {
	res, err := p.store.boards.UpdateOne(ctx,
		bson.M{"_id": p.boardID},
		bson.M{"$set": bson.M{
			"items.$[it].start.snap_to": startSnap,
			"items.$[it].end.snap_to":   endSnap,
			"items.$[it].shape":         shape,
		}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"it.id": connectorID}},
		}),
	)
	if err != nil {
		return fmt.Errorf("commit connector %s: %w", connectorID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("commit connector %s: %w", connectorID, ErrBoardNotFound)
	}
	return p.mem.CommitConnector(ctx, connectorID, startSnap, endSnap, shape)
}

// Ensure Provider implements board.Provider.
var _ board.Provider = (*Provider)(nil)
