// Package board defines the board/document model the optimizer operates on
// and the Provider capability it requires from a host.
//
// A board is a flat collection of items. An item is either a drawable node
// (a rectangle with a position and size) or a connector linking two nodes.
// Connectors attach to a node on one of four snap sides and carry a routing
// shape. The optimizer reads a snapshot of the board through the Provider
// interface and writes back node positions and connector attachments through
// best-effort commit calls.
//
// The package also provides the canonical JSON serialization for board
// documents (used by the CLI file workflow and the HTTP API) and an
// in-memory Provider implementation backed by a Document.
package board
