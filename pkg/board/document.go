package board

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
)

// =============================================================================
// Document - Board Serialization
// =============================================================================

// Document is the canonical serialization format for a board. It is used by
// the CLI file workflow, the HTTP API, and the MongoDB store (via the bson
// tags on Item).
//
// The format is designed for round-trip fidelity: load → optimize → save
// preserves every field the optimizer does not touch.
type Document struct {
	ID        string   `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string   `json:"name,omitempty" bson:"name,omitempty"`
	Items     []Item   `json:"items" bson:"items"`
	Selection []string `json:"selection,omitempty" bson:"selection,omitempty"`
}

// Item returns the item with the given id and true, or a zero Item and false.
func (d *Document) Item(id string) (Item, bool) {
	for _, it := range d.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Nodes returns all drawable nodes in the document.
func (d *Document) Nodes() []Item {
	var nodes []Item
	for _, it := range d.Items {
		if it.IsNode() {
			nodes = append(nodes, it)
		}
	}
	return nodes
}

// Connectors returns all connectors in the document.
func (d *Document) Connectors() []Item {
	var conns []Item
	for _, it := range d.Items {
		if it.IsConnector() {
			conns = append(conns, it)
		}
	}
	return conns
}

// =============================================================================
// Serialization API
// =============================================================================

// MarshalDocument converts a board document to JSON bytes.
// Items are sorted by ID for deterministic output.
func MarshalDocument(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeDocumentTo(d, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDocumentFile writes a board document to a JSON file.
// The file is created with 0644 permissions.
func WriteDocumentFile(d *Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeDocumentTo(d, f)
}

// WriteDocument writes a board document as JSON to an io.Writer.
func WriteDocument(d *Document, w io.Writer) error {
	return writeDocumentTo(d, w)
}

// ReadDocumentFile reads a JSON file and returns the decoded board document.
func ReadDocumentFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readDocumentFrom(f)
}

// ReadDocument decodes a JSON board document from an io.Reader.
func ReadDocument(r io.Reader) (*Document, error) {
	return readDocumentFrom(r)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeDocumentTo(d *Document, w io.Writer) error {
	out := *d
	out.Items = slices.Clone(d.Items)
	slices.SortFunc(out.Items, func(a, b Item) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readDocumentFrom(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &d, nil
}
