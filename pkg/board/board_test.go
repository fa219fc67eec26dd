package board

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSnapSide(t *testing.T) {
	tests := []struct {
		side         SnapSide
		valid        bool
		wantOpposite SnapSide
	}{
		{SnapTop, true, SnapBottom},
		{SnapBottom, true, SnapTop},
		{SnapLeft, true, SnapRight},
		{SnapRight, true, SnapLeft},
		{SnapAuto, false, SnapAuto},
		{SnapSide("diagonal"), false, SnapSide("diagonal")},
	}

	for _, tt := range tests {
		t.Run(string(tt.side), func(t *testing.T) {
			if got := tt.side.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.side.Opposite(); got != tt.wantOpposite {
				t.Errorf("Opposite() = %v, want %v", got, tt.wantOpposite)
			}
		})
	}
}

func TestItemHelpers(t *testing.T) {
	node := Item{ID: "n1", Type: TypeNode, X: 10, Y: 20}
	conn := Item{
		ID:    "c1",
		Type:  TypeConnector,
		Start: &Endpoint{Item: "n1"},
		End:   &Endpoint{Item: "n2"},
	}

	if !node.IsNode() || node.IsConnector() {
		t.Errorf("node type predicates wrong: IsNode=%v IsConnector=%v", node.IsNode(), node.IsConnector())
	}
	if !conn.IsConnector() || conn.IsNode() {
		t.Errorf("connector type predicates wrong: IsNode=%v IsConnector=%v", conn.IsNode(), conn.IsConnector())
	}

	start, end := conn.Endpoints()
	if start != "n1" || end != "n2" {
		t.Errorf("Endpoints() = (%q, %q), want (n1, n2)", start, end)
	}
	if !conn.Touches("n1") || !conn.Touches("n2") || conn.Touches("n3") {
		t.Error("Touches() wrong for connector endpoints")
	}

	dangling := Item{ID: "c2", Type: TypeConnector, Start: &Endpoint{Item: "n1"}}
	start, end = dangling.Endpoints()
	if start != "n1" || end != "" {
		t.Errorf("Endpoints() with missing end = (%q, %q), want (n1, \"\")", start, end)
	}
}

func TestEffectiveSize(t *testing.T) {
	tests := []struct {
		name       string
		item       Item
		wantW      float64
		wantH      float64
	}{
		{"Explicit", Item{Width: 200, Height: 50}, 200, 50},
		{"Zero", Item{}, DefaultSize, DefaultSize},
		{"Negative", Item{Width: -10, Height: -5}, DefaultSize, DefaultSize},
		{"Mixed", Item{Width: 80}, 80, DefaultSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.EffectiveWidth(); got != tt.wantW {
				t.Errorf("EffectiveWidth() = %v, want %v", got, tt.wantW)
			}
			if got := tt.item.EffectiveHeight(); got != tt.wantH {
				t.Errorf("EffectiveHeight() = %v, want %v", got, tt.wantH)
			}
		})
	}
}

func TestDocumentAccessors(t *testing.T) {
	doc := &Document{
		ID: "b1",
		Items: []Item{
			{ID: "n1", Type: TypeNode},
			{ID: "c1", Type: TypeConnector, Start: &Endpoint{Item: "n1"}, End: &Endpoint{Item: "n2"}},
			{ID: "n2", Type: TypeNode},
		},
	}

	if got := len(doc.Nodes()); got != 2 {
		t.Errorf("Nodes() returned %d items, want 2", got)
	}
	if got := len(doc.Connectors()); got != 1 {
		t.Errorf("Connectors() returned %d items, want 1", got)
	}

	if it, ok := doc.Item("c1"); !ok || it.ID != "c1" {
		t.Errorf("Item(c1) = (%v, %v), want the connector", it, ok)
	}
	if _, ok := doc.Item("missing"); ok {
		t.Error("Item(missing) reported found")
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	doc := &Document{
		ID:   "b1",
		Name: "test board",
		Items: []Item{
			{ID: "n2", Type: TypeNode, X: 300, Y: 100, Width: 120, Height: 60},
			{ID: "n1", Type: TypeNode, X: 100, Y: 100},
			{
				ID:    "c1",
				Type:  TypeConnector,
				Start: &Endpoint{Item: "n1", SnapTo: SnapRight},
				End:   &Endpoint{Item: "n2", SnapTo: SnapLeft},
				Shape: ShapeElbowed,
			},
		},
		Selection: []string{"n1"},
	}

	path := filepath.Join(t.TempDir(), "board.json")
	if err := WriteDocumentFile(doc, path); err != nil {
		t.Fatalf("WriteDocumentFile() error: %v", err)
	}

	got, err := ReadDocumentFile(path)
	if err != nil {
		t.Fatalf("ReadDocumentFile() error: %v", err)
	}

	if got.ID != doc.ID || got.Name != doc.Name {
		t.Errorf("metadata = (%q, %q), want (%q, %q)", got.ID, got.Name, doc.ID, doc.Name)
	}
	if len(got.Items) != len(doc.Items) {
		t.Fatalf("got %d items, want %d", len(got.Items), len(doc.Items))
	}

	// Serialization sorts by id.
	wantOrder := []string{"c1", "n1", "n2"}
	for i, id := range wantOrder {
		if got.Items[i].ID != id {
			t.Errorf("item[%d].ID = %q, want %q", i, got.Items[i].ID, id)
		}
	}

	conn, ok := got.Item("c1")
	if !ok {
		t.Fatal("connector missing after round trip")
	}
	if conn.Start.SnapTo != SnapRight || conn.End.SnapTo != SnapLeft || conn.Shape != ShapeElbowed {
		t.Errorf("connector attributes lost: %+v", conn)
	}
}

func TestReadDocumentFileErrors(t *testing.T) {
	if _, err := ReadDocumentFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadDocumentFile(path); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
