package snap

import (
	"fmt"
	"math"
	"testing"

	"github.com/matzehuels/detangle/pkg/board"
)

func connector(id, start, end string) board.Item {
	return board.Item{
		ID:    id,
		Type:  board.TypeConnector,
		Start: &board.Endpoint{Item: start},
		End:   &board.Endpoint{Item: end},
	}
}

func TestDominantSide(t *testing.T) {
	tests := []struct {
		name   string
		dx, dy float64
		want   board.SnapSide
	}{
		{"Right", 100, 0, board.SnapRight},
		{"Left", -100, 0, board.SnapLeft},
		{"Below", 0, 100, board.SnapBottom},
		{"Above", 0, -100, board.SnapTop},
		{"MostlyRight", 100, 40, board.SnapRight},
		{"MostlyDown", 40, 100, board.SnapBottom},
		{"DiagonalTieGoesHorizontal", 100, 100, board.SnapRight},
		{"NegativeDiagonalTie", -100, -100, board.SnapLeft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dominantSide(tt.dx, tt.dy); got != tt.want {
				t.Errorf("dominantSide(%v, %v) = %v, want %v", tt.dx, tt.dy, got, tt.want)
			}
		})
	}
}

func TestAssignBasic(t *testing.T) {
	a := NewAssigner(map[string]Position{
		"left":  {X: 0, Y: 0},
		"right": {X: 300, Y: 0},
	})

	got, ok := a.Assign(connector("c1", "left", "right"))
	if !ok {
		t.Fatal("Assign() reported unresolved endpoints")
	}
	if got.StartSnap != board.SnapRight {
		t.Errorf("StartSnap = %v, want %v", got.StartSnap, board.SnapRight)
	}
	if got.EndSnap != board.SnapLeft {
		t.Errorf("EndSnap = %v, want %v", got.EndSnap, board.SnapLeft)
	}
	if got.Shape != board.ShapeElbowed {
		t.Errorf("Shape = %v, want %v", got.Shape, board.ShapeElbowed)
	}
	if !got.Changed {
		t.Error("Changed = false for a connector with no prior sides")
	}
}

func TestAssignUnresolvedEndpoint(t *testing.T) {
	a := NewAssigner(map[string]Position{"known": {X: 0, Y: 0}})

	if _, ok := a.Assign(connector("c1", "known", "ghost")); ok {
		t.Error("Assign() resolved a connector with an unknown endpoint")
	}
	if _, ok := a.Assign(connector("c2", "ghost", "known")); ok {
		t.Error("Assign() resolved a connector with an unknown start")
	}

	// Skipped connectors leave no load records behind.
	if got := a.Records("known"); len(got) != 0 {
		t.Errorf("skipped connectors recorded load: %v", got)
	}
}

func TestAssignUnchangedConnector(t *testing.T) {
	a := NewAssigner(map[string]Position{
		"left":  {X: 0, Y: 0},
		"right": {X: 300, Y: 0},
	})

	conn := board.Item{
		ID:    "c1",
		Type:  board.TypeConnector,
		Start: &board.Endpoint{Item: "left", SnapTo: board.SnapRight},
		End:   &board.Endpoint{Item: "right", SnapTo: board.SnapLeft},
		Shape: board.ShapeElbowed,
	}

	got, ok := a.Assign(conn)
	if !ok {
		t.Fatal("Assign() reported unresolved endpoints")
	}
	if got.Changed {
		t.Error("Changed = true for a connector already in its target state")
	}
}

func TestAssignShapeChangeCounts(t *testing.T) {
	a := NewAssigner(map[string]Position{
		"left":  {X: 0, Y: 0},
		"right": {X: 300, Y: 0},
	})

	conn := board.Item{
		ID:    "c1",
		Type:  board.TypeConnector,
		Start: &board.Endpoint{Item: "left", SnapTo: board.SnapRight},
		End:   &board.Endpoint{Item: "right", SnapTo: board.SnapLeft},
		Shape: board.ShapeStraight,
	}

	got, _ := a.Assign(conn)
	if !got.Changed {
		t.Error("Changed = false despite a shape change")
	}
}

// Five connectors fanning out from one hub to targets on its right: the
// dominant side saturates after one assignment, and later connectors spill
// onto the orthogonal sides instead of piling up.
func TestAssignRedistributesCongestedSide(t *testing.T) {
	positions := map[string]Position{"hub": {X: 0, Y: 0}}
	for i := 0; i < 5; i++ {
		positions[target(i)] = Position{X: 400, Y: float64(i-2) * 10}
	}

	a := NewAssigner(positions)
	for i := 0; i < 5; i++ {
		if _, ok := a.Assign(connector("c"+target(i), "hub", target(i))); !ok {
			t.Fatalf("connector %d did not resolve", i)
		}
	}

	counts := map[board.SnapSide]int{}
	for _, rec := range a.Records("hub") {
		counts[rec.Side]++
	}

	want := map[board.SnapSide]int{
		board.SnapRight:  2,
		board.SnapTop:    2,
		board.SnapBottom: 1,
	}
	for side, n := range want {
		if counts[side] != n {
			t.Errorf("side %v carries %d connections, want %d (all: %v)", side, counts[side], n, counts)
		}
	}
}

func TestRecordsCaptureAngle(t *testing.T) {
	a := NewAssigner(map[string]Position{
		"origin": {X: 0, Y: 0},
		"below":  {X: 0, Y: 100},
	})

	if _, ok := a.Assign(connector("c1", "origin", "below")); !ok {
		t.Fatal("connector did not resolve")
	}

	recs := a.Records("origin")
	if len(recs) != 1 {
		t.Fatalf("Records(origin) = %v, want one entry", recs)
	}
	if math.Abs(recs[0].Angle-math.Pi/2) > 1e-9 {
		t.Errorf("Angle = %v, want %v", recs[0].Angle, math.Pi/2)
	}
}

func target(i int) string {
	return fmt.Sprintf("t%d", i)
}
