package board

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Item types.
const (
	TypeNode      = "node"
	TypeConnector = "connector"
)

// DefaultSize is the fallback width/height for nodes whose dimensions are
// unknown (zero or negative).
const DefaultSize = 100.0

// SnapSide identifies the face of a node where a connector endpoint attaches.
type SnapSide string

// The four snap sides. SnapAuto is what hosts report for connectors that have
// never been assigned an explicit side.
const (
	SnapTop    SnapSide = "top"
	SnapRight  SnapSide = "right"
	SnapBottom SnapSide = "bottom"
	SnapLeft   SnapSide = "left"
	SnapAuto   SnapSide = "auto"
)

// Valid reports whether s is one of the four assignable sides.
func (s SnapSide) Valid() bool {
	switch s {
	case SnapTop, SnapRight, SnapBottom, SnapLeft:
		return true
	}
	return false
}

// Opposite returns the side facing s. SnapAuto maps to itself.
func (s SnapSide) Opposite() SnapSide {
	switch s {
	case SnapTop:
		return SnapBottom
	case SnapBottom:
		return SnapTop
	case SnapLeft:
		return SnapRight
	case SnapRight:
		return SnapLeft
	}
	return s
}

// Shape is a connector routing style.
type Shape string

// Connector routing styles. The optimizer forces ShapeElbowed on every
// connector it touches for visual consistency.
const (
	ShapeStraight Shape = "straight"
	ShapeCurved   Shape = "curved"
	ShapeElbowed  Shape = "elbowed"
)

// =============================================================================
// Item - Unified Board Item
// =============================================================================

// Item is a single board element, either a node or a connector. The same
// type covers both so that lookups by id have a single result shape, the way
// board SDKs expose widgets. Node fields (X, Y, Width, Height) are meaningful
// when Type is TypeNode; Start, End and Shape are meaningful when Type is
// TypeConnector.
type Item struct {
	ID   string `json:"id" bson:"id"`
	Type string `json:"type" bson:"type"`

	// Node geometry. X and Y are the node's center.
	X      float64 `json:"x,omitempty" bson:"x,omitempty"`
	Y      float64 `json:"y,omitempty" bson:"y,omitempty"`
	Width  float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height float64 `json:"height,omitempty" bson:"height,omitempty"`

	// Connector endpoints and routing.
	Start *Endpoint `json:"start,omitempty" bson:"start,omitempty"`
	End   *Endpoint `json:"end,omitempty" bson:"end,omitempty"`
	Shape Shape     `json:"shape,omitempty" bson:"shape,omitempty"`
}

// Endpoint is one end of a connector: the node it attaches to and the side
// it snaps to.
type Endpoint struct {
	Item   string   `json:"item" bson:"item"`
	SnapTo SnapSide `json:"snapTo,omitempty" bson:"snap_to,omitempty"`
}

// IsConnector reports whether the item is a connector.
func (i Item) IsConnector() bool { return i.Type == TypeConnector }

// IsNode reports whether the item is a drawable node.
func (i Item) IsNode() bool { return i.Type == TypeNode }

// EffectiveWidth returns the node width, falling back to DefaultSize when
// the width is unknown.
func (i Item) EffectiveWidth() float64 {
	if i.Width > 0 {
		return i.Width
	}
	return DefaultSize
}

// EffectiveHeight returns the node height, falling back to DefaultSize when
// the height is unknown.
func (i Item) EffectiveHeight() float64 {
	if i.Height > 0 {
		return i.Height
	}
	return DefaultSize
}

// Endpoints returns the ids of both endpoint nodes of a connector.
// Missing endpoints come back as empty strings.
func (i Item) Endpoints() (start, end string) {
	if i.Start != nil {
		start = i.Start.Item
	}
	if i.End != nil {
		end = i.End.Item
	}
	return start, end
}

// Touches reports whether the connector has nodeID as either endpoint.
func (i Item) Touches(nodeID string) bool {
	s, e := i.Endpoints()
	return s == nodeID || e == nodeID
}
