// Package board implements the append-only-ish element store (spec §3,
// §4.1): the BoardElement/BoardOp vocabulary, the single reducer over that
// vocabulary, and canvas-bounds clamping. Grounded in the teacher's
// domain-model packages (internal/domain, internal/types) for the "plain
// struct + explicit mutation method" shape, generalized to the tagged-op
// sum type spec §9 calls for.
package board

import "time"

type Kind string

const (
	KindText     Kind = "text"
	KindRect     Kind = "rect"
	KindEllipse  Kind = "ellipse"
	KindDiamond  Kind = "diamond"
	KindTriangle Kind = "triangle"
	KindSticky   Kind = "sticky"
	KindFrame    Kind = "frame"
	KindStroke   Kind = "stroke"
	KindLine     Kind = "line"
	KindArrow    Kind = "arrow"
)

func (k Kind) IsRectLike() bool {
	switch k {
	case KindRect, KindEllipse, KindDiamond, KindTriangle, KindSticky, KindFrame:
		return true
	}
	return false
}

func (k Kind) IsLineLike() bool {
	switch k {
	case KindStroke, KindLine, KindArrow:
		return true
	}
	return false
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Style is a shallow string->value bag. Values are either float64 (for
// width/roughness/fontSize and similar numeric knobs) or string (colors,
// fill styles, stroke styles, font family).
type Style map[string]any

func (s Style) Clone() Style {
	if s == nil {
		return nil
	}
	out := make(Style, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// numericStyleKeys lists the keys that must carry a finite numeric value;
// every other key is treated as string-valued (spec §4.1 setElementStyle).
var numericStyleKeys = map[string]bool{
	"width": true, "roughness": true, "fontSize": true, "strokeWidth": true, "opacity": true,
}

const AICreator = "ai"

// Element is a tagged BoardElement (spec §3): the Kind field selects which
// of the geometry/content fields are meaningful.
type Element struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
	Style     Style     `json:"style,omitempty"`

	// text / rect-like geometry
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`
	W float64 `json:"w,omitempty"`
	H float64 `json:"h,omitempty"`

	// text / sticky content, frame title
	Text  string `json:"text,omitempty"`
	Title string `json:"title,omitempty"`

	// line-like geometry
	Points []Point `json:"points,omitempty"`
}

func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	c := *e
	c.Style = e.Style.Clone()
	if e.Points != nil {
		c.Points = append([]Point(nil), e.Points...)
	}
	return &c
}

// Valid reports whether e carries the required fields for its Kind (spec
// §4.1: "reject elements with missing required fields for their kind").
func (e *Element) Valid() bool {
	if e == nil || e.ID == "" || e.Kind == "" {
		return false
	}
	switch {
	case e.Kind == KindText:
		return true
	case e.Kind.IsRectLike():
		return e.W > 0 && e.H > 0
	case e.Kind.IsLineLike():
		return true
	default:
		return false
	}
}

// BBox returns the element's axis-aligned bounding box. Text elements are
// treated as a zero-sized point at (x,y); line-like elements bound their
// points.
func (e *Element) BBox() (x, y, w, h float64) {
	switch {
	case e.Kind.IsRectLike():
		return e.X, e.Y, e.W, e.H
	case e.Kind.IsLineLike():
		if len(e.Points) == 0 {
			return 0, 0, 0, 0
		}
		minX, minY := e.Points[0].X, e.Points[0].Y
		maxX, maxY := minX, minY
		for _, p := range e.Points[1:] {
			if p.X < minX {
				minX = p.X
			}
			if p.X > maxX {
				maxX = p.X
			}
			if p.Y < minY {
				minY = p.Y
			}
			if p.Y > maxY {
				maxY = p.Y
			}
		}
		return minX, minY, maxX - minX, maxY - minY
	default: // text
		return e.X, e.Y, 0, 0
	}
}

// State is the BoardState (spec §3): the element index plus the paint
// order and a monotonic revision counter.
type State struct {
	Elements      map[string]*Element `json:"elements"`
	Order         []string            `json:"order"`
	Revision      uint64              `json:"revision"`
	LastUpdatedAt time.Time           `json:"lastUpdatedAt"`
	Viewport      *Viewport           `json:"viewport,omitempty"`
}

type Viewport struct {
	X    *float64 `json:"x,omitempty"`
	Y    *float64 `json:"y,omitempty"`
	Zoom *float64 `json:"zoom,omitempty"`
}

func NewState() *State {
	return &State{Elements: make(map[string]*Element), Order: nil}
}

// Clone deep-copies the board so callers (e.g. layer stacking, undo) can
// snapshot it before mutating in place.
func (s *State) Clone() *State {
	out := &State{
		Elements:      make(map[string]*Element, len(s.Elements)),
		Order:         append([]string(nil), s.Order...),
		Revision:      s.Revision,
		LastUpdatedAt: s.LastUpdatedAt,
	}
	for id, el := range s.Elements {
		out.Elements[id] = el.Clone()
	}
	if s.Viewport != nil {
		v := *s.Viewport
		out.Viewport = &v
	}
	return out
}

// Invariant reports whether the order/elements invariant from spec §8
// holds: keys(elements) == set(order), no duplicates in order.
func (s *State) Invariant() bool {
	if len(s.Order) != len(s.Elements) {
		return false
	}
	seen := make(map[string]bool, len(s.Order))
	for _, id := range s.Order {
		if seen[id] {
			return false
		}
		seen[id] = true
		if _, ok := s.Elements[id]; !ok {
			return false
		}
	}
	return true
}
