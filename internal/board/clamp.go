package board

// Canvas is the configured canvas rectangle that an AI patch's elements
// must be clamped into (spec §4.1 clampBoardToCanvasBoundsInPlace).
type Canvas struct {
	MinX, MinY, MaxX, MaxY float64
}

// DefaultCanvas mirrors the teacher's generous default-bounds convention
// (wide margins, not a tight viewport) since spec.md leaves the exact
// canvas rectangle unspecified beyond "a configured canvas rectangle".
var DefaultCanvas = Canvas{MinX: -4000, MinY: -2000, MaxX: 12000, MaxY: 20000}

// ClampToCanvasBoundsInPlace clamps every element that lies fully outside
// canvas back to the boundary, counting adjustments made. "Fully outside"
// means the element's bounding box does not intersect canvas at all.
func (s *State) ClampToCanvasBoundsInPlace(canvas Canvas) int {
	adjusted := 0
	for _, id := range s.Order {
		el := s.Elements[id]
		x, y, w, h := el.BBox()
		if w == 0 && h == 0 && el.Kind == KindText {
			if clampPoint(&el.X, &el.Y, canvas) {
				adjusted++
			}
			continue
		}
		if !fullyOutside(x, y, w, h, canvas) {
			continue
		}
		dx, dy := clampDelta(x, y, w, h, canvas)
		if dx == 0 && dy == 0 {
			continue
		}
		if el.Kind.IsLineLike() {
			for i := range el.Points {
				el.Points[i].X += dx
				el.Points[i].Y += dy
			}
		} else {
			el.X += dx
			el.Y += dy
		}
		adjusted++
	}
	return adjusted
}

func fullyOutside(x, y, w, h float64, c Canvas) bool {
	return x+w < c.MinX || x > c.MaxX || y+h < c.MinY || y > c.MaxY
}

func clampDelta(x, y, w, h float64, c Canvas) (dx, dy float64) {
	switch {
	case x+w < c.MinX:
		dx = c.MinX - (x + w)
	case x > c.MaxX:
		dx = c.MaxX - x
	}
	switch {
	case y+h < c.MinY:
		dy = c.MinY - (y + h)
	case y > c.MaxY:
		dy = c.MaxY - y
	}
	return dx, dy
}

func clampPoint(x, y *float64, c Canvas) bool {
	changed := false
	if *x < c.MinX {
		*x = c.MinX
		changed = true
	} else if *x > c.MaxX {
		*x = c.MaxX
		changed = true
	}
	if *y < c.MinY {
		*y = c.MinY
		changed = true
	} else if *y > c.MaxY {
		*y = c.MaxY
		changed = true
	}
	return changed
}

// LowerBoundaryDropCandidate reports whether el's shifted geometry lies
// entirely below boundaryY — the layer-stacking drop condition (spec
// §4.2/§4.5).
func LowerBoundaryDropCandidate(el *Element, boundaryY float64) bool {
	_, y, _, h := el.BBox()
	return y >= boundaryY || (h == 0 && y >= boundaryY)
}
