package board

import (
	"math"
	"sort"
	"time"
)

// ApplyOps runs ops through the reducer as a single logical mutation: the
// revision is bumped (and lastUpdatedAt set) exactly once, and only if at
// least one op actually changed something (spec §4.1: "After any non-empty
// mutation: revision += 1").
func (s *State) ApplyOps(ops []Op, now time.Time) bool {
	changed := false
	for _, op := range ops {
		if s.applyOne(op, now) {
			changed = true
		}
	}
	if changed {
		s.Revision++
		s.LastUpdatedAt = now
	}
	return changed
}

func (s *State) applyOne(op Op, now time.Time) bool {
	switch op.Type {
	case OpClearBoard:
		return s.doClear()
	case OpUpsertElement:
		return s.doUpsert(op.Element, now)
	case OpAppendStrokePoints:
		return s.doAppendStrokePoints(op.ID, op.Points)
	case OpDeleteElement:
		return s.doDelete(op.ID)
	case OpOffsetElement:
		return s.doOffset(op.ID, op.DX, op.DY)
	case OpSetElementGeometry:
		return s.doSetGeometry(op)
	case OpSetElementStyle:
		return s.doSetStyle(op.ID, op.Style)
	case OpSetElementText:
		return s.doSetText(op.ID, op.Text)
	case OpDuplicateElement:
		return s.doDuplicate(op.ID, op.NewID, op.DX, op.DY, now)
	case OpSetElementZIndex:
		return s.doSetZIndex(op.ID, op.ZIndex)
	case OpAlignElements:
		return s.doAlign(op.IDs, AlignAxis(op.Axis))
	case OpDistributeElements:
		return s.doDistribute(op.IDs, DistributeAxis(op.Axis), op.Gap)
	case OpSetViewport:
		return s.doSetViewport(op.Viewport)
	case OpBatch:
		changed := false
		for _, sub := range op.Ops {
			if s.applyOne(sub, now) {
				changed = true
			}
		}
		return changed
	default:
		return false
	}
}

func (s *State) doClear() bool {
	if len(s.Elements) == 0 && len(s.Order) == 0 {
		return false
	}
	s.Elements = make(map[string]*Element)
	s.Order = nil
	return true
}

func (s *State) doUpsert(el *Element, now time.Time) bool {
	if !el.Valid() {
		return false
	}
	clone := el.Clone()
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now
	}
	if _, exists := s.Elements[clone.ID]; exists {
		s.Elements[clone.ID] = clone
		return true
	}
	s.Elements[clone.ID] = clone
	s.Order = append(s.Order, clone.ID)
	return true
}

func (s *State) doAppendStrokePoints(id string, pts []Point) bool {
	el, ok := s.Elements[id]
	if !ok || !el.Kind.IsLineLike() {
		return false
	}
	var filtered []Point
	for _, p := range pts {
		if isFinite(p.X) && isFinite(p.Y) {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == 0 {
		return false
	}
	el.Points = append(el.Points, filtered...)
	return true
}

func (s *State) doDelete(id string) bool {
	if _, ok := s.Elements[id]; !ok {
		return false
	}
	delete(s.Elements, id)
	s.Order = removeID(s.Order, id)
	return true
}

func (s *State) doOffset(id string, dx, dy float64) bool {
	el, ok := s.Elements[id]
	if !ok {
		return false
	}
	if dx == 0 && dy == 0 {
		return false
	}
	switch {
	case el.Kind.IsLineLike():
		if len(el.Points) == 0 {
			return false
		}
		for i := range el.Points {
			el.Points[i].X += dx
			el.Points[i].Y += dy
		}
	default: // rect-like and text
		el.X += dx
		el.Y += dy
	}
	return true
}

func (s *State) doSetGeometry(op Op) bool {
	el, ok := s.Elements[op.ID]
	if !ok {
		return false
	}
	changed := false
	if op.X != nil {
		el.X = *op.X
		changed = true
	}
	if op.Y != nil {
		el.Y = *op.Y
		changed = true
	}
	if op.W != nil {
		el.W = *op.W
		changed = true
	}
	if op.H != nil {
		el.H = *op.H
		changed = true
	}
	if el.Kind.IsLineLike() && op.Points != nil {
		el.Points = append([]Point(nil), op.Points...)
		changed = true
	}
	return changed
}

func (s *State) doSetStyle(id string, patch Style) bool {
	el, ok := s.Elements[id]
	if !ok || len(patch) == 0 {
		return false
	}
	if el.Style == nil {
		el.Style = make(Style)
	}
	changed := false
	for k, v := range patch {
		if numericStyleKeys[k] {
			f, ok := toFiniteFloat(v)
			if !ok {
				continue
			}
			el.Style[k] = f
			changed = true
			continue
		}
		if str, ok := v.(string); ok {
			el.Style[k] = str
			changed = true
		}
	}
	return changed
}

func (s *State) doSetText(id, text string) bool {
	el, ok := s.Elements[id]
	if !ok {
		return false
	}
	switch el.Kind {
	case KindFrame:
		if el.Title == text {
			return false
		}
		el.Title = text
	case KindText, KindSticky:
		if el.Text == text {
			return false
		}
		el.Text = text
	default:
		return false
	}
	return true
}

func (s *State) doDuplicate(id, newID string, dx, dy float64, now time.Time) bool {
	src, ok := s.Elements[id]
	if !ok || newID == "" {
		return false
	}
	if _, exists := s.Elements[newID]; exists {
		return false
	}
	clone := src.Clone()
	clone.ID = newID
	clone.CreatedAt = now
	if dx != 0 || dy != 0 {
		if clone.Kind.IsLineLike() {
			for i := range clone.Points {
				clone.Points[i].X += dx
				clone.Points[i].Y += dy
			}
		} else {
			clone.X += dx
			clone.Y += dy
		}
	}
	s.Elements[newID] = clone
	s.Order = append(s.Order, newID)
	return true
}

// doSetZIndex treats zIndex as an absolute target rank in Order (Open
// Question #2, decided in SPEC_FULL.md §E: absolute rank, 0 = back),
// clamped to the valid index range.
func (s *State) doSetZIndex(id string, zIndex int) bool {
	if _, ok := s.Elements[id]; !ok {
		return false
	}
	cur := indexOf(s.Order, id)
	if cur < 0 {
		return false
	}
	target := zIndex
	if target < 0 {
		target = 0
	}
	if target > len(s.Order)-1 {
		target = len(s.Order) - 1
	}
	if target == cur {
		return false
	}
	s.Order = removeID(s.Order, id)
	out := make([]string, 0, len(s.Order)+1)
	out = append(out, s.Order[:target]...)
	out = append(out, id)
	out = append(out, s.Order[target:]...)
	s.Order = out
	return true
}

func (s *State) doSetViewport(vp *Viewport) bool {
	if vp == nil {
		return false
	}
	if s.Viewport == nil {
		s.Viewport = &Viewport{}
	}
	changed := false
	if vp.X != nil {
		s.Viewport.X = vp.X
		changed = true
	}
	if vp.Y != nil {
		s.Viewport.Y = vp.Y
		changed = true
	}
	if vp.Zoom != nil {
		s.Viewport.Zoom = vp.Zoom
		changed = true
	}
	return changed
}

// --- alignment / distribution (spec §4.1) ---

// doAlign computes a reference coordinate (min/center/max on the chosen
// axis) across ids' current bounding boxes, then translates each element so
// its corresponding edge/center lands on that reference. Ties break on
// lexicographic id order (Open Question #1, decided in SPEC_FULL.md §E).
func (s *State) doAlign(ids []string, axis AlignAxis) bool {
	elems := s.resolveSorted(ids)
	if len(elems) < 2 {
		return false
	}
	horizontal := axis == AlignLeft || axis == AlignCenter || axis == AlignRight || axis == AlignX
	type box struct {
		id         string
		x, y, w, h float64
	}
	boxes := make([]box, 0, len(elems))
	for _, el := range elems {
		x, y, w, h := el.BBox()
		boxes = append(boxes, box{el.ID, x, y, w, h})
	}

	var ref float64
	switch axis {
	case AlignLeft, AlignTop:
		ref = boxes[0].x
		if !horizontal {
			ref = boxes[0].y
		}
		for _, b := range boxes {
			v := b.x
			if !horizontal {
				v = b.y
			}
			if v < ref {
				ref = v
			}
		}
	case AlignRight, AlignBottom:
		ref = boxes[0].x + boxes[0].w
		if !horizontal {
			ref = boxes[0].y + boxes[0].h
		}
		for _, b := range boxes {
			edge := b.x + b.w
			if !horizontal {
				edge = b.y + b.h
			}
			if edge > ref {
				ref = edge
			}
		}
	case AlignX, AlignY:
		ref = boxes[0].x
		if !horizontal {
			ref = boxes[0].y
		}
	case AlignCenter, AlignMiddle:
		var sum float64
		for _, b := range boxes {
			c := b.x + b.w/2
			if !horizontal {
				c = b.y + b.h/2
			}
			sum += c
		}
		ref = sum / float64(len(boxes))
	default:
		return false
	}

	changed := false
	for _, b := range boxes {
		el := s.Elements[b.id]
		var target float64
		var current float64
		switch axis {
		case AlignLeft, AlignX:
			target, current = ref, b.x
		case AlignTop, AlignY:
			target, current = ref, b.y
		case AlignRight:
			target, current = ref-b.w, b.x
		case AlignBottom:
			target, current = ref-b.h, b.y
		case AlignCenter:
			target, current = ref-b.w/2, b.x
		case AlignMiddle:
			target, current = ref-b.h/2, b.y
		}
		delta := target - current
		if delta == 0 {
			continue
		}
		if horizontal {
			if s.doOffset(el.ID, delta, 0) {
				changed = true
			}
		} else {
			if s.doOffset(el.ID, 0, delta) {
				changed = true
			}
		}
	}
	return changed
}

// doDistribute requires ≥3 ids (spec §4.1); sorts by the relevant axis
// position and spaces either by equal gaps between bounding boxes or by an
// explicit gap.
func (s *State) doDistribute(ids []string, axis DistributeAxis, gap *float64) bool {
	elems := s.resolveSorted(ids)
	if len(elems) < 3 {
		return false
	}
	horizontal := axis == DistributeHorizontal || axis == DistributeX

	type box struct {
		id         string
		pos, size  float64
	}
	boxes := make([]box, 0, len(elems))
	for _, el := range elems {
		x, y, w, h := el.BBox()
		if horizontal {
			boxes = append(boxes, box{el.ID, x, w})
		} else {
			boxes = append(boxes, box{el.ID, y, h})
		}
	}
	sort.SliceStable(boxes, func(i, j int) bool {
		if boxes[i].pos != boxes[j].pos {
			return boxes[i].pos < boxes[j].pos
		}
		return boxes[i].id < boxes[j].id
	})

	changed := false
	if gap != nil {
		cursor := boxes[0].pos + boxes[0].size + *gap
		for i := 1; i < len(boxes); i++ {
			b := boxes[i]
			delta := cursor - b.pos
			if delta != 0 {
				if horizontal {
					if s.doOffset(b.id, delta, 0) {
						changed = true
					}
				} else {
					if s.doOffset(b.id, 0, delta) {
						changed = true
					}
				}
			}
			cursor += b.size + *gap
		}
		return changed
	}

	first, last := boxes[0], boxes[len(boxes)-1]
	span := (last.pos) - (first.pos + first.size)
	var totalInnerSize float64
	for _, b := range boxes[1 : len(boxes)-1] {
		totalInnerSize += b.size
	}
	gaps := float64(len(boxes) - 1)
	spacing := (span - totalInnerSize) / gaps
	if spacing < 0 {
		spacing = 0
	}
	cursor := first.pos + first.size + spacing
	for i := 1; i < len(boxes)-1; i++ {
		b := boxes[i]
		delta := cursor - b.pos
		if delta != 0 {
			if horizontal {
				if s.doOffset(b.id, delta, 0) {
					changed = true
				}
			} else {
				if s.doOffset(b.id, 0, delta) {
					changed = true
				}
			}
		}
		cursor += b.size + spacing
	}
	return changed
}

// resolveSorted returns the elements named by ids that actually exist,
// deduplicated and ordered lexicographically by id for deterministic
// tie-breaking.
func (s *State) resolveSorted(ids []string) []*Element {
	seen := make(map[string]bool, len(ids))
	var out []*Element
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if el, ok := s.Elements[id]; ok {
			out = append(out, el)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func removeID(order []string, id string) []string {
	out := order[:0:0]
	for _, v := range order {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func indexOf(order []string, id string) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func toFiniteFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if isFinite(t) {
			return t, true
		}
	case float32:
		f := float64(t)
		if isFinite(f) {
			return f, true
		}
	case int:
		return float64(t), true
	}
	return 0, false
}
