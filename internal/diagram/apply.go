package diagram

import "time"

// ApplyToGroup applies patch's actions to group in place, running
// DeterministicCleanup first (spec §4.7) and returning the layoutHint
// carried by the patch (transient — not persisted on Group, since spec §3
// does not list it among DiagramGroup's fields).
func ApplyToGroup(group *Group, patch Patch, now time.Time) LayoutHint {
	for _, a := range DeterministicCleanup(group, patch) {
		applyAction(group, a)
	}
	var layout LayoutHint
	for _, a := range patch.Actions {
		if a.Type == ActionLayoutHint {
			layout = a.Layout
		}
		applyAction(group, a)
	}
	group.Topic = patch.Topic
	group.DiagramType = patch.DiagramType
	group.UpdatedAt = now
	return layout
}

func applyAction(group *Group, a Action) {
	switch a.Type {
	case ActionUpsertNode:
		if a.Node != nil {
			n := *a.Node
			group.Nodes[n.ID] = &n
		}
	case ActionUpsertEdge:
		if a.Edge != nil {
			e := *a.Edge
			group.Edges[e.ID] = &e
		}
	case ActionDeleteShape:
		delete(group.Nodes, a.ShapeID)
		delete(group.Edges, a.ShapeID)
	case ActionSetTitle:
		group.Title = a.Title
	case ActionSetNotes:
		group.Notes = append([]string(nil), a.Notes...)
	case ActionHighlightOrder:
		group.HighlightOrder = append([]string(nil), a.Order...)
	case ActionLayoutHint:
		// transient; handled by caller
	}
}

// RecomputeBounds derives group.Bounds as the bounding box of all current
// nodes, used after ApplyToGroup and before archiving.
func RecomputeBounds(group *Group) {
	if len(group.Nodes) == 0 {
		group.Bounds = FocusBox{}
		return
	}
	first := true
	var minX, minY, maxX, maxY float64
	for _, n := range group.Nodes {
		x0, y0, x1, y1 := n.X, n.Y, n.X+n.Width, n.Y+n.Height
		if first {
			minX, minY, maxX, maxY = x0, y0, x1, y1
			first = false
			continue
		}
		if x0 < minX {
			minX = x0
		}
		if y0 < minY {
			minY = y0
		}
		if x1 > maxX {
			maxX = x1
		}
		if y1 > maxY {
			maxY = y1
		}
	}
	group.Bounds = FocusBox{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
