package diagram

import (
	"time"

	"github.com/piyushdatta/senseboard-server/internal/board"
)

const edgeIDPrefix = "edge:"

func frameElementID(groupID, nodeID string) string {
	return groupID + ":" + nodeID
}

func arrowElementID(groupID, edgeID string) string {
	return groupID + ":" + edgeIDPrefix + edgeID
}

func center(n *Node) (x, y float64) {
	return n.X + n.Width/2, n.Y + n.Height/2
}

// ToBoardOps translates group's current nodes/edges into the upsertElement
// ops that render it (spec §4.7.5): each Node becomes a KindFrame element
// titled with its label, each Edge becomes a KindArrow connecting the two
// node bounding-box centers. Ids are namespaced under group.ID so repeated
// translation of the same group always touches the same board elements.
func ToBoardOps(group *Group, now time.Time) []board.Op {
	if group == nil {
		return nil
	}
	var ops []board.Op
	for id, n := range group.Nodes {
		ops = append(ops, board.Op{
			Type: board.OpUpsertElement,
			Element: &board.Element{
				ID:        frameElementID(group.ID, id),
				Kind:      board.KindFrame,
				CreatedAt: now,
				CreatedBy: board.AICreator,
				X:         n.X,
				Y:         n.Y,
				W:         n.Width,
				H:         n.Height,
				Title:     n.Label,
			},
		})
	}
	for id, e := range group.Edges {
		from, fromOK := group.Nodes[e.From]
		to, toOK := group.Nodes[e.To]
		if !fromOK || !toOK {
			continue
		}
		fx, fy := center(from)
		tx, ty := center(to)
		ops = append(ops, board.Op{
			Type: board.OpUpsertElement,
			Element: &board.Element{
				ID:        arrowElementID(group.ID, id),
				Kind:      board.KindArrow,
				CreatedAt: now,
				CreatedBy: board.AICreator,
				Text:      e.Label,
				Points:    []board.Point{{X: fx, Y: fy}, {X: tx, Y: ty}},
			},
		})
	}
	return ops
}

// DeleteOpsForStaleShapes translates DeterministicCleanup's deleteShape
// actions into board deleteElement ops against the namespaced element ids
// ToBoardOps produces, so a board element outlives its diagram-group shape
// only as long as the shape itself does.
func DeleteOpsForStaleShapes(groupID string, actions []Action) []board.Op {
	var ops []board.Op
	for _, a := range actions {
		if a.Type != ActionDeleteShape {
			continue
		}
		ops = append(ops,
			board.Op{Type: board.OpDeleteElement, ID: frameElementID(groupID, a.ShapeID)},
			board.Op{Type: board.OpDeleteElement, ID: arrowElementID(groupID, a.ShapeID)},
		)
	}
	return ops
}
