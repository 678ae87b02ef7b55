package diagram

import (
	"testing"
	"time"

	"github.com/piyushdatta/senseboard-server/internal/board"
)

func TestToBoardOpsTranslatesNodesAndEdges(t *testing.T) {
	g := NewGroup("g1", time.Now())
	g.Nodes["n1"] = &Node{ID: "n1", X: 0, Y: 0, Width: 100, Height: 40, Label: "Start"}
	g.Nodes["n2"] = &Node{ID: "n2", X: 200, Y: 0, Width: 100, Height: 40, Label: "End"}
	g.Edges["e1"] = &Edge{ID: "e1", From: "n1", To: "n2"}

	ops := ToBoardOps(g, time.Now())
	var frames, arrows int
	for _, op := range ops {
		if op.Type != board.OpUpsertElement {
			t.Fatalf("unexpected op type %v", op.Type)
		}
		switch op.Element.Kind {
		case board.KindFrame:
			frames++
		case board.KindArrow:
			arrows++
			if len(op.Element.Points) != 2 {
				t.Fatalf("arrow should connect two centers, got %d points", len(op.Element.Points))
			}
		}
	}
	if frames != 2 || arrows != 1 {
		t.Fatalf("frames=%d arrows=%d, want 2/1", frames, arrows)
	}
}

func TestToBoardOpsSkipsEdgesWithMissingEndpoints(t *testing.T) {
	g := NewGroup("g1", time.Now())
	g.Nodes["n1"] = &Node{ID: "n1", Width: 10, Height: 10, Label: "Lonely"}
	g.Edges["e1"] = &Edge{ID: "e1", From: "n1", To: "missing"}

	ops := ToBoardOps(g, time.Now())
	for _, op := range ops {
		if op.Element.Kind == board.KindArrow {
			t.Fatalf("should not emit an arrow referencing a missing node")
		}
	}
}

func TestDeleteOpsForStaleShapesEmitsBothElementKinds(t *testing.T) {
	ops := DeleteOpsForStaleShapes("g1", []Action{{Type: ActionDeleteShape, ShapeID: "x"}})
	if len(ops) != 2 {
		t.Fatalf("ops = %d, want 2 (frame + arrow delete)", len(ops))
	}
	for _, op := range ops {
		if op.Type != board.OpDeleteElement {
			t.Fatalf("op type = %v, want deleteElement", op.Type)
		}
	}
}
