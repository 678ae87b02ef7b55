package board

import (
	"testing"
	"time"
)

func TestApplyOpsUpsertAndOrder(t *testing.T) {
	s := NewState()
	now := time.Now()

	changed := s.ApplyOps([]Op{
		{Type: OpUpsertElement, Element: &Element{ID: "a", Kind: KindRect, W: 10, H: 10}},
		{Type: OpUpsertElement, Element: &Element{ID: "b", Kind: KindRect, W: 10, H: 10}},
	}, now)
	if !changed {
		t.Fatalf("expected change")
	}
	if s.Revision != 1 {
		t.Fatalf("revision = %d, want 1", s.Revision)
	}
	if len(s.Order) != 2 || s.Order[0] != "a" || s.Order[1] != "b" {
		t.Fatalf("order = %v", s.Order)
	}
	if !s.Invariant() {
		t.Fatalf("invariant violated")
	}
}

func TestApplyOpsRejectsInvalidElement(t *testing.T) {
	s := NewState()
	changed := s.ApplyOps([]Op{
		{Type: OpUpsertElement, Element: &Element{ID: "a", Kind: KindRect}}, // missing w/h
	}, time.Now())
	if changed {
		t.Fatalf("expected rect missing w/h to be rejected")
	}
	if len(s.Elements) != 0 {
		t.Fatalf("elements = %v, want empty", s.Elements)
	}
}

func TestApplyOpsNoopRevisionUnchanged(t *testing.T) {
	s := NewState()
	s.ApplyOps([]Op{{Type: OpDeleteElement, ID: "missing"}}, time.Now())
	if s.Revision != 0 {
		t.Fatalf("revision = %d, want 0 for a no-op batch", s.Revision)
	}
}

func TestDeleteElementRemovesFromOrder(t *testing.T) {
	s := NewState()
	s.ApplyOps([]Op{
		{Type: OpUpsertElement, Element: &Element{ID: "a", Kind: KindRect, W: 1, H: 1}},
	}, time.Now())
	s.ApplyOps([]Op{{Type: OpDeleteElement, ID: "a"}}, time.Now())
	if _, ok := s.Elements["a"]; ok {
		t.Fatalf("element a should be gone")
	}
	if len(s.Order) != 0 {
		t.Fatalf("order = %v, want empty", s.Order)
	}
}

func TestAlignElementsLeft(t *testing.T) {
	s := NewState()
	s.ApplyOps([]Op{
		{Type: OpUpsertElement, Element: &Element{ID: "a", Kind: KindRect, X: 0, Y: 0, W: 10, H: 10}},
		{Type: OpUpsertElement, Element: &Element{ID: "b", Kind: KindRect, X: 50, Y: 0, W: 10, H: 10}},
	}, time.Now())
	s.ApplyOps([]Op{{Type: OpAlignElements, IDs: []string{"a", "b"}, Axis: string(AlignLeft)}}, time.Now())
	if s.Elements["b"].X != 0 {
		t.Fatalf("b.X = %v, want 0", s.Elements["b"].X)
	}
}

func TestDistributeRequiresThreeIDs(t *testing.T) {
	s := NewState()
	s.ApplyOps([]Op{
		{Type: OpUpsertElement, Element: &Element{ID: "a", Kind: KindRect, X: 0, Y: 0, W: 10, H: 10}},
		{Type: OpUpsertElement, Element: &Element{ID: "b", Kind: KindRect, X: 100, Y: 0, W: 10, H: 10}},
	}, time.Now())
	changed := s.ApplyOps([]Op{{Type: OpDistributeElements, IDs: []string{"a", "b"}, Axis: string(DistributeHorizontal)}}, time.Now())
	if changed {
		t.Fatalf("distribute with < 3 ids should be a no-op")
	}
}

func TestDistributeEvenSpacing(t *testing.T) {
	s := NewState()
	s.ApplyOps([]Op{
		{Type: OpUpsertElement, Element: &Element{ID: "a", Kind: KindRect, X: 0, Y: 0, W: 10, H: 10}},
		{Type: OpUpsertElement, Element: &Element{ID: "b", Kind: KindRect, X: 40, Y: 0, W: 10, H: 10}},
		{Type: OpUpsertElement, Element: &Element{ID: "c", Kind: KindRect, X: 100, Y: 0, W: 10, H: 10}},
	}, time.Now())
	s.ApplyOps([]Op{{Type: OpDistributeElements, IDs: []string{"a", "b", "c"}, Axis: string(DistributeHorizontal)}}, time.Now())
	if s.Elements["b"].X != 50 {
		t.Fatalf("b.X = %v, want 50", s.Elements["b"].X)
	}
}

func TestSetElementZIndexMovesRank(t *testing.T) {
	s := NewState()
	s.ApplyOps([]Op{
		{Type: OpUpsertElement, Element: &Element{ID: "a", Kind: KindRect, W: 1, H: 1}},
		{Type: OpUpsertElement, Element: &Element{ID: "b", Kind: KindRect, W: 1, H: 1}},
		{Type: OpUpsertElement, Element: &Element{ID: "c", Kind: KindRect, W: 1, H: 1}},
	}, time.Now())
	s.ApplyOps([]Op{{Type: OpSetElementZIndex, ID: "a", ZIndex: 2}}, time.Now())
	if s.Order[2] != "a" {
		t.Fatalf("order = %v, want a at back-to-front rank 2", s.Order)
	}
}

func TestBatchSingleRevisionBump(t *testing.T) {
	s := NewState()
	s.ApplyOps([]Op{{Type: OpBatch, Ops: []Op{
		{Type: OpUpsertElement, Element: &Element{ID: "a", Kind: KindRect, W: 1, H: 1}},
		{Type: OpUpsertElement, Element: &Element{ID: "b", Kind: KindRect, W: 1, H: 1}},
	}}}, time.Now())
	if s.Revision != 1 {
		t.Fatalf("revision = %d, want 1 for a single batch", s.Revision)
	}
}
