package room

import (
	"testing"
	"time"

	"github.com/piyushdatta/senseboard-server/internal/diagram"
)

func TestApplyDiagramPatchCreatesGroupWhenNoneActive(t *testing.T) {
	s := New("room1", time.Now())
	idGen := seqIDGen()
	patch := diagram.Patch{
		Topic:       "launch plan",
		DiagramType: diagram.TypeFlowchart,
		Actions:     []diagram.Action{{Type: diagram.ActionSetTitle, Title: "Launch"}},
	}
	g, _ := s.ApplyDiagramPatch(patch, time.Now(), idGen)
	if g == nil || s.ActiveGroupID != g.ID {
		t.Fatalf("expected a fresh active group to be created")
	}
	if len(s.ArchivedGroups) != 0 {
		t.Fatalf("no prior group existed; nothing should be archived")
	}
}

func TestApplyDiagramPatchArchivesOnTopicShift(t *testing.T) {
	s := New("room1", time.Now())
	idGen := seqIDGen()
	first := diagram.Patch{Topic: "system architecture", DiagramType: diagram.TypeSystemBlocks}
	s.ApplyDiagramPatch(first, time.Now(), idGen)
	firstID := s.ActiveGroupID

	second := diagram.Patch{Topic: "family tree", DiagramType: diagram.TypeTree}
	g, _ := s.ApplyDiagramPatch(second, time.Now(), idGen)
	if g.ID == firstID {
		t.Fatalf("expected a new group after a topic shift")
	}
	if len(s.ArchivedGroups) != 1 {
		t.Fatalf("archivedGroups = %d, want 1", len(s.ArchivedGroups))
	}
	if s.ArchivedGroups[0].Group.ID != firstID {
		t.Fatalf("archived the wrong group")
	}
}

func TestApplyDiagramPatchSameTopicReusesGroup(t *testing.T) {
	s := New("room1", time.Now())
	idGen := seqIDGen()
	patch := diagram.Patch{Topic: "launch plan", DiagramType: diagram.TypeFlowchart}
	g1, _ := s.ApplyDiagramPatch(patch, time.Now(), idGen)
	g2, _ := s.ApplyDiagramPatch(patch, time.Now(), idGen)
	if g1.ID != g2.ID {
		t.Fatalf("expected the same topic to reuse the active group")
	}
	if len(s.ArchivedGroups) != 0 {
		t.Fatalf("archivedGroups = %d, want 0", len(s.ArchivedGroups))
	}
}

func TestApplyDiagramPatchOpensFreshGroupWhenActiveIsPinned(t *testing.T) {
	s := New("room1", time.Now())
	idGen := seqIDGen()
	patch := diagram.Patch{Topic: "launch plan", DiagramType: diagram.TypeFlowchart}
	g1, _ := s.ApplyDiagramPatch(patch, time.Now(), idGen)
	g1.Pinned = true

	g2, _ := s.ApplyDiagramPatch(patch, time.Now(), idGen)
	if g2.ID == g1.ID {
		t.Fatalf("expected a fresh group when the active group is pinned")
	}
	if len(s.ArchivedGroups) != 1 {
		t.Fatalf("archivedGroups = %d, want 1 (pinned group preserved by archival)", len(s.ArchivedGroups))
	}
}
