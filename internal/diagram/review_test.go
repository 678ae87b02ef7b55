package diagram

import "testing"

func node(id, label string) Action {
	return Action{Type: ActionUpsertNode, Node: &Node{ID: id, Label: label, Width: 10, Height: 10}}
}

func edge(id, from, to string) Action {
	return Action{Type: ActionUpsertEdge, Edge: &Edge{ID: id, From: from, To: to}}
}

func TestReviewScorePerfectMatch(t *testing.T) {
	ref := Patch{DiagramType: TypeFlowchart, Actions: []Action{node("1", "Plan"), node("2", "Build"), edge("e1", "1", "2")}}
	if got := ReviewScore(ref, ref); got != 1 {
		t.Fatalf("ReviewScore = %v, want 1", got)
	}
}

func TestReviewScoreTypeMismatchOnly(t *testing.T) {
	ref := Patch{DiagramType: TypeTree, Actions: []Action{node("1", "Root")}}
	cand := Patch{DiagramType: TypeFlowchart, Actions: []Action{node("1", "Root")}}
	got := ReviewScore(cand, ref)
	if got >= 0.75 {
		t.Fatalf("ReviewScore = %v, expected type mismatch to cap the score", got)
	}
}

func TestReviewAndReviseAcceptsAboveThreshold(t *testing.T) {
	ref := Patch{DiagramType: TypeFlowchart, Actions: []Action{node("1", "Plan")}}
	cand := Patch{DiagramType: TypeFlowchart, Actions: []Action{node("2", "Plan")}}
	out := ReviewAndRevise(cand, ref, 0.5, 2, "")
	if len(out.Conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %v", out.Conflicts)
	}
}

func TestReviewAndReviseMergesMissingOnPassZero(t *testing.T) {
	ref := Patch{DiagramType: TypeFlowchart, Actions: []Action{node("1", "Plan"), node("2", "Build")}}
	cand := Patch{DiagramType: TypeFlowchart, Actions: []Action{node("x", "Plan")}}
	out := ReviewAndRevise(cand, ref, 0.99, 2, "")
	labels := map[string]bool{}
	for _, n := range out.NodeActions() {
		labels[n.Label] = true
	}
	if !labels["Build"] {
		t.Fatalf("expected merged-in Build node, got %v", out.NodeActions())
	}
}

func TestReviewAndReviseOverrideRuleDiscardsNonTreeCandidate(t *testing.T) {
	ref := Patch{DiagramType: TypeTree, Topic: "org tree", Actions: []Action{node("1", "Root")}}
	cand := Patch{DiagramType: TypeFlowchart, Topic: "something else", Actions: []Action{node("2", "Other")}}
	out := ReviewAndRevise(cand, ref, 0.99, 2, "let's sketch the org tree")
	if out.DiagramType != TypeTree {
		t.Fatalf("DiagramType = %v, want tree (override rule)", out.DiagramType)
	}
}

func TestReviewAndReviseAddsConflictNoteWhenStillBelowThreshold(t *testing.T) {
	ref := Patch{DiagramType: TypeFlowchart, Actions: []Action{node("1", "Plan")}}
	cand := Patch{DiagramType: TypeSystemBlocks, Actions: []Action{node("2", "Other")}}
	out := ReviewAndRevise(cand, ref, 0.99, 1, "")
	if len(out.Conflicts) == 0 {
		t.Fatalf("expected a conflict note")
	}
}
