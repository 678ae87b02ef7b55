package diagram

import (
	"fmt"
	"testing"
)

func seqIDGen() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
}

func TestBuildTreeParsesHasRelation(t *testing.T) {
	p := BuildTree("root Animal. Animal has Dog and Cat.", seqIDGen())
	if p.DiagramType != TypeTree {
		t.Fatalf("DiagramType = %v", p.DiagramType)
	}
	nodes := p.NodeActions()
	if len(nodes) != 3 {
		t.Fatalf("nodes = %d, want 3 (Animal, Dog, Cat)", len(nodes))
	}
	edges := p.EdgeActions()
	if len(edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(edges))
	}
}

func TestBuildTreeFallsBackToCanonical(t *testing.T) {
	p := BuildTree("nothing hierarchical here at all", seqIDGen())
	labels := map[string]bool{}
	for _, n := range p.NodeActions() {
		labels[n.Label] = true
	}
	for _, want := range []string{"A", "B", "C", "D", "E"} {
		if !labels[want] {
			t.Fatalf("missing canonical node %q in %v", want, labels)
		}
	}
}

func TestBuildSystemBlocksParsesArrowChain(t *testing.T) {
	p := BuildSystemBlocks("Browser -> LoadBalancer -> App -> Postgres", seqIDGen())
	if p.DiagramType != TypeSystemBlocks {
		t.Fatalf("DiagramType = %v", p.DiagramType)
	}
	if len(p.NodeActions()) != 4 {
		t.Fatalf("nodes = %d, want 4", len(p.NodeActions()))
	}
	if len(p.EdgeActions()) != 3 {
		t.Fatalf("edges = %d, want 3", len(p.EdgeActions()))
	}
}

func TestBuildSystemBlocksDefaultInsertsRedis(t *testing.T) {
	p := BuildSystemBlocks("we need a redis cache in front of the database", seqIDGen())
	found := false
	for _, n := range p.NodeActions() {
		if n.Label == "Redis Cache" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a Redis Cache block, got %+v", p.NodeActions())
	}
}

func TestBuildFlowchartCapsAtThreePhrases(t *testing.T) {
	p := BuildFlowchart("Ship the launch. Write the docs. Tell the team. Throw a party.", seqIDGen())
	if len(p.NodeActions()) != 3 {
		t.Fatalf("nodes = %d, want 3 (1 main + 2 detail)", len(p.NodeActions()))
	}
}

func TestBuildDeterministicDispatchesByType(t *testing.T) {
	// "root" is the only tree word; "backend" and "frontend" are two system
	// words, so system_blocks outscores tree 2 to 1.
	p := BuildDeterministic("root Project has Backend and Frontend", seqIDGen())
	if p.DiagramType != TypeSystemBlocks {
		t.Fatalf("DiagramType = %v, want system_blocks", p.DiagramType)
	}
}
