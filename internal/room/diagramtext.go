package room

import (
	"fmt"
	"sort"
	"strings"

	"github.com/piyushdatta/senseboard-server/internal/diagram"
)

// diagramSummary renders a one-line description of group's title/type/
// node-edge counts, used as AIInput.currentDiagramSummary (spec §4.3).
func diagramSummary(g *diagram.Group) string {
	if g == nil {
		return ""
	}
	title := g.Title
	if title == "" {
		title = g.Topic
	}
	return fmt.Sprintf("%s (%s, %d nodes, %d edges)", title, g.DiagramType, len(g.Nodes), len(g.Edges))
}

// diagramSnapshot renders a compact textual listing of group's nodes and
// edges, used as AIInput.activeDiagramSnapshot so a provider can reason
// about what is already on the board without reconstructing it from
// BoardOps.
func diagramSnapshot(g *diagram.Group) string {
	if g == nil {
		return ""
	}
	var b strings.Builder
	nodeIDs := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)
	for _, id := range nodeIDs {
		n := g.Nodes[id]
		fmt.Fprintf(&b, "node %s: %s\n", id, n.Label)
	}
	edgeIDs := make([]string, 0, len(g.Edges))
	for id := range g.Edges {
		edgeIDs = append(edgeIDs, id)
	}
	sort.Strings(edgeIDs)
	for _, id := range edgeIDs {
		e := g.Edges[id]
		fmt.Fprintf(&b, "edge %s: %s -> %s\n", id, e.From, e.To)
	}
	return strings.TrimRight(b.String(), "\n")
}
