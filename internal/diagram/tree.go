package diagram

import (
	"regexp"
	"strings"
)

var (
	reRoot     = regexp.MustCompile(`(?i)\broot\s+([a-z0-9_]+)`)
	reHas      = regexp.MustCompile(`(?i)\b([a-z0-9_]+)\s+has\s+([a-z0-9_ ,]+?)(?:[.!?]|$)`)
	reChildren = regexp.MustCompile(`(?i)\bchildren\s+(?:of\s+([a-z0-9_]+)\s+)?(?:are\s+|is\s+)?([a-z0-9_ ,]+?)(?:[.!?]|$)`)
	reTreeAlias = regexp.MustCompile(`(?i)\b([a-z0-9_]+)\s+trees?\b`)
	reBareTree  = regexp.MustCompile(`(?i)\b([a-z0-9_]+)\s+tree\b`)

	reTraversalPre  = regexp.MustCompile(`(?i)\bpre[\s-]?order\b`)
	reTraversalPost = regexp.MustCompile(`(?i)\bpost[\s-]?order\b`)
	reTraversalBFS  = regexp.MustCompile(`(?i)\b(bfs|breadth[\s-]?first|level[\s-]?order)\b`)
)

func splitAndList(s string) []string {
	s = strings.ReplaceAll(s, " and ", ",")
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

type treeEdge struct{ parent, child string }

// parseTreeRelations extracts "root X", "X has Y and Z", "children Y and Z"
// relations from free text (spec §4.7.2). It returns the node labels
// (in first-seen order) and the parent/child edges parsed.
func parseTreeRelations(text string) (labels []string, edges []treeEdge, root string) {
	seen := make(map[string]bool)
	add := func(label string) {
		key := strings.ToLower(label)
		if key == "" || stopwords[key] || seen[key] {
			return
		}
		seen[key] = true
		labels = append(labels, label)
	}

	var lastParent string

	if m := reRoot.FindStringSubmatch(text); m != nil {
		root = m[1]
		add(root)
		lastParent = root
	}

	for _, m := range reHas.FindAllStringSubmatch(text, -1) {
		parent := m[1]
		add(parent)
		for _, child := range splitAndList(m[2]) {
			add(child)
			edges = append(edges, treeEdge{parent, child})
		}
		lastParent = parent
	}

	for _, m := range reChildren.FindAllStringSubmatch(text, -1) {
		parent := m[1]
		if parent == "" {
			parent = lastParent
			if parent == "" && root != "" {
				parent = root
			}
		}
		if parent == "" {
			continue
		}
		add(parent)
		for _, child := range splitAndList(m[2]) {
			add(child)
			edges = append(edges, treeEdge{parent, child})
		}
	}

	if root == "" && len(labels) > 0 {
		root = labels[0]
	}
	return labels, edges, root
}

// detectTreeAliasCount counts distinct "<noun> tree(s)" phrases — used to
// infer a shared node when ≥2 aliases appear (spec §4.7.2).
func detectTreeAliasCount(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range reTreeAlias.FindAllStringSubmatch(text, -1) {
		w := strings.ToLower(m[1])
		if !stopwords[w] && !seen[w] {
			seen[w] = true
			out = append(out, m[1])
		}
	}
	return out
}

func detectTraversalIntent(text string) (order []string, has bool) {
	switch {
	case reTraversalPre.MatchString(text), reTraversalPost.MatchString(text), reTraversalBFS.MatchString(text):
		return nil, true
	default:
		return nil, false
	}
}

// BuildTree implements the deterministic tree builder (spec §4.7.2).
func BuildTree(text string, idGen func() string) Patch {
	labels, edges, root := parseTreeRelations(text)

	if len(labels) == 0 {
		if aliases := detectTreeAliasCount(text); len(aliases) >= 2 {
			shared := aliases[0]
			labels = []string{shared, aliases[1]}
			root = shared
			edges = []treeEdge{{shared, aliases[1]}}
		}
	}
	if len(labels) == 0 {
		if m := reBareTree.FindStringSubmatch(text); m != nil && !stopwords[strings.ToLower(m[1])] {
			labels = []string{m[1]}
			root = m[1]
		}
	}

	var nodeIDByLabel map[string]string
	if len(labels) == 0 {
		// Canonical 5-node tree fallback (spec §4.7.2).
		labels = []string{"A", "B", "C", "D", "E"}
		root = "A"
		edges = []treeEdge{{"A", "B"}, {"A", "C"}, {"B", "D"}, {"B", "E"}}
	}

	nodeIDByLabel = make(map[string]string, len(labels))
	patch := Patch{Topic: root, DiagramType: TypeTree, Confidence: 0.55}

	childrenOf := make(map[string][]string)
	for _, e := range edges {
		childrenOf[strings.ToLower(e.parent)] = append(childrenOf[strings.ToLower(e.parent)], e.child)
	}

	// BFS layering from root for layout (gap 180 horizontal, 150 vertical,
	// rows centered around x = 40 + ...), spec §4.7.2.
	levels := map[string]int{strings.ToLower(root): 0}
	order := []string{root}
	for i := 0; i < len(order); i++ {
		cur := order[i]
		lvl := levels[strings.ToLower(cur)]
		for _, child := range childrenOf[strings.ToLower(cur)] {
			if _, ok := levels[strings.ToLower(child)]; ok {
				continue
			}
			levels[strings.ToLower(child)] = lvl + 1
			order = append(order, child)
		}
	}
	for _, label := range labels {
		if _, ok := levels[strings.ToLower(label)]; !ok {
			levels[strings.ToLower(label)] = 0
			order = append(order, label)
		}
	}

	rows := make(map[int][]string)
	for _, label := range order {
		lvl := levels[strings.ToLower(label)]
		rows[lvl] = append(rows[lvl], label)
	}
	const gapX, gapY, nodeW = 180.0, 150.0, 140.0
	for lvl, rowLabels := range rows {
		totalWidth := float64(len(rowLabels)-1) * gapX
		startX := 40 + -totalWidth/2
		for i, label := range rowLabels {
			id := idGen()
			nodeIDByLabel[strings.ToLower(label)] = id
			patch.Actions = append(patch.Actions, Action{
				Type: ActionUpsertNode,
				Node: &Node{ID: id, X: startX + float64(i)*gapX, Y: float64(lvl) * gapY, Width: nodeW, Height: 64, Label: label},
			})
		}
	}
	for _, e := range edges {
		fromID, fromOK := nodeIDByLabel[strings.ToLower(e.parent)]
		toID, toOK := nodeIDByLabel[strings.ToLower(e.child)]
		if !fromOK || !toOK {
			continue
		}
		patch.Actions = append(patch.Actions, Action{
			Type: ActionUpsertEdge,
			Edge: &Edge{ID: idGen(), From: fromID, To: toID},
		})
	}

	patch.Actions = append(patch.Actions, Action{Type: ActionSetTitle, Title: root + " tree"})

	if _, hasTraversal := detectTraversalIntent(text); hasTraversal {
		var highlight []string
		for _, label := range order {
			if id, ok := nodeIDByLabel[strings.ToLower(label)]; ok {
				highlight = append(highlight, id)
			}
		}
		patch.Actions = append(patch.Actions, Action{Type: ActionHighlightOrder, Order: highlight})
	}

	patch.Actions = append(patch.Actions, Action{Type: ActionLayoutHint, Layout: LayoutTree})
	patch.Clamp()
	return patch
}
