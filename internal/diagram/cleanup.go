package diagram

// DeterministicCleanup emits deleteShape actions for every node/edge id in
// group that is not referenced by the incoming patch — "keeps the board
// current under topic shifts" (spec §4.7).
func DeterministicCleanup(group *Group, patch Patch) []Action {
	if group == nil {
		return nil
	}
	keepNodes := make(map[string]bool)
	keepEdges := make(map[string]bool)
	for _, n := range patch.NodeActions() {
		keepNodes[n.ID] = true
	}
	for _, e := range patch.EdgeActions() {
		keepEdges[e.ID] = true
	}
	var actions []Action
	for id := range group.Nodes {
		if !keepNodes[id] {
			actions = append(actions, Action{Type: ActionDeleteShape, ShapeID: id})
		}
	}
	for id := range group.Edges {
		if !keepEdges[id] {
			actions = append(actions, Action{Type: ActionDeleteShape, ShapeID: id})
		}
	}
	return actions
}

// TopicShifted reports whether patch represents a different diagram type,
// or a topic whose normalized-token Jaccard similarity with group's current
// topic is below 0.3 (spec §4.7).
func TopicShifted(group *Group, patch Patch) bool {
	if group == nil {
		return true
	}
	if group.DiagramType != "" && group.DiagramType != patch.DiagramType {
		return true
	}
	return jaccardSimilarity(group.Topic, patch.Topic) < 0.3
}
