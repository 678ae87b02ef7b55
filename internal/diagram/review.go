package diagram

import (
	"fmt"
	"strings"
)

// ReviewScore grades candidate against reference using the weighted
// diagram-type/node-coverage/edge-coverage formula from spec §4.7.
func ReviewScore(candidate, reference Patch) float64 {
	typeMatch := 0.0
	if candidate.DiagramType == reference.DiagramType {
		typeMatch = 1.0
	}
	nodeCoverage := labelCoverage(nodeLabelSet(candidate), nodeLabelSet(reference))
	edgeCoverage := labelCoverage(edgePairSet(candidate), edgePairSet(reference))
	return 0.4*typeMatch + 0.35*nodeCoverage + 0.25*edgeCoverage
}

func nodeLabelSet(p Patch) map[string]bool {
	out := make(map[string]bool)
	for _, n := range p.NodeActions() {
		out[normalizeForComparison(n.Label)] = true
	}
	return out
}

func edgePairSet(p Patch) map[string]bool {
	labelByID := make(map[string]string)
	for _, n := range p.NodeActions() {
		labelByID[n.ID] = normalizeForComparison(n.Label)
	}
	out := make(map[string]bool)
	for _, e := range p.EdgeActions() {
		out[labelByID[e.From]+"|"+labelByID[e.To]] = true
	}
	return out
}

func labelCoverage(candidate, reference map[string]bool) float64 {
	if len(reference) == 0 {
		if len(candidate) == 0 {
			return 1
		}
		return 0
	}
	hit := 0
	for k := range reference {
		if candidate[k] {
			hit++
		}
	}
	return float64(hit) / float64(len(reference))
}

// mergeMissingActions copies reference node/edge actions absent (by
// normalized label) from candidate into candidate, used on review pass 0
// (spec §4.7: "merge missing actions from reference into candidate").
func mergeMissingActions(candidate, reference Patch) Patch {
	have := nodeLabelSet(candidate)
	merged := candidate
	for _, n := range reference.NodeActions() {
		key := normalizeForComparison(n.Label)
		if have[key] {
			continue
		}
		have[key] = true
		nCopy := *n
		merged.Actions = append(merged.Actions, Action{Type: ActionUpsertNode, Node: &nCopy})
	}
	haveEdges := edgePairSet(candidate)
	refLabelByID := make(map[string]string)
	for _, n := range reference.NodeActions() {
		refLabelByID[n.ID] = normalizeForComparison(n.Label)
	}
	for _, e := range reference.EdgeActions() {
		key := refLabelByID[e.From] + "|" + refLabelByID[e.To]
		if haveEdges[key] {
			continue
		}
		haveEdges[key] = true
		eCopy := *e
		merged.Actions = append(merged.Actions, Action{Type: ActionUpsertEdge, Edge: &eCopy})
	}
	merged.Clamp()
	return merged
}

// ReviewAndRevise implements the review+revise loop (spec §4.7): merge on
// pass 0, wholesale replace on later passes, up to maxRevisions passes,
// appending a conflict note if still below threshold. The override rule
// (reference says tree, candidate says non-tree, transcript window
// mentions "tree") discards candidate outright.
func ReviewAndRevise(candidate, reference Patch, threshold float64, maxRevisions int, transcriptWindow string) Patch {
	if reference.DiagramType == TypeTree && candidate.DiagramType != TypeTree && strings.Contains(strings.ToLower(transcriptWindow), "tree") {
		reference.Confidence = clampConfidence(reference.Confidence + 0.1)
		return reference
	}

	current := candidate
	var lastScore float64
	for pass := 0; pass < maxRevisions; pass++ {
		lastScore = ReviewScore(current, reference)
		if lastScore >= threshold {
			current.Confidence = clampConfidence(current.Confidence + 0.1)
			return current
		}
		if pass == 0 {
			current = mergeMissingActions(current, reference)
		} else {
			current = reference
		}
	}
	lastScore = ReviewScore(current, reference)
	if lastScore < threshold {
		note := fmt.Sprintf("Review score %d%% stayed below %d%% after %d pass(es).", int(lastScore*100), int(threshold*100), maxRevisions)
		if len(current.Conflicts) < MaxConflicts {
			current.Conflicts = append(current.Conflicts, note)
		}
	}
	current.Clamp()
	return current
}

func clampConfidence(c float64) float64 {
	if c < MinConfidence {
		return MinConfidence
	}
	if c > MaxConfidence {
		return MaxConfidence
	}
	return c
}
