package diagram

import (
	"regexp"
	"strings"
)

// TreeWords and SystemWords drive diagram-type detection (spec §4.7.1) and
// the transcript-normalization keyword-hint filter (spec §4.3).
var TreeWords = map[string]bool{
	"tree": true, "root": true, "child": true, "children": true,
	"parent": true, "leaf": true, "leaves": true, "branch": true,
	"hierarchy": true, "ancestor": true, "descendant": true, "node": true,
}

var SystemWords = map[string]bool{
	"api": true, "gateway": true, "service": true, "database": true,
	"db": true, "server": true, "client": true, "cache": true, "redis": true,
	"queue": true, "microservice": true, "backend": true, "frontend": true,
	"postgres": true, "architecture": true, "infrastructure": true,
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
	"to": true, "is": true, "are": true, "it": true, "this": true, "that": true,
	"with": true, "for": true, "in": true, "on": true, "at": true, "be": true,
	"has": true, "have": true, "we": true, "i": true, "you": true, "our": true,
}

var wordRe = regexp.MustCompile(`[a-zA-Z0-9']+`)

func tokenize(s string) []string {
	return wordRe.FindAllString(strings.ToLower(s), -1)
}

// normalizeForComparison lowercases and strips non-alphanumerics, used by
// the review-loop's node/edge label coverage comparisons (spec §4.7).
func normalizeForComparison(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// DetectType scores TREE_WORDS vs SYSTEM_WORDS keyword counts over text;
// tree wins ties when its score is > 0, else system_blocks if its score is
// > 0, else flowchart (spec §4.7.1).
func DetectType(text string) Type {
	treeScore, sysScore := 0, 0
	for _, tok := range tokenize(text) {
		if TreeWords[tok] {
			treeScore++
		}
		if SystemWords[tok] {
			sysScore++
		}
	}
	switch {
	case treeScore > 0 && treeScore >= sysScore:
		return TypeTree
	case sysScore > 0:
		return TypeSystemBlocks
	default:
		return TypeFlowchart
	}
}

// jaccardSimilarity computes the Jaccard similarity of the token sets of a
// and b, used by topic-shift detection (spec §4.7).
func jaccardSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for t := range setA {
		if setB[t] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range tokenize(normalizeForComparison(s)) {
		if !stopwords[tok] {
			out[tok] = true
		}
	}
	return out
}
