package diagram

import (
	"regexp"
	"strings"
)

var reSentenceSplit = regexp.MustCompile(`[.!?]+`)

var topicEmoji = []struct {
	keyword string
	emoji   string
}{
	{"idea", "💡"}, {"plan", "🗺️"}, {"build", "🛠️"}, {"launch", "🚀"},
	{"data", "📊"}, {"test", "🧪"}, {"design", "🎨"}, {"goal", "🎯"},
	{"bug", "🐛"}, {"ship", "📦"},
}

func emojiFor(topic string) string {
	lower := strings.ToLower(topic)
	for _, te := range topicEmoji {
		if strings.Contains(lower, te.keyword) {
			return te.emoji
		}
	}
	return "🧩"
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "…"
}

// BuildFlowchart implements the deterministic flowchart builder (spec
// §4.7.4): up to 3 key phrases become one main rect plus up to two detail
// rects, prefixed by a topic emoji.
func BuildFlowchart(text string, idGen func() string) Patch {
	var phrases []string
	for _, s := range reSentenceSplit.Split(text, -1) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		phrases = append(phrases, s)
		if len(phrases) == 3 {
			break
		}
	}
	if len(phrases) == 0 {
		phrases = []string{"New idea"}
	}

	main := phrases[0]
	emoji := emojiFor(main)
	patch := Patch{Topic: main, DiagramType: TypeFlowchart, Confidence: 0.5}

	mainID := idGen()
	patch.Actions = append(patch.Actions, Action{
		Type: ActionUpsertNode,
		Node: &Node{ID: mainID, X: 0, Y: 0, Width: 620, Height: 190, Label: emoji + " " + truncate(main, 80)},
	})

	prevID := mainID
	for i := 1; i < len(phrases); i++ {
		detailID := idGen()
		patch.Actions = append(patch.Actions, Action{
			Type: ActionUpsertNode,
			Node: &Node{ID: detailID, X: float64(i) * 340, Y: 260, Width: 280, Height: 100, Label: truncate(phrases[i], 60)},
		})
		patch.Actions = append(patch.Actions, Action{
			Type: ActionUpsertEdge,
			Edge: &Edge{ID: idGen(), From: prevID, To: detailID},
		})
		prevID = detailID
	}

	patch.Actions = append(patch.Actions, Action{Type: ActionSetTitle, Title: truncate(main, 48)})
	patch.Actions = append(patch.Actions, Action{Type: ActionLayoutHint, Layout: LayoutTopDown})
	patch.Clamp()
	return patch
}

// BuildDeterministic dispatches to the appropriate builder based on
// DetectType (spec §4.7.1).
func BuildDeterministic(text string, idGen func() string) Patch {
	switch DetectType(text) {
	case TypeTree:
		return BuildTree(text, idGen)
	case TypeSystemBlocks:
		return BuildSystemBlocks(text, idGen)
	default:
		return BuildFlowchart(text, idGen)
	}
}
