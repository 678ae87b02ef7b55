package orchestrator

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/piyushdatta/senseboard-server/internal/board"
)

const maxAutoLabels = 10

// AutoLabel synthesizes short text labels for visual anchors (non-text
// filled shapes) that have no nearby text anchor, when the overall text
// coverage falls below the spec's threshold (spec §4.4 step 7). It
// mutates env.Ops in place by appending upsertElement ops for new text
// labels, drawn from summary, then text lines, then the last transcript
// lines, in that priority order.
func AutoLabel(env *Envelope, transcriptWindow []string, now time.Time) {
	visuals, texts := splitAnchors(env.Ops)
	if len(visuals) == 0 {
		return
	}
	needed := int(math.Ceil(0.75 * float64(len(visuals))))
	if len(texts) >= needed {
		return
	}

	labelSource := labelLines(env.Summary, env.Text, transcriptWindow)
	if len(labelSource) == 0 {
		return
	}

	labelIdx := 0
	for _, v := range visuals {
		if labelIdx >= maxAutoLabels || labelIdx >= len(labelSource) {
			break
		}
		if hasNearbyText(v, texts) {
			continue
		}
		label := labelSource[labelIdx]
		labelIdx++
		vx, vy, vw, vh := v.BBox()
		env.Ops = append(env.Ops, board.Op{
			Type: board.OpUpsertElement,
			Element: &board.Element{
				ID:        fmt.Sprintf("autolabel_%d_%s", labelIdx, v.ID),
				Kind:      board.KindText,
				CreatedAt: now,
				CreatedBy: board.AICreator,
				X:         vx,
				Y:         vy + vh + 8,
				Text:      label,
			},
		})
		texts = append(texts, *env.Ops[len(env.Ops)-1].Element)
		_ = vw
	}
}

func splitAnchors(ops []board.Op) (visuals, texts []board.Element) {
	for _, op := range ops {
		if op.Type != board.OpUpsertElement || op.Element == nil {
			continue
		}
		el := *op.Element
		if el.Kind == board.KindText {
			texts = append(texts, el)
		} else if el.Kind.IsRectLike() {
			visuals = append(visuals, el)
		}
	}
	return visuals, texts
}

func hasNearbyText(visual board.Element, texts []board.Element) bool {
	vx, vy, vw, vh := visual.BBox()
	marginX := math.Max(120, 0.55*vw)
	marginY := math.Max(90, 0.45*vh)
	for _, t := range texts {
		if math.Abs(t.X-vx) <= marginX && math.Abs(t.Y-vy) <= marginY {
			return true
		}
	}
	return false
}

func labelLines(summary, text string, transcriptWindow []string) []string {
	var out []string
	if s := strings.TrimSpace(summary); s != "" {
		out = append(out, truncateLabel(s))
	}
	if t := strings.TrimSpace(text); t != "" {
		out = append(out, truncateLabel(t))
	}
	for i := len(transcriptWindow) - 1; i >= 0 && len(out) < maxAutoLabels; i-- {
		if l := strings.TrimSpace(transcriptWindow[i]); l != "" {
			out = append(out, truncateLabel(l))
		}
	}
	return out
}

func truncateLabel(s string) string {
	const max = 48
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max]) + "…"
}
