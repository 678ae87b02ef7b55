package orchestrator

import (
	"fmt"
	"time"

	"github.com/piyushdatta/senseboard-server/internal/board"
)

const (
	fallbackRectW     = 980.0
	fallbackRectH     = 120.0
	fallbackGapY      = 56.0
	fallbackMaxLines  = 6
	fallbackSlotPrefix = "fallback_slot_"
)

// DeterministicTranscriptFallback renders a column of rectangles (no
// title element is emitted), one per recent transcript line, connected top-to-bottom by arrows, and
// deletes stale slots so the rendering is a fixed-capacity ring (spec
// §4.4: "Deterministic transcript fallback"). existingSlotCount is how
// many fallback slots the previous rendering used, so stale ones beyond
// the new line count are cleared.
func DeterministicTranscriptFallback(transcriptWindow []string, existingSlotCount int, now time.Time) []board.Op {
	lines := transcriptWindow
	if len(lines) > fallbackMaxLines {
		lines = lines[len(lines)-fallbackMaxLines:]
	}

	var ops []board.Op
	var prevID string
	for i, line := range lines {
		id := fmt.Sprintf("%s%d", fallbackSlotPrefix, i)
		ops = append(ops, board.Op{
			Type: board.OpUpsertElement,
			Element: &board.Element{
				ID:        id,
				Kind:      board.KindRect,
				CreatedAt: now,
				CreatedBy: board.AICreator,
				X:         0,
				Y:         float64(i) * (fallbackRectH + fallbackGapY),
				W:         fallbackRectW,
				H:         fallbackRectH,
				Text:      truncateLabel(line),
			},
		})
		if prevID != "" {
			ops = append(ops, board.Op{
				Type: board.OpUpsertElement,
				Element: &board.Element{
					ID:        fmt.Sprintf("%sarrow_%d", fallbackSlotPrefix, i),
					Kind:      board.KindArrow,
					CreatedAt: now,
					CreatedBy: board.AICreator,
					Points: []board.Point{
						{X: fallbackRectW / 2, Y: float64(i-1)*(fallbackRectH+fallbackGapY) + fallbackRectH},
						{X: fallbackRectW / 2, Y: float64(i) * (fallbackRectH + fallbackGapY)},
					},
				},
			})
		}
		prevID = id
	}

	for i := len(lines); i < existingSlotCount; i++ {
		ops = append(ops, board.Op{Type: board.OpDeleteElement, ID: fmt.Sprintf("%s%d", fallbackSlotPrefix, i)})
		ops = append(ops, board.Op{Type: board.OpDeleteElement, ID: fmt.Sprintf("%sarrow_%d", fallbackSlotPrefix, i)})
	}
	return ops
}
