package orchestrator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/piyushdatta/senseboard-server/internal/board"
	"github.com/piyushdatta/senseboard-server/internal/config"
)

// StackLayer applies spec §4.5's layer-stacking discipline: existing
// AI-created elements are shifted down (dropping any that fall below the
// boundary), then the incoming ops are namespaced under a fresh layer
// prefix so they can never collide with a prior layer, before being
// applied to the board. Returns the fresh layer prefix so the caller can
// record it as RoomState.LastAILayerPrefix for diagram:undoAi.
func StackLayer(b *board.State, newOps []board.Op, now time.Time, randSuffix string) (prefix string, rewritten []board.Op) {
	shiftOps := shiftExistingAILayers(b, now)
	prefix = fmt.Sprintf("layer_%s_%s", base36Time(now), randSuffix)
	rewritten = namespaceOps(newOps, prefix)
	return prefix, append(shiftOps, rewritten...)
}

// shiftExistingAILayers shifts every ai-created element down by
// config.AILayerShiftY, dropping ones that land entirely below
// config.AILayerBoundaryY, and returns the ops that perform that shift.
func shiftExistingAILayers(b *board.State, now time.Time) []board.Op {
	var ops []board.Op
	for _, id := range append([]string(nil), b.Order...) {
		el := b.Elements[id]
		if el == nil || el.CreatedBy != board.AICreator {
			continue
		}
		shifted := el.Clone()
		if shifted.Kind.IsLineLike() {
			for i := range shifted.Points {
				shifted.Points[i].Y += config.AILayerShiftY
			}
		} else {
			shifted.Y += config.AILayerShiftY
		}
		if board.LowerBoundaryDropCandidate(shifted, config.AILayerBoundaryY) {
			ops = append(ops, board.Op{Type: board.OpDeleteElement, ID: id})
			continue
		}
		ops = append(ops, board.Op{Type: board.OpOffsetElement, ID: id, DX: 0, DY: config.AILayerShiftY})
	}
	return ops
}

// namespaceOps prefixes every element id a new op touches with prefix,
// recursing into batch ops, and drops any clearBoard op so older layers
// are preserved (spec §4.5).
func namespaceOps(ops []board.Op, prefix string) []board.Op {
	out := make([]board.Op, 0, len(ops))
	for _, op := range ops {
		if op.Type == board.OpClearBoard {
			continue
		}
		namespaced := op
		if op.ID != "" {
			namespaced.ID = prefix + ":" + op.ID
		}
		if op.Element != nil {
			el := *op.Element
			el.ID = prefix + ":" + el.ID
			el.CreatedBy = board.AICreator
			namespaced.Element = &el
		}
		if op.NewID != "" {
			namespaced.NewID = prefix + ":" + op.NewID
		}
		if len(op.IDs) > 0 {
			ids := make([]string, len(op.IDs))
			for i, id := range op.IDs {
				ids[i] = prefix + ":" + id
			}
			namespaced.IDs = ids
		}
		if op.Type == board.OpBatch {
			namespaced.Ops = namespaceOps(op.Ops, prefix)
		}
		out = append(out, namespaced)
	}
	return out
}

func base36Time(now time.Time) string {
	return strings.ToLower(strconv.FormatInt(now.UnixNano(), 36))
}
