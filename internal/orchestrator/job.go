// Package orchestrator implements the AI orchestration engine (spec
// §4.2-§4.6): a per-room serialized job queue, the board-ops generation
// pipeline with response coercion/salvage and auto-labeling, AI-layer
// stacking, the idle state machine, and the personalized board engine.
// Grounded in the teacher's internal/jobs/worker.Worker goroutine-pool
// idiom (claim-dispatch-recover), adapted from a DB-backed job queue to
// an in-memory per-room queue since a whiteboard room has no durable job
// table.
package orchestrator

import (
	"time"

	"github.com/piyushdatta/senseboard-server/internal/room"
)

// Reason mirrors room.TriggerReason but is spelled out here since the
// queue also needs the "regenerate" flag as an independent bit (spec
// §4.2: reason=manual/tick/regenerate are triggers, but "regenerate" is
// also a modifier on any reason in the Run contract).
type Reason = room.TriggerReason

const (
	ReasonManual     = room.ReasonManual
	ReasonTick       = room.ReasonTick
	ReasonRegenerate = room.ReasonRegenerate
)

// Job is one unit of work in a room's FIFO queue (spec §4.2).
type Job struct {
	RoomID               string
	Reason               Reason
	Regenerate           bool
	TranscriptChunkCount int
	WindowSeconds        int
	EnqueuedAt           time.Time
	Done                 chan Outcome
}

// Outcome is the Run contract's result (spec §4.2 step 8 / §6's
// ai-patch response): PatchKind is "board_ops" or "diagram_patch" on
// success; Applied is false with Reason set to one of the
// spec-enumerated skip/error reasons otherwise.
type Outcome struct {
	Applied   bool
	Reason    string
	PatchKind string
	Error     error
}

// mergeable reports whether b (a newly queued job) can be folded into a
// (an already-queued tick job) per spec §4.2: only two tick jobs with
// regenerate=false merge; manual/regenerate jobs never merge away.
func mergeable(a, b Job) bool {
	return a.Reason == ReasonTick && !a.Regenerate && b.Reason == ReasonTick && !b.Regenerate
}

func mergeInto(a *Job, b Job) {
	if b.TranscriptChunkCount > a.TranscriptChunkCount {
		a.TranscriptChunkCount = b.TranscriptChunkCount
	}
	if b.WindowSeconds > a.WindowSeconds {
		a.WindowSeconds = b.WindowSeconds
	}
}
