package orchestrator

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/piyushdatta/senseboard-server/internal/aiprovider"
	"github.com/piyushdatta/senseboard-server/internal/board"
	"github.com/piyushdatta/senseboard-server/internal/config"
	"github.com/piyushdatta/senseboard-server/internal/diagram"
	"github.com/piyushdatta/senseboard-server/internal/prompts"
	"github.com/piyushdatta/senseboard-server/internal/room"
)

// RoomStore is the minimal surface the engine needs over the live room
// registry: look up a room's state under its own lock, and broadcast its
// post-mutation snapshot. Concrete wiring lives in the transport layer;
// this interface only exists so the engine can be unit-tested against a
// fake, mirroring the teacher's worker.go taking a narrow repo interface
// rather than a concrete struct.
type RoomStore interface {
	WithRoom(roomID string, fn func(s *room.State)) bool
	Broadcast(roomID string)
}

// Engine runs one goroutine per room queue, draining jobs in strict FIFO
// order (spec §4.2, §5's "exactly one in-flight AI job per roomId").
// Grounded in the teacher's internal/jobs/worker.Worker: a claim loop per
// logical shard, recovering from panics so one bad job can't wedge the
// pool, adapted from a DB-polled queue to an in-memory channel-signaled
// one since there is no durable job table here.
type Engine struct {
	store RoomStore
	chain *aiprovider.Chain
	log   *zap.Logger

	idle *idleTracker

	mu      sync.Mutex
	queues  map[string]*roomQueue
	running map[string]bool

	personal *personalEngine
}

func NewEngine(store RoomStore, chain *aiprovider.Chain, log *zap.Logger) *Engine {
	e := &Engine{
		store:   store,
		chain:   chain,
		log:     log,
		queues:  make(map[string]*roomQueue),
		running: make(map[string]bool),
	}
	e.idle = newIdleTracker(e.onIdleTimeout)
	e.personal = newPersonalEngine(e)
	return e
}

// Enqueue submits a job for roomID, starting that room's drain goroutine
// if it is not already running, and returns the (possibly nil) Done
// channel the caller should wait on. Done is created only when
// waitForResult is set, and the queue folds only tick jobs without a Done
// channel into an already-queued tick job, so every channel handed back
// here is answered exactly once (by the run or by an overflow drop).
func (e *Engine) Enqueue(roomID string, trigger room.Trigger, waitForResult bool) <-chan Outcome {
	e.idle.touch(roomID, timeNow())

	job := Job{
		RoomID:               roomID,
		Reason:               trigger.Reason,
		Regenerate:           trigger.Regenerate,
		TranscriptChunkCount: trigger.TranscriptChunkCount,
		EnqueuedAt:           timeNow(),
	}
	if waitForResult {
		job.Done = make(chan Outcome, 1)
	}

	e.mu.Lock()
	q, ok := e.queues[roomID]
	if !ok {
		q = &roomQueue{}
		e.queues[roomID] = q
	}
	alreadyRunning := e.running[roomID]
	e.running[roomID] = true
	e.mu.Unlock()

	if dropped := q.enqueue(job); dropped != nil && dropped.Done != nil {
		dropped.Done <- Outcome{Applied: false, Reason: "queue_overflow"}
		close(dropped.Done)
	}

	if !alreadyRunning {
		go e.drain(roomID, q)
	}

	return job.Done
}

// drain runs every job currently (or subsequently) queued for roomID,
// one at a time, until the queue is empty, then clears the running flag.
// Because a job can be enqueued between the last dequeue and the flag
// being cleared, it re-checks for stragglers before exiting.
func (e *Engine) drain(roomID string, q *roomQueue) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("orchestrator: recovered panic draining room queue", zap.String("roomId", roomID), zap.Any("panic", r))
		}
		e.mu.Lock()
		e.running[roomID] = false
		e.mu.Unlock()
		if q.len() > 0 {
			e.mu.Lock()
			stillNotRunning := !e.running[roomID]
			if stillNotRunning {
				e.running[roomID] = true
			}
			e.mu.Unlock()
			if stillNotRunning {
				go e.drain(roomID, q)
			}
		}
	}()

	for {
		job, ok := q.dequeue()
		if !ok {
			return
		}
		outcome := e.runJob(job)
		if job.Done != nil {
			job.Done <- outcome
			close(job.Done)
		}
	}
}

// runJob implements the Run contract (spec §4.2 steps 1-8).
func (e *Engine) runJob(job Job) Outcome {
	var outcome Outcome
	e.store.WithRoom(job.RoomID, func(s *room.State) {
		now := timeNow()
		trigger := room.Trigger{Reason: job.Reason, Regenerate: job.Regenerate, TranscriptChunkCount: job.TranscriptChunkCount}
		in := s.BuildAIInput(trigger)

		// Step 2: frozen check.
		if s.AIConfig.Frozen && !job.Regenerate {
			outcome = Outcome{Applied: false, Reason: "frozen"}
			return
		}

		// Step 3: minimum-interval pacing (skipped on regenerate).
		if !job.Regenerate {
			elapsed := now.Sub(s.LastAIPatchAt)
			minInterval := time.Duration(config.AIMinIntervalMS) * time.Millisecond
			if elapsed < minInterval {
				time.Sleep(minInterval - elapsed)
				now = timeNow()
			}
		}

		// Step 4: no-signal short-circuit for tick-reason jobs.
		if job.Reason == room.ReasonTick && !in.HasSignal() {
			s.AIConfig.Status = nextStatus(s.AIConfig.Status, s.AIConfig.Frozen, "input")
			outcome = Outcome{Applied: false, Reason: "no_signal"}
			return
		}

		s.AIConfig.Status = nextStatus(s.AIConfig.Status, s.AIConfig.Frozen, "run_start")

		outcome = e.generate(s, in, now)

		s.AIConfig.Status = nextStatus(s.AIConfig.Status, s.AIConfig.Frozen, "run_end")
		s.UpdatedAt = now
	})
	e.idle.touch(job.RoomID, timeNow())
	e.store.Broadcast(job.RoomID)
	return outcome
}

// generate runs generateBoardOps (§4.4), applies layer-stacking (§4.5),
// and falls back to the deterministic diagram patch engine (§4.7) when
// the primary result yields no real mutation. Must be called with the
// room's state already locked by the caller.
func (e *Engine) generate(s *room.State, in room.AIInput, now time.Time) Outcome {
	fp := Fingerprint(in, "board_ops")
	if fp == s.LastAIFingerprint && in.Reason == room.ReasonTick && !in.Regenerate {
		return Outcome{Applied: false, Reason: "no_change"}
	}

	ops, text, summary := e.generateBoardOps(s, in, now)

	beforeRev := s.Board.Revision
	if len(ops) > 0 {
		prefix, stacked := StackLayer(s.Board, ops, now, randSuffix())
		s.Board.ApplyOps(stacked, now)
		s.Board.ClampToCanvasBoundsInPlace(board.DefaultCanvas)
		if s.Board.Revision != beforeRev && hasRenderableOp(ops) {
			s.LastAILayerPrefix = prefix
			s.LastAIPatchAt = now
			s.LastAIFingerprint = fp
			s.AIHistory = appendBounded(s.AIHistory, room.HistoryEntry{
				At: now, Reason: string(in.Reason), Kind: "board_ops", Summary: firstNonEmpty(summary, text), Fingerprint: fp,
			}, config.AIHistoryCap)
			return Outcome{Applied: true, PatchKind: "board_ops"}
		}
	}

	// Step 7: fall back to the deterministic diagram patch engine.
	diagramOps, diagramOK := e.generateDiagramPatch(s, in, now)
	if !diagramOK {
		if in.Reason == room.ReasonTick {
			return Outcome{Applied: false, Reason: "no_change"}
		}
		return Outcome{Applied: false, Reason: "ai_no_response"}
	}

	beforeRev = s.Board.Revision
	prefix, stacked := StackLayer(s.Board, diagramOps, now, randSuffix())
	s.Board.ApplyOps(stacked, now)
	s.Board.ClampToCanvasBoundsInPlace(board.DefaultCanvas)
	if s.Board.Revision == beforeRev {
		if in.Reason == room.ReasonTick {
			return Outcome{Applied: false, Reason: "no_change"}
		}
		return Outcome{Applied: false, Reason: "ai_no_response"}
	}

	diagFp := Fingerprint(in, "diagram_patch")
	s.LastAILayerPrefix = prefix
	s.LastAIPatchAt = now
	s.LastAIFingerprint = diagFp
	s.AIHistory = appendBounded(s.AIHistory, room.HistoryEntry{
		At: now, Reason: string(in.Reason), Kind: "diagram_patch", Fingerprint: diagFp,
	}, config.AIHistoryCap)
	return Outcome{Applied: true, PatchKind: "diagram_patch"}
}

// generateBoardOps implements spec §4.4 steps 2-8: call the provider
// chain, coerce/salvage its response into an Envelope, auto-label
// sparse visuals, and fall back to the deterministic transcript
// rendering when nothing usable came back.
func (e *Engine) generateBoardOps(s *room.State, in room.AIInput, now time.Time) (ops []board.Op, text, summary string) {
	if e.chain == nil || e.chain.Empty() {
		return DeterministicTranscriptFallback(in.TranscriptWindow, countFallbackSlots(s.Board), now), "", ""
	}

	system := prompts.System()
	user := prompts.User(in.CorrectionDirectives, contextTexts(in.ContextPinnedHigh), contextTexts(in.ContextPinnedNormal), in.TranscriptWindow, in.VisualHint, in.CurrentDiagramSummary)

	raw, _, err := e.chain.CompleteJSON(context.Background(), system, user)
	if err != nil || raw == "" {
		return DeterministicTranscriptFallback(in.TranscriptWindow, countFallbackSlots(s.Board), now), "", ""
	}

	env, ok := CoerceEnvelope(raw)
	if !ok || len(env.Ops) == 0 {
		return DeterministicTranscriptFallback(in.TranscriptWindow, countFallbackSlots(s.Board), now), "", ""
	}

	AutoLabel(&env, in.TranscriptWindow, now)
	return env.Ops, env.Text, env.Summary
}

// generateDiagramPatch implements spec §4.7: build (or reuse) the active
// diagram group, run the deterministic builder as a reference, and
// translate the resulting group into board ops. Group resolution
// (topic-shift/pinned-group archival) and cleanup/bounds recomputation
// are delegated entirely to room.State.ApplyDiagramPatch so this
// function never re-decides policy that already lives there.
func (e *Engine) generateDiagramPatch(s *room.State, in room.AIInput, now time.Time) ([]board.Op, bool) {
	text := diagramSourceText(in)
	if text == "" {
		return nil, false
	}

	reference := diagram.BuildDeterministic(text, newIDGen())
	preActive := s.ActiveGroup()

	var cleanupActions []diagram.Action
	if preActive != nil {
		cleanupActions = diagram.DeterministicCleanup(preActive, reference)
	}

	group, _ := s.ApplyDiagramPatch(reference, now, newIDGen())

	var staleOps []board.Op
	if preActive != nil && group.ID == preActive.ID {
		staleOps = diagram.DeleteOpsForStaleShapes(group.ID, cleanupActions)
	}

	ops := diagram.ToBoardOps(group, now)
	return append(staleOps, ops...), len(ops) > 0
}

func (e *Engine) onIdleTimeout(roomID string) {
	e.store.WithRoom(roomID, func(s *room.State) {
		s.AIConfig.Status = nextStatus(s.AIConfig.Status, s.AIConfig.Frozen, "idle_timeout")
	})
	e.store.Broadcast(roomID)
}

func diagramSourceText(in room.AIInput) string {
	var parts []string
	parts = append(parts, in.CorrectionDirectives...)
	parts = append(parts, in.ContextDirectiveLines...)
	for _, m := range in.RecentChat {
		parts = append(parts, m.Text)
	}
	parts = append(parts, in.TranscriptWindow...)
	if in.VisualHint != "" {
		parts = append(parts, in.VisualHint)
	}
	return joinNonEmpty(parts, " ")
}

func contextTexts(items []room.ContextItem) []string {
	out := make([]string, 0, len(items))
	for _, c := range items {
		out = append(out, c.Text)
	}
	return out
}

func hasRenderableOp(ops []board.Op) bool {
	for _, op := range ops {
		if op.IsRenderable() {
			return true
		}
	}
	return false
}

func countFallbackSlots(b *board.State) int {
	n := 0
	for _, id := range b.Order {
		if len(id) > len(fallbackSlotPrefix) && id[:len(fallbackSlotPrefix)] == fallbackSlotPrefix {
			n++
		}
	}
	return n
}

func appendBounded[T any](items []T, item T, limit int) []T {
	items = append(items, item)
	if len(items) > limit {
		items = items[len(items)-limit:]
	}
	return items
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinNonEmpty(parts []string, sep string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}

var idCounter uint64
var idMu sync.Mutex

func newID() string {
	idMu.Lock()
	idCounter++
	n := idCounter
	idMu.Unlock()
	return randSuffix() + "_" + itoa(n)
}

func newIDGen() func() string { return newID }

func randSuffix() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	buf := make([]byte, 6)
	for i := range buf {
		buf[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(buf)
}

func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func timeNow() time.Time { return time.Now() }
