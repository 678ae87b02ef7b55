package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/piyushdatta/senseboard-server/internal/board"
	"github.com/piyushdatta/senseboard-server/internal/config"
	"github.com/piyushdatta/senseboard-server/internal/prompts"
	"github.com/piyushdatta/senseboard-server/internal/room"
)

// PersonalBoardState is one participant's own board within a room (spec
// §4.6): its own element set, its own pacing/fingerprint bookkeeping,
// entirely separate from the room's shared board.
type PersonalBoardState struct {
	Board             *board.State
	LastAIPatchAt     time.Time
	LastAIFingerprint string
	UpdatedAt         time.Time
}

// ContextProvider resolves a participant's stored personalization
// context lines (spec §4.6's "supplies the participant's stored context
// lines"). Backed by internal/personalization once wired in main; nil is
// valid and yields no context lines.
type ContextProvider interface {
	ContextLines(memberName string, max int) []string
}

type personalKey struct {
	roomID string
	member string
}

// personalEngine implements spec §4.6's deferred per-room consolidation:
// triggers for any member in a room arm or refresh a single per-room
// timer; when it fires, each pending member's job waits for the main
// room queue to drain before running, so a personalized update never
// races ahead of the shared board update it should reflect.
type personalEngine struct {
	engine *Engine
	ctx    ContextProvider

	mu      sync.Mutex
	pending map[string]map[string]room.Trigger
	timers  map[string]*time.Timer

	boardsMu sync.Mutex
	boards   map[personalKey]*PersonalBoardState
}

func newPersonalEngine(e *Engine) *personalEngine {
	return &personalEngine{
		engine:  e,
		pending: make(map[string]map[string]room.Trigger),
		timers:  make(map[string]*time.Timer),
		boards:  make(map[personalKey]*PersonalBoardState),
	}
}

// SetContextProvider wires the personalization store once it's
// constructed; safe to call before any RequestUpdate.
func (p *personalEngine) SetContextProvider(cp ContextProvider) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctx = cp
}

// RequestUpdate merges trigger into the pending set for (roomID,
// memberName) and (re)arms the per-room defer timer (spec §4.6,
// §4.2's "deferred personal timer").
func (p *personalEngine) RequestUpdate(roomID, memberName string, trigger room.Trigger) {
	p.mu.Lock()
	defer p.mu.Unlock()

	members, ok := p.pending[roomID]
	if !ok {
		members = make(map[string]room.Trigger)
		p.pending[roomID] = members
	}
	if existing, ok := members[memberName]; ok {
		if trigger.TranscriptChunkCount < existing.TranscriptChunkCount {
			trigger.TranscriptChunkCount = existing.TranscriptChunkCount
		}
		trigger.Regenerate = trigger.Regenerate || existing.Regenerate
	}
	members[memberName] = trigger

	if timer, ok := p.timers[roomID]; ok {
		timer.Stop()
	}
	delay := time.Duration(config.PersonalAIDeferAfterMainMS) * time.Millisecond
	p.timers[roomID] = time.AfterFunc(delay, func() { p.fire(roomID) })
}

func (p *personalEngine) fire(roomID string) {
	p.mu.Lock()
	members := p.pending[roomID]
	delete(p.pending, roomID)
	delete(p.timers, roomID)
	p.mu.Unlock()

	if len(members) == 0 {
		return
	}

	p.waitForMainQueueDrain(roomID)

	for member, trigger := range members {
		p.runPersonalJob(roomID, member, trigger)
	}
}

// waitForMainQueueDrain polls the room's main queue with a small slice,
// capped at PersonalQueueWaitCap (spec §4.6, §5).
func (p *personalEngine) waitForMainQueueDrain(roomID string) {
	p.engine.mu.Lock()
	q, ok := p.engine.queues[roomID]
	p.engine.mu.Unlock()
	if !ok {
		return
	}
	deadline := time.Now().Add(config.PersonalQueueWaitCap)
	for q.len() > 0 && time.Now().Before(deadline) {
		time.Sleep(config.PersonalQueueWaitSlice)
	}
}

func (p *personalEngine) runPersonalJob(roomID, memberName string, trigger room.Trigger) {
	key := personalKey{roomID: roomID, member: memberName}

	p.boardsMu.Lock()
	pb, ok := p.boards[key]
	if !ok {
		pb = &PersonalBoardState{Board: board.NewState()}
		p.boards[key] = pb
	}
	p.boardsMu.Unlock()

	var in room.AIInput
	found := p.engine.store.WithRoom(roomID, func(s *room.State) {
		in = s.BuildAIInput(trigger)
	})
	if !found {
		return
	}

	p.mu.Lock()
	cp := p.ctx
	p.mu.Unlock()
	var contextLines []string
	if cp != nil {
		contextLines = cp.ContextLines(memberName, config.ContextItemsCap)
	}

	now := timeNow()
	fp := Fingerprint(in, "personal_board_ops:"+memberName)
	if fp == pb.LastAIFingerprint && !trigger.Regenerate {
		return
	}

	ops := p.generatePersonalOps(in, contextLines, pb.Board, now)
	if len(ops) == 0 {
		return
	}

	beforeRev := pb.Board.Revision
	prefix, stacked := StackLayer(pb.Board, ops, now, randSuffix())
	_ = prefix
	pb.Board.ApplyOps(stacked, now)
	pb.Board.ClampToCanvasBoundsInPlace(board.DefaultCanvas)
	if pb.Board.Revision == beforeRev {
		return
	}

	pb.LastAIPatchAt = now
	pb.LastAIFingerprint = fp
	pb.UpdatedAt = now
}

func (p *personalEngine) generatePersonalOps(in room.AIInput, contextLines []string, existing *board.State, now time.Time) []board.Op {
	if p.engine.chain == nil || p.engine.chain.Empty() {
		return DeterministicTranscriptFallback(in.TranscriptWindow, countFallbackSlots(existing), now)
	}

	system := prompts.PersonalSystem(contextLines)
	user := prompts.User(in.CorrectionDirectives, contextTexts(in.ContextPinnedHigh), contextTexts(in.ContextPinnedNormal), in.TranscriptWindow, in.VisualHint, in.CurrentDiagramSummary)

	raw, _, err := p.engine.chain.CompleteJSON(context.Background(), system, user)
	if err != nil || raw == "" {
		return DeterministicTranscriptFallback(in.TranscriptWindow, countFallbackSlots(existing), now)
	}

	env, ok := CoerceEnvelope(raw)
	if !ok || len(env.Ops) == 0 {
		return DeterministicTranscriptFallback(in.TranscriptWindow, countFallbackSlots(existing), now)
	}
	AutoLabel(&env, in.TranscriptWindow, now)
	return env.Ops
}

// Snapshot returns the personal board for (roomID, memberName), if one
// has been created yet, for the personal-board read route (spec §6).
func (p *personalEngine) Snapshot(roomID, memberName string) (*PersonalBoardState, bool) {
	p.boardsMu.Lock()
	defer p.boardsMu.Unlock()
	pb, ok := p.boards[personalKey{roomID: roomID, member: memberName}]
	return pb, ok
}

// RequestPersonalUpdate is the engine's public entry point for a
// personalized AI trigger (spec §4.6).
func (e *Engine) RequestPersonalUpdate(roomID, memberName string, trigger room.Trigger) {
	e.personal.RequestUpdate(roomID, memberName, trigger)
}

// PersonalSnapshot exposes the personal board engine's Snapshot lookup.
func (e *Engine) PersonalSnapshot(roomID, memberName string) (*PersonalBoardState, bool) {
	return e.personal.Snapshot(roomID, memberName)
}

// SetContextProvider wires the personalization store into the
// personalized board engine.
func (e *Engine) SetContextProvider(cp ContextProvider) {
	e.personal.SetContextProvider(cp)
}
