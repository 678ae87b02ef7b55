package orchestrator

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/piyushdatta/senseboard-server/internal/room"
)

type fakeStore struct {
	mu        sync.Mutex
	rooms     map[string]*room.State
	broadcast int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rooms: make(map[string]*room.State)}
}

func (f *fakeStore) ensure(roomID string) *room.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rooms[roomID]
	if !ok {
		s = room.New(roomID, time.Now())
		f.rooms[roomID] = s
	}
	return s
}

func (f *fakeStore) WithRoom(roomID string, fn func(s *room.State)) bool {
	f.mu.Lock()
	s, ok := f.rooms[roomID]
	f.mu.Unlock()
	if !ok {
		return false
	}
	fn(s)
	return true
}

func (f *fakeStore) Broadcast(roomID string) {
	f.mu.Lock()
	f.broadcast++
	f.mu.Unlock()
}

func TestEngineRunJobReturnsFrozenWhenRoomIsFrozen(t *testing.T) {
	store := newFakeStore()
	s := store.ensure("r1")
	s.AIConfig.Frozen = true
	e := NewEngine(store, nil, zap.NewNop())

	done := e.Enqueue("r1", room.Trigger{Reason: room.ReasonManual}, true)
	outcome := <-done
	if outcome.Applied || outcome.Reason != "frozen" {
		t.Fatalf("outcome = %+v, want {Applied:false Reason:frozen}", outcome)
	}
}

func TestEngineRunJobReturnsNoSignalForEmptyTick(t *testing.T) {
	store := newFakeStore()
	store.ensure("r1")
	e := NewEngine(store, nil, zap.NewNop())

	done := e.Enqueue("r1", room.Trigger{Reason: room.ReasonTick}, true)
	outcome := <-done
	if outcome.Applied || outcome.Reason != "no_signal" {
		t.Fatalf("outcome = %+v, want {Applied:false Reason:no_signal}", outcome)
	}
}

func TestEngineRunJobFallsBackToDeterministicTranscriptWithNoChain(t *testing.T) {
	store := newFakeStore()
	s := store.ensure("r1")
	s.TranscriptChunks = append(s.TranscriptChunks, room.TranscriptChunk{
		ID: "c1", Speaker: "alice", Text: "let's draw a tree diagram", Source: room.TranscriptSourceTyped, CreatedAt: time.Now(),
	})
	e := NewEngine(store, nil, zap.NewNop())

	done := e.Enqueue("r1", room.Trigger{Reason: room.ReasonManual}, true)
	outcome := <-done
	if !outcome.Applied {
		t.Fatalf("outcome = %+v, want Applied:true via deterministic fallback", outcome)
	}
	if outcome.PatchKind != "board_ops" {
		t.Errorf("PatchKind = %s, want board_ops", outcome.PatchKind)
	}
	if store.broadcast == 0 {
		t.Error("expected at least one broadcast after an applied job")
	}
}

func TestEngineConsecutiveRegeneratesWithUnchangedInputBothApply(t *testing.T) {
	store := newFakeStore()
	s := store.ensure("r1")
	s.TranscriptChunks = append(s.TranscriptChunks, room.TranscriptChunk{
		ID: "c1", Speaker: "alice", Text: "let's draw a tree diagram", Source: room.TranscriptSourceTyped, CreatedAt: time.Now(),
	})
	e := NewEngine(store, nil, zap.NewNop())

	trigger := room.Trigger{Reason: room.ReasonManual, Regenerate: true}

	first := <-e.Enqueue("r1", trigger, true)
	if !first.Applied {
		t.Fatalf("first outcome = %+v, want Applied:true", first)
	}

	// No new transcript/chat between calls: the fingerprint is identical,
	// but a regenerate job must never dedup against LastAIFingerprint
	// (that dedup applies to ticks only).
	second := <-e.Enqueue("r1", trigger, true)
	if !second.Applied {
		t.Fatalf("second outcome = %+v, want Applied:true (regenerate must not dedup)", second)
	}

	if got := len(s.AIHistory); got < 2 {
		t.Fatalf("len(AIHistory) = %d, want at least 2 stacked patches", got)
	}
}

func TestEngineUnknownRoomReturnsNotApplied(t *testing.T) {
	store := newFakeStore()
	e := NewEngine(store, nil, zap.NewNop())
	// No ensure() call: WithRoom returns false, so runJob's outcome stays
	// the zero Outcome{Applied:false}.
	done := e.Enqueue("missing-room", room.Trigger{Reason: room.ReasonManual}, true)
	outcome := <-done
	if outcome.Applied {
		t.Fatalf("outcome = %+v, want Applied:false for an unknown room", outcome)
	}
}
