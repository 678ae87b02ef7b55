package orchestrator

import (
	"sync"
	"time"

	"github.com/piyushdatta/senseboard-server/internal/config"
	"github.com/piyushdatta/senseboard-server/internal/room"
)

// idleTracker arms a single per-room idle timer, transitioning
// aiConfig.status -> idle after config.AIIdleAfterInactivityMS of
// inactivity with no subsequent activity (spec §4.2's idle state
// machine). One tracker is shared across every room via a map keyed by
// room id, mirroring the teacher's per-room state maps' "single mutex
// guarding a map" shape.
type idleTracker struct {
	mu        sync.Mutex
	lastSeen  map[string]time.Time
	timers    map[string]*time.Timer
	onIdle    func(roomID string)
}

func newIdleTracker(onIdle func(roomID string)) *idleTracker {
	return &idleTracker{
		lastSeen: make(map[string]time.Time),
		timers:   make(map[string]*time.Timer),
		onIdle:   onIdle,
	}
}

// touch stamps activity for roomID and (re)arms the idle timer.
func (t *idleTracker) touch(roomID string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSeen[roomID] = now
	if existing, ok := t.timers[roomID]; ok {
		existing.Stop()
	}
	delay := time.Duration(config.AIIdleAfterInactivityMS) * time.Millisecond
	t.timers[roomID] = time.AfterFunc(delay, func() {
		t.fire(roomID, delay)
	})
}

func (t *idleTracker) fire(roomID string, delay time.Duration) {
	t.mu.Lock()
	last, ok := t.lastSeen[roomID]
	t.mu.Unlock()
	if !ok {
		return
	}
	if time.Since(last) < delay {
		// Activity landed between the timer firing and this check; a new
		// timer was already armed by touch, so do nothing.
		return
	}
	if t.onIdle != nil {
		t.onIdle(roomID)
	}
}

func (t *idleTracker) stop(roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[roomID]; ok {
		timer.Stop()
		delete(t.timers, roomID)
	}
	delete(t.lastSeen, roomID)
}

// nextStatus applies the transition graph from spec §4.2: any status
// goes to frozen when aiConfig.frozen is set; frozen returns to idle
// when unfrozen; otherwise idle -> listening on input, listening ->
// updating on a run start, updating -> listening on a run end.
func nextStatus(current room.AIStatus, frozen bool, event string) room.AIStatus {
	if frozen {
		return room.AIStatusFrozen
	}
	if current == room.AIStatusFrozen {
		return room.AIStatusIdle
	}
	switch event {
	case "input":
		if current == room.AIStatusIdle {
			return room.AIStatusListening
		}
		return current
	case "run_start":
		return room.AIStatusUpdating
	case "run_end":
		return room.AIStatusListening
	case "idle_timeout":
		return room.AIStatusIdle
	default:
		return current
	}
}
