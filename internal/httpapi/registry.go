// Package httpapi is the HTTP transport shell (spec §6): gin router,
// CORS, and the REST handlers for room creation/lookup, AI patching,
// transcription, and personalization. Grounded in the teacher's
// internal/server (gin.Engine + gin-contrib/cors) and internal/handlers
// (one handler struct per resource, narrow service-interface fields)
// conventions.
package httpapi

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/piyushdatta/senseboard-server/internal/broadcast"
	"github.com/piyushdatta/senseboard-server/internal/logger"
	"github.com/piyushdatta/senseboard-server/internal/room"
)

// roomEntry pairs a room's state with the mutex serializing every
// mutation against it (spec §5: "room state reads/writes MUST be
// serialized per room").
type roomEntry struct {
	mu    sync.Mutex
	state *room.State
}

// Registry is the process-wide room map plus broadcast hub. It
// implements orchestrator.RoomStore so the AI orchestration engine can
// look up and broadcast rooms without importing the transport package.
type Registry struct {
	log *logger.Logger
	hub *broadcast.Hub

	mu    sync.RWMutex
	rooms map[string]*roomEntry
}

func NewRegistry(hub *broadcast.Hub, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{log: log.With("component", "httpapi.Registry"), hub: hub, rooms: make(map[string]*roomEntry)}
}

// getOrCreate returns the entry for roomID, creating a fresh RoomState on
// first reference (spec §3: "rooms are created on demand").
func (r *Registry) getOrCreate(roomID string) *roomEntry {
	r.mu.RLock()
	e, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.rooms[roomID]; ok {
		return e
	}
	e = &roomEntry{state: room.New(roomID, time.Now())}
	r.rooms[roomID] = e
	return e
}

// WithRoom implements orchestrator.RoomStore: runs fn with roomID's
// state locked, creating the room if it does not yet exist. Returns
// false only if roomID is empty.
func (r *Registry) WithRoom(roomID string, fn func(s *room.State)) bool {
	if roomID == "" {
		return false
	}
	e := r.getOrCreate(roomID)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.state)
	return true
}

// Lookup reports whether roomID already exists without creating it.
func (r *Registry) Lookup(roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID]
	return ok
}

// Snapshot builds the exact shape broadcast to clients (spec §4.9:
// "room:snapshot{...full room state...}"), copying nothing deeper than
// JSON-marshal-time aliasing since callers only ever marshal it.
type Snapshot struct {
	Type string       `json:"type"`
	Room *room.State  `json:"room"`
}

// Broadcast implements orchestrator.RoomStore: builds the current
// snapshot for roomID under its lock and fans it out via the hub.
func (r *Registry) Broadcast(roomID string) {
	e := r.getOrCreate(roomID)
	e.mu.Lock()
	snap := Snapshot{Type: "room:snapshot", Room: e.state}
	e.mu.Unlock()
	if r.hub != nil {
		r.hub.Send(roomID, snap)
	}
}

// SocketCount exposes the hub's attachment count for health/debug.
func (r *Registry) SocketCount(roomID string) int {
	if r.hub == nil {
		return 0
	}
	return r.hub.Count(roomID)
}

// Attach registers a broadcast.Socket (the wsapi connection wrapper)
// under roomID, so this Registry's Broadcast sends reach it. Exposed so
// wsapi never needs to import internal/broadcast directly.
func (r *Registry) Attach(roomID string, socket broadcast.Socket) uuid.UUID {
	if r.hub == nil {
		return uuid.Nil
	}
	return r.hub.Attach(roomID, socket)
}

// Detach removes a socket previously registered with Attach.
func (r *Registry) Detach(roomID string, token uuid.UUID) {
	if r.hub == nil {
		return
	}
	r.hub.Detach(roomID, token)
}
