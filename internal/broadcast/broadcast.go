// Package broadcast fans a room's post-mutation snapshot out to every
// socket attached to it (spec §4.9, §5: "best-effort... a send failure to
// a single socket does not abort the broadcast to others"). Grounded in
// the teacher's internal/realtime per-client-outbound-channel hub
// (internal/realtime/client.go, hub_test.go): one buffered channel per
// attached socket, a registry keyed by room id, and a non-blocking send
// that drops (and later detaches) a slow or dead socket rather than
// blocking the broadcaster.
package broadcast

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/piyushdatta/senseboard-server/internal/logger"
)

// Socket is anything a snapshot can be pushed to — the wsapi connection
// wraps its gorilla/websocket conn behind this so broadcast never
// imports the transport package.
type Socket interface {
	// Send delivers one already-marshaled frame. It must not block for
	// long; implementations typically enqueue onto their own write pump.
	Send(frame []byte) error
}

type attachment struct {
	id     uuid.UUID
	socket Socket
}

// Hub is the process-wide socket registry, one bucket per room.
type Hub struct {
	log *logger.Logger

	mu      sync.RWMutex
	rooms   map[string][]attachment
	publish Publisher
}

// Publisher optionally republishes a room's snapshot JSON to other
// processes (spec-supplemented "multi-instance fan-out", SPEC_FULL.md §D).
// The in-process Hub always fans out locally regardless of whether a
// Publisher is wired.
type Publisher interface {
	Publish(roomID string, snapshot []byte) error
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{log: log.With("component", "broadcast.Hub"), rooms: make(map[string][]attachment)}
}

// SetPublisher wires an optional cross-process relay (e.g. Redis).
func (h *Hub) SetPublisher(p Publisher) { h.publish = p }

// Attach registers socket under roomID and returns a detach token to pass
// to Detach on disconnect.
func (h *Hub) Attach(roomID string, socket Socket) uuid.UUID {
	id := uuid.New()
	h.mu.Lock()
	h.rooms[roomID] = append(h.rooms[roomID], attachment{id: id, socket: socket})
	h.mu.Unlock()
	return id
}

// Detach removes one socket from roomID, if present.
func (h *Hub) Detach(roomID string, id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.rooms[roomID]
	out := list[:0:0]
	for _, a := range list {
		if a.id != id {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		delete(h.rooms, roomID)
		return
	}
	h.rooms[roomID] = out
}

// Send marshals snapshot (any JSON-able room view) and pushes it to every
// socket attached to roomID. A failing socket is logged and scheduled for
// detachment; it never aborts delivery to the rest (spec §5).
func (h *Hub) Send(roomID string, snapshot any) {
	frame, err := json.Marshal(snapshot)
	if err != nil {
		h.log.Error("broadcast: marshal snapshot failed", "room_id", roomID, "error", err)
		return
	}

	h.mu.RLock()
	list := append([]attachment(nil), h.rooms[roomID]...)
	h.mu.RUnlock()

	var dead []uuid.UUID
	for _, a := range list {
		if err := a.socket.Send(frame); err != nil {
			h.log.Debug("broadcast: socket send failed, detaching", "room_id", roomID, "error", err)
			dead = append(dead, a.id)
		}
	}
	for _, id := range dead {
		h.Detach(roomID, id)
	}

	if h.publish != nil {
		if err := h.publish.Publish(roomID, frame); err != nil {
			h.log.Debug("broadcast: publisher relay failed", "room_id", roomID, "error", err)
		}
	}
}

// Count reports how many sockets are currently attached to roomID, for
// health/debug surfaces.
func (h *Hub) Count(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
