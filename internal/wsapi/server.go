// Package wsapi implements the `/ws` WebSocket transport (spec §6, §4.9):
// the upgrade, the client:ack handshake gate, and the read/write pumps
// that funnel every accepted frame through room.ApplyClientMessage and
// fan the resulting snapshot out via internal/broadcast. Grounded in
// `lookatitude-beluga-ai`'s carrying of `gorilla/websocket` as a voice-
// transport dependency (SPEC_FULL.md §B) combined with the teacher's
// internal/realtime per-connection outbound-channel idiom, generalized
// from an SSE one-way push to a full-duplex read/write pump pair.
package wsapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/piyushdatta/senseboard-server/internal/apierr"
	"github.com/piyushdatta/senseboard-server/internal/httpapi"
	"github.com/piyushdatta/senseboard-server/internal/logger"
	"github.com/piyushdatta/senseboard-server/internal/orchestrator"
	"github.com/piyushdatta/senseboard-server/internal/room"
)

func newID() string { return uuid.NewString() }

const (
	writeTimeout   = 10 * time.Second
	outboundBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true }, // spec Non-goals: no auth/origin policy
}

// Server wires the WebSocket endpoint to the room registry, the
// broadcast hub, and the AI orchestration engine.
type Server struct {
	registry *httpapi.Registry
	engine   *orchestrator.Engine
	log      *logger.Logger
}

func NewServer(registry *httpapi.Registry, engine *orchestrator.Engine, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{registry: registry, engine: engine, log: log.With("component", "wsapi.Server")}
}

// Handler returns the http.HandlerFunc for GET /ws?roomId=&name= (spec
// §6: "both params required").
func (s *Server) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := strings.TrimSpace(r.URL.Query().Get("roomId"))
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if roomID == "" || name == "" {
			http.Error(w, "roomId and name query parameters are required", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn("wsapi: upgrade failed", "error", err)
			return
		}

		s.serve(conn, roomID, name)
	}
}

type wsSocket struct {
	conn      *websocket.Conn
	out       chan []byte
	closeOnce sync.Once
}

func newWSSocket(conn *websocket.Conn) *wsSocket {
	return &wsSocket{conn: conn, out: make(chan []byte, outboundBuffer)}
}

// Send implements broadcast.Socket: a non-blocking enqueue onto this
// connection's write pump. A full buffer (a stalled client) is treated
// as a failed send so the hub detaches it rather than blocking the
// broadcaster (spec §5).
func (s *wsSocket) Send(frame []byte) error {
	select {
	case s.out <- frame:
		return nil
	default:
		return fmt.Errorf("wsapi: outbound buffer full")
	}
}

func (s *wsSocket) writePump() {
	for frame := range s.out {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			s.close()
			return
		}
	}
}

func (s *wsSocket) close() {
	s.closeOnce.Do(func() {
		close(s.out)
		_ = s.conn.Close()
	})
}

type outFrame struct {
	Type      string    `json:"type"`
	Protocol  string    `json:"protocol,omitempty"`
	RoomID    string    `json:"roomId,omitempty"`
	MemberID  string    `json:"memberId,omitempty"`
	ReceivedAt time.Time `json:"receivedAt,omitempty"`
	Message   string    `json:"message,omitempty"`
}

func (s *Server) serve(conn *websocket.Conn, roomID, name string) {
	socket := newWSSocket(conn)
	go socket.writePump()

	var memberID string
	s.registry.WithRoom(roomID, func(st *room.State) {
		m := st.Join(name, time.Now(), newID)
		memberID = m.ID
	})
	s.registry.Broadcast(roomID)

	token := s.registry.Attach(roomID, socket)
	defer func() {
		s.registry.Detach(roomID, token)
		socket.close()
	}()

	acked := false

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg room.ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			sendFrame(socket, outFrame{Type: "room:error", Message: "Invalid websocket message payload."})
			continue
		}

		if !acked {
			if msg.Type != room.MsgClientAck {
				sendFrame(socket, outFrame{Type: "room:error", Message: "Handshake required: first message must be client:ack."})
				continue
			}
			acked = true
			sendFrame(socket, outFrame{
				Type:       "server:ack",
				Protocol:   "senseboard-ws-v1",
				RoomID:     roomID,
				MemberID:   memberID,
				ReceivedAt: time.Now(),
			})
			continue
		}

		if msg.Type == room.MsgClientAck {
			continue // repeat ack frames are ignored once handshake is established
		}

		s.dispatch(roomID, name, msg, socket)
	}
}

func (s *Server) dispatch(roomID, name string, msg room.ClientMessage, socket *wsSocket) {
	var applyErr error
	var chunkCount int
	s.registry.WithRoom(roomID, func(st *room.State) {
		applyErr = st.ApplyClientMessage(name, msg, time.Now(), newID)
		chunkCount = len(st.TranscriptChunks)
	})

	if applyErr != nil {
		message := applyErr.Error()
		if apiErr, ok := applyErr.(*apierr.Error); ok && apiErr.Err != nil {
			message = apiErr.Err.Error()
		}
		sendFrame(socket, outFrame{Type: "room:error", Message: message})
		return
	}

	s.registry.Broadcast(roomID)
	s.engine.Enqueue(roomID, room.Trigger{Reason: room.ReasonTick, TranscriptChunkCount: chunkCount}, false)
	s.engine.RequestPersonalUpdate(roomID, name, room.Trigger{Reason: room.ReasonTick})
}

func sendFrame(socket *wsSocket, frame outFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	_ = socket.Send(data)
}
