package wsapi

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/piyushdatta/senseboard-server/internal/aiprovider"
	"github.com/piyushdatta/senseboard-server/internal/broadcast"
	"github.com/piyushdatta/senseboard-server/internal/config"
	"github.com/piyushdatta/senseboard-server/internal/httpapi"
	"github.com/piyushdatta/senseboard-server/internal/logger"
	"github.com/piyushdatta/senseboard-server/internal/orchestrator"
)

func noProviderConfig() config.AIConfig {
	return config.AIConfig{Provider: config.ProviderDeterministic}
}

func mustTestServer(t *testing.T) (*httptest.Server, func()) {
	t.Helper()
	hub := broadcast.NewHub(logger.Nop())
	registry := httpapi.NewRegistry(hub, logger.Nop())
	chain := aiprovider.NewChain(noProviderConfig(), zap.NewNop())
	engine := orchestrator.NewEngine(registry, chain, zap.NewNop())
	srv := NewServer(registry, engine, logger.Nop())

	ts := httptest.NewServer(srv.Handler())
	return ts, ts.Close
}

func dialTestWS(t *testing.T, ts *httptest.Server, roomID, name string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/?roomId=" + roomID + "&name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return decoded
}

func TestHandshakeRequiresClientAckFirst(t *testing.T) {
	ts, closeFn := mustTestServer(t)
	defer closeFn()
	conn := dialTestWS(t, ts, "room-1", "Ada")

	if err := conn.WriteJSON(map[string]any{"type": "board:mutate"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := readFrame(t, conn)
	if frame["type"] != "room:error" {
		t.Fatalf("expected room:error before handshake, got %+v", frame)
	}
	if msg, _ := frame["message"].(string); !strings.Contains(msg, "Handshake required") {
		t.Fatalf("unexpected pre-handshake error message: %q", msg)
	}
}

func TestInvalidJSONBeforeAckStillYieldsPayloadError(t *testing.T) {
	ts, closeFn := mustTestServer(t)
	defer closeFn()
	conn := dialTestWS(t, ts, "room-1", "Ada")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{invalid-json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := readFrame(t, conn)
	if frame["type"] != "room:error" {
		t.Fatalf("expected room:error, got %+v", frame)
	}
	if msg, _ := frame["message"].(string); !strings.Contains(msg, "Invalid websocket message") {
		t.Fatalf("expected invalid-payload message, got %q", msg)
	}
}

func TestHandshakeAckYieldsServerAck(t *testing.T) {
	ts, closeFn := mustTestServer(t)
	defer closeFn()
	conn := dialTestWS(t, ts, "room-1", "Ada")

	if err := conn.WriteJSON(map[string]any{"type": "client:ack"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := readFrame(t, conn)
	if frame["type"] != "server:ack" {
		t.Fatalf("expected server:ack, got %+v", frame)
	}
	if frame["protocol"] != "senseboard-ws-v1" {
		t.Fatalf("unexpected protocol field: %+v", frame)
	}
}
