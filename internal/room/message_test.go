package room

import (
	"testing"
	"time"
)

func seqIDGen() func() string {
	n := 0
	return func() string {
		n++
		return time.Now().Format("150405") + string(rune('a'+n%26))
	}
}

func TestApplyClientMessageChatAdd(t *testing.T) {
	s := New("room1", time.Now())
	err := s.ApplyClientMessage("alice", ClientMessage{Type: MsgChatAdd, Text: "hello"}, time.Now(), seqIDGen())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.ChatMessages) != 1 || s.ChatMessages[0].Sender != "alice" {
		t.Fatalf("chatMessages = %+v", s.ChatMessages)
	}
}

func TestApplyClientMessageChatAddRejectsEmpty(t *testing.T) {
	s := New("room1", time.Now())
	err := s.ApplyClientMessage("alice", ClientMessage{Type: MsgChatAdd, Text: "   "}, time.Now(), seqIDGen())
	if err == nil {
		t.Fatalf("expected error for empty chat text")
	}
}

func TestApplyClientMessageContextUpdateNotFound(t *testing.T) {
	s := New("room1", time.Now())
	err := s.ApplyClientMessage("alice", ClientMessage{Type: MsgContextUpdate, ContextID: "missing", Text: "x"}, time.Now(), seqIDGen())
	if err == nil {
		t.Fatalf("expected error for unknown context id")
	}
}

func TestApplyClientMessageContextAddThenDelete(t *testing.T) {
	s := New("room1", time.Now())
	idGen := seqIDGen()
	s.ApplyClientMessage("alice", ClientMessage{Type: MsgContextAdd, Text: "likes blue"}, time.Now(), idGen)
	if len(s.ContextItems) != 1 {
		t.Fatalf("expected 1 context item")
	}
	id := s.ContextItems[0].ID
	s.ApplyClientMessage("alice", ClientMessage{Type: MsgContextDelete, ContextID: id}, time.Now(), idGen)
	if len(s.ContextItems) != 0 {
		t.Fatalf("expected context item to be removed")
	}
}

func TestApplyClientMessageAIConfigFreeze(t *testing.T) {
	s := New("room1", time.Now())
	frozen := true
	s.ApplyClientMessage("alice", ClientMessage{Type: MsgAIConfigUpdate, Frozen: &frozen}, time.Now(), seqIDGen())
	if !s.AIConfig.Frozen || s.AIConfig.Status != AIStatusFrozen {
		t.Fatalf("AIConfig = %+v", s.AIConfig)
	}
}

func TestApplyClientMessageUnknownTypeRejected(t *testing.T) {
	s := New("room1", time.Now())
	err := s.ApplyClientMessage("alice", ClientMessage{Type: "bogus"}, time.Now(), seqIDGen())
	if err == nil {
		t.Fatalf("expected error for unknown message type")
	}
}

func TestJoinReusesExistingMember(t *testing.T) {
	s := New("room1", time.Now())
	idGen := seqIDGen()
	m1 := s.Join("alice", time.Now(), idGen)
	m2 := s.Join("alice", time.Now(), idGen)
	if m1.ID != m2.ID {
		t.Fatalf("expected rejoin to reuse member id, got %q vs %q", m1.ID, m2.ID)
	}
	if len(s.Members) != 1 {
		t.Fatalf("members = %+v", s.Members)
	}
}
