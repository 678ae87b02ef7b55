package room

import (
	"testing"
	"time"
)

func TestBuildAIInputHasSignalFalseWhenEmpty(t *testing.T) {
	s := New("room1", time.Now())
	in := s.BuildAIInput(Trigger{Reason: ReasonTick})
	if in.HasSignal() {
		t.Fatalf("expected no signal on a fresh room")
	}
}

func TestBuildAIInputHasSignalTrueWithVisualHint(t *testing.T) {
	s := New("room1", time.Now())
	s.VisualHint = "a system diagram"
	in := s.BuildAIInput(Trigger{Reason: ReasonTick})
	if !in.HasSignal() {
		t.Fatalf("expected signal from visual hint")
	}
}

func TestBuildAIInputSeparatesPinnedPriority(t *testing.T) {
	s := New("room1", time.Now())
	idGen := seqIDGen()
	s.ApplyClientMessage("alice", ClientMessage{Type: MsgContextAdd, Text: "high prio", Priority: ContextHigh}, time.Now(), idGen)
	s.ApplyClientMessage("alice", ClientMessage{Type: MsgContextAdd, Text: "normal prio", Priority: ContextNormal}, time.Now(), idGen)
	in := s.BuildAIInput(Trigger{Reason: ReasonTick})
	if len(in.ContextPinnedHigh) != 1 || len(in.ContextPinnedNormal) != 1 {
		t.Fatalf("high=%d normal=%d, want 1/1", len(in.ContextPinnedHigh), len(in.ContextPinnedNormal))
	}
}

func TestBuildAIInputCorrectionBypassDetection(t *testing.T) {
	s := New("room1", time.Now())
	idGen := seqIDGen()
	s.ApplyClientMessage("alice", ClientMessage{Type: MsgChatAdd, Text: "context update: scrap the old plan", Kind: ChatCorrection}, time.Now(), idGen)
	in := s.BuildAIInput(Trigger{Reason: ReasonTick})
	if !in.BypassHighPriority {
		t.Fatalf("expected bypass to be detected from correction text")
	}
	if len(in.CorrectionDirectives) != 1 {
		t.Fatalf("correctionDirectives = %v", in.CorrectionDirectives)
	}
}

func TestBuildAIInputTranscriptChunkCountCap(t *testing.T) {
	s := New("room1", time.Now())
	idGen := seqIDGen()
	s.ApplyClientMessage("alice", ClientMessage{Type: MsgTranscriptAdd, Text: "we should design a database schema"}, time.Now(), idGen)
	s.ApplyClientMessage("bob", ClientMessage{Type: MsgTranscriptAdd, Text: "and an api gateway service too"}, time.Now(), idGen)
	in := s.BuildAIInput(Trigger{Reason: ReasonTick, TranscriptChunkCount: 1})
	if len(in.TranscriptWindow) != 1 {
		t.Fatalf("transcriptWindow = %v, want 1 line under cap", in.TranscriptWindow)
	}
}
