package orchestrator

import (
	"testing"
	"time"

	"github.com/piyushdatta/senseboard-server/internal/board"
)

func TestDeterministicTranscriptFallbackRendersOneSlotPerLine(t *testing.T) {
	lines := []string{"alice: hello", "bob: world", "alice: how are you"}
	ops := DeterministicTranscriptFallback(lines, 0, time.Now())

	var upserts int
	for _, op := range ops {
		if op.Type == board.OpUpsertElement && op.Element.Kind == board.KindRect {
			upserts++
		}
	}
	if upserts != len(lines) {
		t.Fatalf("rect slots = %d, want %d", upserts, len(lines))
	}
}

func TestDeterministicTranscriptFallbackCapsAtMaxLines(t *testing.T) {
	lines := make([]string, fallbackMaxLines+4)
	for i := range lines {
		lines[i] = "line"
	}
	ops := DeterministicTranscriptFallback(lines, 0, time.Now())
	var upserts int
	for _, op := range ops {
		if op.Type == board.OpUpsertElement && op.Element.Kind == board.KindRect {
			upserts++
		}
	}
	if upserts != fallbackMaxLines {
		t.Fatalf("rect slots = %d, want %d (capped)", upserts, fallbackMaxLines)
	}
}

func TestDeterministicTranscriptFallbackDeletesStaleSlotsAsLinesShrink(t *testing.T) {
	ops := DeterministicTranscriptFallback([]string{"only one line"}, 5, time.Now())
	var deletes int
	for _, op := range ops {
		if op.Type == board.OpDeleteElement {
			deletes++
		}
	}
	if deletes == 0 {
		t.Fatal("expected delete ops for stale slots beyond the new line count")
	}
}

func TestDeterministicTranscriptFallbackEmptyWindowYieldsNoRects(t *testing.T) {
	ops := DeterministicTranscriptFallback(nil, 0, time.Now())
	for _, op := range ops {
		if op.Type == board.OpUpsertElement {
			t.Fatal("expected no upsert ops for an empty transcript window")
		}
	}
}
