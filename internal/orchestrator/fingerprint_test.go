package orchestrator

import (
	"testing"

	"github.com/piyushdatta/senseboard-server/internal/room"
)

func TestFingerprintStableForIdenticalInput(t *testing.T) {
	in := room.AIInput{
		RoomID:           "r1",
		TranscriptWindow: []string{"alice: hello", "bob: world"},
		VisualHint:       "a tree diagram",
	}
	a := Fingerprint(in, "board_ops")
	b := Fingerprint(in, "board_ops")
	if a != b {
		t.Fatalf("fingerprints differ for identical input: %s vs %s", a, b)
	}
}

func TestFingerprintChangesWithTranscriptWindow(t *testing.T) {
	base := room.AIInput{TranscriptWindow: []string{"alice: hello"}}
	changed := room.AIInput{TranscriptWindow: []string{"alice: hello", "bob: world"}}
	if Fingerprint(base, "board_ops") == Fingerprint(changed, "board_ops") {
		t.Fatal("fingerprint did not change when transcriptWindow changed")
	}
}

func TestFingerprintSuffixIsAppended(t *testing.T) {
	in := room.AIInput{VisualHint: "x"}
	boardFP := Fingerprint(in, "board_ops")
	diagramFP := Fingerprint(in, "diagram_patch")
	if boardFP == diagramFP {
		t.Fatal("fingerprints with different suffixes should differ")
	}
}

func TestFingerprintIgnoresAIConfigStatus(t *testing.T) {
	a := room.AIInput{VisualHint: "x", AIConfig: room.AIConfig{Status: room.AIStatusIdle}}
	b := room.AIInput{VisualHint: "x", AIConfig: room.AIConfig{Status: room.AIStatusListening}}
	if Fingerprint(a, "") != Fingerprint(b, "") {
		t.Fatal("status alone (not frozen/focus) should not be part of the canonical form, since it isn't hashed")
	}
}
