package room

import "testing"

func TestNormalizeTranscriptLineStripsFillers(t *testing.T) {
	got, keep := NormalizeTranscriptLine("um uh so we should build a dashboard for this")
	if !keep {
		t.Fatalf("expected line to survive normalization")
	}
	if got != "so we should build a dashboard for this" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeTranscriptLineDropsSingleTokenNoHint(t *testing.T) {
	_, keep := NormalizeTranscriptLine("okay")
	if keep {
		t.Fatalf("expected single non-keyword token to be dropped")
	}
}

func TestNormalizeTranscriptLineKeepsSingleKeywordToken(t *testing.T) {
	_, keep := NormalizeTranscriptLine("tree")
	if !keep {
		t.Fatalf("expected single keyword token to survive")
	}
}

func TestNormalizeTranscriptLineDropsStutter(t *testing.T) {
	_, keep := NormalizeTranscriptLine("the the the the the")
	if keep {
		t.Fatalf("expected low unique-token-ratio stutter to be dropped")
	}
}

func TestIsNearDuplicatePrefix(t *testing.T) {
	if !isNearDuplicate("we should build a dashboard", "we should build a dashboard for metrics") {
		t.Fatalf("expected near-prefix duplicate to be detected")
	}
}

func TestIsNearDuplicateFarApart(t *testing.T) {
	if isNearDuplicate("hello there", "this is an entirely unrelated and much longer sentence that goes on") {
		t.Fatalf("unrelated lines should not be treated as duplicates")
	}
}

func TestNormalizedTranscriptLinesDedupsConsecutiveSpeaker(t *testing.T) {
	chunks := []TranscriptChunk{
		{Speaker: "alice", Text: "we should build a dashboard"},
		{Speaker: "alice", Text: "we should build a dashboard for metrics"},
		{Speaker: "bob", Text: "agreed, dashboard sounds great"},
	}
	lines := normalizedTranscriptLines(chunks, 0)
	if len(lines) != 2 {
		t.Fatalf("lines = %v, want 2 (alice's second line merged)", lines)
	}
}

func TestNormalizedTranscriptLinesRespectsChunkCap(t *testing.T) {
	chunks := []TranscriptChunk{
		{Speaker: "alice", Text: "first line about the database architecture"},
		{Speaker: "bob", Text: "second line about the api gateway service"},
	}
	lines := normalizedTranscriptLines(chunks, 1)
	if len(lines) != 1 {
		t.Fatalf("lines = %v, want 1 under cap", lines)
	}
}
