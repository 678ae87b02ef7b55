package orchestrator

import (
	"testing"

	"github.com/piyushdatta/senseboard-server/internal/board"
)

func TestCoerceEnvelopeStrictJSON(t *testing.T) {
	raw := `{"kind":"board_ops","schemaVersion":1,"summary":"a tree","ops":[{"type":"upsertElement","element":{"id":"n1","kind":"rect","x":0,"y":0,"w":100,"h":50}}]}`
	env, ok := CoerceEnvelope(raw)
	if !ok {
		t.Fatal("CoerceEnvelope: ok = false for valid envelope")
	}
	if len(env.Ops) != 1 {
		t.Fatalf("len(ops) = %d, want 1", len(env.Ops))
	}
	if env.Ops[0].Type != board.OpUpsertElement {
		t.Errorf("op type = %s, want upsertElement", env.Ops[0].Type)
	}
	if env.Summary != "a tree" {
		t.Errorf("summary = %q, want %q", env.Summary, "a tree")
	}
}

func TestCoerceEnvelopeToleratesAliasKeysAndOpNames(t *testing.T) {
	raw := `{"boardOps":[{"op":"resize","id":"n1","w":200,"h":80}]}`
	env, ok := CoerceEnvelope(raw)
	if !ok {
		t.Fatal("CoerceEnvelope: ok = false for alias-keyed envelope")
	}
	if len(env.Ops) != 1 || env.Ops[0].Type != board.OpSetElementGeometry {
		t.Fatalf("ops = %+v, want one setElementGeometry op", env.Ops)
	}
}

func TestCoerceEnvelopeRejectsEmptyOpsList(t *testing.T) {
	raw := `{"ops":[]}`
	if _, ok := CoerceEnvelope(raw); ok {
		t.Fatal("CoerceEnvelope: ok = true for an empty ops list")
	}
}

func TestCoerceEnvelopeSalvagesLooseTextWithBoardOps(t *testing.T) {
	raw := "Sure! Here's the board_ops update:\n" +
		`{"type":"upsertElement","element":{"id":"n1","kind":"rect","x":0,"y":0,"w":100,"h":50}}` +
		"\nLet me know if you want changes."
	env, ok := CoerceEnvelope(raw)
	if !ok {
		t.Fatal("CoerceEnvelope: salvage failed to find a balanced op object")
	}
	if len(env.Ops) != 1 {
		t.Fatalf("len(ops) = %d, want 1 salvaged op", len(env.Ops))
	}
}

func TestCoerceEnvelopeSalvageDedupsIdenticalOps(t *testing.T) {
	op := `{"type":"upsertElement","element":{"id":"n1","kind":"rect","x":0,"y":0,"w":100,"h":50}}`
	raw := "board_ops: " + op + " and again " + op
	env, ok := CoerceEnvelope(raw)
	if !ok {
		t.Fatal("CoerceEnvelope: salvage failed")
	}
	if len(env.Ops) != 1 {
		t.Fatalf("len(ops) = %d, want 1 (deduped)", len(env.Ops))
	}
}

func TestCoerceEnvelopeRejectsUnrelatedProse(t *testing.T) {
	raw := "I'm not sure what you'd like me to draw."
	if _, ok := CoerceEnvelope(raw); ok {
		t.Fatal("CoerceEnvelope: ok = true for prose with no board-ops signal")
	}
}

func TestCapOpsTruncatesOverLimit(t *testing.T) {
	ops := make([]board.Op, maxTotalOps+50)
	for i := range ops {
		ops[i] = board.Op{Type: board.OpDeleteElement, ID: "x"}
	}
	capped := capOps(ops)
	if len(capped) != maxTotalOps {
		t.Fatalf("len(capped) = %d, want %d", len(capped), maxTotalOps)
	}
}
