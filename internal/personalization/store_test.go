package personalization

import (
	"path/filepath"
	"testing"
	"time"
)

func mustTestStore(t *testing.T, maxLines int) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "personalization.db")
	store, err := Open(path, maxLines, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreGetProfileMissingReturnsNotOK(t *testing.T) {
	store := mustTestStore(t, 5)
	_, ok, err := store.GetProfile("Ada")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for a profile that was never created")
	}
}

func TestStoreAppendContextCreatesProfileAndNormalizesName(t *testing.T) {
	store := mustTestStore(t, 5)
	now := time.Now()

	profile, err := store.AppendContext(" Ada Lovelace ", "prefers dark mode", "Ada Lovelace", now)
	if err != nil {
		t.Fatalf("AppendContext: %v", err)
	}
	if profile.NameKey != "ada lovelace" {
		t.Fatalf("expected normalized name key, got %q", profile.NameKey)
	}

	got, ok, err := store.GetProfile("ADA LOVELACE")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if !ok {
		t.Fatalf("expected profile to exist after AppendContext")
	}
	if len(got.ContextLines) != 1 || got.ContextLines[0] != "prefers dark mode" {
		t.Fatalf("unexpected context lines: %+v", got.ContextLines)
	}
}

func TestStoreAppendContextRetainsMostRecentNLines(t *testing.T) {
	store := mustTestStore(t, 3)
	now := time.Now()

	for i := 0; i < 5; i++ {
		if _, err := store.AppendContext("Grace", itoaLine(i), "Grace Hopper", now); err != nil {
			t.Fatalf("AppendContext #%d: %v", i, err)
		}
	}

	profile, ok, err := store.GetProfile("Grace")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if !ok {
		t.Fatalf("expected profile to exist")
	}
	if len(profile.ContextLines) != 3 {
		t.Fatalf("expected retention to cap at 3 lines, got %d: %+v", len(profile.ContextLines), profile.ContextLines)
	}
	want := []string{"line-2", "line-3", "line-4"}
	for i, line := range want {
		if profile.ContextLines[i] != line {
			t.Fatalf("context line %d: want=%s got=%s", i, line, profile.ContextLines[i])
		}
	}
}

func TestStoreContextLinesImplementsContextProvider(t *testing.T) {
	store := mustTestStore(t, 10)
	now := time.Now()
	if _, err := store.AppendContext("Alan", "studies computability", "Alan Turing", now); err != nil {
		t.Fatalf("AppendContext: %v", err)
	}
	if _, err := store.AppendContext("Alan", "likes chess", "Alan Turing", now); err != nil {
		t.Fatalf("AppendContext: %v", err)
	}

	lines := store.ContextLines("alan", 1)
	if len(lines) != 1 || lines[0] != "studies computability" {
		t.Fatalf("expected ContextLines to honor the requested max, got %+v", lines)
	}
}

func TestStoreAppendContextRejectsEmptyInputs(t *testing.T) {
	store := mustTestStore(t, 5)
	if _, err := store.AppendContext("", "text", "", time.Now()); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if _, err := store.AppendContext("Name", "  ", "", time.Now()); err == nil {
		t.Fatalf("expected error for blank context text")
	}
}

func itoaLine(i int) string {
	digits := "0123456789"
	return "line-" + string(digits[i])
}
