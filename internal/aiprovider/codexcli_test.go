package aiprovider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewCodexCLIRejectsNonPositiveTimeouts(t *testing.T) {
	if _, err := NewCodexCLI("codex", 0, time.Second, nil); err == nil {
		t.Fatalf("expected error for zero timeout")
	}
	if _, err := NewCodexCLI("codex", time.Second, 0, nil); err == nil {
		t.Fatalf("expected error for zero ping timeout")
	}
}

func TestNewCodexCLIDefaultsBinary(t *testing.T) {
	c, err := NewCodexCLI("", time.Second, time.Second, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.binary != "codex" {
		t.Fatalf("binary = %q, want codex", c.binary)
	}
}

func TestCodexCLIRunSurfacesExecFailure(t *testing.T) {
	c := &CodexCLIClient{binary: "definitely-not-a-real-codex-binary", timeout: time.Second, pingTimeout: time.Second}
	if err := c.Preflight(context.Background()); err == nil {
		t.Fatalf("expected preflight to fail for a nonexistent binary")
	}
}

func TestCodexCLIRunRespectsTimeout(t *testing.T) {
	// A stand-in binary that ignores its arguments and sleeps for 2s
	// outlives a 10ms timeout, exercising the context.DeadlineExceeded path.
	bin := filepath.Join(t.TempDir(), "slow-codex")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\nexec sleep 2\n"), 0o755); err != nil {
		t.Fatalf("write stand-in binary: %v", err)
	}
	c := &CodexCLIClient{binary: bin, timeout: 10 * time.Millisecond, pingTimeout: 10 * time.Millisecond}
	_, err := c.run(context.Background(), c.timeout, "")
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want a context.DeadlineExceeded timeout", err)
	}
}
