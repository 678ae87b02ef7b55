package transcribe

import (
	"context"
	"strings"
	"testing"
)

func TestTranscribeRejectsEmptyBlob(t *testing.T) {
	r := NewRouter(nil, nil, nil, false)
	res := r.Transcribe(context.Background(), nil, "audio/wav")
	if res.OK {
		t.Fatalf("expected rejection for empty blob")
	}
}

func TestTranscribeRejectsBelowMinBytes(t *testing.T) {
	r := NewRouter(nil, nil, nil, false)
	blob := make([]byte, 400)
	res := r.Transcribe(context.Background(), blob, "audio/wav")
	if res.OK || res.Error != "audio_too_small" {
		t.Fatalf("got %+v, want audio_too_small", res)
	}
}

func TestTranscribeNoProvidersConfiguredReturnsNotOK(t *testing.T) {
	r := NewRouter(nil, nil, nil, false)
	blob := make([]byte, 2048)
	res := r.Transcribe(context.Background(), blob, "audio/wav")
	if res.OK {
		t.Fatalf("expected no provider to succeed")
	}
}

func TestPreflightFailsWithNoProvidersConfigured(t *testing.T) {
	r := NewRouter(nil, nil, nil, false)
	if err := r.Preflight(context.Background()); err == nil {
		t.Fatalf("expected preflight error with no providers configured")
	}
	if !strings.Contains(r.Preflight(context.Background()).Error(), "no provider configured") {
		t.Fatalf("expected explicit no-provider-configured message")
	}
}
