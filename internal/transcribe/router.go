package transcribe

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/piyushdatta/senseboard-server/internal/aiprovider"
	"github.com/piyushdatta/senseboard-server/internal/config"
)

// Result is the outcome of one Transcribe call (spec §4.8/§6).
type Result struct {
	OK       bool
	Text     string
	Provider aiprovider.Name
	Error    string
}

// Router tries OpenAI Whisper, then Anthropic, then an optional Codex
// CLI leg, in that fixed order — independent of the board-ops provider
// chain's "auto" ordering, since §4.8 pins this chain explicitly.
type Router struct {
	openai          *aiprovider.OpenAIClient
	anthropic       *aiprovider.AnthropicClient
	codex           *aiprovider.CodexCLIClient
	codexFallbackOn bool
}

// NewRouter builds the router from whichever provider legs are
// configured. Any of the three may be nil; legs with a nil client are
// skipped. codexEnabled mirrors
// SENSEBOARD_ENABLE_CODEX_TRANSCRIBE_FALLBACK.
func NewRouter(openaiClient *aiprovider.OpenAIClient, anthropicClient *aiprovider.AnthropicClient, codexClient *aiprovider.CodexCLIClient, codexEnabled bool) *Router {
	return &Router{openai: openaiClient, anthropic: anthropicClient, codex: codexClient, codexFallbackOn: codexEnabled}
}

// Transcribe runs the ordered provider chain over an opaque audio blob
// (spec §4.8). Blobs smaller than config.MinTranscribeBytes are
// rejected before any provider is called.
func (r *Router) Transcribe(ctx context.Context, audio []byte, mimeType string) Result {
	if len(audio) == 0 {
		return Result{OK: false, Error: "empty audio blob"}
	}
	if len(audio) < config.MinTranscribeBytes {
		return Result{OK: false, Error: "audio_too_small"}
	}
	mime := NormalizeMIME(mimeType)

	var errs []string

	if r.openai != nil {
		file := openai.File(bytes.NewReader(audio), "audio."+Extension(mime), mime)
		text, err := r.openai.TranscribeAudio(ctx, file)
		if err == nil && strings.TrimSpace(text) != "" {
			return Result{OK: true, Text: strings.TrimSpace(text), Provider: aiprovider.NameOpenAI}
		}
		errs = append(errs, legError(aiprovider.NameOpenAI, text, err))
	}

	if r.anthropic != nil {
		encoded := base64.StdEncoding.EncodeToString(audio)
		text, err := r.anthropic.TranscribeAudio(ctx, encoded, mime)
		if err == nil && strings.TrimSpace(text) != "" {
			return Result{OK: true, Text: strings.TrimSpace(text), Provider: aiprovider.NameAnthropic}
		}
		errs = append(errs, legError(aiprovider.NameAnthropic, text, err))
	}

	if r.codex != nil && r.codexFallbackOn {
		prompt := fmt.Sprintf("Transcribe this base64-encoded %s audio clip verbatim, reply with only the transcript:\n%s", mime, base64.StdEncoding.EncodeToString(audio))
		result, ok, err := r.codex.CompleteText(ctx, prompt)
		if err == nil && ok && strings.TrimSpace(result.Text) != "" {
			return Result{OK: true, Text: strings.TrimSpace(result.Text), Provider: aiprovider.NameCodexCLI}
		}
		errs = append(errs, legError(aiprovider.NameCodexCLI, "", err))
	}

	return Result{OK: false, Error: strings.Join(errs, " | ")}
}

func legError(name aiprovider.Name, text string, err error) string {
	if err != nil {
		return fmt.Sprintf("%s: %v", name, err)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Sprintf("%s: empty transcript", name)
	}
	return fmt.Sprintf("%s: failed", name)
}

// Preflight probes each configured leg in the same fixed order and
// returns on the first success (spec §4.8).
func (r *Router) Preflight(ctx context.Context) error {
	var errs []string
	if r.openai != nil {
		if err := r.openai.Preflight(ctx); err == nil {
			return nil
		} else {
			errs = append(errs, fmt.Sprintf("openai: %v", err))
		}
	}
	if r.anthropic != nil {
		if err := r.anthropic.Preflight(ctx); err == nil {
			return nil
		} else {
			errs = append(errs, fmt.Sprintf("anthropic: %v", err))
		}
	}
	if r.codex != nil && r.codexFallbackOn {
		if err := r.codex.Preflight(ctx); err == nil {
			return nil
		} else {
			errs = append(errs, fmt.Sprintf("codex_cli: %v", err))
		}
	}
	if len(errs) == 0 {
		return errors.New("transcribe: no provider configured")
	}
	return errors.New(strings.Join(errs, " | "))
}
