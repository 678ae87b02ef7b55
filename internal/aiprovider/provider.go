// Package aiprovider wraps the three AI backends the orchestration engine
// can call through (spec §4.4/§6): OpenAI, Anthropic, and a local Codex CLI
// subprocess. Each adapter satisfies the same narrow Provider interface so
// the orchestrator and the provider-chain resolver never need to know
// which backend is underneath. Grounded in the teacher's
// internal/inference/engine.Engine naming idiom (Embed/GenerateText/
// StreamText) generalized to the completeJson/completeText contract spec
// §4.4 calls for, and in the Anthropic/OpenAI SDK client wrappers from
// goadesign-goa-ai and intelligencedev-manifold.
package aiprovider

import "context"

// Name identifies a provider leg in logs, fingerprints, and config
// (spec §6: ai.provider enumeration).
type Name string

const (
	NameDeterministic Name = "deterministic"
	NameOpenAI        Name = "openai"
	NameAnthropic      Name = "anthropic"
	NameCodexCLI       Name = "codex_cli"
)

// TextResult is the {provider,text} payload of CompleteText (spec
// §4.4/§4.8); CompleteText's bool result is false when the provider
// produced nothing usable.
type TextResult struct {
	Provider Name
	Text     string
}

// Provider is the narrow contract every AI backend implements (spec §4.4):
// a JSON-completion call used for board-ops/diagram-patch generation, and a
// plain text-completion call used by the Anthropic and OpenAI preflight
// probes.
type Provider interface {
	Name() Name

	// CompleteJSON calls the backend with a system+user prompt pair and
	// returns the raw response text. ok is false (with a nil error) when
	// the call succeeded but returned no usable text; err is non-nil only
	// for a hard provider failure (HTTP error, timeout, non-zero exit).
	CompleteJSON(ctx context.Context, system, user string) (text string, ok bool, err error)

	// CompleteText issues a plain single-turn completion, used by the
	// Anthropic and OpenAI preflight probes.
	CompleteText(ctx context.Context, prompt string) (TextResult, bool, error)

	// Preflight issues the provider's minimal probe: a tiny text
	// round-trip for Anthropic and OpenAI, a tiny CLI run for Codex.
	Preflight(ctx context.Context) error
}
