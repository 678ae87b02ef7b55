package aiprovider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/piyushdatta/senseboard-server/internal/config"
)

// Chain resolves spec §6's "auto" provider ordering (anthropic, then
// codex_cli, then openai) at startup, keeping whichever legs can be built
// from config (no Preflight is run at construction) and falling back
// through the rest on a hard provider failure or empty response during a
// call. A pinned (non-auto) config.AIProvider resolves to that single leg
// only.
type Chain struct {
	providers []Provider
	log       *zap.Logger
}

// NewChain builds the provider chain from resolved config. Any leg whose
// API key is unset, or whose constructor fails, is omitted rather than
// failing construction (the Codex CLI leg needs no key and falls back to
// the "codex" binary name) — the orchestrator falls back to the deterministic
// engine when the chain ends up empty.
func NewChain(cfg config.AIConfig, log *zap.Logger) *Chain {
	order := resolveOrder(cfg.Provider)
	chain := &Chain{log: log}
	for _, name := range order {
		p, err := buildProvider(name, cfg)
		if err != nil {
			log.Debug("aiprovider: skipping leg", zap.String("provider", string(name)), zap.Error(err))
			continue
		}
		if p == nil {
			continue
		}
		chain.providers = append(chain.providers, p)
	}
	return chain
}

func resolveOrder(pref config.AIProvider) []Name {
	switch pref {
	case config.ProviderOpenAI:
		return []Name{NameOpenAI}
	case config.ProviderAnthropic:
		return []Name{NameAnthropic}
	case config.ProviderCodexCLI:
		return []Name{NameCodexCLI}
	case config.ProviderDeterministic:
		return nil
	case config.ProviderAuto:
		return []Name{NameAnthropic, NameCodexCLI, NameOpenAI}
	default:
		return []Name{NameAnthropic, NameCodexCLI, NameOpenAI}
	}
}

func buildProvider(name Name, cfg config.AIConfig) (Provider, error) {
	switch name {
	case NameAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, nil
		}
		return NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	case NameOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, nil
		}
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAITranscriptionModel)
	case NameCodexCLI:
		return NewCodexCLI(cfg.CodexModel, config.CodexCLITimeout, config.CodexCLIPingTimeout, nil)
	default:
		return nil, nil
	}
}

// Empty reports whether no provider leg could be built, meaning the
// orchestrator must run the deterministic-only path.
func (c *Chain) Empty() bool { return len(c.providers) == 0 }

// Providers returns the resolved chain in priority order.
func (c *Chain) Providers() []Provider { return c.providers }

// CompleteJSON tries each leg in order, moving to the next leg only on
// a hard error or an ok=false response, and returning the first leg
// that produces usable text (spec §4.4's router-exhausted semantics are
// surfaced by the caller when every leg fails).
func (c *Chain) CompleteJSON(ctx context.Context, system, user string) (string, Name, error) {
	var lastErr error
	for _, p := range c.providers {
		text, ok, err := p.CompleteJSON(ctx, system, user)
		if err != nil {
			lastErr = err
			c.log.Warn("aiprovider: leg failed", zap.String("provider", string(p.Name())), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		return text, p.Name(), nil
	}
	return "", "", lastErr
}

// Preflight runs the GET `/ai/preflight` probe (spec §6): issue each
// resolved leg's minimal probe in priority order, returning nil on the
// first success. Mirrors transcribe.Router.Preflight's "first to
// succeed wins" contract but over the board-ops chain's resolved
// ordering rather than the transcription router's fixed one.
func (c *Chain) Preflight(ctx context.Context) error {
	if c.Empty() {
		return errors.New("aiprovider: no provider configured")
	}
	var errs []string
	for _, p := range c.providers {
		if err := p.Preflight(ctx); err == nil {
			return nil
		} else {
			errs = append(errs, fmt.Sprintf("%s: %v", p.Name(), err))
		}
	}
	return errors.New(strings.Join(errs, " | "))
}
