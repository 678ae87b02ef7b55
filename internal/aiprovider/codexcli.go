package aiprovider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CodexCLIClient shells out to a local Codex CLI binary for a one-shot
// prompt/response round-trip. Grounded in beeper-ai-bridge's codexrpc
// subprocess pattern (exec.CommandContext + stdin/stdout pipes), but
// simplified from that package's persistent JSON-RPC session down to a
// single non-interactive invocation per call, matching the
// request/response shape the rest of this package's providers expose.
type CodexCLIClient struct {
	binary      string
	timeout     time.Duration
	pingTimeout time.Duration
	extraArgs   []string
}

// NewCodexCLI builds a Codex CLI-backed provider. binary defaults to
// "codex" when empty.
func NewCodexCLI(binary string, timeout, pingTimeout time.Duration, extraArgs []string) (*CodexCLIClient, error) {
	if binary == "" {
		binary = "codex"
	}
	if timeout <= 0 {
		return nil, errors.New("codexcli: timeout must be positive")
	}
	if pingTimeout <= 0 {
		return nil, errors.New("codexcli: ping timeout must be positive")
	}
	return &CodexCLIClient{binary: binary, timeout: timeout, pingTimeout: pingTimeout, extraArgs: extraArgs}, nil
}

func (c *CodexCLIClient) Name() Name { return NameCodexCLI }

func (c *CodexCLIClient) run(ctx context.Context, timeout time.Duration, prompt string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append([]string{"exec", "--skip-git-repo-check"}, c.extraArgs...)
	cmd := exec.CommandContext(runCtx, c.binary, args...)
	cmd.Stdin = strings.NewReader(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() != nil {
			return "", fmt.Errorf("codexcli: timed out after %s: %w", timeout, runCtx.Err())
		}
		return "", fmt.Errorf("codexcli: exec failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (c *CodexCLIClient) complete(ctx context.Context, system, user string) (string, error) {
	prompt := user
	if system != "" {
		prompt = system + "\n\n" + user
	}
	return c.run(ctx, c.timeout, prompt)
}

func (c *CodexCLIClient) CompleteJSON(ctx context.Context, system, user string) (string, bool, error) {
	text, err := c.complete(ctx, system, user)
	if err != nil {
		return "", false, err
	}
	if text == "" {
		return "", false, nil
	}
	return text, true, nil
}

func (c *CodexCLIClient) CompleteText(ctx context.Context, prompt string) (TextResult, bool, error) {
	text, err := c.complete(ctx, "", prompt)
	if err != nil {
		return TextResult{}, false, err
	}
	if text == "" {
		return TextResult{}, false, nil
	}
	return TextResult{Provider: NameCodexCLI, Text: text}, true, nil
}

// Preflight runs a tiny CLI invocation under the shorter ping timeout
// (spec §4.8: "Codex = tiny CLI run").
func (c *CodexCLIClient) Preflight(ctx context.Context) error {
	text, err := c.run(ctx, c.pingTimeout, "reply with the single word: pong")
	if err != nil {
		return err
	}
	if text == "" {
		return errors.New("codexcli: preflight returned no text")
	}
	return nil
}
