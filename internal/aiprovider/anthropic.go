package aiprovider

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// messagesClient captures the subset of the Anthropic SDK used here,
// mirroring goadesign-goa-ai's MessagesClient interface so tests can supply
// a fake in place of the real SDK client.
type messagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// AnthropicClient implements Provider on top of Claude Messages.
type AnthropicClient struct {
	msg   messagesClient
	model string
}

// NewAnthropic builds an Anthropic-backed provider. Returns an error if
// apiKey or model is empty, mirroring NewFromAPIKey's validation in
// goadesign-goa-ai's anthropic adapter.
func NewAnthropic(apiKey, model string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	if model == "" {
		return nil, errors.New("anthropic: model is required")
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicClient{msg: &client.Messages, model: model}, nil
}

func (c *AnthropicClient) Name() Name { return NameAnthropic }

func (c *AnthropicClient) complete(ctx context.Context, system, user string) (string, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: 4096,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}
	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages.new: %w", err)
	}
	var out string
	for _, block := range msg.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	return out, nil
}

func (c *AnthropicClient) CompleteJSON(ctx context.Context, system, user string) (string, bool, error) {
	text, err := c.complete(ctx, system, user)
	if err != nil {
		return "", false, err
	}
	if text == "" {
		return "", false, nil
	}
	return text, true, nil
}

func (c *AnthropicClient) CompleteText(ctx context.Context, prompt string) (TextResult, bool, error) {
	text, err := c.complete(ctx, "", prompt)
	if err != nil {
		return TextResult{}, false, err
	}
	if text == "" {
		return TextResult{}, false, nil
	}
	return TextResult{Provider: NameAnthropic, Text: text}, true, nil
}

// TranscribeAudio sends audioB64 (already base64-encoded) as an inline
// media block alongside a transcription instruction — the "audio via
// base64 in message" leg of the transcription router (spec §4.8), using
// the same NewImageBlockBase64 helper the pack's Anthropic adapters use
// for inline binary content.
func (c *AnthropicClient) TranscribeAudio(ctx context.Context, audioB64, mediaType string) (string, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: 2048,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(
				sdk.NewTextBlock("Transcribe the attached audio verbatim. Reply with only the transcript text."),
				sdk.NewImageBlockBase64(mediaType, audioB64),
			),
		},
	}
	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic transcribe: %w", err)
	}
	var out string
	for _, block := range msg.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	return out, nil
}

// Preflight issues a tiny text round-trip (spec §4.8).
func (c *AnthropicClient) Preflight(ctx context.Context) error {
	_, ok, err := c.CompleteText(ctx, "ping")
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("anthropic: preflight returned no text")
	}
	return nil
}
