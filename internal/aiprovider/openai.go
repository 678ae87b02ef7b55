package aiprovider

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// chatClient captures the subset of the OpenAI SDK used here, mirroring
// goadesign-goa-ai's ChatClient interface so tests can supply a fake in
// place of the real SDK client.
type chatClient interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// transcriptionClient captures the Whisper transcription call, the
// OpenAI leg of the transcription router (spec §4.8).
type transcriptionClient interface {
	New(ctx context.Context, params openai.AudioTranscriptionNewParams, opts ...option.RequestOption) (*openai.Transcription, error)
}

// OpenAIClient implements Provider on top of Chat Completions, and the
// standalone TranscribeAudio method on top of Whisper.
type OpenAIClient struct {
	chat          chatClient
	transcription transcriptionClient
	model         string
	whisperModel  string
}

// NewOpenAI builds an OpenAI-backed provider. whisperModel defaults to
// "whisper-1" when empty.
func NewOpenAI(apiKey, model, whisperModel string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	if model == "" {
		return nil, errors.New("openai: model is required")
	}
	if whisperModel == "" {
		whisperModel = "whisper-1"
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{
		chat:          &client.Chat.Completions,
		transcription: &client.Audio.Transcriptions,
		model:         model,
		whisperModel:  whisperModel,
	}, nil
}

func (c *OpenAIClient) Name() Name { return NameOpenAI }

func (c *OpenAIClient) complete(ctx context.Context, system, user string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(user))
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	}
	resp, err := c.chat.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat.completions.new: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) CompleteJSON(ctx context.Context, system, user string) (string, bool, error) {
	text, err := c.complete(ctx, system, user)
	if err != nil {
		return "", false, err
	}
	if text == "" {
		return "", false, nil
	}
	return text, true, nil
}

func (c *OpenAIClient) CompleteText(ctx context.Context, prompt string) (TextResult, bool, error) {
	text, err := c.complete(ctx, "", prompt)
	if err != nil {
		return TextResult{}, false, err
	}
	if text == "" {
		return TextResult{}, false, nil
	}
	return TextResult{Provider: NameOpenAI, Text: text}, true, nil
}

// TranscribeAudio is the Whisper leg of the transcription router (spec
// §4.8): the caller wraps the raw audio bytes in an openai.File whose
// name and content type come from the normalized MIME type.
func (c *OpenAIClient) TranscribeAudio(ctx context.Context, audio openai.File) (string, error) {
	params := openai.AudioTranscriptionNewParams{
		Model:          openai.AudioModel(c.whisperModel),
		File:           audio,
		ResponseFormat: openai.AudioResponseFormatJSON,
	}
	resp, err := c.transcription.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai audio.transcriptions.new: %w", err)
	}
	return resp.Text, nil
}

// Preflight issues a tiny text round-trip (spec §4.8: "Whisper = GET
// model metadata" is approximated here with a minimal chat call since
// the orchestrator shares one OpenAI client across both legs).
func (c *OpenAIClient) Preflight(ctx context.Context) error {
	_, ok, err := c.CompleteText(ctx, "ping")
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("openai: preflight returned no text")
	}
	return nil
}
