package aiprovider

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type fakeChatClient struct {
	resp *openai.ChatCompletion
	err  error
}

func (f *fakeChatClient) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	return f.resp, f.err
}

func chatCompletion(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestOpenAICompleteJSONReturnsText(t *testing.T) {
	c := &OpenAIClient{chat: &fakeChatClient{resp: chatCompletion(`{"ok":true}`)}, model: "gpt-4o-mini"}
	text, ok, err := c.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || text != `{"ok":true}` {
		t.Fatalf("got ok=%v text=%q", ok, text)
	}
}

func TestOpenAICompleteJSONNoChoicesIsNotOK(t *testing.T) {
	c := &OpenAIClient{chat: &fakeChatClient{resp: &openai.ChatCompletion{}}, model: "gpt-4o-mini"}
	_, ok, err := c.CompleteJSON(context.Background(), "", "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false when no choices are returned")
	}
}

func TestOpenAICompleteJSONPropagatesError(t *testing.T) {
	c := &OpenAIClient{chat: &fakeChatClient{err: errors.New("boom")}, model: "gpt-4o-mini"}
	_, _, err := c.CompleteJSON(context.Background(), "", "user")
	if err == nil {
		t.Fatalf("expected error to propagate")
	}
}

func TestNewOpenAIDefaultsWhisperModel(t *testing.T) {
	c, err := NewOpenAI("key", "gpt-4o-mini", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.whisperModel != "whisper-1" {
		t.Fatalf("whisperModel = %q, want whisper-1", c.whisperModel)
	}
}

func TestNewOpenAIRejectsMissingFields(t *testing.T) {
	if _, err := NewOpenAI("", "model", ""); err == nil {
		t.Fatalf("expected error for missing api key")
	}
	if _, err := NewOpenAI("key", "", ""); err == nil {
		t.Fatalf("expected error for missing model")
	}
}
