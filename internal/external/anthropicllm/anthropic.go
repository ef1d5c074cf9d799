// Package anthropicllm is an external.ChatCompleter backed by Anthropic's
// Messages API.
package anthropicllm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kestrelresearch/scout/internal/external"
)

// ChatCompleter completes prompts against the Anthropic Messages API.
type ChatCompleter struct {
	client *anthropic.Client
}

// NewChatCompleter returns a ChatCompleter authenticated with apiKey.
func NewChatCompleter(apiKey string) *ChatCompleter {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &ChatCompleter{client: &client}
}

// Complete sends one system+user turn and returns the assistant's text.
// A nil error with empty content signals "no usable response" to the
// caller, which must fall back to its deterministic default rather than
// treat this as fatal.
func (c *ChatCompleter) Complete(ctx context.Context, system, prompt string, opts external.ChatOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", nil
}
