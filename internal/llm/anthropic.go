// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package llm

import (
	"context"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 1024

// AnthropicOptions configures the Anthropic provider.
type AnthropicOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Anthropic completes messages with the Messages API.
type Anthropic struct {
	client  *anthropic.Client
	model   string
	timeout time.Duration
}

// NewAnthropic creates the provider.
func NewAnthropic(opts AnthropicOptions) *Anthropic {
	reqOpts := []anthropicopt.RequestOption{anthropicopt.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, anthropicopt.WithBaseURL(opts.BaseURL))
	}
	client := anthropic.NewClient(reqOpts...)
	return &Anthropic{client: &client, model: opts.Model, timeout: opts.Timeout}
}

// Name implements Provider.
func (a *Anthropic) Name() string { return "anthropic" }

// Complete implements Provider.
func (a *Anthropic) Complete(ctx context.Context, message, systemPrompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: anthropicMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(message)),
		},
	})
	if err != nil {
		return "", wrapError(a.Name(), ctx, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyResponse
	}
	logExchange(a.Name(), a.model, start, message, b.String())
	return b.String(), nil
}
