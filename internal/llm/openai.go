// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package llm

import (
	"context"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIOptions configures the OpenAI provider. BaseURL is optional and
// points the client at a compatible endpoint.
type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// OpenAI completes messages with the chat completions API.
type OpenAI struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAI creates the provider.
func NewOpenAI(opts OpenAIOptions) *OpenAI {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: opts.Model, timeout: opts.Timeout}
}

// Name implements Provider.
func (o *OpenAI) Name() string { return "openai" }

// Client exposes the underlying client for tool-calling loops.
func (o *OpenAI) Client() *openai.Client { return o.client }

// Model is the configured model name.
func (o *OpenAI) Model() string { return o.model }

// Timeout bounds each request.
func (o *OpenAI) Timeout() time.Duration { return o.timeout }

// Complete implements Provider.
func (o *OpenAI) Complete(ctx context.Context, message, systemPrompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		return "", wrapError(o.Name(), ctx, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	answer := resp.Choices[0].Message.Content
	logExchange(o.Name(), o.model, start, message, answer)
	return answer, nil
}
