// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// llm.go - Text-in/text-out language model collaborators.
//
// A Provider answers one message under one system prompt. Calls are bounded
// by the configured timeout; failures come back as errors for the caller to
// turn into a reply.

package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gebl/netbox-assistant/internal/config"
	"github.com/gebl/netbox-assistant/internal/logging"
)

// ErrEmptyResponse is returned when the model answered with no text.
var ErrEmptyResponse = errors.New("language model returned no content")

// Provider completes a single message.
type Provider interface {
	Name() string
	Complete(ctx context.Context, message, systemPrompt string) (string, error)
}

// New builds the provider selected by cfg.LLMProvider.
func New(cfg *config.Config) (Provider, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return NewOpenAI(OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.LLMTimeout,
		}), nil
	case config.ProviderAnthropic:
		return NewAnthropic(AnthropicOptions{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AnthropicModel,
			Timeout: cfg.LLMTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

// withTimeout bounds one model call. A zero timeout leaves ctx unchanged.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// wrapError names the provider and reports timeouts plainly.
func wrapError(provider string, ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s request timed out", provider)
	}
	return fmt.Errorf("%s request failed: %w", provider, err)
}

func logExchange(provider, model string, start time.Time, message, answer string) {
	logger := logging.AgentLogger
	logger.Debug("Language model call completed", "provider", provider, "model", model, "duration", time.Since(start))
	logging.LogContent(logger, slog.LevelDebug, "Language model exchange",
		"provider", provider, "message", message, "answer", strings.TrimSpace(answer))
}
