// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// bot.go - Per-turn message handling shared by every chat surface.
//
// App is built once at startup and passed to the Slack adapter, the web page
// and the ask command. It keeps no per-turn state; concurrent turns share the
// catalog store and the NetBox client read-only.
//
// Usage Example:
//   app := bot.New(bot.Options{Mode: config.ModeAgent, Agent: a, Catalog: store})
//   app.Handle(ctx, "how many devices are at HQ?", func(text string) { post(text) })

package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gebl/netbox-assistant/internal/config"
	"github.com/gebl/netbox-assistant/internal/format"
	"github.com/gebl/netbox-assistant/internal/llm"
	"github.com/gebl/netbox-assistant/internal/logging"
	"github.com/gebl/netbox-assistant/internal/resources"
	"github.com/gebl/netbox-assistant/internal/tools"
)

// Answerer produces a final answer for one message using tools.
type Answerer interface {
	Run(ctx context.Context, message string) (string, error)
}

// Options configures an App. Agent is used in agent mode, Provider in
// standalone mode.
type Options struct {
	Mode     string
	Agent    Answerer
	Provider llm.Provider
	Catalog  tools.CatalogSource
}

// App answers chat turns.
type App struct {
	mode     string
	agent    Answerer
	provider llm.Provider
	catalog  tools.CatalogSource
}

// New creates an App. An empty mode means agent mode.
func New(opts Options) *App {
	mode := opts.Mode
	if mode == "" {
		mode = config.ModeAgent
	}
	return &App{mode: mode, agent: opts.Agent, provider: opts.Provider, catalog: opts.Catalog}
}

// Mode reports whether the App drives tools (agent) or only prompts (standalone).
func (a *App) Mode() string { return a.mode }

// Handle answers message and calls reply exactly once.
func (a *App) Handle(ctx context.Context, message string, reply func(string)) {
	reply(a.Answer(ctx, message))
}

// Answer returns the formatted reply to message. Failures become the reply text.
func (a *App) Answer(ctx context.Context, message string) string {
	logger := logging.MainLogger
	message = strings.TrimSpace(message)
	if message == "" {
		return resources.Greeting
	}

	start := time.Now()
	logger.Info("Processing message", "mode", a.mode, "length", len(message))
	logging.LogContent(logger, slog.LevelDebug, "Message text", "message", message)

	answer, err := a.safeAnswer(ctx, message)
	if err != nil {
		logger.Error("Error processing message", "error", err, "duration", time.Since(start))
		return format.Truncate(fmt.Sprintf("Sorry, I encountered an error: %v", err))
	}
	if strings.TrimSpace(answer) == "" {
		return resources.EmptyAnswer
	}

	logger.Info("Response ready", "duration", time.Since(start))
	return format.Text(strings.TrimSpace(answer))
}

// safeAnswer turns a panic in any collaborator into an error for this turn.
func (a *App) safeAnswer(ctx context.Context, message string) (answer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.MainLogger.Error("Recovered from panic while answering", "panic", r, "stack", string(debug.Stack()))
			answer, err = "", fmt.Errorf("internal error: %v", r)
		}
	}()
	return a.answer(ctx, message)
}

func (a *App) answer(ctx context.Context, message string) (string, error) {
	switch a.mode {
	case config.ModeStandalone:
		if a.provider == nil {
			return "", fmt.Errorf("no language model configured")
		}
		return a.provider.Complete(ctx, message, resources.StandaloneSystemPrompt(a.catalogContext()))
	default:
		if a.agent == nil {
			return "", fmt.Errorf("no agent configured")
		}
		return a.agent.Run(ctx, message)
	}
}

// catalogContext summarizes the catalog for the standalone prompt.
func (a *App) catalogContext() string {
	if a.catalog == nil {
		return resources.CatalogContextFallback
	}
	descriptors, err := a.catalog.Descriptors()
	if err != nil {
		logging.CatalogLogger.Warn("Catalog unavailable for prompt context", "error", err)
		return resources.CatalogContextFallback
	}
	endpoints := make([]resources.Endpoint, 0, len(descriptors))
	for _, d := range descriptors {
		endpoints = append(endpoints, resources.Endpoint{Path: d.Path, Name: d.Name})
	}
	return resources.CatalogContext(endpoints)
}

// StripMention removes every "<@userID>" mention of the bot from text.
func StripMention(text, userID string) string {
	if userID != "" {
		text = strings.ReplaceAll(text, "<@"+userID+">", "")
	}
	return strings.TrimSpace(text)
}
