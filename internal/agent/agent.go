// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// agent.go - Function-calling loop that drives the dispatcher.
//
// The model is offered the registered operations as functions. Every call it
// makes runs through the dispatcher and the chainer and is rendered by the
// formatter before it is handed back, so the model sees exactly the text a
// user would. The loop ends when the model answers without calling a tool or
// after MaxIterations rounds.

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/gebl/netbox-assistant/internal/chain"
	"github.com/gebl/netbox-assistant/internal/format"
	"github.com/gebl/netbox-assistant/internal/logging"
	"github.com/gebl/netbox-assistant/internal/resources"
	"github.com/gebl/netbox-assistant/internal/tools"
)

// ErrIterationLimit is returned when the model keeps calling tools.
var ErrIterationLimit = errors.New("agent stopped before reaching an answer")

// ChatCompleter is the part of *openai.Client the agent uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Options configures an Agent.
type Options struct {
	Client        ChatCompleter
	Model         string
	Timeout       time.Duration
	MaxIterations int
	Registry      *tools.ToolsetRegistry
	Dispatcher    chain.Dispatcher
	SystemPrompt  string
}

// Agent answers one message per Run. It holds no conversation state.
type Agent struct {
	client        ChatCompleter
	model         string
	timeout       time.Duration
	maxIterations int
	registry      *tools.ToolsetRegistry
	dispatcher    chain.Dispatcher
	systemPrompt  string
	functions     []openai.Tool
}

// New creates an Agent. MaxIterations defaults to 10 and SystemPrompt to the
// NetBox agent prompt.
func New(opts Options) *Agent {
	a := &Agent{
		client:        opts.Client,
		model:         opts.Model,
		timeout:       opts.Timeout,
		maxIterations: opts.MaxIterations,
		registry:      opts.Registry,
		dispatcher:    opts.Dispatcher,
		systemPrompt:  opts.SystemPrompt,
	}
	if a.maxIterations <= 0 {
		a.maxIterations = 10
	}
	if a.systemPrompt == "" {
		a.systemPrompt = resources.AgentSystemPrompt
	}
	for _, t := range a.registry.ListTools() {
		a.functions = append(a.functions, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return a
}

// Run answers message, calling tools as the model requests.
func (a *Agent) Run(ctx context.Context, message string) (string, error) {
	logger := logging.AgentLogger
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: a.systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: message},
	}

	for iteration := 1; iteration <= a.maxIterations; iteration++ {
		reply, err := a.complete(ctx, messages)
		if err != nil {
			return "", err
		}

		if len(reply.ToolCalls) == 0 {
			logger.Debug("Agent finished", "iterations", iteration)
			return reply.Content, nil
		}

		messages = append(messages, reply)
		for _, call := range reply.ToolCalls {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
				Content:    a.invoke(ctx, call),
			})
		}
	}

	logger.Warn("Agent hit iteration limit", "max_iterations", a.maxIterations)
	return "", fmt.Errorf("%w after %d iterations", ErrIterationLimit, a.maxIterations)
}

func (a *Agent) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (openai.ChatCompletionMessage, error) {
	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: messages,
		Tools:    a.functions,
	})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return openai.ChatCompletionMessage{}, errors.New("language model request timed out")
		}
		return openai.ChatCompletionMessage{}, fmt.Errorf("language model request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, errors.New("language model returned no choices")
	}
	logging.AgentLogger.Debug("Model turn", "duration", time.Since(start), "tool_calls", len(resp.Choices[0].Message.ToolCalls))
	return resp.Choices[0].Message, nil
}

// invoke runs one tool call and returns the text handed back to the model.
func (a *Agent) invoke(ctx context.Context, call openai.ToolCall) string {
	logger := logging.AgentLogger
	tool, ok := a.registry.Lookup(call.Function.Name)
	if !ok {
		if op, known := tools.ParseOperation(call.Function.Name); known {
			tool, ok = a.registry.Lookup(string(op))
		}
	}
	if !ok {
		logger.Warn("Model requested unavailable tool", "tool", call.Function.Name)
		return fmt.Sprintf("Tool %q is not available.", call.Function.Name)
	}

	args := strings.TrimSpace(call.Function.Arguments)
	logger.Info("Invoking tool", "tool", tool.Name)
	logging.LogContent(logger, slog.LevelDebug, "Tool arguments", "tool", tool.Name, "arguments", args)

	env := chain.Run(ctx, a.dispatcher, tool.Operation, args)
	return format.Envelope(env)
}
