// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// chain.go - Runs the follow-up operation a dispatcher result asks for.
//
// Chains are exactly one hop deep. A follow-up whose own envelope asks for
// another operation is a defect: the extra hop is logged and dropped, so
// Apply always terminates without cycle detection.

package chain

import (
	"context"

	"github.com/gebl/netbox-assistant/internal/logging"
	"github.com/gebl/netbox-assistant/internal/tools"
)

// Dispatcher runs one operation by name.
type Dispatcher interface {
	Dispatch(ctx context.Context, op tools.Operation, raw string) tools.Envelope
}

// Apply returns env unchanged when it carries no chained action. Otherwise it
// dispatches the chained operation once and returns that envelope in place
// of env.
func Apply(ctx context.Context, d Dispatcher, env tools.Envelope) tools.Envelope {
	next := env.ChainedAction
	if next == nil {
		return env
	}
	logger := logging.ChainLogger
	logger.Debug("Following chained action", "from", env.Operation, "next", next.NextOperation, "input", next.Input)

	final := d.Dispatch(ctx, next.NextOperation, next.Input)
	if final.ChainedAction != nil {
		logger.Error("Dropping second-level chained action",
			"from", final.Operation,
			"next", final.ChainedAction.NextOperation,
			"input", final.ChainedAction.Input)
		final.ChainedAction = nil
	}
	return final
}

// Run dispatches op and applies any chained action. It is the single entry
// point the agent, the MCP tools and the web surface use.
func Run(ctx context.Context, d Dispatcher, op tools.Operation, raw string) tools.Envelope {
	return Apply(ctx, d, d.Dispatch(ctx, op, raw))
}
