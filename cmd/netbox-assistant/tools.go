// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gebl/netbox-assistant/internal/catalog"
	"github.com/gebl/netbox-assistant/internal/chain"
	"github.com/gebl/netbox-assistant/internal/format"
	"github.com/gebl/netbox-assistant/internal/inventory"
	"github.com/gebl/netbox-assistant/internal/logging"
	"github.com/gebl/netbox-assistant/internal/resources"
	"github.com/gebl/netbox-assistant/internal/tools"
)

// statusChecker is the part of the NetBox client the status tool needs.
type statusChecker interface {
	Status(ctx context.Context) (inventory.ServerStatus, error)
}

// newMCPServer creates the MCP server with every tool and resource registered.
func newMCPServer(svc *services) *server.MCPServer {
	s := server.NewMCPServer("NetBox Assistant", Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithPromptCapabilities(false))

	registerTools(s, svc.registry, svc.dispatcher, svc.store, svc.client)
	registerResources(s, svc.store)
	return s
}

// registerTools registers the dispatcher operations of the enabled toolsets
// plus the catalog and status maintenance tools.
func registerTools(s *server.MCPServer, registry *tools.ToolsetRegistry, d chain.Dispatcher, store *catalog.Store, status statusChecker) {
	logger := logging.ToolsLogger
	logger.Debug("Starting tool registration")

	for _, t := range registry.ListTools() {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			logger.Error("Skipping tool with invalid schema", "tool", t.Name, "error", err)
			continue
		}
		s.AddTool(mcp.NewToolWithRawSchema(t.Name, t.Description, schema), operationHandler(d, t.Operation))
	}

	reloadTool := mcp.NewTool("reloadCatalog",
		mcp.WithDescription(resources.MustGetToolDescription("reloadCatalog")))
	s.AddTool(reloadTool, reloadCatalogHandler(store))

	statusTool := mcp.NewTool("netboxStatus",
		mcp.WithDescription(resources.MustGetToolDescription("netboxStatus")))
	s.AddTool(statusTool, netboxStatusHandler(status))

	logger.Debug("All tools registered successfully", "count", len(registry.ListTools())+2)
}

// operationHandler runs op through the dispatcher and the chainer and returns
// the formatted text. Failed operations are flagged as tool errors.
func operationHandler(d chain.Dispatcher, op tools.Operation) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		startTime := time.Now()
		logger := logging.ToolsLogger
		logger.Info("MCP Tool: "+string(op), "operation", op, "type", "tool_invocation")

		raw, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		env := chain.Run(ctx, d, op, string(raw))
		text := format.Envelope(env)
		logger.Debug("MCP tool completed", "operation", op, "ok", env.OK(), "duration", time.Since(startTime))

		if !env.OK() {
			return mcp.NewToolResultError(text), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func reloadCatalogHandler(store *catalog.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logging.ToolsLogger.Info("MCP Tool: reloadCatalog", "operation", "reloadCatalog", "type", "tool_invocation")
		if err := store.Reload(); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to reload catalog: %v", err)), nil
		}
		descriptors, err := store.Descriptors()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to reload catalog: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Catalog reloaded: %d endpoints", len(descriptors))), nil
	}
}

func netboxStatusHandler(checker statusChecker) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logging.ToolsLogger.Info("MCP Tool: netboxStatus", "operation", "netboxStatus", "type", "tool_invocation")
		status, err := checker.Status(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get NetBox status: %v", err)), nil
		}
		supported := "supported"
		if !status.Supported {
			supported = "older than the supported " + inventory.MinimumVersion
		}
		return mcp.NewToolResultText(fmt.Sprintf("NetBox %s (%s)", status.Version, supported)), nil
	}
}
