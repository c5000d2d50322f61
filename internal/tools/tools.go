// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package tools

import (
	"sort"

	"github.com/gebl/netbox-assistant/internal/resources"
)

// Toolset names group operations by whether they change NetBox.
const (
	ToolsetRead  = "read"
	ToolsetWrite = "write"
)

// Tool describes one operation for a language model or MCP client.
// Name is the operation name; InputSchema is a JSON schema object.
type Tool struct {
	Name        string         `json:"name"`
	Operation   Operation      `json:"-"`
	Toolset     string         `json:"-"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ToolsetRegistry holds the tools of the enabled toolsets.
type ToolsetRegistry struct {
	Enabled map[string]bool
	tools   map[string]Tool
}

// NewToolsetRegistry creates a registry with the given toolsets enabled.
func NewToolsetRegistry(toolsets []string) *ToolsetRegistry {
	enabled := make(map[string]bool)
	for _, t := range toolsets {
		enabled[t] = true
	}
	return &ToolsetRegistry{
		Enabled: enabled,
		tools:   make(map[string]Tool),
	}
}

// RegisterTool adds a tool if its toolset is enabled.
func (r *ToolsetRegistry) RegisterTool(tool Tool) {
	if !r.Enabled[tool.Toolset] {
		return
	}
	r.tools[tool.Name] = tool
}

// Lookup returns the registered tool with the given name.
func (r *ToolsetRegistry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// ListTools returns all registered tools in operation order.
func (r *ToolsetRegistry) ListTools() []Tool {
	order := make(map[Operation]int, len(Operations))
	for i, op := range Operations {
		order[op] = i
	}
	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool { return order[tools[i].Operation] < order[tools[j].Operation] })
	return tools
}

// DefaultRegistry registers the dispatcher operations. With readOnly set the
// write toolset is left disabled so models are never offered create or delete.
func DefaultRegistry(readOnly bool) *ToolsetRegistry {
	toolsets := []string{ToolsetRead}
	if !readOnly {
		toolsets = append(toolsets, ToolsetWrite)
	}
	r := NewToolsetRegistry(toolsets)
	for _, t := range operationTools() {
		r.RegisterTool(t)
	}
	return r
}

func operationTools() []Tool {
	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}
	object := func(props map[string]any, required ...string) map[string]any {
		schema := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			schema["required"] = required
		}
		return schema
	}

	return []Tool{
		{
			Name: string(OpDiscover), Operation: OpDiscover, Toolset: ToolsetRead,
			Description: resources.MustGetToolDescription(string(OpDiscover)),
			InputSchema: object(map[string]any{}),
		},
		{
			Name: string(OpCheckSupport), Operation: OpCheckSupport, Toolset: ToolsetRead,
			Description: resources.MustGetToolDescription(string(OpCheckSupport)),
			InputSchema: object(map[string]any{"query": str("API URL or endpoint name to look up")}, "query"),
		},
		{
			Name: string(OpRead), Operation: OpRead, Toolset: ToolsetRead,
			Description: resources.MustGetToolDescription(string(OpRead)),
			InputSchema: object(map[string]any{
				"path":   str("API path, e.g. /api/dcim/devices/"),
				"params": map[string]any{"type": "object", "description": "Query parameters", "additionalProperties": true},
			}, "path"),
		},
		{
			Name: string(OpCreate), Operation: OpCreate, Toolset: ToolsetWrite,
			Description: resources.MustGetToolDescription(string(OpCreate)),
			InputSchema: object(map[string]any{
				"path":    str("Collection path, e.g. /api/dcim/sites/"),
				"payload": map[string]any{"type": "object", "description": "Fields of the new object", "additionalProperties": true},
			}, "path", "payload"),
		},
		{
			Name: string(OpDelete), Operation: OpDelete, Toolset: ToolsetWrite,
			Description: resources.MustGetToolDescription(string(OpDelete)),
			InputSchema: object(map[string]any{"path": str("Object path including its ID, e.g. /api/dcim/devices/42/")}, "path"),
		},
	}
}
