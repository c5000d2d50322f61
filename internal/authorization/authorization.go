// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package authorization

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gebl/netbox-assistant/internal/logging"
)

// PermissionLevel defines the level of access allowed
type PermissionLevel string

const (
	PermissionNone  PermissionLevel = "none"  // Block all access
	PermissionRead  PermissionLevel = "read"  // Allow read-only operations
	PermissionWrite PermissionLevel = "write" // Allow read + write operations
	PermissionFull  PermissionLevel = "full"  // Same as write
)

// ToolOperation represents whether a dispatcher operation reads or mutates NetBox
type ToolOperation string

const (
	OperationRead  ToolOperation = "read"
	OperationWrite ToolOperation = "write"
)

// ParsePermissionLevel accepts the level names case-insensitively.
func ParsePermissionLevel(s string) (PermissionLevel, error) {
	level := PermissionLevel(strings.ToLower(strings.TrimSpace(s)))
	switch level {
	case PermissionNone, PermissionRead, PermissionWrite, PermissionFull:
		return level, nil
	default:
		return "", fmt.Errorf("unknown permission level %q", s)
	}
}

// DeniedError is returned when a policy refuses an operation.
type DeniedError struct {
	Operation ToolOperation
	Path      string
	Granted   PermissionLevel
	Rule      string
}

func (e *DeniedError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("access denied: %s on %s requires more than '%s' permission (rule %q)", e.Operation, e.Path, e.Granted, e.Rule)
	}
	return fmt.Sprintf("access denied: %s on %s requires more than '%s' permission", e.Operation, e.Path, e.Granted)
}

// Policy decides which NetBox endpoints may be read or modified.
// Endpoint patterns take precedence over the default mode; READ_ONLY caps
// everything at read regardless of patterns.
type Policy struct {
	DefaultMode PermissionLevel
	ReadOnly    bool
	engine      *PatternEngine
	base        *url.URL
}

// foreignHostRule names the denial of absolute URLs outside the NetBox host.
const foreignHostRule = "foreign host"

// RestrictToHost records the NetBox base URL. Absolute URLs are then allowed
// only on its scheme and host; without it every absolute URL is denied.
func (p *Policy) RestrictToHost(baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid NetBox base URL %q", baseURL)
	}
	p.base = u
	return nil
}

// NewPolicy compiles endpoint patterns such as "/api/dcim/**" or
// "/api/ipam/prefixes/" into a Policy. An empty pattern map allows writes
// unless readOnly is set.
func NewPolicy(readOnly bool, endpointPermissions map[string]string) (*Policy, error) {
	levels := make(map[string]PermissionLevel, len(endpointPermissions))
	for pattern, raw := range endpointPermissions {
		level, err := ParsePermissionLevel(raw)
		if err != nil {
			return nil, fmt.Errorf("endpoint permission %q: %w", pattern, err)
		}
		levels[pattern] = level
	}

	engine := NewPatternEngine()
	if err := engine.CompilePatterns(levels); err != nil {
		return nil, err
	}

	p := &Policy{DefaultMode: PermissionWrite, ReadOnly: readOnly, engine: engine}
	logging.AuthorizationLogger.Debug("Authorization policy compiled",
		"read_only", readOnly,
		"patterns", len(levels))
	return p, nil
}

// Authorize checks one operation against path.
func (p *Policy) Authorize(operation ToolOperation, path string) error {
	if p == nil {
		return nil
	}

	key, ok := p.endpointKey(path)
	if !ok {
		logging.AuthorizationLogger.Warn("Operation denied for foreign host",
			"operation", operation,
			"path", path)
		return &DeniedError{Operation: operation, Path: path, Granted: PermissionNone, Rule: foreignHostRule}
	}

	granted := p.DefaultMode
	rule := ""
	if level, pattern, ok := p.engine.Match(key); ok {
		granted = level
		rule = pattern
	}
	if p.ReadOnly && granted != PermissionNone {
		granted = PermissionRead
		if rule == "" {
			rule = "READ_ONLY"
		}
	}

	if !permissionAllowsOperation(granted, operation) {
		logging.AuthorizationLogger.Info("Operation denied",
			"operation", operation,
			"path", path,
			"granted", granted,
			"rule", rule)
		return &DeniedError{Operation: operation, Path: path, Granted: granted, Rule: rule}
	}

	logging.AuthorizationLogger.Debug("Operation allowed",
		"operation", operation,
		"path", path,
		"granted", granted)
	return nil
}

// endpointKey drops the scheme, host and query so patterns see only the API
// path. It reports false for an absolute URL outside the NetBox host.
func (p *Policy) endpointKey(path string) (string, bool) {
	if strings.Contains(path, "://") {
		u, err := url.Parse(path)
		if err != nil || p.base == nil || u.User != nil ||
			!strings.EqualFold(u.Scheme, p.base.Scheme) || !strings.EqualFold(u.Host, p.base.Host) {
			return "", false
		}
		path = u.Path
		if path == "" {
			path = "/"
		}
		return path, true
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return path, true
}

// permissionAllowsOperation checks if a permission level allows a specific operation
func permissionAllowsOperation(permission PermissionLevel, operation ToolOperation) bool {
	switch permission {
	case PermissionNone:
		return false
	case PermissionRead:
		return operation == OperationRead
	case PermissionWrite, PermissionFull:
		return true
	default:
		return false
	}
}
