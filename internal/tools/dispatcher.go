// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// dispatcher.go - The five operations a driving agent can invoke.
//
// Every operation returns an Envelope; nothing is returned as a Go error.
// Failures (bad input, denied by policy, catalog missing, NetBox rejecting
// the call) travel as data so the caller can always render a reply.
//
// Usage Example:
//   d := tools.NewDispatcher(tools.Deps{Catalog: store, Inventory: client})
//   env := d.Dispatch(ctx, tools.OpCheckSupport, "devices")
//   env = chain.Apply(ctx, d, env)
//   reply := format.Envelope(env)

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gebl/netbox-assistant/internal/audit"
	"github.com/gebl/netbox-assistant/internal/authorization"
	"github.com/gebl/netbox-assistant/internal/catalog"
	"github.com/gebl/netbox-assistant/internal/inventory"
	"github.com/gebl/netbox-assistant/internal/logging"
	"github.com/gebl/netbox-assistant/internal/resolver"
)

// CatalogSource provides the current endpoint catalog.
type CatalogSource interface {
	Descriptors() ([]catalog.EndpointDescriptor, error)
}

// Inventory is the NetBox client surface the dispatcher needs.
type Inventory interface {
	Read(ctx context.Context, path string, query url.Values) inventory.Result
	Create(ctx context.Context, path string, payload any) (inventory.Result, error)
	Delete(ctx context.Context, path string) inventory.Result
}

// Deps are the collaborators of a Dispatcher. Policy and Publisher are optional.
type Deps struct {
	Catalog   CatalogSource
	Inventory Inventory
	Policy    *authorization.Policy
	Publisher audit.Publisher
}

// Dispatcher routes operations to the resolver and the inventory client.
// It keeps no per-call state and is safe for concurrent use.
type Dispatcher struct {
	catalog   CatalogSource
	resolver  *resolver.Resolver
	inventory Inventory
	policy    *authorization.Policy
	publisher audit.Publisher
}

// NewDispatcher wires a Dispatcher.
func NewDispatcher(deps Deps) *Dispatcher {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = audit.NoOpPublisher{}
	}
	return &Dispatcher{
		catalog:   deps.Catalog,
		resolver:  resolver.New(deps.Catalog),
		inventory: deps.Inventory,
		policy:    deps.Policy,
		publisher: publisher,
	}
}

// Dispatch decodes raw for op and runs it.
func (d *Dispatcher) Dispatch(ctx context.Context, op Operation, raw string) Envelope {
	logger := logging.ToolsLogger
	logger.Debug("Dispatching operation", "operation", op)

	parsed, ok := ParseOperation(string(op))
	if !ok {
		logger.Warn("Unknown operation requested", "operation", op)
		return failed(op, "", FailureUnknownOperation, fmt.Sprintf("unknown operation %q", op))
	}
	op = parsed

	in, err := ParseInput(op, raw)
	if err != nil {
		return failed(op, "", FailureValidation, err.Error())
	}

	switch op {
	case OpDiscover:
		return d.Discover(ctx)
	case OpCheckSupport:
		return d.CheckSupport(ctx, in.Query)
	case OpRead:
		return d.Read(ctx, in.Path, in.Params)
	case OpCreate:
		return d.Create(ctx, in.Path, in.Payload)
	case OpDelete:
		return d.Delete(ctx, in.Path)
	}
	return failed(op, "", FailureUnknownOperation, fmt.Sprintf("unknown operation %q", op))
}

// Discover returns the full catalog.
func (d *Dispatcher) Discover(_ context.Context) Envelope {
	descriptors, err := d.catalog.Descriptors()
	if err != nil {
		logging.ToolsLogger.Warn("Discovery failed", "error", err)
		return failed(OpDiscover, "", FailureCatalogUnavailable, err.Error())
	}
	logging.ToolsLogger.Debug("Discovery completed", "endpoints", len(descriptors))
	return Envelope{Operation: OpDiscover, Catalog: descriptors, Discovered: true}
}

// CheckSupport resolves query; a supported endpoint carries a chained read.
func (d *Dispatcher) CheckSupport(_ context.Context, query string) Envelope {
	res := d.resolver.Resolve(query)
	env := Envelope{Operation: OpCheckSupport, Resolution: &res}
	if res.Supported() {
		env.Path = res.ResolvedPath
		env.ChainedAction = &ChainedAction{NextOperation: OpRead, Input: res.ResolvedPath}
	}
	logging.ToolsLogger.Debug("Support check completed", "query", query, "status", res.Status, "path", res.ResolvedPath)
	return env
}

// Read fetches path with optional query parameters.
func (d *Dispatcher) Read(ctx context.Context, path string, params url.Values) Envelope {
	if path == "" {
		return failed(OpRead, path, FailureValidation, "'path' must be provided")
	}
	if err := d.policy.Authorize(authorization.OperationRead, path); err != nil {
		return failed(OpRead, path, FailureDenied, err.Error())
	}

	start := time.Now()
	result := d.inventory.Read(ctx, path, params)
	logging.ToolsLogger.Debug("Read completed", "path", path, "kind", result.Kind, "duration", time.Since(start))
	return Envelope{Operation: OpRead, Path: path, Call: &result}
}

// Create posts payload to path after validating both.
func (d *Dispatcher) Create(ctx context.Context, path string, payload json.RawMessage) Envelope {
	if path == "" || len(payload) == 0 {
		return failed(OpCreate, path, FailureValidation, "both 'path' and 'payload' must be provided")
	}
	if err := d.policy.Authorize(authorization.OperationWrite, path); err != nil {
		return failed(OpCreate, path, FailureDenied, err.Error())
	}

	start := time.Now()
	result, err := d.inventory.Create(ctx, path, payload)
	if err != nil {
		var validationErr *inventory.ValidationError
		if errors.As(err, &validationErr) {
			return failed(OpCreate, path, FailureValidation, validationErr.Error())
		}
		return failed(OpCreate, path, FailureValidation, err.Error())
	}
	logging.ToolsLogger.Info("Create completed", "path", path, "kind", result.Kind, "duration", time.Since(start))

	if result.OK() {
		d.publish(ctx, audit.ActionCreate, path, result)
	}
	return Envelope{Operation: OpCreate, Path: path, Call: &result}
}

// Delete removes the object at path.
func (d *Dispatcher) Delete(ctx context.Context, path string) Envelope {
	if path == "" {
		return failed(OpDelete, path, FailureValidation, "'path' must be provided")
	}
	if err := d.policy.Authorize(authorization.OperationWrite, path); err != nil {
		return failed(OpDelete, path, FailureDenied, err.Error())
	}

	start := time.Now()
	result := d.inventory.Delete(ctx, path)
	logging.ToolsLogger.Info("Delete completed", "path", path, "kind", result.Kind, "duration", time.Since(start))

	if result.OK() {
		d.publish(ctx, audit.ActionDelete, path, result)
	}
	return Envelope{Operation: OpDelete, Path: path, Call: &result}
}

// publish emits an audit event. Failures are logged only; the mutation already happened.
func (d *Dispatcher) publish(ctx context.Context, action audit.Action, target string, result inventory.Result) {
	event := &audit.MutationEvent{
		Action:    action,
		Path:      target,
		ObjectID:  objectID(action, target, result),
		Actor:     audit.ActorFrom(ctx),
		Timestamp: time.Now().UTC(),
	}
	if err := d.publisher.PublishMutation(ctx, event); err != nil {
		logging.AuditLogger.Warn("Audit event not delivered", "action", action, "path", target, "error", err)
	}
}

// objectID takes the id of a created object from the response, or the last
// numeric path segment of a deleted one.
func objectID(action audit.Action, target string, result inventory.Result) string {
	if action == audit.ActionCreate && len(result.Payload) > 0 {
		var created struct {
			ID json.Number `json:"id"`
		}
		if err := json.Unmarshal(result.Payload, &created); err == nil {
			return created.ID.String()
		}
		return ""
	}
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}
	last := path.Base(strings.TrimSuffix(target, "/"))
	for _, r := range last {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return last
}
