// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package tools

import (
	"strings"

	"github.com/gebl/netbox-assistant/internal/catalog"
	"github.com/gebl/netbox-assistant/internal/inventory"
	"github.com/gebl/netbox-assistant/internal/resolver"
)

// Operation names one dispatcher operation.
type Operation string

const (
	OpDiscover     Operation = "discover"
	OpCheckSupport Operation = "check-support"
	OpRead         Operation = "read"
	OpCreate       Operation = "create"
	OpDelete       Operation = "delete"
)

// Operations lists every operation in presentation order.
var Operations = []Operation{OpDiscover, OpCheckSupport, OpRead, OpCreate, OpDelete}

// legacyNames maps the tool names older prompts and clients still use.
var legacyNames = map[string]Operation{
	"discover_apis":            OpDiscover,
	"check_supported_url_tool": OpCheckSupport,
	"get_netbox_data_tool":     OpRead,
	"create_netbox_data_tool":  OpCreate,
	"delete_netbox_data_tool":  OpDelete,
}

// ParseOperation accepts an operation name, its snake_case form, or a legacy tool name.
func ParseOperation(name string) (Operation, bool) {
	name = strings.TrimSpace(name)
	if op, ok := legacyNames[name]; ok {
		return op, true
	}
	op := Operation(strings.ReplaceAll(strings.ToLower(name), "_", "-"))
	for _, known := range Operations {
		if op == known {
			return op, true
		}
	}
	return "", false
}

// Step is how failures of the operation are described to users.
func (o Operation) Step() string {
	switch o {
	case OpDiscover:
		return "Discovery"
	case OpCheckSupport:
		return "Resolution"
	case OpRead:
		return "Fetch"
	case OpCreate:
		return "Create"
	case OpDelete:
		return "Delete"
	default:
		return "Request"
	}
}

// ChainedAction asks the chainer to run one more operation.
type ChainedAction struct {
	NextOperation Operation
	Input         string
}

// FailureKind classifies failures that happen before or instead of a NetBox call.
type FailureKind string

const (
	FailureValidation         FailureKind = "validation"
	FailureCatalogUnavailable FailureKind = "catalog_unavailable"
	FailureDenied             FailureKind = "denied"
	FailureUnknownOperation   FailureKind = "unknown_operation"
)

// Failure is a dispatcher-level error returned as data.
type Failure struct {
	Kind    FailureKind
	Message string
}

// Envelope is the uniform result of every operation. Exactly one of Call,
// Resolution, Catalog (with Discovered set) or Failure carries the outcome.
type Envelope struct {
	Operation  Operation
	Path       string
	Call       *inventory.Result
	Resolution *resolver.Result
	Catalog    []catalog.EndpointDescriptor
	Discovered bool
	Failure    *Failure

	ChainedAction *ChainedAction
}

// OK reports whether the operation completed without any failure.
func (e Envelope) OK() bool {
	switch {
	case e.Failure != nil:
		return false
	case e.Call != nil:
		return e.Call.OK()
	case e.Resolution != nil:
		return e.Resolution.Status != resolver.StatusCatalogUnavailable
	default:
		return e.Discovered
	}
}

func failed(op Operation, path string, kind FailureKind, message string) Envelope {
	return Envelope{Operation: op, Path: path, Failure: &Failure{Kind: kind, Message: message}}
}
