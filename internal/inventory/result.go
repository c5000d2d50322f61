// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Kind tags a Result.
type Kind string

const (
	KindSuccess        Kind = "success"
	KindHTTPError      Kind = "http_error"
	KindTransportError Kind = "transport_error"
)

// Result is the outcome of one NetBox call.
//
//	success:         Payload holds the JSON body, nil for an empty response
//	http_error:      StatusCode and Body describe the rejection
//	transport_error: Reason says why the call never completed
type Result struct {
	Kind       Kind            `json:"kind"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	StatusCode int             `json:"status_code,omitempty"`
	Body       string          `json:"body,omitempty"`
	Reason     string          `json:"reason,omitempty"`
}

func success(payload json.RawMessage) Result {
	return Result{Kind: KindSuccess, Payload: payload}
}

func httpError(status int, body string) Result {
	return Result{Kind: KindHTTPError, StatusCode: status, Body: body}
}

func transportError(reason string) Result {
	return Result{Kind: KindTransportError, Reason: reason}
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Kind == KindSuccess }

// Err converts a failed Result into an error, nil on success.
func (r Result) Err() error {
	switch r.Kind {
	case KindSuccess:
		return nil
	case KindHTTPError:
		return fmt.Errorf("HTTP %d: %s", r.StatusCode, r.Body)
	default:
		return fmt.Errorf("transport error: %s", r.Reason)
	}
}

// ValidationError rejects a create request before it reaches the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NormalizePayload checks that payload is a non-empty JSON object and returns
// its compacted encoding. Numbers and key order are left untouched. Accepted
// inputs are maps, json.RawMessage, []byte and JSON text.
func NormalizePayload(payload any) (json.RawMessage, error) {
	var raw []byte
	switch p := payload.(type) {
	case nil:
		return nil, &ValidationError{Field: "payload", Reason: "payload is required"}
	case json.RawMessage:
		raw = p
	case []byte:
		raw = p
	case string:
		raw = []byte(p)
	default:
		encoded, err := json.Marshal(p)
		if err != nil {
			return nil, &ValidationError{Field: "payload", Reason: fmt.Sprintf("payload is not encodable: %v", err)}
		}
		raw = encoded
	}

	if strings.TrimSpace(string(raw)) == "" {
		return nil, &ValidationError{Field: "payload", Reason: "payload is required"}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var object map[string]any
	if err := dec.Decode(&object); err != nil || object == nil {
		return nil, &ValidationError{Field: "payload", Reason: "payload must be a JSON object"}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ValidationError{Field: "payload", Reason: "payload must be a single JSON object"}
	}
	if len(object) == 0 {
		return nil, &ValidationError{Field: "payload", Reason: "payload must not be empty"}
	}

	// The caller's bytes are sent as written, only whitespace is removed.
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return nil, &ValidationError{Field: "payload", Reason: "payload must be a JSON object"}
	}
	return compact.Bytes(), nil
}
