// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Input is the decoded argument of an operation.
type Input struct {
	Query   string
	Path    string
	Params  url.Values
	Payload json.RawMessage
}

// structuredInput is the JSON form agents send. Both "path" and the older
// "api_url" spelling are accepted.
type structuredInput struct {
	Path    string          `json:"path"`
	APIURL  string          `json:"api_url"`
	Query   string          `json:"query"`
	Params  map[string]any  `json:"params"`
	Payload json.RawMessage `json:"payload"`
}

// ParseInput decodes the string argument of op. Read and delete take a bare
// path or a JSON object; create requires a JSON object with path and payload;
// check-support takes the query text.
func ParseInput(op Operation, raw string) (Input, error) {
	raw = strings.TrimSpace(raw)
	if op != OpDiscover && op != OpCreate && emptyInput(raw) {
		return Input{}, fmt.Errorf("%s requires input", op)
	}

	switch op {
	case OpDiscover:
		return Input{}, nil

	case OpCheckSupport:
		if strings.HasPrefix(raw, "{") {
			s, err := decodeStructured(raw)
			if err != nil {
				return Input{}, err
			}
			query := firstNonEmpty(s.Query, s.Path, s.APIURL)
			if query == "" {
				return Input{}, fmt.Errorf("%s requires a 'query'", op)
			}
			return Input{Query: query}, nil
		}
		return Input{Query: unquote(raw)}, nil

	case OpRead, OpDelete:
		if strings.HasPrefix(raw, "{") {
			s, err := decodeStructured(raw)
			if err != nil {
				return Input{}, err
			}
			return Input{Path: firstNonEmpty(s.Path, s.APIURL), Params: toValues(s.Params)}, nil
		}
		return Input{Path: unquote(raw)}, nil

	case OpCreate:
		if emptyInput(raw) {
			return Input{}, fmt.Errorf("create requires a JSON object with 'path' and 'payload'")
		}
		s, err := decodeStructured(raw)
		if err != nil {
			return Input{}, err
		}
		return Input{Path: firstNonEmpty(s.Path, s.APIURL), Payload: s.Payload}, nil
	}

	return Input{}, fmt.Errorf("unknown operation %q", op)
}

// emptyInput reports whether raw carries no arguments at all. MCP clients send
// "null" or "{}" when a call has none.
func emptyInput(raw string) bool {
	if raw == "" || raw == "null" {
		return true
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(raw)); err != nil {
		return false
	}
	return compact.String() == "{}"
}

func decodeStructured(raw string) (structuredInput, error) {
	var s structuredInput
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if err := dec.Decode(&s); err != nil {
		return s, fmt.Errorf("input is not valid JSON: %w", err)
	}
	return s, nil
}

// toValues flattens a params object into query values. Lists become repeated keys.
func toValues(params map[string]any) url.Values {
	if len(params) == 0 {
		return nil
	}
	values := url.Values{}
	for key, v := range params {
		switch typed := v.(type) {
		case []any:
			for _, item := range typed {
				values.Add(key, scalar(item))
			}
		default:
			values.Add(key, scalar(typed))
		}
	}
	return values
}

func scalar(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case json.Number:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
