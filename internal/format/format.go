// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// format.go - Renders dispatcher results as bounded chat text.
//
// Recognized payload shapes:
//   - an object with a "results" list (NetBox pagination): header, first five
//     entries, remainder count
//   - any other JSON value: indented JSON
//   - anything that is not JSON: the raw text
// Every output passes through Truncate.

package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gebl/netbox-assistant/internal/inventory"
	"github.com/gebl/netbox-assistant/internal/logging"
	"github.com/gebl/netbox-assistant/internal/resolver"
	"github.com/gebl/netbox-assistant/internal/tools"
)

const (
	// MaxLength is the largest number of characters kept before the marker.
	MaxLength = 3000
	// TruncationMarker is appended to text cut at MaxLength.
	TruncationMarker = "\n\n... (response truncated)"
	// NoResults is the reply for an empty result list.
	NoResults = "No results found."

	listLimit = 5
)

// Envelope renders the final envelope of a turn.
func Envelope(env tools.Envelope) string {
	step := env.Operation.Step()

	switch {
	case env.Failure != nil:
		return Truncate(failure(step, env.Failure))
	case env.Call != nil:
		return Call(step, env.Path, *env.Call)
	case env.Resolution != nil:
		return Resolution(*env.Resolution)
	case env.Discovered:
		return Truncate(discovery(env))
	}
	logging.ToolsLogger.Warn("Empty envelope", "operation", env.Operation)
	return fmt.Sprintf("%s failed: no result", step)
}

// Call renders one NetBox call result. step names the operation in error
// messages, target is used when a success carries no body.
func Call(step, target string, result inventory.Result) string {
	switch result.Kind {
	case inventory.KindSuccess:
		if len(result.Payload) == 0 {
			return Truncate(fmt.Sprintf("%s succeeded: %s", step, target))
		}
		return Payload(result.Payload)
	case inventory.KindHTTPError:
		msg := fmt.Sprintf("%s failed: NetBox returned HTTP %d", step, result.StatusCode)
		if body := strings.TrimSpace(result.Body); body != "" {
			msg += ": " + body
		}
		return Truncate(msg)
	default:
		return Truncate(fmt.Sprintf("%s failed: could not reach NetBox (%s)", step, result.Reason))
	}
}

// Resolution renders an endpoint resolution that was not followed by a fetch.
func Resolution(res resolver.Result) string {
	switch res.Status {
	case resolver.StatusSupported:
		if res.ResolvedName != "" {
			return Truncate(fmt.Sprintf("The API '%s' is supported: %s", res.ResolvedName, res.ResolvedPath))
		}
		return Truncate(fmt.Sprintf("The API %s is supported.", res.ResolvedPath))
	case resolver.StatusCatalogUnavailable:
		return Truncate("Resolution failed: endpoint catalog unavailable (" + res.Reason + ")")
	default:
		return Truncate(res.Message())
	}
}

// Text formats free text from a model or a tool. Text that looks like a JSON
// object is rendered as a payload; anything else is only truncated.
func Text(s string) string {
	if strings.HasPrefix(strings.TrimSpace(s), "{") && json.Valid([]byte(s)) {
		return Payload(json.RawMessage(s))
	}
	return Truncate(s)
}

// Payload renders a successful response body.
func Payload(raw json.RawMessage) string {
	var page struct {
		Results *[]json.RawMessage `json:"results"`
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &page) == nil && page.Results != nil {
		return Truncate(list(*page.Results))
	}
	return Truncate(pretty(trimmed))
}

// Truncate cuts s to MaxLength characters and appends TruncationMarker.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxLength]) + TruncationMarker
}

func list(results []json.RawMessage) string {
	if len(results) == 0 {
		return NoResults
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d result(s):\n\n", len(results))
	for i, item := range results {
		if i == listLimit {
			break
		}
		fmt.Fprintf(&b, "*%d.* %s\n", i+1, entry(item))
	}
	if len(results) > listLimit {
		fmt.Fprintf(&b, "\n... and %d more results", len(results)-listLimit)
	}
	return b.String()
}

// entry labels one list item. Items that are not objects are shown as raw JSON.
func entry(raw json.RawMessage) string {
	item, err := decodeObject(raw)
	if err != nil {
		logging.ToolsLogger.Debug("Unrecognized list item", "error", err)
		return string(bytes.TrimSpace(raw))
	}

	var label string
	if v, ok := item["name"]; ok {
		label = "**" + scalar(v) + "**"
	} else if v, ok := item["display_name"]; ok {
		label = "**" + scalar(v) + "**"
	} else if v, ok := item["id"]; ok {
		label = "**ID: " + scalar(v) + "**"
	}

	if v, ok := item["status"]; ok && v != nil {
		label += " (Status: " + nested(v, "value", "label") + ")"
	}
	if v, ok := item["site"]; ok && v != nil {
		label += " (Site: " + nested(v, "name", "display") + ")"
	}
	return strings.TrimSpace(label)
}

func decodeObject(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var item map[string]any
	if err := dec.Decode(&item); err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("list item is null")
	}
	return item, nil
}

// nested reads the first present key of a NetBox nested object, such as
// status {"value": "active", "label": "Active"}. Plain values are used as is.
func nested(v any, keys ...string) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return scalar(v)
	}
	for _, k := range keys {
		if inner, ok := obj[k]; ok && inner != nil {
			return scalar(inner)
		}
	}
	return "unknown"
}

func scalar(v any) string {
	switch typed := v.(type) {
	case nil:
		return "None"
	case string:
		return typed
	case json.Number:
		return typed.String()
	case map[string]any, []any:
		out, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}
		return string(out)
	default:
		return fmt.Sprint(typed)
	}
}

// pretty indents JSON in its original key order, or returns the input
// unchanged when it is not JSON.
func pretty(raw []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return string(raw)
	}
	return out.String()
}

func discovery(env tools.Envelope) string {
	if len(env.Catalog) == 0 {
		return NoResults
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Known NetBox APIs (%d):\n", len(env.Catalog))
	for _, d := range env.Catalog {
		if d.Name != "" {
			fmt.Fprintf(&b, "- %s: %s\n", d.Name, d.Path)
		} else {
			fmt.Fprintf(&b, "- %s\n", d.Path)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func failure(step string, f *tools.Failure) string {
	switch f.Kind {
	case tools.FailureCatalogUnavailable:
		return fmt.Sprintf("%s failed: endpoint catalog unavailable (%s)", step, f.Message)
	case tools.FailureDenied:
		return fmt.Sprintf("%s failed: not permitted (%s)", step, f.Message)
	case tools.FailureValidation:
		return fmt.Sprintf("%s failed: invalid input (%s)", step, f.Message)
	default:
		return fmt.Sprintf("%s failed: %s", step, f.Message)
	}
}
