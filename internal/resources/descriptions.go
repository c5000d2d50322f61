// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package resources

import (
	"fmt"
)

// toolDescriptions holds the text shown to language models and MCP clients
// for each dispatcher operation, keyed by operation name.
var toolDescriptions = map[string]string{
	"discover": "Discover the NetBox API endpoints this assistant knows about. Returns the endpoint catalog as a list of {URL, Name} entries.\n\nUse when the user asks what can be queried, or when you need an exact endpoint path and have no idea where to start.",

	"check-support": "Check whether an API URL or endpoint name is supported, correcting typos and partial names to the closest known endpoint.\n\nUse for ambiguous or unknown URLs or names (\"devices\", \"ip addreses\", \"/api/dcim/device\"). When a supported endpoint is found its data is fetched automatically and returned, so there is no need to call read afterwards.\n\nParameters:\n- query (required): the URL or name to look up",

	"read": "Fetch data from NetBox with a GET request.\n\nUse directly when you are certain about the endpoint path (for example /api/dcim/devices/). Optional filters are passed as query parameters, e.g. {\"site\": \"hq\", \"status\": \"active\"}.\n\nParameters:\n- path (required): API path such as /api/dcim/sites/\n- params (optional): object of query parameters",

	"create": "Create a new object in NetBox with a POST request.\n\nParameters:\n- path (required): collection path such as /api/dcim/sites/\n- payload (required): non-empty JSON object with the fields of the new object, e.g. {\"name\": \"HQ\", \"slug\": \"hq\"}\n\nThe payload is validated before anything is sent. Confirm the details with the user before creating objects.",

	"delete": "Delete an object from NetBox with a DELETE request. This cannot be undone.\n\nParameters:\n- path (required): object path including its ID, such as /api/dcim/devices/42/\n\nAlways confirm destructive operations with the user before proceeding.",

	"reloadCatalog": "Reload the endpoint catalog from disk without restarting the server. Returns the number of endpoints now known, or why loading failed.",

	"netboxStatus": "Report the NetBox version and whether it is supported by this assistant.",
}

// GetToolDescription returns the description for a specific tool
func GetToolDescription(toolName string) (string, error) {
	desc, exists := toolDescriptions[toolName]
	if !exists {
		return "", fmt.Errorf("description not found for tool: %s", toolName)
	}
	return desc, nil
}

// MustGetToolDescription returns the description for a tool or panics if not found
// This should only be used during server initialization where we want to fail fast
func MustGetToolDescription(toolName string) string {
	desc, exists := toolDescriptions[toolName]
	if !exists {
		panic(fmt.Sprintf("Tool description not found: %s", toolName))
	}
	return desc
}

// GetAllDescriptions returns a copy of every tool description.
func GetAllDescriptions() map[string]string {
	result := make(map[string]string, len(toolDescriptions))
	for k, v := range toolDescriptions {
		result[k] = v
	}
	return result
}
