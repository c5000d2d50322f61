// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gebl/netbox-assistant/internal/logging"
	"github.com/gebl/netbox-assistant/internal/tools"
)

const catalogResourceURI = "netbox://catalog"

// registerResources registers the endpoint catalog resource.
func registerResources(s *server.MCPServer, source tools.CatalogSource) {
	logging.MainLogger.Debug("Starting resource registration process")

	catalogResource := mcp.NewResource(
		catalogResourceURI,
		"NetBox Endpoint Catalog",
		mcp.WithResourceDescription("The NetBox API endpoints this assistant knows about, as a JSON array of {URL, Name} entries"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(catalogResource, catalogResourceHandler(source))

	logging.MainLogger.Debug("Resource registration completed successfully")
}

func catalogResourceHandler(source tools.CatalogSource) server.ResourceHandlerFunc {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		logging.MainLogger.Debug("Resource handler invoked", "request_uri", request.Params.URI)

		descriptors, err := source.Descriptors()
		if err != nil {
			return nil, fmt.Errorf("endpoint catalog unavailable: %w", err)
		}
		data, err := json.MarshalIndent(descriptors, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      catalogResourceURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}
