// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package main

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebl/netbox-assistant/internal/catalog"
)

func TestCatalogResource(t *testing.T) {
	store := catalog.NewStaticStore([]catalog.EndpointDescriptor{
		{Path: "/api/dcim/devices/", Name: "Devices"},
		{Path: "/api/status/"},
	})
	req := mcp.ReadResourceRequest{}
	req.Params.URI = catalogResourceURI

	contents, err := catalogResourceHandler(store)(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "application/json", text.MIMEType)
	assert.JSONEq(t, `[{"URL": "/api/dcim/devices/", "Name": "Devices"}, {"URL": "/api/status/", "Name": ""}]`, text.Text)
}

func TestCatalogResource_Unavailable(t *testing.T) {
	store := catalog.NewStore("does-not-exist.json")
	req := mcp.ReadResourceRequest{}
	req.Params.URI = catalogResourceURI

	_, err := catalogResourceHandler(store)(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint catalog unavailable")
}
