// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebl/netbox-assistant/internal/catalog"
)

var testCatalog = []catalog.EndpointDescriptor{
	{Path: "/api/dcim/devices/", Name: "Devices"},
	{Path: "/api/dcim/sites/", Name: "Sites"},
	{Path: "/api/dcim/racks/", Name: "Racks"},
	{Path: "/api/dcim/interfaces/", Name: "Interfaces"},
	{Path: "/api/ipam/ip-addresses/", Name: "IP Addresses"},
	{Path: "/api/ipam/prefixes/", Name: "Prefixes"},
	{Path: "/api/ipam/vlans/", Name: "VLANs"},
	{Path: "/api/circuits/circuits/", Name: "Circuits"},
	{Path: "/api/tenancy/tenants/", Name: ""},
}

type failingSource struct{ err error }

func (f failingSource) Descriptors() ([]catalog.EndpointDescriptor, error) { return nil, f.err }

func TestResolve_ExactPathSelfMatch(t *testing.T) {
	r := New(catalog.NewStaticStore(testCatalog))

	for _, d := range testCatalog {
		t.Run(d.Path, func(t *testing.T) {
			res := r.Resolve(d.Path)
			require.Equal(t, StatusSupported, res.Status)
			assert.Equal(t, d.Path, res.ResolvedPath)
			assert.Equal(t, d.Name, res.ResolvedName)
		})
	}
}

func TestResolve_ApproximatePath(t *testing.T) {
	r := New(catalog.NewStaticStore(testCatalog))

	res := r.Resolve("api/dcim/device")
	require.True(t, res.Supported())
	assert.Equal(t, "/api/dcim/devices/", res.ResolvedPath)
}

func TestResolve_ByName(t *testing.T) {
	r := New(catalog.NewStaticStore(testCatalog))

	res := r.Resolve("IP Address")
	require.True(t, res.Supported())
	assert.Equal(t, "/api/ipam/ip-addresses/", res.ResolvedPath)
	assert.Equal(t, "IP Addresses", res.ResolvedName)
}

func TestResolve_PathMatchBeatsTighterNameMatch(t *testing.T) {
	store := catalog.NewStaticStore([]catalog.EndpointDescriptor{
		{Path: "/api/other/", Name: "dcim devices"},
		{Path: "/api/dcim/devices/", Name: "Unrelated"},
	})
	query := "dcim/devices"

	// The name of the first entry is the textually closer candidate.
	require.Greater(t, Similarity("dcim devices", query), Similarity("/api/dcim/devices/", query))

	res := New(store).Resolve(query)
	require.True(t, res.Supported())
	assert.Equal(t, "/api/dcim/devices/", res.ResolvedPath)
	assert.Equal(t, "Unrelated", res.ResolvedName)
}

func TestResolve_DuplicateNamesTakeFirstInCatalogOrder(t *testing.T) {
	store := catalog.NewStaticStore([]catalog.EndpointDescriptor{
		{Path: "/api/ipam/prefixes/", Name: "Prefixes"},
		{Path: "/api/legacy/prefixes/", Name: "Prefixes"},
	})

	res := New(store).Resolve("Prefixes")
	require.True(t, res.Supported())
	assert.Equal(t, "/api/ipam/prefixes/", res.ResolvedPath)
}

func TestResolve_Unsupported(t *testing.T) {
	r := New(catalog.NewStaticStore(testCatalog))

	for _, query := range []string{"", "zzzz", "what is the weather like today"} {
		t.Run(query, func(t *testing.T) {
			res := r.Resolve(query)
			assert.Equal(t, StatusUnsupported, res.Status)
			assert.Equal(t, query, res.OriginalQuery)
			assert.Contains(t, res.Message(), "is not supported")
		})
	}
}

func TestResolve_EmptyCatalogIsUnsupported(t *testing.T) {
	res := New(catalog.NewStaticStore(nil)).Resolve("/api/dcim/devices/")
	assert.Equal(t, StatusUnsupported, res.Status)
}

func TestResolve_CatalogUnavailable(t *testing.T) {
	r := New(failingSource{err: errors.New("catalog file not found")})

	res := r.Resolve("/api/dcim/devices/")
	assert.Equal(t, StatusCatalogUnavailable, res.Status)
	assert.Contains(t, res.Reason, "catalog file not found")

	// Still unavailable, not unsupported, for an empty query.
	assert.Equal(t, StatusCatalogUnavailable, r.Resolve("").Status)
}

func TestClosestMatch_TieGoesToGreaterCandidate(t *testing.T) {
	got, ok := closestMatch("abc", []string{"abx", "aby"}, DefaultCutoff)
	require.True(t, ok)
	assert.Equal(t, "aby", got)
}

func TestClosestMatch_BelowCutoff(t *testing.T) {
	_, ok := closestMatch("abcdef", []string{"uvwxyz"}, DefaultCutoff)
	assert.False(t, ok)
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("sites", "sites"), 1e-9)
	assert.InDelta(t, 0.75, Similarity("abcd", "bcde"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("abc", "xyz"), 1e-9)
}
