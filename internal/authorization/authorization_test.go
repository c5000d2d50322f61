// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package authorization

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePermissionLevel(t *testing.T) {
	for _, in := range []string{"none", "READ", " Write ", "full"} {
		_, err := ParsePermissionLevel(in)
		assert.NoError(t, err, in)
	}
	_, err := ParsePermissionLevel("admin")
	assert.Error(t, err)
}

func TestPolicy_DefaultAllowsEverything(t *testing.T) {
	policy, err := NewPolicy(false, nil)
	require.NoError(t, err)

	assert.NoError(t, policy.Authorize(OperationRead, "/api/dcim/devices/"))
	assert.NoError(t, policy.Authorize(OperationWrite, "/api/dcim/devices/12/"))
}

func TestPolicy_ReadOnly(t *testing.T) {
	policy, err := NewPolicy(true, nil)
	require.NoError(t, err)

	assert.NoError(t, policy.Authorize(OperationRead, "/api/dcim/devices/"))

	err = policy.Authorize(OperationWrite, "/api/dcim/devices/12/")
	require.Error(t, err)
	var denied *DeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, PermissionRead, denied.Granted)
	assert.Equal(t, "READ_ONLY", denied.Rule)
}

func TestPolicy_ReadOnlyOverridesWritePatterns(t *testing.T) {
	policy, err := NewPolicy(true, map[string]string{"/api/ipam/**": "write"})
	require.NoError(t, err)

	assert.Error(t, policy.Authorize(OperationWrite, "/api/ipam/prefixes/"))
	assert.NoError(t, policy.Authorize(OperationRead, "/api/ipam/prefixes/"))
}

func TestPolicy_EndpointPatterns(t *testing.T) {
	policy, err := NewPolicy(false, map[string]string{
		"/api/dcim/**":          "read",
		"/api/dcim/devices/*/":  "write",
		"/api/users/*":          "none",
		"/api/ipam/prefixes/":   "full",
		"/api/extras/scripts/*": "read",
	})
	require.NoError(t, err)

	tests := []struct {
		name      string
		operation ToolOperation
		path      string
		allowed   bool
	}{
		{"recursive read allows read", OperationRead, "/api/dcim/sites/", true},
		{"recursive read blocks write", OperationWrite, "/api/dcim/sites/", false},
		{"device prefix beats recursive", OperationWrite, "/api/dcim/devices/12/", true},
		{"prefix none blocks read", OperationRead, "/api/users/tokens/", false},
		{"exact full allows write", OperationWrite, "/api/ipam/prefixes/", true},
		{"unmatched uses default", OperationWrite, "/api/circuits/circuits/", true},
		{"absolute URL is reduced to path", OperationWrite, "https://netbox.local/api/dcim/racks/3/?brief=1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Authorize(tt.operation, tt.path)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestPolicy_InvalidLevel(t *testing.T) {
	_, err := NewPolicy(false, map[string]string{"/api/**": "sometimes"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/api/**")
}

func TestPolicy_NilAllows(t *testing.T) {
	var policy *Policy
	assert.NoError(t, policy.Authorize(OperationWrite, "/api/dcim/devices/1/"))
}

func TestPatternEngine_Order(t *testing.T) {
	engine := NewPatternEngine()
	require.NoError(t, engine.CompilePatterns(map[string]PermissionLevel{
		"/api/**":             PermissionRead,
		"/api/dcim/*":         PermissionWrite,
		"/api/dcim/devices/":  PermissionNone,
		"/api/dcim/*/detail/": PermissionFull,
	}))

	patterns := engine.Patterns()
	require.Len(t, patterns, 4)
	assert.True(t, patterns[0].IsExact)
	assert.True(t, patterns[1].IsPrefix)
	assert.False(t, patterns[2].IsRecursive)
	assert.True(t, patterns[3].IsRecursive)

	level, rule, ok := engine.Match("/api/dcim/devices/")
	require.True(t, ok)
	assert.Equal(t, PermissionNone, level)
	assert.Equal(t, "/api/dcim/devices/", rule)

	level, _, ok = engine.Match("/api/dcim/x/detail/")
	require.True(t, ok)
	assert.Equal(t, PermissionWrite, level, "prefix patterns outrank single-segment wildcards")

	level, _, ok = engine.Match("/api/tenancy/tenants/")
	require.True(t, ok)
	assert.Equal(t, PermissionRead, level)

	_, _, ok = engine.Match("/graphql/")
	assert.False(t, ok)
}

func TestEndpointKey(t *testing.T) {
	policy, err := NewPolicy(false, nil)
	require.NoError(t, err)
	require.NoError(t, policy.RestrictToHost("https://nb.local"))

	tests := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{"/api/dcim/devices/?limit=5", "/api/dcim/devices/", true},
		{"https://nb.local/api/dcim/devices/?offset=50", "/api/dcim/devices/", true},
		{"https://nb.local", "/", true},
		{"https://evil.example.com/api/dcim/devices/", "", false},
		{"http://nb.local/api/dcim/devices/", "", false},
		{"https://user@nb.local/api/", "", false},
	}
	for _, tt := range tests {
		got, ok := policy.endpointKey(tt.path)
		assert.Equal(t, tt.wantOK, ok, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestAuthorize_ForeignHostDenied(t *testing.T) {
	policy, err := NewPolicy(false, nil)
	require.NoError(t, err)
	require.NoError(t, policy.RestrictToHost("https://nb.local/"))

	err = policy.Authorize(OperationRead, "https://evil.example.com/api/dcim/devices/")
	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, foreignHostRule, denied.Rule)
	assert.Equal(t, PermissionNone, denied.Granted)

	assert.NoError(t, policy.Authorize(OperationRead, "https://nb.local/api/dcim/devices/"))
	assert.NoError(t, policy.Authorize(OperationWrite, "/api/dcim/devices/"))

	unbound, err := NewPolicy(false, nil)
	require.NoError(t, err)
	assert.Error(t, unbound.Authorize(OperationRead, "https://nb.local/api/dcim/devices/"),
		"absolute URLs need a known NetBox host")
	assert.Error(t, unbound.RestrictToHost("not a url"))
}
