// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedAnswer struct{ got string }

func (f *fixedAnswer) Answer(_ context.Context, message string) string {
	f.got = message
	return "Found 1 result(s):\n\n*1.* **sw1**\n"
}

func TestWebHandler_Chat(t *testing.T) {
	app := &fixedAnswer{}
	h := newWebHandler(app)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message": " list devices "}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "list devices", app.got)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Reply, "**sw1**")
	assert.Contains(t, resp.HTML, "<strong>sw1</strong>")
}

func TestWebHandler_Errors(t *testing.T) {
	h := newWebHandler(&fixedAnswer{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("hello")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebHandler_PageAndHealth(t *testing.T) {
	h := newWebHandler(&fixedAnswer{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "NetBox Assistant")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "ok", rec.Body.String())
}
