// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// middleware.go - HTTP middleware for the MCP and web chat surfaces.
//
// BearerTokenMiddleware protects the streamable MCP endpoint and the chat API
// with a single shared token. Health endpoints stay open. Authenticated
// requests are tagged with an audit actor so NetBox mutations made through
// HTTP can be traced back to the surface that made them.
//
// Usage:
//   handler := auth.BearerTokenMiddleware(cfg.MCPBearerToken, "mcp")(mux)
//   handler = auth.RequestLoggingMiddleware()(handler)
//
// HTTP Client Usage:
//   Authorization: Bearer your-secret-token

package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gebl/netbox-assistant/internal/audit"
	"github.com/gebl/netbox-assistant/internal/logging"
)

// ActorHeader optionally names the person behind an authenticated request.
const ActorHeader = "X-NetBox-Assistant-User"

// isHealthPath reports whether path bypasses authentication.
func isHealthPath(path string) bool {
	return path == "/health" || path == "/ping"
}

// BearerTokenMiddleware rejects requests whose Authorization header does not
// carry expectedToken. Both "Bearer <token>" and a raw token are accepted.
// surface names the audit actor of accepted requests when no ActorHeader is sent.
func BearerTokenMiddleware(expectedToken, surface string) func(http.Handler) http.Handler {
	logger := logging.AuthLogger

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isHealthPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			reject := func(reason, message string) {
				logger.Warn("Authentication failed: "+reason,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.Header.Get("User-Agent"),
					"path", r.URL.Path,
					"method", r.Method)
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, message, http.StatusUnauthorized)
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				reject("missing Authorization header", "Authorization header required")
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if token == "" {
				reject("empty token", "Token cannot be empty")
				return
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				reject("invalid Bearer token", "Invalid token")
				return
			}

			actor := strings.TrimSpace(r.Header.Get(ActorHeader))
			if actor == "" {
				actor = surface
			}
			logger.Debug("Authentication successful", "path", r.URL.Path, "actor", actor)
			next.ServeHTTP(w, r.WithContext(audit.WithActor(r.Context(), actor)))
		})
	}
}

// RequestLoggingMiddleware logs each request and its response status.
func RequestLoggingMiddleware() func(http.Handler) http.Handler {
	logger := logging.WebLogger

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("HTTP request received",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"content_length", r.ContentLength)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			if wrapped.statusCode >= 400 {
				logger.Warn("HTTP request completed with error",
					"method", r.Method,
					"path", r.URL.Path,
					"status_code", wrapped.statusCode,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.Header.Get("User-Agent"))
				return
			}
			logger.Info("HTTP request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status_code", wrapped.statusCode)
		})
	}
}

// responseWriter captures the status code written by the wrapped handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
