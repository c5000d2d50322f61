// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebl/netbox-assistant/internal/bot"
	"github.com/gebl/netbox-assistant/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		NetBoxURL:          "https://netbox.example.com",
		NetBoxToken:        "tok",
		CatalogPath:        "does-not-exist.json",
		LLMProvider:        config.ProviderOpenAI,
		LLMMode:            config.ModeAgent,
		OpenAIAPIKey:       "sk-test",
		OpenAIModel:        "gpt-4o",
		AgentMaxIterations: 10,
	}
}

func TestApplyAuthIfEnabled(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name       string
		enabled    bool
		token      string
		wantStatus int
	}{
		{"disabled", false, "", http.StatusNoContent},
		{"enabled without token stays open", true, "", http.StatusNoContent},
		{"enabled with token", true, "s3cret", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.MCPAuthEnabled = tt.enabled
			cfg.MCPBearerToken = tt.token

			rec := httptest.NewRecorder()
			applyAuthIfEnabled(inner, cfg, "mcp").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestNewServices(t *testing.T) {
	cfg := testConfig()
	cfg.ReadOnly = true

	svc, err := newServices(cfg)
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.store.Descriptors()
	assert.Error(t, err, "a missing catalog is reported per operation, not at startup")
	assert.Len(t, svc.registry.ListTools(), 3)
}

func TestNewServices_BadPermissions(t *testing.T) {
	cfg := testConfig()
	cfg.EndpointPermissions = map[string]string{"/api/dcim/**": "sometimes"}

	_, err := newServices(cfg)
	assert.Error(t, err)
}

func TestNewApp(t *testing.T) {
	svc, err := newServices(testConfig())
	require.NoError(t, err)

	app, err := newApp(testConfig(), svc)
	require.NoError(t, err)
	assert.Equal(t, config.ModeAgent, app.Mode())

	standalone := testConfig()
	standalone.LLMProvider = config.ProviderAnthropic
	standalone.LLMMode = config.ModeStandalone
	standalone.AnthropicAPIKey = "ak-test"
	app, err = newApp(standalone, svc)
	require.NoError(t, err)
	assert.Equal(t, config.ModeStandalone, app.Mode())

	missingKey := testConfig()
	missingKey.OpenAIAPIKey = ""
	_, err = newApp(missingKey, svc)
	assert.Error(t, err)
}

func TestRun_InvalidInvocations(t *testing.T) {
	netbox := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"netbox-version": "4.1.3"}`))
	}))
	defer netbox.Close()

	cfg := testConfig()
	cfg.NetBoxURL = netbox.URL

	assert.ErrorContains(t, run("bogus", "0", "", cfg), "invalid mode")
	assert.ErrorContains(t, run(modeAsk, "0", "", cfg), "--message is required")
	assert.ErrorContains(t, run(modeSlack, "0", "", cfg), "SLACK_BOT_TOKEN")

	noURL := testConfig()
	noURL.NetBoxURL = ""
	assert.ErrorContains(t, run(modeStdio, "0", "", noURL), "NETBOX_URL")
}

var _ answerer = (*bot.App)(nil)
