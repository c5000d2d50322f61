// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gebl/netbox-assistant/internal/catalog"
	"github.com/gebl/netbox-assistant/internal/config"
	"github.com/gebl/netbox-assistant/internal/format"
	"github.com/gebl/netbox-assistant/internal/resources"
)

type mockAgent struct{ mock.Mock }

func (m *mockAgent) Run(ctx context.Context, message string) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

type mockProvider struct{ mock.Mock }

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(ctx context.Context, message, systemPrompt string) (string, error) {
	args := m.Called(ctx, message, systemPrompt)
	return args.String(0), args.Error(1)
}

type missingCatalog struct{}

func (missingCatalog) Descriptors() ([]catalog.EndpointDescriptor, error) {
	return nil, errors.New("netbox_apis.json not found")
}

func collect(t *testing.T, app *App, message string) []string {
	t.Helper()
	var replies []string
	app.Handle(context.Background(), message, func(s string) { replies = append(replies, s) })
	return replies
}

func TestHandle_EmptyMessageGreets(t *testing.T) {
	a := &mockAgent{}
	app := New(Options{Agent: a})

	replies := collect(t, app, "   ")
	assert.Equal(t, []string{resources.Greeting}, replies)
	a.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestHandle_AgentAnswer(t *testing.T) {
	a := &mockAgent{}
	a.On("Run", mock.Anything, "how many sites?").Return("There are 3 sites.", nil).Once()
	app := New(Options{Mode: config.ModeAgent, Agent: a})

	assert.Equal(t, []string{"There are 3 sites."}, collect(t, app, " how many sites? "))
	a.AssertExpectations(t)
}

func TestHandle_JSONAnswerIsFormatted(t *testing.T) {
	a := &mockAgent{}
	a.On("Run", mock.Anything, mock.Anything).Return(`{"results": []}`, nil)
	app := New(Options{Agent: a})

	assert.Equal(t, []string{format.NoResults}, collect(t, app, "list devices"))
}

func TestHandle_ErrorBecomesOneReply(t *testing.T) {
	a := &mockAgent{}
	a.On("Run", mock.Anything, mock.Anything).Return("", errors.New("language model request timed out"))
	app := New(Options{Agent: a})

	replies := collect(t, app, "list devices")
	require.Len(t, replies, 1)
	assert.Equal(t, "Sorry, I encountered an error: language model request timed out", replies[0])
}

func TestHandle_EmptyAnswer(t *testing.T) {
	a := &mockAgent{}
	a.On("Run", mock.Anything, mock.Anything).Return("  ", nil)
	app := New(Options{Agent: a})

	assert.Equal(t, []string{resources.EmptyAnswer}, collect(t, app, "hello?"))
}

func TestHandle_LongAnswerTruncated(t *testing.T) {
	a := &mockAgent{}
	a.On("Run", mock.Anything, mock.Anything).Return(strings.Repeat("x", 5000), nil)
	app := New(Options{Agent: a})

	replies := collect(t, app, "dump everything")
	require.Len(t, replies, 1)
	assert.True(t, strings.HasSuffix(replies[0], format.TruncationMarker))
}

func TestHandle_StandaloneUsesCatalogContext(t *testing.T) {
	p := &mockProvider{}
	p.On("Complete", mock.Anything, "what is a prefix?", mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Context: Available NetBox APIs (2 total): Devices (/api/dcim/devices/), Sites (/api/dcim/sites/)")
	})).Return("A prefix is an IP network.", nil).Once()

	app := New(Options{
		Mode:     config.ModeStandalone,
		Provider: p,
		Catalog: catalog.NewStaticStore([]catalog.EndpointDescriptor{
			{Path: "/api/dcim/devices/", Name: "Devices"},
			{Path: "/api/dcim/sites/", Name: "Sites"},
		}),
	})

	assert.Equal(t, []string{"A prefix is an IP network."}, collect(t, app, "what is a prefix?"))
	p.AssertExpectations(t)
}

func TestHandle_StandaloneCatalogFallback(t *testing.T) {
	p := &mockProvider{}
	p.On("Complete", mock.Anything, mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Context: "+resources.CatalogContextFallback)
	})).Return("ok", nil).Once()

	app := New(Options{Mode: config.ModeStandalone, Provider: p, Catalog: missingCatalog{}})
	assert.Equal(t, []string{"ok"}, collect(t, app, "hi"))
	p.AssertExpectations(t)
}

func TestHandle_MissingCollaborator(t *testing.T) {
	replies := collect(t, New(Options{Mode: config.ModeStandalone}), "hi")
	require.Len(t, replies, 1)
	assert.True(t, strings.HasPrefix(replies[0], "Sorry, I encountered an error:"))
}

func TestStripMention(t *testing.T) {
	assert.Equal(t, "list devices", StripMention("<@U123> list devices", "U123"))
	assert.Equal(t, "", StripMention("<@U123>", "U123"))
	assert.Equal(t, "<@U999> hi", StripMention("<@U999> hi", "U123"))
	assert.Equal(t, "hi", StripMention("  hi ", ""))
}

func TestHandle_PanicBecomesOneReply(t *testing.T) {
	a := &mockAgent{}
	a.On("Run", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("nil map write")
	}).Return("", nil)
	app := New(Options{Mode: config.ModeAgent, Agent: a})

	replies := collect(t, app, "list devices")
	require.Len(t, replies, 1)
	assert.True(t, strings.HasPrefix(replies[0], "Sorry, I encountered an error:"))
	assert.Contains(t, replies[0], "nil map write")
}
