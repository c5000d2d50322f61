// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package slack

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebl/netbox-assistant/internal/audit"
	"github.com/gebl/netbox-assistant/internal/bot"
	"github.com/gebl/netbox-assistant/internal/resources"
)

type echoAgent struct {
	mu     sync.Mutex
	actors []string
}

func (e *echoAgent) Run(ctx context.Context, message string) (string, error) {
	e.mu.Lock()
	e.actors = append(e.actors, audit.ActorFrom(ctx))
	e.mu.Unlock()
	return "echo: " + message, nil
}

type posted struct {
	channel string
	text    string
}

func newTestAdapter(agent *echoAgent) (*Adapter, *[]posted) {
	var out []posted
	var mu sync.Mutex
	a := &Adapter{
		app:      bot.New(bot.Options{Agent: agent}),
		identity: Identity{UserID: "UBOT"},
		post: func(_ context.Context, channel, text string) error {
			mu.Lock()
			defer mu.Unlock()
			out = append(out, posted{channel, text})
			return nil
		},
	}
	return a, &out
}

func TestHandleEvent_Mention(t *testing.T) {
	agent := &echoAgent{}
	a, out := newTestAdapter(agent)

	a.HandleEvent(context.Background(), slackevents.EventsAPIInnerEvent{
		Data: &slackevents.AppMentionEvent{Channel: "C1", User: "U42", Text: "<@UBOT> list devices"},
	})

	require.Len(t, *out, 1)
	assert.Equal(t, posted{"C1", "echo: list devices"}, (*out)[0])
	assert.Equal(t, []string{"U42"}, agent.actors)
}

func TestHandleEvent_EmptyMentionGreets(t *testing.T) {
	a, out := newTestAdapter(&echoAgent{})

	a.HandleEvent(context.Background(), slackevents.EventsAPIInnerEvent{
		Data: &slackevents.AppMentionEvent{Channel: "C1", User: "U42", Text: "<@UBOT>"},
	})

	require.Len(t, *out, 1)
	assert.Equal(t, resources.Greeting, (*out)[0].text)
}

func TestHandleEvent_DirectMessage(t *testing.T) {
	a, out := newTestAdapter(&echoAgent{})

	a.HandleEvent(context.Background(), slackevents.EventsAPIInnerEvent{
		Data: &slackevents.MessageEvent{Channel: "D1", ChannelType: "im", User: "U42", Text: "sites?"},
	})

	require.Len(t, *out, 1)
	assert.Equal(t, posted{"D1", "echo: sites?"}, (*out)[0])
}

func TestHandleEvent_Ignored(t *testing.T) {
	events := map[string]any{
		"channel message":  &slackevents.MessageEvent{Channel: "C1", ChannelType: "channel", User: "U42", Text: "hi"},
		"bot message":      &slackevents.MessageEvent{Channel: "D1", ChannelType: "im", BotID: "B9", Text: "hi"},
		"own message":      &slackevents.MessageEvent{Channel: "D1", ChannelType: "im", User: "UBOT", Text: "hi"},
		"edited message":   &slackevents.MessageEvent{Channel: "D1", ChannelType: "im", User: "U42", SubType: "message_changed"},
		"bot mention":      &slackevents.AppMentionEvent{Channel: "C1", BotID: "B9", Text: "<@UBOT> hi"},
		"unrelated events": &slackevents.ReactionAddedEvent{User: "U42"},
	}
	for name, data := range events {
		t.Run(name, func(t *testing.T) {
			a, out := newTestAdapter(&echoAgent{})
			a.HandleEvent(context.Background(), slackevents.EventsAPIInnerEvent{Data: data})
			assert.Empty(t, *out)
		})
	}
}

func TestNew_AuthTest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth.test", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true, "url": "https://example.slack.com/", "team": "Example", "user": "netbox-bot",
			"team_id": "T1", "user_id": "UBOT", "bot_id": "B1"}`))
	}))
	defer server.Close()

	a, err := New(context.Background(), bot.New(bot.Options{}), Options{BotToken: "xoxb-test", AppToken: "xapp-test", APIURL: server.URL + "/"})
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "UBOT", User: "netbox-bot", BotID: "B1", Team: "Example"}, a.Identity())
}

func TestNew_AuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": false, "error": "invalid_auth"}`))
	}))
	defer server.Close()

	_, err := New(context.Background(), bot.New(bot.Options{}), Options{BotToken: "xoxb-bad", APIURL: server.URL + "/"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_auth")
}

func TestReceive_PanicInTurnIsContained(t *testing.T) {
	a, _ := newTestAdapter(&echoAgent{})
	var attempts int
	a.post = func(_ context.Context, _, _ string) error {
		attempts++
		panic("socket closed")
	}

	a.receive(context.Background(), nil, socketmode.Event{
		Type: socketmode.EventTypeEventsAPI,
		Data: slackevents.EventsAPIEvent{
			Type: slackevents.CallbackEvent,
			InnerEvent: slackevents.EventsAPIInnerEvent{
				Data: &slackevents.AppMentionEvent{Channel: "C1", User: "U42", Text: "<@UBOT> list devices"},
			},
		},
	})
	a.wg.Wait()

	assert.Equal(t, 1, attempts)
}
