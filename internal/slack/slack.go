// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// slack.go - Socket-mode Slack adapter.
//
// Channel messages are answered when they mention the bot; plain messages are
// answered only in direct-message conversations. Messages posted by bots are
// ignored so the assistant never answers itself. Every turn runs in its own
// goroutine and posts exactly one reply to the originating channel.

package slack

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/gebl/netbox-assistant/internal/audit"
	"github.com/gebl/netbox-assistant/internal/bot"
	"github.com/gebl/netbox-assistant/internal/logging"
)

// Identity is the bot account reported by auth.test.
type Identity struct {
	UserID string
	User   string
	BotID  string
	Team   string
}

// Options configures the adapter. APIURL is only set in tests.
type Options struct {
	BotToken string
	AppToken string
	APIURL   string
	Debug    bool
}

// Adapter connects an App to Slack.
type Adapter struct {
	api      *slack.Client
	app      *bot.App
	identity Identity
	post     func(ctx context.Context, channel, text string) error
	wg       sync.WaitGroup
}

// New creates an adapter and resolves the bot identity with auth.test.
func New(ctx context.Context, app *bot.App, opts Options) (*Adapter, error) {
	slackOpts := []slack.Option{slack.OptionAppLevelToken(opts.AppToken), slack.OptionDebug(opts.Debug)}
	if opts.APIURL != "" {
		slackOpts = append(slackOpts, slack.OptionAPIURL(opts.APIURL))
	}
	api := slack.New(opts.BotToken, slackOpts...)

	identity, err := Authenticate(ctx, api)
	if err != nil {
		return nil, err
	}

	a := &Adapter{api: api, app: app, identity: identity}
	a.post = func(ctx context.Context, channel, text string) error {
		_, _, err := api.PostMessageContext(ctx, channel, slack.MsgOptionText(text, false))
		return err
	}
	return a, nil
}

// Authenticate calls auth.test and returns the bot identity.
func Authenticate(ctx context.Context, api *slack.Client) (Identity, error) {
	resp, err := api.AuthTestContext(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("slack auth.test failed: %w", err)
	}
	identity := Identity{UserID: resp.UserID, User: resp.User, BotID: resp.BotID, Team: resp.Team}
	logging.SlackLogger.Info("Slack bot authenticated", "user", identity.User, "user_id", identity.UserID, "bot_id", identity.BotID, "team", identity.Team)
	return identity, nil
}

// Identity returns the authenticated bot account.
func (a *Adapter) Identity() Identity { return a.identity }

// Run receives socket-mode events until ctx is cancelled, then waits for
// in-flight turns to finish.
func (a *Adapter) Run(ctx context.Context) error {
	logger := logging.SlackLogger
	client := socketmode.New(a.api)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-client.Events:
				if !ok {
					return
				}
				a.receive(ctx, client, evt)
			}
		}
	}()

	logger.Info("Bot is ready to receive messages")
	err := client.RunContext(ctx)
	a.wg.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (a *Adapter) receive(ctx context.Context, client *socketmode.Client, evt socketmode.Event) {
	logger := logging.SlackLogger
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		logger.Info("Connecting to Slack with Socket Mode")
	case socketmode.EventTypeConnected:
		logger.Info("Connected to Slack with Socket Mode")
	case socketmode.EventTypeConnectionError:
		logger.Warn("Slack connection failed, retrying")
	case socketmode.EventTypeEventsAPI:
		event, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			logger.Debug("Ignoring unexpected events payload", "type", fmt.Sprintf("%T", evt.Data))
			return
		}
		if evt.Request != nil {
			client.Ack(*evt.Request)
		}
		if event.Type != slackevents.CallbackEvent {
			return
		}
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Recovered from panic in event handler", "panic", r, "stack", string(debug.Stack()))
				}
			}()
			a.HandleEvent(ctx, event.InnerEvent)
		}()
	}
}

// HandleEvent answers one inner event if it is addressed to the bot.
func (a *Adapter) HandleEvent(ctx context.Context, inner slackevents.EventsAPIInnerEvent) {
	channel, user, text, ok := a.route(inner)
	if !ok {
		return
	}

	logger := logging.SlackLogger
	logger.Info("Processing message", "channel", channel, "user", user)
	ctx = audit.WithActor(ctx, user)

	a.app.Handle(ctx, text, func(reply string) {
		if err := a.post(ctx, channel, reply); err != nil {
			logger.Error("Failed to post reply", "channel", channel, "error", err)
			return
		}
		logger.Info("Response sent successfully", "channel", channel)
	})
}

// route extracts the conversation, sender and text of an addressed message.
func (a *Adapter) route(inner slackevents.EventsAPIInnerEvent) (channel, user, text string, ok bool) {
	switch ev := inner.Data.(type) {
	case *slackevents.AppMentionEvent:
		if ev.BotID != "" {
			return "", "", "", false
		}
		return ev.Channel, ev.User, bot.StripMention(ev.Text, a.identity.UserID), true
	case *slackevents.MessageEvent:
		if ev.ChannelType != "im" || ev.BotID != "" || ev.SubType != "" {
			return "", "", "", false
		}
		if a.identity.UserID != "" && ev.User == a.identity.UserID {
			return "", "", "", false
		}
		return ev.Channel, ev.User, ev.Text, true
	}
	return "", "", "", false
}
