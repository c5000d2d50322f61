// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// audit.go - Mutation audit events.
//
// Every successful create or delete against NetBox produces one MutationEvent.
// Where it goes depends on the Publisher: NATS when AUDIT_NATS_URL is set,
// nowhere otherwise. Publishing failures are logged by the caller and never
// change the outcome of the mutation itself.

package audit

import (
	"context"
	"time"
)

// Action names the kind of mutation.
type Action string

const (
	ActionCreate Action = "create"
	ActionDelete Action = "delete"
)

// MutationEvent describes one successful change to NetBox.
type MutationEvent struct {
	Action     Action    `json:"action"`
	Path       string    `json:"path"`
	StatusCode int       `json:"status_code,omitempty"`
	ObjectID   string    `json:"object_id,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher delivers mutation events.
type Publisher interface {
	PublishMutation(ctx context.Context, event *MutationEvent) error
}

// NoOpPublisher discards events.
type NoOpPublisher struct{}

// PublishMutation is a no-op.
func (NoOpPublisher) PublishMutation(_ context.Context, _ *MutationEvent) error {
	return nil
}

// CallbackPublisher hands events to a function. Tests use it.
type CallbackPublisher struct {
	callback func(ctx context.Context, event *MutationEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *MutationEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishMutation calls the callback.
func (p *CallbackPublisher) PublishMutation(ctx context.Context, event *MutationEvent) error {
	return p.callback(ctx, event)
}

type actorKey struct{}

// WithActor attaches the requesting user to ctx so events can name them.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored by WithActor, or "".
func ActorFrom(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}
