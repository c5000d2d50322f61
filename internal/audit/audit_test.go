// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestServer starts an in-process NATS server on a random port.
func startTestServer(t *testing.T) *natsserver.Server {
	t.Helper()

	ns, err := natsserver.NewServer(&natsserver.Options{
		Host:   "127.0.0.1",
		Port:   natsserver.RANDOM_PORT,
		NoLog:  true,
		NoSigs: true,
	})
	require.NoError(t, err)

	go ns.Start()
	require.True(t, ns.ReadyForConnections(10*time.Second), "nats server failed to start")
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return ns
}

func TestNoOpPublisher(t *testing.T) {
	var p Publisher = NoOpPublisher{}
	assert.NoError(t, p.PublishMutation(context.Background(), &MutationEvent{Action: ActionCreate}))
}

func TestCallbackPublisher(t *testing.T) {
	var got *MutationEvent
	p := NewCallbackPublisher(func(_ context.Context, event *MutationEvent) error {
		got = event
		return nil
	})

	event := &MutationEvent{Action: ActionDelete, Path: "/api/dcim/devices/3/"}
	require.NoError(t, p.PublishMutation(context.Background(), event))
	assert.Same(t, event, got)
}

func TestActorContext(t *testing.T) {
	assert.Equal(t, "", ActorFrom(context.Background()))
	ctx := WithActor(context.Background(), "U123")
	assert.Equal(t, "U123", ActorFrom(ctx))
}

func TestNATSPublisher_PublishMutation(t *testing.T) {
	ns := startTestServer(t)

	nc, err := Connect(ns.ClientURL(), "netbox-assistant-test")
	require.NoError(t, err)

	publisher := NewNATSPublisher(nc, "netbox.assistant.audit")
	defer publisher.Close()

	sub, err := nc.SubscribeSync("netbox.assistant.audit.>")
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	event := &MutationEvent{
		Action:     ActionCreate,
		Path:       "/api/dcim/sites/",
		StatusCode: 201,
		ObjectID:   "7",
		Actor:      "U123",
		Timestamp:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, publisher.PublishMutation(context.Background(), event))
	require.NoError(t, nc.Flush())

	msg, err := sub.NextMsg(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "netbox.assistant.audit.create", msg.Subject)

	var received MutationEvent
	require.NoError(t, json.Unmarshal(msg.Data, &received))
	assert.Equal(t, *event, received)
}

func TestNATSPublisher_ClosedConnection(t *testing.T) {
	ns := startTestServer(t)

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	nc.Close()

	publisher := NewNATSPublisher(nc, "netbox.assistant.audit")
	err = publisher.PublishMutation(context.Background(), &MutationEvent{Action: ActionDelete, Path: "/api/dcim/devices/1/"})
	assert.Error(t, err)
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "netbox-assistant-test")
	assert.Error(t, err)
}
