// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/gebl/netbox-assistant/internal/logging"
)

// Connect opens a NATS connection for audit publishing.
func Connect(url, name string) (*nats.Conn, error) {
	logger := logging.AuditLogger
	logger.Info("Connecting to NATS", "url", url, "name", name)

	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(60),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	logger.Info("Connected to NATS", "url", nc.ConnectedUrl())
	return nc, nil
}

// NATSPublisher publishes mutation events to <subject>.<action>.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

// NewNATSPublisher creates a publisher on an existing connection.
func NewNATSPublisher(nc *nats.Conn, subject string) *NATSPublisher {
	return &NATSPublisher{nc: nc, subject: subject}
}

// Subject returns the subject an event with the given action is sent to.
func (p *NATSPublisher) Subject(action Action) string {
	return p.subject + "." + string(action)
}

// PublishMutation encodes the event as JSON and publishes it.
func (p *NATSPublisher) PublishMutation(_ context.Context, event *MutationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode audit event: %w", err)
	}

	subject := p.Subject(event.Action)
	if err := p.nc.Publish(subject, data); err != nil {
		logging.AuditLogger.Error("Failed to publish audit event", "subject", subject, "error", err)
		return err
	}

	logging.AuditLogger.Debug("Published audit event", "subject", subject, "path", event.Path)
	return nil
}

// Close drains the underlying connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}
