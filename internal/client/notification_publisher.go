package client

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NotificationPublisher publishes stock workflow events to NATS for
// consumption by the notification service (email/push fan-out).
//
// Subject convention: notifications.stock.<event_type>
// Event types: adjustment_requested, adjustment_approved, adjustment_rejected,
//              urgent_purchase_submitted, urgent_purchase_approved,
//              urgent_purchase_rejected, stock_take_variance
//
// All publish operations are non-fatal: errors are logged but never
// propagated, so notification failures never roll back the underlying
// request creation or review.
type NotificationPublisher struct {
	nc  *nats.Conn
	log zerolog.Logger
}

// NotificationEvent is the JSON schema published to NATS.
type NotificationEvent struct {
	EventType    string                 `json:"event_type"`
	ActorID      string                 `json:"actor_id"`
	Recipients   []string               `json:"recipients,omitempty"`
	ApproverRole string                 `json:"approver_role,omitempty"`
	ResourceType string                 `json:"resource_type,omitempty"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	ActionURL    string                 `json:"action_url,omitempty"`
	Severity     string                 `json:"severity,omitempty"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
}

// NewNotificationPublisher creates a publisher backed by the given NATS
// connection. A nil connection disables publishing (local development).
func NewNotificationPublisher(nc *nats.Conn, log zerolog.Logger) *NotificationPublisher {
	return &NotificationPublisher{nc: nc, log: log}
}

// Publish emits a stock workflow event. Subject: notifications.stock.<eventType>
func (p *NotificationPublisher) Publish(event *NotificationEvent) {
	if p.nc == nil {
		return
	}
	if len(event.Recipients) == 0 && event.ApproverRole == "" {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Str("event_type", event.EventType).Msg("notification: failed to marshal event")
		return
	}

	subject := fmt.Sprintf("notifications.stock.%s", event.EventType)
	if err := p.nc.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Str("resource_id", event.ResourceID).
			Msg("notification: failed to publish NATS event (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("resource_id", event.ResourceID).
		Int("recipients", len(event.Recipients)).
		Msg("notification: event published")
}
