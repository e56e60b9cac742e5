package events

import (
	"time"
)

// Event types emitted by the certificate pipeline.
const (
	TypeCertificateSent = "certificate.sent"
	TypeSweepCompleted  = "certificate.sweep_completed"
	TypeTemplateUpdated = "certificate.template_updated"
)

// Event is a realtime notification fanned out to interested clients. FormID
// scopes delivery: clients subscribed to that form receive it, everyone does
// when it is empty.
type Event struct {
	Type      string         `json:"type"`
	FormID    string         `json:"form_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Publisher fans events out to connected clients. Delivery is best effort;
// implementations must never block the caller on a slow consumer.
type Publisher interface {
	Publish(ev Event)
}

// NoopPublisher discards events. Used in contexts without realtime fan-out
// (batch tools, tests).
type NoopPublisher struct{}

func (NoopPublisher) Publish(Event) {}
