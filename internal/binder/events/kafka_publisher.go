package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"casbinder/internal/binder/models"
	"casbinder/pkg/requestcontext"
)

// Producer is the slice of internal/platform/kafka the publisher needs.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// Message is the wire form of an authentication on the events topic.
// Credentials are never published; only which kind was used.
type Message struct {
	AccountID  string            `json:"account_id"`
	Username   string            `json:"username"`
	Email      string            `json:"email,omitempty"`
	Created    bool              `json:"created"`
	Via        string            `json:"via"`
	Service    string            `json:"service,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// KafkaPublisher publishes authentications keyed by account id so that all
// events for one account land on the same partition.
type KafkaPublisher struct {
	producer Producer
	topic    string
}

func NewKafkaPublisher(producer Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) OnAuthenticated(ctx context.Context, event models.AuthenticatedEvent) error {
	if event.Account == nil {
		return nil
	}
	msg := NewMessage(ctx, event)
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal authenticated event: %w", err)
	}
	if err := p.producer.Produce(ctx, p.topic, []byte(msg.AccountID), value); err != nil {
		return fmt.Errorf("publish authenticated event: %w", err)
	}
	return nil
}

// NewMessage projects event onto its wire form.
func NewMessage(ctx context.Context, event models.AuthenticatedEvent) Message {
	msg := Message{
		Created:    event.Created,
		Via:        "ticket",
		Service:    event.Correlation.Service,
		Attributes: event.Attributes,
		RequestID:  requestcontext.RequestID(ctx),
		OccurredAt: requestcontext.Now(ctx),
	}
	if event.Correlation.AccessToken != "" {
		msg.Via = "token"
	}
	if a := event.Account; a != nil {
		msg.AccountID = a.ID.String()
		msg.Username = a.Username
		msg.Email = a.Email
	}
	return msg
}
