package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"well-bot-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler processes one event. A returned error naks the message for redelivery.
type EventHandler func(ctx context.Context, event events.Event) error

// Subscriber consumes events with durable JetStream consumers.
type Subscriber struct {
	nc       *nats.Conn
	js       jetstream.JetStream
	contexts []jetstream.ConsumeContext
}

func NewSubscriber(url string) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc, js: js}, nil
}

// Decode rebuilds an event from a bus message
func Decode(subject string, header nats.Header, data []byte) (events.BaseEvent, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return events.BaseEvent{}, fmt.Errorf("unmarshal event data: %w", err)
	}

	eventType := header.Get(headerType)
	if eventType == "" {
		eventType = strings.TrimPrefix(subject, subjectPrefix)
	}

	occurredAt := time.Now().UTC()
	if ts := header.Get(headerTime); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			occurredAt = t
		}
	}

	return events.BaseEvent{Type: eventType, Data: payload, OccurredAt: occurredAt}, nil
}

// Subscribe registers handler for events of eventType under a durable consumer
func (s *Subscriber) Subscribe(ctx context.Context, eventType, durableName string, handler EventHandler) error {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: Subject(eventType),
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    5,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		event, err := Decode(msg.Subject(), msg.Headers(), msg.Data())
		if err != nil {
			log.Printf("Dropping malformed event on %s: %v", msg.Subject(), err)
			_ = msg.Term()
			return
		}

		if err := handler(ctx, event); err != nil {
			log.Printf("Handler failed for event %s: %v", msg.Subject(), err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	s.contexts = append(s.contexts, cc)

	log.Printf("Subscribed to %s with durable %s", Subject(eventType), durableName)
	return nil
}

func (s *Subscriber) Close() {
	if s == nil {
		return
	}
	for _, cc := range s.contexts {
		cc.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
