package service

import (
	"context"
	"encoding/json"

	"well-bot-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// IIndexPublisher queues rows for index-time embedding
type IIndexPublisher interface {
	Enqueue(ctx context.Context, req dto.IndexMemoryMessage) error
}

type indexPublisher struct {
	topicName string
	publisher message.Publisher
}

func NewIndexPublisher(topicName string, publisher message.Publisher) IIndexPublisher {
	return &indexPublisher{
		topicName: topicName,
		publisher: publisher,
	}
}

func (p *indexPublisher) Enqueue(ctx context.Context, req dto.IndexMemoryMessage) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return p.publisher.Publish(p.topicName, msg)
}
