package events

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type Event interface {
	GetType() EventType
}

// Publisher is the sink for lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, key string, event Event) error
	Close() error
}

type WatermillPublisher struct {
	publisher message.Publisher
}

func NewWatermillPublisher(pub message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: pub}
}

func (p *WatermillPublisher) GenerateID() string {
	return watermill.NewULID()
}

func (p *WatermillPublisher) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("evt-"+p.GenerateID(), payload)
	msg.Metadata.Set(EventKeyMetadataKey, key)
	msg.Metadata.Set(EventTypeMetadataKey, string(event.GetType()))

	return p.publisher.Publish(Topic, msg)
}

func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}
