package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/conveyor-cd/conveyor/pkg/messages"
	"github.com/conveyor-cd/conveyor/pkg/metrics"
)

type WatermillQueue struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	handlers   map[messages.Type]Handler
}

func NewWatermillQueue(pub message.Publisher, sub message.Subscriber) Queue {
	return &WatermillQueue{
		publisher:  pub,
		subscriber: sub,
		handlers:   make(map[messages.Type]Handler),
	}
}

func (q *WatermillQueue) GenerateID() string {
	return watermill.NewULID()
}

func (q *WatermillQueue) Push(ctx context.Context, msg messages.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	wmsg := message.NewMessage("msg-"+q.GenerateID(), payload)
	wmsg.Metadata.Set(messages.MessageKeyMetadataKey, msg.Key())
	wmsg.Metadata.Set(messages.MessageTypeMetadataKey, string(msg.GetType()))

	return q.publisher.Publish(messages.Topic, wmsg)
}

// PushDelayed publishes msg once delay has elapsed. It blocks until the
// publish is durable, so the caller's originating delivery is never
// acknowledged while the successor exists only in memory; a crash or
// cancellation during the wait surfaces as an error and the originating
// message is redelivered.
func (q *WatermillQueue) PushDelayed(ctx context.Context, msg messages.Message, delay time.Duration) error {
	if delay <= 0 {
		return q.Push(ctx, msg)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return q.Push(ctx, msg)
	}
}

func (q *WatermillQueue) Subscribe(ctx context.Context) error {
	deliveries, err := q.subscriber.Subscribe(ctx, messages.Topic)
	if err != nil {
		return err
	}

	// Each delivery is dispatched on its own goroutine: messages for one
	// execution are chained (a successor exists only once its predecessor
	// is handled), so a handler parked in PushDelayed never stalls other
	// executions.
	go func() {
		for delivery := range deliveries {
			go q.dispatch(ctx, delivery)
		}
	}()

	return nil
}

func (q *WatermillQueue) dispatch(ctx context.Context, delivery *message.Message) {
	msg, err := decode(delivery)
	if err != nil {
		// Redelivery cannot repair a payload that does not decode.
		metrics.MessagesDiscarded.Inc()
		delivery.Ack()

		return
	}

	handler, exists := q.handlers[msg.GetType()]
	if !exists {
		delivery.Ack()

		return
	}

	err = handler(ctx, msg)
	if err != nil {
		delivery.Nack()

		return
	}

	delivery.Ack()
}

func (q *WatermillQueue) Handle(msgType messages.Type, handler Handler) {
	q.handlers[msgType] = handler
}

func (q *WatermillQueue) Close() error {
	err := q.publisher.Close()
	if err != nil {
		return err
	}

	return q.subscriber.Close()
}

func decode(delivery *message.Message) (messages.Message, error) {
	msgType := messages.Type(delivery.Metadata.Get(messages.MessageTypeMetadataKey))

	var msg messages.Message

	switch msgType {
	case messages.StartExecutionType:
		msg = &messages.StartExecution{}
	case messages.CompleteExecutionType:
		msg = &messages.CompleteExecution{}
	case messages.StartStageType:
		msg = &messages.StartStage{}
	case messages.CompleteStageType:
		msg = &messages.CompleteStage{}
	case messages.StartTaskType:
		msg = &messages.StartTask{}
	case messages.RunTaskType:
		msg = &messages.RunTask{}
	case messages.CompleteTaskType:
		msg = &messages.CompleteTask{}
	default:
		return nil, fmt.Errorf("unknown message type %q", msgType)
	}

	err := json.Unmarshal(delivery.Payload, msg)
	if err != nil {
		return nil, err
	}

	return msg, nil
}
