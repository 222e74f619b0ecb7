// Package queue provides the durable message queue the orchestrator
// runs on: at-least-once delivery of typed messages, redelivery when a
// handler returns an error, acknowledgement on success.
package queue

import (
	"context"
	"time"

	"github.com/conveyor-cd/conveyor/pkg/messages"
)

// Handler processes one delivered message. Returning an error nacks the
// delivery and the transport redelivers it; handlers must therefore be
// safe to run twice against already-applied state.
type Handler func(ctx context.Context, msg messages.Message) error

type Publisher interface {
	Push(ctx context.Context, msg messages.Message) error
	PushDelayed(ctx context.Context, msg messages.Message, delay time.Duration) error
}

type Subscriber interface {
	Handle(msgType messages.Type, handler Handler)
	Subscribe(ctx context.Context) error
}

type Queue interface {
	Publisher
	Subscriber
	Close() error
	GenerateID() string
}
