// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/conveyor-cd/conveyor/pkg/channels/gochannel"
	"github.com/conveyor-cd/conveyor/pkg/channels/kafka"
	"github.com/conveyor-cd/conveyor/pkg/events"
	"github.com/conveyor-cd/conveyor/pkg/queue"
)

func NewQueue(provider, serviceName string, logger *slog.Logger) queue.Queue {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), serviceName)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return queue.NewWatermillQueue(pub, sub)
	case "gochannel":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create GoChannel pub/sub: %w", err))
		}

		return queue.NewWatermillQueue(pub, sub)
	default:
		panic("Unsupported queue provider: " + provider)
	}
}

func NewEventPublisher(provider string, logger *slog.Logger) events.Publisher {
	switch provider {
	case "kafka":
		pub, err := kafka.CreatePublisher(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka publisher: %w", err))
		}

		return events.NewWatermillPublisher(pub)
	case "gochannel":
		pub, _, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create GoChannel publisher: %w", err))
		}

		return events.NewWatermillPublisher(pub)
	default:
		panic("Unsupported event publisher provider: " + provider)
	}
}
