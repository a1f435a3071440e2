package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/fluxrt/pkg/channels/gochannel"
	"github.com/dukex/fluxrt/pkg/channels/kafka"
	"github.com/dukex/fluxrt/pkg/eventbus"
)

// NewEventBus creates the event bus of provider: "kafka", "gochannel", or "" for none.
func NewEventBus(provider string, brokers []string, logger *slog.Logger) (*eventbus.EventBus, error) {
	adapter := watermill.NewSlogLogger(logger)

	switch provider {
	case "":
		return nil, nil
	case "gochannel":
		pub, sub := gochannel.CreateChannel(adapter)

		return eventbus.NewEventBus(pub, sub, logger), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(adapter, brokers, "fluxrt")
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewEventBus(pub, sub, logger), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
