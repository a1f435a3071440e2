// Package eventbus publishes the trace logs of modules on a watermill topic, so that
// activity and errors can be observed out of process.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dukex/fluxrt/pkg/tracing"
)

const (
	// Topic receives every published log entry.
	Topic = "fluxrt.logs"

	KindMetadataKey   = "fluxrt_kind"
	ModuleMetadataKey = "fluxrt_module_id"
)

// Event is the published shape of a log entry.
type Event struct {
	ModuleID  string       `json:"module_id"`
	Kind      tracing.Kind `json:"kind"`
	Context   string       `json:"context,omitempty"`
	Text      string       `json:"text"`
	Data      any          `json:"data,omitempty"`
	Error     string       `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// EventHandler processes a consumed event; an error nacks the message.
type EventHandler func(ctx context.Context, event Event) error

// EventBus pairs the publisher and subscriber of a watermill pub/sub.
type EventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topic      string
	logger     *slog.Logger
}

func NewEventBus(pub message.Publisher, sub message.Subscriber, logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}

	return &EventBus{publisher: pub, subscriber: sub, topic: Topic, logger: logger}
}

func (eb *EventBus) GenerateID() string {
	return watermill.NewULID()
}

// Publish sends event on the bus topic.
func (eb *EventBus) Publish(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		event.Data = fmt.Sprint(event.Data)

		payload, err = json.Marshal(event)
		if err != nil {
			return err
		}
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(KindMetadataKey, string(event.Kind))
	msg.Metadata.Set(ModuleMetadataKey, event.ModuleID)

	return eb.publisher.Publish(eb.topic, msg)
}

// Sink returns a tracing sink publishing the entries it accepts for moduleID.
func (eb *EventBus) Sink(moduleID string) tracing.Sink {
	return tracing.SinkFunc(func(entry *tracing.LogEntry) {
		event := Event{
			ModuleID:  moduleID,
			Kind:      entry.Kind,
			Text:      entry.Text,
			Data:      entry.Data,
			Timestamp: entry.Timestamp,
		}

		if entry.Context != nil {
			event.Context = entry.Context.Title()
		}

		if entry.Err != nil {
			event.Error = entry.Err.Error()
		}

		if err := eb.Publish(context.Background(), event); err != nil {
			eb.logger.Warn("failed to publish log entry", "module_id", moduleID, "error", err)
		}
	})
}

// Consume subscribes to the bus topic and hands every decoded event to handler until
// ctx is done. Malformed payloads and handler failures are nacked.
func (eb *EventBus) Consume(ctx context.Context, handler EventHandler) error {
	messages, err := eb.subscriber.Subscribe(ctx, eb.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			var event Event

			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				eb.logger.Warn("dropping malformed event", "uuid", msg.UUID, "error", err)
				msg.Nack()

				continue
			}

			if err := handler(ctx, event); err != nil {
				msg.Nack()

				continue
			}

			msg.Ack()
		}
	}()

	return nil
}

func (eb *EventBus) Close() error {
	if err := eb.publisher.Close(); err != nil {
		return err
	}

	return eb.subscriber.Close()
}
