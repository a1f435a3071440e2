// Package kafka provides the Kafka-backed pub/sub of the event bus.
package kafka

import (
	"errors"
	"slices"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
)

var ErrNoBrokers = errors.New("no kafka brokers configured")

// CreateChannel connects to brokers as client serviceName. Log events are consumed
// by the consumer group "<serviceName>-logs", from the oldest retained offset.
func CreateChannel(logger watermill.LoggerAdapter, brokers []string, serviceName string) (*kafka.Publisher, *kafka.Subscriber, error) {
	brokers = slices.DeleteFunc(slices.Clone(brokers), func(broker string) bool { return broker == "" })
	if len(brokers) == 0 {
		return nil, nil, ErrNoBrokers
	}

	consumer := kafka.DefaultSaramaSubscriberConfig()
	consumer.ClientID = serviceName
	consumer.Consumer.Offsets.Initial = sarama.OffsetOldest

	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               brokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: consumer,
		ConsumerGroup:         serviceName + "-logs",
		OTELEnabled:           true,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	producer := kafka.DefaultSaramaSyncPublisherConfig()
	producer.ClientID = serviceName
	producer.Producer.RequiredAcks = sarama.WaitForLocal

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:               brokers,
		Marshaler:             kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: producer,
		OTELEnabled:           true,
	}, logger)
	if err != nil {
		return nil, nil, errors.Join(err, subscriber.Close())
	}

	return publisher, subscriber, nil
}
