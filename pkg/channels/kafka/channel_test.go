package kafka_test

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/fluxrt/pkg/channels/kafka"
	"github.com/stretchr/testify/assert"
)

func TestCreateChannel_RequiresBrokers(t *testing.T) {
	_, _, err := kafka.CreateChannel(watermill.NopLogger{}, nil, "fluxrt")
	assert.ErrorIs(t, err, kafka.ErrNoBrokers)

	_, _, err = kafka.CreateChannel(watermill.NopLogger{}, []string{""}, "fluxrt")
	assert.ErrorIs(t, err, kafka.ErrNoBrokers)
}
