package kafka_test

import (
	"context"
	"testing"
	"time"

	"kasir/pkg/kafka"

	"github.com/stretchr/testify/assert"
)

func TestProducer_PublishFailsWithoutBroker(t *testing.T) {
	producer := kafka.NewProducer([]string{"127.0.0.1:1"}, "order-events")
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := producer.Publish(ctx, "order-1", []byte(`{"type":"order.created"}`))
	assert.Error(t, err)
}
