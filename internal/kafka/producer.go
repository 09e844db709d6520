// Package kafka wraps the broker client behind the small producer surface the
// outbox publisher needs.
package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Producer publishes monitoring events. Messages are keyed by aggregate id so
// all events for one entity land on the same partition, in order.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer builds a producer for the given brokers and topic. Writes wait
// for acknowledgement from all in-sync replicas.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (p *Producer) Send(ctx context.Context, key string, value []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
