package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alimikegami/crispy-cravings/payment-service/config"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/dto"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

const maxRetries = 3

// Producer publishes order events keyed by order number so every event for an
// order lands on the same partition.
type Producer struct {
	writer *kafka.Writer
	// backoff is the wait before the n-th retry.
	backoff func(attempt int) time.Duration
}

func CreateKafkaProducer(config *config.Config) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(config.KafkaConfig.BrokerAddress),
		Topic:                  config.KafkaConfig.BrokerTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}

	return &Producer{
		writer: writer,
		backoff: func(attempt int) time.Duration {
			return time.Second * time.Duration(attempt+1)
		},
	}
}

func (p *Producer) Publish(ctx context.Context, key string, msg dto.KafkaMessage) (err error) {
	jsonMsg, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal Kafka message: %w", err)
	}

	for i := 0; i < maxRetries; i++ {
		err = p.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(key),
			Value: jsonMsg,
		})
		if err == nil {
			return nil
		}
		log.Ctx(ctx).Error().Err(err).Str("component", "Publish").Str("event_type", msg.EventType).Int("attempt", i+1).Msg("")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff(i)):
		}
	}

	return fmt.Errorf("failed to write Kafka message after %d attempts: %w", maxRetries, err)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// NoopProducer is used when no broker is configured.
type NoopProducer struct{}

func (NoopProducer) Publish(ctx context.Context, key string, msg dto.KafkaMessage) error {
	log.Ctx(ctx).Debug().Str("component", "Publish").Str("event_type", msg.EventType).Str("key", key).Msg("no broker configured, event dropped")
	return nil
}

func (NoopProducer) Close() error {
	return nil
}
