package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes JSON events to one topic. With no brokers it drops events.
type Publisher struct {
	topic  string
	writer messageWriter
}

func NewPublisher(brokers []string, topic string) *Publisher {
	if len(brokers) == 0 {
		log.Info().Msg("kafka brokers not configured; search events disabled")
		return &Publisher{topic: topic}
	}
	return &Publisher{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func newPublisherWithWriter(topic string, w messageWriter) *Publisher {
	return &Publisher{topic: topic, writer: w}
}

func (p *Publisher) Publish(ctx context.Context, key string, payload any) error {
	if p.writer == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{Key: []byte(key), Value: data, Time: time.Now()}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write event to %s: %w", p.topic, err)
	}
	log.Debug().Str("topic", p.topic).Str("key", key).Msg("event published")
	return nil
}

func (p *Publisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
