package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
)

// Producer wraps a Sarama sync producer. It backs the chat history mirror:
// relayed messages are published for the external persistence store to
// consume.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   logx.Logger
}

// NewProducer creates a Kafka sync producer. Missing brokers or topic
// disable it (nil, nil).
func NewProducer(brokers []string, topic string, logger logx.Logger) (*Producer, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, nil
	}
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Timeout = 5 * time.Second
	prod, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{producer: prod, topic: topic, logger: logger}, nil
}

// Mirror publishes a relayed chat message, keyed by room so one room's
// history stays in partition order.
func (p *Producer) Mirror(_ context.Context, m domain.Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(m.RoomID),
		Value: sarama.ByteEncoder(b),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return err
	}
	p.logger.Debug("chat message mirrored",
		logx.String("room_id", m.RoomID),
		logx.Int("partition", int(partition)),
		logx.Int64("offset", offset),
	)
	return nil
}

// Close shuts the producer down.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}
