package kafka

import (
	"context"
	"encoding/json"

	"github.com/Jacob59569/Fast-Api-Stripe/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type PaymentEventProducer struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

func NewPaymentEventProducer(brokers []string, topic string, logger *zap.Logger) *PaymentEventProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	logger.Info("Kafka producer initialized", zap.String("topic", topic), zap.Strings("brokers", brokers))
	return &PaymentEventProducer{writer: w, topic: topic, logger: logger}
}

// Publish keys messages by session id so every event for one checkout lands
// on the same partition.
func (p *PaymentEventProducer) Publish(ctx context.Context, event models.PaymentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	key := event.SessionID
	if key == "" {
		key = event.RequestID
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to send payment event", zap.String("type", event.Type), zap.Error(err))
		return err
	}

	p.logger.Debug("Sent payment event", zap.String("type", event.Type), zap.String("key", key))
	return nil
}

func (p *PaymentEventProducer) Close() error {
	err := p.writer.Close()
	p.logger.Info("Kafka producer closed")
	return err
}
