// Package kafka carries notification events over Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"tracker-service/common/metrics"
	"tracker-service/internal/notification"

	"github.com/IBM/sarama"
)

const transport = "kafka"

type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewProducer(brokers []string, topic string, logger *slog.Logger, m *metrics.Metrics) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	logger.Info("kafka producer initialized", "brokers", brokers, "topic", topic)

	return newProducer(producer, topic, logger, m), nil
}

func newProducer(producer sarama.SyncProducer, topic string, logger *slog.Logger, m *metrics.Metrics) *Producer {
	return &Producer{
		producer: producer,
		topic:    topic,
		logger:   logger,
		metrics:  m,
	}
}

// Publish keys messages by student so one student's events stay ordered.
func (p *Producer) Publish(ctx context.Context, event notification.Event) error {
	start := time.Now()
	err := p.send(event)
	p.metrics.Messaging.RecordPublish(ctx, transport, string(event.Type), time.Since(start), err)
	return err
}

func (p *Producer) send(event notification.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event", "error", err)
		return err
	}

	key := strconv.FormatInt(event.StudentID, 10)
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.Error("failed to send event to kafka", "error", err)
		return err
	}

	p.logger.Debug("event sent to kafka",
		"topic", p.topic,
		"partition", partition,
		"offset", offset,
		"key", key,
		"event_type", event.Type,
	)
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
