package app

import (
	"context"
	"fmt"
	"log/slog"

	"tracker-service/common/metrics"
	"tracker-service/internal/config"
	"tracker-service/internal/health"
	"tracker-service/internal/kafka"
	"tracker-service/internal/messaging"
	"tracker-service/internal/notification"
)

// transport delivers events to the dispatcher, in process or through a broker.
type transport struct {
	publisher notification.Publisher
	consume   func(ctx context.Context) error
	deps      []health.Dependency
	close     func()
}

func openTransport(cfg *config.Config, dispatcher *notification.Dispatcher, m *metrics.Metrics, logger *slog.Logger) (*transport, error) {
	switch cfg.Notifications.Transport {
	case config.TransportLocal:
		return &transport{
			publisher: notification.NewLocalPublisher(dispatcher),
			close:     func() {},
		}, nil

	case config.TransportNATS:
		producer, err := messaging.NewProducer(cfg.NATS.URL, cfg.NATS.Subject, logger, m)
		if err != nil {
			return nil, fmt.Errorf("failed to create NATS producer: %w", err)
		}
		consumer, err := messaging.NewConsumer(cfg.NATS.URL, cfg.NATS.Subject, dispatcher, logger, m)
		if err != nil {
			_ = producer.Close()
			return nil, fmt.Errorf("failed to create NATS consumer: %w", err)
		}
		return &transport{
			publisher: producer,
			consume:   consumer.Start,
			deps: []health.Dependency{{
				Name:  "nats",
				Check: func(context.Context) error { return consumer.HealthCheck() },
			}},
			close: func() {
				if err := producer.Close(); err != nil {
					logger.Error("NATS producer close error", "error", err)
				}
				if err := consumer.Close(); err != nil {
					logger.Error("NATS consumer close error", "error", err)
				}
			},
		}, nil

	case config.TransportKafka:
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger, m)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka producer: %w", err)
		}
		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Group, dispatcher, logger, m)
		if err != nil {
			_ = producer.Close()
			return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
		}
		return &transport{
			publisher: producer,
			consume:   consumer.Start,
			close: func() {
				if err := producer.Close(); err != nil {
					logger.Error("kafka producer close error", "error", err)
				}
				if err := consumer.Close(); err != nil {
					logger.Error("kafka consumer close error", "error", err)
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported notifications transport %q", cfg.Notifications.Transport)
	}
}
