package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"tracker-service/common/metrics"
	"tracker-service/internal/notification"

	"github.com/nats-io/nats.go"
)

const transport = "nats"

type Producer struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewProducer(url string, subject string, logger *slog.Logger, m *metrics.Metrics) (*Producer, error) {
	nc, err := nats.Connect(url, nats.Name("tracker-service-producer"))
	if err != nil {
		return nil, err
	}

	logger.Info("NATS producer initialized", "url", url, "subject", subject)

	return &Producer{
		conn:    nc,
		subject: subject,
		logger:  logger,
		metrics: m,
	}, nil
}

func (p *Producer) Publish(ctx context.Context, event notification.Event) error {
	start := time.Now()
	err := p.publish(event)
	p.metrics.Messaging.RecordPublish(ctx, transport, string(event.Type), time.Since(start), err)
	return err
}

func (p *Producer) publish(event notification.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event", "error", err)
		return err
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		p.logger.Error("failed to send event to NATS", "error", err)
		return err
	}

	p.logger.Debug("event sent to NATS", "subject", p.subject, "event_type", event.Type, "event_id", event.ID)
	return nil
}

func (p *Producer) Close() error {
	return p.conn.Drain()
}
