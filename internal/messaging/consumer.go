// Package messaging carries notification events over NATS.
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

// Handler receives every decoded event.
type Handler interface {
	Dispatch(ctx context.Context, event notification.Event) error
}

type Consumer struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	subject string
	handler Handler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewConsumer(url string, subject string, handler Handler, logger *slog.Logger, m *metrics.Metrics) (*Consumer, error) {
	nc, err := nats.Connect(url, nats.Name("tracker-service-consumer"))
	if err != nil {
		return nil, err
	}

	return &Consumer{
		conn:    nc,
		subject: subject,
		handler: handler,
		logger:  logger,
		metrics: m,
	}, nil
}

// Start subscribes and blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	sub, err := c.conn.Subscribe(c.subject, func(msg *nats.Msg) {
		c.handle(ctx, msg)
	})
	if err != nil {
		return err
	}

	c.sub = sub
	c.logger.Info("NATS consumer started", "subject", c.subject)

	<-ctx.Done()
	return ctx.Err()
}

func (c *Consumer) handle(ctx context.Context, msg *nats.Msg) {
	start := time.Now()

	var event notification.Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logger.Error("failed to unmarshal event", "subject", msg.Subject, "error", err)
		c.metrics.Messaging.RecordConsume(ctx, transport, "unknown", time.Since(start), err)
		return
	}

	err := c.handler.Dispatch(context.WithoutCancel(ctx), event)
	c.metrics.Messaging.RecordConsume(ctx, transport, string(event.Type), time.Since(start), err)
	if err != nil {
		c.logger.Error("failed to dispatch event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err,
		)
		return
	}

	c.logger.Debug("event dispatched", "event_id", event.ID, "event_type", event.Type)
}

func (c *Consumer) Close() error {
	if c.sub != nil {
		_ = c.sub.Unsubscribe()
	}
	c.conn.Close()
	return nil
}

// HealthCheck verifies the NATS connection is up.
func (c *Consumer) HealthCheck() error {
	if c.conn == nil {
		return nats.ErrConnectionClosed
	}

	if !c.conn.IsConnected() {
		return nats.ErrDisconnected
	}

	return nil
}
