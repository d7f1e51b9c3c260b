package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"tracker-service/common/metrics"
	"tracker-service/internal/notification"

	"github.com/IBM/sarama"
)

// Handler receives every decoded event.
type Handler interface {
	Dispatch(ctx context.Context, event notification.Event) error
}

type Consumer struct {
	consumer sarama.ConsumerGroup
	topic    string
	handler  *ConsumerGroupHandler
	logger   *slog.Logger
}

func NewConsumer(brokers []string, topic, group string, handler Handler, logger *slog.Logger, m *metrics.Metrics) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetNewest

	consumerGroup, err := sarama.NewConsumerGroup(brokers, group, config)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		consumer: consumerGroup,
		topic:    topic,
		handler: &ConsumerGroupHandler{
			Handler: handler,
			Logger:  logger,
			Metrics: m,
		},
		logger: logger,
	}, nil
}

// Start consumes until ctx is cancelled, rejoining the group after every rebalance.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("kafka consumer started", "topic", c.topic)

	for {
		if err := c.consumer.Consume(ctx, []string{c.topic}, c.handler); err != nil {
			c.logger.Error("error consuming events", "error", err)
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	return c.consumer.Close()
}

// ConsumerGroupHandler implements sarama.ConsumerGroupHandler.
type ConsumerGroupHandler struct {
	Handler Handler
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

func (h *ConsumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *ConsumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim marks every message, including ones that fail, so a poison
// event is not redelivered forever.
func (h *ConsumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		h.handle(session.Context(), msg)
		session.MarkMessage(msg, "")
	}
	return nil
}

func (h *ConsumerGroupHandler) handle(ctx context.Context, msg *sarama.ConsumerMessage) {
	start := time.Now()

	var event notification.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.Logger.Error("failed to unmarshal event",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		h.Metrics.Messaging.RecordConsume(ctx, transport, "unknown", time.Since(start), err)
		return
	}

	err := h.Handler.Dispatch(context.WithoutCancel(ctx), event)
	h.Metrics.Messaging.RecordConsume(ctx, transport, string(event.Type), time.Since(start), err)
	if err != nil {
		h.Logger.Error("failed to dispatch event",
			"event_id", event.ID,
			"event_type", event.Type,
			"offset", msg.Offset,
			"error", err,
		)
		return
	}

	h.Logger.Debug("event dispatched", "event_id", event.ID, "event_type", event.Type, "offset", msg.Offset)
}
