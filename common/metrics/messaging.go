package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type MessagingMetrics struct {
	eventsPublished    metric.Int64Counter
	eventsConsumed     metric.Int64Counter
	publishDuration    metric.Float64Histogram
	processingDuration metric.Float64Histogram
	eventErrors        metric.Int64Counter
}

func NewMessagingMetrics(meter metric.Meter) (*MessagingMetrics, error) {
	mm := &MessagingMetrics{}

	var err error

	mm.eventsPublished, err = meter.Int64Counter(
		"messaging.events.published",
		metric.WithDescription("Notification events handed to the transport"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	mm.eventsConsumed, err = meter.Int64Counter(
		"messaging.events.consumed",
		metric.WithDescription("Notification events received from the transport"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	mm.publishDuration, err = meter.Float64Histogram(
		"messaging.event.publish_duration",
		metric.WithDescription("Time spent publishing an event"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	)
	if err != nil {
		return nil, err
	}

	mm.processingDuration, err = meter.Float64Histogram(
		"messaging.event.processing_duration",
		metric.WithDescription("Time spent dispatching a consumed event"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	)
	if err != nil {
		return nil, err
	}

	mm.eventErrors, err = meter.Int64Counter(
		"messaging.event.errors",
		metric.WithDescription("Publish or processing failures"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return mm, nil
}

func (mm *MessagingMetrics) RecordPublish(ctx context.Context, transport string, eventType string, duration time.Duration, err error) {
	if mm == nil || mm.eventsPublished == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("transport", transport),
		attribute.String("event_type", eventType),
	)

	mm.eventsPublished.Add(ctx, 1, attrs)
	mm.publishDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		mm.eventErrors.Add(ctx, 1, attrs, metric.WithAttributes(attribute.String("stage", "publish")))
	}
}

func (mm *MessagingMetrics) RecordConsume(ctx context.Context, transport string, eventType string, duration time.Duration, err error) {
	if mm == nil || mm.eventsConsumed == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("transport", transport),
		attribute.String("event_type", eventType),
	)

	mm.eventsConsumed.Add(ctx, 1, attrs)
	mm.processingDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		mm.eventErrors.Add(ctx, 1, attrs, metric.WithAttributes(attribute.String("stage", "consume")))
	}
}
