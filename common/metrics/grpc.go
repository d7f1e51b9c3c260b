package metrics

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type GrpcMetrics struct {
	requestDuration metric.Float64Histogram
	requestsTotal   metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
}

func NewGrpcMetrics(meter metric.Meter) (*GrpcMetrics, error) {
	gm := &GrpcMetrics{}

	var err error

	gm.requestDuration, err = meter.Float64Histogram(
		"grpc.server.request_duration",
		metric.WithDescription("gRPC request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	)
	if err != nil {
		return nil, err
	}

	gm.requestsTotal, err = meter.Int64Counter(
		"grpc.server.requests",
		metric.WithDescription("gRPC requests by method and status code"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	gm.activeRequests, err = meter.Int64UpDownCounter(
		"grpc.server.active_requests",
		metric.WithDescription("gRPC requests currently in flight"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return gm, nil
}

// UnaryServerInterceptor records latency, traffic and saturation for unary calls.
func (gm *GrpcMetrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if gm == nil || gm.requestDuration == nil {
			return handler(ctx, req)
		}

		service, method := splitMethodName(info.FullMethod)
		attrs := []attribute.KeyValue{
			attribute.String("service", service),
			attribute.String("method", method),
		}

		gm.activeRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
		defer gm.activeRequests.Add(ctx, -1, metric.WithAttributes(attrs...))

		start := time.Now()
		resp, err := handler(ctx, req)

		code := codes.OK
		if err != nil {
			code = codes.Unknown
			if s, ok := status.FromError(err); ok {
				code = s.Code()
			}
		}

		withCode := append(attrs, attribute.String("code", code.String()))
		gm.requestDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(withCode...))
		gm.requestsTotal.Add(ctx, 1, metric.WithAttributes(withCode...))

		return resp, err
	}
}

// splitMethodName splits "/package.Service/Method" into service and method
func splitMethodName(fullMethod string) (string, string) {
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	if i := strings.LastIndex(fullMethod, "/"); i >= 0 {
		return fullMethod[:i], fullMethod[i+1:]
	}
	return "unknown", fullMethod
}
