package rabbitmq

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/dgraph-io/ristretto"
	amqp091 "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	protoTrace "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	traceServer "github.com/veritrace/tracecheck/internal/collector/server"
	"github.com/veritrace/tracecheck/pkg/bus"
	"github.com/veritrace/tracecheck/pkg/capture"
	"github.com/veritrace/tracecheck/pkg/trace/model"
)

const getPollTimeout = 10 * time.Second

func newRecorder(logger *zap.Logger) (*capture.RecorderImpl, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 26,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create span cache: %w", err)
	}
	groupCache := capture.NewWriteBehindCacheImpl[model.Span](cache)
	return capture.NewRecorderImpl(groupCache, 50*time.Millisecond, logger), nil
}

// startCollector starts an in-process OTLP/gRPC collector on an ephemeral
// port, wired to the given recorder through the event bus.
func startCollector(
	recorder capture.Recorder,
	logger *zap.Logger,
) (
	collectorTarget string,
	stopCollector func(),
	err error,
) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to listen: %w", err)
	}

	eventBus := bus.NewCaptureEventBus[[]model.Span](EventBus.New(), logger)
	err = eventBus.Subscribe(
		bus.SpansReceivedTopic,
		func(spans []model.Span) error {
			return recorder.Record(spans)
		},
		false,
	)
	if err != nil {
		return "", nil, fmt.Errorf("failed to subscribe recorder: %w", err)
	}

	srv := grpc.NewServer()
	protoTrace.RegisterTraceServiceServer(srv, traceServer.NewTraceServiceServerImpl(logger, eventBus))
	go func() {
		if err := srv.Serve(listener); err != nil {
			logger.Error("Collector server stopped", zap.Error(err))
		}
	}()

	return listener.Addr().String(), srv.GracefulStop, nil
}

// newTracerProvider builds an SDK tracer provider exporting to the
// in-process collector.
func newTracerProvider(
	ctx context.Context,
	collectorTarget string,
	serviceName string,
) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(collectorTarget),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp exporter: %w", err)
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(100*time.Millisecond)),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	return tracerProvider, nil
}

// publishScenario declares an exchange and a bound queue under a root span,
// then publishes one message under a child span, the way an instrumented
// producer would report it.
func publishScenario(
	ctx context.Context,
	tracer trace.Tracer,
	channel *amqp091.Channel,
	exchange string,
	queueName string,
	body string,
) error {
	ctx, declareSpan := tracer.Start(ctx, "amqp.command", trace.WithAttributes(
		attribute.String("resource.name", "queue.declare"),
		attribute.String("amqp.command", "queue.declare"),
		attribute.String("amqp.queue", queueName),
	))
	defer declareSpan.End()

	err := channel.ExchangeDeclare(exchange, "fanout", false, true, false, false, nil)
	if err == nil {
		_, err = channel.QueueDeclare(queueName, false, true, false, false, nil)
	}
	if err == nil {
		err = channel.QueueBind(queueName, "", exchange, false, nil)
	}
	if err != nil {
		declareSpan.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to declare messaging topology: %w", err)
	}

	_, publishSpan := tracer.Start(ctx, "amqp.command", trace.WithAttributes(
		attribute.String("resource.name", "basic.publish "+exchange),
		attribute.String("amqp.command", "basic.publish"),
		attribute.String("amqp.exchange", exchange),
		attribute.Int("message.size", len(body)),
	))
	defer publishSpan.End()

	err = channel.PublishWithContext(ctx, exchange, "", false, false, amqp091.Publishing{
		ContentType: "text/plain",
		Body:        []byte(body),
	})
	if err != nil {
		publishSpan.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// getScenario polls the queue for one message under a root span, the way an
// instrumented consumer would report it.
func getScenario(
	ctx context.Context,
	tracer trace.Tracer,
	channel *amqp091.Channel,
	queueName string,
) (string, error) {
	_, span := tracer.Start(ctx, "amqp.command", trace.WithAttributes(
		attribute.String("resource.name", "basic.get "+queueName),
		attribute.String("amqp.command", "basic.get"),
		attribute.String("amqp.queue", queueName),
	))
	defer span.End()

	deadline := time.Now().Add(getPollTimeout)
	for {
		delivery, ok, err := channel.Get(queueName, true)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return "", fmt.Errorf("failed to get message from queue %s: %w", queueName, err)
		}
		if ok {
			span.SetAttributes(attribute.Int("message.size", len(delivery.Body)))
			return string(delivery.Body), nil
		}
		if time.Now().After(deadline) {
			span.SetStatus(codes.Error, "no message received")
			return "", fmt.Errorf("no message received from queue %s", queueName)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
