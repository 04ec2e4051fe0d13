package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protoTrace "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonv1 "go.opentelemetry.io/proto/otlp/common/v1"
	resourcev1 "go.opentelemetry.io/proto/otlp/resource/v1"
	"go.opentelemetry.io/proto/otlp/trace/v1"
	"go.uber.org/zap"

	"github.com/veritrace/tracecheck/pkg/trace/model"
)

type publishedBatch struct {
	topic string
	spans []model.Span
}

// recordingBus captures publishes instead of dispatching them.
type recordingBus struct {
	published []publishedBatch
}

func (rb *recordingBus) Subscribe(string, func([]model.Span) error, bool) error {
	return nil
}

func (rb *recordingBus) Publish(topic string, payload []model.Span) error {
	rb.published = append(rb.published, publishedBatch{topic: topic, spans: payload})
	return nil
}

func TestTraceServiceServerImpl_Export(t *testing.T) {
	startTime := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	endTime := startTime.Add(5 * time.Millisecond)

	rootSpan := &v1.Span{
		TraceId:           []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10},
		SpanId:            []byte{0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18},
		Name:              "amqp.command",
		StartTimeUnixNano: uint64(startTime.UnixNano()),
		EndTimeUnixNano:   uint64(endTime.UnixNano()),
		Attributes: []*commonv1.KeyValue{
			{
				Key:   "resource.name",
				Value: &commonv1.AnyValue{Value: &commonv1.AnyValue_StringValue{StringValue: "queue.declare"}},
			},
			{
				Key:   "message.size",
				Value: &commonv1.AnyValue{Value: &commonv1.AnyValue_IntValue{IntValue: 42}},
			},
			{
				Key:   "amqp.durable",
				Value: &commonv1.AnyValue{Value: &commonv1.AnyValue_BoolValue{BoolValue: true}},
			},
		},
		Status: &v1.Status{Code: v1.Status_STATUS_CODE_ERROR, Message: "channel closed"},
	}

	req := &protoTrace.ExportTraceServiceRequest{
		ResourceSpans: []*v1.ResourceSpans{
			{
				Resource: &resourcev1.Resource{
					Attributes: []*commonv1.KeyValue{
						{
							Key:   "service.name",
							Value: &commonv1.AnyValue{Value: &commonv1.AnyValue_StringValue{StringValue: "amqp-producer"}},
						},
					},
				},
				ScopeSpans: []*v1.ScopeSpans{
					{Spans: []*v1.Span{rootSpan}},
				},
			},
		},
	}

	t.Run("Converts proto spans to typed spans and publishes them", func(t *testing.T) {
		recording := &recordingBus{}
		traceServiceServer := NewTraceServiceServerImpl(zap.NewNop(), recording)

		_, err := traceServiceServer.Export(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, recording.published, 1)
		require.Len(t, recording.published[0].spans, 1)

		span := recording.published[0].spans[0]
		assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", span.TraceID)
		assert.Equal(t, "1112131415161718", span.SpanID)
		assert.Equal(t, "", span.ParentSpanID)
		assert.True(t, span.IsRoot())
		assert.Equal(t, "amqp-producer", span.ServiceName)
		assert.Equal(t, "amqp.command", span.OperationName)
		assert.Equal(t, "queue.declare", span.Resource)
		assert.Equal(t, startTime.UnixNano(), span.StartTime.UnixNano())
		assert.Equal(t, endTime.UnixNano(), span.EndTime.UnixNano())

		assert.True(t, model.StringTag("queue.declare").Equal(span.Tags["resource.name"]))
		assert.True(t, model.IntTag(42).Equal(span.Tags["message.size"]))
		assert.True(t, model.BoolTag(true).Equal(span.Tags["amqp.durable"]))

		assert.True(t, span.IsError())
		assert.Equal(t, model.ERROR, span.Status.Code)
		assert.Equal(t, "channel closed", span.Status.Message)
	})

	t.Run("Falls back to the operation name without a resource tag", func(t *testing.T) {
		bareSpan := &v1.Span{
			TraceId:           rootSpan.TraceId,
			SpanId:            []byte{0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27, 0x28},
			ParentSpanId:      rootSpan.SpanId,
			Name:              "basic.publish",
			StartTimeUnixNano: uint64(startTime.UnixNano()),
			EndTimeUnixNano:   uint64(endTime.UnixNano()),
		}
		bareReq := &protoTrace.ExportTraceServiceRequest{
			ResourceSpans: []*v1.ResourceSpans{
				{
					Resource:   &resourcev1.Resource{},
					ScopeSpans: []*v1.ScopeSpans{{Spans: []*v1.Span{bareSpan}}},
				},
			},
		}

		recording := &recordingBus{}
		traceServiceServer := NewTraceServiceServerImpl(zap.NewNop(), recording)

		_, err := traceServiceServer.Export(context.Background(), bareReq)
		require.NoError(t, err)
		require.Len(t, recording.published, 1)

		span := recording.published[0].spans[0]
		assert.Equal(t, "basic.publish", span.Resource)
		assert.Equal(t, "1112131415161718", span.ParentSpanID)
		assert.False(t, span.IsRoot())
		assert.Equal(t, model.UNSET, span.Status.Code)
		assert.False(t, span.IsError())
	})

	t.Run("Accepts a resource span with no resource set", func(t *testing.T) {
		orphanSpan := &v1.Span{
			TraceId:           rootSpan.TraceId,
			SpanId:            []byte{0x31, 0x32, 0x33, 0x34, 0x35, 0x36, 0x37, 0x38},
			Name:              "basic.get",
			StartTimeUnixNano: uint64(startTime.UnixNano()),
			EndTimeUnixNano:   uint64(endTime.UnixNano()),
		}
		orphanReq := &protoTrace.ExportTraceServiceRequest{
			ResourceSpans: []*v1.ResourceSpans{
				{ScopeSpans: []*v1.ScopeSpans{{Spans: []*v1.Span{orphanSpan}}}},
			},
		}

		recording := &recordingBus{}
		traceServiceServer := NewTraceServiceServerImpl(zap.NewNop(), recording)

		_, err := traceServiceServer.Export(context.Background(), orphanReq)
		require.NoError(t, err)
		require.Len(t, recording.published, 1)

		span := recording.published[0].spans[0]
		assert.Equal(t, "Never Assigned", span.ServiceName)
		assert.Equal(t, "basic.get", span.Resource)
	})
}
