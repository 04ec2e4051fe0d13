package server

import (
	"context"
	"encoding/hex"
	"time"

	protoTrace "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonv1 "go.opentelemetry.io/proto/otlp/common/v1"
	"go.opentelemetry.io/proto/otlp/trace/v1"
	"go.uber.org/zap"

	"github.com/veritrace/tracecheck/pkg/bus"
	"github.com/veritrace/tracecheck/pkg/trace/model"
)

const resourceNameTagKey = "resource.name"

type TraceServiceServerImpl struct {
	protoTrace.UnimplementedTraceServiceServer
	eventBus bus.CaptureEventBus[[]model.Span]
	logger   *zap.Logger
}

func NewTraceServiceServerImpl(
	logger *zap.Logger,
	eventBus bus.CaptureEventBus[[]model.Span],
) TraceServiceServerImpl {
	logger.Info("Creating new TraceServiceServerImpl")
	return TraceServiceServerImpl{
		logger:   logger,
		eventBus: eventBus,
	}
}

func (tss TraceServiceServerImpl) Export(
	ctx context.Context,
	req *protoTrace.ExportTraceServiceRequest,
) (*protoTrace.ExportTraceServiceResponse, error) {
	for _, resourceSpan := range req.ResourceSpans {
		serviceName := getServiceName(resourceSpan)
		if serviceName == "Never Assigned" {
			tss.logger.Warn("Service name not found in resource span")
		}

		typedSpans := getTypedSpans(resourceSpan, serviceName)
		err := tss.eventBus.Publish(bus.SpansReceivedTopic, typedSpans)
		if err != nil {
			tss.logger.Error("Failed to publish received spans", zap.Error(err))
		}
	}

	return &protoTrace.ExportTraceServiceResponse{}, nil
}

func getServiceName(resourceSpan *v1.ResourceSpans) string {
	var serviceName = "Never Assigned"
	// Resource is optional in OTLP, so exporters may legitimately omit it.
	for _, attr := range resourceSpan.GetResource().GetAttributes() {
		if attr.Key == "service.name" {
			serviceName = attr.Value.GetStringValue()
		}
	}
	return serviceName
}

func getTypedSpans(resourceSpan *v1.ResourceSpans, serviceName string) []model.Span {
	var typedSpans []model.Span
	for _, libSpan := range resourceSpan.ScopeSpans {
		for _, span := range libSpan.Spans {
			typedSpans = append(typedSpans, getTypedSpan(span, serviceName))
		}
	}
	return typedSpans
}

func getTypedSpan(span *v1.Span, serviceName string) model.Span {
	startTime := time.Unix(0, int64(span.StartTimeUnixNano))
	endTime := time.Unix(0, int64(span.EndTimeUnixNano))
	spanId := hex.EncodeToString(span.SpanId)
	parentSpanId := hex.EncodeToString(span.ParentSpanId)
	traceId := hex.EncodeToString(span.TraceId)
	tags := getTags(span)
	spanStatus := getStatus(span)

	return model.Span{
		SpanID:        spanId,
		ParentSpanID:  parentSpanId,
		TraceID:       traceId,
		ServiceName:   serviceName,
		StartTime:     startTime,
		EndTime:       endTime,
		OperationName: span.Name,
		Resource:      getResource(span, tags),
		Tags:          tags,
		Status:        spanStatus,
	}
}

// getResource prefers the resource.name tag set by the instrumentation and
// falls back to the operation name, matching APM client conventions.
func getResource(span *v1.Span, tags map[string]model.TagValue) string {
	if resource, ok := tags[resourceNameTagKey]; ok && resource.Kind == model.TagKindString {
		return resource.Str
	}
	return span.Name
}

func getTags(span *v1.Span) map[string]model.TagValue {
	tags := make(map[string]model.TagValue)
	for _, attribute := range span.Attributes {
		tags[attribute.Key] = getTagValue(attribute.Value)
	}
	return tags
}

func getTagValue(value *commonv1.AnyValue) model.TagValue {
	switch typedValue := value.Value.(type) {
	case *commonv1.AnyValue_StringValue:
		return model.StringTag(typedValue.StringValue)
	case *commonv1.AnyValue_IntValue:
		return model.IntTag(typedValue.IntValue)
	case *commonv1.AnyValue_BoolValue:
		return model.BoolTag(typedValue.BoolValue)
	default:
		// Everything else (doubles, arrays, maps) is flattened to its
		// string form.
		return model.StringTag(value.String())
	}
}

func getStatus(span *v1.Span) model.Status {
	if span.Status == nil {
		return model.Status{Code: model.UNSET}
	}
	if span.Status.Code == 0 {
		return model.Status{
			Message: span.Status.Message,
			Code:    model.UNSET,
		}
	}
	if span.Status.Code == 1 {
		return model.Status{
			Message: span.Status.Message,
			Code:    model.OK,
		}
	}
	return model.Status{
		Message: span.Status.Message,
		Code:    model.ERROR,
	}
}
