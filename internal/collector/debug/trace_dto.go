package debug

import (
	"time"

	"github.com/veritrace/tracecheck/pkg/trace/model"
)

// TraceSummaryDTO is a one-line view of a captured trace.
type TraceSummaryDTO struct {
	// The insertion index of the trace in the capture buffer
	Index int `json:"index"`
	// The hex-encoded trace ID
	TraceID string `json:"trace_id"`
	// The number of spans recorded for the trace so far
	SpanCount int `json:"span_count"`
	// The resource of the root span, empty if no root was recorded
	RootResource string `json:"root_resource"`
}

// TraceDetailDTO is the full view of a captured trace.
type TraceDetailDTO struct {
	Index   int       `json:"index"`
	TraceID string    `json:"trace_id"`
	Spans   []SpanDTO `json:"spans"`
}

// SpanDTO represents the details of a captured span.
type SpanDTO struct {
	SpanID       string            `json:"span_id"`
	ParentSpanID string            `json:"parent_span_id"`
	Service      string            `json:"service"`
	Operation    string            `json:"operation"`
	Resource     string            `json:"resource"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      time.Time         `json:"end_time"`
	Error        bool              `json:"error"`
	StatusText   string            `json:"status_text,omitempty"`
	Tags         map[string]string `json:"tags"`
}

func toTraceSummaryDTO(index int, trace model.Trace) TraceSummaryDTO {
	rootResource := ""
	if root := trace.Root(); root != nil {
		rootResource = root.Resource
	}
	return TraceSummaryDTO{
		Index:        index,
		TraceID:      trace.TraceID,
		SpanCount:    trace.Len(),
		RootResource: rootResource,
	}
}

func toTraceDetailDTO(index int, trace model.Trace) TraceDetailDTO {
	spans := make([]SpanDTO, len(trace.Spans))
	for i, span := range trace.Spans {
		spans[i] = toSpanDTO(span)
	}
	return TraceDetailDTO{
		Index:   index,
		TraceID: trace.TraceID,
		Spans:   spans,
	}
}

func toSpanDTO(span model.Span) SpanDTO {
	tags := make(map[string]string, len(span.Tags))
	for key, value := range span.Tags {
		tags[key] = value.String()
	}
	return SpanDTO{
		SpanID:       span.SpanID,
		ParentSpanID: span.ParentSpanID,
		Service:      span.ServiceName,
		Operation:    span.OperationName,
		Resource:     span.Resource,
		StartTime:    span.StartTime,
		EndTime:      span.EndTime,
		Error:        span.IsError(),
		StatusText:   span.Status.Message,
		Tags:         tags,
	}
}
