package model

import (
	"fmt"
	"time"
)

type TagKind int

const (
	TagKindString TagKind = iota
	TagKindInt
	TagKindBool
)

func (k TagKind) String() string {
	switch k {
	case TagKindString:
		return "string"
	case TagKindInt:
		return "int"
	case TagKindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// TagValue is a typed span tag value. Exactly one of the value fields is
// meaningful, selected by Kind.
type TagValue struct {
	Kind TagKind `json:"kind"`
	Str  string  `json:"str,omitempty"`
	Int  int64   `json:"int,omitempty"`
	Bool bool    `json:"bool,omitempty"`
}

func StringTag(value string) TagValue {
	return TagValue{Kind: TagKindString, Str: value}
}

func IntTag(value int64) TagValue {
	return TagValue{Kind: TagKindInt, Int: value}
}

func BoolTag(value bool) TagValue {
	return TagValue{Kind: TagKindBool, Bool: value}
}

func (v TagValue) Equal(other TagValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case TagKindString:
		return v.Str == other.Str
	case TagKindInt:
		return v.Int == other.Int
	case TagKindBool:
		return v.Bool == other.Bool
	default:
		return false
	}
}

func (v TagValue) String() string {
	switch v.Kind {
	case TagKindString:
		return fmt.Sprintf("%q", v.Str)
	case TagKindInt:
		return fmt.Sprintf("%d", v.Int)
	case TagKindBool:
		return fmt.Sprintf("%t", v.Bool)
	default:
		return "<unknown>"
	}
}

type StatusCode int

const (
	UNSET StatusCode = iota
	OK
	ERROR
)

func (c StatusCode) String() string {
	switch c {
	case OK:
		return "OK"
	case ERROR:
		return "ERROR"
	default:
		return "UNSET"
	}
}

type Status struct {
	Message string     `json:"message"`
	Code    StatusCode `json:"code"`
}

type Span struct {
	SpanID        string              `json:"span_id"`
	ParentSpanID  string              `json:"parent_span_id"`
	TraceID       string              `json:"trace_id"`
	ServiceName   string              `json:"service_name"`
	OperationName string              `json:"operation_name"`
	Resource      string              `json:"resource"`
	StartTime     time.Time           `json:"start_time"`
	EndTime       time.Time           `json:"end_time"`
	Status        Status              `json:"status"`
	Tags          map[string]TagValue `json:"tags"`
}

// IsRoot reports whether the span has no parent within its trace.
func (s Span) IsRoot() bool {
	return s.ParentSpanID == ""
}

// IsError reports whether the span finished with an error status.
func (s Span) IsError() bool {
	return s.Status.Code == ERROR
}

// Trace is the ordered collection of spans sharing a trace ID. Span order is
// established by the capture layer (start time ascending).
type Trace struct {
	TraceID string `json:"trace_id"`
	Spans   []Span `json:"spans"`
}

func (t Trace) Len() int {
	return len(t.Spans)
}

// Root returns the first span without a parent, or nil if every span
// references one.
func (t Trace) Root() *Span {
	for i := range t.Spans {
		if t.Spans[i].IsRoot() {
			return &t.Spans[i]
		}
	}
	return nil
}
