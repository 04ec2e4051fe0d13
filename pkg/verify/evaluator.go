package verify

import (
	"fmt"
	"strconv"

	"github.com/veritrace/tracecheck/pkg/trace/model"
)

type MismatchKind int

const (
	CountMismatch MismatchKind = iota
	SpanCountMismatch
	ResourceMismatch
	ParentMismatch
	ErrorFlagMismatch
	TagMismatch
)

func (k MismatchKind) String() string {
	switch k {
	case CountMismatch:
		return "CountMismatch"
	case SpanCountMismatch:
		return "SpanCountMismatch"
	case ResourceMismatch:
		return "ResourceMismatch"
	case ParentMismatch:
		return "ParentMismatch"
	case ErrorFlagMismatch:
		return "ErrorFlagMismatch"
	case TagMismatch:
		return "TagMismatch"
	default:
		return "UnknownMismatch"
	}
}

// Mismatch is a single verification failure with enough context to diagnose
// without re-running the scenario. TraceIndex and SpanIndex are -1 when the
// mismatch is not scoped to a trace or span.
type Mismatch struct {
	Kind       MismatchKind
	TraceIndex int
	SpanIndex  int
	Field      string
	TagKey     string
	Expected   string
	Actual     string
}

func (m Mismatch) String() string {
	switch m.Kind {
	case CountMismatch:
		return fmt.Sprintf("trace count mismatch: expected %s traces, got %s", m.Expected, m.Actual)
	case SpanCountMismatch:
		return fmt.Sprintf("trace %d: span count mismatch: expected %s spans, got %s",
			m.TraceIndex, m.Expected, m.Actual)
	case TagMismatch:
		return fmt.Sprintf("trace %d span %d: tag %q mismatch: expected %s, got %s",
			m.TraceIndex, m.SpanIndex, m.TagKey, m.Expected, m.Actual)
	default:
		return fmt.Sprintf("trace %d span %d: %s mismatch: expected %s, got %s",
			m.TraceIndex, m.SpanIndex, m.Field, m.Expected, m.Actual)
	}
}

// Report is the outcome of one evaluation pass. Mismatches are aggregated
// rather than reported fail-fast so a single run surfaces every divergence.
type Report struct {
	Mismatches []Mismatch
}

func (r Report) OK() bool {
	return len(r.Mismatches) == 0
}

func (r Report) String() string {
	out := ""
	for i, mismatch := range r.Mismatches {
		if i > 0 {
			out += "\n"
		}
		out += mismatch.String()
	}
	return out
}

// Err returns nil when the report is clean, otherwise a single error
// enumerating every mismatch.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("trace verification failed with %d mismatch(es):\n%s", len(r.Mismatches), r.String())
}

// Evaluate verifies captured traces against expectations declared in the
// same order. It is a pure read-only pass: calling it twice with the same
// inputs yields the same report.
//
// A trace/expectation count difference short-circuits the whole evaluation;
// a span count difference short-circuits only the affected trace. All other
// mismatches are collected in one pass.
func Evaluate(traces []model.Trace, expectations []TraceExpectation) Report {
	if len(expectations) != len(traces) {
		return Report{Mismatches: []Mismatch{{
			Kind:       CountMismatch,
			TraceIndex: -1,
			SpanIndex:  -1,
			Field:      "traces",
			Expected:   strconv.Itoa(len(expectations)),
			Actual:     strconv.Itoa(len(traces)),
		}}}
	}

	var mismatches []Mismatch
	for i, expectation := range expectations {
		mismatches = append(mismatches, evaluateTrace(i, traces[i], expectation)...)
	}
	return Report{Mismatches: mismatches}
}

func evaluateTrace(traceIndex int, trace model.Trace, expectation TraceExpectation) []Mismatch {
	if len(expectation.Spans) != len(trace.Spans) {
		return []Mismatch{{
			Kind:       SpanCountMismatch,
			TraceIndex: traceIndex,
			SpanIndex:  -1,
			Field:      "spans",
			Expected:   strconv.Itoa(len(expectation.Spans)),
			Actual:     strconv.Itoa(len(trace.Spans)),
		}}
	}

	var mismatches []Mismatch
	for spanIndex, spanExpectation := range expectation.Spans {
		mismatches = append(
			mismatches,
			evaluateSpan(traceIndex, spanIndex, trace, spanExpectation)...,
		)
	}
	return mismatches
}

func evaluateSpan(
	traceIndex int,
	spanIndex int,
	trace model.Trace,
	expectation SpanExpectation,
) []Mismatch {
	span := trace.Spans[spanIndex]
	var mismatches []Mismatch

	if span.Resource != expectation.Resource {
		mismatches = append(mismatches, Mismatch{
			Kind:       ResourceMismatch,
			TraceIndex: traceIndex,
			SpanIndex:  spanIndex,
			Field:      "resource",
			Expected:   strconv.Quote(expectation.Resource),
			Actual:     strconv.Quote(span.Resource),
		})
	}
	if expectation.Operation != "" && span.OperationName != expectation.Operation {
		mismatches = append(mismatches, Mismatch{
			Kind:       ResourceMismatch,
			TraceIndex: traceIndex,
			SpanIndex:  spanIndex,
			Field:      "operation",
			Expected:   strconv.Quote(expectation.Operation),
			Actual:     strconv.Quote(span.OperationName),
		})
	}
	if expectation.Service != "" && span.ServiceName != expectation.Service {
		mismatches = append(mismatches, Mismatch{
			Kind:       ResourceMismatch,
			TraceIndex: traceIndex,
			SpanIndex:  spanIndex,
			Field:      "service",
			Expected:   strconv.Quote(expectation.Service),
			Actual:     strconv.Quote(span.ServiceName),
		})
	}

	if parentMismatch := checkParent(traceIndex, spanIndex, trace, expectation); parentMismatch != nil {
		mismatches = append(mismatches, *parentMismatch)
	}

	if span.IsError() != expectation.Error {
		mismatches = append(mismatches, Mismatch{
			Kind:       ErrorFlagMismatch,
			TraceIndex: traceIndex,
			SpanIndex:  spanIndex,
			Field:      "error",
			Expected:   strconv.FormatBool(expectation.Error),
			Actual:     strconv.FormatBool(span.IsError()),
		})
	}

	for _, predicate := range expectation.Tags {
		value, present := span.Tags[predicate.Key()]
		if !present {
			mismatches = append(mismatches, Mismatch{
				Kind:       TagMismatch,
				TraceIndex: traceIndex,
				SpanIndex:  spanIndex,
				Field:      "tags",
				TagKey:     predicate.Key(),
				Expected:   predicate.Describe(),
				Actual:     "<missing>",
			})
			continue
		}
		if !predicate.Check(value) {
			mismatches = append(mismatches, Mismatch{
				Kind:       TagMismatch,
				TraceIndex: traceIndex,
				SpanIndex:  spanIndex,
				Field:      "tags",
				TagKey:     predicate.Key(),
				Expected:   predicate.Describe(),
				Actual:     value.String(),
			})
		}
	}

	return mismatches
}

func checkParent(
	traceIndex int,
	spanIndex int,
	trace model.Trace,
	expectation SpanExpectation,
) *Mismatch {
	span := trace.Spans[spanIndex]
	if expectation.Parent == RootSpan {
		if !span.IsRoot() {
			return &Mismatch{
				Kind:       ParentMismatch,
				TraceIndex: traceIndex,
				SpanIndex:  spanIndex,
				Field:      "parent",
				Expected:   "<root>",
				Actual:     span.ParentSpanID,
			}
		}
		return nil
	}

	// Parents must be declared, and therefore verified, before their children.
	if expectation.Parent < 0 || expectation.Parent >= spanIndex {
		return &Mismatch{
			Kind:       ParentMismatch,
			TraceIndex: traceIndex,
			SpanIndex:  spanIndex,
			Field:      "parent",
			Expected:   fmt.Sprintf("a span declared before index %d", spanIndex),
			Actual:     fmt.Sprintf("parent index %d", expectation.Parent),
		}
	}

	parent := trace.Spans[expectation.Parent]
	if span.ParentSpanID != parent.SpanID {
		return &Mismatch{
			Kind:       ParentMismatch,
			TraceIndex: traceIndex,
			SpanIndex:  spanIndex,
			Field:      "parent",
			Expected:   parent.SpanID,
			Actual:     span.ParentSpanID,
		}
	}
	return nil
}
