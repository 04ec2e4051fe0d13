package verify

// RootSpan marks a span expectation as having no parent within its trace.
const RootSpan = -1

// SpanExpectation describes the expected shape of a single span. Spans are
// matched by position within the trace, so the expectation order must follow
// the capture order (start time ascending).
type SpanExpectation struct {
	// Resource is the expected resource name, always checked.
	Resource string
	// Operation is the expected operation name, skipped when empty.
	Operation string
	// Service is the expected service name, skipped when empty.
	Service string
	// Parent is the index of the parent span within the same expectation,
	// or RootSpan. It must reference a span declared earlier in the trace.
	Parent int
	// Error is the expected error state of the span.
	Error bool
	// Tags are the required tag checks. Tags present on the span but not
	// listed here are ignored.
	Tags []TagPredicate
}

// TraceExpectation describes the expected shape of one captured trace. It
// must declare exactly as many spans as the actual trace contains.
type TraceExpectation struct {
	Spans []SpanExpectation
}

// RootExpectation is a convenience constructor for a single-span trace.
func RootExpectation(resource string, tags ...TagPredicate) TraceExpectation {
	return TraceExpectation{
		Spans: []SpanExpectation{
			{Resource: resource, Parent: RootSpan, Tags: tags},
		},
	}
}
