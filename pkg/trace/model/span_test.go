package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagValueEqual(t *testing.T) {
	assert.True(t, StringTag("a").Equal(StringTag("a")))
	assert.False(t, StringTag("a").Equal(StringTag("b")))
	assert.False(t, StringTag("42").Equal(IntTag(42)))
	assert.True(t, IntTag(42).Equal(IntTag(42)))
	assert.True(t, BoolTag(false).Equal(BoolTag(false)))
	assert.False(t, BoolTag(false).Equal(BoolTag(true)))
}

func TestTraceRoot(t *testing.T) {
	t.Run("Finds the span without a parent", func(t *testing.T) {
		trace := Trace{
			TraceID: "trace-1",
			Spans: []Span{
				{SpanID: "a2", ParentSpanID: "a1", TraceID: "trace-1"},
				{SpanID: "a1", TraceID: "trace-1"},
			},
		}
		root := trace.Root()
		assert.NotNil(t, root)
		assert.Equal(t, "a1", root.SpanID)
	})

	t.Run("Returns nil when every span has a parent", func(t *testing.T) {
		trace := Trace{
			TraceID: "trace-1",
			Spans: []Span{
				{SpanID: "a2", ParentSpanID: "a1", TraceID: "trace-1"},
			},
		}
		assert.Nil(t, trace.Root())
	})
}
