package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veritrace/tracecheck/pkg/trace/model"
)

func TestTagPredicates(t *testing.T) {
	tests := []struct {
		name      string
		predicate TagPredicate
		value     model.TagValue
		want      bool
	}{
		{
			name:      "equals matches same typed value",
			predicate: TagEquals("amqp.command", model.StringTag("basic.publish")),
			value:     model.StringTag("basic.publish"),
			want:      true,
		},
		{
			name:      "equals rejects a different kind",
			predicate: TagEquals("message.size", model.IntTag(42)),
			value:     model.StringTag("42"),
			want:      false,
		},
		{
			name:      "one-of matches any listed value",
			predicate: TagOneOf("span.kind", model.StringTag("producer"), model.StringTag("consumer")),
			value:     model.StringTag("consumer"),
			want:      true,
		},
		{
			name:      "one-of rejects unlisted values",
			predicate: TagOneOf("span.kind", model.StringTag("producer")),
			value:     model.StringTag("client"),
			want:      false,
		},
		{
			name:      "of-kind ignores the value",
			predicate: TagOfKind("amqp.durable", model.TagKindBool),
			value:     model.BoolTag(false),
			want:      true,
		},
		{
			name:      "in-range is inclusive at both ends",
			predicate: TagInRange("message.size", 42, 42),
			value:     model.IntTag(42),
			want:      true,
		},
		{
			name:      "in-range rejects non-int kinds",
			predicate: TagInRange("message.size", 0, 100),
			value:     model.StringTag("42"),
			want:      false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.predicate.Check(tt.value))
		})
	}
}

func TestTagPredicateDescriptions(t *testing.T) {
	assert.Equal(t, `== "basic.get"`, TagEquals("k", model.StringTag("basic.get")).Describe())
	assert.Equal(t, `one of ["a", "b"]`, TagOneOf("k", model.StringTag("a"), model.StringTag("b")).Describe())
	assert.Equal(t, "of kind int", TagOfKind("k", model.TagKindInt).Describe())
	assert.Equal(t, "in [1, 9]", TagInRange("k", 1, 9).Describe())
}
