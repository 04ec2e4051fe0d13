package verify

import (
	"fmt"
	"strings"

	"github.com/veritrace/tracecheck/pkg/trace/model"
)

// TagPredicate is a typed check against a single tag of a span. Predicates
// are plain values so that expectations can be declared as data and reused
// across test cases.
type TagPredicate interface {
	Key() string
	Check(value model.TagValue) bool
	// Describe returns a short description of the expected value, used in
	// mismatch reports.
	Describe() string
}

type tagEquals struct {
	key  string
	want model.TagValue
}

// TagEquals requires the tag to be present with exactly the given typed value.
func TagEquals(key string, want model.TagValue) TagPredicate {
	return tagEquals{key: key, want: want}
}

func (p tagEquals) Key() string { return p.key }

func (p tagEquals) Check(value model.TagValue) bool {
	return p.want.Equal(value)
}

func (p tagEquals) Describe() string {
	return fmt.Sprintf("== %s", p.want.String())
}

type tagOneOf struct {
	key  string
	want []model.TagValue
}

// TagOneOf requires the tag to be present and equal to one of the given values.
func TagOneOf(key string, want ...model.TagValue) TagPredicate {
	return tagOneOf{key: key, want: want}
}

func (p tagOneOf) Key() string { return p.key }

func (p tagOneOf) Check(value model.TagValue) bool {
	for _, candidate := range p.want {
		if candidate.Equal(value) {
			return true
		}
	}
	return false
}

func (p tagOneOf) Describe() string {
	descriptions := make([]string, len(p.want))
	for i, candidate := range p.want {
		descriptions[i] = candidate.String()
	}
	return fmt.Sprintf("one of [%s]", strings.Join(descriptions, ", "))
}

type tagOfKind struct {
	key  string
	kind model.TagKind
}

// TagOfKind requires the tag to be present with the given kind, regardless
// of its value.
func TagOfKind(key string, kind model.TagKind) TagPredicate {
	return tagOfKind{key: key, kind: kind}
}

func (p tagOfKind) Key() string { return p.key }

func (p tagOfKind) Check(value model.TagValue) bool {
	return value.Kind == p.kind
}

func (p tagOfKind) Describe() string {
	return fmt.Sprintf("of kind %s", p.kind)
}

type tagInRange struct {
	key      string
	min, max int64
}

// TagInRange requires the tag to be an int within [min, max].
func TagInRange(key string, min int64, max int64) TagPredicate {
	return tagInRange{key: key, min: min, max: max}
}

func (p tagInRange) Key() string { return p.key }

func (p tagInRange) Check(value model.TagValue) bool {
	return value.Kind == model.TagKindInt && value.Int >= p.min && value.Int <= p.max
}

func (p tagInRange) Describe() string {
	return fmt.Sprintf("in [%d, %d]", p.min, p.max)
}
