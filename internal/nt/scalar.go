package nt

import (
	"github.com/masar/masar/pkg/types"
)

// ScalarInput is either a bare payload for the value field or a complete
// structured assignment. Build one with Bare, Structured or Input.
type ScalarInput struct {
	bare       any
	fields     map[string]any
	structured bool
}

// Bare wraps a payload destined for the value field.
func Bare(v any) ScalarInput {
	return ScalarInput{bare: v}
}

// Structured wraps a full field assignment; the caller controls every field.
func Structured(fields map[string]any) ScalarInput {
	return ScalarInput{fields: fields, structured: true}
}

// Input classifies x: a map[string]any is structured, anything else is bare.
func Input(x any) ScalarInput {
	if m, ok := x.(map[string]any); ok {
		return Structured(m)
	}
	return Bare(x)
}

// IsStructured reports whether the input is a full field assignment.
func (in ScalarInput) IsStructured() bool {
	return in.structured
}

// Scalar builds NTScalar values.
type Scalar struct {
	typ   *types.Type
	clock Clock
}

// NewScalar creates a scalar builder whose value field has type valueType.
func NewScalar(valueType types.FieldType, opts ...Option) (*Scalar, error) {
	o := buildOptions(opts)
	t, err := BuildScalarType(valueType, o.extra...)
	if err != nil {
		return nil, err
	}
	return &Scalar{typ: t, clock: o.clock}, nil
}

// Type returns the descriptor.
func (s *Scalar) Type() *types.Type {
	return s.typ
}

// Wrap builds a value from in. A bare payload is stored in value and stamped
// with the current time in whole seconds; alarm and the sub-second timestamp
// fields keep their defaults.
func (s *Scalar) Wrap(in ScalarInput) (*types.Value, error) {
	if in.structured {
		return types.NewValue(s.typ, in.fields)
	}
	return types.NewValue(s.typ, map[string]any{
		"value": in.bare,
		"timeStamp": map[string]any{
			"secondsPastEpoch": s.clock.Now().Unix(),
		},
	})
}
