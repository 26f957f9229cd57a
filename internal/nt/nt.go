// Package nt builds the normative record types (scalar, multi-channel and
// table) and wraps raw data into values of those types.
package nt

import (
	"time"

	"github.com/masar/masar/pkg/types"
)

// Normative type identifiers.
const (
	ScalarID       = "epics:nt/NTScalar:1.0"
	MultiChannelID = "epics:nt/NTMultiChannel:1.0"
	TableID        = "epics:nt/NTTable:1.0"
)

var (
	alarmType = types.MustNewType("alarm_t", []types.Field{
		{Name: "severity", Type: types.ScalarOf(types.Int32)},
		{Name: "status", Type: types.ScalarOf(types.Int32)},
		{Name: "message", Type: types.ScalarOf(types.String)},
	})

	timeStampType = types.MustNewType("time_t", []types.Field{
		{Name: "secondsPastEpoch", Type: types.ScalarOf(types.Int64)},
		{Name: "nanoseconds", Type: types.ScalarOf(types.Int32)},
		{Name: "userTag", Type: types.ScalarOf(types.Int32)},
	})
)

// AlarmType returns the shared alarm structure descriptor.
func AlarmType() *types.Type { return alarmType }

// TimeStampType returns the shared timeStamp structure descriptor.
func TimeStampType() *types.Type { return timeStampType }

func alarmField() types.Field {
	return types.Field{Name: "alarm", Type: types.StructOf(alarmType)}
}

func timeStampField() types.Field {
	return types.Field{Name: "timeStamp", Type: types.StructOf(timeStampType)}
}

// Clock supplies the current wall-clock time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

type options struct {
	extra  []types.Field
	clock  Clock
	strict bool
}

// Option configures a builder.
type Option func(*options)

// WithExtra appends caller-supplied fields after the normative ones.
func WithExtra(fields ...types.Field) Option {
	return func(o *options) {
		o.extra = append(o.extra, fields...)
	}
}

// WithClock overrides the clock used to timestamp bare scalar values.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithStrictRows makes Table.Wrap reject rows that do not supply every
// non-empty column.
func WithStrictRows() Option {
	return func(o *options) {
		o.strict = true
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: systemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// BuildScalarType returns the NTScalar descriptor for valueType.
func BuildScalarType(valueType types.FieldType, extra ...types.Field) (*types.Type, error) {
	fields := []types.Field{
		{Name: "value", Type: valueType},
		alarmField(),
		timeStampField(),
	}
	return types.NewType(ScalarID, append(fields, extra...))
}

// BuildMultiChannelType returns the NTMultiChannel descriptor for valueType.
func BuildMultiChannelType(valueType types.FieldType, extra ...types.Field) (*types.Type, error) {
	fields := []types.Field{
		{Name: "value", Type: valueType},
		{Name: "channelName", Type: types.ArrayOf(types.String)},
		{Name: "descriptor", Type: types.ScalarOf(types.String)},
		alarmField(),
		timeStampField(),
		{Name: "severity", Type: types.ArrayOf(types.Int32)},
		{Name: "status", Type: types.ArrayOf(types.Int32)},
		{Name: "message", Type: types.ArrayOf(types.String)},
		{Name: "secondsPastEpoch", Type: types.ArrayOf(types.Int64)},
		{Name: "nanoseconds", Type: types.ArrayOf(types.Int32)},
		{Name: "userTag", Type: types.ArrayOf(types.Int32)},
		{Name: "isConnected", Type: types.ArrayOf(types.Bool)},
	}
	return types.NewType(MultiChannelID, append(fields, extra...))
}

// MultiChannel builds NTMultiChannel values.
type MultiChannel struct {
	typ *types.Type
}

// NewMultiChannel creates a multi-channel builder.
func NewMultiChannel(valueType types.FieldType, opts ...Option) (*MultiChannel, error) {
	o := buildOptions(opts)
	t, err := BuildMultiChannelType(valueType, o.extra...)
	if err != nil {
		return nil, err
	}
	return &MultiChannel{typ: t}, nil
}

// Type returns the descriptor.
func (m *MultiChannel) Type() *types.Type {
	return m.typ
}

// Wrap assigns fields to a new value.
func (m *MultiChannel) Wrap(fields map[string]any) (*types.Value, error) {
	return types.NewValue(m.typ, fields)
}
