package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	merrors "github.com/masar/masar/internal/errors"
)

// Value is a concrete assignment of data conforming to a Type. Fields that were
// never assigned hold the type default and are reported as unchanged.
//
// Scalars are stored as the Go type of their code (int32 for 'i', float64 for
// 'd', ...), arrays as typed slices ([]int32, []string, ...) and nested
// structures as *Value. Slices returned by Get and ToMap are shared with the
// Value and must not be modified.
type Value struct {
	typ     *Type
	fields  []any
	changed []bool
}

// NewValue builds a Value of type t and assigns init to it. Every key of init
// must name a field of t and hold data assignable to the field's type; nested
// structures are given as map[string]any or *Value.
func NewValue(t *Type, init map[string]any) (*Value, error) {
	v := newDefault(t)
	if err := v.assign(init, ""); err != nil {
		return nil, err
	}
	return v, nil
}

func newDefault(t *Type) *Value {
	v := &Value{
		typ:     t,
		fields:  make([]any, len(t.fields)),
		changed: make([]bool, len(t.fields)),
	}
	for i, f := range t.fields {
		v.fields[i] = zeroOf(f.Type)
	}
	return v
}

func zeroOf(ft FieldType) any {
	switch ft.kind {
	case KindArray:
		return zeroArray(ft.code)
	case KindStruct:
		return newDefault(ft.st)
	default:
		return zeroScalar(ft.code)
	}
}

// Type returns the descriptor of the value.
func (v *Value) Type() *Type {
	return v.typ
}

// Get returns the field at a dotted path such as "timeStamp.secondsPastEpoch".
func (v *Value) Get(path string) (any, bool) {
	cur := v
	parts := strings.Split(path, ".")
	for i, name := range parts {
		idx, ok := cur.typ.index[name]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return cur.fields[idx], true
		}
		next, ok := cur.fields[idx].(*Value)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// Set assigns x to the field at a dotted path and marks it changed.
func (v *Value) Set(path string, x any) error {
	parts := strings.Split(path, ".")
	cur := v
	prefix := ""
	var parents []*Value
	var parentIdx []int
	for _, name := range parts[:len(parts)-1] {
		idx, ok := cur.typ.index[name]
		if !ok {
			return unknownField(prefix + name)
		}
		next, ok := cur.fields[idx].(*Value)
		if !ok {
			return merrors.NewConstructionError(merrors.CodeTypeMismatch,
				fmt.Sprintf("field %q is not a structure", prefix+name)).
				WithDetails(map[string]interface{}{"field": prefix + name})
		}
		parents = append(parents, cur)
		parentIdx = append(parentIdx, idx)
		cur = next
		prefix += name + "."
	}
	if err := cur.assignField(parts[len(parts)-1], prefix, x); err != nil {
		return err
	}
	for i, p := range parents {
		p.changed[parentIdx[i]] = true
	}
	return nil
}

// Changed reports whether the top-level field name was assigned.
func (v *Value) Changed(name string) bool {
	idx, ok := v.typ.index[name]
	return ok && v.changed[idx]
}

// ChangedSet returns the names of assigned top-level fields in type order.
func (v *Value) ChangedSet() []string {
	var out []string
	for i, f := range v.typ.fields {
		if v.changed[i] {
			out = append(out, f.Name)
		}
	}
	return out
}

// ToMap returns every field, with nested structures converted to maps.
func (v *Value) ToMap() map[string]any {
	out := make(map[string]any, len(v.fields))
	for i, f := range v.typ.fields {
		if sub, ok := v.fields[i].(*Value); ok {
			out[f.Name] = sub.ToMap()
			continue
		}
		out[f.Name] = v.fields[i]
	}
	return out
}

// ChangedMap returns only assigned fields. A changed structure contributes the
// map of its own assigned fields, which may be empty.
func (v *Value) ChangedMap() map[string]any {
	out := make(map[string]any)
	for i, f := range v.typ.fields {
		if !v.changed[i] {
			continue
		}
		if sub, ok := v.fields[i].(*Value); ok {
			out[f.Name] = sub.ChangedMap()
			continue
		}
		out[f.Name] = v.fields[i]
	}
	return out
}

// MarshalJSON encodes all fields in type order.
func (v *Value) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, f := range v.typ.fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		key, _ := json.Marshal(f.Name)
		sb.Write(key)
		sb.WriteByte(':')
		data, err := json.Marshal(v.fields[i])
		if err != nil {
			return nil, fmt.Errorf("types: failed to encode field %q: %w", f.Name, err)
		}
		sb.Write(data)
	}
	sb.WriteByte('}')
	return []byte(sb.String()), nil
}

func (v *Value) assign(init map[string]any, prefix string) error {
	// Sorted so that the first reported failure is deterministic.
	keys := make([]string, 0, len(init))
	for k := range init {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := v.assignField(k, prefix, init[k]); err != nil {
			return err
		}
	}
	return nil
}

func (v *Value) assignField(name, prefix string, x any) error {
	path := prefix + name
	idx, ok := v.typ.index[name]
	if !ok {
		return unknownField(path)
	}
	ft := v.typ.fields[idx].Type

	switch ft.kind {
	case KindStruct:
		sub := v.fields[idx].(*Value)
		switch src := x.(type) {
		case map[string]any:
			if err := sub.assign(src, path+"."); err != nil {
				return err
			}
		case *Value:
			if src == nil || !src.typ.Equal(ft.st) {
				return mismatch(path, ft, x)
			}
			v.fields[idx] = src.clone()
		default:
			return mismatch(path, ft, x)
		}

	case KindArray:
		arr, bad, ok := convertArray(ft.code, x)
		if !ok {
			err := mismatch(path, ft, x)
			if bad >= 0 {
				err.Details["index"] = bad
			}
			return err
		}
		v.fields[idx] = arr

	default:
		s, ok := convertScalar(ft.code, x)
		if !ok {
			return mismatch(path, ft, x)
		}
		v.fields[idx] = s
	}

	v.changed[idx] = true
	return nil
}

func (v *Value) clone() *Value {
	cp := &Value{
		typ:     v.typ,
		fields:  make([]any, len(v.fields)),
		changed: make([]bool, len(v.changed)),
	}
	copy(cp.changed, v.changed)
	for i, x := range v.fields {
		if sub, ok := x.(*Value); ok {
			cp.fields[i] = sub.clone()
			continue
		}
		cp.fields[i] = x
	}
	return cp
}

func unknownField(path string) error {
	return merrors.NewConstructionError(merrors.CodeUnknownField,
		fmt.Sprintf("no field %q", path)).
		WithDetails(map[string]interface{}{"field": path})
}

func mismatch(path string, ft FieldType, x any) *merrors.MasarError {
	return merrors.NewConstructionError(merrors.CodeTypeMismatch,
		fmt.Sprintf("field %q: cannot assign %T to %s", path, x, ft)).
		WithDetails(map[string]interface{}{"field": path, "value": x})
}
