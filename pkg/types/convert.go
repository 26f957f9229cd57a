package types

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
)

// numeric holds a source number classified by its Go kind.
type numeric struct {
	class int // 0 signed, 1 unsigned, 2 float
	i     int64
	u     uint64
	f     float64
}

const (
	classSigned = iota
	classUnsigned
	classFloat
)

func classify(x any) (numeric, bool) {
	if n, ok := x.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return numeric{class: classSigned, i: i}, true
		}
		if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
			return numeric{class: classUnsigned, u: u}, true
		}
		if f, err := n.Float64(); err == nil {
			return numeric{class: classFloat, f: f}, true
		}
		return numeric{}, false
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return numeric{class: classSigned, i: rv.Int()}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return numeric{class: classUnsigned, u: rv.Uint()}, true
	case reflect.Float32, reflect.Float64:
		return numeric{class: classFloat, f: rv.Float()}, true
	}
	return numeric{}, false
}

func (n numeric) asInt(bits int) (int64, bool) {
	lo := int64(math.MinInt64) >> (64 - bits)
	hi := int64(math.MaxInt64) >> (64 - bits)
	switch n.class {
	case classSigned:
		return n.i, n.i >= lo && n.i <= hi
	case classUnsigned:
		return int64(n.u), n.u <= uint64(hi)
	default:
		if n.f != math.Trunc(n.f) || n.f < float64(lo) || n.f >= -float64(lo) {
			return 0, false
		}
		return int64(n.f), true
	}
}

func (n numeric) asUint(bits int) (uint64, bool) {
	hi := uint64(math.MaxUint64) >> (64 - bits)
	switch n.class {
	case classSigned:
		return uint64(n.i), n.i >= 0 && uint64(n.i) <= hi
	case classUnsigned:
		return n.u, n.u <= hi
	default:
		if n.f != math.Trunc(n.f) || n.f < 0 || n.f >= math.Ldexp(1, bits) {
			return 0, false
		}
		return uint64(n.f), true
	}
}

func (n numeric) asFloat() float64 {
	switch n.class {
	case classSigned:
		return float64(n.i)
	case classUnsigned:
		return float64(n.u)
	default:
		return n.f
	}
}

// convertScalar converts x to the Go representation of code c.
func convertScalar(c Code, x any) (any, bool) {
	switch c {
	case Bool:
		b, ok := x.(bool)
		return b, ok
	case String:
		s, ok := x.(string)
		return s, ok
	}

	n, ok := classify(x)
	if !ok {
		return nil, false
	}

	switch c {
	case Int8:
		v, ok := n.asInt(8)
		return int8(v), ok
	case Int16:
		v, ok := n.asInt(16)
		return int16(v), ok
	case Int32:
		v, ok := n.asInt(32)
		return int32(v), ok
	case Int64:
		v, ok := n.asInt(64)
		return v, ok
	case Uint8:
		v, ok := n.asUint(8)
		return uint8(v), ok
	case Uint16:
		v, ok := n.asUint(16)
		return uint16(v), ok
	case Uint32:
		v, ok := n.asUint(32)
		return uint32(v), ok
	case Uint64:
		v, ok := n.asUint(64)
		return v, ok
	case Float32:
		return float32(n.asFloat()), true
	case Float64:
		return n.asFloat(), true
	}
	return nil, false
}

// zeroScalar returns the default value for code c.
func zeroScalar(c Code) any {
	v, _ := convertScalar(c, zeroSource(c))
	return v
}

func zeroSource(c Code) any {
	switch c {
	case Bool:
		return false
	case String:
		return ""
	}
	return 0
}

// elemTypes maps a code to its Go element type for typed array storage.
var elemTypes = map[Code]reflect.Type{
	Bool:    reflect.TypeOf(false),
	Int8:    reflect.TypeOf(int8(0)),
	Uint8:   reflect.TypeOf(uint8(0)),
	Int16:   reflect.TypeOf(int16(0)),
	Uint16:  reflect.TypeOf(uint16(0)),
	Int32:   reflect.TypeOf(int32(0)),
	Uint32:  reflect.TypeOf(uint32(0)),
	Int64:   reflect.TypeOf(int64(0)),
	Uint64:  reflect.TypeOf(uint64(0)),
	Float32: reflect.TypeOf(float32(0)),
	Float64: reflect.TypeOf(float64(0)),
	String:  reflect.TypeOf(""),
}

// zeroArray returns an empty typed slice for code c, e.g. []int32{}.
func zeroArray(c Code) any {
	return reflect.MakeSlice(reflect.SliceOf(elemTypes[c]), 0, 0).Interface()
}

// convertArray converts any slice or array into a freshly allocated typed
// slice for code c. On failure it returns the index of the offending element.
func convertArray(c Code, x any) (any, int, bool) {
	// encoding/json writes []uint8 as base64.
	if s, ok := x.(string); ok && c == Uint8 {
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, -1, false
		}
		return b, -1, true
	}

	rv := reflect.ValueOf(x)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, -1, false
	}

	out := reflect.MakeSlice(reflect.SliceOf(elemTypes[c]), rv.Len(), rv.Len())
	for i := 0; i < rv.Len(); i++ {
		v, ok := convertScalar(c, rv.Index(i).Interface())
		if !ok {
			return nil, i, false
		}
		out.Index(i).Set(reflect.ValueOf(v))
	}
	return out.Interface(), -1, true
}
