// Package types provides the structural type descriptors and value instances
// used to build normative records for the process-data protocol.
package types

import (
	"fmt"

	merrors "github.com/masar/masar/internal/errors"
)

// Code identifies a primitive element type. The byte values follow the compact
// type-code convention of the protocol ('d' for double, 'ai' for int array, ...).
type Code byte

const (
	Bool    Code = '?'
	Int8    Code = 'b'
	Uint8   Code = 'B'
	Int16   Code = 'h'
	Uint16  Code = 'H'
	Int32   Code = 'i'
	Uint32  Code = 'I'
	Int64   Code = 'l'
	Uint64  Code = 'L'
	Float32 Code = 'f'
	Float64 Code = 'd'
	String  Code = 's'
)

var codeNames = map[Code]string{
	Bool:    "bool",
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Int64:   "int64",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
	String:  "string",
}

// Valid reports whether c is a known primitive code.
func (c Code) Valid() bool {
	_, ok := codeNames[c]
	return ok
}

// String returns the Go-style name of the code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%q)", byte(c))
}

// Kind distinguishes scalar, array and structure field types.
type Kind uint8

const (
	KindScalar Kind = iota
	KindArray
	KindStruct
)

// FieldType is the declared type of one field: a primitive, an array of a
// primitive, or a nested structure.
type FieldType struct {
	kind Kind
	code Code
	st   *Type
}

// ScalarOf returns the field type for a single primitive value.
func ScalarOf(c Code) FieldType {
	return FieldType{kind: KindScalar, code: c}
}

// ArrayOf returns the field type for an array of primitive values.
func ArrayOf(c Code) FieldType {
	return FieldType{kind: KindArray, code: c}
}

// StructOf returns the field type for a nested structure.
func StructOf(t *Type) FieldType {
	return FieldType{kind: KindStruct, st: t}
}

// Kind reports whether the field is a scalar, an array or a structure.
func (f FieldType) Kind() Kind {
	return f.kind
}

// Code returns the element code. It is zero for structures.
func (f FieldType) Code() Code {
	return f.code
}

// IsArray reports whether the field holds an array of primitives.
func (f FieldType) IsArray() bool {
	return f.kind == KindArray
}

// IsStruct reports whether the field holds a nested structure.
func (f FieldType) IsStruct() bool {
	return f.kind == KindStruct
}

// Struct returns the nested structure type, or nil for primitives and arrays.
func (f FieldType) Struct() *Type {
	return f.st
}

func (f FieldType) valid() bool {
	switch f.kind {
	case KindScalar, KindArray:
		return f.code.Valid()
	case KindStruct:
		return f.st != nil
	}
	return false
}

// Spec returns the compact code form: "d", "ai", or "S{...}" for structures.
func (f FieldType) Spec() string {
	switch f.kind {
	case KindArray:
		return "a" + string(rune(f.code))
	case KindStruct:
		if f.st == nil {
			return "S{}"
		}
		return "S" + f.st.String()
	default:
		return string(rune(f.code))
	}
}

// String returns a readable form used in error messages.
func (f FieldType) String() string {
	switch f.kind {
	case KindArray:
		return f.code.String() + "[]"
	case KindStruct:
		if f.st == nil || f.st.ID() == "" {
			return "struct"
		}
		return "struct " + f.st.ID()
	default:
		return f.code.String()
	}
}

// ParseFieldType parses a compact primitive or array code such as "d" or "as".
// Structures cannot be expressed in this form.
func ParseFieldType(s string) (FieldType, error) {
	switch {
	case len(s) == 1 && Code(s[0]).Valid():
		return ScalarOf(Code(s[0])), nil
	case len(s) == 2 && s[0] == 'a' && Code(s[1]).Valid():
		return ArrayOf(Code(s[1])), nil
	}
	return FieldType{}, merrors.NewSchemaError(merrors.CodeInvalidField,
		fmt.Sprintf("invalid type code %q", s))
}
