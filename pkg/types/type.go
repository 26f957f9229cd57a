package types

import (
	"fmt"
	"strings"

	"github.com/spaolacci/murmur3"

	merrors "github.com/masar/masar/internal/errors"
)

// Field is one named, typed member of a structure.
type Field struct {
	Name string
	Type FieldType
}

// Type is an immutable structure descriptor: an ordered list of uniquely named
// fields plus a global identifier. A Type may be shared between goroutines and
// reused to build any number of values.
type Type struct {
	id          string
	fields      []Field
	index       map[string]int
	spec        string
	fingerprint uint64
}

// reservedNameChars may not appear in field names: '.' separates path
// segments and the rest delimit the canonical form.
const reservedNameChars = ".:,{}"

// NewType builds a descriptor. The fields slice is copied.
func NewType(id string, fields []Field) (*Type, error) {
	t := &Type{
		id:     id,
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	copy(t.fields, fields)

	for i, f := range t.fields {
		if f.Name == "" || strings.ContainsAny(f.Name, reservedNameChars) {
			return nil, merrors.NewSchemaError(merrors.CodeInvalidField,
				fmt.Sprintf("invalid field name %q at position %d", f.Name, i))
		}
		if !f.Type.valid() {
			return nil, merrors.NewSchemaError(merrors.CodeInvalidField,
				fmt.Sprintf("field %q has an invalid type", f.Name))
		}
		if _, dup := t.index[f.Name]; dup {
			return nil, merrors.NewSchemaError(merrors.CodeDuplicateField,
				fmt.Sprintf("duplicate field %q", f.Name))
		}
		t.index[f.Name] = i
	}

	t.spec = t.buildSpec()
	t.fingerprint = murmur3.Sum64([]byte(t.spec))
	return t, nil
}

// MustNewType is like NewType but panics on error. It is meant for
// package-level descriptors whose fields are fixed.
func MustNewType(id string, fields []Field) *Type {
	t, err := NewType(id, fields)
	if err != nil {
		panic(err)
	}
	return t
}

// ID returns the global identifier, e.g. "epics:nt/NTScalar:1.0".
func (t *Type) ID() string {
	return t.id
}

// NumField returns the number of top-level fields.
func (t *Type) NumField() int {
	return len(t.fields)
}

// Fields returns a copy of the ordered field list.
func (t *Type) Fields() []Field {
	out := make([]Field, len(t.fields))
	copy(out, t.fields)
	return out
}

// Names returns the ordered field names.
func (t *Type) Names() []string {
	out := make([]string, len(t.fields))
	for i, f := range t.fields {
		out[i] = f.Name
	}
	return out
}

// Field looks up a top-level field by name.
func (t *Type) Field(name string) (Field, bool) {
	i, ok := t.index[name]
	if !ok {
		return Field{}, false
	}
	return t.fields[i], true
}

// String returns the canonical compact form of the descriptor.
func (t *Type) String() string {
	return t.spec
}

// Fingerprint returns a 64-bit murmur3 hash of the canonical form. Two
// descriptors with the same id and fields have the same fingerprint.
func (t *Type) Fingerprint() uint64 {
	return t.fingerprint
}

// Equal reports whether two descriptors are structurally identical.
func (t *Type) Equal(other *Type) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil {
		return false
	}
	return t.spec == other.spec
}

func (t *Type) buildSpec() string {
	var sb strings.Builder
	sb.WriteString(t.id)
	sb.WriteByte('{')
	for i, f := range t.fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(f.Name)
		sb.WriteByte(':')
		sb.WriteString(f.Type.Spec())
	}
	sb.WriteByte('}')
	return sb.String()
}
