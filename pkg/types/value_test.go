package types

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"

	merrors "github.com/masar/masar/internal/errors"
)

func testType(t *testing.T) *Type {
	t.Helper()
	inner, err := NewType("time_t", []Field{
		{Name: "secondsPastEpoch", Type: ScalarOf(Int64)},
		{Name: "nanoseconds", Type: ScalarOf(Int32)},
	})
	if err != nil {
		t.Fatalf("failed to build inner type: %v", err)
	}
	typ, err := NewType("test:1.0", []Field{
		{Name: "value", Type: ScalarOf(Float64)},
		{Name: "names", Type: ArrayOf(String)},
		{Name: "count", Type: ScalarOf(Uint8)},
		{Name: "timeStamp", Type: StructOf(inner)},
	})
	if err != nil {
		t.Fatalf("failed to build type: %v", err)
	}
	return typ
}

func TestNewType_RejectsDuplicateField(t *testing.T) {
	_, err := NewType("dup", []Field{
		{Name: "a", Type: ScalarOf(Int32)},
		{Name: "a", Type: ScalarOf(String)},
	})
	if merrors.GetCode(err) != merrors.CodeDuplicateField {
		t.Fatalf("expected DUPLICATE_FIELD, got %v", err)
	}
}

func TestNewType_RejectsInvalidFieldType(t *testing.T) {
	_, err := NewType("bad", []Field{{Name: "a", Type: ScalarOf(Code('z'))}})
	if !errors.Is(err, merrors.ErrSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
	_, err = NewType("bad", []Field{{Name: "a", Type: StructOf(nil)}})
	if !errors.Is(err, merrors.ErrSchema) {
		t.Fatalf("expected schema error for nil struct, got %v", err)
	}
}

func TestNewType_CopiesFields(t *testing.T) {
	fields := []Field{{Name: "a", Type: ScalarOf(Int32)}}
	typ := MustNewType("copy", fields)
	fields[0].Name = "mutated"

	if _, ok := typ.Field("a"); !ok {
		t.Fatal("descriptor should not observe caller mutation")
	}
	got := typ.Fields()
	got[0].Name = "mutated"
	if typ.Names()[0] != "a" {
		t.Fatal("Fields should return a copy")
	}
}

func TestType_Fingerprint(t *testing.T) {
	a := testType(t)
	b := testType(t)
	if a.Fingerprint() != b.Fingerprint() || !a.Equal(b) {
		t.Error("identical descriptors should share a fingerprint")
	}

	c := MustNewType("test:1.0", []Field{{Name: "value", Type: ScalarOf(Float32)}})
	if a.Fingerprint() == c.Fingerprint() || a.Equal(c) {
		t.Error("different descriptors should differ")
	}
}

func TestParseFieldType(t *testing.T) {
	tests := []struct {
		in    string
		array bool
		code  Code
		ok    bool
	}{
		{"d", false, Float64, true},
		{"ai", true, Int32, true},
		{"as", true, String, true},
		{"a?", true, Bool, true},
		{"", false, 0, false},
		{"aa", false, 0, false},
		{"x", false, 0, false},
		{"aid", false, 0, false},
	}

	for _, tt := range tests {
		ft, err := ParseFieldType(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseFieldType(%q) err=%v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if !tt.ok {
			continue
		}
		if ft.IsArray() != tt.array || ft.Code() != tt.code {
			t.Errorf("ParseFieldType(%q) = %s", tt.in, ft)
		}
		if ft.Spec() != tt.in {
			t.Errorf("Spec() = %q, want %q", ft.Spec(), tt.in)
		}
	}
}

func TestNewValue_Defaults(t *testing.T) {
	v, err := NewValue(testType(t), nil)
	if err != nil {
		t.Fatalf("NewValue failed: %v", err)
	}

	if got, _ := v.Get("value"); got != float64(0) {
		t.Errorf("value default = %v", got)
	}
	if got, _ := v.Get("names"); !reflect.DeepEqual(got, []string{}) {
		t.Errorf("names default = %#v", got)
	}
	if got, _ := v.Get("timeStamp.nanoseconds"); got != int32(0) {
		t.Errorf("nanoseconds default = %#v", got)
	}
	if len(v.ChangedSet()) != 0 {
		t.Errorf("no field should be changed, got %v", v.ChangedSet())
	}
}

func TestNewValue_Assignment(t *testing.T) {
	v, err := NewValue(testType(t), map[string]any{
		"value":     5,
		"names":     []any{"a", "b"},
		"timeStamp": map[string]any{"secondsPastEpoch": 100},
	})
	if err != nil {
		t.Fatalf("NewValue failed: %v", err)
	}

	if got, _ := v.Get("value"); got != float64(5) {
		t.Errorf("value = %#v", got)
	}
	if got, _ := v.Get("names"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("names = %#v", got)
	}
	if got, _ := v.Get("timeStamp.secondsPastEpoch"); got != int64(100) {
		t.Errorf("secondsPastEpoch = %#v", got)
	}

	want := map[string]any{
		"value":     float64(5),
		"names":     []string{"a", "b"},
		"timeStamp": map[string]any{"secondsPastEpoch": int64(100)},
	}
	if got := v.ChangedMap(); !reflect.DeepEqual(got, want) {
		t.Errorf("ChangedMap = %#v, want %#v", got, want)
	}
	if !reflect.DeepEqual(v.ChangedSet(), []string{"value", "names", "timeStamp"}) {
		t.Errorf("ChangedSet = %v", v.ChangedSet())
	}
}

func TestNewValue_Failures(t *testing.T) {
	typ := testType(t)
	tests := []struct {
		name string
		init map[string]any
		code string
	}{
		{"unknown field", map[string]any{"nope": 1}, merrors.CodeUnknownField},
		{"unknown nested field", map[string]any{"timeStamp": map[string]any{"nope": 1}}, merrors.CodeUnknownField},
		{"string into double", map[string]any{"value": "x"}, merrors.CodeTypeMismatch},
		{"number into string array", map[string]any{"names": []any{"a", 1}}, merrors.CodeTypeMismatch},
		{"scalar into array", map[string]any{"names": "a"}, merrors.CodeTypeMismatch},
		{"overflow uint8", map[string]any{"count": 256}, merrors.CodeTypeMismatch},
		{"negative uint8", map[string]any{"count": -1}, merrors.CodeTypeMismatch},
		{"fractional into int", map[string]any{"timeStamp": map[string]any{"nanoseconds": 1.5}}, merrors.CodeTypeMismatch},
		{"scalar into struct", map[string]any{"timeStamp": 3}, merrors.CodeTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewValue(typ, tt.init)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, merrors.ErrConstruction) {
				t.Fatalf("expected construction error, got %v", err)
			}
			if merrors.GetCode(err) != tt.code {
				t.Fatalf("code = %s, want %s", merrors.GetCode(err), tt.code)
			}
		})
	}
}

func TestNewValue_ArrayMismatchIndex(t *testing.T) {
	_, err := NewValue(testType(t), map[string]any{"names": []any{"a", "b", 3}})
	var me *merrors.MasarError
	if !errors.As(err, &me) {
		t.Fatalf("expected MasarError, got %v", err)
	}
	if me.Details["index"] != 2 || me.Details["field"] != "names" {
		t.Errorf("details = %v", me.Details)
	}
}

func TestValue_SetAndStructCopy(t *testing.T) {
	typ := testType(t)
	v, _ := NewValue(typ, nil)

	if err := v.Set("timeStamp.nanoseconds", 7); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !v.Changed("timeStamp") {
		t.Error("parent structure should be marked changed")
	}
	if err := v.Set("value.x", 1); err == nil {
		t.Error("Set through a scalar should fail")
	}

	inner, _ := v.Get("timeStamp")
	other, err := NewValue(typ, map[string]any{"timeStamp": inner})
	if err != nil {
		t.Fatalf("assigning *Value failed: %v", err)
	}
	if got, _ := other.Get("timeStamp.nanoseconds"); got != int32(7) {
		t.Errorf("copied nanoseconds = %#v", got)
	}
	_ = v.Set("timeStamp.nanoseconds", 9)
	if got, _ := other.Get("timeStamp.nanoseconds"); got != int32(7) {
		t.Error("struct assignment should copy, not alias")
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	v, _ := NewValue(testType(t), map[string]any{"value": 1.5, "names": []string{"x"}})
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"value":1.5,"names":["x"],"count":0,"timeStamp":{"secondsPastEpoch":0,"nanoseconds":0}}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestNewValue_JSONNumber(t *testing.T) {
	v, err := NewValue(testType(t), map[string]any{
		"value": json.Number("2.5"),
		"count": json.Number("200"),
	})
	if err != nil {
		t.Fatalf("NewValue failed: %v", err)
	}
	if got, _ := v.Get("count"); got != uint8(200) {
		t.Errorf("count = %#v", got)
	}
}

func TestNewType_RejectsReservedNameCharacters(t *testing.T) {
	for _, name := range []string{"a.b", "a:d,b", "x{", "y}"} {
		_, err := NewType("x", []Field{{Name: name, Type: ScalarOf(Float64)}})
		if merrors.GetCode(err) != merrors.CodeInvalidField {
			t.Errorf("NewType(%q): expected INVALID_FIELD, got %v", name, err)
		}
	}

	// Distinct field lists must not collapse to the same canonical form.
	a, err := NewType("x", []Field{{Name: "a", Type: ScalarOf(Float64)}, {Name: "b", Type: ScalarOf(Float64)}})
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewType("x", []Field{{Name: "ab", Type: ScalarOf(Float64)}})
	if err != nil {
		t.Fatal(err)
	}
	if a.Equal(b) || a.Fingerprint() == b.Fingerprint() {
		t.Error("different descriptors reported equal")
	}
}

func TestValue_SetFailureLeavesParentUnchanged(t *testing.T) {
	v, _ := NewValue(testType(t), nil)

	if err := v.Set("timeStamp.nanoseconds", "bad"); err == nil {
		t.Fatal("expected type mismatch")
	}
	if v.Changed("timeStamp") {
		t.Error("failed Set marked the parent structure changed")
	}
	if got := v.ChangedMap(); len(got) != 0 {
		t.Errorf("ChangedMap() = %v, want empty", got)
	}

	if err := v.Set("timeStamp.missing", 1); err == nil {
		t.Fatal("expected unknown field")
	}
	if v.Changed("timeStamp") {
		t.Error("unknown leaf marked the parent structure changed")
	}
}

func TestNewValue_JSONNumberUint64(t *testing.T) {
	typ, err := NewType("u", []Field{
		{Name: "u", Type: ScalarOf(Uint64)},
		{Name: "us", Type: ArrayOf(Uint64)},
	})
	if err != nil {
		t.Fatal(err)
	}

	v, err := NewValue(typ, map[string]any{
		"u":  json.Number("18446744073709551615"),
		"us": []any{json.Number("9223372036854775809"), json.Number("1")},
	})
	if err != nil {
		t.Fatalf("NewValue failed: %v", err)
	}
	if got, _ := v.Get("u"); got != uint64(math.MaxUint64) {
		t.Errorf("u = %#v", got)
	}
	if got, _ := v.Get("us"); !reflect.DeepEqual(got, []uint64{1<<63 + 1, 1}) {
		t.Errorf("us = %#v", got)
	}

	if _, err := NewValue(typ, map[string]any{"u": json.Number("18446744073709551616")}); err == nil {
		t.Error("expected overflow to be rejected")
	}
}
