package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestMasarError_Error(t *testing.T) {
	err := New(ErrCategoryLookup, CodeNotFound, "no such config")
	expected := "[LOOKUP:NOT_FOUND] no such config"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestMasarError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("database is locked")
	err := Wrap(ErrCategoryStore, CodeInsertFailed, "insert failed", cause)
	expected := "[STORE:INSERT_FAILED] insert failed: database is locked"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestMasarError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ErrCategoryStore, CodeQueryFailed, "query", cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should allow errors.Is to find the cause")
	}
}

func TestMasarError_Is(t *testing.T) {
	err1 := New(ErrCategoryConstruction, CodeTypeMismatch, "first")
	err2 := New(ErrCategoryConstruction, CodeTypeMismatch, "second")
	err3 := New(ErrCategoryConstruction, CodeUnknownField, "different code")

	if !errors.Is(err1, err2) {
		t.Error("errors with same category+code should match via Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match via Is")
	}
}

func TestCategorySentinels(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
		want     bool
	}{
		{NewSchemaError(CodeArrayColumn, "x"), ErrSchema, true},
		{NewConstructionError(CodeTypeMismatch, "x"), ErrConstruction, true},
		{NewLookupError(CodeMissingName, "x"), ErrLookup, true},
		{NewRangeError("x"), ErrRange, true},
		{NewStoreError(CodeQueryFailed, "x", nil), ErrStore, true},
		{NewRangeError("x"), ErrLookup, false},
		{fmt.Errorf("wrapped: %w", NewLookupError(CodeNotFound, "x")), ErrLookup, true},
		{fmt.Errorf("plain"), ErrStore, false},
	}

	for i, tt := range tests {
		if got := errors.Is(tt.err, tt.sentinel); got != tt.want {
			t.Errorf("case %d: errors.Is = %v, want %v", i, got, tt.want)
		}
	}
}

func TestGetCategory(t *testing.T) {
	err := NewRangeError("start after end")
	if GetCategory(err) != ErrCategoryRange {
		t.Errorf("got %q, want %q", GetCategory(err), ErrCategoryRange)
	}
	if GetCategory(fmt.Errorf("plain error")) != "" {
		t.Error("non-MasarError should return empty category")
	}
}

func TestGetCode(t *testing.T) {
	err := NewSchemaError(CodeArrayColumn, "array column")
	if GetCode(err) != CodeArrayColumn {
		t.Errorf("got %q, want %q", GetCode(err), CodeArrayColumn)
	}
	if GetCode(fmt.Errorf("plain error")) != "" {
		t.Error("non-MasarError should return empty code")
	}
}

func TestWithDetails(t *testing.T) {
	err := NewConstructionError(CodeTypeMismatch, "bad cell")
	detailed := err.WithDetails(map[string]interface{}{"row": 3})

	if detailed.Details["row"] != 3 {
		t.Error("WithDetails should set details")
	}
	if err.Details != nil {
		t.Error("WithDetails should not modify original")
	}
}
