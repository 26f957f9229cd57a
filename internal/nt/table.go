package nt

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	merrors "github.com/masar/masar/internal/errors"
	"github.com/masar/masar/pkg/types"
)

// Column declares one table column. Type must be a scalar element type; the
// table stores each column as an array of it.
type Column struct {
	Label string
	Type  types.FieldType
}

// ParseColumns parses a column list of the form "label:code,label:code",
// for example "x:d,name:s".
func ParseColumns(s string) ([]Column, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var cols []Column
	for _, part := range strings.Split(s, ",") {
		label, code, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok || label == "" {
			return nil, merrors.NewSchemaError(merrors.CodeInvalidField,
				fmt.Sprintf("invalid column %q (want label:code)", part))
		}
		ft, err := types.ParseFieldType(code)
		if err != nil {
			return nil, err
		}
		cols = append(cols, Column{Label: label, Type: ft})
	}
	return cols, nil
}

// BuildTableType returns the NTTable descriptor for columns. Each column
// becomes an array field of the value structure. Array or structure element
// types are rejected.
func BuildTableType(columns []Column, extra ...types.Field) (*types.Type, error) {
	valueFields := make([]types.Field, 0, len(columns))
	for i, c := range columns {
		switch {
		case c.Type.IsArray():
			return nil, merrors.NewSchemaError(merrors.CodeArrayColumn,
				"table columns must be scalar-element, not array-element").
				WithDetails(map[string]interface{}{"column": c.Label, "position": i})
		case c.Type.IsStruct():
			return nil, merrors.NewSchemaError(merrors.CodeInvalidField,
				fmt.Sprintf("table column %q must be scalar-element, not a structure", c.Label)).
				WithDetails(map[string]interface{}{"column": c.Label, "position": i})
		}
		valueFields = append(valueFields, types.Field{Name: c.Label, Type: types.ArrayOf(c.Type.Code())})
	}

	valueType, err := types.NewType("", valueFields)
	if err != nil {
		return nil, err
	}

	fields := []types.Field{
		{Name: "labels", Type: types.ArrayOf(types.String)},
		{Name: "value", Type: types.StructOf(valueType)},
		{Name: "descriptor", Type: types.ScalarOf(types.String)},
		alarmField(),
		timeStampField(),
	}
	return types.NewType(TableID, append(fields, extra...))
}

// Table builds NTTable values from row-oriented input.
type Table struct {
	typ    *types.Type
	labels []string
	strict bool
}

// NewTable creates a table builder for columns.
func NewTable(columns []Column, opts ...Option) (*Table, error) {
	o := buildOptions(opts)
	t, err := BuildTableType(columns, o.extra...)
	if err != nil {
		return nil, err
	}

	labels := make([]string, len(columns))
	for i, c := range columns {
		labels[i] = c.Label
	}
	return &Table{typ: t, labels: labels, strict: o.strict}, nil
}

// Type returns the descriptor.
func (t *Table) Type() *types.Type {
	return t.typ
}

// Labels returns the declared column labels in order.
func (t *Table) Labels() []string {
	out := make([]string, len(t.labels))
	copy(out, t.labels)
	return out
}

// Wrap transposes rows into columns. A row may omit any label; its cell is
// skipped rather than padded, so columns can end up with different lengths.
// Columns that received no cells are left out of the value structure but stay
// in labels. In strict mode a row missing a non-empty column is an error.
func (t *Table) Wrap(rows []map[string]any) (*types.Value, error) {
	cols := make(map[string][]any, len(t.labels))
	origin := make(map[string][]int, len(t.labels))
	for _, l := range t.labels {
		cols[l] = []any{}
	}

	for i, row := range rows {
		for _, l := range t.labels {
			cell, ok := row[l]
			if !ok {
				continue
			}
			cols[l] = append(cols[l], cell)
			origin[l] = append(origin[l], i)
		}
	}

	value := make(map[string]any, len(t.labels))
	for _, l := range t.labels {
		if len(cols[l]) == 0 {
			continue
		}
		if t.strict && len(cols[l]) != len(rows) {
			err := merrors.NewConstructionError(merrors.CodeMisalignedRows,
				fmt.Sprintf("column %q has %d cells for %d rows", l, len(cols[l]), len(rows))).
				WithDetails(map[string]interface{}{"column": l, "row": firstGap(origin[l])})
			t.logFailure(rows, err)
			return nil, err
		}
		value[l] = cols[l]
	}

	labels := make([]string, len(t.labels))
	copy(labels, t.labels)

	v, err := types.NewValue(t.typ, map[string]any{
		"labels": labels,
		"value":  value,
	})
	if err != nil {
		err = locateCell(err, origin)
		t.logFailure(rows, err)
		return nil, err
	}
	return v, nil
}

// firstGap returns the first row index absent from the ascending list idx.
func firstGap(idx []int) int {
	for i, r := range idx {
		if r != i {
			return i
		}
	}
	return len(idx)
}

// locateCell adds the column and originating row index to a construction
// error raised for a cell of the value structure.
func locateCell(err error, origin map[string][]int) error {
	var me *merrors.MasarError
	if !errors.As(err, &me) {
		return err
	}
	field, _ := me.Details["field"].(string)
	column, ok := strings.CutPrefix(field, "value.")
	if !ok {
		return err
	}

	details := make(map[string]interface{}, len(me.Details)+2)
	for k, v := range me.Details {
		details[k] = v
	}
	details["column"] = column
	if k, ok := me.Details["index"].(int); ok && k < len(origin[column]) {
		details["row"] = origin[column][k]
	}
	return me.WithDetails(details)
}

func (t *Table) logFailure(rows []map[string]any, err error) {
	if len(rows) > 0 {
		keys := make([]string, 0, len(rows[0]))
		for k := range rows[0] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		log.Printf("nt: first row columns %v", keys)
	}
	log.Printf("nt: failed to wrap %d rows with labels %v: %v", len(rows), t.labels, err)
}
