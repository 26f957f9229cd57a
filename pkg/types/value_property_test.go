package types

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_IntegerAssignment checks that every int64 is accepted by an
// int32 field exactly when it fits in 32 bits, and is stored unchanged.
func TestProperty_IntegerAssignment(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	typ := MustNewType("p", []Field{{Name: "v", Type: ScalarOf(Int32)}})

	properties.Property("int32 fields accept exactly the int32 range", prop.ForAll(
		func(n int64) bool {
			v, err := NewValue(typ, map[string]any{"v": n})
			fits := n >= math.MinInt32 && n <= math.MaxInt32
			if !fits {
				return err != nil
			}
			got, _ := v.Get("v")
			return err == nil && got == int32(n)
		},
		gen.Int64Range(2*math.MinInt32, 2*math.MaxInt32),
	))

	properties.TestingRun(t)
}

// TestProperty_DescriptorNamesPreserved checks that a descriptor reports its
// fields in declaration order.
func TestProperty_DescriptorNamesPreserved(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Names returns declared order", prop.ForAll(
		func(n int) bool {
			fields := make([]Field, n)
			for i := range fields {
				fields[i] = Field{Name: string(rune('a'+i%26)) + string(rune('0'+i/26)), Type: ArrayOf(Float64)}
			}
			typ, err := NewType("p", fields)
			if err != nil {
				return false
			}
			names := typ.Names()
			for i, f := range fields {
				if names[i] != f.Name {
					return false
				}
			}
			return len(names) == n
		},
		gen.IntRange(0, 200),
	))

	properties.TestingRun(t)
}
