package domain

import (
	"fmt"
	"strings"

	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

// byteWidths maps primitive bit widths to bytes consumed from the buffer.
var byteWidths = map[int]int{8: 1, 16: 2, 32: 4, 64: 8, 128: 16}

// PrimitiveWidth returns the number of bytes a primitive consumes.
func PrimitiveWidth(kind m.PrimitiveKind) int {
	return byteWidths[kind.Bits()]
}

// IsFixedLength reports whether every leaf has a constant width.
func IsFixedLength(f m.FuzzableType) bool {
	switch f := f.(type) {
	case m.RefSlice, m.RefStr:
		return false
	case m.FuzzableTuple:
		for _, elem := range f.Elems {
			if !IsFixedLength(elem) {
				return false
			}
		}

		return true
	case m.FuzzableStruct:
		for _, field := range f.Fields {
			if !IsFixedLength(field.Type) {
				return false
			}
		}

		return true
	default:
		return true
	}
}

// MinLength returns the fewest bytes a value of f can be decoded from.
func MinLength(f m.FuzzableType) int {
	switch f := f.(type) {
	case m.FuzzablePrimitive:
		return PrimitiveWidth(f.Kind)
	case m.RefSlice:
		return MinLength(f.Elem)
	case m.FuzzableTuple:
		total := 0
		for _, elem := range f.Elems {
			total += MinLength(elem)
		}

		return total
	case m.FuzzableStruct:
		total := 0
		for _, field := range f.Fields {
			total += MinLength(field.Type)
		}

		return total
	default:
		return 0
	}
}

// FixedPartLength returns the bytes taken by statically sized parts. Dynamic
// leaves contribute nothing.
func FixedPartLength(f m.FuzzableType) int {
	if IsFixedLength(f) {
		return MinLength(f)
	}

	switch f := f.(type) {
	case m.FuzzableTuple:
		total := 0
		for _, elem := range f.Elems {
			total += FixedPartLength(elem)
		}

		return total
	case m.FuzzableStruct:
		total := 0
		for _, field := range f.Fields {
			total += FixedPartLength(field.Type)
		}

		return total
	default:
		return 0
	}
}

// DynamicLengthCount returns how many length-prefixed segments f needs.
func DynamicLengthCount(f m.FuzzableType) int {
	if IsFixedLength(f) {
		return 0
	}

	switch f := f.(type) {
	case m.RefSlice, m.RefStr:
		return 1
	case m.FuzzableTuple:
		total := 0
		for _, elem := range f.Elems {
			total += DynamicLengthCount(elem)
		}

		return total
	case m.FuzzableStruct:
		total := 0
		for _, field := range f.Fields {
			total += DynamicLengthCount(field.Type)
		}

		return total
	default:
		return 0
	}
}

// IsMultipleDynamicLength reports shapes such as &[&str] or &[&[u8]] that
// need nested length-prefixed decoding.
func IsMultipleDynamicLength(f m.FuzzableType) bool {
	switch f := f.(type) {
	case m.RefSlice:
		return !IsFixedLength(f.Elem)
	case m.FuzzableTuple:
		for _, elem := range f.Elems {
			if IsMultipleDynamicLength(elem) {
				return true
			}
		}

		return false
	case m.FuzzableStruct:
		for _, field := range f.Fields {
			if IsMultipleDynamicLength(field.Type) {
				return true
			}
		}

		return false
	default:
		return false
	}
}

// FuzzableTypeString renders f for diagnostics and deduplication keys.
func FuzzableTypeString(f m.FuzzableType) string {
	switch f := f.(type) {
	case m.NoFuzzable:
		return "nofuzzable"
	case m.FuzzablePrimitive:
		return string(f.Kind)
	case m.RefSlice:
		return "&[" + FuzzableTypeString(f.Elem) + "]"
	case m.RefStr:
		return "&str"
	case m.FuzzableTuple:
		parts := make([]string, len(f.Elems))
		for i, elem := range f.Elems {
			parts[i] = FuzzableTypeString(elem)
		}

		return "(" + strings.Join(parts, ", ") + ")"
	case m.FuzzableStruct:
		return f.Name
	default:
		return fmt.Sprintf("<%T>", f)
	}
}

// LayoutSummary bundles every layout query of one fuzzable type.
type LayoutSummary struct {
	FixedLength     bool
	MinLength       int
	FixedPartLength int
	DynamicCount    int
	MultiDynamic    bool
}

// Layout runs all layout queries over f.
func Layout(f m.FuzzableType) LayoutSummary {
	return LayoutSummary{
		FixedLength:     IsFixedLength(f),
		MinLength:       MinLength(f),
		FixedPartLength: FixedPartLength(f),
		DynamicCount:    DynamicLengthCount(f),
		MultiDynamic:    IsMultipleDynamicLength(f),
	}
}
