// Package model defines the data structures shared by the fuzz planner.
package model

import (
	"fmt"
	"strings"
)

// PrimitiveKind names a built-in scalar type.
type PrimitiveKind string

const (
	I8    PrimitiveKind = "i8"
	I16   PrimitiveKind = "i16"
	I32   PrimitiveKind = "i32"
	I64   PrimitiveKind = "i64"
	I128  PrimitiveKind = "i128"
	Isize PrimitiveKind = "isize"
	U8    PrimitiveKind = "u8"
	U16   PrimitiveKind = "u16"
	U32   PrimitiveKind = "u32"
	U64   PrimitiveKind = "u64"
	U128  PrimitiveKind = "u128"
	Usize PrimitiveKind = "usize"
	F32   PrimitiveKind = "f32"
	F64   PrimitiveKind = "f64"
	Bool  PrimitiveKind = "bool"
	Char  PrimitiveKind = "char"
	Str   PrimitiveKind = "str"
)

var primitiveBits = map[PrimitiveKind]int{
	I8: 8, U8: 8, Bool: 8,
	I16: 16, U16: 16,
	I32: 32, U32: 32, F32: 32, Char: 32,
	I64: 64, U64: 64, F64: 64, Isize: 64, Usize: 64,
	I128: 128, U128: 128,
}

// Bits returns the storage width of a primitive. str has no fixed width and
// reports 0.
func (k PrimitiveKind) Bits() int {
	return primitiveBits[k]
}

// Valid reports whether k is one of the known primitive kinds.
func (k PrimitiveKind) Valid() bool {
	if k == Str {
		return true
	}

	_, ok := primitiveBits[k]

	return ok
}

// ParsePrimitiveKind resolves a primitive by its source spelling.
func ParsePrimitiveKind(name string) (PrimitiveKind, error) {
	kind := PrimitiveKind(strings.TrimSpace(name))
	if !kind.Valid() {
		return "", fmt.Errorf("unknown primitive %q", name)
	}

	return kind, nil
}

// StaticLifetime is the only lifetime with special meaning to the classifier.
const StaticLifetime = "'static"

// SelfTypeName is the receiver placeholder inside impl scopes.
const SelfTypeName = "Self"

// Type is a declared type as produced by the type-inspection collaborator.
// The variant set is closed.
type Type interface {
	isType()
}

// Primitive is a built-in scalar or str.
type Primitive struct {
	Kind PrimitiveKind
}

// PathType is a named type with generic arguments. It resolves to a struct,
// an enum or a container.
type PathType struct {
	Path Path
}

// Tuple is an ordered list of element types. The empty tuple is unit.
type Tuple struct {
	Elems []Type
}

// Slice is an unsized sequence [T].
type Slice struct {
	Elem Type
}

// Array is a fixed-size sequence [T; Len].
type Array struct {
	Elem Type
	Len  string
}

// RawPointer is *const T or *mut T.
type RawPointer struct {
	Mutable bool
	Elem    Type
}

// BorrowedRef is &'a T or &'a mut T. Lifetime is empty when elided.
type BorrowedRef struct {
	Lifetime string
	Mutable  bool
	Elem     Type
}

// Generic is an unsolved generic parameter, including Self.
type Generic struct {
	Name string
}

// QPath is an associated item projection <Self as Trait>::Name.
type QPath struct {
	Name     string
	SelfType Type
	Trait    *Path
}

// BareFunction is a fn pointer type.
type BareFunction struct {
	Inputs []Type
	Output Type
}

// DynTrait is a trait object.
type DynTrait struct {
	Traits []Path
}

// ImplTrait is an anonymous impl Trait type.
type ImplTrait struct {
	Bounds []Path
}

// Infer is the placeholder _.
type Infer struct{}

func (Primitive) isType()    {}
func (PathType) isType()     {}
func (Tuple) isType()        {}
func (Slice) isType()        {}
func (Array) isType()        {}
func (RawPointer) isType()   {}
func (BorrowedRef) isType()  {}
func (Generic) isType()      {}
func (QPath) isType()        {}
func (BareFunction) isType() {}
func (DynTrait) isType()     {}
func (ImplTrait) isType()    {}
func (Infer) isType()        {}

// IsSelfType reports whether t is the receiver placeholder.
func IsSelfType(t Type) bool {
	g, ok := t.(Generic)
	return ok && g.Name == SelfTypeName
}

// Path is a possibly generic reference to a named item.
type Path struct {
	// ID is the documentation-index identifier of the resolved item.
	ID       string
	Segments []PathSegment
}

// PathSegment is one ::-separated component of a path.
type PathSegment struct {
	Name string
	Args GenericArgs
}

// GenericArgs is either <A, B> or (A, B) -> C.
type GenericArgs struct {
	Parenthesized bool
	Args          []GenericArg
	Inputs        []Type
	Output        Type
}

// GenericArg is a single angle-bracketed argument. Exactly one field is set.
type GenericArg struct {
	Type     Type
	Lifetime string
	Const    string
}

// NewPath builds a path from ::-separated segment names, the last segment
// carrying args.
func NewPath(id, name string, args ...Type) Path {
	parts := strings.Split(name, "::")
	segments := make([]PathSegment, len(parts))

	for i, part := range parts {
		segments[i] = PathSegment{Name: part}
	}

	if len(args) > 0 {
		generic := make([]GenericArg, len(args))
		for i, arg := range args {
			generic[i] = GenericArg{Type: arg}
		}

		segments[len(segments)-1].Args = GenericArgs{Args: generic}
	}

	return Path{ID: id, Segments: segments}
}

// Name returns the ::-joined segment names without arguments.
func (p Path) Name() string {
	names := make([]string, len(p.Segments))
	for i, seg := range p.Segments {
		names[i] = seg.Name
	}

	return strings.Join(names, "::")
}

// LastArgs returns the generic args of the last segment.
func (p Path) LastArgs() GenericArgs {
	if len(p.Segments) == 0 {
		return GenericArgs{}
	}

	return p.Segments[len(p.Segments)-1].Args
}

// IsParenthesized reports whether any segment uses (A) -> B argument syntax.
func (p Path) IsParenthesized() bool {
	for _, seg := range p.Segments {
		if seg.Args.Parenthesized {
			return true
		}
	}

	return false
}

// String renders the path in source syntax.
func (p Path) String() string {
	var b strings.Builder

	for i, seg := range p.Segments {
		if i > 0 {
			b.WriteString("::")
		}

		b.WriteString(seg.Name)
		seg.Args.write(&b)
	}

	return b.String()
}

func (a GenericArgs) write(b *strings.Builder) {
	if a.Parenthesized {
		b.WriteString("(")
		writeTypeList(b, a.Inputs)
		b.WriteString(")")

		if a.Output != nil {
			b.WriteString(" -> ")
			b.WriteString(TypeString(a.Output))
		}

		return
	}

	if len(a.Args) == 0 {
		return
	}

	b.WriteString("<")

	for i, arg := range a.Args {
		if i > 0 {
			b.WriteString(", ")
		}

		switch {
		case arg.Type != nil:
			b.WriteString(TypeString(arg.Type))
		case arg.Lifetime != "":
			b.WriteString(arg.Lifetime)
		default:
			b.WriteString(arg.Const)
		}
	}

	b.WriteString(">")
}

func writeTypeList(b *strings.Builder, types []Type) {
	for i, t := range types {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString(TypeString(t))
	}
}

// TypeString renders t in source syntax. It is used for diagnostics, cache
// keys and structural comparison.
func TypeString(t Type) string {
	var b strings.Builder

	writeType(&b, t)

	return b.String()
}

//nolint:cyclop // One case per type variant.
func writeType(b *strings.Builder, t Type) {
	switch t := t.(type) {
	case Primitive:
		b.WriteString(string(t.Kind))
	case PathType:
		b.WriteString(t.Path.String())
	case Tuple:
		b.WriteString("(")
		writeTypeList(b, t.Elems)

		if len(t.Elems) == 1 {
			b.WriteString(",")
		}

		b.WriteString(")")
	case Slice:
		b.WriteString("[")
		writeType(b, t.Elem)
		b.WriteString("]")
	case Array:
		b.WriteString("[")
		writeType(b, t.Elem)
		b.WriteString("; ")
		b.WriteString(t.Len)
		b.WriteString("]")
	case RawPointer:
		if t.Mutable {
			b.WriteString("*mut ")
		} else {
			b.WriteString("*const ")
		}

		writeType(b, t.Elem)
	case BorrowedRef:
		b.WriteString("&")

		if t.Lifetime != "" {
			b.WriteString(t.Lifetime)
			b.WriteString(" ")
		}

		if t.Mutable {
			b.WriteString("mut ")
		}

		writeType(b, t.Elem)
	case Generic:
		b.WriteString(t.Name)
	case QPath:
		b.WriteString("<")
		writeType(b, t.SelfType)

		if t.Trait != nil {
			b.WriteString(" as ")
			b.WriteString(t.Trait.String())
		}

		b.WriteString(">::")
		b.WriteString(t.Name)
	case BareFunction:
		b.WriteString("fn(")
		writeTypeList(b, t.Inputs)
		b.WriteString(")")

		if t.Output != nil {
			b.WriteString(" -> ")
			writeType(b, t.Output)
		}
	case DynTrait:
		b.WriteString("dyn ")
		writePathList(b, t.Traits)
	case ImplTrait:
		b.WriteString("impl ")
		writePathList(b, t.Bounds)
	case Infer:
		b.WriteString("_")
	case nil:
		b.WriteString("<nil>")
	default:
		fmt.Fprintf(b, "<%T>", t)
	}
}

func writePathList(b *strings.Builder, paths []Path) {
	for i, p := range paths {
		if i > 0 {
			b.WriteString(" + ")
		}

		b.WriteString(p.String())
	}
}

// BoundsString renders a bound list as A + B.
func BoundsString(bounds []Path) string {
	var b strings.Builder

	writePathList(&b, bounds)

	return b.String()
}
