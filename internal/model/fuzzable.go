package model

// CtorKind tells harness generation which construction syntax a struct takes.
type CtorKind int

const (
	// CtorFn is a tuple struct built positionally, S(a, b).
	CtorFn CtorKind = iota
	// CtorConst is a unit struct, S.
	CtorConst
	// CtorNone is a struct with named fields, S { a, b }.
	CtorNone
)

func (k CtorKind) String() string {
	switch k {
	case CtorFn:
		return "fn"
	case CtorConst:
		return "const"
	case CtorNone:
		return "none"
	default:
		return "unknown"
	}
}

// FuzzableCallType mirrors a declared Type one node per construct and records
// both whether a value can be built and how it is wrapped at the call site.
type FuzzableCallType interface {
	isFuzzableCallType()
}

// NoFuzzableNode absorbs: any tree containing it cannot be built.
type NoFuzzableNode struct{}

// PrimitiveNode is a scalar leaf.
type PrimitiveNode struct {
	Kind PrimitiveKind
}

// TupleNode requires every element to be buildable.
type TupleNode struct {
	Elems []FuzzableCallType
}

// SliceNode is [T]; only valid under a reference.
type SliceNode struct {
	Elem FuzzableCallType
}

// ArrayNode is [T; N]; never a valid final shape.
type ArrayNode struct {
	Elem FuzzableCallType
}

// ConstRawPointerNode is *const T. Pointee is kept for the cast expression.
type ConstRawPointerNode struct {
	Elem    FuzzableCallType
	Pointee Type
}

// MutRawPointerNode is *mut T.
type MutRawPointerNode struct {
	Elem    FuzzableCallType
	Pointee Type
}

// StrNode is a borrowed, non-static &str.
type StrNode struct{}

// BorrowedRefNode is &T.
type BorrowedRefNode struct {
	Elem FuzzableCallType
}

// MutBorrowedRefNode is &mut T.
type MutBorrowedRefNode struct {
	Elem FuzzableCallType
}

// ToOptionNode wraps the payload in Some.
type ToOptionNode struct {
	Elem FuzzableCallType
}

// StructNode is a plain struct built field by field.
type StructNode struct {
	Name   string
	Ctor   CtorKind
	Fields []FieldNode
}

// FieldNode is one named struct field.
type FieldNode struct {
	Name string
	Node FuzzableCallType
}

func (NoFuzzableNode) isFuzzableCallType()      {}
func (PrimitiveNode) isFuzzableCallType()       {}
func (TupleNode) isFuzzableCallType()           {}
func (SliceNode) isFuzzableCallType()           {}
func (ArrayNode) isFuzzableCallType()           {}
func (ConstRawPointerNode) isFuzzableCallType() {}
func (MutRawPointerNode) isFuzzableCallType()   {}
func (StrNode) isFuzzableCallType()             {}
func (BorrowedRefNode) isFuzzableCallType()     {}
func (MutBorrowedRefNode) isFuzzableCallType()  {}
func (ToOptionNode) isFuzzableCallType()        {}
func (StructNode) isFuzzableCallType()          {}

// IsFuzzableNode reports whether n is anything but NoFuzzableNode.
func IsFuzzableNode(n FuzzableCallType) bool {
	_, no := n.(NoFuzzableNode)
	return n != nil && !no
}

// FuzzableType is the value-construction schema: what bytes become, without
// call-site wrapping.
type FuzzableType interface {
	isFuzzableType()
}

// NoFuzzable cannot be built from bytes.
type NoFuzzable struct{}

// FuzzablePrimitive is a scalar decoded from a fixed number of bytes.
type FuzzablePrimitive struct {
	Kind PrimitiveKind
}

// RefSlice is a length-prefixed run of Elem values passed as &[Elem].
type RefSlice struct {
	Elem FuzzableType
}

// RefStr is a length-prefixed UTF-8 run passed as &str.
type RefStr struct{}

// FuzzableStruct is a struct whose fields are all directly buildable.
type FuzzableStruct struct {
	Name   string
	Ctor   CtorKind
	Fields []FuzzableField
}

// FuzzableField is one named field of a FuzzableStruct.
type FuzzableField struct {
	Name string
	Type FuzzableType
}

// FuzzableTuple is a tuple of directly buildable elements.
type FuzzableTuple struct {
	Elems []FuzzableType
}

func (NoFuzzable) isFuzzableType()        {}
func (FuzzablePrimitive) isFuzzableType() {}
func (RefSlice) isFuzzableType()          {}
func (RefStr) isFuzzableType()            {}
func (FuzzableStruct) isFuzzableType()    {}
func (FuzzableTuple) isFuzzableType()     {}

// IsFuzzable reports whether f is anything but NoFuzzable.
func IsFuzzable(f FuzzableType) bool {
	_, no := f.(NoFuzzable)
	return f != nil && !no
}

// Projection pairs the value schema of a parameter with its call adaptation.
type Projection struct {
	Fuzzable FuzzableType
	Call     CallType
}

// NotFuzzable is the absorbing projection.
func NotFuzzable() Projection {
	return Projection{Fuzzable: NoFuzzable{}, Call: NotCompatible{}}
}

// OK reports whether the projection produced a usable plan.
func (p Projection) OK() bool {
	_, incompatible := p.Call.(NotCompatible)
	return IsFuzzable(p.Fuzzable) && !incompatible
}
