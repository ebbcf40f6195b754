package model

import "fmt"

// CallType is the adaptation that turns a constructed value into the
// expression a call site expects. Outer layers apply after inner ones.
type CallType interface {
	// Apply renders the call-site expression for a value expression.
	Apply(expr string) string
	String() string
	isCallType()
}

type (
	// DirectCall passes the value as is.
	DirectCall struct{}
	// BorrowedRefCall passes &inner.
	BorrowedRefCall struct{ Inner CallType }
	// MutBorrowedRefCall passes &mut inner.
	MutBorrowedRefCall struct{ Inner CallType }
	// ConstRawPointerCall casts &inner to *const Pointee.
	ConstRawPointerCall struct {
		Inner   CallType
		Pointee Type
	}
	// MutRawPointerCall casts &mut inner to *mut Pointee.
	MutRawPointerCall struct {
		Inner   CallType
		Pointee Type
	}
	// ToOptionCall wraps inner in Some.
	ToOptionCall struct{ Inner CallType }
	// ToResultCall wraps inner in Ok.
	ToResultCall struct{ Inner CallType }
	// UnwrapOptionCall unwraps an optional value, exiting the harness on None.
	UnwrapOptionCall struct{ Inner CallType }
	// UnwrapResultCall unwraps a fallible value, exiting the harness on Err.
	UnwrapResultCall struct{ Inner CallType }
	// DerefCall dereferences inner.
	DerefCall struct{ Inner CallType }
	// UnsafeDerefCall dereferences a raw pointer inside an unsafe block.
	UnsafeDerefCall struct{ Inner CallType }
	// AsConvertCall casts inner with as.
	AsConvertCall struct {
		Inner  CallType
		Target string
	}
	// NotCompatible absorbs: no expression can be produced.
	NotCompatible struct{}
)

func (DirectCall) isCallType()          {}
func (BorrowedRefCall) isCallType()     {}
func (MutBorrowedRefCall) isCallType()  {}
func (ConstRawPointerCall) isCallType() {}
func (MutRawPointerCall) isCallType()   {}
func (ToOptionCall) isCallType()        {}
func (ToResultCall) isCallType()        {}
func (UnwrapOptionCall) isCallType()    {}
func (UnwrapResultCall) isCallType()    {}
func (DerefCall) isCallType()           {}
func (UnsafeDerefCall) isCallType()     {}
func (AsConvertCall) isCallType()       {}
func (NotCompatible) isCallType()       {}

func (DirectCall) Apply(expr string) string { return expr }
func (c BorrowedRefCall) Apply(expr string) string {
	return "&" + c.Inner.Apply(expr)
}
func (c MutBorrowedRefCall) Apply(expr string) string {
	return "&mut " + c.Inner.Apply(expr)
}
func (c ConstRawPointerCall) Apply(expr string) string {
	return fmt.Sprintf("&(%s) as *const %s", c.Inner.Apply(expr), TypeString(c.Pointee))
}
func (c MutRawPointerCall) Apply(expr string) string {
	return fmt.Sprintf("&mut (%s) as *mut %s", c.Inner.Apply(expr), TypeString(c.Pointee))
}
func (c ToOptionCall) Apply(expr string) string {
	return "Some(" + c.Inner.Apply(expr) + ")"
}
func (c ToResultCall) Apply(expr string) string {
	return "Ok(" + c.Inner.Apply(expr) + ")"
}
func (c UnwrapOptionCall) Apply(expr string) string {
	return "_unwrap_option(" + c.Inner.Apply(expr) + ")"
}
func (c UnwrapResultCall) Apply(expr string) string {
	return "_unwrap_result(" + c.Inner.Apply(expr) + ")"
}
func (c DerefCall) Apply(expr string) string {
	return "*" + c.Inner.Apply(expr)
}
func (c UnsafeDerefCall) Apply(expr string) string {
	return "unsafe {*" + c.Inner.Apply(expr) + "}"
}
func (c AsConvertCall) Apply(expr string) string {
	return c.Inner.Apply(expr) + " as " + c.Target
}

// Apply on NotCompatible returns the expression untouched; callers must check
// compatibility first.
func (NotCompatible) Apply(expr string) string { return expr }

func (DirectCall) String() string            { return "DirectCall" }
func (c BorrowedRefCall) String() string     { return "BorrowedRef(" + c.Inner.String() + ")" }
func (c MutBorrowedRefCall) String() string  { return "MutBorrowedRef(" + c.Inner.String() + ")" }
func (c ConstRawPointerCall) String() string { return "ConstRawPointer(" + c.Inner.String() + ", " + TypeString(c.Pointee) + ")" }
func (c MutRawPointerCall) String() string   { return "MutRawPointer(" + c.Inner.String() + ", " + TypeString(c.Pointee) + ")" }
func (c ToOptionCall) String() string        { return "ToOption(" + c.Inner.String() + ")" }
func (c ToResultCall) String() string        { return "ToResult(" + c.Inner.String() + ")" }
func (c UnwrapOptionCall) String() string    { return "UnwrapOption(" + c.Inner.String() + ")" }
func (c UnwrapResultCall) String() string    { return "UnwrapResult(" + c.Inner.String() + ")" }
func (c DerefCall) String() string           { return "Deref(" + c.Inner.String() + ")" }
func (c UnsafeDerefCall) String() string     { return "UnsafeDeref(" + c.Inner.String() + ")" }
func (c AsConvertCall) String() string       { return "AsConvert(" + c.Inner.String() + ", " + c.Target + ")" }
func (NotCompatible) String() string         { return "NotCompatible" }

// IsDirect reports whether c is DirectCall.
func IsDirect(c CallType) bool {
	_, ok := c.(DirectCall)
	return ok
}

// IsCompatible reports whether c is anything but NotCompatible.
func IsCompatible(c CallType) bool {
	_, no := c.(NotCompatible)
	return c != nil && !no
}

// InnerCall returns the wrapped call type, or nil for leaves.
func InnerCall(c CallType) CallType {
	switch c := c.(type) {
	case BorrowedRefCall:
		return c.Inner
	case MutBorrowedRefCall:
		return c.Inner
	case ConstRawPointerCall:
		return c.Inner
	case MutRawPointerCall:
		return c.Inner
	case ToOptionCall:
		return c.Inner
	case ToResultCall:
		return c.Inner
	case UnwrapOptionCall:
		return c.Inner
	case UnwrapResultCall:
		return c.Inner
	case DerefCall:
		return c.Inner
	case UnsafeDerefCall:
		return c.Inner
	case AsConvertCall:
		return c.Inner
	default:
		return nil
	}
}
