package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallTypeApply(t *testing.T) {
	tests := []struct {
		name       string
		call       CallType
		wantExpr   string
		wantString string
	}{
		{"direct", DirectCall{}, "x", "DirectCall"},
		{"borrowed", BorrowedRefCall{Inner: DirectCall{}}, "&x", "BorrowedRef(DirectCall)"},
		{"mut borrowed", MutBorrowedRefCall{Inner: DirectCall{}}, "&mut x", "MutBorrowedRef(DirectCall)"},
		{
			"const pointer",
			ConstRawPointerCall{Inner: DirectCall{}, Pointee: Primitive{Kind: U8}},
			"&(x) as *const u8",
			"ConstRawPointer(DirectCall, u8)",
		},
		{
			"mut pointer",
			MutRawPointerCall{Inner: DirectCall{}, Pointee: Primitive{Kind: U8}},
			"&mut (x) as *mut u8",
			"MutRawPointer(DirectCall, u8)",
		},
		{"option of ref", ToOptionCall{Inner: BorrowedRefCall{Inner: DirectCall{}}}, "Some(&x)", "ToOption(BorrowedRef(DirectCall))"},
		{"result", ToResultCall{Inner: DirectCall{}}, "Ok(x)", "ToResult(DirectCall)"},
		{
			"nested unwraps",
			UnwrapResultCall{Inner: UnwrapOptionCall{Inner: DirectCall{}}},
			"_unwrap_result(_unwrap_option(x))",
			"UnwrapResult(UnwrapOption(DirectCall))",
		},
		{"deref", DerefCall{Inner: DirectCall{}}, "*x", "Deref(DirectCall)"},
		{"unsafe deref", UnsafeDerefCall{Inner: DirectCall{}}, "unsafe {*x}", "UnsafeDeref(DirectCall)"},
		{"as", AsConvertCall{Inner: DirectCall{}, Target: "usize"}, "x as usize", "AsConvert(DirectCall, usize)"},
		{"not compatible", NotCompatible{}, "x", "NotCompatible"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantExpr, tt.call.Apply("x"))
			assert.Equal(t, tt.wantString, tt.call.String())
		})
	}
}

func TestCallTypePredicates(t *testing.T) {
	assert.True(t, IsDirect(DirectCall{}))
	assert.False(t, IsDirect(BorrowedRefCall{Inner: DirectCall{}}))

	assert.True(t, IsCompatible(DirectCall{}))
	assert.False(t, IsCompatible(NotCompatible{}))
	assert.False(t, IsCompatible(nil))

	assert.Equal(t, DirectCall{}, InnerCall(ToOptionCall{Inner: DirectCall{}}))
	assert.Nil(t, InnerCall(DirectCall{}))
}

func TestProjectionOK(t *testing.T) {
	assert.False(t, NotFuzzable().OK())
	assert.True(t, Projection{Fuzzable: RefStr{}, Call: DirectCall{}}.OK())
	assert.False(t, Projection{Fuzzable: RefStr{}, Call: NotCompatible{}}.OK())
	assert.False(t, IsFuzzableNode(nil))
	assert.True(t, IsFuzzableNode(StrNode{}))
}

func TestCtorKindString(t *testing.T) {
	assert.Equal(t, "fn", CtorFn.String())
	assert.Equal(t, "const", CtorConst.String())
	assert.Equal(t, "none", CtorNone.String())
	assert.Equal(t, "unknown", CtorKind(9).String())
}
