package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

func TestPreludeResolver_Resolve(t *testing.T) {
	r := NewPreludeResolver(testDocs())

	t.Run("option", func(t *testing.T) {
		pt, ok, err := r.Resolve(optionOf(prim(m.U8)))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, PreludeOption, pt.Kind)
		assert.Equal(t, prim(m.U8), pt.FinalType())
		assert.Nil(t, pt.Err)
	})

	t.Run("result keeps only the success payload", func(t *testing.T) {
		pt, ok, err := r.Resolve(named("p:result", "Result", prim(m.I32), named("", "Error")))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, PreludeResult, pt.Kind)
		assert.Equal(t, prim(m.I32), pt.FinalType())
		assert.Equal(t, "Error", m.TypeString(pt.Err))
	})

	t.Run("short names are not prelude containers", func(t *testing.T) {
		_, ok, err := r.Resolve(named("", "Option", prim(m.U8)))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("non path types", func(t *testing.T) {
		_, ok, err := r.Resolve(ref(optionOf(prim(m.U8))))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("arity violations", func(t *testing.T) {
		for _, ty := range []m.Type{
			named("", optionPath),
			named("", optionPath, prim(m.U8), prim(m.U8)),
			named("", resultPath, prim(m.U8)),
			named("", resultPath, prim(m.U8), prim(m.U8), prim(m.U8)),
		} {
			_, _, err := r.Resolve(ty)
			assert.ErrorIs(t, err, ErrContractViolation, m.TypeString(ty))
		}
	})

	t.Run("parenthesized arguments", func(t *testing.T) {
		p := m.NewPath("", optionPath)
		p.Segments[len(p.Segments)-1].Args = m.GenericArgs{Parenthesized: true, Inputs: []m.Type{prim(m.U8)}}

		_, _, err := r.Resolve(m.PathType{Path: p})
		assert.ErrorIs(t, err, ErrContractViolation)
	})
}

func TestPreludeType_CallTypes(t *testing.T) {
	option := PreludeType{Kind: PreludeOption, Ok: prim(m.U8)}
	result := PreludeType{Kind: PreludeResult, Ok: prim(m.U8), Err: prim(m.U8)}

	assert.Equal(t, "Some(x)", option.WrapCallType(m.DirectCall{}).Apply("x"))
	assert.Equal(t, "Ok(x)", result.WrapCallType(m.DirectCall{}).Apply("x"))
	assert.Equal(t, "_unwrap_option(x)", option.UnwrapCallType(m.DirectCall{}).Apply("x"))
	assert.Equal(t, "_unwrap_result(x)", result.UnwrapCallType(m.DirectCall{}).Apply("x"))
}

func TestHelperRegistry(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		hr := NewHelperRegistry()
		assert.Empty(t, hr.Helpers())
		assert.Equal(t, "", hr.Source())
	})

	t.Run("each helper is emitted once", func(t *testing.T) {
		hr := NewHelperRegistry()
		hr.Collect(m.UnwrapOptionCall{Inner: m.DirectCall{}})
		hr.Collect(m.BorrowedRefCall{Inner: m.UnwrapResultCall{Inner: m.UnwrapOptionCall{Inner: m.DirectCall{}}}})
		hr.Collect(m.ToOptionCall{Inner: m.DirectCall{}})

		assert.Equal(t, []PreludeHelper{OptionHelper, ResultHelper}, hr.Helpers())

		src := hr.Source()
		assert.Equal(t, 1, strings.Count(src, "fn _unwrap_option<T>"))
		assert.Equal(t, 1, strings.Count(src, "fn _unwrap_result<T, E>"))
	})

	t.Run("add by name", func(t *testing.T) {
		hr := NewHelperRegistry()
		hr.Add(ResultHelper)
		hr.Add(ResultHelper)
		hr.Add(PreludeHelper("_unwrap_box"))

		assert.Equal(t, []PreludeHelper{ResultHelper}, hr.Helpers())
		assert.Equal(t, ResultHelper.Source(), hr.Source())
	})

	t.Run("no helpers for wrapping calls", func(t *testing.T) {
		hr := NewHelperRegistry()
		hr.Collect(m.ToResultCall{Inner: m.ConstRawPointerCall{Inner: m.DirectCall{}, Pointee: prim(m.U8)}})
		assert.Empty(t, hr.Helpers())
	})
}
