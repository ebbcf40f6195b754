package domain

import (
	"context"
	"testing"

	"github.com/hashicorp/go-set/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuzzplan.dev/pkg/fuzzplan/internal/adapter"
	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

// countingIndex records every query it forwards.
type countingIndex struct {
	inner   adapter.TraitImplIndex
	queries []string
}

func (c *countingIndex) Satisfies(ty m.Type, bounds []m.Path) (*set.TreeSet[m.ImplID], bool) {
	c.queries = append(c.queries, m.TypeString(ty)+": "+m.BoundsString(bounds))
	return c.inner.Satisfies(ty, bounds)
}

func testImpls() []adapter.ImplEntry {
	return []adapter.ImplEntry{
		{ID: "display-i32", Trait: m.NewPath("", "Display"), For: prim(m.I32)},
		{ID: "clone-i32", Trait: m.NewPath("", "Clone"), For: prim(m.I32)},
		{ID: "clone-u8", Trait: m.NewPath("", "Clone"), For: prim(m.U8)},
		{ID: "clone-foo", Trait: m.NewPath("", "Clone"), For: named("s:foo", "Foo")},
		{
			ID:    "eq-vec",
			Trait: m.NewPath("", "PartialEq", named("", "Vec", m.Generic{Name: "X"})),
			For:   named("", "Vec", m.Generic{Name: "X"}),
			Holes: []adapter.ImplHole{{Name: "X", Bounds: []m.Path{m.NewPath("", "Clone")}}},
		},
	}
}

func testIndex() *countingIndex {
	return &countingIndex{inner: adapter.NewMemoryTraitImplIndex(testImpls())}
}

func paramMap(t *testing.T, generics m.Generics) *GenericParamMap {
	t.Helper()

	g := NewGenericParamMap()
	require.NoError(t, g.AddGenerics(generics, ""))

	return g
}

func TestCheckSolution(t *testing.T) {
	displayT := m.Generics{Params: []m.GenericParamDef{typeParam("T", traitBound("Display"))}}

	t.Run("satisfied bound returns its impl", func(t *testing.T) {
		ids, ok, err := paramMap(t, displayT).CheckSolution(m.Solution{prim(m.I32)}, testIndex())
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []m.ImplID{"display-i32"}, ids.Slice())
	})

	t.Run("missing impl is no solution", func(t *testing.T) {
		ids, ok, err := paramMap(t, displayT).CheckSolution(m.Solution{m.Generic{Name: "T"}}, testIndex())
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, ids)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, _, err := paramMap(t, displayT).CheckSolution(m.Solution{}, testIndex())
		assert.ErrorIs(t, err, ErrContractViolation)
	})

	t.Run("unbounded parameters are not queried", func(t *testing.T) {
		index := testIndex()
		g := paramMap(t, m.Generics{Params: []m.GenericParamDef{typeParam("A"), typeParam("B", traitBound("Clone"))}})

		ids, ok, err := g.CheckSolution(m.Solution{named("", "String"), prim(m.U8)}, index)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []m.ImplID{"clone-u8"}, ids.Slice())
		assert.Equal(t, []string{"u8: Clone"}, index.queries)
	})

	t.Run("first failing bound short circuits", func(t *testing.T) {
		index := testIndex()
		g := paramMap(t, m.Generics{
			Params:          []m.GenericParamDef{typeParam("A", traitBound("Display")), typeParam("B", traitBound("Clone"))},
			WherePredicates: []m.WherePredicate{wherePred(m.Generic{Name: "A"}, traitBound("Clone"))},
		})

		_, ok, err := g.CheckSolution(m.Solution{prim(m.U8), prim(m.U8)}, index)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, []string{"u8: Display"}, index.queries)
	})

	t.Run("where predicates are substituted and unioned", func(t *testing.T) {
		index := testIndex()
		g := paramMap(t, m.Generics{
			Params: []m.GenericParamDef{typeParam("T", traitBound("Display"))},
			WherePredicates: []m.WherePredicate{
				wherePred(m.Generic{Name: "T"}, traitBound("Clone")),
				wherePred(named("", "Vec", m.Generic{Name: "T"}), traitBound("PartialEq", named("", "Vec", m.Generic{Name: "T"}))),
			},
		})

		ids, ok, err := g.CheckSolution(m.Solution{prim(m.I32)}, index)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []m.ImplID{"clone-i32", "display-i32", "eq-vec"}, ids.Slice())
		assert.Equal(t, []string{"i32: Display", "i32: Clone", "Vec<i32>: PartialEq<Vec<i32>>"}, index.queries)
	})

	t.Run("associated type subjects are assumed to hold", func(t *testing.T) {
		index := testIndex()
		g := paramMap(t, m.Generics{
			Params: []m.GenericParamDef{typeParam("I")},
			WherePredicates: []m.WherePredicate{
				wherePred(m.QPath{Name: "Item", SelfType: m.Generic{Name: "I"}, Trait: &m.Path{Segments: []m.PathSegment{{Name: "Iterator"}}}}, traitBound("Display")),
			},
		})

		ids, ok, err := g.CheckSolution(m.Solution{prim(m.U8)}, index)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 0, ids.Size())
		assert.Empty(t, index.queries)
	})

	t.Run("parenthesized bound is a contract violation", func(t *testing.T) {
		g := paramMap(t, m.Generics{Params: []m.GenericParamDef{typeParam("F", closureBound("Fn", prim(m.U8)))}})

		_, _, err := g.CheckSolution(m.Solution{prim(m.U8)}, testIndex())
		assert.ErrorIs(t, err, ErrContractViolation)
	})

	t.Run("receiver bound after SetSelfType", func(t *testing.T) {
		g := paramMap(t, m.Generics{WherePredicates: []m.WherePredicate{
			wherePred(m.Generic{Name: m.SelfTypeName}, traitBound("Clone")),
		}})
		g.SetSelfType(named("s:foo", "Foo"))

		ids, ok, err := g.CheckSolution(m.Solution{}, testIndex())
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []m.ImplID{"clone-foo"}, ids.Slice())
	})
}

func TestSubstituteGenerics(t *testing.T) {
	ty := tuple(m.Generic{Name: "A"}, ref(m.Generic{Name: "B"}), m.Generic{Name: "C"})
	out := SubstituteGenerics(ty, m.Solution{prim(m.U8), prim(m.Str)}, []string{"A", "B"})

	assert.Equal(t, "(u8, &str, C)", m.TypeString(out))
	assert.Nil(t, SubstituteGenerics(nil, nil, nil))
}

func TestSolver_Solve(t *testing.T) {
	ctx := context.Background()
	pool := []m.Type{named("", "String"), prim(m.I32), prim(m.U8)}

	t.Run("first accepted solution in candidate order", func(t *testing.T) {
		g := paramMap(t, m.Generics{Params: []m.GenericParamDef{typeParam("T", traitBound("Display"))}})

		res, ok, err := NewSolver(testIndex()).Solve(ctx, g, pool[:2], 0)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, m.Solution{prim(m.I32)}, res.Solution)
		assert.Equal(t, []m.ImplID{"display-i32"}, res.Impls.Slice())
		assert.Equal(t, 2, res.Tried)
	})

	t.Run("last position turns fastest", func(t *testing.T) {
		g := paramMap(t, m.Generics{Params: []m.GenericParamDef{
			typeParam("T", traitBound("Display")),
			typeParam("U", traitBound("Clone")),
		}})

		res, ok, err := NewSolver(testIndex()).Solve(ctx, g, pool, 0)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "[i32, i32]", res.Solution.String())
		assert.Equal(t, 5, res.Tried)
	})

	t.Run("limit stops the search", func(t *testing.T) {
		g := paramMap(t, m.Generics{Params: []m.GenericParamDef{typeParam("T", traitBound("Display"))}})

		res, ok, err := NewSolver(testIndex()).Solve(ctx, g, pool, 1)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 1, res.Tried)
	})

	t.Run("exhausted pool", func(t *testing.T) {
		g := paramMap(t, m.Generics{Params: []m.GenericParamDef{typeParam("T", traitBound("Debug"))}})

		res, ok, err := NewSolver(testIndex()).Solve(ctx, g, pool, 0)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, len(pool), res.Tried)
	})

	t.Run("no candidates", func(t *testing.T) {
		g := paramMap(t, m.Generics{Params: []m.GenericParamDef{typeParam("T")}})

		res, ok, err := NewSolver(testIndex()).Solve(ctx, g, nil, 0)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 0, res.Tried)
	})

	t.Run("predicates without parameters are checked once", func(t *testing.T) {
		g := paramMap(t, m.Generics{WherePredicates: []m.WherePredicate{wherePred(prim(m.U8), traitBound("Clone"))}})

		res, ok, err := NewSolver(testIndex()).Solve(ctx, g, nil, 0)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Empty(t, res.Solution)
		assert.Equal(t, 1, res.Tried)
	})

	t.Run("canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		g := paramMap(t, m.Generics{Params: []m.GenericParamDef{typeParam("T", traitBound("Display"))}})

		_, ok, err := NewSolver(testIndex()).Solve(canceled, g, pool, 0)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, ok)
	})

	t.Run("contract violation aborts", func(t *testing.T) {
		g := paramMap(t, m.Generics{
			Params:          []m.GenericParamDef{typeParam("F")},
			WherePredicates: []m.WherePredicate{wherePred(m.Generic{Name: "F"}, closureBound("FnOnce"))},
		})

		_, _, err := NewSolver(testIndex()).Solve(ctx, g, pool, 0)
		assert.ErrorIs(t, err, ErrContractViolation)
	})
}

func TestAdvance(t *testing.T) {
	odometer := []int{0, 0}
	var seen [][]int

	for {
		seen = append(seen, append([]int(nil), odometer...))
		if !advance(odometer, 2) {
			break
		}
	}

	assert.Equal(t, [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, seen)
	assert.False(t, advance(nil, 3))
}
