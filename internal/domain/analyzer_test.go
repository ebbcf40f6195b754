package domain

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuzzplan.dev/pkg/fuzzplan/internal/adapter"
	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

func testPlanner() *Planner {
	impls := append(testImpls(), adapter.ImplEntry{ID: "clone-point", Trait: m.NewPath("", "Clone"), For: named("s:point", "Point")})
	return NewPlanner(testDocs(), adapter.NewMemoryTraitImplIndex(impls))
}

func testSurface() m.Surface {
	self := m.Generic{Name: m.SelfTypeName}

	return m.Surface{
		Crate:      "demo",
		Candidates: []m.Type{named("", "String"), prim(m.I32)},
		Functions: []m.Function{
			{
				Path:   "demo::parse",
				Params: []m.Param{{Name: "input", Type: ref(prim(m.Str))}},
				Output: resultOf(named("s:point", "Point"), named("", "Error")),
			},
			{
				Path:     "demo::show",
				Params:   []m.Param{{Name: "value", Type: ref(m.Generic{Name: "T"})}},
				Generics: m.Generics{Params: []m.GenericParamDef{typeParam("T", traitBound("Display"))}},
			},
			{
				Path:         "demo::Point::same",
				Params:       []m.Param{{Name: "self", Type: ref(self)}, {Name: "other", Type: optionOf(self)}},
				Output:       optionOf(resultOf(self, named("", "Error"))),
				ImplGenerics: &m.Generics{WherePredicates: []m.WherePredicate{wherePred(self, traitBound("Clone"))}},
				SelfType:     named("s:point", "Point"),
			},
			{
				Path:     "demo::call",
				Params:   []m.Param{{Name: "f", Type: m.Generic{Name: "F"}}},
				Generics: m.Generics{Params: []m.GenericParamDef{typeParam("F", closureBound("Fn", prim(m.U8)))}},
			},
			{
				Path:   "demo::broken",
				Params: []m.Param{{Name: "x", Type: named("", optionPath, prim(m.U8), prim(m.U8))}},
			},
			{
				Path: "demo::tick",
			},
		},
	}
}

func reportFor(t *testing.T, reports []m.FunctionReport, path string) m.FunctionReport {
	t.Helper()

	for _, r := range reports {
		if r.Function == path {
			return r
		}
	}

	t.Fatalf("no report for %s", path)

	return m.FunctionReport{}
}

func TestPlanSurface(t *testing.T) {
	reports, err := testPlanner().PlanSurface(context.Background(), testSurface(), PlanOptions{RunID: "run-1", Parallel: 2})
	require.NoError(t, err)
	require.Len(t, reports, 6)

	for i, fn := range testSurface().Functions {
		assert.Equal(t, fn.Path, reports[i].Function, "reports keep surface order")
		assert.Equal(t, "run-1", reports[i].RunID)
	}

	t.Run("plain function", func(t *testing.T) {
		r := reportFor(t, reports, "demo::parse")
		assert.True(t, r.Fuzzable)
		assert.False(t, r.Generic)
		assert.True(t, r.Solvable)
		assert.Empty(t, r.Solution)
		assert.Equal(t, "UnwrapResult(DirectCall)", r.OutputCall)
		assert.Equal(t, []string{"_unwrap_result"}, r.Helpers)

		require.Len(t, r.Params, 1)
		assert.Equal(t, m.ParamReport{
			Name:         "input",
			Type:         "&str",
			Fuzzable:     true,
			FuzzableType: "&str",
			CallType:     "DirectCall",
			CallExpr:     "input",
			DynamicCount: 1,
		}, r.Params[0])
	})

	t.Run("solved generic", func(t *testing.T) {
		r := reportFor(t, reports, "demo::show")
		assert.True(t, r.Generic)
		assert.True(t, r.Solvable)
		assert.True(t, r.Fuzzable)
		assert.Equal(t, "[i32]", r.Solution)
		assert.Equal(t, []string{"display-i32"}, r.Impls)

		require.Len(t, r.Params, 1)
		assert.Equal(t, "&i32", r.Params[0].Type)
		assert.Equal(t, "&value", r.Params[0].CallExpr)
		assert.Equal(t, 4, r.Params[0].MinLength)
		assert.True(t, r.Params[0].FixedLength)
	})

	t.Run("method with receiver", func(t *testing.T) {
		r := reportFor(t, reports, "demo::Point::same")
		assert.True(t, r.Generic)
		assert.True(t, r.Solvable)
		assert.Equal(t, []string{"clone-point"}, r.Impls)
		assert.True(t, r.Fuzzable)

		require.Len(t, r.Params, 2)
		assert.Equal(t, "&Point", r.Params[0].Type)
		assert.Equal(t, "geo::Point", r.Params[0].FuzzableType)
		assert.Equal(t, "BorrowedRef(DirectCall)", r.Params[0].CallType)
		assert.Equal(t, 8, r.Params[0].MinLength)
		assert.Equal(t, "Some(other)", r.Params[1].CallExpr)

		assert.Equal(t, "UnwrapResult(UnwrapOption(DirectCall))", r.OutputCall)
		assert.Equal(t, []string{"_unwrap_option", "_unwrap_result"}, r.Helpers)
	})

	t.Run("closure bound", func(t *testing.T) {
		r := reportFor(t, reports, "demo::call")
		assert.True(t, r.Generic)
		assert.False(t, r.Solvable)
		assert.False(t, r.Fuzzable)
		assert.Empty(t, r.Error)

		require.Len(t, r.Params, 1)
		assert.False(t, r.Params[0].Fuzzable)
		assert.Equal(t, "NotCompatible", r.Params[0].CallType)
	})

	t.Run("contract violation fails only its function", func(t *testing.T) {
		r := reportFor(t, reports, "demo::broken")
		assert.False(t, r.Fuzzable)
		assert.Contains(t, r.Error, ErrContractViolation.Error())
		assert.Contains(t, r.Error, "param x")
		assert.Empty(t, r.Params)
	})

	t.Run("no parameters", func(t *testing.T) {
		r := reportFor(t, reports, "demo::tick")
		assert.True(t, r.Fuzzable)
		assert.Empty(t, r.Params)
		assert.Empty(t, r.OutputCall)
	})
}

func TestPlanSurface_ExtraCandidates(t *testing.T) {
	surface := testSurface()
	surface.Candidates = nil

	reports, err := testPlanner().PlanSurface(context.Background(), surface, PlanOptions{})
	require.NoError(t, err)
	assert.False(t, reportFor(t, reports, "demo::show").Solvable)

	reports, err = testPlanner().PlanSurface(context.Background(), surface, PlanOptions{Candidates: []m.Type{prim(m.I32)}})
	require.NoError(t, err)
	assert.Equal(t, "[i32]", reportFor(t, reports, "demo::show").Solution)
}

func TestPlanSurface_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testPlanner().PlanSurface(ctx, testSurface(), PlanOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParamMap(t *testing.T) {
	fn := m.Function{
		Path: "demo::Wrapper::map",
		ImplGenerics: &m.Generics{
			Params:          []m.GenericParamDef{typeParam("Self"), typeParam("W", traitBound("Clone"))},
			WherePredicates: []m.WherePredicate{wherePred(m.Generic{Name: m.SelfTypeName}, traitBound("Clone"))},
		},
		Generics: m.Generics{Params: []m.GenericParamDef{typeParam("U"), typeParam("W", traitBound("Debug"))}},
		SelfType: named("", "Wrapper", m.Generic{Name: "W"}),
	}

	g, err := ParamMap(fn)
	require.NoError(t, err)

	assert.Equal(t, []string{"W", "U"}, g.GenericDefs())

	bounds, _ := g.Bounds("W")
	assert.Equal(t, "Clone", m.BoundsString(bounds))

	preds := g.TypePredicates()
	require.Len(t, preds, 1)
	assert.Equal(t, "Wrapper<W>", m.TypeString(preds[0].Subject))
}

func TestSolveFunction(t *testing.T) {
	p := testPlanner()
	ctx := context.Background()

	plan, err := p.SolveFunction(ctx, m.Function{Path: "f"}, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, GenericPlan{Solvable: true}, plan)

	plan, err = p.SolveFunction(ctx, m.Function{
		Path:     "g",
		Generics: m.Generics{Params: []m.GenericParamDef{typeParam("T", traitBound("Clone"))}},
	}, []m.Type{prim(m.U8)}, 0)
	require.NoError(t, err)
	assert.Equal(t, GenericPlan{
		Generic:  true,
		Defs:     []string{"T"},
		Solution: m.Solution{prim(m.U8)},
		Impls:    []string{"clone-u8"},
		Solvable: true,
	}, plan)

	_, err = p.SolveFunction(ctx, m.Function{
		Path:     "h",
		Generics: m.Generics{Params: []m.GenericParamDef{{Name: "T", Kind: "effect"}}},
	}, nil, 0)
	assert.ErrorIs(t, err, ErrContractViolation)
}

func TestOutputCall(t *testing.T) {
	p := testPlanner()

	tests := []struct {
		name string
		ty   m.Type
		want string
	}{
		{"plain", prim(m.U8), "x"},
		{"option", optionOf(prim(m.U8)), "_unwrap_option(x)"},
		{"result of option", resultOf(optionOf(prim(m.U8)), prim(m.U8)), "_unwrap_option(_unwrap_result(x))"},
		{"reference is not unwrapped", ref(optionOf(prim(m.U8))), "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, err := p.OutputCall(tt.ty)
			require.NoError(t, err)
			assert.Equal(t, tt.want, call.Apply("x"))
		})
	}

	_, err := p.OutputCall(named("", resultPath, prim(m.U8)))
	assert.ErrorIs(t, err, ErrContractViolation)
}

func TestPlanParam(t *testing.T) {
	p := testPlanner()

	pr, err := p.PlanParam(
		m.Param{Name: "data", Type: ref(m.Slice{Elem: ref(prim(m.Str))})},
		nil, nil, nil,
	)
	require.NoError(t, err)
	assert.True(t, pr.Fuzzable)
	assert.Equal(t, "&[&str]", pr.FuzzableType)
	assert.True(t, pr.MultiDynamic)
	assert.Equal(t, 1, pr.DynamicCount)

	pr, err = p.PlanParam(
		m.Param{Name: "ptr", Type: m.RawPointer{Elem: m.Generic{Name: "T"}}},
		nil, m.Solution{tuple(prim(m.U8), prim(m.U16))}, []string{"T"},
	)
	require.NoError(t, err)
	assert.Equal(t, "*const (u8, u16)", pr.Type)
	assert.Equal(t, "&(ptr) as *const (u8, u16)", pr.CallExpr)
	assert.Equal(t, 3, pr.MinLength)

	_, err = p.PlanParam(m.Param{Name: "bad", Type: nil}, nil, nil, nil)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "param bad:"))
}

func TestProjectNode(t *testing.T) {
	proj, err := projectNode(m.PrimitiveNode{Kind: m.U8})
	require.NoError(t, err)
	assert.True(t, proj.OK())

	_, err = projectNode(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContractViolation)
	assert.Contains(t, err.Error(), "unhandled fuzzable call node")
}

func TestPlanParam_RecursiveStruct(t *testing.T) {
	node := named("s:node", "Node")
	docs := adapter.NewMemoryDocIndex(m.Surface{Structs: []m.StructDef{{
		ID:     "s:node",
		Name:   "Node",
		Fields: []m.Field{field("val", prim(m.U8)), field("next", m.RawPointer{Elem: node, Mutable: true})},
	}}})
	p := NewPlanner(docs, adapter.NewMemoryTraitImplIndex(nil))

	pr, err := p.PlanParam(m.Param{Name: "head", Type: ref(node)}, nil, nil, nil)
	require.NoError(t, err)
	assert.False(t, pr.Fuzzable)
	assert.Equal(t, "NotCompatible", pr.CallType)
}
