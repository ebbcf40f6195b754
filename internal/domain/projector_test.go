package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

func project(t *testing.T, ty m.Type) m.Projection {
	t.Helper()

	return Project(classify(t, ty))
}

func TestProject(t *testing.T) {
	direct := m.DirectCall{}

	tests := []struct {
		name string
		ty   m.Type
		want m.Projection
	}{
		{"primitive", prim(m.U32), m.Projection{Fuzzable: m.FuzzablePrimitive{Kind: m.U32}, Call: direct}},
		{"str ref", ref(prim(m.Str)), m.Projection{Fuzzable: m.RefStr{}, Call: direct}},
		{
			"tuple of primitives",
			tuple(prim(m.U8), prim(m.Bool)),
			m.Projection{
				Fuzzable: m.FuzzableTuple{Elems: []m.FuzzableType{m.FuzzablePrimitive{Kind: m.U8}, m.FuzzablePrimitive{Kind: m.Bool}}},
				Call:     direct,
			},
		},
		{
			"option",
			optionOf(prim(m.I32)),
			m.Projection{Fuzzable: m.FuzzablePrimitive{Kind: m.I32}, Call: m.ToOptionCall{Inner: direct}},
		},
		{
			"nested option",
			optionOf(optionOf(prim(m.U8))),
			m.Projection{Fuzzable: m.FuzzablePrimitive{Kind: m.U8}, Call: m.ToOptionCall{Inner: m.ToOptionCall{Inner: direct}}},
		},
		{
			"shared ref",
			ref(prim(m.U8)),
			m.Projection{Fuzzable: m.FuzzablePrimitive{Kind: m.U8}, Call: m.BorrowedRefCall{Inner: direct}},
		},
		{
			"mut ref",
			m.BorrowedRef{Mutable: true, Elem: prim(m.U8)},
			m.Projection{Fuzzable: m.FuzzablePrimitive{Kind: m.U8}, Call: m.MutBorrowedRefCall{Inner: direct}},
		},
		{
			"option of ref",
			optionOf(ref(prim(m.U8))),
			m.Projection{Fuzzable: m.FuzzablePrimitive{Kind: m.U8}, Call: m.ToOptionCall{Inner: m.BorrowedRefCall{Inner: direct}}},
		},
		{
			"const pointer to tuple",
			m.RawPointer{Elem: tuple(prim(m.U8), prim(m.U16))},
			m.Projection{
				Fuzzable: m.FuzzableTuple{Elems: []m.FuzzableType{m.FuzzablePrimitive{Kind: m.U8}, m.FuzzablePrimitive{Kind: m.U16}}},
				Call:     m.ConstRawPointerCall{Inner: direct, Pointee: tuple(prim(m.U8), prim(m.U16))},
			},
		},
		{
			"mut pointer",
			m.RawPointer{Mutable: true, Elem: prim(m.I64)},
			m.Projection{Fuzzable: m.FuzzablePrimitive{Kind: m.I64}, Call: m.MutRawPointerCall{Inner: direct, Pointee: prim(m.I64)}},
		},
		{"slice ref", ref(m.Slice{Elem: prim(m.U8)}), m.Projection{Fuzzable: m.RefSlice{Elem: m.FuzzablePrimitive{Kind: m.U8}}, Call: direct}},
		{
			"mut slice ref",
			m.BorrowedRef{Mutable: true, Elem: m.Slice{Elem: prim(m.U8)}},
			m.Projection{Fuzzable: m.RefSlice{Elem: m.FuzzablePrimitive{Kind: m.U8}}, Call: direct},
		},
		{
			"slice of str",
			ref(m.Slice{Elem: ref(prim(m.Str))}),
			m.Projection{Fuzzable: m.RefSlice{Elem: m.RefStr{}}, Call: direct},
		},
		{
			"struct",
			named("s:point", "Point"),
			m.Projection{
				Fuzzable: m.FuzzableStruct{
					Name: "geo::Point",
					Ctor: m.CtorNone,
					Fields: []m.FuzzableField{
						{Name: "x", Type: m.FuzzablePrimitive{Kind: m.I32}},
						{Name: "y", Type: m.FuzzablePrimitive{Kind: m.I32}},
					},
				},
				Call: direct,
			},
		},
		{"bare slice", m.Slice{Elem: prim(m.U8)}, m.NotFuzzable()},
		{"array", m.Array{Elem: prim(m.U8), Len: "3"}, m.NotFuzzable()},
		{"array ref", ref(m.Array{Elem: prim(m.U8), Len: "3"}), m.NotFuzzable()},
		{"tuple holding a reference", tuple(prim(m.U8), ref(prim(m.U8))), m.NotFuzzable()},
		{"tuple holding an option", tuple(optionOf(prim(m.U8))), m.NotFuzzable()},
		{"struct holding an option", named("s:opt", "Config"), m.NotFuzzable()},
		{"not fuzzable", dynTrait("Any"), m.NotFuzzable()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, project(t, tt.ty))
		})
	}
}

func TestProject_NotFuzzableIsAbsorbing(t *testing.T) {
	nodes := []m.FuzzableCallType{
		m.NoFuzzableNode{},
		m.BorrowedRefNode{Elem: m.NoFuzzableNode{}},
		m.MutBorrowedRefNode{Elem: m.NoFuzzableNode{}},
		m.ConstRawPointerNode{Elem: m.NoFuzzableNode{}},
		m.MutRawPointerNode{Elem: m.NoFuzzableNode{}},
		m.ToOptionNode{Elem: m.NoFuzzableNode{}},
		m.TupleNode{Elems: []m.FuzzableCallType{m.PrimitiveNode{Kind: m.U8}, m.NoFuzzableNode{}}},
		m.StructNode{Name: "S", Fields: []m.FieldNode{{Name: "f", Node: m.NoFuzzableNode{}}}},
		m.BorrowedRefNode{Elem: m.SliceNode{Elem: m.NoFuzzableNode{}}},
		m.BorrowedRefNode{Elem: m.ArrayNode{Elem: m.PrimitiveNode{Kind: m.U8}}},
	}

	for _, node := range nodes {
		p := Project(node)
		assert.Equal(t, m.NotFuzzable(), p, "%#v", node)
		assert.False(t, p.OK())
	}
}

func TestProject_MutSliceNode(t *testing.T) {
	p := Project(m.MutBorrowedRefNode{Elem: m.SliceNode{Elem: m.PrimitiveNode{Kind: m.U16}}})
	assert.Equal(t, m.Projection{Fuzzable: m.RefSlice{Elem: m.FuzzablePrimitive{Kind: m.U16}}, Call: m.DirectCall{}}, p)
}

func TestProject_UnknownNodePanics(t *testing.T) {
	assert.PanicsWithError(t, "contract violation: unhandled fuzzable call node <nil>", func() {
		Project(nil)
	})
}
