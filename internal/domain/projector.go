package domain

import (
	"fmt"

	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

// Project folds a FuzzableCallType into the value schema and the call-site
// adaptation. Wrapper nodes add one call layer and keep the schema; compound
// nodes require every child to be passed directly.
//
//nolint:cyclop // One case per node variant.
func Project(node m.FuzzableCallType) m.Projection {
	switch n := node.(type) {
	case m.NoFuzzableNode:
		return m.NotFuzzable()
	case m.PrimitiveNode:
		return m.Projection{Fuzzable: m.FuzzablePrimitive{Kind: n.Kind}, Call: m.DirectCall{}}
	case m.StrNode:
		return m.Projection{Fuzzable: m.RefStr{}, Call: m.DirectCall{}}
	case m.TupleNode:
		return projectTuple(n)
	case m.StructNode:
		return projectStruct(n)
	case m.ConstRawPointerNode:
		return wrapProjection(n.Elem, func(c m.CallType) m.CallType {
			return m.ConstRawPointerCall{Inner: c, Pointee: n.Pointee}
		})
	case m.MutRawPointerNode:
		return wrapProjection(n.Elem, func(c m.CallType) m.CallType {
			return m.MutRawPointerCall{Inner: c, Pointee: n.Pointee}
		})
	case m.BorrowedRefNode:
		if s, ok := n.Elem.(m.SliceNode); ok {
			return projectRefSlice(s)
		}

		return wrapProjection(n.Elem, func(c m.CallType) m.CallType { return m.BorrowedRefCall{Inner: c} })
	case m.MutBorrowedRefNode:
		if s, ok := n.Elem.(m.SliceNode); ok {
			return projectRefSlice(s)
		}

		return wrapProjection(n.Elem, func(c m.CallType) m.CallType { return m.MutBorrowedRefCall{Inner: c} })
	case m.ToOptionNode:
		return wrapProjection(n.Elem, func(c m.CallType) m.CallType { return m.ToOptionCall{Inner: c} })
	case m.SliceNode, m.ArrayNode:
		// An unsized or by-value sequence is never a parameter shape.
		return m.NotFuzzable()
	default:
		panic(fmt.Errorf("%w: unhandled fuzzable call node %T", ErrContractViolation, node))
	}
}

func wrapProjection(elem m.FuzzableCallType, wrap func(m.CallType) m.CallType) m.Projection {
	inner := Project(elem)
	if !inner.OK() {
		return m.NotFuzzable()
	}

	return m.Projection{Fuzzable: inner.Fuzzable, Call: wrap(inner.Call)}
}

func projectRefSlice(s m.SliceNode) m.Projection {
	inner := Project(s.Elem)
	if !inner.OK() {
		return m.NotFuzzable()
	}

	return m.Projection{Fuzzable: m.RefSlice{Elem: inner.Fuzzable}, Call: m.DirectCall{}}
}

// projectDirect projects a compound child, failing unless it needs no call
// adaptation.
func projectDirect(node m.FuzzableCallType) (m.FuzzableType, bool) {
	p := Project(node)
	if !p.OK() || !m.IsDirect(p.Call) {
		return nil, false
	}

	return p.Fuzzable, true
}

func projectTuple(n m.TupleNode) m.Projection {
	elems := make([]m.FuzzableType, 0, len(n.Elems))

	for _, elem := range n.Elems {
		f, ok := projectDirect(elem)
		if !ok {
			return m.NotFuzzable()
		}

		elems = append(elems, f)
	}

	return m.Projection{Fuzzable: m.FuzzableTuple{Elems: elems}, Call: m.DirectCall{}}
}

func projectStruct(n m.StructNode) m.Projection {
	fields := make([]m.FuzzableField, 0, len(n.Fields))

	for _, field := range n.Fields {
		f, ok := projectDirect(field.Node)
		if !ok {
			return m.NotFuzzable()
		}

		fields = append(fields, m.FuzzableField{Name: field.Name, Type: f})
	}

	return m.Projection{
		Fuzzable: m.FuzzableStruct{Name: n.Name, Ctor: n.Ctor, Fields: fields},
		Call:     m.DirectCall{},
	}
}
