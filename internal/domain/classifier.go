package domain

import (
	"log/slog"

	"fuzzplan.dev/pkg/fuzzplan/internal/adapter"
	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

// Classifier maps declared types to FuzzableCallType trees.
type Classifier struct {
	docs    adapter.DocIndex
	prelude *PreludeResolver
}

// NewClassifier constructs a Classifier that resolves named types through docs.
func NewClassifier(docs adapter.DocIndex) *Classifier {
	return &Classifier{
		docs:    docs,
		prelude: NewPreludeResolver(docs),
	}
}

// Classify decides whether a value of type t can be built from bytes and how
// it is wrapped. The returned error is non-nil only for contract violations.
func (c *Classifier) Classify(t m.Type) (m.FuzzableCallType, error) {
	return c.classify(t, make(visiting))
}

// visiting holds the ids of the structs being classified on the current path.
type visiting map[string]bool

//nolint:cyclop // One case per type variant.
func (c *Classifier) classify(t m.Type, seen visiting) (m.FuzzableCallType, error) {
	switch t := t.(type) {
	case m.Primitive:
		return classifyPrimitive(t)
	case m.PathType:
		return c.classifyPath(t, seen)
	case m.Tuple:
		return c.classifyTuple(t, seen)
	case m.Slice:
		return c.wrap(t.Elem, seen, func(n m.FuzzableCallType) m.FuzzableCallType { return m.SliceNode{Elem: n} })
	case m.Array:
		return c.wrap(t.Elem, seen, func(n m.FuzzableCallType) m.FuzzableCallType { return m.ArrayNode{Elem: n} })
	case m.RawPointer:
		return c.wrap(t.Elem, seen, func(n m.FuzzableCallType) m.FuzzableCallType {
			if t.Mutable {
				return m.MutRawPointerNode{Elem: n, Pointee: t.Elem}
			}

			return m.ConstRawPointerNode{Elem: n, Pointee: t.Elem}
		})
	case m.BorrowedRef:
		return c.classifyRef(t, seen)
	case m.Generic:
		slog.Debug("unsolved generic parameter is not fuzzable", "name", t.Name)
		return m.NoFuzzableNode{}, nil
	case m.QPath, m.BareFunction, m.ImplTrait, m.Infer, m.DynTrait:
		return m.NoFuzzableNode{}, nil
	default:
		return nil, contractViolation("unhandled type variant %T", t)
	}
}

func classifyPrimitive(t m.Primitive) (m.FuzzableCallType, error) {
	if !t.Kind.Valid() {
		return nil, contractViolation("unknown primitive %q", t.Kind)
	}

	// A bare str is unsized; only &str can be passed.
	if t.Kind == m.Str {
		return m.NoFuzzableNode{}, nil
	}

	return m.PrimitiveNode{Kind: t.Kind}, nil
}

// wrap classifies elem and wraps a fuzzable result with mk.
func (c *Classifier) wrap(elem m.Type, seen visiting, mk func(m.FuzzableCallType) m.FuzzableCallType) (m.FuzzableCallType, error) {
	inner, err := c.classify(elem, seen)
	if err != nil {
		return nil, err
	}

	if !m.IsFuzzableNode(inner) {
		return m.NoFuzzableNode{}, nil
	}

	return mk(inner), nil
}

func (c *Classifier) classifyTuple(t m.Tuple, seen visiting) (m.FuzzableCallType, error) {
	elems := make([]m.FuzzableCallType, 0, len(t.Elems))

	for _, elem := range t.Elems {
		inner, err := c.classify(elem, seen)
		if err != nil {
			return nil, err
		}

		if !m.IsFuzzableNode(inner) {
			return m.NoFuzzableNode{}, nil
		}

		elems = append(elems, inner)
	}

	return m.TupleNode{Elems: elems}, nil
}

func (c *Classifier) classifyRef(t m.BorrowedRef, seen visiting) (m.FuzzableCallType, error) {
	if p, ok := t.Elem.(m.Primitive); ok && p.Kind == m.Str {
		switch {
		case t.Lifetime == m.StaticLifetime:
			// No &'static str can be built from a runtime buffer.
			return m.NoFuzzableNode{}, nil
		case t.Mutable:
			return m.NoFuzzableNode{}, nil
		default:
			return m.StrNode{}, nil
		}
	}

	// &[T] and &mut [T] both become a length-prefixed run of T.
	if s, ok := t.Elem.(m.Slice); ok {
		return c.wrap(s.Elem, seen, func(n m.FuzzableCallType) m.FuzzableCallType {
			return m.BorrowedRefNode{Elem: m.SliceNode{Elem: n}}
		})
	}

	return c.wrap(t.Elem, seen, func(n m.FuzzableCallType) m.FuzzableCallType {
		if t.Mutable {
			return m.MutBorrowedRefNode{Elem: n}
		}

		return m.BorrowedRefNode{Elem: n}
	})
}

func (c *Classifier) classifyPath(t m.PathType, seen visiting) (m.FuzzableCallType, error) {
	res, err := c.classifyStruct(t, seen)
	if err != nil {
		return nil, err
	}

	if m.IsFuzzableNode(res) {
		return res, nil
	}

	prelude, ok, err := c.prelude.Resolve(t)
	if err != nil {
		return nil, err
	}

	if !ok {
		return m.NoFuzzableNode{}, nil
	}

	switch prelude.Kind {
	case PreludeOption:
		return c.wrap(prelude.FinalType(), seen, func(n m.FuzzableCallType) m.FuzzableCallType {
			return m.ToOptionNode{Elem: n}
		})
	default:
		// A Result parameter would need an error payload; only its success
		// payload is ever synthesized, and only for return values.
		return m.NoFuzzableNode{}, nil
	}
}

func (c *Classifier) classifyStruct(t m.PathType, seen visiting) (m.FuzzableCallType, error) {
	if c.docs == nil || t.Path.ID == "" {
		return m.NoFuzzableNode{}, nil
	}

	def, ok := c.docs.Struct(t.Path.ID)
	if !ok {
		return m.NoFuzzableNode{}, nil
	}

	name := c.docs.TypeName(def.ID)
	if name == "" {
		name = def.Name
	}

	// A struct reachable from its own fields has no finite byte layout.
	if seen[t.Path.ID] {
		slog.Debug("recursive struct is not fuzzable", "struct", name)
		return m.NoFuzzableNode{}, nil
	}

	seen[t.Path.ID] = true
	defer delete(seen, t.Path.ID)

	fields := make([]m.FieldNode, 0, len(def.Fields))

	for _, field := range def.Fields {
		fieldType, ok, err := structFieldType(field)
		if err != nil {
			return nil, err
		}

		if !ok {
			slog.Warn("unsupported struct member, struct is not fuzzable", "struct", name, "field", field.Name, "kind", field.Kind)
			return m.NoFuzzableNode{}, nil
		}

		node, err := c.classify(fieldType, seen)
		if err != nil {
			return nil, err
		}

		if !m.IsFuzzableNode(node) {
			return m.NoFuzzableNode{}, nil
		}

		fields = append(fields, m.FieldNode{Name: field.Name, Node: node})
	}

	return m.StructNode{Name: name, Ctor: def.Ctor, Fields: fields}, nil
}

// structFieldType unwraps stripped fields one level. It reports false for
// member kinds that are not fields.
func structFieldType(field m.Field) (m.Type, bool, error) {
	switch field.Kind {
	case m.ItemStructField:
		if field.Type == nil {
			return nil, false, contractViolation("field %s has no type", field.Name)
		}

		return field.Type, true, nil
	case m.ItemStripped:
		if field.Inner == nil || field.Inner.Kind != m.ItemStructField {
			return nil, false, contractViolation("stripped member %s does not wrap a struct field", field.Name)
		}

		return structFieldType(*field.Inner)
	default:
		return nil, false, nil
	}
}
