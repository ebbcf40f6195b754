package adapter

import (
	"fmt"

	"gopkg.in/yaml.v3"

	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

// surfaceDoc is the on-disk shape of a surface file. The same struct is
// decoded from YAML and TOML.
type surfaceDoc struct {
	Crate      string            `yaml:"crate" toml:"crate"`
	Names      map[string]string `yaml:"names" toml:"names"`
	Structs    []structDoc       `yaml:"structs" toml:"structs"`
	Functions  []functionDoc     `yaml:"functions" toml:"functions"`
	Candidates []typeDoc         `yaml:"candidates" toml:"candidates"`
	Impls      []implDoc         `yaml:"impls" toml:"impls"`
}

type structDoc struct {
	ID     string     `yaml:"id" toml:"id"`
	Name   string     `yaml:"name" toml:"name"`
	Ctor   string     `yaml:"ctor" toml:"ctor"`
	Fields []fieldDoc `yaml:"fields" toml:"fields"`
}

type fieldDoc struct {
	Name  string    `yaml:"name" toml:"name"`
	Kind  string    `yaml:"kind" toml:"kind"`
	Type  *typeDoc  `yaml:"type" toml:"type"`
	Inner *fieldDoc `yaml:"inner" toml:"inner"`
}

type functionDoc struct {
	Path         string       `yaml:"path" toml:"path"`
	Params       []paramDoc   `yaml:"params" toml:"params"`
	Output       *typeDoc     `yaml:"output" toml:"output"`
	Generics     genericsDoc  `yaml:"generics" toml:"generics"`
	ImplGenerics *genericsDoc `yaml:"impl_generics" toml:"impl_generics"`
	SelfType     *typeDoc     `yaml:"self_type" toml:"self_type"`
}

type paramDoc struct {
	Name string   `yaml:"name" toml:"name"`
	Type *typeDoc `yaml:"type" toml:"type"`
}

type genericsDoc struct {
	Params []genericParamDoc `yaml:"params" toml:"params"`
	Where  []predicateDoc    `yaml:"where" toml:"where"`
}

type genericParamDoc struct {
	Name      string     `yaml:"name" toml:"name"`
	Kind      string     `yaml:"kind" toml:"kind"`
	Bounds    []boundDoc `yaml:"bounds" toml:"bounds"`
	Default   *typeDoc   `yaml:"default" toml:"default"`
	Synthetic bool       `yaml:"synthetic" toml:"synthetic"`
}

type boundDoc struct {
	Kind         string            `yaml:"kind" toml:"kind"`
	Trait        pathDoc           `yaml:",inline" toml:"trait"`
	HigherRanked []genericParamDoc `yaml:"for" toml:"for"`
	Lifetime     string            `yaml:"lifetime" toml:"lifetime"`
}

type predicateDoc struct {
	Kind     string     `yaml:"kind" toml:"kind"`
	Subject  *typeDoc   `yaml:"subject" toml:"subject"`
	Bounds   []boundDoc `yaml:"bounds" toml:"bounds"`
	Lifetime string     `yaml:"lifetime" toml:"lifetime"`
	Rhs      *typeDoc   `yaml:"rhs" toml:"rhs"`
}

type implDoc struct {
	ID    string    `yaml:"id" toml:"id"`
	Trait pathDoc   `yaml:"trait" toml:"trait"`
	For   *typeDoc  `yaml:"for" toml:"for"`
	Holes []holeDoc `yaml:"holes" toml:"holes"`
}

type holeDoc struct {
	Name   string    `yaml:"name" toml:"name"`
	Bounds []pathDoc `yaml:"bounds" toml:"bounds"`
}

type pathDoc struct {
	Name          string    `yaml:"name" toml:"name"`
	ID            string    `yaml:"id" toml:"id"`
	Args          []argDoc  `yaml:"args" toml:"args"`
	Parenthesized bool      `yaml:"parenthesized" toml:"parenthesized"`
	Inputs        []typeDoc `yaml:"inputs" toml:"inputs"`
	Output        *typeDoc  `yaml:"output" toml:"output"`
}

type argDoc struct {
	Type     *typeDoc `yaml:"type" toml:"type"`
	Lifetime string   `yaml:"lifetime" toml:"lifetime"`
	Const    string   `yaml:"const" toml:"const"`
}

// typeDoc is one node of the type grammar. In YAML a bare scalar is a
// primitive when it names one and a generic parameter otherwise.
type typeDoc struct {
	Kind     string    `yaml:"kind" toml:"kind"`
	Path     pathDoc   `yaml:",inline" toml:"path"`
	Elem     *typeDoc  `yaml:"elem" toml:"elem"`
	Elems    []typeDoc `yaml:"elems" toml:"elems"`
	Len      string    `yaml:"len" toml:"len"`
	Mutable  bool      `yaml:"mutable" toml:"mutable"`
	Lifetime string    `yaml:"lifetime" toml:"lifetime"`
	Self     *typeDoc  `yaml:"self" toml:"self"`
	Trait    *pathDoc  `yaml:"trait" toml:"trait"`
	Traits   []pathDoc `yaml:"traits" toml:"traits"`
}

// UnmarshalYAML accepts either the mapping form or the scalar shorthand.
func (d *typeDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		d.Path.Name = node.Value
		if m.PrimitiveKind(node.Value).Valid() {
			d.Kind = "primitive"
		} else {
			d.Kind = "generic"
		}

		return nil
	}

	type plain typeDoc

	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}

	*d = typeDoc(p)

	return nil
}

func (d surfaceDoc) toModel() (m.Surface, []ImplEntry, error) {
	surface := m.Surface{Crate: d.Crate, Names: d.Names}

	for _, sd := range d.Structs {
		def, err := sd.toModel()
		if err != nil {
			return m.Surface{}, nil, fmt.Errorf("struct %s: %w", sd.Name, err)
		}

		surface.Structs = append(surface.Structs, def)
	}

	for _, fd := range d.Functions {
		fn, err := fd.toModel()
		if err != nil {
			return m.Surface{}, nil, fmt.Errorf("function %s: %w", fd.Path, err)
		}

		surface.Functions = append(surface.Functions, fn)
	}

	candidates, err := typeList(d.Candidates)
	if err != nil {
		return m.Surface{}, nil, fmt.Errorf("candidates: %w", err)
	}

	surface.Candidates = candidates

	impls, err := implList(d.Impls)
	if err != nil {
		return m.Surface{}, nil, err
	}

	return surface, impls, nil
}

func implList(docs []implDoc) ([]ImplEntry, error) {
	impls := make([]ImplEntry, 0, len(docs))

	for _, doc := range docs {
		impl, err := doc.toModel()
		if err != nil {
			return nil, fmt.Errorf("impl %s: %w", doc.ID, err)
		}

		impls = append(impls, impl)
	}

	return impls, nil
}

func parseCtor(ctor string) (m.CtorKind, error) {
	switch ctor {
	case "fn":
		return m.CtorFn, nil
	case "const":
		return m.CtorConst, nil
	case "none", "":
		return m.CtorNone, nil
	default:
		return m.CtorNone, fmt.Errorf("unknown constructor kind %q", ctor)
	}
}

func (sd structDoc) toModel() (m.StructDef, error) {
	ctor, err := parseCtor(sd.Ctor)
	if err != nil {
		return m.StructDef{}, err
	}

	def := m.StructDef{ID: sd.ID, Name: sd.Name, Ctor: ctor}

	for _, fd := range sd.Fields {
		field, err := fd.toModel()
		if err != nil {
			return m.StructDef{}, fmt.Errorf("field %s: %w", fd.Name, err)
		}

		def.Fields = append(def.Fields, field)
	}

	return def, nil
}

func (fd fieldDoc) toModel() (m.Field, error) {
	kind := m.ItemKind(fd.Kind)
	if kind == "" {
		kind = m.ItemStructField
	}

	field := m.Field{Name: fd.Name, Kind: kind}

	if fd.Type != nil {
		t, err := fd.Type.toModel()
		if err != nil {
			return m.Field{}, err
		}

		field.Type = t
	}

	if fd.Inner != nil {
		inner, err := fd.Inner.toModel()
		if err != nil {
			return m.Field{}, err
		}

		field.Inner = &inner
	}

	return field, nil
}

func (fd functionDoc) toModel() (m.Function, error) {
	fn := m.Function{Path: fd.Path}

	for _, pd := range fd.Params {
		t, err := pd.Type.toModel()
		if err != nil {
			return m.Function{}, fmt.Errorf("param %s: %w", pd.Name, err)
		}

		fn.Params = append(fn.Params, m.Param{Name: pd.Name, Type: t})
	}

	var err error

	if fn.Output, err = optionalType(fd.Output); err != nil {
		return m.Function{}, fmt.Errorf("output: %w", err)
	}

	if fn.SelfType, err = optionalType(fd.SelfType); err != nil {
		return m.Function{}, fmt.Errorf("self type: %w", err)
	}

	if fn.Generics, err = fd.Generics.toModel(); err != nil {
		return m.Function{}, err
	}

	if fd.ImplGenerics != nil {
		implGenerics, err := fd.ImplGenerics.toModel()
		if err != nil {
			return m.Function{}, fmt.Errorf("impl generics: %w", err)
		}

		fn.ImplGenerics = &implGenerics
	}

	return fn, nil
}

func (gd genericsDoc) toModel() (m.Generics, error) {
	var generics m.Generics

	params, err := genericParams(gd.Params)
	if err != nil {
		return m.Generics{}, err
	}

	generics.Params = params

	for _, pd := range gd.Where {
		pred, err := pd.toModel()
		if err != nil {
			return m.Generics{}, err
		}

		generics.WherePredicates = append(generics.WherePredicates, pred)
	}

	return generics, nil
}

func genericParams(docs []genericParamDoc) ([]m.GenericParamDef, error) {
	var params []m.GenericParamDef

	for _, pd := range docs {
		kind := m.GenericParamKind(pd.Kind)
		if kind == "" {
			kind = m.ParamType
		}

		bounds, err := boundList(pd.Bounds)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", pd.Name, err)
		}

		def, err := optionalType(pd.Default)
		if err != nil {
			return nil, fmt.Errorf("param %s default: %w", pd.Name, err)
		}

		params = append(params, m.GenericParamDef{
			Name:      pd.Name,
			Kind:      kind,
			Bounds:    bounds,
			Default:   def,
			Synthetic: pd.Synthetic,
		})
	}

	return params, nil
}

func boundList(docs []boundDoc) ([]m.GenericBound, error) {
	var bounds []m.GenericBound

	for _, bd := range docs {
		kind := m.BoundKind(bd.Kind)
		if kind == "" {
			kind = m.BoundTrait
		}

		bound := m.GenericBound{Kind: kind, Lifetime: bd.Lifetime}

		if kind == m.BoundTrait {
			trait, err := bd.Trait.toModel()
			if err != nil {
				return nil, err
			}

			bound.Trait = trait

			hr, err := genericParams(bd.HigherRanked)
			if err != nil {
				return nil, err
			}

			bound.HigherRanked = hr
		}

		bounds = append(bounds, bound)
	}

	return bounds, nil
}

func (pd predicateDoc) toModel() (m.WherePredicate, error) {
	kind := m.PredicateKind(pd.Kind)
	if kind == "" {
		kind = m.PredicateBound
	}

	pred := m.WherePredicate{Kind: kind, Lifetime: pd.Lifetime}

	var err error

	if pred.Subject, err = optionalType(pd.Subject); err != nil {
		return m.WherePredicate{}, fmt.Errorf("where subject: %w", err)
	}

	if pred.Rhs, err = optionalType(pd.Rhs); err != nil {
		return m.WherePredicate{}, fmt.Errorf("where rhs: %w", err)
	}

	if pred.Bounds, err = boundList(pd.Bounds); err != nil {
		return m.WherePredicate{}, err
	}

	return pred, nil
}

func (id implDoc) toModel() (ImplEntry, error) {
	trait, err := id.Trait.toModel()
	if err != nil {
		return ImplEntry{}, err
	}

	if id.For == nil {
		return ImplEntry{}, fmt.Errorf("missing self type")
	}

	forType, err := id.For.toModel()
	if err != nil {
		return ImplEntry{}, err
	}

	entry := ImplEntry{ID: m.ImplID(id.ID), Trait: trait, For: forType}

	for _, hd := range id.Holes {
		bounds, err := pathList(hd.Bounds)
		if err != nil {
			return ImplEntry{}, err
		}

		entry.Holes = append(entry.Holes, ImplHole{Name: hd.Name, Bounds: bounds})
	}

	return entry, nil
}

func (pd pathDoc) toModel() (m.Path, error) {
	if pd.Name == "" {
		return m.Path{}, fmt.Errorf("path without name")
	}

	path := m.NewPath(pd.ID, pd.Name)
	last := &path.Segments[len(path.Segments)-1]

	if pd.Parenthesized {
		inputs, err := typeList(pd.Inputs)
		if err != nil {
			return m.Path{}, err
		}

		output, err := optionalType(pd.Output)
		if err != nil {
			return m.Path{}, err
		}

		last.Args = m.GenericArgs{Parenthesized: true, Inputs: inputs, Output: output}

		return path, nil
	}

	for _, ad := range pd.Args {
		arg := m.GenericArg{Lifetime: ad.Lifetime, Const: ad.Const}

		if ad.Type != nil {
			t, err := ad.Type.toModel()
			if err != nil {
				return m.Path{}, err
			}

			arg.Type = t
		}

		last.Args.Args = append(last.Args.Args, arg)
	}

	return path, nil
}

func pathList(docs []pathDoc) ([]m.Path, error) {
	var paths []m.Path

	for _, pd := range docs {
		p, err := pd.toModel()
		if err != nil {
			return nil, err
		}

		paths = append(paths, p)
	}

	return paths, nil
}

func typeList(docs []typeDoc) ([]m.Type, error) {
	var types []m.Type

	for i := range docs {
		t, err := docs[i].toModel()
		if err != nil {
			return nil, err
		}

		types = append(types, t)
	}

	return types, nil
}

func optionalType(d *typeDoc) (m.Type, error) {
	if d == nil {
		return nil, nil
	}

	return d.toModel()
}

func requiredType(d *typeDoc, what string) (m.Type, error) {
	if d == nil {
		return nil, fmt.Errorf("%s: missing element type", what)
	}

	return d.toModel()
}

//nolint:cyclop,funlen // One case per type variant.
func (d *typeDoc) toModel() (m.Type, error) {
	if d == nil {
		return nil, fmt.Errorf("missing type")
	}

	switch d.Kind {
	case "primitive":
		kind, err := m.ParsePrimitiveKind(d.Path.Name)
		if err != nil {
			return nil, err
		}

		return m.Primitive{Kind: kind}, nil
	case "path":
		p, err := d.Path.toModel()
		if err != nil {
			return nil, err
		}

		return m.PathType{Path: p}, nil
	case "tuple":
		elems, err := typeList(d.Elems)
		if err != nil {
			return nil, err
		}

		return m.Tuple{Elems: elems}, nil
	case "slice":
		elem, err := requiredType(d.Elem, "slice")
		if err != nil {
			return nil, err
		}

		return m.Slice{Elem: elem}, nil
	case "array":
		elem, err := requiredType(d.Elem, "array")
		if err != nil {
			return nil, err
		}

		return m.Array{Elem: elem, Len: d.Len}, nil
	case "raw_pointer":
		elem, err := requiredType(d.Elem, "raw pointer")
		if err != nil {
			return nil, err
		}

		return m.RawPointer{Mutable: d.Mutable, Elem: elem}, nil
	case "ref":
		elem, err := requiredType(d.Elem, "reference")
		if err != nil {
			return nil, err
		}

		return m.BorrowedRef{Lifetime: d.Lifetime, Mutable: d.Mutable, Elem: elem}, nil
	case "generic":
		return m.Generic{Name: d.Path.Name}, nil
	case "qpath":
		self, err := requiredType(d.Self, "qpath")
		if err != nil {
			return nil, err
		}

		q := m.QPath{Name: d.Path.Name, SelfType: self}

		if d.Trait != nil {
			trait, err := d.Trait.toModel()
			if err != nil {
				return nil, err
			}

			q.Trait = &trait
		}

		return q, nil
	case "fn":
		inputs, err := typeList(d.Path.Inputs)
		if err != nil {
			return nil, err
		}

		output, err := optionalType(d.Path.Output)
		if err != nil {
			return nil, err
		}

		return m.BareFunction{Inputs: inputs, Output: output}, nil
	case "dyn":
		traits, err := pathList(d.Traits)
		if err != nil {
			return nil, err
		}

		return m.DynTrait{Traits: traits}, nil
	case "impl":
		traits, err := pathList(d.Traits)
		if err != nil {
			return nil, err
		}

		return m.ImplTrait{Bounds: traits}, nil
	case "infer":
		return m.Infer{}, nil
	default:
		return nil, fmt.Errorf("unknown type kind %q", d.Kind)
	}
}
