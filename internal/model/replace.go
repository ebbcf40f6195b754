package model

// ReplaceFunc inspects a type node. When it returns true the returned type
// replaces the node and its children are not visited.
type ReplaceFunc func(Type) (Type, bool)

// ReplaceType rebuilds t bottom-up, substituting every node fn accepts. The
// input is never mutated.
//
//nolint:cyclop // One case per type variant.
func ReplaceType(t Type, fn ReplaceFunc) Type {
	if t == nil {
		return nil
	}

	if replacement, ok := fn(t); ok {
		return replacement
	}

	switch t := t.(type) {
	case PathType:
		return PathType{Path: ReplacePath(t.Path, fn)}
	case Tuple:
		return Tuple{Elems: replaceTypes(t.Elems, fn)}
	case Slice:
		return Slice{Elem: ReplaceType(t.Elem, fn)}
	case Array:
		return Array{Elem: ReplaceType(t.Elem, fn), Len: t.Len}
	case RawPointer:
		return RawPointer{Mutable: t.Mutable, Elem: ReplaceType(t.Elem, fn)}
	case BorrowedRef:
		return BorrowedRef{Lifetime: t.Lifetime, Mutable: t.Mutable, Elem: ReplaceType(t.Elem, fn)}
	case QPath:
		q := QPath{Name: t.Name, SelfType: ReplaceType(t.SelfType, fn)}

		if t.Trait != nil {
			trait := ReplacePath(*t.Trait, fn)
			q.Trait = &trait
		}

		return q
	case BareFunction:
		return BareFunction{Inputs: replaceTypes(t.Inputs, fn), Output: ReplaceType(t.Output, fn)}
	case DynTrait:
		return DynTrait{Traits: ReplacePaths(t.Traits, fn)}
	case ImplTrait:
		return ImplTrait{Bounds: ReplacePaths(t.Bounds, fn)}
	default:
		return t
	}
}

// ReplacePath applies fn to every type nested in the path's generic args.
func ReplacePath(p Path, fn ReplaceFunc) Path {
	segments := make([]PathSegment, len(p.Segments))

	for i, seg := range p.Segments {
		args := GenericArgs{
			Parenthesized: seg.Args.Parenthesized,
			Inputs:        replaceTypes(seg.Args.Inputs, fn),
			Output:        ReplaceType(seg.Args.Output, fn),
		}

		if seg.Args.Args != nil {
			args.Args = make([]GenericArg, len(seg.Args.Args))
			for j, arg := range seg.Args.Args {
				args.Args[j] = GenericArg{Type: ReplaceType(arg.Type, fn), Lifetime: arg.Lifetime, Const: arg.Const}
			}
		}

		segments[i] = PathSegment{Name: seg.Name, Args: args}
	}

	return Path{ID: p.ID, Segments: segments}
}

// ReplacePaths applies ReplacePath to each path.
func ReplacePaths(paths []Path, fn ReplaceFunc) []Path {
	if paths == nil {
		return nil
	}

	out := make([]Path, len(paths))
	for i, p := range paths {
		out[i] = ReplacePath(p, fn)
	}

	return out
}

func replaceTypes(types []Type, fn ReplaceFunc) []Type {
	if types == nil {
		return nil
	}

	out := make([]Type, len(types))
	for i, t := range types {
		out[i] = ReplaceType(t, fn)
	}

	return out
}
