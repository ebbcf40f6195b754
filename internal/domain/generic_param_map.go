package domain

import (
	"log/slog"
	"strings"

	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

// boundRegistry keeps generic parameters in registration order together with
// their bounds. Position in the order is the position in a Solution.
type boundRegistry struct {
	order  []string
	bounds map[string][]m.Path
}

func newBoundRegistry() boundRegistry {
	return boundRegistry{bounds: make(map[string][]m.Path)}
}

// add registers name; the first registration wins. A repeated name keeps its
// first position and is not appended again, so a Solution has exactly one
// slot per distinct parameter.
func (r *boundRegistry) add(name string, bounds []m.Path) bool {
	if _, ok := r.bounds[name]; ok {
		return false
	}

	r.bounds[name] = bounds
	r.order = append(r.order, name)

	return true
}

func (r *boundRegistry) get(name string) ([]m.Path, bool) {
	b, ok := r.bounds[name]
	return b, ok
}

// TypePredicate is a where-clause subject with its bounds.
type TypePredicate struct {
	Subject m.Type
	Bounds  []m.Path
}

// GenericParamMap collects the solvable generic parameters of a scope and the
// where-clause predicates they must meet.
type GenericParamMap struct {
	registry boundRegistry
	preds    []TypePredicate
}

// NewGenericParamMap returns an empty map.
func NewGenericParamMap() *GenericParamMap {
	return &GenericParamMap{registry: newBoundRegistry()}
}

// GenericDefs returns the registered parameter names in solution order.
func (g *GenericParamMap) GenericDefs() []string {
	return append([]string(nil), g.registry.order...)
}

// Bounds returns the bounds registered for name.
func (g *GenericParamMap) Bounds(name string) ([]m.Path, bool) {
	return g.registry.get(name)
}

// TypePredicates returns the where-clause predicates in declaration order.
func (g *GenericParamMap) TypePredicates() []TypePredicate {
	return append([]TypePredicate(nil), g.preds...)
}

// Len is the solution length the map expects.
func (g *GenericParamMap) Len() int {
	return len(g.registry.order)
}

// AddGenerics registers the type parameters of generics. Parameters with a
// default, the one named ignore and synthetic impl-Trait parameters are
// skipped; const and lifetime parameters are never registered.
func (g *GenericParamMap) AddGenerics(generics m.Generics, ignore string) error {
	for _, param := range generics.Params {
		switch param.Kind {
		case m.ParamType:
			if param.Default != nil {
				continue
			}

			if ignore != "" && param.Name == ignore {
				continue
			}

			if param.Synthetic || strings.HasPrefix(param.Name, "impl ") {
				continue
			}

			if err := g.AddGenericBounds(param.Name, param.Bounds); err != nil {
				return err
			}
		case m.ParamConst:
			slog.Debug("ignoring const generic", "name", param.Name)
		case m.ParamLifetime:
		default:
			return contractViolation("unknown generic parameter kind %q for %s", param.Kind, param.Name)
		}
	}

	for _, pred := range generics.WherePredicates {
		switch pred.Kind {
		case m.PredicateBound:
			bounds, err := traitBounds(pred.Bounds)
			if err != nil {
				return err
			}

			g.preds = append(g.preds, TypePredicate{Subject: pred.Subject, Bounds: bounds})
		case m.PredicateRegion:
			slog.Debug("ignoring region predicate", "lifetime", pred.Lifetime)
		case m.PredicateEq:
			slog.Debug("ignoring equality predicate", "lhs", m.TypeString(pred.Subject), "rhs", m.TypeString(pred.Rhs))
		default:
			return contractViolation("unknown where predicate kind %q", pred.Kind)
		}
	}

	return nil
}

// AddGenericBounds registers a parameter. A name seen before keeps its
// original bounds and position.
func (g *GenericParamMap) AddGenericBounds(name string, bounds []m.GenericBound) error {
	paths, err := traitBounds(bounds)
	if err != nil {
		return err
	}

	if !g.registry.add(name, paths) {
		slog.Debug("generic parameter already registered", "name", name)
	}

	return nil
}

// traitBounds keeps the trait paths of bounds. Outlives and use bounds carry
// no trait requirement.
func traitBounds(bounds []m.GenericBound) ([]m.Path, error) {
	paths := make([]m.Path, 0, len(bounds))

	for _, bound := range bounds {
		switch bound.Kind {
		case m.BoundTrait:
			for _, hr := range bound.HigherRanked {
				if hr.Kind == m.ParamType {
					return nil, contractViolation("type parameter %s inside trait bound %s", hr.Name, bound.Trait.String())
				}
			}

			paths = append(paths, bound.Trait)
		case m.BoundOutlives:
			slog.Debug("ignoring lifetime bound", "lifetime", bound.Lifetime)
		case m.BoundUse:
			slog.Debug("ignoring use bound")
		default:
			return nil, contractViolation("unknown bound kind %q", bound.Kind)
		}
	}

	return paths, nil
}

// IsSolvable reports whether every bound uses plain angle-bracketed syntax.
func (g *GenericParamMap) IsSolvable() bool {
	for _, name := range g.registry.order {
		bounds, _ := g.registry.get(name)
		if hasParenthesized(bounds) {
			return false
		}
	}

	for _, pred := range g.preds {
		if hasParenthesized(pred.Bounds) {
			return false
		}
	}

	return true
}

func hasParenthesized(bounds []m.Path) bool {
	for _, b := range bounds {
		if b.IsParenthesized() {
			return true
		}
	}

	return false
}

// SetSelfType substitutes the receiver placeholder in every where-clause
// subject and bound.
func (g *GenericParamMap) SetSelfType(self m.Type) {
	replaceSelf := selfReplacer(self)

	for i, pred := range g.preds {
		g.preds[i] = TypePredicate{
			Subject: m.ReplaceType(pred.Subject, replaceSelf),
			Bounds:  m.ReplacePaths(pred.Bounds, replaceSelf),
		}
	}
}

func selfReplacer(self m.Type) m.ReplaceFunc {
	return func(t m.Type) (m.Type, bool) {
		if m.IsSelfType(t) {
			return self, true
		}

		return nil, false
	}
}
