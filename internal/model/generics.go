package model

// GenericParamKind distinguishes type, const and lifetime parameters.
type GenericParamKind string

const (
	ParamType     GenericParamKind = "type"
	ParamConst    GenericParamKind = "const"
	ParamLifetime GenericParamKind = "lifetime"
)

// Generics is the generic parameter list and where-clause of one item.
type Generics struct {
	Params          []GenericParamDef
	WherePredicates []WherePredicate
}

// GenericParamDef declares one generic parameter.
type GenericParamDef struct {
	Name   string
	Kind   GenericParamKind
	Bounds []GenericBound
	// Default is the declared default type, nil when absent.
	Default Type
	// Synthetic marks parameters desugared from argument-position impl Trait.
	Synthetic bool
}

// BoundKind distinguishes the shapes a bound can take.
type BoundKind string

const (
	BoundTrait    BoundKind = "trait"
	BoundOutlives BoundKind = "outlives"
	BoundUse      BoundKind = "use"
)

// GenericBound is T: Trait, T: 'a or use<..>.
type GenericBound struct {
	Kind  BoundKind
	Trait Path
	// HigherRanked holds for<..> parameters of a trait bound.
	HigherRanked []GenericParamDef
	Lifetime     string
}

// PredicateKind distinguishes where-clause shapes.
type PredicateKind string

const (
	PredicateBound  PredicateKind = "bound"
	PredicateRegion PredicateKind = "region"
	PredicateEq     PredicateKind = "eq"
)

// WherePredicate is one where-clause entry.
type WherePredicate struct {
	Kind    PredicateKind
	Subject Type
	Bounds  []GenericBound
	// Lifetime and Rhs are only set for region and eq predicates.
	Lifetime string
	Rhs      Type
}

// ImplID identifies one trait implementation in the trait-implementation index.
type ImplID string

// Solution binds generic parameters positionally to concrete types.
type Solution []Type

// String renders the solution as [A, B].
func (s Solution) String() string {
	return "[" + typeListString(s) + "]"
}

func typeListString(types []Type) string {
	out := ""

	for i, t := range types {
		if i > 0 {
			out += ", "
		}

		out += TypeString(t)
	}

	return out
}
