package domain

import (
	"cmp"
	"context"
	"log/slog"

	"github.com/hashicorp/go-set/v3"

	"fuzzplan.dev/pkg/fuzzplan/internal/adapter"
	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

func newImplSet() *set.TreeSet[m.ImplID] {
	return set.NewTreeSet[m.ImplID](cmp.Compare[m.ImplID])
}

// SubstituteGenerics replaces every generic parameter named in defs with the
// type bound to it by solution.
func SubstituteGenerics(t m.Type, solution m.Solution, defs []string) m.Type {
	if t == nil {
		return nil
	}

	return m.ReplaceType(t, solutionReplacer(solution, defs))
}

func solutionReplacer(solution m.Solution, defs []string) m.ReplaceFunc {
	bound := make(map[string]m.Type, len(defs))

	for i, name := range defs {
		if i < len(solution) {
			bound[name] = solution[i]
		}
	}

	return func(t m.Type) (m.Type, bool) {
		g, ok := t.(m.Generic)
		if !ok {
			return nil, false
		}

		ty, ok := bound[g.Name]

		return ty, ok
	}
}

// CheckSolution verifies every parameter bound and where-clause predicate
// under solution. It returns the implementations that justify the solution,
// or false at the first unsatisfiable bound.
func (g *GenericParamMap) CheckSolution(solution m.Solution, index adapter.TraitImplIndex) (*set.TreeSet[m.ImplID], bool, error) {
	if len(solution) != g.Len() {
		return nil, false, contractViolation("solution %s has %d types, expected %d", solution.String(), len(solution), g.Len())
	}

	used := newImplSet()

	for i, name := range g.registry.order {
		bounds, _ := g.registry.get(name)
		if len(bounds) == 0 {
			continue
		}

		ids, ok, err := satisfies(index, solution[i], bounds)
		if err != nil || !ok {
			return nil, false, err
		}

		used.InsertSet(ids)
	}

	replace := solutionReplacer(solution, g.registry.order)

	for _, pred := range g.preds {
		// Associated-type projections are assumed to hold.
		if _, ok := pred.Subject.(m.QPath); ok {
			continue
		}

		subject := m.ReplaceType(pred.Subject, replace)
		bounds := m.ReplacePaths(pred.Bounds, replace)

		ids, ok, err := satisfies(index, subject, bounds)
		if err != nil || !ok {
			return nil, false, err
		}

		used.InsertSet(ids)
	}

	return used, true, nil
}

func satisfies(index adapter.TraitImplIndex, ty m.Type, bounds []m.Path) (*set.TreeSet[m.ImplID], bool, error) {
	if hasParenthesized(bounds) {
		return nil, false, contractViolation("parenthesized bound %s on %s", m.BoundsString(bounds), m.TypeString(ty))
	}

	ids, ok := index.Satisfies(ty, bounds)
	if !ok {
		slog.Debug("bound not satisfied", "type", m.TypeString(ty), "bounds", m.BoundsString(bounds))
		return nil, false, nil
	}

	return ids, true, nil
}

// SolveResult is an accepted solution together with its justification.
type SolveResult struct {
	Solution m.Solution
	Impls    *set.TreeSet[m.ImplID]
	// Tried counts the candidate solutions checked, including the accepted one.
	Tried int
}

// Solver searches a candidate type pool for solutions of a GenericParamMap.
type Solver struct {
	index adapter.TraitImplIndex
}

// NewSolver constructs a Solver that checks bounds against index.
func NewSolver(index adapter.TraitImplIndex) *Solver {
	return &Solver{index: index}
}

// Solve enumerates solutions drawn from candidates in lexicographic order
// and returns the first one CheckSolution accepts. At most limit solutions
// are tried; a limit of zero or less means no limit.
func (s *Solver) Solve(ctx context.Context, params *GenericParamMap, candidates []m.Type, limit int) (SolveResult, bool, error) {
	n := params.Len()
	if n > 0 && len(candidates) == 0 {
		return SolveResult{}, false, nil
	}

	// odometer[i] indexes candidates for parameter i; the last position
	// turns fastest.
	odometer := make([]int, n)
	tried := 0

	for {
		if err := ctx.Err(); err != nil {
			return SolveResult{Tried: tried}, false, err
		}

		if limit > 0 && tried >= limit {
			slog.Debug("solution search limit reached", "limit", limit)
			return SolveResult{Tried: tried}, false, nil
		}

		solution := make(m.Solution, n)
		for i, c := range odometer {
			solution[i] = candidates[c]
		}

		tried++

		ids, ok, err := params.CheckSolution(solution, s.index)
		if err != nil {
			return SolveResult{Tried: tried}, false, err
		}

		if ok {
			slog.Debug("solution found", "solution", solution.String(), "tried", tried)
			return SolveResult{Solution: solution, Impls: ids, Tried: tried}, true, nil
		}

		if !advance(odometer, len(candidates)) {
			return SolveResult{Tried: tried}, false, nil
		}
	}
}

// advance steps the odometer and reports false once it wraps around.
func advance(odometer []int, base int) bool {
	for i := len(odometer) - 1; i >= 0; i-- {
		odometer[i]++
		if odometer[i] < base {
			return true
		}

		odometer[i] = 0
	}

	return false
}
