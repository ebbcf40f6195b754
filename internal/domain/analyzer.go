package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"fuzzplan.dev/pkg/fuzzplan/internal/adapter"
	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

// PlanOptions tunes one surface analysis.
type PlanOptions struct {
	RunID string
	// Parallel bounds the classification workers; zero means unbounded.
	Parallel int
	// SolveLimit caps the solutions tried per function; zero means no cap.
	SolveLimit int
	// Candidates extends the surface's own candidate pool.
	Candidates []m.Type
}

// Planner produces fuzz plans for the functions of an API surface.
type Planner struct {
	classifier *Classifier
	prelude    *PreludeResolver
	solver     *Solver
}

// NewPlanner constructs a Planner over the given indexes.
func NewPlanner(docs adapter.DocIndex, index adapter.TraitImplIndex) *Planner {
	return &Planner{
		classifier: NewClassifier(docs),
		prelude:    NewPreludeResolver(docs),
		solver:     NewSolver(index),
	}
}

// GenericPlan is the outcome of the generic phase for one function.
type GenericPlan struct {
	Generic  bool
	Defs     []string
	Solution m.Solution
	Impls    []string
	Solvable bool
}

type solvedFunction struct {
	plan GenericPlan
	err  error
}

// PlanSurface solves every function's generics, then classifies the
// parameters of all functions concurrently. A contract violation only fails
// the function it occurs in.
func (p *Planner) PlanSurface(ctx context.Context, surface m.Surface, opts PlanOptions) ([]m.FunctionReport, error) {
	candidates := append(append([]m.Type{}, surface.Candidates...), opts.Candidates...)

	// Solving shares the trait index memo and stays sequential.
	solutions := make([]solvedFunction, len(surface.Functions))

	for i, fn := range surface.Functions {
		plan, err := p.SolveFunction(ctx, fn, candidates, opts.SolveLimit)
		if err != nil && !errors.Is(err, ErrContractViolation) {
			return nil, fmt.Errorf("solve %s: %w", fn.Path, err)
		}

		solutions[i] = solvedFunction{plan: plan, err: err}
	}

	// Each worker owns one slot.
	reports := make([]m.FunctionReport, len(surface.Functions))

	group, groupCtx := errgroup.WithContext(ctx)
	if opts.Parallel > 0 {
		group.SetLimit(opts.Parallel)
	}

	for i, fn := range surface.Functions {
		currentIndex := i
		currentFunction := fn

		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			report := p.planFunction(currentFunction, solutions[currentIndex])
			report.RunID = opts.RunID
			reports[currentIndex] = report

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	slog.Info("planned surface", "crate", surface.Crate, "functions", len(reports))

	return reports, nil
}

// ParamMap builds the generic parameter map of fn. Impl-level generics come
// first, with the receiver placeholder left out.
func ParamMap(fn m.Function) (*GenericParamMap, error) {
	params := NewGenericParamMap()

	if fn.ImplGenerics != nil {
		if err := params.AddGenerics(*fn.ImplGenerics, m.SelfTypeName); err != nil {
			return nil, err
		}
	}

	if err := params.AddGenerics(fn.Generics, ""); err != nil {
		return nil, err
	}

	if fn.SelfType != nil {
		params.SetSelfType(fn.SelfType)
	}

	return params, nil
}

// SolveFunction searches candidates for a solution of fn's generics.
// Functions without generics are trivially solvable.
func (p *Planner) SolveFunction(ctx context.Context, fn m.Function, candidates []m.Type, limit int) (GenericPlan, error) {
	params, err := ParamMap(fn)
	if err != nil {
		return GenericPlan{}, err
	}

	if params.Len() == 0 && len(params.TypePredicates()) == 0 {
		return GenericPlan{Solvable: true}, nil
	}

	out := GenericPlan{Generic: true, Defs: params.GenericDefs()}

	if !params.IsSolvable() {
		slog.Debug("generics use parenthesized bounds", "function", fn.Path)
		return out, nil
	}

	res, ok, err := p.solver.Solve(ctx, params, candidates, limit)
	if err != nil {
		return out, err
	}

	if !ok {
		slog.Debug("no solution", "function", fn.Path, "tried", res.Tried)
		return out, nil
	}

	out.Solution = res.Solution
	out.Solvable = true

	for _, id := range res.Impls.Slice() {
		out.Impls = append(out.Impls, string(id))
	}

	return out, nil
}

func (p *Planner) planFunction(fn m.Function, s solvedFunction) m.FunctionReport {
	report := m.FunctionReport{
		Function: fn.Path,
		Generic:  s.plan.Generic,
		Impls:    s.plan.Impls,
		Solvable: s.plan.Solvable,
	}

	if s.plan.Solution != nil {
		report.Solution = s.plan.Solution.String()
	}

	if s.err != nil {
		report.Error = s.err.Error()
		return report
	}

	helpers := NewHelperRegistry()
	fuzzable := true

	for _, param := range fn.Params {
		pr, err := p.PlanParam(param, fn.SelfType, s.plan.Solution, s.plan.Defs)
		if err != nil {
			slog.Warn("contract violation", "function", fn.Path, "param", param.Name, "error", err)
			report.Error = err.Error()
			report.Fuzzable = false

			return report
		}

		fuzzable = fuzzable && pr.Fuzzable
		report.Params = append(report.Params, pr)
	}

	if fn.Output != nil {
		ty := SubstituteGenerics(fn.Output, s.plan.Solution, s.plan.Defs)
		if fn.SelfType != nil {
			ty = m.ReplaceType(ty, selfReplacer(fn.SelfType))
		}

		output, err := p.OutputCall(ty)
		if err != nil {
			report.Error = err.Error()
			return report
		}

		helpers.Collect(output)
		report.OutputCall = output.String()
	}

	for _, h := range helpers.Helpers() {
		report.Helpers = append(report.Helpers, string(h))
	}

	report.Fuzzable = fuzzable

	return report
}

// PlanParam classifies and projects one parameter after substituting the
// receiver type and the solved generics.
func (p *Planner) PlanParam(param m.Param, self m.Type, solution m.Solution, defs []string) (m.ParamReport, error) {
	ty := SubstituteGenerics(param.Type, solution, defs)

	if self != nil {
		ty = m.ReplaceType(ty, selfReplacer(self))
	}

	node, err := p.classifier.Classify(ty)
	if err != nil {
		return m.ParamReport{}, fmt.Errorf("param %s: %w", param.Name, err)
	}

	proj, err := projectNode(node)
	if err != nil {
		return m.ParamReport{}, fmt.Errorf("param %s: %w", param.Name, err)
	}

	layout := Layout(proj.Fuzzable)

	return m.ParamReport{
		Name:            param.Name,
		Type:            m.TypeString(ty),
		Fuzzable:        proj.OK(),
		FuzzableType:    FuzzableTypeString(proj.Fuzzable),
		CallType:        proj.Call.String(),
		CallExpr:        proj.Call.Apply(param.Name),
		FixedLength:     layout.FixedLength,
		MinLength:       layout.MinLength,
		FixedPartLength: layout.FixedPartLength,
		DynamicCount:    layout.DynamicCount,
		MultiDynamic:    layout.MultiDynamic,
	}, nil
}

// projectNode runs Project and returns a contract violation panic as an
// error. Other panics propagate.
func projectNode(node m.FuzzableCallType) (proj m.Projection, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		perr, ok := r.(error)
		if !ok || !errors.Is(perr, ErrContractViolation) {
			panic(r)
		}

		err = perr
	}()

	return Project(node), nil
}

// OutputCall returns the unwraps that turn a return value into its final
// payload, outermost container first.
func (p *Planner) OutputCall(t m.Type) (m.CallType, error) {
	var call m.CallType = m.DirectCall{}

	for {
		prelude, ok, err := p.prelude.Resolve(t)
		if err != nil {
			return nil, err
		}

		if !ok {
			return call, nil
		}

		call = prelude.UnwrapCallType(call)
		t = prelude.FinalType()
	}
}
