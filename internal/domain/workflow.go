package domain

import (
	"context"
	"fmt"
	"log/slog"

	"fuzzplan.dev/pkg/fuzzplan/internal/adapter"
	"fuzzplan.dev/pkg/fuzzplan/internal/controller"
	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

// AnalyzeArgs contains the arguments for analyzing one surface.
type AnalyzeArgs struct {
	Surface m.FilePath
	// Impls optionally names a separate impl table merged after the
	// surface's own impls.
	Impls   m.FilePath
	Reports m.FilePath
	// Cache optionally names the trait memo snapshot.
	Cache      m.FilePath
	Parallel   int
	SolveLimit int
	Candidates []m.Type
}

// ViewArgs contains the arguments for showing a saved run.
type ViewArgs struct {
	Reports m.FilePath
}

// Workflow defines the planning workflows behind the CLI commands.
type Workflow interface {
	Analyze(ctx context.Context, args AnalyzeArgs) error
	View(ctx context.Context, args ViewArgs) error
}

type workflow struct {
	adapter.SurfaceLoader
	adapter.ReportStore
	controller.UI
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	loader adapter.SurfaceLoader,
	reportStore adapter.ReportStore,
	ui controller.UI,
) Workflow {
	return &workflow{
		SurfaceLoader: loader,
		ReportStore:   reportStore,
		UI:            ui,
	}
}

func (w *workflow) Analyze(ctx context.Context, args AnalyzeArgs) error {
	surface, impls, err := w.LoadSurface(args.Surface)
	if err != nil {
		return fmt.Errorf("load surface: %w", err)
	}

	if args.Impls != "" {
		extra, err := w.LoadImpls(args.Impls)
		if err != nil {
			return fmt.Errorf("load impls: %w", err)
		}

		impls = append(impls, extra...)
	}

	index := adapter.NewMemoryTraitImplIndex(impls)

	if args.Cache != "" {
		loaded, err := index.LoadMemoFile(args.Cache)
		if err != nil {
			slog.Warn("ignoring unreadable trait memo", "path", args.Cache, "error", err)
		} else if loaded {
			slog.Debug("loaded trait memo", "path", args.Cache, "entries", index.MemoSize())
		}
	}

	if err := w.Start(ctx, controller.WithAnalyzeMode()); err != nil {
		return fmt.Errorf("start ui: %w", err)
	}
	defer w.Close(ctx)

	w.DisplayRunInfo(ctx, surface.Crate, len(surface.Functions), args.Parallel)

	runID := w.NewRunID()
	planner := NewPlanner(adapter.NewMemoryDocIndex(surface), index)

	reports, err := planner.PlanSurface(ctx, surface, PlanOptions{
		RunID:      runID,
		Parallel:   args.Parallel,
		SolveLimit: args.SolveLimit,
		Candidates: args.Candidates,
	})
	if err != nil {
		return fmt.Errorf("plan surface: %w", err)
	}

	if args.Cache != "" {
		if err := index.SaveMemoFile(args.Cache); err != nil {
			slog.Warn("failed to save trait memo", "path", args.Cache, "error", err)
		}
	}

	path, err := w.SaveReports(args.Reports, runID, reports)
	if err != nil {
		return fmt.Errorf("save reports: %w", err)
	}

	if err := w.DisplayReports(ctx, reports); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	w.DisplayHelpers(ctx, helperSource(reports))
	w.DisplaySaved(ctx, path)
	w.Wait(ctx)

	return nil
}

func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	reports, err := w.LoadReports(args.Reports)
	if err != nil {
		return fmt.Errorf("load reports: %w", err)
	}

	if err := w.Start(ctx, controller.WithViewMode()); err != nil {
		return fmt.Errorf("start ui: %w", err)
	}
	defer w.Close(ctx)

	if err := w.DisplayReports(ctx, reports); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	w.DisplayHelpers(ctx, helperSource(reports))
	w.Wait(ctx)

	return nil
}

// helperSource renders every helper any report needs, once.
func helperSource(reports []m.FunctionReport) string {
	registry := NewHelperRegistry()

	for _, r := range reports {
		for _, h := range r.Helpers {
			registry.Add(PreludeHelper(h))
		}
	}

	return registry.Source()
}
