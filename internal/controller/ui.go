// Package controller provides output adapters for displaying fuzz plans.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeAnalyze StartMode = iota
	ModeView
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithAnalyzeMode sets the UI to analysis mode.
func WithAnalyzeMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeAnalyze
	}
}

// WithViewMode sets the UI to report viewing mode.
func WithViewMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeView
	}
}

// Mode returns the configured StartMode.
func (c StartConfig) Mode() StartMode {
	return c.mode
}

func applyStartOptions(options []StartOption) StartConfig {
	cfg := StartConfig{mode: ModeAnalyze}
	for _, opt := range options {
		opt(&cfg)
	}

	return cfg
}

// UI defines the interface for displaying fuzz plans.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context)
	DisplayRunInfo(ctx context.Context, crate string, functions int, parallel int)
	DisplayReports(ctx context.Context, reports []m.FunctionReport) error
	DisplayHelpers(ctx context.Context, source string)
	DisplaySaved(ctx context.Context, path m.FilePath)
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewUI picks the paging TUI for terminals and the plain table otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// reportStats summarizes a run for footers.
type reportStats struct {
	functions int
	fuzzable  int
	solved    int
	generic   int
	failed    int
}

func summarize(reports []m.FunctionReport) reportStats {
	var stats reportStats

	for _, r := range reports {
		stats.functions++

		if r.Fuzzable {
			stats.fuzzable++
		}

		if r.Generic {
			stats.generic++
		}

		if r.Generic && r.Solvable {
			stats.solved++
		}

		if r.Error != "" {
			stats.failed++
		}
	}

	return stats
}
