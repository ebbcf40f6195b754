package controller

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

var (
	fuzzableColor    = color.New(color.FgGreen)
	notFuzzableColor = color.New(color.FgYellow)
	errorColor       = color.New(color.FgRed, color.Bold)
)

// SimpleUI implements UI using cobra Command's output.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// DisplayRunInfo shows what is about to be analyzed.
func (s *SimpleUI) DisplayRunInfo(ctx context.Context, crate string, functions int, parallel int) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Analyzing %d function(s) of %s with %d worker(s)\n", functions, crate, parallel)
}

// DisplayReports prints one table row per parameter and a footer with totals.
func (s *SimpleUI) DisplayReports(ctx context.Context, reports []m.FunctionReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s", renderReportTable(reports))

	return nil
}

// DisplayHelpers prints the helper definitions a harness must include.
func (s *SimpleUI) DisplayHelpers(ctx context.Context, source string) {
	if err := ctx.Err(); err != nil {
		return
	}

	if source == "" {
		return
	}

	s.printf("\nRequired helpers:\n%s", source)
}

// DisplaySaved reports where the run was stored.
func (s *SimpleUI) DisplaySaved(ctx context.Context, path m.FilePath) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Reports saved to %s\n", path)
}

func renderReportTable(reports []m.FunctionReport) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Function", "Param", "Fuzzable", "Call", "Min", "Dyn"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	for _, r := range reports {
		for _, row := range reportRows(r) {
			table.Append(row)
		}
	}

	stats := summarize(reports)
	table.SetFooter([]string{
		fmt.Sprintf("Total %d", stats.functions),
		"",
		fmt.Sprintf("%d fuzzable", stats.fuzzable),
		fmt.Sprintf("%d/%d solved", stats.solved, stats.generic),
		"",
		fmt.Sprintf("%d failed", stats.failed),
	})

	table.Render()

	return tableBuffer.String()
}

func reportRows(r m.FunctionReport) [][]string {
	name := r.Function
	if r.Solution != "" {
		name += " " + r.Solution
	}

	if r.Error != "" {
		return [][]string{{name, "", errorColor.Sprint("error"), r.Error, "", ""}}
	}

	if len(r.Params) == 0 {
		return [][]string{{name, "-", verdict(r.Fuzzable), "", "0", "0"}}
	}

	rows := make([][]string, 0, len(r.Params))

	for i, p := range r.Params {
		fn := ""
		if i == 0 {
			fn = name
		}

		rows = append(rows, []string{
			fn,
			p.Name + ": " + p.Type,
			verdict(p.Fuzzable),
			callColumn(p),
			fmt.Sprintf("%d", p.MinLength),
			fmt.Sprintf("%d", p.DynamicCount),
		})
	}

	return rows
}

func callColumn(p m.ParamReport) string {
	if !p.Fuzzable {
		return ""
	}

	return strings.TrimSpace(p.CallExpr)
}

func verdict(fuzzable bool) string {
	if fuzzable {
		return fuzzableColor.Sprint("yes")
	}

	return notFuzzableColor.Sprint("no")
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
