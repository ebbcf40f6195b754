package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	faintStyle = lipgloss.NewStyle().Faint(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// reservedLines is the chrome around the list: title, summary and footer.
const reservedLines = 8

// TUI implements UI using Bubble Tea for interactive display.
type TUI struct {
	output io.Writer
	mode   StartMode
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start initializes the UI.
func (p *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mode = applyStartOptions(options).mode

	return nil
}

// Close finalizes the UI.
func (p *TUI) Close(_ context.Context) {}

// Wait returns once the pager, if any, has been closed.
func (p *TUI) Wait(_ context.Context) {}

// DisplayRunInfo shows what is about to be analyzed.
func (p *TUI) DisplayRunInfo(ctx context.Context, crate string, functions int, parallel int) {
	if err := ctx.Err(); err != nil {
		return
	}

	_, _ = fmt.Fprintf(p.output, "%s %s: %d function(s), %d worker(s)\n",
		titleStyle.Render("fuzzplan"), crate, functions, parallel)
}

// DisplayReports pages the reports when they do not fit the terminal.
func (p *TUI) DisplayReports(ctx context.Context, reports []m.FunctionReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	model := newReportModel(reports, p.mode)

	if f, ok := p.output.(*os.File); ok {
		width, height, err := term.GetSize(int(f.Fd()))
		if err == nil {
			model.height = height
			model.width = width
		}
	}

	if !model.needsPagination() {
		_, err := fmt.Fprint(p.output, model.View())
		return err
	}

	program := tea.NewProgram(model, tea.WithOutput(p.output), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return err
	}

	return nil
}

// DisplayHelpers prints the helper definitions a harness must include.
func (p *TUI) DisplayHelpers(ctx context.Context, source string) {
	if err := ctx.Err(); err != nil || source == "" {
		return
	}

	_, _ = fmt.Fprintf(p.output, "\n%s\n%s", titleStyle.Render("Required helpers"), source)
}

// DisplaySaved reports where the run was stored.
func (p *TUI) DisplaySaved(ctx context.Context, path m.FilePath) {
	if err := ctx.Err(); err != nil {
		return
	}

	_, _ = fmt.Fprintf(p.output, "%s %s\n", faintStyle.Render("saved"), path)
}

// reportModel is the Bubble Tea model listing one line per function and
// one indented line per parameter.
type reportModel struct {
	lines    []string
	stats    reportStats
	mode     StartMode
	height   int
	width    int
	offset   int
	quitting bool
}

func newReportModel(reports []m.FunctionReport, mode StartMode) reportModel {
	return reportModel{
		lines: buildReportLines(reports),
		stats: summarize(reports),
		mode:  mode,
	}
}

func buildReportLines(reports []m.FunctionReport) []string {
	lines := []string{}

	for _, r := range reports {
		icon := okStyle.Render("✓")
		if !r.Fuzzable {
			icon = badStyle.Render("✗")
		}

		header := fmt.Sprintf("  %s %s", icon, r.Function)
		if r.Solution != "" {
			header += " " + faintStyle.Render(r.Solution)
		}

		lines = append(lines, header)

		if r.Error != "" {
			lines = append(lines, "      "+badStyle.Render(r.Error))
			continue
		}

		for _, param := range r.Params {
			if !param.Fuzzable {
				lines = append(lines, fmt.Sprintf("      %s: %s %s", param.Name, param.Type, faintStyle.Render("not fuzzable")))
				continue
			}

			lines = append(lines, fmt.Sprintf("      %s: %s <- %s (min %d bytes)",
				param.Name, param.Type, param.CallExpr, param.MinLength))
		}
	}

	return lines
}

func (rm reportModel) Init() tea.Cmd {
	return nil
}

func (rm reportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		rm.height = msg.Height
		rm.width = msg.Width

		return rm, nil

	case tea.KeyMsg:
		return rm.handleKeyPress(msg)
	}

	return rm, nil
}

func (rm reportModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	//nolint:exhaustive // We only handle specific navigation keys
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		rm.quitting = true
		return rm, tea.Quit
	default:
	}

	switch msg.String() {
	case "q":
		rm.quitting = true
		return rm, tea.Quit

	case "down", "j":
		rm.offset = rm.clamp(rm.offset + 1)

	case "up", "k":
		rm.offset = rm.clamp(rm.offset - 1)

	case "g", "home":
		rm.offset = 0

	case "G", "end":
		rm.offset = rm.maxOffset()

	case "d", "pgdown":
		rm.offset = rm.clamp(rm.offset + rm.itemsPerPage())

	case "u", "pgup":
		rm.offset = rm.clamp(rm.offset - rm.itemsPerPage())
	}

	return rm, nil
}

func (rm reportModel) clamp(offset int) int {
	if offset < 0 {
		return 0
	}

	return min(offset, rm.maxOffset())
}

func (rm reportModel) itemsPerPage() int {
	if rm.height == 0 {
		return 10
	}

	available := rm.height - reservedLines
	if available < 1 {
		return 1
	}

	return available
}

func (rm reportModel) maxOffset() int {
	maxOff := len(rm.lines) - rm.itemsPerPage()
	if maxOff < 0 {
		return 0
	}

	return maxOff
}

func (rm reportModel) needsPagination() bool {
	if len(rm.lines) == 0 || rm.height == 0 {
		return false
	}

	return len(rm.lines) > rm.itemsPerPage()
}

func (rm reportModel) View() string {
	if rm.quitting {
		return ""
	}

	var b strings.Builder

	title := "Fuzz plan"
	if rm.mode == ModeView {
		title = "Saved fuzz plan"
	}

	b.WriteString(titleStyle.Render(title) + "\n\n")

	if len(rm.lines) == 0 {
		b.WriteString("  No functions found\n")
		return b.String()
	}

	visible := rm.lines
	paged := rm.needsPagination()

	if paged {
		end := min(rm.offset+rm.itemsPerPage(), len(rm.lines))
		visible = rm.lines[rm.offset:end]
	}

	for _, line := range visible {
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "  Functions: %d | Fuzzable: %d | Solved: %d/%d | Failed: %d\n",
		rm.stats.functions, rm.stats.fuzzable, rm.stats.solved, rm.stats.generic, rm.stats.failed)

	if paged {
		end := min(rm.offset+rm.itemsPerPage(), len(rm.lines))
		fmt.Fprintf(&b, "\n  Lines %d-%d of %d\n", rm.offset+1, end, len(rm.lines))
		b.WriteString(faintStyle.Render("  ↑/k: up | ↓/j: down | g: top | G: bottom | q: quit") + "\n")
	}

	return b.String()
}
