package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
	"fuzzplan.dev/pkg/fuzzplan/pkg"
)

const reportExt = ".gob"

// ErrNoReports is returned when a reports directory holds no run.
var ErrNoReports = errors.New("no reports found")

// ReportStore persists function reports, one file per run.
type ReportStore interface {
	// NewRunID returns a fresh identifier for a run.
	NewRunID() string
	// SaveReports writes the reports of runID under dir and returns the file.
	SaveReports(dir m.FilePath, runID string, reports []m.FunctionReport) (m.FilePath, error)
	// LoadReports reads the most recent run under dir.
	LoadReports(dir m.FilePath) ([]m.FunctionReport, error)
}

type reportStore struct{}

// NewReportStore constructs a ReportStore backed by gob spill files.
func NewReportStore() ReportStore {
	return &reportStore{}
}

func (s *reportStore) NewRunID() string {
	return uuid.NewString()
}

func (s *reportStore) SaveReports(dir m.FilePath, runID string, reports []m.FunctionReport) (m.FilePath, error) {
	if runID == "" {
		return "", errors.New("empty run id")
	}

	path := filepath.Join(string(dir), runID+reportExt)

	spill, err := pkg.CreateFileSpill[m.FunctionReport](path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}

	if err := spill.AppendBatch(reports); err != nil {
		_ = spill.Close()
		return "", fmt.Errorf("write reports: %w", err)
	}

	if err := spill.Close(); err != nil {
		return "", fmt.Errorf("close report file: %w", err)
	}

	slog.Info("saved reports", "path", path, "count", len(reports))

	return m.FilePath(path), nil
}

func (s *reportStore) LoadReports(dir m.FilePath) ([]m.FunctionReport, error) {
	path, err := latestReport(string(dir))
	if err != nil {
		return nil, err
	}

	spill, err := pkg.OpenFileSpill[m.FunctionReport](path)
	if err != nil {
		return nil, fmt.Errorf("open reports %s: %w", path, err)
	}

	defer func() {
		_ = spill.Close()
	}()

	reports := make([]m.FunctionReport, 0, spill.Len())

	err = spill.Range(func(_ uint64, report m.FunctionReport) error {
		reports = append(reports, report)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read reports %s: %w", path, err)
	}

	return reports, nil
}

// latestReport returns the most recently modified run file in dir.
func latestReport(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w in %s", ErrNoReports, dir)
	}

	if err != nil {
		return "", fmt.Errorf("read reports dir: %w", err)
	}

	type runFile struct {
		path    string
		modUnix int64
	}

	runs := make([]runFile, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), reportExt) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		runs = append(runs, runFile{path: filepath.Join(dir, entry.Name()), modUnix: info.ModTime().UnixNano()})
	}

	if len(runs) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoReports, dir)
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].modUnix != runs[j].modUnix {
			return runs[i].modUnix > runs[j].modUnix
		}

		return runs[i].path > runs[j].path
	})

	return runs[0].path, nil
}
