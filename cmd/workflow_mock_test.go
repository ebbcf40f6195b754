package cmd

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fuzzplan.dev/pkg/fuzzplan/internal/domain"
)

type mockWorkflow struct {
	mock.Mock
}

func newMockWorkflow(t interface {
	mock.TestingT
	Cleanup(func())
}) *mockWorkflow {
	w := &mockWorkflow{}
	w.Test(t)
	t.Cleanup(func() { w.AssertExpectations(t) })

	return w
}

func (w *mockWorkflow) Analyze(ctx context.Context, args domain.AnalyzeArgs) error {
	return w.Called(ctx, args).Error(0)
}

func (w *mockWorkflow) View(ctx context.Context, args domain.ViewArgs) error {
	return w.Called(ctx, args).Error(0)
}

// useWorkflow swaps the package workflow for the duration of a test.
func useWorkflow(t interface{ Cleanup(func()) }, w domain.Workflow) {
	original := workflow
	workflow = w

	t.Cleanup(func() { workflow = original })
}
