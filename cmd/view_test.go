package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/safer-rust/rust-safety-standard/internal/controller"
	"github.com/safer-rust/rust-safety-standard/internal/domain"
	m "github.com/safer-rust/rust-safety-standard/internal/model"
	"github.com/stretchr/testify/require"
)

// stubWorkflow records the arguments each operation was called with.
type stubWorkflow struct {
	checkArgs    *domain.CheckArgs
	estimateArgs *domain.EstimateArgs
	viewArgs     *domain.ViewArgs
	violations   int
	err          error
}

func (s *stubWorkflow) Check(_ context.Context, args domain.CheckArgs) (int, error) {
	s.checkArgs = &args
	return s.violations, s.err
}

func (s *stubWorkflow) Estimate(_ context.Context, args domain.EstimateArgs) error {
	s.estimateArgs = &args
	return s.err
}

func (s *stubWorkflow) View(_ context.Context, args domain.ViewArgs) error {
	s.viewArgs = &args
	return s.err
}

// swapWorkflow substitutes the stub for the package workflow. The factory is
// swapped too because UI selection rebuilds the workflow before every command.
func swapWorkflow(t *testing.T, stub *stubWorkflow) {
	t.Helper()

	original := workflow
	originalFactory := newWorkflow
	workflow = stub
	newWorkflow = func(controller.UI) domain.Workflow { return stub }
	t.Cleanup(func() {
		workflow = original
		newWorkflow = originalFactory
	})
}

func TestViewCmd_UsesRootOutputFlagByDefault(t *testing.T) {
	stub := &stubWorkflow{}
	swapWorkflow(t, stub)

	cmd := newRootCmd()
	configureRootFlags(cmd)
	cmd.AddCommand(newViewCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{"view"})
	err := cmd.Execute()
	require.NoError(t, err)

	require.NotNil(t, stub.viewArgs)
	require.Equal(t, m.Path(".soundcheck-reports"), stub.viewArgs.Reports)
}

func TestViewCmd_RootOutputFlagIsPassedThrough(t *testing.T) {
	stub := &stubWorkflow{}
	swapWorkflow(t, stub)

	cmd := newRootCmd()
	configureRootFlags(cmd)
	cmd.AddCommand(newViewCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{"view", "--output", "./reports-dir"})
	err := cmd.Execute()
	require.NoError(t, err)

	require.NotNil(t, stub.viewArgs)
	require.Equal(t, m.Path("./reports-dir"), stub.viewArgs.Reports)
}

func TestViewCmd_PositionalArgsAreRejected(t *testing.T) {
	stub := &stubWorkflow{}
	swapWorkflow(t, stub)

	cmd := newRootCmd()
	cmd.AddCommand(newViewCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{"view", "./custom-reports"})
	err := cmd.Execute()
	require.Error(t, err)
	require.Nil(t, stub.viewArgs)
}
