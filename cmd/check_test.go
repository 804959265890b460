package cmd

import (
	"bytes"
	"errors"
	"testing"

	m "github.com/safer-rust/rust-safety-standard/internal/model"
	"github.com/stretchr/testify/require"
)

func newCheckTestCmd(stub *stubWorkflow, t *testing.T) *bytes.Buffer {
	t.Helper()
	swapWorkflow(t, stub)
	return &bytes.Buffer{}
}

func TestCheckCmd_PassesArgsToWorkflow(t *testing.T) {
	stub := &stubWorkflow{}
	out := newCheckTestCmd(stub, t)

	cmd := newRootCmd()
	configureRootFlags(cmd)
	cmd.AddCommand(newCheckCmd())
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{"check", "core.crate.yaml", "--criterion", "crate", "--parallel", "4"})
	err := cmd.Execute()
	require.NoError(t, err)

	require.NotNil(t, stub.checkArgs)
	require.Equal(t, []m.Path{m.Path("core.crate.yaml")}, stub.checkArgs.Paths)
	require.Equal(t, m.CrateLevel, stub.checkArgs.Criterion)
	require.Equal(t, 4, stub.checkArgs.Parallel)
	require.Equal(t, m.Path(".soundcheck-reports"), stub.checkArgs.Reports)
}

func TestCheckCmd_ViolationsExitWithError(t *testing.T) {
	stub := &stubWorkflow{violations: 3}
	out := newCheckTestCmd(stub, t)

	cmd := newRootCmd()
	configureRootFlags(cmd)
	cmd.AddCommand(newCheckCmd())
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{"check", "--criterion", "module"})
	err := cmd.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "3 soundness violation(s)")
}

func TestCheckCmd_RejectsUnknownCriterion(t *testing.T) {
	stub := &stubWorkflow{}
	out := newCheckTestCmd(stub, t)

	cmd := newRootCmd()
	configureRootFlags(cmd)
	cmd.AddCommand(newCheckCmd())
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{"check", "--criterion", "galaxy"})
	err := cmd.Execute()
	require.Error(t, err)
	require.Nil(t, stub.checkArgs)
}

func TestCheckCmd_WorkflowErrorIsPropagated(t *testing.T) {
	stub := &stubWorkflow{err: errors.New("no snapshots")}
	out := newCheckTestCmd(stub, t)

	cmd := newRootCmd()
	configureRootFlags(cmd)
	cmd.AddCommand(newCheckCmd())
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{"check", "--criterion", "module"})
	err := cmd.Execute()
	require.ErrorContains(t, err, "no snapshots")
}
