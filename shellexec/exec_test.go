package shellexec

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

func testDir() string {
	dir, err := ioutil.TempDir("", "flowrun-test-")
	if err != nil {
		panic(err)
	}
	return dir
}

func TestBashExecutorRunsCommandInWorkingDirectory(t *testing.T) {
	dir := testDir()
	ctx := context.Background()
	e := NewBash()

	var stdout bytes.Buffer
	err := e.Execute(ctx, Opts{
		Command:          "echo HI $PWD",
		WorkingDirectory: dir,
		Stdout:           &stdout,
	})
	require.Nil(t, err)

	out := strings.TrimSpace(stdout.String())
	lines := strings.Split(out, "\n")
	require.Equal(t, fmt.Sprintf("HI %s", dir), lines[len(lines)-1])
}

func TestBashExecutorReturnsErrorOnNonZeroExit(t *testing.T) {
	ctx := context.Background()
	e := NewBash()

	err := e.Execute(ctx, Opts{Command: "exit 3"})
	require.Error(t, err)
}

func TestShellGroupJoinAllCollectsErrors(t *testing.T) {
	ctx := context.Background()
	group := NewShellGroup(NewBash())

	group.Spawn(ctx, Opts{Command: "exit 1"})
	group.Spawn(ctx, Opts{Command: "true"})

	err := group.JoinAll()
	require.Error(t, err)
}

func TestShellGroupRunExecutesSynchronously(t *testing.T) {
	ctx := context.Background()
	group := NewShellGroup(NewBash())

	var stdout bytes.Buffer
	err := group.Run(ctx, Opts{Command: "echo done", Stdout: &stdout})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Equal(t, "done", lines[len(lines)-1])
}
