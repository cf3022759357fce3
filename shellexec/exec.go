// Package shellexec is the "shell command execution primitive" named as an
// out-of-scope external collaborator in spec section 1. It is implemented
// minimally, grounded on the teacher's exec/exec.go bashExecutor, so
// RunWrapper has something real to run a rule's payload against and to
// join spawned shells on (Snakemake's shell.join_all()).
package shellexec

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/fatih/color"
)

// Opts configure a single command execution
type Opts struct {
	Name             string
	Command          string
	WorkingDirectory string
	Env              []string
	Stdout           io.Writer
	Stderr           io.Writer
	Image            string // non-empty selects a Docker-backed Executor
}

// Executor runs a single shell command, matching the teacher's
// exec.Executor interface.
type Executor interface {
	Execute(ctx context.Context, opts Opts) error
}

// ShellGroup tracks shells spawned by a running rule payload so RunWrapper
// can join them all before reporting the job finished, mirroring
// Snakemake's shell.join_all().
type ShellGroup struct {
	wg     sync.WaitGroup
	mu     sync.Mutex
	errs   []error
	execer Executor
}

// NewShellGroup returns a ShellGroup that runs commands with execer.
func NewShellGroup(execer Executor) *ShellGroup {
	if execer == nil {
		execer = NewBash()
	}
	return &ShellGroup{execer: execer}
}

// Spawn runs a command asynchronously as part of this group.
func (g *ShellGroup) Spawn(ctx context.Context, opts Opts) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if err := g.execer.Execute(ctx, opts); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, err)
			g.mu.Unlock()
		}
	}()
}

// Run executes a command synchronously as part of this group.
func (g *ShellGroup) Run(ctx context.Context, opts Opts) error {
	return g.execer.Execute(ctx, opts)
}

// JoinAll blocks until every spawned shell has terminated, returning the
// first error observed, if any.
func (g *ShellGroup) JoinAll() error {
	g.wg.Wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.errs) > 0 {
		return g.errs[0]
	}
	return nil
}

// bashExecutor runs commands via bash -e, grounded on exec/exec.go.
type bashExecutor struct{}

// NewBash returns an Executor that runs commands through bash.
func NewBash() Executor {
	return &bashExecutor{}
}

func (e *bashExecutor) Execute(ctx context.Context, opts Opts) error {
	environment := append(os.Environ(), opts.Env...)

	workingDir := opts.WorkingDirectory
	if workingDir == "" {
		workingDir = "."
	}

	cmd := exec.CommandContext(ctx, "bash", "-e")
	cmd.Env = environment
	cmd.Dir = workingDir
	cmd.Stdout = writerOrDefault(opts.Stdout, os.Stdout)
	cmd.Stderr = writerOrDefault(opts.Stderr, os.Stderr)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	go func() {
		defer stdin.Close()
		io.WriteString(stdin, opts.Command)
	}()

	cmdColor := color.New(color.FgMagenta).SprintFunc()
	fmt.Fprintln(cmd.Stdout, "cmd:", cmdColor(opts.Command))

	return cmd.Run()
}

func writerOrDefault(w, def io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return def
}
