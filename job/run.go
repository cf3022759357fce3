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
package job

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/fugue/flowrun/iofile"
	"github.com/fugue/flowrun/jobexc"
)

// touchSleep guarantees a strictly increasing mtime between a touched output
// and whatever a subsequent run produces, matching Snakemake's 0.1s sleep
// after IOFile.touch() in touch mode (spec's "Supplemented Features").
const touchSleep = 100 * time.Millisecond

func (j *Job) ruleName() string {
	if j.Rule != nil {
		return j.Rule.Name()
	}
	return ""
}

func (j *Job) lineno() int {
	if j.Rule != nil {
		return j.Rule.Lineno()
	}
	return 0
}

func (j *Job) snakefile() string {
	if j.Rule != nil {
		return j.Rule.Snakefile()
	}
	return ""
}

// rowMapResolve remaps a reported source location through the run's RowMaps,
// the Go equivalent of Snakemake's workflow.rowmaps traceback rewriting.
func (j *Job) rowMapResolve() (string, int) {
	if j.Workflow == nil {
		return j.snakefile(), j.lineno()
	}
	rowMaps := j.Workflow.RowMaps()
	if rowMaps == nil {
		return j.snakefile(), j.lineno()
	}
	return rowMaps.Resolve(j.snakefile(), j.lineno())
}

// RunWrapper executes j's payload and joins every shell it spawned before
// returning, mirroring Snakemake's run_wrapper: it is the boundary at which
// a bare payload error becomes a RuleException enriched with the rule's
// source location (spec 4.1).
func RunWrapper(ctx context.Context, j *Job) (time.Duration, error) {
	if j.Payload == nil {
		return 0, jobexc.NewRuleException(j.ruleName(), j.snakefile(), j.lineno(),
			fmt.Errorf("rule %s has no runnable payload", j.ruleName()))
	}

	start := time.Now()
	err := j.Payload(j.Input, j.Output, j.Wildcards, j.Threads, j.Log)
	if joinErr := j.Shells.JoinAll(); err == nil {
		err = joinErr
	}
	elapsed := time.Since(start)

	if err != nil {
		file, line := j.rowMapResolve()
		return elapsed, jobexc.NewRuleException(j.ruleName(), file, line, err)
	}
	return elapsed, nil
}

// removeStaleDynamicOutputs deletes any files already on disk that match a
// dynamic output pattern, since the run about to happen may produce a
// different count of files than a previous one did (spec 4.2 "else" branch).
func (j *Job) removeStaleDynamicOutputs() error {
	for _, out := range j.Output {
		if j.Rule == nil || !j.Rule.IsDynamic(out.Path()) {
			continue
		}
		matches, err := j.Matcher.ListFiles(out.Path())
		if err != nil {
			return err
		}
		for _, m := range matches {
			if err := iofile.New(m.Path).Remove(); err != nil {
				return err
			}
		}
	}
	return nil
}

// prepareOutputs creates the parent directories of every non-dynamic output
// and of the log file, ahead of dispatching the real run.
func (j *Job) prepareOutputs() error {
	for _, out := range j.Output {
		if j.Rule != nil && j.Rule.IsDynamic(out.Path()) {
			continue
		}
		if err := out.Prepare(); err != nil {
			return err
		}
	}
	if j.Log != nil {
		if err := j.Log.Prepare(); err != nil {
			return err
		}
	}
	return nil
}

// touchOutputs marks every declared output as up to date without running
// the rule. Dynamic outputs are resolved against whatever already matches
// their pattern, since touch mode only makes sense for outputs that exist.
func (j *Job) touchOutputs() error {
	for _, out := range j.Output {
		isDynamic := j.Rule != nil && j.Rule.IsDynamic(out.Path())
		if !isDynamic {
			if err := out.Touch(j.ruleName(), j.lineno(), j.snakefile()); err != nil {
				return err
			}
			continue
		}
		matches, err := j.Matcher.ListFiles(out.Path())
		if err != nil {
			return err
		}
		for _, m := range matches {
			if err := iofile.New(m.Path).Touch(j.ruleName(), j.lineno(), j.snakefile()); err != nil {
				return err
			}
		}
	}
	return nil
}

// verifyOutputs confirms every non-dynamic output actually exists after a
// run, the source of MissingOutputException (spec 4.2/7). Dynamic outputs
// are verified by DynamicExpansion instead, since their final file count is
// not known up front.
func (j *Job) verifyOutputs() error {
	var result *multierror.Error
	for _, out := range j.Output {
		if j.Rule != nil && j.Rule.IsDynamic(out.Path()) {
			continue
		}
		if err := out.Created(j.ruleName(), j.lineno(), j.snakefile()); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// markInputsUsed notifies every input it was read by a finished job (spec
// 4.2 Job.finished: "notify ... each input it was used").
func (j *Job) markInputsUsed() {
	for _, in := range j.Input {
		in.Used()
	}
}

// Run dispatches j according to its lifecycle flags (spec 4.2): jobs that
// need no work finish immediately, dry-run and touch jobs fake completion
// without invoking dispatch, and everything else is prepared on disk and
// handed to dispatch, which is responsible for eventually calling Finished
// once the real execution (local or cluster) completes.
func (j *Job) Run(dispatch func(*Job) error) error {
	switch {
	case !j.NeedRun || j.Pseudo || j.Ignore:
		j.Finished(0, nil)
		return nil

	case j.DryRun:
		j.Finished(0, nil)
		return nil

	case j.Touch:
		if err := j.touchOutputs(); err != nil {
			j.Finished(0, jobexc.NewRuleException(j.ruleName(), j.snakefile(), j.lineno(), err))
			return nil
		}
		time.Sleep(touchSleep)
		j.Finished(0, nil)
		return nil

	default:
		if err := j.removeStaleDynamicOutputs(); err != nil {
			return err
		}
		if err := j.prepareOutputs(); err != nil {
			return err
		}
		return dispatch(j)
	}
}

// Finished is the terminal transition for j: called once, by whichever
// executor completed (or failed to complete) its real work. It records
// runtime/progress bookkeeping, detaches j from its dependents so they
// become eligible to run, triggers DynamicExpansion for a dynamic-output
// job, and then fires the registered callbacks once: the error callbacks
// if the job failed, the plain callbacks otherwise (spec 4.2/4.3).
// DynamicExpansion runs before the dependents are detached, because it
// finds the jobs to rebuild through j's depending edges.
// An already-Ignore'd job (one spliced out by a prior DynamicExpansion)
// skips all of this and only runs the plain callbacks.
func (j *Job) Finished(runtime time.Duration, err error) {
	if j.IsFinished {
		return
	}
	j.IsFinished = true

	if !j.Ignore {
		if j.NeedRun && !j.Pseudo {
			if err == nil && !j.DryRun {
				if verifyErr := j.verifyOutputs(); verifyErr != nil {
					err = verifyErr
				} else {
					j.markInputsUsed()
				}
			}
			if err != nil {
				if cleanupErr := j.Cleanup(); cleanupErr != nil {
					err = multierror.Append(multierror.Append(nil, err), cleanupErr)
				}
				for _, cb := range j.errorCallbacks {
					cb(err)
				}
				return
			}
			if !j.DryRun {
				if j.Workflow != nil {
					j.Workflow.JobCounter().Done()
					if runtime > 0 {
						j.Workflow.ReportRuntime(j.ruleName(), runtime.Seconds())
					}
				}
			}
		}

		if !j.DryRun && j.DynamicOutput {
			if expandErr := j.expandDynamicOutput(); expandErr != nil {
				for _, cb := range j.errorCallbacks {
					cb(expandErr)
				}
				return
			}
		}

		dependents := append([]*Job(nil), j.depending...)
		for _, dep := range dependents {
			dep.removeDepend(j)
		}
	}

	for _, cb := range j.callbacks {
		cb(j)
	}
}

// Cleanup removes j's output files, used to roll back a job that never
// finished (spec 4.2 "Cleanup"). Dynamic outputs are expanded against
// whatever currently matches their pattern.
func (j *Job) Cleanup() error {
	var result *multierror.Error
	for _, out := range j.Output {
		if j.Rule != nil && j.Rule.IsDynamic(out.Path()) {
			matches, err := j.Matcher.ListFiles(out.Path())
			if err != nil {
				result = multierror.Append(result, err)
				continue
			}
			for _, m := range matches {
				if err := iofile.New(m.Path).Remove(); err != nil {
					result = multierror.Append(result, err)
				}
			}
			continue
		}
		if out.IsProtected() {
			continue
		}
		if err := out.Remove(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
