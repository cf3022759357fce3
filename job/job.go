// Package job implements the Job DAG node (spec section 3/4.2), RunWrapper
// (4.1), and DynamicExpansion (4.3). It is grounded on
// original_source/snakemake/snakemake/jobs.py, the Python implementation
// this spec was distilled from, translated into the teacher's Go idiom
// (explicit structs and interfaces in place of jobs.py's dynamically typed
// Job class, sync/atomic for the job ID counter in place of the GIL).
//
// Concurrency contract: Job carries no internal locking. Every method that
// mutates depends/depending/callbacks/IsFinished must be called from the
// single goroutine that owns the surrounding scheduler loop (see sched's
// doc comment for why). This mirrors spec section 9's requirement that
// DynamicExpansion run "atomic with respect to the scheduler loop."
package job

import (
	"fmt"
	"sync/atomic"

	"github.com/fugue/flowrun/iofile"
	"github.com/fugue/flowrun/rule"
	"github.com/fugue/flowrun/shellexec"
	"github.com/fugue/flowrun/workflow"
)

// Payload is a rule's actual work, equivalent to Snakemake's rule.get_run()
// callable: given resolved input/output/wildcards/threads/log, do the work
// and return an error on failure.
type Payload func(input, output []iofile.IOFile, wildcards map[string]string, threads int, log iofile.IOFile) error

// Scheduler is the capability a Job needs from whatever schedules it: the
// ability to attach newly-discovered jobs to the pending set, used by
// DynamicExpansion (spec 4.3 step 3: "Attach all newly generated jobs to
// the scheduler").
type Scheduler interface {
	AddJobs(jobs []*Job)
}

var jobCounter int64

// Job is one DAG node: a single rule invocation bound to resolved
// input/output/wildcards, its dependency edges, and its lifecycle flags
// (spec section 3).
type Job struct {
	Rule      rule.Rule
	Input     []iofile.IOFile
	Output    []iofile.IOFile
	Wildcards map[string]string
	Threads   int
	Log       iofile.IOFile

	ShellCmd        string
	MessageTemplate string
	Reason          string

	NeedRun       bool
	Pseudo        bool
	Touch         bool
	DryRun        bool
	Forced        bool
	DynamicOutput bool
	Quiet         bool
	Ignore        bool
	IsFinished    bool

	JobID int64

	Workflow Workflow
	Matcher  iofile.PatternMatcher
	Shells   *shellexec.ShellGroup
	Payload  Payload

	scheduler Scheduler

	depends   map[*Job]struct{}
	depending []*Job

	callbacks      []func(*Job)
	errorCallbacks []func(error)
}

// Workflow is the subset of the workflow protocol (spec section 6) a Job
// needs directly; satisfied by workflow.Workflow.
type Workflow interface {
	RowMaps() workflow.RowMaps
	ScriptPath() string
	JobCounter() *workflow.JobCounter
	ReportRuntime(ruleName string, seconds float64)
}

// Opts constructs a Job.
type Opts struct {
	Rule            rule.Rule
	Message         string
	Reason          string
	Input           []iofile.IOFile
	Output          []iofile.IOFile
	Wildcards       map[string]string
	ShellCmd        string
	Threads         int
	Log             iofile.IOFile
	Depends         []*Job
	DryRun          bool
	Quiet           bool
	Touch           bool
	NeedRun         bool
	Pseudo          bool
	Forced          bool
	DynamicOutput   bool
	Payload         Payload
	Matcher         iofile.PatternMatcher
	Workflow        Workflow
	Shells          *shellexec.ShellGroup
}

// New constructs a Job and wires its dependency edges, maintaining the
// depends/depending invariant (spec section 3: "b ∈ a.depends ⇔
// a ∈ b.depending") by construction.
func New(opts Opts) *Job {
	threads := opts.Threads
	if threads < 1 {
		threads = 1
	}
	if opts.Matcher == nil {
		opts.Matcher = iofile.NewGlobMatcher()
	}
	if opts.Shells == nil {
		opts.Shells = shellexec.NewShellGroup(nil)
	}

	j := &Job{
		Rule:            opts.Rule,
		Input:           opts.Input,
		Output:          opts.Output,
		Wildcards:       opts.Wildcards,
		Threads:         threads,
		Log:             opts.Log,
		ShellCmd:        opts.ShellCmd,
		MessageTemplate: opts.Message,
		Reason:          opts.Reason,
		NeedRun:         opts.NeedRun,
		Pseudo:          opts.Pseudo,
		Touch:           opts.Touch,
		DryRun:          opts.DryRun,
		Forced:          opts.Forced,
		DynamicOutput:   opts.DynamicOutput,
		Quiet:           opts.Quiet,
		Workflow:        opts.Workflow,
		Matcher:         opts.Matcher,
		Shells:          opts.Shells,
		Payload:         opts.Payload,
		depends:         map[*Job]struct{}{},
		JobID:           atomic.AddInt64(&jobCounter, 1) - 1,
	}
	for _, dep := range opts.Depends {
		j.addDepend(dep)
	}
	if j.Wildcards == nil {
		j.Wildcards = map[string]string{}
	}
	return j
}

// NodeID satisfies dag.Node / rule.Job for diagnostics and graph checks.
func (j *Job) NodeID() string {
	name := "job"
	if j.Rule != nil {
		name = j.Rule.Name()
	}
	return fmt.Sprintf("%s#%d", name, j.JobID)
}

func (j *Job) String() string {
	if j.Rule != nil {
		return j.Rule.Name()
	}
	return j.NodeID()
}

// addDepend records that j depends on other, keeping both edge sets
// consistent (invariant 1).
func (j *Job) addDepend(other *Job) {
	if _, ok := j.depends[other]; ok {
		return
	}
	j.depends[other] = struct{}{}
	other.depending = append(other.depending, j)
}

// removeDepend severs j's dependency on other, keeping both edge sets
// consistent.
func (j *Job) removeDepend(other *Job) {
	delete(j.depends, other)
	for i, d := range other.depending {
		if d == j {
			other.depending = append(other.depending[:i], other.depending[i+1:]...)
			break
		}
	}
}

// Ready reports whether every dependency of j has completed (spec:
// "A job becomes eligible to run only when depends is empty").
func (j *Job) Ready() bool {
	return len(j.depends) == 0
}

// Depends returns the jobs j currently depends on.
func (j *Job) Depends() []*Job {
	result := make([]*Job, 0, len(j.depends))
	for d := range j.depends {
		result = append(result, d)
	}
	return result
}

// Depending returns the jobs that depend on j.
func (j *Job) Depending() []*Job {
	return append([]*Job(nil), j.depending...)
}

// SetScheduler records which scheduler owns j, used by DynamicExpansion to
// attach newly generated jobs (spec 4.3 step 3).
func (j *Job) SetScheduler(s Scheduler) { j.scheduler = s }

// AddCallback registers a sink invoked when j finishes successfully (or is
// finished as an ignored job); it is not invoked when j finishes with an
// error.
func (j *Job) AddCallback(cb func(*Job)) {
	j.callbacks = append(j.callbacks, cb)
}

// AddErrorCallback registers a sink invoked only when j finishes with an
// error.
func (j *Job) AddErrorCallback(cb func(error)) {
	j.errorCallbacks = append(j.errorCallbacks, cb)
}
