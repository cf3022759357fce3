// Package sched implements the two scheduler backends described in spec
// section 4: LocalScheduler (KnapsackJobScheduler), which runs jobs as
// goroutines bounded by a core budget solved with a 0/1 knapsack, and
// ClusterScheduler, which submits jobs as shell scripts and polls for
// sentinel files. Grounded on the teacher's sched/sched.go dagScheduler:
// a single loop goroutine consumes a results channel and is the only
// mutator of scheduling state, so job dependency edges never need their
// own locking (see job's package doc comment).
package sched

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/fugue/flowrun/events"
	"github.com/fugue/flowrun/job"
	"github.com/fugue/flowrun/jobexc"
)

// Options configures a LocalScheduler.
type Options struct {
	// MaxCores caps the total threads running concurrently. Zero means
	// "use all available cores" (runtime.NumCPU()), matching Snakemake's
	// default of multiprocessing.cpu_count() (spec's Supplemented
	// Features).
	MaxCores int

	// Quiet suppresses per-job description logging.
	Quiet bool

	// BuildID tags every published Event, correlating this run's events
	// across concurrent invocations.
	BuildID string

	// Publisher receives job lifecycle events as they occur. Nil disables
	// publishing.
	Publisher events.Publisher
}

type workerResult struct {
	job     *job.Job
	runtime time.Duration
	err     error
}

// LocalScheduler is the default, single-machine scheduler: a level-triggered
// event loop that admits as many ready jobs as the core budget allows each
// tick, chosen by Knapsack, and runs each as its own goroutine (spec 4.4).
type LocalScheduler struct {
	maxCores  int
	quiet     bool
	buildID   string
	publisher events.Publisher

	pending        map[*job.Job]bool // value: already submitted
	availableCores int
	errored        bool

	// open is the level-triggered wakeup signal: any state change that
	// might make a job eligible to run (a completion, an error, a newly
	// attached dynamic-expansion job) sends on it without blocking,
	// mirroring Snakemake's threading.Event clear/set/wait pattern.
	open chan struct{}
}

// NewLocal returns a LocalScheduler configured by opts.
func NewLocal(opts Options) *LocalScheduler {
	cores := opts.MaxCores
	if cores < 1 {
		cores = runtime.NumCPU()
	}
	return &LocalScheduler{
		maxCores:       cores,
		quiet:          opts.Quiet,
		buildID:        opts.BuildID,
		publisher:      opts.Publisher,
		pending:        map[*job.Job]bool{},
		availableCores: cores,
		open:           make(chan struct{}, 1),
	}
}

// publish emits e through s.publisher, if one is configured. A publish
// error is not fatal to the run; it is reported to stderr so a broken
// downstream subscriber never blocks scheduling.
func (s *LocalScheduler) publish(kind events.Kind, j *job.Job, message string, err error) {
	if s.publisher == nil {
		return
	}
	ruleName := ""
	if j.Rule != nil {
		ruleName = j.Rule.Name()
	}
	e := events.Event{Kind: kind, BuildID: s.buildID, Rule: ruleName, JobID: j.JobID, Message: message, Timestamp: time.Now()}
	if err != nil {
		e.Error = err.Error()
	}
	if pubErr := s.publisher.Publish(e); pubErr != nil {
		fmt.Fprintf(os.Stderr, "failed to publish %s event for %s: %v\n", kind, j.NodeID(), pubErr)
	}
}

func (s *LocalScheduler) wake() {
	select {
	case s.open <- struct{}{}:
	default:
	}
}

// AddJobs attaches jobs to this scheduler's pending set, wiring each one's
// callbacks to wake the loop. DynamicExpansion calls this (via the
// job.Scheduler interface) to attach newly discovered jobs mid-run; Run
// calls it once up front for the initial job set.
func (s *LocalScheduler) AddJobs(jobs []*job.Job) {
	for _, j := range jobs {
		j.SetScheduler(s)
		s.pending[j] = false
		j.AddCallback(func(*job.Job) { s.wake() })
		j.AddErrorCallback(func(error) {
			s.errored = true
			for p, submitted := range s.pending {
				if !submitted {
					delete(s.pending, p)
				}
			}
			s.wake()
		})
	}
	s.wake()
}

// isTrivial reports whether Run(j, ...) completes synchronously without
// ever invoking dispatch, and so needs no core budget or goroutine.
func isTrivial(j *job.Job) bool {
	return !j.NeedRun || j.Pseudo || j.Ignore || j.DryRun || j.Touch
}

// scan partitions the still-pending jobs into those ready to run trivially,
// those ready but needing real dispatch (core budget), and the total count
// of jobs not yet finished.
func (s *LocalScheduler) scan() (remaining int, trivial, needsCores []*job.Job) {
	for j, submitted := range s.pending {
		if j.IsFinished {
			continue
		}
		remaining++
		if submitted || !j.Ready() || s.errored {
			continue
		}
		if isTrivial(j) {
			trivial = append(trivial, j)
		} else {
			if j.Threads > s.maxCores {
				jobexc.PrintWarning(os.Stderr, "rule %s requests %d threads but only %d cores are available; clamping",
					j.String(), j.Threads, s.maxCores)
				j.Threads = s.maxCores
			}
			needsCores = append(needsCores, j)
		}
	}
	return remaining, trivial, needsCores
}

// submit runs Knapsack against candidates and the scheduler's remaining
// core budget, then dispatches every winner as its own goroutine.
func (s *LocalScheduler) submit(ctx context.Context, candidates []*job.Job, results chan<- workerResult) {
	items := make([]Item, len(candidates))
	for i, j := range candidates {
		items[i] = Item{Weight: j.Threads, Value: j.Threads}
	}
	chosen := Knapsack(items, s.availableCores)

	for _, idx := range chosen {
		j := candidates[idx]
		s.pending[j] = true
		s.availableCores -= j.Threads

		if !s.quiet {
			fmt.Fprintln(os.Stdout, j.Message())
		}
		s.publish(events.Started, j, j.Message(), nil)

		j.Run(func(rj *job.Job) error {
			go func() {
				elapsed, err := job.RunWrapper(ctx, rj)
				select {
				case results <- workerResult{job: rj, runtime: elapsed, err: err}:
				case <-ctx.Done():
				}
			}()
			return nil
		})
	}
}

// Run schedules and executes every job, plus whatever DynamicExpansion
// attaches along the way, until none remain or ctx is canceled.
func (s *LocalScheduler) Run(ctx context.Context, jobs []*job.Job) error {
	s.AddJobs(jobs)

	results := make(chan workerResult, len(jobs)+1)

	for {
		remaining, trivial, needsCores := s.scan()
		if remaining == 0 {
			break
		}

		for _, j := range trivial {
			s.pending[j] = true
			j.Run(nil)
		}

		if len(needsCores) > 0 && !s.errored {
			s.submit(ctx, needsCores, results)
		}

		select {
		case res := <-results:
			s.availableCores += res.job.Threads
			if res.err != nil {
				s.publish(events.Failed, res.job, "", res.err)
			} else {
				s.publish(events.Finished, res.job, "", nil)
			}
			res.job.Finished(res.runtime, res.err)
		case <-ctx.Done():
			return ctx.Err()
		case <-s.open:
		case <-time.After(20 * time.Millisecond):
		}
	}

	if s.errored {
		return fmt.Errorf("scheduler aborted: one or more jobs failed")
	}
	return nil
}
