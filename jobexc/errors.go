// Package jobexc defines the error kinds a scheduler consumer observes
// (spec section 7). This package does no aggregation itself; callers
// collect several of these with github.com/hashicorp/go-multierror.
package jobexc

import "fmt"

// RuleException is raised when a rule's payload fails or is missing, and
// when touch mode fails to touch an output. It is the sole error type
// RunWrapper surfaces to a Job (spec section 4.1). A missing output after a
// run is reported as iofile.MissingOutputError instead, and a failure to
// remove a stale dynamic output is returned unwrapped from Job.Run.
type RuleException struct {
	Rule      string
	Snakefile string
	Lineno    int
	Message   string
	Cause     error
}

func (e *RuleException) Error() string {
	if e.Snakefile != "" {
		return fmt.Sprintf("Error in rule %s (%s:%d): %s", e.Rule, e.Snakefile, e.Lineno, e.Message)
	}
	return fmt.Sprintf("Error in rule %s: %s", e.Rule, e.Message)
}

func (e *RuleException) Unwrap() error { return e.Cause }

// NewRuleException wraps cause, attributing it to the given rule's source
// location the way RunWrapper does by walking the exception's origin
// through workflow.rowmaps in the original implementation.
func NewRuleException(ruleName, snakefile string, lineno int, cause error) *RuleException {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return &RuleException{Rule: ruleName, Snakefile: snakefile, Lineno: lineno, Message: msg, Cause: cause}
}

// ClusterJobException is raised when a cluster job's failure sentinel
// appears (spec section 4.5/7).
type ClusterJobException struct {
	Rule    string
	JobID   string
	Message string
}

func (e *ClusterJobException) Error() string {
	return fmt.Sprintf("cluster job for rule %s (%s) failed: %s", e.Rule, e.JobID, e.Message)
}

// MissingOutputException describes a declared non-dynamic output found
// absent after a run. Post-run verification in package job reports that
// condition as iofile.MissingOutputError; nothing in this module constructs
// a MissingOutputException.
type MissingOutputException struct {
	Rule string
	File string
}

func (e *MissingOutputException) Error() string {
	return fmt.Sprintf("rule %s failed to create output %s", e.Rule, e.File)
}

// TerminatedException is raised when the scheduler loop is aborted by an
// external termination signal.
type TerminatedException struct {
	Reason string
}

func (e *TerminatedException) Error() string {
	if e.Reason == "" {
		return "scheduler terminated"
	}
	return fmt.Sprintf("scheduler terminated: %s", e.Reason)
}
