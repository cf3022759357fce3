// Package rule defines the Rule protocol consumed by the scheduler (spec
// section 6). The rule parser and workflow loader that would normally build
// a Rule from a user's build description are out of scope (spec section 1);
// this package only carries the protocol, grounded on the teacher's
// project/rule.go, plus a gomock MockRule for tests. The programmatic
// implementation used by tests, the demo CLI, and DynamicExpansion's
// subgraph factory is SimpleRule in package ruleset.
package rule

//go:generate mockgen -source=rule.go -package rule -destination rule_mock.go

// Job is the minimal shape of a job a Rule factory hands back to the
// scheduler. It is declared here, rather than imported from the job
// package, to avoid a rule <-> job import cycle: job.Job satisfies this
// interface, and Rule.Run returns one.
type Job interface {
	NodeID() string
}

// Rule is the external collaborator that supplies a job's shape: its name,
// the input/output file patterns it declares, how many threads it needs,
// which of its files are dynamic, and a factory that (re)builds a Job
// subgraph rooted at a given target. See spec section 6 "Rule protocol".
type Rule interface {
	// Name of the rule, e.g. "build"
	Name() string

	// Input file patterns consumed by the rule, in declaration order
	Input() []string

	// Output file patterns produced by the rule, in declaration order
	Output() []string

	// Threads is the number of cores the rule requires to run
	Threads() int

	// Lineno and Snakefile locate the rule's definition, used to enrich
	// RuleException messages with a source location.
	Lineno() int
	Snakefile() string

	// IsDynamic reports whether the given input or output slot is a
	// dynamic pattern (resolved by enumerating matches at runtime)
	IsDynamic(file string) bool

	// SetDynamic flips the dynamic flag on the given input or output slot.
	// DynamicExpansion calls this once a dynamic input has been
	// concretized.
	SetDynamic(file string, dynamic bool)

	// SetInput replaces the rule's input list, used by DynamicExpansion to
	// splice concretized files in place of a dynamic pattern.
	SetInput(input []string)

	// Run builds a fresh Job subgraph rooted at target (the job's first
	// output, or "" to build the rule's default target), reusing any
	// already-built Jobs supplied in jobs so the graph is not rebuilt
	// twice for a shared dependency. forcethis marks the resulting root
	// job as user-forced.
	Run(target string, jobs map[string]Job, forcethis bool) (Job, error)
}
