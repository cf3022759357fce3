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
	"fmt"
	"os"

	"github.com/fugue/flowrun/dag"
	"github.com/fugue/flowrun/jobexc"
	"github.com/fugue/flowrun/rule"
)

// checkSpliceAcyclic re-verifies the DAG invariant (spec section 3: "the
// graph is acyclic at all times; dynamic_output expansion must preserve
// acyclicity") over the subgraph a splice just rebuilt. A cycle here would
// mean the rule factory wired the replacement job back into its own
// prerequisite chain, which is a bug in the Rule implementation, not
// something the scheduler can recover from.
func checkSpliceAcyclic(root *Job) error {
	nodes := append([]dag.Node{root}, jobsToNodes(root.Descendants())...)
	return dag.CheckAcyclic(nodes, func(n dag.Node) []dag.Node {
		return jobsToNodes(n.(*Job).Depends())
	})
}

func jobsToNodes(jobs []*Job) []dag.Node {
	nodes := make([]dag.Node, len(jobs))
	for i, j := range jobs {
		nodes[i] = j
	}
	return nodes
}

// DynamicExpansion is triggered from Finished when a job that has just
// completed declared a dynamic output: the set of files it actually wrote
// is only known now, so every job waiting on that pattern as a dynamic
// input must be rebuilt with its input list concretized (spec 4.3).
//
// Unlike dynamic *output* (one producer, unknown file count), dynamic
// *input* aggregates: a single waiting job is rebuilt once with the full
// discovered file list as its input, rather than split into one job per
// discovered file.
func (j *Job) expandDynamicOutput() error {
	patterns := j.dynamicOutputPatterns()
	if len(patterns) == 0 {
		return nil
	}

	wildcardExpansion, anyMatches, err := j.collectDynamicWildcards(patterns)
	if err != nil {
		return err
	}
	if !anyMatches {
		jobexc.PrintWarning(os.Stderr, "rule %s produced no files matching its dynamic output %v", j.ruleName(), patterns)
		return nil
	}

	dependents := append([]*Job(nil), j.depending...)
	var newJobs []*Job
	allNewJobs := map[*Job]struct{}{}
	expandedCount := 0

	for _, dep := range dependents {
		pattern, ok := dep.dynamicInputPattern(patterns)
		if !ok || dep.Rule == nil {
			continue
		}

		expanded, err := j.Matcher.Expand(pattern, wildcardExpansion)
		if err != nil {
			// expansion failed for this ancestor only (e.g. a missing
			// wildcard pairing); leave it untouched and move on.
			continue
		}

		dep.Rule.SetInput(mergeInput(dep.Rule.Input(), pattern, expanded))
		dep.Rule.SetDynamic(pattern, false)

		target := ""
		if len(dep.Output) > 0 {
			target = dep.Output[0].Path()
		}
		// Seed the memo map with the producer under its own rule name so
		// that if the rebuilt subgraph needs it again (a shared upstream
		// dependency), it reuses this just-finished job instead of
		// rebuilding it a second time.
		seed := map[string]rule.Job{}
		if j.Rule != nil {
			seed[j.Rule.Name()] = j
		}
		rebuilt, err := dep.Rule.Run(target, seed, dep.Forced)
		if err != nil {
			continue
		}
		newJob, ok := rebuilt.(*Job)
		if !ok {
			return fmt.Errorf("rule %s: Run returned a job of an unexpected type", dep.ruleName())
		}

		spliceJob(j, dep, newJob)
		if err := checkSpliceAcyclic(newJob); err != nil {
			return err
		}
		newJobs = append(newJobs, newJob)
		expandedCount++

		// all_jobs() of the rebuilt subgraph: the replacement plus whatever
		// jobs its factory pulled in as prerequisites (shared, reused jobs
		// collapse by pointer identity and so don't inflate the count).
		allNewJobs[newJob] = struct{}{}
		for _, anc := range newJob.Descendants() {
			allNewJobs[anc] = struct{}{}
		}
	}

	// The job that just finished must not re-enter the DAG it exited.
	delete(allNewJobs, j)

	if len(newJobs) == 0 {
		return nil
	}
	if j.scheduler != nil {
		j.scheduler.AddJobs(newJobs)
	}
	net := len(allNewJobs) - expandedCount
	if j.Workflow != nil {
		j.Workflow.JobCounter().Add(net)
	}
	if net != 0 {
		jobexc.PrintWarning(os.Stderr, "Dynamically adding %d new jobs", net)
	}
	return nil
}

// dynamicOutputPatterns returns the pattern strings of j's own dynamic
// outputs.
func (j *Job) dynamicOutputPatterns() []string {
	var patterns []string
	if j.Rule == nil {
		return patterns
	}
	for _, out := range j.Output {
		if j.Rule.IsDynamic(out.Path()) {
			patterns = append(patterns, out.Path())
		}
	}
	return patterns
}

// collectDynamicWildcards lists the files now on disk for each of j's
// dynamic output patterns and merges their captured wildcard values into a
// single expansion map, keyed by wildcard name.
func (j *Job) collectDynamicWildcards(patterns []string) (map[string][]string, bool, error) {
	expansion := map[string][]string{}
	anyMatches := false
	for _, pattern := range patterns {
		matches, err := j.Matcher.ListFiles(pattern)
		if err != nil {
			return nil, false, err
		}
		if len(matches) > 0 {
			anyMatches = true
		}
		for _, m := range matches {
			for name, value := range m.Wildcards {
				expansion[name] = append(expansion[name], value)
			}
		}
	}
	return expansion, anyMatches, nil
}

// dynamicInputPattern returns the first of dep's rule's input patterns
// that is both dynamic and one of patterns, i.e. a dynamic input this job
// waits on that the producer just resolved.
func (dep *Job) dynamicInputPattern(patterns []string) (string, bool) {
	if dep.Rule == nil {
		return "", false
	}
	candidates := map[string]struct{}{}
	for _, p := range patterns {
		candidates[p] = struct{}{}
	}
	for _, in := range dep.Rule.Input() {
		if _, ok := candidates[in]; ok && dep.Rule.IsDynamic(in) {
			return in, true
		}
	}
	return "", false
}

// mergeInput returns current with pattern replaced by the files it expanded
// to.
func mergeInput(current []string, pattern string, expanded []string) []string {
	result := make([]string, 0, len(current)+len(expanded))
	for _, in := range current {
		if in == pattern {
			result = append(result, expanded...)
			continue
		}
		result = append(result, in)
	}
	return result
}

// spliceJob replaces old, a dependent of producer that has not yet run,
// with replacement in the DAG: replacement inherits every dependency old
// had plus an edge to producer, takes over old's incoming dependents, and old
// is marked Ignore so the scheduler skips it entirely (spec 4.3 step:
// "splice the DAG, preserving acyclicity").
func spliceJob(producer, old, replacement *Job) {
	for _, anc := range old.Depends() {
		if anc == producer {
			continue
		}
		old.removeDepend(anc)
		replacement.addDepend(anc)
	}
	old.removeDepend(producer)
	replacement.addDepend(producer)

	for _, dep := range append([]*Job(nil), old.depending...) {
		dep.removeDepend(old)
		dep.addDepend(replacement)
	}
	old.Ignore = true
}
