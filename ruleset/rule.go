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

// Package ruleset supplies SimpleRule, a concrete, programmatically built
// implementation of the rule.Rule protocol. The rule parser and workflow
// loader that would normally turn a user's build description into Rules is
// out of scope; SimpleRule exists so tests, the demo CLI, and
// DynamicExpansion's subgraph factory have something real to build Jobs
// against. Grounded on the teacher's project/rule.go (the Rule type) and
// project/graph.go (the recursive dependency-graph builder, addToGraph).
package ruleset

import (
	"fmt"
	"os"
	"time"

	"github.com/fugue/flowrun/iofile"
	"github.com/fugue/flowrun/job"
	"github.com/fugue/flowrun/rule"
	"github.com/fugue/flowrun/shellexec"
)

// SimpleRule is a minimal, directly constructed rule.Rule: its input and
// output patterns, the threads it needs, the rules it depends on, and the
// payload that does its actual work.
type SimpleRule struct {
	RuleName    string
	Inputs      []string
	Outputs     []string
	NumThreads  int
	Line        int
	File        string
	Message     string
	ShellCmd    string
	Payload     job.Payload
	Depends     []*SimpleRule
	Forced      bool

	// Image, if set, names the Docker image the rule's shell commands run
	// in. A ShellGroup backed by shellexec.NewDocker is built lazily for
	// this rule unless Shells is already set explicitly.
	Image          string
	MountDirectory string

	// Matcher and Workflow are injected into every Job this rule builds.
	// They default to iofile.NewGlobMatcher() and a nil Workflow,
	// respectively, when left unset.
	Matcher  iofile.PatternMatcher
	Workflow job.Workflow
	Shells   *shellexec.ShellGroup

	dynamic map[string]bool
}

var _ rule.Rule = (*SimpleRule)(nil)

func (r *SimpleRule) Name() string      { return r.RuleName }
func (r *SimpleRule) Input() []string   { return r.Inputs }
func (r *SimpleRule) Output() []string  { return r.Outputs }
func (r *SimpleRule) Lineno() int       { return r.Line }
func (r *SimpleRule) Snakefile() string { return r.File }

func (r *SimpleRule) Threads() int {
	if r.NumThreads < 1 {
		return 1
	}
	return r.NumThreads
}

func (r *SimpleRule) IsDynamic(file string) bool {
	return r.dynamic != nil && r.dynamic[file]
}

func (r *SimpleRule) SetDynamic(file string, dynamic bool) {
	if r.dynamic == nil {
		r.dynamic = map[string]bool{}
	}
	r.dynamic[file] = dynamic
}

func (r *SimpleRule) SetInput(input []string) { r.Inputs = input }

// Run builds a Job for r covering all of r's outputs (target is not
// consulted), first recursively building Jobs for every rule r depends on, reusing
// any already built in jobs so a diamond-shaped dependency graph is not
// rebuilt twice. This is the teacher's addToGraph recursion, adapted from
// building a static *graph.Graph to building a live *job.Job DAG.
func (r *SimpleRule) Run(target string, jobs map[string]rule.Job, forcethis bool) (rule.Job, error) {
	if jobs == nil {
		jobs = map[string]rule.Job{}
	}
	if existing, ok := jobs[r.RuleName]; ok {
		return existing, nil
	}

	dependJobs := make([]*job.Job, 0, len(r.Depends))
	for _, dep := range r.Depends {
		depJob, err := dep.Run("", jobs, false)
		if err != nil {
			return nil, err
		}
		typed, ok := depJob.(*job.Job)
		if !ok {
			return nil, fmt.Errorf("rule %s: dependency %s built a job of an unexpected type", r.RuleName, dep.RuleName)
		}
		dependJobs = append(dependJobs, typed)
		jobs[dep.RuleName] = typed
	}

	input := make([]iofile.IOFile, 0, len(r.Inputs))
	for _, p := range r.Inputs {
		input = append(input, iofile.Create(p, false, false))
	}
	output := make([]iofile.IOFile, 0, len(r.Outputs))
	dynamicOutput := false
	for _, p := range r.Outputs {
		output = append(output, iofile.Create(p, false, false))
		if r.IsDynamic(p) {
			dynamicOutput = true
		}
	}

	needRun := forcethis || r.Forced || needsRun(r.Inputs, r.Outputs)

	j := job.New(job.Opts{
		Rule:          r,
		Message:       r.Message,
		ShellCmd:      r.ShellCmd,
		Input:         input,
		Output:        output,
		Threads:       r.Threads(),
		Depends:       dependJobs,
		NeedRun:       needRun,
		Forced:        forcethis || r.Forced,
		DynamicOutput: dynamicOutput,
		Payload:       r.Payload,
		Matcher:       r.Matcher,
		Workflow:      r.Workflow,
		Shells:        r.shells(),
	})
	jobs[r.RuleName] = j
	return j, nil
}

// shells returns the ShellGroup this rule's Job should carry: the one
// explicitly assigned, or a lazily built Docker-backed group when Image
// names a container, or nil to let job.New fall back to a host bash
// executor.
func (r *SimpleRule) shells() *shellexec.ShellGroup {
	if r.Shells != nil {
		return r.Shells
	}
	if r.Image == "" {
		return nil
	}
	mountDir := r.MountDirectory
	if mountDir == "" {
		mountDir, _ = os.Getwd()
	}
	return shellexec.NewShellGroup(shellexec.NewDocker(mountDir))
}

// needsRun reports whether any declared output is missing or older than any
// input, the same staleness check make and Snakemake both apply, grounded
// on the teacher's project/misc.go latestModification helper.
func needsRun(inputs, outputs []string) bool {
	if len(outputs) == 0 {
		return true
	}
	var oldestOutput time.Time
	for i, p := range outputs {
		info, err := os.Stat(p)
		if err != nil {
			return true
		}
		if i == 0 || info.ModTime().Before(oldestOutput) {
			oldestOutput = info.ModTime()
		}
	}
	for _, p := range inputs {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if info.ModTime().After(oldestOutput) {
			return true
		}
	}
	return false
}
