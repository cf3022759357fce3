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
	"sort"
	"strings"

	"github.com/drone/envsubst"

	"github.com/fugue/flowrun/iofile"
)

// Message renders j's description for logging, substituting wildcard
// values into the rule's message template (spec 4.1 "logs description"),
// the way Snakemake expands "{wildcards.sample}"-style placeholders using
// its own string.Formatter. When the rule supplied no template, synthesizes
// a default listing instead: rule name, inputs, outputs (each file tagged
// with its dynamic/temporary/protected flags), the reason this job needs to
// run, and the rendered shell command if one is set.
func (j *Job) Message() string {
	if j.MessageTemplate == "" {
		return j.defaultMessage()
	}
	rendered, err := envsubst.Eval(j.MessageTemplate, func(name string) string {
		return j.Wildcards[strings.TrimPrefix(name, "wildcards.")]
	})
	if err != nil {
		rendered = j.MessageTemplate
	}
	return rendered
}

// defaultMessage synthesizes the no-template description Snakemake falls
// back to: "rule <name>" plus input/output listings, the dispatch reason,
// and the shell command, each only printed if non-empty.
func (j *Job) defaultMessage() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rule %s", j.ruleName())
	if len(j.Input) > 0 {
		fmt.Fprintf(&b, "\n    input: %s", j.annotatedFiles(j.Input))
	}
	if len(j.Output) > 0 {
		fmt.Fprintf(&b, "\n    output: %s", j.annotatedFiles(j.Output))
	}
	if j.Reason != "" {
		fmt.Fprintf(&b, "\n    reason: %s", j.Reason)
	}
	if j.ShellCmd != "" {
		fmt.Fprintf(&b, "\n    %s", j.ShellCmd)
	}
	return b.String()
}

// annotatedFiles renders each file's path, tagged with (dynamic)/
// (temporary)/(protected) as applicable, comma-separated.
func (j *Job) annotatedFiles(files []iofile.IOFile) string {
	parts := make([]string, len(files))
	for i, f := range files {
		s := f.Path()
		var tags []string
		if j.DynamicOutput && j.Rule != nil && j.Rule.IsDynamic(f.Path()) {
			tags = append(tags, "dynamic")
		}
		if f.IsTemp() {
			tags = append(tags, "temporary")
		}
		if f.IsProtected() {
			tags = append(tags, "protected")
		}
		if len(tags) > 0 {
			s += " (" + strings.Join(tags, ", ") + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}

// NewWildcards returns the wildcard names j introduces that do not already
// appear on any of its direct dependencies, matching Snakemake's
// Job.new_wildcards used to label a node in the DAG diagram (spec 4.6)
// without repeating wildcards a node merely inherited.
func (j *Job) NewWildcards() []string {
	inherited := map[string]struct{}{}
	for dep := range j.depends {
		for name := range dep.Wildcards {
			inherited[name] = struct{}{}
		}
	}
	var result []string
	for name := range j.Wildcards {
		if _, ok := inherited[name]; !ok {
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result
}
