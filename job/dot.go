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
	"io"
	"strings"
)

// PrintJobDAG writes a Graphviz DOT rendering of jobs to w, matching
// Snakemake's print_job_dag: each node is labeled by its rule name plus any
// wildcard values it newly introduces, and an edge is drawn only to
// dependencies that still need to run, so already-satisfied ancestors drop
// out of the picture (spec 4.6).
func PrintJobDAG(w io.Writer, jobs []*Job) {
	fmt.Fprintln(w, "digraph snakemake_dag {")
	for _, j := range jobs {
		label := j.ruleName()
		if wc := j.NewWildcards(); len(wc) > 0 {
			pairs := make([]string, len(wc))
			for i, name := range wc {
				pairs[i] = name + "=" + j.Wildcards[name]
			}
			label += "\\n" + strings.Join(pairs, ", ")
		}
		fmt.Fprintf(w, "\t%d[label = %q];\n", j.JobID, label)
	}
	for _, j := range jobs {
		for dep := range j.depends {
			if !dep.NeedRun {
				continue
			}
			fmt.Fprintf(w, "\t%d -> %d;\n", dep.JobID, j.JobID)
		}
	}
	fmt.Fprintln(w, "}")
}
