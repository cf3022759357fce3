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
package cmd

import (
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/fugue/flowrun/iofile"
	"github.com/fugue/flowrun/job"
	"github.com/fugue/flowrun/ruleset"
	"github.com/fugue/flowrun/shellexec"
)

// buildDemoJobs returns a small three-rule pipeline rooted at workDir:
// "split" writes three sample files, "count" aggregates their line counts,
// and "report" sorts the counts through a spawned shell command. It
// exists because the rule parser and workflow loader that would normally
// discover a real pipeline from files on disk are out of scope (spec
// section 1); this gives the run command a real job graph to exercise
// LocalScheduler/ClusterScheduler/cache/events against, grounded on the
// dynamic-output example from spec section 9 ("out/{sample}.txt").
func buildDemoJobs(workDir string) ([]*job.Job, error) {
	outDir := filepath.Join(workDir, "out")
	sampleOutputs := []string{
		filepath.Join(outDir, "a.txt"),
		filepath.Join(outDir, "b.txt"),
		filepath.Join(outDir, "c.txt"),
	}

	split := &ruleset.SimpleRule{
		RuleName: "split",
		Outputs:  sampleOutputs,
		Message:  "splitting input into samples",
		Payload: func(input, output []iofile.IOFile, wildcards map[string]string, threads int, log iofile.IOFile) error {
			for i, out := range output {
				body := strings.Repeat(fmt.Sprintf("sample %d line\n", i), i+1)
				if err := ioutil.WriteFile(out.Path(), []byte(body), 0644); err != nil {
					return err
				}
			}
			return nil
		},
	}

	count := &ruleset.SimpleRule{
		RuleName: "count",
		Inputs:   sampleOutputs,
		Outputs:  []string{filepath.Join(workDir, "counts.txt")},
		Message:  "counting lines per sample",
		Depends:  []*ruleset.SimpleRule{split},
		Payload: func(input, output []iofile.IOFile, wildcards map[string]string, threads int, log iofile.IOFile) error {
			var report strings.Builder
			for _, in := range input {
				body, err := ioutil.ReadFile(in.Path())
				if err != nil {
					return err
				}
				lines := strings.Count(string(body), "\n")
				fmt.Fprintf(&report, "%s: %d\n", filepath.Base(in.Path()), lines)
			}
			return ioutil.WriteFile(output[0].Path(), []byte(report.String()), 0644)
		},
	}

	reportPath := filepath.Join(workDir, "report.txt")
	reportShells := shellexec.NewShellGroup(nil)
	report := &ruleset.SimpleRule{
		RuleName: "report",
		Inputs:   count.Outputs,
		Outputs:  []string{reportPath},
		Message:  "rendering sorted report via shell",
		ShellCmd: fmt.Sprintf("sort %s > %s", count.Outputs[0], reportPath),
		Depends:  []*ruleset.SimpleRule{count},
		Shells:   reportShells,
		Payload: func(input, output []iofile.IOFile, wildcards map[string]string, threads int, log iofile.IOFile) error {
			reportShells.Spawn(context.Background(), shellexec.Opts{
				Name:    "flowrun-report",
				Command: fmt.Sprintf("sort %s > %s", input[0].Path(), output[0].Path()),
			})
			return nil
		},
	}

	built, err := report.Run("", nil, false)
	if err != nil {
		return nil, err
	}
	root := built.(*job.Job)
	jobs := append([]*job.Job{root}, root.Descendants()...)
	return jobs, nil
}
