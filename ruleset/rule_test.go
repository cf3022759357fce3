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
package ruleset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fugue/flowrun/job"
	"github.com/fugue/flowrun/rule"
)

func TestSimpleRuleRunBuildsDependencyChain(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.txt")
	midPath := filepath.Join(dir, "mid.txt")
	outPath := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(srcPath, []byte("x"), 0644))

	compile := &SimpleRule{
		RuleName: "compile",
		Inputs:   []string{srcPath},
		Outputs:  []string{midPath},
	}
	link := &SimpleRule{
		RuleName: "link",
		Inputs:   []string{midPath},
		Outputs:  []string{outPath},
		Depends:  []*SimpleRule{compile},
	}

	built, err := link.Run("", nil, false)
	require.NoError(t, err)

	linkJob, ok := built.(*job.Job)
	require.True(t, ok)
	require.Equal(t, "link", linkJob.Rule.Name())
	require.Len(t, linkJob.Depends(), 1)
	require.Equal(t, "compile", linkJob.Depends()[0].Rule.Name())
	require.True(t, linkJob.NeedRun, "outputs are absent so both rules must need a run")
}

func TestSimpleRuleRunReusesAlreadyBuiltDependency(t *testing.T) {
	dir := t.TempDir()
	sharedPath := filepath.Join(dir, "shared.txt")

	shared := &SimpleRule{RuleName: "shared", Outputs: []string{sharedPath}}
	a := &SimpleRule{RuleName: "a", Depends: []*SimpleRule{shared}}
	b := &SimpleRule{RuleName: "b", Depends: []*SimpleRule{shared}}

	jobs := map[string]rule.Job{}
	_, err := a.Run("", jobs, false)
	require.NoError(t, err)
	_, err = b.Run("", jobs, false)
	require.NoError(t, err)

	require.Len(t, jobs, 3) // shared, a, b, but shared only built once
}

func TestNeedsRunDetectsStaleOutput(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.txt")
	outPath := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(outPath, []byte("old"), 0644))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, os.WriteFile(inPath, []byte("new"), 0644))

	require.True(t, needsRun([]string{inPath}, []string{outPath}))
}

func TestSimpleRuleRunBuildsDockerBackedShellGroupWhenImageSet(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")

	r := &SimpleRule{
		RuleName:       "containerized",
		Outputs:        []string{outPath},
		Image:          "golang:1.12",
		MountDirectory: dir,
	}

	built, err := r.Run("", nil, false)
	require.NoError(t, err)

	j, ok := built.(*job.Job)
	require.True(t, ok)
	require.NotNil(t, j.Shells, "a Docker image was requested so a ShellGroup must back the job")
}

func TestNeedsRunFalseWhenOutputNewer(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.txt")
	outPath := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(inPath, []byte("old"), 0644))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, os.WriteFile(outPath, []byte("new"), 0644))

	require.False(t, needsRun([]string{inPath}, []string{outPath}))
}
