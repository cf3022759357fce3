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
package cache

import (
	"context"
	"io/ioutil"
	"os"
	"path"
	"testing"

	"github.com/fugue/flowrun/iofile"
	"github.com/fugue/flowrun/job"
	"github.com/fugue/flowrun/ruleset"
	"github.com/fugue/flowrun/sentinelstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, text string) {
	t.Helper()
	require.Nil(t, ioutil.WriteFile(name, []byte(text), 0644))
}

func newTestJob(t *testing.T, dir string) *job.Job {
	t.Helper()
	srcPath := path.Join(dir, "main.go")
	outPath := path.Join(dir, "main.out")
	writeFile(t, srcPath, "package main")

	rule := &ruleset.SimpleRule{RuleName: "build", Inputs: []string{"main.go"}, Outputs: []string{"main.out"}}
	return job.New(job.Opts{
		Rule:      rule,
		Input:     []iofile.IOFile{iofile.New(srcPath)},
		Output:    []iofile.IOFile{iofile.New(outPath)},
		Wildcards: map[string]string{},
		ShellCmd:  "go build -o main.out main.go",
	})
}

func TestCacheKeyIsStableAcrossCalls(t *testing.T) {
	tmpDir, err := ioutil.TempDir("", "flowrun-cache-")
	require.Nil(t, err)
	defer os.RemoveAll(tmpDir)

	j := newTestJob(t, tmpDir)
	c := New(Opts{Store: sentinelstore.NewFilesystem(path.Join(tmpDir, "store"))})

	key1, err := c.Key(context.Background(), j)
	require.Nil(t, err)
	key2, err := c.Key(context.Background(), j)
	require.Nil(t, err)

	assert.Equal(t, key1.String(), key2.String())
	assert.NotEmpty(t, key1.String())
}

func TestCacheKeyChangesWithInputContent(t *testing.T) {
	tmpDir, err := ioutil.TempDir("", "flowrun-cache-")
	require.Nil(t, err)
	defer os.RemoveAll(tmpDir)

	j := newTestJob(t, tmpDir)
	c := New(Opts{Store: sentinelstore.NewFilesystem(path.Join(tmpDir, "store"))})

	before, err := c.Key(context.Background(), j)
	require.Nil(t, err)

	writeFile(t, path.Join(tmpDir, "main.go"), "package main // changed")

	after, err := c.Key(context.Background(), j)
	require.Nil(t, err)

	assert.NotEqual(t, before.String(), after.String())
}

func TestCacheWriteThenReadRestoresOutput(t *testing.T) {
	tmpDir, err := ioutil.TempDir("", "flowrun-cache-")
	require.Nil(t, err)
	defer os.RemoveAll(tmpDir)

	j := newTestJob(t, tmpDir)
	c := New(Opts{Store: sentinelstore.NewFilesystem(path.Join(tmpDir, "store"))})

	writeFile(t, j.Output[0].Path(), "built binary contents")
	require.Nil(t, c.Write(context.Background(), j))

	require.Nil(t, os.Remove(j.Output[0].Path()))

	require.Nil(t, c.Read(context.Background(), j))
	contents, err := ioutil.ReadFile(j.Output[0].Path())
	require.Nil(t, err)
	assert.Equal(t, "built binary contents", string(contents))
}

func TestCacheReadIsMissWhenNeverWritten(t *testing.T) {
	tmpDir, err := ioutil.TempDir("", "flowrun-cache-")
	require.Nil(t, err)
	defer os.RemoveAll(tmpDir)

	j := newTestJob(t, tmpDir)
	c := New(Opts{Store: sentinelstore.NewFilesystem(path.Join(tmpDir, "store"))})

	err = c.Read(context.Background(), j)
	assert.Equal(t, Miss, err)
}

func TestWrapJobSkipsPayloadOnCacheHit(t *testing.T) {
	tmpDir, err := ioutil.TempDir("", "flowrun-cache-")
	require.Nil(t, err)
	defer os.RemoveAll(tmpDir)

	j := newTestJob(t, tmpDir)
	c := New(Opts{Store: sentinelstore.NewFilesystem(path.Join(tmpDir, "store"))})

	writeFile(t, j.Output[0].Path(), "cached contents")
	require.Nil(t, c.Write(context.Background(), j))
	require.Nil(t, os.Remove(j.Output[0].Path()))

	calls := 0
	j.Payload = func(input, output []iofile.IOFile, wildcards map[string]string, threads int, log iofile.IOFile) error {
		calls++
		return nil
	}
	WrapJob(c, j)

	require.Nil(t, j.Payload(j.Input, j.Output, j.Wildcards, j.Threads, nil))
	assert.Equal(t, 0, calls, "original payload must be skipped on a cache hit")

	contents, err := ioutil.ReadFile(j.Output[0].Path())
	require.Nil(t, err)
	assert.Equal(t, "cached contents", string(contents))
}

func TestWrapJobRunsPayloadAndWritesCacheOnMiss(t *testing.T) {
	tmpDir, err := ioutil.TempDir("", "flowrun-cache-")
	require.Nil(t, err)
	defer os.RemoveAll(tmpDir)

	j := newTestJob(t, tmpDir)
	c := New(Opts{Store: sentinelstore.NewFilesystem(path.Join(tmpDir, "store"))})

	calls := 0
	j.Payload = func(input, output []iofile.IOFile, wildcards map[string]string, threads int, log iofile.IOFile) error {
		calls++
		return ioutil.WriteFile(output[0].Path(), []byte("freshly built"), 0644)
	}
	WrapJob(c, j)

	require.Nil(t, j.Payload(j.Input, j.Output, j.Wildcards, j.Threads, nil))
	assert.Equal(t, 1, calls)

	require.Nil(t, os.Remove(j.Output[0].Path()))
	require.Nil(t, c.Read(context.Background(), j))
	contents, err := ioutil.ReadFile(j.Output[0].Path())
	require.Nil(t, err)
	assert.Equal(t, "freshly built", string(contents))
}
