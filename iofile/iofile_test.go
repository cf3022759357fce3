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
package iofile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileTouchCreatesAndBumpsMtime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "out.txt")

	f := New(path)
	require.NoError(t, f.Prepare())
	require.NoError(t, f.Touch("build", 1, "Rulefile"))

	exists, err := f.Exists()
	require.NoError(t, err)
	require.True(t, exists)

	info, err := os.Stat(path)
	require.NoError(t, err)
	first := info.ModTime()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, f.Touch("build", 1, "Rulefile"))
	info, err = os.Stat(path)
	require.NoError(t, err)
	require.True(t, info.ModTime().After(first) || info.ModTime().Equal(first))
}

func TestFileCreatedFailsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	f := New(filepath.Join(dir, "missing.txt"))
	err := f.Created("build", 3, "Rulefile")
	require.Error(t, err)
	var missing *MissingOutputError
	require.ErrorAs(t, err, &missing)
}

func TestFileRemoveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	f := Create(path, true, false)
	require.NoError(t, f.Touch("build", 1, "Rulefile"))
	require.NoError(t, f.Remove())
	require.NoError(t, f.Remove())
	require.True(t, f.IsTemp())
	require.False(t, f.IsProtected())
}
