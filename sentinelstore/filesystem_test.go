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
package sentinelstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilesystemHeadNotFoundBeforePut(t *testing.T) {
	dir := t.TempDir()
	s := NewFilesystem(dir)

	_, err := s.Head(context.Background(), "job-1")
	require.Error(t, err)
	require.IsType(t, NotFound(""), err)
}

func TestFilesystemPutThenHeadAndGet(t *testing.T) {
	dir := t.TempDir()
	s := NewFilesystem(dir)

	srcPath := filepath.Join(dir, "src.log")
	require.NoError(t, os.WriteFile(srcPath, []byte("done"), 0644))

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "job-1", srcPath, map[string]string{"exit_code": "0"}))

	meta, err := s.Head(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, 0, meta.ExitCode())

	dstPath := filepath.Join(dir, "dst.log")
	require.NoError(t, s.Get(ctx, "job-1", dstPath))

	contents, err := os.ReadFile(dstPath)
	require.NoError(t, err)
	require.Equal(t, "done", string(contents))
}

func TestItemMetaExitCodeDefaultsToNegativeOneWhenAbsent(t *testing.T) {
	require.Equal(t, -1, ItemMeta{}.ExitCode())
}

func TestItemMetaExitCodeParsesNonZero(t *testing.T) {
	require.Equal(t, 17, ItemMeta{Meta: map[string]string{"exit_code": "17"}}.ExitCode())
}
