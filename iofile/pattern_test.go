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

	"github.com/stretchr/testify/require"
)

func TestGlobMatcherListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	m := NewGlobMatcher()
	matches, err := m.ListFiles(filepath.Join(dir, "{sample}.txt"))
	require.NoError(t, err)
	require.Len(t, matches, 3)

	var samples []string
	for _, match := range matches {
		samples = append(samples, match.Wildcards["sample"])
	}
	require.ElementsMatch(t, []string{"a", "b", "c"}, samples)
}

func TestGlobMatcherExpandIsZippedNotCartesian(t *testing.T) {
	m := NewGlobMatcher()
	out, err := m.Expand("out/{sample}_{lane}.txt", map[string][]string{
		"sample": {"a", "b"},
		"lane":   {"1", "2"},
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"out/a_1.txt", "out/b_2.txt"}, out)
}

func TestGlobMatcherExpandTruncatesToShortest(t *testing.T) {
	m := NewGlobMatcher()
	out, err := m.Expand("out/{sample}.txt", map[string][]string{
		"sample": {"a", "b", "c"},
		"unused": {"1"},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "out/a.txt", out[0])
}

func TestGlobMatcherExpandMissingWildcard(t *testing.T) {
	m := NewGlobMatcher()
	_, err := m.Expand("out/{sample}_{lane}.txt", map[string][]string{
		"sample": {"a"},
	})
	require.Error(t, err)
}
