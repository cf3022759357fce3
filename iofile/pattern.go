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
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// Match is one file found by a PatternMatcher, together with the wildcard
// values that were captured from its path.
type Match struct {
	Path      string
	Wildcards map[string]string
}

// PatternMatcher resolves dynamic-output/input patterns against the
// filesystem. It is the "wildcard-expansion and file-pattern matcher"
// named as an external, out-of-scope collaborator in spec section 1:
// DynamicExpansion depends on this interface rather than hand-rolling glob
// and wildcard-regex logic itself.
type PatternMatcher interface {
	// ListFiles enumerates files on disk that match a dynamic pattern such
	// as "out/{sample}.txt", returning one Match per file with its
	// captured wildcard values.
	ListFiles(pattern string) ([]Match, error)

	// Expand substitutes wildcardExpansion into pattern using a zipped
	// (paired, not Cartesian) cross-product: the i-th result substitutes
	// the i-th value of every wildcard name. The number of results is the
	// length of the shortest value slice.
	Expand(pattern string, wildcardExpansion map[string][]string) ([]string, error)
}

var wildcardRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// globMatcher is the default PatternMatcher, grounded on the teacher's
// project/file.go FileSystem.Match (doublestar glob over the component
// tree), extended with named-wildcard capture.
type globMatcher struct{}

// NewGlobMatcher returns the default filesystem-backed PatternMatcher.
func NewGlobMatcher() PatternMatcher {
	return &globMatcher{}
}

func (m *globMatcher) ListFiles(pattern string) ([]Match, error) {
	glob := toGlob(pattern)
	re, names := toRegex(pattern)

	paths, err := doublestar.Glob(glob)
	if err != nil {
		return nil, fmt.Errorf("failed to match pattern %s: %w", pattern, err)
	}

	var matches []Match
	for _, p := range paths {
		sub := re.FindStringSubmatch(p)
		if sub == nil {
			continue
		}
		wildcards := make(map[string]string, len(names))
		for i, name := range names {
			wildcards[name] = sub[i+1]
		}
		matches = append(matches, Match{Path: p, Wildcards: wildcards})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Path < matches[j].Path })
	return matches, nil
}

func (m *globMatcher) Expand(pattern string, wildcardExpansion map[string][]string) ([]string, error) {
	if len(wildcardExpansion) == 0 {
		return nil, fmt.Errorf("no wildcard values to expand %s with", pattern)
	}
	minLen := -1
	names := make([]string, 0, len(wildcardExpansion))
	for name, values := range wildcardExpansion {
		names = append(names, name)
		if minLen == -1 || len(values) < minLen {
			minLen = len(values)
		}
	}
	sort.Strings(names)

	result := make([]string, 0, minLen)
	for i := 0; i < minLen; i++ {
		rendered := pattern
		for _, name := range names {
			rendered = strings.ReplaceAll(rendered, "{"+name+"}", wildcardExpansion[name][i])
		}
		if wildcardRe.MatchString(rendered) {
			return nil, fmt.Errorf("pattern %s references a wildcard not present in the expansion", pattern)
		}
		result = append(result, rendered)
	}
	return result, nil
}

// toGlob converts a {wildcard} pattern into a doublestar glob by replacing
// each wildcard placeholder with a single "*" path segment.
func toGlob(pattern string) string {
	return wildcardRe.ReplaceAllString(pattern, "*")
}

// toRegex converts a {wildcard} pattern into an anchored regex with one
// (unnamed) capture group per wildcard, and returns the wildcard names in
// the order their groups appear.
func toRegex(pattern string) (*regexp.Regexp, []string) {
	var names []string
	quoted := regexp.QuoteMeta(pattern)
	// QuoteMeta escapes the braces too; undo that before re-matching them.
	quoted = strings.NewReplacer(`\{`, "{", `\}`, "}").Replace(quoted)
	exprStr := wildcardRe.ReplaceAllStringFunc(quoted, func(tok string) string {
		name := wildcardRe.FindStringSubmatch(tok)[1]
		names = append(names, name)
		return "(.+)"
	})
	return regexp.MustCompile("^" + exprStr + "$"), names
}
