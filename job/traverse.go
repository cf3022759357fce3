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

// Descendants returns every job j transitively depends on (its prerequisite
// chain), visited depth-first over depends, each appearing once. Naming
// follows spec section 4.2 and the source this was distilled from, where
// "descendants" traverses depends and "ancestors" traverses depending —
// inverted from the usual DAG sense of those words, but kept for fidelity.
func (j *Job) Descendants() []*Job {
	seen := map[*Job]struct{}{}
	var result []*Job
	var visit func(*Job)
	visit = func(n *Job) {
		for dep := range n.depends {
			if _, ok := seen[dep]; ok {
				continue
			}
			seen[dep] = struct{}{}
			result = append(result, dep)
			visit(dep)
		}
	}
	visit(j)
	return result
}

// Ancestors returns every job that transitively requires j (its consumers),
// visited breadth-first over depending, each appearing once. See
// Descendants for the naming note.
func (j *Job) Ancestors() []*Job {
	seen := map[*Job]struct{}{}
	var result []*Job
	queue := append([]*Job(nil), j.depending...)
	for _, d := range queue {
		seen[d] = struct{}{}
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		result = append(result, n)
		for _, d := range n.depending {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			queue = append(queue, d)
		}
	}
	return result
}
