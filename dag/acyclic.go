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
package dag

import "fmt"

// CheckAcyclic builds a Graph from nodes and the given edge function (which
// should return the nodes immediately depended on by n) and returns an error
// if the resulting graph contains a cycle. This backs invariant 2 from the
// scheduler's testable properties: the job DAG must stay acyclic across a
// dynamic-expansion splice.
func CheckAcyclic(nodes []Node, dependsOn func(Node) []Node) error {
	g := NewGraph()
	for _, n := range nodes {
		g.Add(n)
		for _, dep := range dependsOn(n) {
			g.Connect(n, dep)
		}
	}
	if _, err := g.Sort(); err != nil {
		return fmt.Errorf("job graph contains a cycle: %w", err)
	}
	return nil
}
