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

import (
	"reflect"
	"strings"
	"testing"
)

type testNode struct {
	id string
}

func (n *testNode) NodeID() string { return n.id }

func TestGraphBasics(t *testing.T) {
	a := &testNode{"a"}
	b := &testNode{"b"}
	c := &testNode{"c"}

	g := NewGraph()
	g.Add(a).Add(b).Add(c)

	// Duplicate add is ignored
	g.Add(c)

	g.Connect(c, b)
	g.Connect(b, a)

	nodes, err := g.Sort()
	if err != nil {
		t.Fatal(err)
	}

	expected := []Node{c, b, a}
	if !reflect.DeepEqual(expected, nodes) {
		t.Error("Sort failed", nodes)
	}
}

func TestGraphCycleDetected(t *testing.T) {
	a := &testNode{"a"}
	b := &testNode{"b"}

	g := NewGraph()
	g.Connect(a, b)
	g.Connect(b, a)

	if _, err := g.Sort(); err == nil {
		t.Error("expected a cycle error")
	}
}

func TestCheckAcyclic(t *testing.T) {
	a := &testNode{"a"}
	b := &testNode{"b"}
	c := &testNode{"c"}

	deps := map[string][]Node{
		"a": {b},
		"b": {c},
		"c": {},
	}
	err := CheckAcyclic([]Node{a, b, c}, func(n Node) []Node {
		return deps[n.NodeID()]
	})
	if err != nil {
		t.Fatalf("expected no cycle, got %v", err)
	}

	deps["c"] = []Node{a}
	err = CheckAcyclic([]Node{a, b, c}, func(n Node) []Node {
		return deps[n.NodeID()]
	})
	if err == nil {
		t.Fatal("expected a cycle error")
	}
}

func TestGenerateDOTRoundTrip(t *testing.T) {
	a := &testNode{"a"}
	b := &testNode{"b"}

	g := NewGraph()
	g.Connect(a, b)

	dot := string(g.GenerateDOT())
	if !strings.Contains(dot, `label="a"`) || !strings.Contains(dot, `label="b"`) {
		t.Errorf("expected node labels in DOT output: %s", dot)
	}
	if !strings.Contains(dot, "->") {
		t.Errorf("expected an edge in DOT output: %s", dot)
	}
}
