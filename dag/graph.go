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

// Package dag provides a small generic directed graph, used by the job
// scheduler to double-check DAG invariants (acyclicity after a dynamic
// expansion splice) and to emit the DOT diagnostic format independently of
// the Job type's own depends/depending bookkeeping.
package dag

import (
	"bytes"
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// simpleNode adapts a Node to the gonum graph.Node interface
type simpleNode struct {
	id   int64
	node Node
}

func (n *simpleNode) ID() int64 { return n.id }

func (n *simpleNode) unwrap() Node { return n.node }

func wrap(n Node, id int64) *simpleNode {
	return &simpleNode{id: id, node: n}
}

// Node identifies a vertex in a Graph
type Node interface {
	NodeID() string
}

// Graph is a directed graph over Nodes, used to verify structural
// properties of a job DAG and to render it as DOT.
type Graph struct {
	graph   *simple.DirectedGraph
	nodes   map[string]Node
	wrapped map[string]*simpleNode
	index   int64
}

// NewGraph returns an empty Graph
func NewGraph() *Graph {
	return &Graph{
		graph:   simple.NewDirectedGraph(),
		nodes:   map[string]Node{},
		wrapped: map[string]*simpleNode{},
	}
}

// Count returns the number of Nodes in the Graph
func (g *Graph) Count() int {
	return len(g.nodes)
}

// Add one or more Nodes to the Graph
func (g *Graph) Add(n ...Node) *Graph {
	for _, node := range n {
		g.add(node)
	}
	return g
}

func (g *Graph) add(n Node) *simpleNode {
	nodeID := n.NodeID()
	if wrapped, found := g.wrapped[nodeID]; found {
		return wrapped
	}
	g.index++
	wrapped := wrap(n, g.index)
	g.nodes[nodeID] = n
	g.wrapped[nodeID] = wrapped
	g.graph.AddNode(wrapped)
	return wrapped
}

// Remove a Node from the Graph
func (g *Graph) Remove(n Node) *Graph {
	nodeID := n.NodeID()
	if wrapped, found := g.wrapped[nodeID]; found {
		g.graph.RemoveNode(wrapped.id)
		delete(g.nodes, nodeID)
		delete(g.wrapped, nodeID)
	}
	return g
}

// Connect declares a directed edge from -> to
func (g *Graph) Connect(from, to Node) *Graph {
	f := g.add(from)
	t := g.add(to)
	g.graph.SetEdge(simple.Edge{F: f, T: t})
	return g
}

// Sort returns a topological sort of the Graph. It returns an error if and
// only if the graph is not acyclic, which callers use to check invariant 2
// of the scheduler (the DAG never develops a cycle, including across a
// dynamic-expansion splice).
func (g *Graph) Sort() ([]Node, error) {
	sorted, err := topo.Sort(g.graph)
	if err != nil {
		return nil, err
	}
	resolved := make([]Node, len(sorted))
	for i, n := range sorted {
		resolved[i] = n.(*simpleNode).unwrap()
	}
	return resolved, nil
}

// From returns the nodes directly reachable from n
func (g *Graph) From(n Node) []Node {
	wrapped, ok := g.wrapped[n.NodeID()]
	if !ok {
		return nil
	}
	return nodesFromIterator(g.graph.From(wrapped.ID()))
}

// To returns the nodes that can directly reach n
func (g *Graph) To(n Node) []Node {
	wrapped, ok := g.wrapped[n.NodeID()]
	if !ok {
		return nil
	}
	return nodesFromIterator(g.graph.To(wrapped.ID()))
}

func nodesFromIterator(iter graph.Nodes) []Node {
	nodes := make([]Node, 0, iter.Len())
	for iter.Next() {
		nodes = append(nodes, iter.Node().(*simpleNode).unwrap())
	}
	return nodes
}

// GenerateDOT renders the graph in DOT format
func (g *Graph) GenerateDOT() []byte {
	var buf bytes.Buffer

	buf.WriteString("strict digraph {\n\n\t// Node definitions.\n")
	for k, v := range g.wrapped {
		buf.WriteString("\t" + fmt.Sprint(v.id) + "\t[label=\"" + k + "\"];\n")
	}

	buf.WriteString("\n\t// Edge definitions.\n")
	edges := g.graph.Edges()
	for edges.Next() {
		f := edges.Edge().From().ID()
		t := edges.Edge().To().ID()
		buf.WriteString("\t" + fmt.Sprint(f) + " -> " + fmt.Sprint(t) + ";\n")
	}

	buf.WriteString("}\n")
	return buf.Bytes()
}
