// Package graph derives execution-order constraints from operator
// signal-access declarations and linearizes them deterministically.
package graph

import (
	"errors"

	"github.com/kamenik/sigflow/internal/signal"
)

// ErrCycle indicates a contradictory model whose operators form a
// circular dependency. It is fatal at construction time.
var ErrCycle = errors.New("graph: dependency cycle among operators")

// Node declares the signal accesses that order an operator relative to
// others. Overlap is resolved through base identity, so two views of
// one buffer are the same resource.
type Node interface {
	Reads() []*signal.Signal
	Sets() []*signal.Signal
	Incs() []*signal.Signal
}

// Graph holds "must execute before" edges over a fixed node set.
// Declaration order of the node slice is remembered and used as the
// toposort tie-break, so identical inputs always linearize identically.
type Graph struct {
	nodes []Node
	index map[Node]int
	succs []map[int]bool
}

type access struct {
	sets, incs, reads []int
}

// Build constructs the dependency graph for nodes. For every base
// signal: each writer precedes every incrementer and reader of that
// base, each incrementer precedes every reader, writers are ordered
// among themselves by declaration order, and incrementers stay mutually
// unordered (increments commute).
func Build(nodes []Node) *Graph {
	g := &Graph{
		nodes: nodes,
		index: make(map[Node]int, len(nodes)),
		succs: make([]map[int]bool, len(nodes)),
	}
	for i, n := range nodes {
		g.index[n] = i
		g.succs[i] = make(map[int]bool)
	}

	byBase := make(map[*signal.Signal]*access)
	at := func(s *signal.Signal) *access {
		b := s.Base()
		a, ok := byBase[b]
		if !ok {
			a = &access{}
			byBase[b] = a
		}
		return a
	}
	for i, n := range nodes {
		for _, s := range n.Sets() {
			at(s).sets = append(at(s).sets, i)
		}
		for _, s := range n.Incs() {
			at(s).incs = append(at(s).incs, i)
		}
		for _, s := range n.Reads() {
			at(s).reads = append(at(s).reads, i)
		}
	}

	for _, a := range byBase {
		for k := 0; k+1 < len(a.sets); k++ {
			g.addEdge(a.sets[k], a.sets[k+1])
		}
		for _, w := range a.sets {
			for _, v := range a.incs {
				g.addEdge(w, v)
			}
			for _, r := range a.reads {
				g.addEdge(w, r)
			}
		}
		for _, v := range a.incs {
			for _, r := range a.reads {
				g.addEdge(v, r)
			}
		}
	}
	return g
}

func (g *Graph) addEdge(from, to int) {
	if from == to {
		return
	}
	g.succs[from][to] = true
}

// Successors returns the nodes that must run after n, in declaration
// order.
func (g *Graph) Successors(n Node) []Node {
	i, ok := g.index[n]
	if !ok {
		return nil
	}
	var out []Node
	for j := range g.nodes {
		if g.succs[i][j] {
			out = append(out, g.nodes[j])
		}
	}
	return out
}
