package graph

import (
	"container/heap"
	"fmt"
	"strings"
)

type intHeap []int

func (h intHeap) Len() int            { return len(h) }
func (h intHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *intHeap) Push(x any) { *h = append(*h, x.(int)) }
func (h *intHeap) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}

// Toposort linearizes the graph. Among nodes with no relative
// constraint the smallest declaration index runs first, never an
// arbitrary traversal order, so two graphs built from the same input
// always produce the same sequence. Returns ErrCycle (wrapped with the
// stuck nodes) if any dependency cycle exists.
func (g *Graph) Toposort() ([]Node, error) {
	indeg := make([]int, len(g.nodes))
	for i := range g.nodes {
		for j := range g.succs[i] {
			indeg[j]++
		}
	}

	ready := &intHeap{}
	for i, d := range indeg {
		if d == 0 {
			heap.Push(ready, i)
		}
	}

	order := make([]Node, 0, len(g.nodes))
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		order = append(order, g.nodes[i])
		for j := range g.succs[i] {
			indeg[j]--
			if indeg[j] == 0 {
				heap.Push(ready, j)
			}
		}
	}

	if len(order) != len(g.nodes) {
		var stuck []string
		for i, d := range indeg {
			if d > 0 {
				stuck = append(stuck, fmt.Sprintf("%v", g.nodes[i]))
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(stuck, ", "))
	}
	return order, nil
}
