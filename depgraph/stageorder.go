package depgraph

import (
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/h2oxi/pipecut/ir"
)

// StageOrder validates and linearizes the stage chain assigned by xform's
// barrierLevels (SPEC_FULL.md §4.3-4.4) against the true data-dependency
// graph, rather than trusting that assignment in isolation (SPEC_FULL.md
// §10.3). stageOf maps every expression
// key in the graph to the stage index it was assigned to; numStages is
// the total stage count. It returns the stage indices in an order
// consistent with every producer->consumer edge that crosses a stage
// boundary, or an error if the crossing edges are cyclic.
//
// Grounded on _examples/other_examples/3717c5f1_distr1-distri__cmd-distri-batch.go.go,
// which builds a simple.DirectedGraph over dependency edges and calls
// topo.Sort, reporting topo.Unorderable on a cycle.
func StageOrder(g *Graph, stageOf map[ir.Key]int, numStages int) ([]int64, error) {
	dg := simple.NewDirectedGraph()
	for i := 0; i < numStages; i++ {
		dg.AddNode(simple.Node(int64(i)))
	}
	seen := make(map[[2]int64]bool)
	for producer, consumers := range g.succ {
		ps, ok := stageOf[producer]
		if !ok {
			continue
		}
		for _, consumer := range consumers {
			cs, ok := stageOf[consumer]
			if !ok || cs == ps {
				continue
			}
			edge := [2]int64{int64(ps), int64(cs)}
			if seen[edge] {
				continue
			}
			seen[edge] = true
			dg.SetEdge(dg.NewEdge(simple.Node(int64(ps)), simple.Node(int64(cs))))
		}
	}

	ordered, err := topo.Sort(dg)
	if err != nil {
		return nil, fmt.Errorf("depgraph: stage dependency graph is not a DAG: %w", err)
	}
	out := make([]int64, len(ordered))
	for i, n := range ordered {
		out[i] = n.ID()
	}
	return out, nil
}
