package depgraph

import (
	"testing"

	"github.com/h2oxi/pipecut/ir"
)

func TestAddEdgeAndQuery(t *testing.T) {
	g := NewGraph()
	g.AddEdge(ir.Key(1), ir.Key(2))
	g.AddEdge(ir.Key(1), ir.Key(3))

	succs := g.Succs(ir.Key(1))
	if len(succs) != 2 {
		t.Fatalf("expected 2 successors, got %d", len(succs))
	}
	preds := g.Preds(ir.Key(2))
	if len(preds) != 1 || preds[0] != ir.Key(1) {
		t.Fatalf("expected [1] as predecessor of 2, got %v", preds)
	}
}

func TestKeySetUnion(t *testing.T) {
	g := NewGraph()
	g.AddEdge(ir.Key(1), ir.Key(2))
	g.AddEdge(ir.Key(3), ir.Key(4))

	a := g.NewSet()
	a.Add(ir.Key(1))
	b := g.NewSet()
	b.Add(ir.Key(3))
	a.Union(b)

	if !a.Has(ir.Key(1)) || !a.Has(ir.Key(3)) {
		t.Fatal("expected union to contain both members")
	}
	if a.Has(ir.Key(2)) {
		t.Fatal("union should not contain key never added")
	}
	if a.Len() != 2 {
		t.Fatalf("expected length 2, got %d", a.Len())
	}
}

func TestStageOrderDetectsCycle(t *testing.T) {
	g := NewGraph()
	// Two expressions in stage 0 and 1, crossing edge 0->1 and a spurious
	// 1->0, producing a cycle at the stage level.
	g.AddEdge(ir.Key(10), ir.Key(20))
	g.AddEdge(ir.Key(20), ir.Key(11))

	stageOf := map[ir.Key]int{10: 0, 20: 1, 11: 0}
	if _, err := StageOrder(g, stageOf, 2); err == nil {
		t.Fatal("expected a cycle error for stage graph 0->1->0")
	}
}

func TestStageOrderLinearizesChain(t *testing.T) {
	g := NewGraph()
	g.AddEdge(ir.Key(1), ir.Key(2)) // stage 0 -> stage 1
	g.AddEdge(ir.Key(2), ir.Key(3)) // stage 1 -> stage 2

	stageOf := map[ir.Key]int{1: 0, 2: 1, 3: 2}
	order, err := StageOrder(g, stageOf, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 3 || order[0] != 0 || order[2] != 2 {
		t.Fatalf("expected ordered [0 1 2], got %v", order)
	}
}
