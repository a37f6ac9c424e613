package xform

import (
	"github.com/h2oxi/pipecut/depgraph"
	"github.com/h2oxi/pipecut/ir"
)

// GraphInfo is the classified dependency graph for a single module,
// produced by buildGraph and consumed by barrierLevels/Rewrite.
type GraphInfo struct {
	G *depgraph.Graph

	// Seeds are the module's original input ports: every Load/FIFOPop
	// expression key, in appearance order.
	Seeds []ir.Key
	seed  map[ir.Key]bool

	// Barriers are every Barrier expression key, in appearance order.
	Barriers []ir.Key

	// CallerExprs are FIFOPush/Store/Bind/AsyncCall expressions: caller-side
	// effects that are preserved (re-emitted, not cloned) rather than
	// being part of any stage body.
	CallerExprs []ir.Key

	// Outputs are the value keys feeding a module output: the value
	// operand of Store/FIFOPush, and the argument operand of Bind.
	Outputs []ir.Key
}

// buildGraph performs a single visitor pass over moduleKey, grounded on
// GraphVisitor in original_source/src/xform/barrier_analysis.rs: Barrier
// expressions seed the barrier list; Bind/AsyncCall/FIFOPush/Store are
// caller-side effects, excluded from the dependency graph itself and
// preserved for re-emission in the terminal stage; Load/FIFOPop are
// seeds; Store's and FIFOPush's value operand (operand 1) are module
// outputs; Slice only draws a dependency edge from operand 0; everything
// else draws one edge per operand.
func buildGraph(sys *ir.System, moduleKey ir.Key) *GraphInfo {
	gi := &GraphInfo{G: depgraph.NewGraph(), seed: make(map[ir.Key]bool)}

	mod := ir.At[*ir.Module](sys, moduleKey)
	blk := ir.At[*ir.Block](sys, mod.Body)

	for _, ek := range blk.Exprs {
		expr := ir.At[*ir.Expr](sys, ek)
		switch expr.Opcode {
		case ir.OpBarrier:
			gi.Barriers = append(gi.Barriers, ek)

		case ir.OpBind, ir.OpAsyncCall:
			gi.CallerExprs = append(gi.CallerExprs, ek)
			if expr.Opcode == ir.OpBind && len(expr.Operands) > 1 {
				gi.Outputs = append(gi.Outputs, expr.Operands[1])
			}

		case ir.OpFIFOPush:
			gi.CallerExprs = append(gi.CallerExprs, ek)
			if len(expr.Operands) > 1 {
				gi.Outputs = append(gi.Outputs, expr.Operands[1])
			}

		case ir.OpLoad, ir.OpFIFOPop:
			gi.Seeds = append(gi.Seeds, ek)
			gi.seed[ek] = true

		case ir.OpStore:
			gi.CallerExprs = append(gi.CallerExprs, ek)
			if len(expr.Operands) > 1 {
				gi.Outputs = append(gi.Outputs, expr.Operands[1])
			}

		case ir.OpSlice:
			gi.G.AddEdge(expr.Operands[0], ek)

		default:
			for _, opnd := range expr.Operands {
				gi.G.AddEdge(opnd, ek)
			}
		}
	}
	return gi
}
