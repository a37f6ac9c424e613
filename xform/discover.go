package xform

import "github.com/h2oxi/pipecut/ir"

// skipModule reports whether a module is excluded from discovery
// entirely. Both "driver" and "testbench" are skipped, matching the text
// of spec.md §4.1 (and rewrite_pipeline_buffer.rs's GatherModulesToCut,
// which is stricter here than barrier_analysis.rs's GatherModulesToCut --
// see DESIGN.md Open Question Decisions, item 3).
func skipModule(name string) bool {
	return name == "driver" || name == "testbench"
}

// gatherModulesToCut is a Visitor that records every module containing at
// least one Barrier expression, grounded on both original variants'
// GatherModulesToCut visitor.
type gatherModulesToCut struct {
	ir.BaseVisitor
	sys     *ir.System
	current ir.Key
	found   map[ir.Key]bool
	order   []ir.Key
}

func (g *gatherModulesToCut) VisitModule(sys *ir.System, m ir.Key) bool {
	mod := ir.At[*ir.Module](sys, m)
	if skipModule(mod.Name) {
		return false
	}
	g.current = m
	return true
}

func (g *gatherModulesToCut) VisitExpr(sys *ir.System, e ir.Key) bool {
	expr := ir.At[*ir.Expr](sys, e)
	if expr.Opcode == ir.OpBarrier {
		if !g.found[g.current] {
			g.found[g.current] = true
			g.order = append(g.order, g.current)
		}
	}
	return true
}

// Discover walks every module (skipping driver/testbench) and returns the
// keys of modules that contain at least one Barrier expression, in module
// creation order.
func Discover(sys *ir.System) []ir.Key {
	v := &gatherModulesToCut{sys: sys, found: make(map[ir.Key]bool)}
	ir.Walk(sys, v)
	return v.order
}
