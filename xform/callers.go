package xform

import (
	"fmt"

	"github.com/h2oxi/pipecut/ir"
)

// FindModuleWithCallers is the external call index of SPEC_FULL.md §4.6:
// it scans every module in sys for Bind/AsyncCall expressions whose
// callee operand is calleeKey and reports the single owning module they
// live in. Per DESIGN.md's Open Question Decisions (item 2), more than
// one distinct owning module is treated as a precondition violation
// rather than silently rewired -- the terminal-stage re-emission in
// Rewrite only has one coherent place to put the re-bound call.
func FindModuleWithCallers(sys *ir.System, calleeKey ir.Key) (callerModule ir.Key, siteKeys []ir.Key, err error) {
	callerModule = ir.NoKey
	for _, mk := range sys.Modules() {
		mod := ir.At[*ir.Module](sys, mk)
		blk := ir.At[*ir.Block](sys, mod.Body)
		for _, ek := range blk.Exprs {
			expr := ir.At[*ir.Expr](sys, ek)
			if (expr.Opcode == ir.OpBind || expr.Opcode == ir.OpAsyncCall) &&
				len(expr.Operands) > 0 && expr.Operands[0] == calleeKey {
				if callerModule == ir.NoKey {
					callerModule = mk
				} else if callerModule != mk {
					return ir.NoKey, nil, fmt.Errorf(
						"module %d has callers in both module %d and module %d: at most one caller site is supported",
						calleeKey, callerModule, mk)
				}
				siteKeys = append(siteKeys, ek)
			}
		}
	}
	return callerModule, siteKeys, nil
}
