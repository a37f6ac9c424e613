package xform

import (
	"fmt"
	"sort"

	"github.com/h2oxi/pipecut/depgraph"
	"github.com/h2oxi/pipecut/ir"
)

// Rewrite splits a single barrier-containing module into a chain of
// stage modules connected by FIFOs, implementing SPEC_FULL.md §4.5. The
// original module is reused as stage 0 (a pure pass-through of the
// module's original input ports); one new module is created per distinct
// barrier value plus one terminal module for the computation after the
// last barrier.
func Rewrite(sys *ir.System, cfg *Config, moduleKey ir.Key) *Result {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := NewLog()
	res := &Result{Log: log, Module: moduleKey, NewModules: []ir.Key{moduleKey}}

	gi := buildGraph(sys, moduleKey)
	if len(gi.Barriers) == 0 {
		return res // nothing to split
	}

	// External call index: validate the at-most-one-caller precondition
	// for every distinct callee this module calls, before mutating
	// anything (SPEC_FULL.md §4.6, §7).
	seenCallee := map[ir.Key]bool{}
	for _, ck := range gi.CallerExprs {
		expr := ir.At[*ir.Expr](sys, ck)
		if len(expr.Operands) == 0 {
			continue
		}
		if expr.Opcode != ir.OpBind && expr.Opcode != ir.OpAsyncCall {
			continue
		}
		callee := expr.Operands[0]
		if seenCallee[callee] {
			continue
		}
		seenCallee[callee] = true
		if _, _, err := FindModuleWithCallers(sys, callee); err != nil {
			log.Errorf("%v", err)
		}
	}
	if log.ContainsErrors() {
		return res
	}

	stages, assigned := barrierLevels(gi, sys)

	// Validate the stage assignment against the true data-dependency
	// graph before committing to it (SPEC_FULL.md §9).
	if _, err := depgraph.StageOrder(gi.G, assigned, len(stages)+1); err != nil {
		log.Errorf("%v", err)
		return res
	}

	portsAtOrder := computeHops(stages, assigned)

	// Barrier erasure happens first, per SPEC_FULL.md §4.5.
	for _, b := range gi.Barriers {
		sys.Erase(b)
	}

	// One FIFO per (value, hop order), backing the port the receiving
	// stage declares for that value.
	fifoForHop := make(map[ir.Key]map[int]ir.Key)
	portFIFO := func(pk ir.Key, order int) ir.Key {
		if fifoForHop[pk] == nil {
			fifoForHop[pk] = make(map[int]ir.Key)
		}
		if k, ok := fifoForHop[pk][order]; ok {
			return k
		}
		dt, ok := sys.DataTypeOf(pk)
		if !ok {
			dt = cfg.FallbackType
			log.Infof("value at key %d has no recoverable type; using fallback", pk)
		}
		k := sys.NewFIFO(fmt.Sprintf("buffered_%d", pk), dt, 1)
		fifoForHop[pk][order] = k
		return k
	}

	originalMod := ir.At[*ir.Module](sys, moduleKey)

	// Every stage module and its ports are created up front so that each
	// stage's predecessor can obtain the successor's handle for caller
	// stitching (SPEC_FULL.md §4.5.4) before that successor's own body
	// has been cloned.
	newModuleKeys := make([]ir.Key, len(stages))
	for i, st := range stages {
		ports := portsAtOrder[st.Order]
		var portInfos []ir.PortInfo
		for _, pk := range ports {
			dt, ok := sys.DataTypeOf(pk)
			if !ok {
				dt = cfg.FallbackType
			}
			fk := portFIFO(pk, st.Order-1)
			portInfos = append(portInfos, ir.PortInfo{
				Name: fmt.Sprintf("buffered_%d", pk), DT: dt, IsInput: true, FIFO: fk,
			})
			if cfg.Verbose {
				log.Infof("stage %d declares port buffered_%d", st.Order, pk)
			}
		}
		name := fmt.Sprintf("%s_stage%d", originalMod.Name, st.Order)
		newModuleKeys[i] = sys.CreateModule(name, portInfos)
	}

	// Stage 0 caller stitching: the original module hands off to stage 1
	// with one bind_arg per port, carrying each value's raw (unremapped)
	// form -- no remapping has happened yet at this level.
	sys.WithCurrentModule(moduleKey, func() {
		bindStage(sys, newModuleKeys[0], portsAtOrder[stages[0].Order], func(pk ir.Key) ir.Key { return pk })
	})

	terminalIdx := len(stages) - 1
	for i, st := range stages {
		stageModKey := newModuleKeys[i]
		stageMod := ir.At[*ir.Module](sys, stageModKey)

		sys.WithCurrentModule(stageModKey, func() {
			nodeRemap := make(map[ir.Key]ir.Key)

			// Handshake prologue: AND-reduce every port's valid bit,
			// wait until all are ready, then pop each port.
			var validCond ir.Key = ir.NoKey
			for _, portDeclKey := range stageMod.Ports {
				v := sys.NewFIFOValid(portDeclKey)
				if validCond == ir.NoKey {
					validCond = v
				} else {
					validCond = sys.NewBitwiseAnd(validCond, v, ir.DataType{Bits: 1})
				}
			}
			if validCond != ir.NoKey {
				sys.NewWaitUntil(validCond)
			}
			ports := portsAtOrder[st.Order]
			for idx, pk := range ports {
				dt, ok := sys.DataTypeOf(pk)
				if !ok {
					dt = cfg.FallbackType
				}
				nodeRemap[pk] = sys.NewFIFOPop(stageMod.Ports[idx], dt)
			}

			for _, origKey := range st.Body {
				origExpr := ir.At[*ir.Expr](sys, origKey)
				nodeRemap[origKey] = cloneExpr(sys, log, origExpr, nodeRemap, cfg)
				if cfg.Verbose {
					log.Infof("cloned key %d into stage %d as key %d", origKey, st.Order, nodeRemap[origKey])
				}
			}

			if i == terminalIdx {
				rebindTerminalCallers(sys, log, gi, nodeRemap)
			} else {
				// Caller stitching for the next boundary: obtain the
				// successor's init-bind, bind_arg each of its ports from
				// this stage's own remap, then fire the async_call
				// (SPEC_FULL.md §4.5.4).
				nextOrder := stages[i+1].Order
				bindStage(sys, newModuleKeys[i+1], portsAtOrder[nextOrder], func(pk ir.Key) ir.Key {
					return nodeRemap[pk]
				})
			}
		})
	}
	res.NewModules = append(res.NewModules, newModuleKeys...)

	// Final cleanup: erase every original body expression (now cloned
	// into its stage module) and every preserved caller expression (now
	// re-emitted in the terminal stage), in descending key order so a
	// consumer is always erased before its producer.
	var toErase []ir.Key
	for _, st := range stages {
		toErase = append(toErase, st.Body...)
	}
	toErase = append(toErase, gi.CallerExprs...)
	sort.Slice(toErase, func(i, j int) bool { return toErase[i] > toErase[j] })
	for _, k := range toErase {
		sys.Erase(k)
		if cfg.Verbose {
			log.Infof("erased original key %d", k)
		}
	}

	return res
}

// bindStage emits the predecessor-side handoff of SPEC_FULL.md §4.5.4:
// one init-bind targeting calleeMod, one bind_arg per port in ports (in
// order, so bind_args correspond 1:1 with the callee's port list), and a
// final async_call that fires the call.
func bindStage(sys *ir.System, calleeMod ir.Key, ports []ir.Key, valueOf func(ir.Key) ir.Key) {
	init := sys.InitBind(calleeMod)
	for _, pk := range ports {
		sys.BindArg(init, valueOf(pk))
	}
	sys.NewAsyncCall(init)
}

// rebindTerminalCallers re-emits the original module's preserved
// caller-side expressions (FIFOPush/Bind/AsyncCall/Store) inside the
// terminal stage, remapping any data operand through nodeRemap.
func rebindTerminalCallers(sys *ir.System, log *Log, gi *GraphInfo, nodeRemap map[ir.Key]ir.Key) {
	remap := func(k ir.Key) ir.Key {
		if v, ok := nodeRemap[k]; ok {
			return v
		}
		return k
	}
	for _, ck := range gi.CallerExprs {
		orig := ir.At[*ir.Expr](sys, ck)
		switch orig.Opcode {
		case ir.OpBind:
			sys.NewBind(orig.Operands[0], remap(orig.Operands[1]))
		case ir.OpAsyncCall:
			sys.NewAsyncCall(orig.Operands[0])
		case ir.OpFIFOPush:
			sys.NewFIFOPush(orig.Operands[0], remap(orig.Operands[1]))
		case ir.OpStore:
			sys.NewStore(orig.Operands[0], remap(orig.Operands[1]))
		default:
			log.Warnf("unexpected caller opcode %s at key %d not re-emitted", orig.Opcode, ck)
		}
	}
}
