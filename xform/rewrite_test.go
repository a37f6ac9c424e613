package xform

import (
	"testing"

	"github.com/h2oxi/pipecut/ir"
)

// buildWorker constructs a module named "worker" with two signed-32
// input ports (a, b) and one output port (out), with the given body
// builder run with that module selected as current.
func buildWorker(t *testing.T, name string, build func(sys *ir.System, mod *ir.Module, a, b ir.Key)) (*ir.System, ir.Key) {
	t.Helper()
	sys := ir.NewSystem()
	modKey := sys.CreateModule(name, []ir.PortInfo{
		{Name: "a", DT: ir.Signed32, IsInput: true},
		{Name: "b", DT: ir.Signed32, IsInput: true},
		{Name: "out", DT: ir.Signed32, IsInput: false},
	})
	mod := ir.At[*ir.Module](sys, modKey)
	sys.WithCurrentModule(modKey, func() {
		a := sys.NewLoad(mod.Ports[0], ir.Signed32)
		b := sys.NewLoad(mod.Ports[1], ir.Signed32)
		build(sys, mod, a, b)
	})
	return sys, modKey
}

func countOpcode(sys *ir.System, modKey ir.Key, op ir.Opcode) int {
	mod := ir.At[*ir.Module](sys, modKey)
	blk := ir.At[*ir.Block](sys, mod.Body)
	n := 0
	for _, ek := range blk.Exprs {
		if ir.At[*ir.Expr](sys, ek).Opcode == op {
			n++
		}
	}
	return n
}

// S1: a single barrier between an Add and a Mul.
func TestSingleBarrierAddThenMul(t *testing.T) {
	sys, modKey := buildWorker(t, "worker", func(sys *ir.System, mod *ir.Module, a, b ir.Key) {
		add := sys.NewAdd(a, b, ir.Signed32)
		sys.NewBarrier(add)
		mul := sys.NewMul(add, b, ir.Signed32)
		sys.NewStore(mod.Ports[2], mul)
	})

	res := Rewrite(sys, DefaultConfig(), modKey)
	if res.Log.ContainsErrors() {
		t.Fatalf("unexpected errors: %s", res.Log)
	}
	if len(res.NewModules) != 3 {
		t.Fatalf("expected original + 2 stage modules, got %d: %v", len(res.NewModules), res.NewModules)
	}

	// Invariant: no Barrier expression survives anywhere in the system.
	for _, mk := range sys.Modules() {
		if countOpcode(sys, mk, ir.OpBarrier) != 0 {
			t.Fatalf("barrier not erased in module %d", mk)
		}
	}

	terminal := res.NewModules[2]
	if countOpcode(sys, terminal, ir.OpBinaryMul) != 1 {
		t.Fatal("expected the Mul to be cloned into the terminal stage")
	}
	if countOpcode(sys, terminal, ir.OpStore) != 1 {
		t.Fatal("expected Store to be re-emitted in the terminal stage")
	}
	if countOpcode(sys, modKey, ir.OpStore) != 0 {
		t.Fatal("expected the original Store to be erased from stage 0")
	}

	stage1 := res.NewModules[1]
	m1 := ir.At[*ir.Module](sys, stage1)
	if len(m1.Ports) != 2 {
		t.Fatalf("expected stage1 to have 2 crossing ports, got %d", len(m1.Ports))
	}
	if countOpcode(sys, stage1, ir.OpWaitUntil) != 1 {
		t.Fatal("expected a handshake wait_until in stage1")
	}
}

// S2: a module with no barrier at all is left untouched.
func TestNoBarrier(t *testing.T) {
	sys, modKey := buildWorker(t, "worker", func(sys *ir.System, mod *ir.Module, a, b ir.Key) {
		add := sys.NewAdd(a, b, ir.Signed32)
		sys.NewStore(mod.Ports[2], add)
	})

	if discovered := Discover(sys); len(discovered) != 0 {
		t.Fatalf("expected no modules discovered, got %v", discovered)
	}

	res := Rewrite(sys, DefaultConfig(), modKey)
	if len(res.NewModules) != 1 {
		t.Fatalf("expected no new modules, got %d", len(res.NewModules))
	}
}

// S3: two barriers on independent values, both feeding the final
// computation, produce a three-stage chain (plus the pass-through
// original module), four modules in total.
func TestTwoIndependentBarriers(t *testing.T) {
	sys, modKey := buildWorker(t, "worker", func(sys *ir.System, mod *ir.Module, a, b ir.Key) {
		add := sys.NewAdd(a, b, ir.Signed32)
		sys.NewBarrier(add)
		sub := sys.NewSub(a, b, ir.Signed32)
		sys.NewBarrier(sub)
		mul := sys.NewMul(add, sub, ir.Signed32)
		sys.NewStore(mod.Ports[2], mul)
	})

	res := Rewrite(sys, DefaultConfig(), modKey)
	if res.Log.ContainsErrors() {
		t.Fatalf("unexpected errors: %s", res.Log)
	}
	if len(res.NewModules) != 4 {
		t.Fatalf("expected 4 modules (original + 3 stages), got %d", len(res.NewModules))
	}
}

// S4: a module named "testbench" is skipped during discovery even though
// it contains a barrier.
func TestTestbenchSkipped(t *testing.T) {
	sys := ir.NewSystem()
	modKey := sys.CreateModule("testbench", []ir.PortInfo{
		{Name: "a", DT: ir.Signed32, IsInput: true},
	})
	mod := ir.At[*ir.Module](sys, modKey)
	sys.WithCurrentModule(modKey, func() {
		a := sys.NewLoad(mod.Ports[0], ir.Signed32)
		sys.NewBarrier(a)
	})

	if discovered := Discover(sys); len(discovered) != 0 {
		t.Fatalf("expected testbench to be skipped, got %v", discovered)
	}
}

// S5: a Slice survives a barrier cut, carrying its operand-0 value across
// the stage boundary and passing its start/end bounds through unchanged.
func TestSliceOperandCarriedAcrossCut(t *testing.T) {
	sys, modKey := buildWorker(t, "worker", func(sys *ir.System, mod *ir.Module, a, b ir.Key) {
		add := sys.NewAdd(a, b, ir.Signed32)
		sys.NewBarrier(add)
		start := sys.NewIntImm(0, ir.IntTy(8))
		end := sys.NewIntImm(16, ir.IntTy(8))
		slice := sys.NewSlice(add, start, end, ir.IntTy(16))
		sys.NewStore(mod.Ports[2], slice)
	})

	res := Rewrite(sys, DefaultConfig(), modKey)
	if res.Log.ContainsErrors() {
		t.Fatalf("unexpected errors: %s", res.Log)
	}
	terminal := res.NewModules[len(res.NewModules)-1]
	if countOpcode(sys, terminal, ir.OpSlice) != 1 {
		t.Fatal("expected Slice to be cloned into the terminal stage")
	}
}

// S6: an unsupported opcode inside a stage body is logged at Warning
// severity and skipped rather than aborting the whole rewrite.
func TestUnsupportedOpcodeLoggedAndSkipped(t *testing.T) {
	sys, modKey := buildWorker(t, "worker", func(sys *ir.System, mod *ir.Module, a, b ir.Key) {
		add := sys.NewAdd(a, b, ir.Signed32)
		sys.NewBarrier(add)
		mod32 := sys.Emit(ir.OpBinaryMod, []ir.Key{add, b}, ir.Signed32, "")
		sys.NewStore(mod.Ports[2], mod32)
	})

	res := Rewrite(sys, DefaultConfig(), modKey)
	if res.Log.ContainsErrors() {
		t.Fatalf("unsupported opcode should warn, not error: %s", res.Log)
	}
	foundWarning := false
	for _, e := range res.Log.Entries {
		if e.Severity == Warning {
			foundWarning = true
		}
	}
	if !foundWarning {
		t.Fatal("expected a Warning entry for the unsupported Mod opcode")
	}
}
