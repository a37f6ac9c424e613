package ir

import "testing"

func TestCreateModuleAndEmit(t *testing.T) {
	sys := NewSystem()
	modKey := sys.CreateModule("worker", []PortInfo{
		{Name: "a", DT: Signed32, IsInput: true},
		{Name: "out", DT: Signed32, IsInput: false},
	})
	mod := At[*Module](sys, modKey)
	if len(mod.Ports) != 2 {
		t.Fatalf("expected 2 ports, got %d", len(mod.Ports))
	}

	var loadKey Key
	sys.WithCurrentModule(modKey, func() {
		loadKey = sys.NewLoad(mod.Ports[0], Signed32)
	})

	blk := At[*Block](sys, mod.Body)
	if len(blk.Exprs) != 1 || blk.Exprs[0] != loadKey {
		t.Fatalf("expected load to be appended to module body, got %v", blk.Exprs)
	}
}

func TestEraseRemovesFromBlock(t *testing.T) {
	sys := NewSystem()
	modKey := sys.CreateModule("m", []PortInfo{{Name: "a", DT: Signed32, IsInput: true}})
	mod := At[*Module](sys, modKey)

	var loadKey, addKey Key
	sys.WithCurrentModule(modKey, func() {
		loadKey = sys.NewLoad(mod.Ports[0], Signed32)
		addKey = sys.NewAdd(loadKey, loadKey, Signed32)
	})

	sys.Erase(addKey)
	if sys.Exists(addKey) {
		t.Fatal("expected addKey to be erased")
	}
	blk := At[*Block](sys, mod.Body)
	for _, k := range blk.Exprs {
		if k == addKey {
			t.Fatal("erased key still present in block")
		}
	}
}

func TestWalkVisitsEveryExpr(t *testing.T) {
	sys := NewSystem()
	modKey := sys.CreateModule("m", []PortInfo{{Name: "a", DT: Signed32, IsInput: true}})
	mod := At[*Module](sys, modKey)
	sys.WithCurrentModule(modKey, func() {
		l := sys.NewLoad(mod.Ports[0], Signed32)
		sys.NewAdd(l, l, Signed32)
	})

	count := 0
	Walk(sys, walkCounter{&count})
	if count != 2 {
		t.Fatalf("expected 2 exprs visited, got %d", count)
	}
}

type walkCounter struct{ n *int }

func (walkCounter) Enter(*System) bool           { return true }
func (walkCounter) VisitModule(*System, Key) bool { return true }
func (walkCounter) VisitBlock(*System, Key) bool  { return true }
func (w walkCounter) VisitExpr(*System, Key) bool { *w.n++; return true }
