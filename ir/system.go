package ir

// System owns the node arena and the single "current module" cursor that
// every builder call implicitly targets, mirroring the single-writer
// emission model in SPEC_FULL.md §5.
type System struct {
	nodes   map[Key]Node
	order   []Key // module keys, in creation order
	next    Key
	current Key // currently-selected module, for Emit/EmitInto
}

// NewSystem returns an empty arena.
func NewSystem() *System {
	return &System{nodes: make(map[Key]Node), current: NoKey}
}

func (s *System) alloc(n Node) Key {
	k := s.next
	s.next++
	n.setKey(k)
	s.nodes[k] = n
	return k
}

// At returns the node stored at k, type-asserted to T. It panics if k is
// unerased but holds a different concrete type; callers that expect a
// possibly-erased key should check Exists first.
func At[T Node](s *System, k Key) T {
	n := s.nodes[k]
	return n.(T)
}

// Exists reports whether k currently refers to a live node.
func (s *System) Exists(k Key) bool {
	_, ok := s.nodes[k]
	return ok
}

// Erase removes a node from the arena. If it is an Expr, it is also
// removed from its owning Block's expression list.
func (s *System) Erase(k Key) {
	if n, ok := s.nodes[k]; ok {
		if e, isExpr := n.(*Expr); isExpr {
			blk := At[*Block](s, e.Block)
			blk.Exprs = removeKey(blk.Exprs, k)
		}
	}
	delete(s.nodes, k)
}

func removeKey(ks []Key, target Key) []Key {
	out := ks[:0]
	for _, k := range ks {
		if k != target {
			out = append(out, k)
		}
	}
	return out
}

// PortInfo describes a port to create along with a new module.
type PortInfo struct {
	Name    string
	DT      DataType
	IsInput bool
	FIFO    Key
}

// CreateModule allocates a Module, its PortDecls, and an empty Block for
// its body, returning the module's Key.
func (s *System) CreateModule(name string, ports []PortInfo) Key {
	blockKey := s.alloc(&Block{Exprs: nil})
	m := &Module{Name: name, Body: blockKey}
	modKey := s.alloc(m)
	for _, p := range ports {
		pk := s.alloc(&PortDecl{Name: p.Name, DT: p.DT, IsInput: p.IsInput, FIFO: p.FIFO})
		m.Ports = append(m.Ports, pk)
	}
	s.order = append(s.order, modKey)
	return modKey
}

// Modules returns every module key in creation order.
func (s *System) Modules() []Key {
	out := make([]Key, 0, len(s.order))
	for _, k := range s.order {
		if s.Exists(k) {
			out = append(out, k)
		}
	}
	return out
}

// WithCurrentModule runs fn with the current-module cursor set to m,
// saving and restoring the prior cursor afterward -- the save/restore
// discipline SPEC_FULL.md §5 requires around nested stage emission.
func (s *System) WithCurrentModule(m Key, fn func()) {
	prev := s.current
	s.current = m
	fn()
	s.current = prev
}

// CurrentModule returns the module currently selected for emission.
func (s *System) CurrentModule() Key { return s.current }

// Emit appends a new Expr of the given opcode/operands/type to the
// current module's body block and returns its Key.
func (s *System) Emit(opcode Opcode, operands []Key, dt DataType, name string) Key {
	if s.current == NoKey {
		panic("ir: Emit with no current module selected")
	}
	mod := At[*Module](s, s.current)
	e := &Expr{Opcode: opcode, Operands: operands, DT: dt, Name: name, Module: s.current, Block: mod.Body}
	k := s.alloc(e)
	blk := At[*Block](s, mod.Body)
	blk.Exprs = append(blk.Exprs, k)
	return k
}

// NewIntImm allocates a standalone integer immediate, not tied to any
// module's body.
func (s *System) NewIntImm(value int64, dt DataType) Key {
	return s.alloc(&IntImm{Value: value, DT: dt})
}

// NewFIFO allocates a standalone FIFO queue descriptor.
func (s *System) NewFIFO(name string, dt DataType, depth int) Key {
	return s.alloc(&FIFO{Name: name, DT: dt, Depth: depth})
}

// DataTypeOf recovers the DataType of any value-producing node, for port
// type inference (SPEC_FULL.md §11). ok is false when k does not refer to
// a node with a recoverable type.
func (s *System) DataTypeOf(k Key) (dt DataType, ok bool) {
	n, exists := s.nodes[k]
	if !exists {
		return DataType{}, false
	}
	switch v := n.(type) {
	case *Expr:
		return v.DT, true
	case *IntImm:
		return v.DT, true
	case *PortDecl:
		return v.DT, true
	case *FIFO:
		return v.DT, true
	default:
		return DataType{}, false
	}
}

// Name returns a human-readable name for any node that has one, for
// diagnostics.
func (s *System) Name(k Key) string {
	n, exists := s.nodes[k]
	if !exists {
		return "<erased>"
	}
	switch v := n.(type) {
	case *Module:
		return v.Name
	case *PortDecl:
		return v.Name
	case *FIFO:
		return v.Name
	case *Expr:
		if v.Name != "" {
			return v.Name
		}
		return v.Opcode.String()
	default:
		return "?"
	}
}
