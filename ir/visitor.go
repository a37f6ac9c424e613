package ir

// Visitor mirrors the host's traversal hook: Enter is called once before
// any module is visited, then VisitModule/VisitBlock/VisitExpr are called
// top-down. Each method returns false to stop descending into that node's
// children (the Go analogue of the Rust trait's `Option<()>` early exit).
type Visitor interface {
	Enter(sys *System) bool
	VisitModule(sys *System, m Key) bool
	VisitBlock(sys *System, b Key) bool
	VisitExpr(sys *System, e Key) bool
}

// BaseVisitor supplies no-op defaults so callers can embed it and
// override only the methods they need, matching the default trait
// methods in the original Visitor.
type BaseVisitor struct{}

func (BaseVisitor) Enter(*System) bool                { return true }
func (BaseVisitor) VisitModule(*System, Key) bool      { return true }
func (BaseVisitor) VisitBlock(*System, Key) bool       { return true }
func (BaseVisitor) VisitExpr(*System, Key) bool        { return true }

// Walk performs the standard top-down traversal: Enter, then for every
// module in creation order, VisitModule, then VisitBlock over its body,
// then VisitExpr over every expression in that block in order.
func Walk(sys *System, v Visitor) {
	if !v.Enter(sys) {
		return
	}
	for _, mk := range sys.Modules() {
		if !v.VisitModule(sys, mk) {
			continue
		}
		mod := At[*Module](sys, mk)
		if !v.VisitBlock(sys, mod.Body) {
			continue
		}
		blk := At[*Block](sys, mod.Body)
		for _, ek := range blk.Exprs {
			if !sys.Exists(ek) {
				continue
			}
			v.VisitExpr(sys, ek)
		}
	}
}

// WalkModule runs VisitModule/VisitBlock/VisitExpr over a single module,
// for callers that already know which module they want.
func WalkModule(sys *System, v Visitor, mk Key) {
	if !v.VisitModule(sys, mk) {
		return
	}
	mod := At[*Module](sys, mk)
	if !v.VisitBlock(sys, mod.Body) {
		return
	}
	blk := At[*Block](sys, mod.Body)
	for _, ek := range blk.Exprs {
		if !sys.Exists(ek) {
			continue
		}
		v.VisitExpr(sys, ek)
	}
}
