package xform

import "github.com/h2oxi/pipecut/ir"

// cloneExpr clones a single original expression into the current module,
// remapping operands through nodeRemap (falling back to the original key
// for values that are unaffected by cloning, such as IntImm bounds on a
// Slice). It supports exactly the opcode subset
// original_source/src/xform/barrier_analysis.rs's cut_modules clones:
// Add/Sub/Mul, BitCast, and Slice. Everything else is logged at Warning
// severity and skipped, per SPEC_FULL.md §7 and scenario S6: a zero
// placeholder of the original expression's type is emitted in its place
// so later operands referencing it still resolve to a live key, rather
// than computing the real (unsupported) result.
func cloneExpr(sys *ir.System, log *Log, orig *ir.Expr, nodeRemap map[ir.Key]ir.Key, cfg *Config) ir.Key {
	remap := func(k ir.Key) ir.Key {
		if v, ok := nodeRemap[k]; ok {
			return v
		}
		return k
	}

	switch orig.Opcode {
	case ir.OpBinaryAdd, ir.OpBinarySub, ir.OpBinaryMul:
		lhs, rhs := remap(orig.Operands[0]), remap(orig.Operands[1])
		switch orig.Opcode {
		case ir.OpBinaryAdd:
			return sys.NewAdd(lhs, rhs, orig.DT)
		case ir.OpBinarySub:
			return sys.NewSub(lhs, rhs, orig.DT)
		default:
			return sys.NewMul(lhs, rhs, orig.DT)
		}

	case ir.OpCastBitCast:
		v := remap(orig.Operands[0])
		dt, ok := sys.DataTypeOf(orig.Key)
		if !ok {
			dt = cfg.FallbackType
		}
		k := sys.NewBitCast(v, dt)
		log.Infof("bitcast at key %d cloned with recovered-or-fallback type", orig.Key)
		log.AssociateKey(orig.Key)
		return k

	case ir.OpSlice:
		v := remap(orig.Operands[0])
		start, end := orig.Operands[1], orig.Operands[2]
		return sys.NewSlice(v, start, end, orig.DT)

	default:
		log.Warnf("unsupported opcode %s skipped during stage body clone; substituting zero placeholder", orig.Opcode)
		log.AssociateKey(orig.Key)
		return sys.NewIntImm(0, orig.DT)
	}
}
